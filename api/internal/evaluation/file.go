package evaluation

import "ai-grader/api/internal/util"

// File is an upload that passed validation and carries its content type.
type File struct {
	Name     string
	Data     []byte
	MIMEType string
}

// NewFile validates an upload for the given form field. Empty content is
// rejected here so that no oracle call is ever made for it.
func NewFile(field string, up Upload) (File, error) {
	if up.Err != nil {
		return File{}, &InvalidInputError{Field: field, Reason: "unreadable upload: " + up.Err.Error()}
	}
	if len(up.Data) == 0 {
		return File{}, &InvalidInputError{Field: field, Reason: "file is empty"}
	}
	return File{
		Name:     up.Name,
		Data:     up.Data,
		MIMEType: util.ContentTypeFor(up.Name),
	}, nil
}
