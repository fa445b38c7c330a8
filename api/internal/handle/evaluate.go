package handle

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"ai-grader/api/internal/evaluation"
)

// memory kept per request before multipart parts spill to disk
const multipartMemory = 8 << 20

type singleResponse struct {
	Success bool              `json:"success"`
	Result  evaluation.Record `json:"result"`
	Message string            `json:"message"`
}

type batchResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	evaluation.BatchResult
}

// EvaluateSingle handles POST /api/evaluate/single.
func (h *Handle) EvaluateSingle(w http.ResponseWriter, r *http.Request) {
	if err := h.parseMultipart(w, r); err != nil {
		h.writeError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	key, err := formFile(r.MultipartForm, "answer_key")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	student, err := formFile(r.MultipartForm, "student_response")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	rec, err := h.svc.EvaluateSingle(ctx, key, student,
		strings.TrimSpace(r.FormValue("student_name")),
		strings.TrimSpace(r.FormValue("assignment_id")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, singleResponse{
		Success: true,
		Result:  rec,
		Message: "Evaluation completed successfully",
	})
}

// EvaluateMultiple handles POST /api/evaluate/multiple.
func (h *Handle) EvaluateMultiple(w http.ResponseWriter, r *http.Request) {
	if err := h.parseMultipart(w, r); err != nil {
		h.writeError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	key, err := formFile(r.MultipartForm, "answer_key")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	headers := r.MultipartForm.File["student_responses"]
	if len(headers) == 0 {
		h.writeError(w, r, &evaluation.InvalidInputError{Field: "student_responses", Reason: "at least one file is required"})
		return
	}
	students := make([]evaluation.Upload, 0, len(headers))
	for _, fh := range headers {
		students = append(students, readUpload(fh))
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	res, err := h.svc.EvaluateBatch(ctx, key, students, strings.TrimSpace(r.FormValue("assignment_id")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	msg := "Batch evaluation completed successfully"
	if res.Skipped+res.Failed > 0 {
		msg = "Batch evaluation completed with some submissions not evaluated"
	}
	writeJSON(w, http.StatusOK, batchResponse{Success: true, Message: msg, BatchResult: res})
}

func (h *Handle) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return tooBig
		}
		return &evaluation.InvalidInputError{Field: "body", Reason: "expected multipart/form-data: " + err.Error()}
	}
	return nil
}

func formFile(form *multipart.Form, field string) (evaluation.Upload, error) {
	headers := form.File[field]
	if len(headers) == 0 {
		return evaluation.Upload{}, &evaluation.InvalidInputError{Field: field, Reason: "file is required"}
	}
	return readUpload(headers[0]), nil
}

// readUpload never fails: a read error travels in Upload.Err and is
// rejected by evaluation.NewFile for that submission only.
func readUpload(fh *multipart.FileHeader) evaluation.Upload {
	up := evaluation.Upload{Name: fh.Filename}
	f, err := fh.Open()
	if err != nil {
		up.Err = err
		return up
	}
	defer f.Close()
	up.Data, up.Err = io.ReadAll(f)
	return up
}
