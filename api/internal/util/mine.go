package util

import (
	"path/filepath"
	"strings"
)

const MimeOctetStream = "application/octet-stream"

var mimeByExt = map[string]string{
	"pdf":  "application/pdf",
	"txt":  "text/plain",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

// ContentTypeFor maps the final extension of name to a MIME type.
// Unknown or missing extensions map to application/octet-stream.
func ContentTypeFor(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(strings.TrimSpace(name)), "."))
	if m, ok := mimeByExt[ext]; ok {
		return m
	}
	return MimeOctetStream
}

// DisplayName is the file name without its final extension, or "Unknown".
func DisplayName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == "/" || base == "" {
		return "Unknown"
	}
	if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" {
		return stem
	}
	return base
}
