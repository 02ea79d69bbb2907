package handler

import (
	"errors"
	"net/http"
	"strings"

	"streamify/internal/httputil"
	"streamify/internal/model"
)

// multipartMemory is how much of a form is held in memory before parts
// spill to temporary files.
const multipartMemory = 32 << 20

// formOverhead allows for the non-file fields of a multipart form.
const formOverhead = 1 << 20

// parseMultipart bounds the body to maxBytes and parses the form, writing the
// error response itself when parsing fails.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrNotMultipart):
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
		case errors.As(err, &tooLarge), strings.Contains(err.Error(), "request body too large"):
			httputil.WriteBadRequest(w, "File exceeds the size limit", model.CodeFileTooLarge)
		default:
			httputil.WriteBadRequest(w, "Invalid form data")
		}
		return false
	}
	return true
}

// cleanupMultipart removes temporary files created while parsing the form.
func cleanupMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}
