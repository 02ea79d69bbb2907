package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Response is the envelope wrapped around every successful payload.
type Response struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

// ErrorResponse is the envelope for every failure. Errors is never null.
type ErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

// WriteJSON writes a JSON body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers already sent
			slog.Error("encode response", "status", status, "err", err)
		}
	}
}

// WriteSuccess wraps data in the success envelope. Transport status equals statusCode.
func WriteSuccess(w http.ResponseWriter, status int, data interface{}, message string) {
	WriteJSON(w, status, Response{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

// WriteOK writes a 200 success envelope.
func WriteOK(w http.ResponseWriter, data interface{}, message string) {
	WriteSuccess(w, http.StatusOK, data, message)
}

// WriteCreated writes a 201 success envelope.
func WriteCreated(w http.ResponseWriter, data interface{}, message string) {
	WriteSuccess(w, http.StatusCreated, data, message)
}

// WriteError writes the error envelope:
// {"statusCode": 400, "message": "...", "success": false, "errors": [...]}
func WriteError(w http.ResponseWriter, status int, message string, errs ...string) {
	if errs == nil {
		errs = []string{}
	}
	WriteJSON(w, status, ErrorResponse{
		StatusCode: status,
		Message:    message,
		Success:    false,
		Errors:     errs,
	})
}

// Common error response helpers

// WriteBadRequest writes a 400 Bad Request error
func WriteBadRequest(w http.ResponseWriter, message string, errs ...string) {
	WriteError(w, http.StatusBadRequest, message, errs...)
}

// WriteUnauthorized writes a 401 Unauthorized error
func WriteUnauthorized(w http.ResponseWriter, message string, errs ...string) {
	WriteError(w, http.StatusUnauthorized, message, errs...)
}

// WriteForbidden writes a 403 Forbidden error
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message)
}

// WriteNotFound writes a 404 Not Found error
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// WriteConflict writes a 409 Conflict error
func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, message)
}

// WriteTooManyRequests writes a 429 Too Many Requests error
func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message)
}

// WriteInternalError writes a 500 Internal Server Error
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}
