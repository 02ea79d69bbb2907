package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSuccess_Envelope(t *testing.T) {
	w := httptest.NewRecorder()

	WriteSuccess(w, http.StatusCreated, map[string]string{"name": "x"}, "Created")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(201), body["statusCode"])
	assert.Equal(t, "Created", body["message"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]interface{}{"name": "x"}, body["data"])
}

func TestWriteError_AlwaysHasErrorsArray(t *testing.T) {
	w := httptest.NewRecorder()

	WriteNotFound(w, "Video not found")

	assert.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(404), body["statusCode"])
	assert.Equal(t, "Video not found", body["message"])
	assert.Equal(t, false, body["success"])
	assert.Equal(t, []interface{}{}, body["errors"])
	_, hasData := body["data"]
	assert.False(t, hasData)
}

func TestWriteError_WithDetails(t *testing.T) {
	w := httptest.NewRecorder()

	WriteUnauthorized(w, "Access token has expired", "TOKEN_EXPIRED")

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusUnauthorized, body.StatusCode)
	assert.Equal(t, []string{"TOKEN_EXPIRED"}, body.Errors)
}
