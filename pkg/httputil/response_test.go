package httputil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/medilens/medilens-api/pkg/errors"
)

func TestErrorResponse(t *testing.T) {
	status, resp := ErrorResponse(fmt.Errorf("failed to get: %w", apperrors.NotFound("analysis", nil)))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "analysis not found", resp.Message)

	status, resp = ErrorResponse(apperrors.Internal(fmt.Errorf("pq: connection refused")))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", resp.Message)

	status, _ = ErrorResponse(fmt.Errorf("plain"))
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestErrorResponseValidation(t *testing.T) {
	type req struct {
		Text string `validate:"required"`
	}
	err := validator.New().Struct(req{})
	require.Error(t, err)

	status, resp := ErrorResponse(err)
	assert.Equal(t, http.StatusBadRequest, status)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "Text", resp.Errors[0].Field)
	assert.Equal(t, "Field is required", resp.Errors[0].Message)
}

func TestErrorResponseMalformedBody(t *testing.T) {
	var v map[string]string
	err := json.Unmarshal([]byte(`{"text":}`), &v)
	require.Error(t, err)

	status, resp := ErrorResponse(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "malformed request body", resp.Message)

	status, _ = ErrorResponse(io.ErrUnexpectedEOF)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestErrorResponseBodyTooLarge(t *testing.T) {
	err := fmt.Errorf("decode: %w", &http.MaxBytesError{Limit: 64})

	status, resp := ErrorResponse(err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	assert.Equal(t, "request body exceeds 64 bytes", resp.Message)
}
