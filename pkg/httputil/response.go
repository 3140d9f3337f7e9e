package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/medilens/medilens-api/pkg/errors"
)

// Context keys shared by middleware and handlers
const (
	ContextRequestID = "request_id"
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
)

// Response wraps all API responses
type Response struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  []ValidationError `json:"errors,omitempty"`
	TraceID string            `json:"trace_id,omitempty"`
}

// ValidationError describes one invalid request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationMessages overrides validator messages per tag.
var ValidationMessages = map[string]string{
	"required": "Field is required",
	"notblank": "Field must not be blank",
	"min":      "Value is too short",
	"max":      "Value is too long",
	"uuid":     "Invalid identifier",
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, NewSuccessResponse(data))
}

// AbortWithError stops the chain with an error envelope.
func AbortWithError(c *gin.Context, status int, message string) {
	resp := NewErrorResponse(message)
	resp.TraceID = c.GetString(ContextRequestID)
	c.AbortWithStatusJSON(status, resp)
}

// RespondWithError maps err to a status and sends an error envelope.
// Internal details of unexpected errors are not exposed.
func RespondWithError(c *gin.Context, err error) {
	status, resp := ErrorResponse(err)
	resp.TraceID = c.GetString(ContextRequestID)
	c.AbortWithStatusJSON(status, resp)
}

// ErrorResponse builds the status and envelope for err.
func ErrorResponse(err error) (int, *Response) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		resp := NewErrorResponse("validation failed")
		for _, e := range verrs {
			msg := ValidationMessages[e.Tag()]
			if msg == "" {
				msg = e.Error()
			}
			resp.Errors = append(resp.Errors, ValidationError{Field: e.Field(), Message: msg})
		}
		return http.StatusBadRequest, resp
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, NewErrorResponse(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	}

	if isDecodeError(err) {
		return http.StatusBadRequest, NewErrorResponse("malformed request body")
	}

	if appErr, ok := apperrors.As(err); ok {
		status := appErr.StatusCode()
		if status == http.StatusInternalServerError {
			return status, NewErrorResponse("internal server error")
		}
		return status, NewErrorResponse(appErr.Message)
	}

	return http.StatusInternalServerError, NewErrorResponse("internal server error")
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
