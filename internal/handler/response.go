package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"nfedit/internal/domain"
	"nfedit/internal/nfe"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	var perr *nfe.ParseError
	if errors.As(err, &perr) {
		return http.StatusBadRequest, "INVALID_DOCUMENT", "file could not be parsed as an NF-e XML document"
	}
	switch {
	case errors.Is(err, domain.ErrNoDocument):
		return http.StatusNotFound, "NO_DOCUMENT", "no document is loaded"
	case errors.Is(err, domain.ErrSessionActive):
		return http.StatusConflict, "SESSION_ACTIVE", "a document is already loaded; close the current session first"
	case errors.Is(err, domain.ErrItemOutOfRange):
		return http.StatusNotFound, "ITEM_OUT_OF_RANGE", "item index does not exist in the current document"
	case errors.Is(err, domain.ErrEmptyUnit):
		return http.StatusBadRequest, "EMPTY_UNIT", "unit value must not be empty"
	case errors.Is(err, domain.ErrEmptyScope):
		return http.StatusBadRequest, "EMPTY_SCOPE", "no items are selected"
	case errors.Is(err, domain.ErrInvalidScope):
		return http.StatusBadRequest, "INVALID_SCOPE", "scope must be 'all' or 'selected'"
	case errors.Is(err, domain.ErrConfirmRequired):
		return http.StatusBadRequest, "CONFIRM_REQUIRED", "export requires explicit confirmation"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrMissingFile):
		return http.StatusBadRequest, "MISSING_FILE", "file field is required"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] internal error: %v", requestID, err)
	}
	RespondError(c, status, code, msg)
}
