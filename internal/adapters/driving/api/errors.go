package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// Client-facing messages. Internal error detail never reaches the response.
const (
	MsgQueryRequired   = "Query required"
	MsgNotInitialized  = "Vector store is not initialized"
	MsgProcessing      = "Processing failed"
	MsgFileProcessing  = "File processing failed"
	MsgNoFile          = "No file provided"
	MsgRateLimited     = "Rate limit exceeded"
	MsgProcessed       = "Processed successfully"
	MsgAlreadyIngested = "File already processed"
)

// APIError is an error with an HTTP status, rendered as {"error": message}.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// NewBadRequestError creates a 400 error.
func NewBadRequestError(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Message: message}
}

// NewServiceUnavailableError creates a 503 error.
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{Status: http.StatusServiceUnavailable, Message: message}
}

// NewInternalError creates a 500 error.
func NewInternalError(message string) *APIError {
	return &APIError{Status: http.StatusInternalServerError, Message: message}
}

// FromDomain maps a core error onto a response. Validation errors keep their
// message, an empty index is 503 and everything else becomes a 500 carrying
// fallback.
func FromDomain(err error, fallback string) *APIError {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, domain.ErrValidation):
		return NewBadRequestError(domain.ValidationMessage(err))
	case errors.Is(err, domain.ErrNotReady):
		return NewServiceUnavailableError(MsgNotInitialized)
	case errors.Is(err, domain.ErrRateLimited):
		return &APIError{Status: http.StatusTooManyRequests, Message: MsgRateLimited}
	default:
		return NewInternalError(fallback)
	}
}

// ErrorHandler renders every error as {"error": message}.
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		apiErr  *APIError
		httpErr *echo.HTTPError
	)
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &httpErr):
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		apiErr = &APIError{Status: httpErr.Code, Message: msg}
	default:
		logger.Error("Unhandled error on %s %s: %v", c.Request().Method, c.Path(), err)
		apiErr = NewInternalError(http.StatusText(http.StatusInternalServerError))
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(apiErr.Status)
		return
	}
	_ = c.JSON(apiErr.Status, apiErr)
}
