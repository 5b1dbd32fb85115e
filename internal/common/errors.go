package common

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes carried by AppError.
const (
	CodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	CodeOversizeDocument     = "OVERSIZE_DOCUMENT"
	CodeMissingCredential    = "MISSING_CREDENTIAL"
	CodeNoTextExtracted      = "NO_TEXT_EXTRACTED"
	CodeAnalysisFailed       = "ANALYSIS_FAILED"
	CodeProviderUnavailable  = "PROVIDER_UNAVAILABLE"
	CodeNotFound             = "NOT_FOUND"
	CodeConfig               = "CONFIG_ERROR"
)

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")

	// Pipeline failures. Everything except ErrProviderUnavailable is terminal for a run.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrOversizeDocument     = errors.New("document exceeds size limit")
	ErrMissingCredential    = errors.New("missing provider credential")
	ErrNoTextExtracted      = errors.New("no text extracted")
	ErrAnalysisFailed       = errors.New("analysis failed")
	ErrProviderUnavailable  = errors.New("provider unavailable")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ErrorCode returns the AppError code in err's chain, or "" when there is none.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	switch {
	case errors.Is(err, ErrUnsupportedMediaType):
		return CodeUnsupportedMediaType
	case errors.Is(err, ErrOversizeDocument):
		return CodeOversizeDocument
	case errors.Is(err, ErrMissingCredential):
		return CodeMissingCredential
	case errors.Is(err, ErrNoTextExtracted):
		return CodeNoTextExtracted
	case errors.Is(err, ErrAnalysisFailed):
		return CodeAnalysisFailed
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	}
	return ""
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func NotFoundError(message string) error {
	return status.Error(codes.NotFound, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

func InternalErrorf(format string, args ...interface{}) error {
	return InternalError(fmt.Sprintf(format, args...))
}

// ToStatus converts a pipeline or repository error into a gRPC status error.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrUnsupportedMediaType), errors.Is(err, ErrOversizeDocument),
		errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrMissingCredential), errors.Is(err, ErrNoTextExtracted):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// HTTPStatus maps an error onto the HTTP status code returned by the upload API.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrOversizeDocument):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrMissingCredential):
		return http.StatusPreconditionFailed
	case errors.Is(err, ErrNoTextExtracted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrAnalysisFailed):
		return http.StatusBadGateway
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
