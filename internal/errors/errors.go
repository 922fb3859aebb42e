package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeExtraction ErrorType = "extraction"
	ErrorTypeProvider   ErrorType = "provider"
	ErrorTypeParse      ErrorType = "parse"
	ErrorTypeFetch      ErrorType = "fetch"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"cause,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to an error
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func newAppError(typ ErrorType, code, message string, cause error) *AppError {
	return &AppError{
		Type:    typ,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Error constructors for different types
func NewValidationError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, code, message, cause)
}

func NewExtractionError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeExtraction, code, message, cause)
}

func NewProviderError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeProvider, code, message, cause)
}

func NewParseError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeParse, code, message, cause)
}

func NewFetchError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeFetch, code, message, cause)
}

func NewIOError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeIO, code, message, cause)
}

func NewConfigError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeConfig, code, message, cause)
}

func NewInternalError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, code, message, cause)
}

// As finds the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err's chain holds an AppError of the given type.
func IsType(err error, typ ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == typ
}

// Common error codes
const (
	ErrCodeFileNotFound      = "FILE_NOT_FOUND"
	ErrCodeFileNotReadable   = "FILE_NOT_READABLE"
	ErrCodeFileTooLarge      = "FILE_TOO_LARGE"
	ErrCodeInvalidFormat     = "INVALID_FORMAT"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeEmptyDocument     = "EMPTY_DOCUMENT"
	ErrCodeCorruptDocument   = "CORRUPT_DOCUMENT"
	ErrCodeProviderFailed    = "PROVIDER_FAILED"
	ErrCodeProviderTimeout   = "PROVIDER_TIMEOUT"
	ErrCodeProviderAuth      = "PROVIDER_AUTH"
	ErrCodeProviderQuota     = "PROVIDER_QUOTA"
	ErrCodeCircuitOpen       = "CIRCUIT_OPEN"
	ErrCodeMalformedResponse = "MALFORMED_RESPONSE"
	ErrCodeSourceUnavailable = "SOURCE_UNAVAILABLE"
	ErrCodeSourceBadPayload  = "SOURCE_BAD_PAYLOAD"
	ErrCodeAllSourcesFailed  = "ALL_SOURCES_FAILED"
	ErrCodeMissingAPIKey     = "MISSING_API_KEY"
	ErrCodeInvalidConfig     = "INVALID_CONFIG"
	ErrCodeSecretStore       = "SECRET_STORE"
	ErrCodeStorage           = "STORAGE_FAILED"
	ErrCodeEventPublish      = "EVENT_PUBLISH_FAILED"
)
