// Package apperrors defines the closed set of error variants the API can
// produce and their mapping to HTTP statuses and envelope error types.
package apperrors

import (
	"errors"
	"net/http"
)

// Envelope error types
const (
	TypeValidation       = "VALIDATION_ERROR"
	TypeNotFound         = "NOT_FOUND"
	TypeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	TypeFileType         = "FILE_TYPE_ERROR"
	TypeFileSize         = "FILE_SIZE_ERROR"
	TypeFileCount        = "FILE_COUNT_ERROR"
	TypeCredentials      = "CREDENTIALS_ERROR"
	TypeRateLimit        = "RATE_LIMIT_ERROR"
	TypeServer           = "SERVER_ERROR"
)

// ValidationError is returned for missing or malformed request input
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidation creates a ValidationError with the given message
func NewValidation(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// NotFoundError is returned when a requested resource does not exist
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// NewNotFound creates a NotFoundError with the given message
func NewNotFound(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

// MethodNotAllowedError is returned for unsupported HTTP methods
type MethodNotAllowedError struct{}

func (e *MethodNotAllowedError) Error() string { return "Method not allowed" }

// FileTypeError is returned when an uploaded part is not an image
type FileTypeError struct {
	Filename    string
	ContentType string
}

func (e *FileTypeError) Error() string {
	return "Only image files are allowed"
}

// FileSizeError is returned when an uploaded file exceeds the size limit
type FileSizeError struct {
	Filename string
	Limit    int64
}

func (e *FileSizeError) Error() string {
	return "File too large"
}

// FileCountError is returned when a request carries too many files
type FileCountError struct {
	Limit int
}

func (e *FileCountError) Error() string {
	return "Too many files"
}

// RateLimitError is returned when a client exceeds the per-IP request limit
type RateLimitError struct{}

func (e *RateLimitError) Error() string { return "Too many requests" }

// CredentialsError is returned when an upstream collaborator rejects or is
// missing credentials (e.g. GOOGLE_APPLICATION_CREDENTIALS is unset)
type CredentialsError struct {
	Message string
	Err     error
}

func (e *CredentialsError) Error() string { return e.Message }

func (e *CredentialsError) Unwrap() error { return e.Err }

// NewCredentials creates a CredentialsError wrapping an underlying error
func NewCredentials(message string, err error) *CredentialsError {
	return &CredentialsError{Message: message, Err: err}
}

// Classify maps an error to its HTTP status and envelope error type.
// Unknown errors map to 500/SERVER_ERROR.
func Classify(err error) (int, string) {
	var (
		validationErr  *ValidationError
		notFoundErr    *NotFoundError
		methodErr      *MethodNotAllowedError
		fileTypeErr    *FileTypeError
		fileSizeErr    *FileSizeError
		fileCountErr   *FileCountError
		rateLimitErr   *RateLimitError
		credentialsErr *CredentialsError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, TypeValidation
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, TypeNotFound
	case errors.As(err, &methodErr):
		return http.StatusMethodNotAllowed, TypeMethodNotAllowed
	case errors.As(err, &fileTypeErr):
		return http.StatusBadRequest, TypeFileType
	case errors.As(err, &fileSizeErr):
		return http.StatusRequestEntityTooLarge, TypeFileSize
	case errors.As(err, &fileCountErr):
		return http.StatusRequestEntityTooLarge, TypeFileCount
	case errors.As(err, &rateLimitErr):
		return http.StatusTooManyRequests, TypeRateLimit
	case errors.As(err, &credentialsErr):
		return http.StatusInternalServerError, TypeCredentials
	default:
		return http.StatusInternalServerError, TypeServer
	}
}
