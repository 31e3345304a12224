package apperrors

import "errors"

// Resource errors
var (
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")
)

// Authentication errors
var (
	ErrUnauthorized       = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountDisabled    = errors.New("account is disabled")
)

// Authorization errors
var (
	ErrPermissionDenied = errors.New("permission denied")
)

// Validation errors
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// Domain errors
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrUsernameAlreadyExists = errors.New("username already exists")
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrListingNotFound       = errors.New("listing not found")
	ErrCategoryNotFound      = errors.New("category not found")
	ErrPostNotFound          = errors.New("post not found")
	ErrCommentNotFound       = errors.New("comment not found")
	ErrConversationNotFound  = errors.New("conversation not found")
	ErrNotificationNotFound  = errors.New("notification not found")
	ErrNotParticipant        = errors.New("user is not a participant of this conversation")
	ErrEmptyComment          = errors.New("comment cannot be empty")
	ErrInvalidFileType       = errors.New("invalid file type")
	ErrInvalidEmailToken     = errors.New("invalid or expired email verification token")
)

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Field   string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithField names the request field the error refers to
func (e *CustomError) WithField(field string) *CustomError {
	e.Field = field
	return e
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{Err: ErrConflict, Message: message}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{Err: ErrPermissionDenied, Message: message}
}

// NewValidationError creates a validation error bound to a request field
func NewValidationError(field, message string) error {
	return &CustomError{Err: ErrValidationFailed, Message: message, Field: field}
}

// Is returns whether err matches target or any of errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}
	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// Kind classifies an error into the API error taxonomy
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
)

// KindOf returns the taxonomy class of err
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case Is(err, ErrValidationFailed, ErrBadRequest, ErrUsernameAlreadyExists, ErrEmailAlreadyExists,
		ErrEmptyComment, ErrInvalidFileType, ErrInvalidEmailToken):
		return KindValidation
	case Is(err, ErrUnauthorized, ErrInvalidCredentials, ErrTokenExpired, ErrTokenInvalid,
		ErrTokenNotFound, ErrTokenRevoked, ErrAccountDisabled):
		return KindUnauthenticated
	case Is(err, ErrPermissionDenied, ErrNotParticipant):
		return KindForbidden
	case Is(err, ErrResourceNotFound, ErrUserNotFound, ErrListingNotFound, ErrCategoryNotFound,
		ErrPostNotFound, ErrCommentNotFound, ErrConversationNotFound, ErrNotificationNotFound):
		return KindNotFound
	case Is(err, ErrConflict, ErrResourceAlreadyExists):
		return KindConflict
	default:
		return KindInternal
	}
}
