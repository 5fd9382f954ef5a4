package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeValidation       ErrorType = "validation"
	ErrorTypeUnauthorized     ErrorType = "unauthorized"
	ErrorTypeForbidden        ErrorType = "forbidden"
	ErrorTypeInvalidOperation ErrorType = "invalid_operation"
	ErrorTypeConflict         ErrorType = "conflict"
	ErrorTypeStorage          ErrorType = "storage"
	ErrorTypeInternal         ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError of the same type. Sentinels of
// one type match each other, so errors.Is(ErrPostNotFound, ErrUserNotFound)
// holds; use the Is*Error helpers for categories and compare Message when the
// exact sentinel matters.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail returns a copy of the error carrying an extra detail.
// The receiver is left untouched so package-level sentinels stay immutable.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{
		Type:    e.Type,
		Message: e.Message,
		Err:     e.Err,
		Details: details,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

var (
	// Not Found Errors
	ErrUserNotFound         = NewDomainError(ErrorTypeNotFound, "user not found", nil)
	ErrPostNotFound         = NewDomainError(ErrorTypeNotFound, "post not found", nil)
	ErrCommentNotFound      = NewDomainError(ErrorTypeNotFound, "comment not found", nil)
	ErrBookNotFound         = NewDomainError(ErrorTypeNotFound, "book not found", nil)
	ErrAuthorNotFound       = NewDomainError(ErrorTypeNotFound, "author not found", nil)
	ErrNotificationNotFound = NewDomainError(ErrorTypeNotFound, "notification not found", nil)
	ErrTagNotFound          = NewDomainError(ErrorTypeNotFound, "tag not found", nil)

	// Validation Errors
	ErrInvalidInput      = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrInvalidRole       = NewDomainError(ErrorTypeValidation, "unknown role", nil)
	ErrInvalidPermission = NewDomainError(ErrorTypeValidation, "unknown permission", nil)
	ErrInvalidAction     = NewDomainError(ErrorTypeValidation, "unknown action", nil)

	// Authentication Errors
	ErrUnauthorized       = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)
	ErrInvalidCredentials = NewDomainError(ErrorTypeUnauthorized, "invalid username or password", nil)
	ErrInvalidToken       = NewDomainError(ErrorTypeUnauthorized, "invalid authentication token", nil)
	ErrTokenExpired       = NewDomainError(ErrorTypeUnauthorized, "authentication token expired", nil)

	// Permission Errors
	ErrForbidden          = NewDomainError(ErrorTypeForbidden, "access forbidden", nil)
	ErrRoleRequired       = NewDomainError(ErrorTypeForbidden, "role not permitted", nil)
	ErrPermissionRequired = NewDomainError(ErrorTypeForbidden, "permission required", nil)
	ErrNotOwner           = NewDomainError(ErrorTypeForbidden, "only the owner may modify this resource", nil)

	// Invalid Operation Errors
	ErrCannotFollowSelf   = NewDomainError(ErrorTypeInvalidOperation, "you cannot follow yourself", nil)
	ErrCannotUnfollowSelf = NewDomainError(ErrorTypeInvalidOperation, "you cannot unfollow yourself", nil)

	// Conflict Errors
	ErrDuplicateUsername = NewDomainError(ErrorTypeConflict, "username already exists", nil)
	ErrDuplicateEmail    = NewDomainError(ErrorTypeConflict, "email already exists", nil)

	// Storage Errors
	ErrStorage     = NewDomainError(ErrorTypeStorage, "storage failure", nil)
	ErrLockTimeout = NewDomainError(ErrorTypeStorage, "timed out waiting for relationship lock", nil)

	// Internal Errors
	ErrInternal = NewDomainError(ErrorTypeInternal, "internal server error", nil)
)

func hasType(err error, errType ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == errType
	}
	return false
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return hasType(err, ErrorTypeNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return hasType(err, ErrorTypeValidation)
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	return hasType(err, ErrorTypeUnauthorized)
}

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	return hasType(err, ErrorTypeForbidden)
}

// IsInvalidOperationError checks if an error is a structurally invalid request
func IsInvalidOperationError(err error) bool {
	return hasType(err, ErrorTypeInvalidOperation)
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	return hasType(err, ErrorTypeConflict)
}

// IsStorageError checks if an error is a backing-store failure
func IsStorageError(err error) bool {
	return hasType(err, ErrorTypeStorage)
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return hasType(err, ErrorTypeInternal)
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapStorage wraps a persistence failure so callers can tell it apart
// from policy denials.
func WrapStorage(message string, err error) error {
	return NewDomainError(ErrorTypeStorage, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
