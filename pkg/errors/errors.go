package errors

import "net/http"

// AppError is a custom error type that includes an HTTP status code and a
// machine-readable kind the frontend can switch on.
type AppError struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// NewAppError creates a new AppError
func NewAppError(code int, kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// Generic errors
var (
	ErrInvalidRequest = NewAppError(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request parameters")
	ErrUnauthorized   = NewAppError(http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized access")
	ErrForbidden      = NewAppError(http.StatusForbidden, "FORBIDDEN", "Access denied")
	ErrNotFound       = NewAppError(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrInternalServer = NewAppError(http.StatusInternalServerError, "INTERNAL", "Internal server error")
	ErrRateLimit      = NewAppError(http.StatusTooManyRequests, "RATE_LIMIT", "Rate limit exceeded")
)

// State-machine errors. The conflict family marks precondition violations;
// callers that hit them on retry may treat them as no-ops.
var (
	ErrInvalidTarget    = NewAppError(http.StatusBadRequest, "INVALID_TARGET", "Operation cannot target yourself")
	ErrAlreadyConnected = NewAppError(http.StatusConflict, "ALREADY_CONNECTED", "Users are already connected")
	ErrDuplicateRequest = NewAppError(http.StatusConflict, "DUPLICATE_REQUEST", "A pending request already exists")
	ErrAlreadyResolved  = NewAppError(http.StatusConflict, "ALREADY_RESOLVED", "Request has already been resolved")
	ErrAlreadyMember    = NewAppError(http.StatusConflict, "ALREADY_MEMBER", "User is already a member")
	ErrAlreadyPending   = NewAppError(http.StatusConflict, "ALREADY_PENDING", "User already has a pending application")
	ErrCapacityExceeded = NewAppError(http.StatusConflict, "CAPACITY_EXCEEDED", "Project team is full")
	ErrEmptyMessage     = NewAppError(http.StatusBadRequest, "EMPTY_MESSAGE", "Message needs content or an attachment")
)

// Helper functions to create specific errors
func BadRequest(msg string) *AppError {
	return NewAppError(http.StatusBadRequest, "INVALID_REQUEST", msg)
}

func NotFound(msg string) *AppError {
	return NewAppError(http.StatusNotFound, "NOT_FOUND", msg)
}

func Unauthorized(msg string) *AppError {
	return NewAppError(http.StatusUnauthorized, "UNAUTHORIZED", msg)
}

func Forbidden(msg string) *AppError {
	return NewAppError(http.StatusForbidden, "FORBIDDEN", msg)
}

func Internal(msg string) *AppError {
	return NewAppError(http.StatusInternalServerError, "INTERNAL", msg)
}

// Is reports whether err carries the given kind.
func Is(err error, kind string) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Kind == kind
}
