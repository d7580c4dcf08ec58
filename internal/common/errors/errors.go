package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// ErrorCode classifies an AppError.
type ErrorCode string

const (
	// Inbound request authentication
	ErrCodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeMissingHeaders   ErrorCode = "MISSING_HEADERS"
	ErrCodeInvalidSignature ErrorCode = "INVALID_SIGNATURE"

	// Request handling
	ErrCodeBadRequest             ErrorCode = "BAD_REQUEST"
	ErrCodeUnsupportedInteraction ErrorCode = "UNSUPPORTED_INTERACTION"
	ErrCodeValidation             ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound               ErrorCode = "NOT_FOUND"
	ErrCodeGiveawayNotFound       ErrorCode = "GIVEAWAY_NOT_FOUND"
	ErrCodeConflict               ErrorCode = "CONFLICT"

	// Dependencies
	ErrCodeDiscordAPI ErrorCode = "DISCORD_API_ERROR"
	ErrCodeStore      ErrorCode = "STORE_ERROR"
	ErrCodeQueue      ErrorCode = "QUEUE_ERROR"

	// Startup
	ErrCodeDuplicateRegistration ErrorCode = "DUPLICATE_REGISTRATION"
	ErrCodeNoHandlersRegistered  ErrorCode = "NO_HANDLERS_REGISTERED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// AppError is the typed application error carried up to the HTTP layer.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Context   map[string]string      `json:"context,omitempty"`
	Stack     []string               `json:"stack,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsAuth reports whether the error rejects an unauthenticated request.
func (e *AppError) IsAuth() bool {
	return e.Code == ErrCodeMethodNotAllowed ||
		e.Code == ErrCodeMissingHeaders ||
		e.Code == ErrCodeInvalidSignature
}

func (e *AppError) IsNotFound() bool {
	return e.Code == ErrCodeNotFound || e.Code == ErrCodeGiveawayNotFound
}

// IsUpstream reports whether a dependency outside the process failed.
func (e *AppError) IsUpstream() bool {
	return e.Code == ErrCodeDiscordAPI ||
		e.Code == ErrCodeStore ||
		e.Code == ErrCodeQueue
}

// HTTPStatus maps the code to the status written by the error middleware.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrCodeMissingHeaders, ErrCodeBadRequest, ErrCodeUnsupportedInteraction, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeInvalidSignature:
		return http.StatusUnauthorized
	case ErrCodeNotFound, ErrCodeGiveawayNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeDiscordAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (e *AppError) WithContext(key, value string) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

// New creates an AppError and captures the caller stack.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Stack:     getStackTrace(),
	}
}

// Wrap attaches a code and message to an existing error.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

func getStackTrace() []string {
	var stack []string
	for i := 2; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		if strings.Contains(fn.Name(), "internal/common/errors") {
			continue
		}
		stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, fn.Name()))
		if len(stack) >= 10 {
			break
		}
	}
	return stack
}

func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

func NewGiveawayNotFoundError(giveawayID string) *AppError {
	return New(ErrCodeGiveawayNotFound, fmt.Sprintf("Giveaway not found: %s", giveawayID)).
		WithDetail("giveaway_id", giveawayID)
}

// NewDiscordAPIError records the HTTP status returned by Discord.
func NewDiscordAPIError(operation string, status int, body string) *AppError {
	return New(ErrCodeDiscordAPI, fmt.Sprintf("Discord API %s failed with status %d", operation, status)).
		WithDetail("operation", operation).
		WithDetail("status", status).
		WithDetail("body", body)
}

func NewStoreError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeStore, fmt.Sprintf("Store operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewQueueError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeQueue, fmt.Sprintf("Queue operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// AsAppError finds the first AppError in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil && stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether any AppError in the chain carries code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// StatusOf extracts the Discord status recorded by NewDiscordAPIError, or 0.
func StatusOf(err error) int {
	appErr, ok := AsAppError(err)
	if !ok || appErr.Code != ErrCodeDiscordAPI {
		return 0
	}
	status, _ := appErr.Details["status"].(int)
	return status
}
