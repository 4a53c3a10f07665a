package errors

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Configuration errors (1xxx)
	ErrCodeConfiguration ErrorCode = "CSE1001"

	// Repository errors (2xxx)
	ErrCodeRepositoryAccess ErrorCode = "CSE2001"
	ErrCodeDiffComputation  ErrorCode = "CSE2002"

	// Scoring service errors (3xxx)
	ErrCodeAuthentication ErrorCode = "CSE3001"
	ErrCodeRemoteService  ErrorCode = "CSE3002"
	ErrCodeTransport      ErrorCode = "CSE3003"

	// Aggregation errors (4xxx)
	ErrCodeEmptySeries ErrorCode = "CSE4001"

	// System errors (9xxx)
	ErrCodeInvalidState ErrorCode = "CSE9001"
	ErrCodeInternal     ErrorCode = "CSE9002"
)

var codeNames = map[ErrorCode]string{
	ErrCodeConfiguration:    "configuration error",
	ErrCodeRepositoryAccess: "repository access error",
	ErrCodeDiffComputation:  "diff computation error",
	ErrCodeAuthentication:   "authentication error",
	ErrCodeRemoteService:    "remote service error",
	ErrCodeTransport:        "transport error",
	ErrCodeEmptySeries:      "empty series error",
	ErrCodeInvalidState:     "invalid state",
	ErrCodeInternal:         "internal error",
}

// String returns the human readable name of the code
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return string(c)
}

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL" // Run cannot start at all
	SeverityError    ErrorSeverity = "ERROR"    // Run aborted
	SeverityWarning  ErrorSeverity = "WARNING"
)

// AppError represents a structured application error with context
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Stack       string
	Timestamp   time.Time
	Suggestions []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", string(e.Code), e.Code.String(), e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	return b.String()
}

// Detailed renders the error together with its context and suggestions
func (e *AppError) Detailed() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", string(e.Code), e.Severity, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\nCaused by: %v", e.Cause))
	}

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("\n  %s: %v", k, e.Context[k]))
		}
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return b.String()
}

// Unwrap returns the cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  SeverityError,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
		Timestamp: time.Now(),
	}
}

// Newf creates a new AppError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	// If wrapping another AppError, inherit its context
	var ae *AppError
	if errors.As(err, &ae) {
		for k, v := range ae.Context {
			appErr.Context[k] = v
		}
	}

	return appErr
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// captureStack captures the current stack trace
func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			b.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return b.String()
}

// Common error constructors

// ConfigurationError reports a missing or invalid setting
func ConfigurationError(message string, field string) *AppError {
	return New(ErrCodeConfiguration, message).
		WithContext("field", field).
		WithSeverity(SeverityCritical)
}

// RepositoryAccessError reports a failure to open or traverse the repository
func RepositoryAccessError(message string, cause error) *AppError {
	if cause == nil {
		return New(ErrCodeRepositoryAccess, message)
	}
	return Wrap(cause, ErrCodeRepositoryAccess, message)
}

// DiffComputationError reports a failure to resolve trees or build a diff
func DiffComputationError(message string, cause error) *AppError {
	if cause == nil {
		return New(ErrCodeDiffComputation, message)
	}
	return Wrap(cause, ErrCodeDiffComputation, message)
}

// AuthenticationError reports a rejected credential
func AuthenticationError(message string, status int) *AppError {
	return New(ErrCodeAuthentication, message).
		WithContext("status", status).
		WithSuggestions(
			"Check the API key passed with --api-key or DEEPSEEK_API_KEY",
			"Run 'commitscore auth login' to store a new key",
		)
}

// RemoteServiceError reports a non-success or malformed response
func RemoteServiceError(message string, cause error) *AppError {
	if cause == nil {
		return New(ErrCodeRemoteService, message)
	}
	return Wrap(cause, ErrCodeRemoteService, message)
}

// TransportError reports a connectivity failure
func TransportError(message string, cause error) *AppError {
	err := New(ErrCodeTransport, message)
	err.Cause = cause
	return err.
		WithSuggestions(
			"Check your network connection",
			"Verify the scoring endpoint is reachable",
		)
}

// EmptySeriesError reports an aggregate key without recorded scores
func EmptySeriesError(key string) *AppError {
	return New(ErrCodeEmptySeries, fmt.Sprintf("no scores recorded for %s", key)).
		WithContext("key", key)
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether any error in err's chain carries code
func HasCode(err error, code ErrorCode) bool {
	return errors.Is(err, &AppError{Code: code})
}

// IsConfiguration reports whether err is a configuration error
func IsConfiguration(err error) bool { return HasCode(err, ErrCodeConfiguration) }

// IsAuthentication reports whether err is an authentication error
func IsAuthentication(err error) bool { return HasCode(err, ErrCodeAuthentication) }
