package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown       ErrorCode = "UNKNOWN"
	ErrInternal      ErrorCode = "INTERNAL"
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrCanceled      ErrorCode = "CANCELED"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Stage errors
	ErrStageNotFound ErrorCode = "STAGE_NOT_FOUND"

	// Build errors
	ErrNoMatchingRule       ErrorCode = "NO_MATCHING_RULE"
	ErrTransformFailed      ErrorCode = "TRANSFORM_FAILED"
	ErrUnresolvedDependency ErrorCode = "UNRESOLVED_DEPENDENCY"
	ErrEmissionFailed       ErrorCode = "EMISSION_FAILED"
	ErrDiagnosticFinding    ErrorCode = "DIAGNOSTIC_FINDING"
)

// Detail keys used by the build error constructors
const (
	DetailPath  = "path"
	DetailStage = "stage"
	DetailFrom  = "from"
	DetailTo    = "to"
)

// KilnError represents a structured error with code and details
type KilnError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *KilnError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *KilnError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *KilnError) Is(target error) bool {
	var targetErr *KilnError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new KilnError with the given code and message
func New(code ErrorCode, message string) *KilnError {
	return &KilnError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new KilnError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *KilnError {
	return &KilnError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a KilnError
func Wrap(err error, code ErrorCode, message string) *KilnError {
	if err == nil {
		return nil
	}
	return &KilnError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *KilnError {
	if err == nil {
		return nil
	}
	return &KilnError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *KilnError) WithDetail(key string, value interface{}) *KilnError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *KilnError) WithDetails(details map[string]interface{}) *KilnError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// NoMatchingRule reports a file that no rule classifies and that is not a
// declared static asset.
func NoMatchingRule(path string) *KilnError {
	return Newf(ErrNoMatchingRule, "no rule matches %s", path).
		WithDetail(DetailPath, path)
}

// TransformFailed reports a stage failure while transforming path.
func TransformFailed(stage, path string, cause error) *KilnError {
	return Wrapf(cause, ErrTransformFailed, "stage %s failed on %s", stage, path).
		WithDetail(DetailStage, stage).
		WithDetail(DetailPath, path)
}

// UnresolvedDependency reports a dependency of from that cannot be found.
func UnresolvedDependency(from, to string) *KilnError {
	return Newf(ErrUnresolvedDependency, "cannot resolve %q from %s", to, from).
		WithDetail(DetailFrom, from).
		WithDetail(DetailTo, to)
}

// EmissionFailed reports an I/O failure while writing the artifact set.
func EmissionFailed(path string, cause error) *KilnError {
	return Wrapf(cause, ErrEmissionFailed, "failed to emit %s", path).
		WithDetail(DetailPath, path)
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var kilnErr *KilnError
	if errors.As(err, &kilnErr) {
		return kilnErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a KilnError
func GetErrorCode(err error) ErrorCode {
	var kilnErr *KilnError
	if errors.As(err, &kilnErr) {
		return kilnErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a KilnError
func GetErrorDetails(err error) map[string]interface{} {
	var kilnErr *KilnError
	if errors.As(err, &kilnErr) {
		return kilnErr.Details
	}
	return nil
}
