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
	ErrUnknown  ErrorCode = "UNKNOWN"
	ErrInternal ErrorCode = "INTERNAL"
	ErrNotFound ErrorCode = "NOT_FOUND"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Rule errors
	ErrRuleInvalid    ErrorCode = "RULE_INVALID"
	ErrRuleParse      ErrorCode = "RULE_PARSE"
	ErrMatcherInvalid ErrorCode = "MATCHER_INVALID"

	// Template errors
	ErrTemplateInvalid ErrorCode = "TEMPLATE_INVALID"

	// Event errors
	ErrEventInvalid ErrorCode = "EVENT_INVALID"
)

// GroupError represents a structured error with code and details
type GroupError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *GroupError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *GroupError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *GroupError) Is(target error) bool {
	var targetErr *GroupError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new GroupError with the given code and message
func New(code ErrorCode, message string) *GroupError {
	return &GroupError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new GroupError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *GroupError {
	return &GroupError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a GroupError
func Wrap(err error, code ErrorCode, message string) *GroupError {
	if err == nil {
		return nil
	}
	return &GroupError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *GroupError {
	if err == nil {
		return nil
	}
	return &GroupError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *GroupError) WithDetail(key string, value interface{}) *GroupError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *GroupError) WithDetails(details map[string]interface{}) *GroupError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var groupErr *GroupError
	if errors.As(err, &groupErr) {
		return groupErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a GroupError
func GetErrorCode(err error) ErrorCode {
	var groupErr *GroupError
	if errors.As(err, &groupErr) {
		return groupErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a GroupError
func GetErrorDetails(err error) map[string]interface{} {
	var groupErr *GroupError
	if errors.As(err, &groupErr) {
		return groupErr.Details
	}
	return nil
}
