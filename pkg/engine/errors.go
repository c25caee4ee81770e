package engine

import (
	"errors"
	"fmt"

	"github.com/openfroyo/variantspace/pkg/variant"
)

// ErrorClass classifies an error by the stage that rejected the input.
type ErrorClass string

const (
	// ErrorClassConfiguration indicates an illegal declaration: an axis
	// without candidates, an unsupported value, a failed validator or a
	// malformed declaration file. Configuration errors are fatal for the
	// component they occur in.
	ErrorClassConfiguration ErrorClass = "configuration"

	// ErrorClassPolicy indicates a resolved plan rejected by policy.
	ErrorClassPolicy ErrorClass = "policy"

	// ErrorClassInternal indicates a failure unrelated to the input.
	ErrorClassInternal ErrorClass = "internal"
)

// EngineError represents a classified error with context.
// nolint:revive // EngineError is intentionally named to distinguish from standard errors
type EngineError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Component is the component the error relates to, if any.
	Component string `json:"component,omitempty"`

	// Operation is the operation being performed when the error occurred.
	Operation string `json:"operation,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`

	// Details contains additional context-specific information.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Component != "" && e.Operation != "" {
		return fmt.Sprintf("[%s] %s (component=%s, operation=%s): %s",
			e.Class, e.Message, e.Component, e.Operation, e.unwrapMessage())
	}
	if e.Component != "" {
		return fmt.Sprintf("[%s] %s (component=%s): %s",
			e.Class, e.Message, e.Component, e.unwrapMessage())
	}
	return fmt.Sprintf("[%s] %s: %s", e.Class, e.Message, e.unwrapMessage())
}

// Unwrap returns the underlying error for error chain inspection.
func (e *EngineError) Unwrap() error {
	return e.Err
}

func (e *EngineError) unwrapMessage() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// Is implements error equality checking for errors.Is.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewConfigurationError creates a new configuration error.
func NewConfigurationError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassConfiguration,
		Message: message,
		Code:    ErrCodeValidation,
		Err:     err,
	}
}

// NewPolicyError creates a new policy error.
func NewPolicyError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassPolicy,
		Message: message,
		Code:    ErrCodePolicyDenied,
		Err:     err,
	}
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassInternal,
		Message: message,
		Code:    ErrCodeInternal,
		Err:     err,
	}
}

// WithComponent adds component context to an error.
func (e *EngineError) WithComponent(component string) *EngineError {
	e.Component = component
	return e
}

// WithOperation adds operation context to an error.
func (e *EngineError) WithOperation(operation string) *EngineError {
	e.Operation = operation
	return e
}

// WithCode sets the error code.
func (e *EngineError) WithCode(code string) *EngineError {
	e.Code = code
	return e
}

// WithDetail adds a detail field to the error context.
func (e *EngineError) WithDetail(key string, value interface{}) *EngineError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsConfiguration returns true if the error is classified as a configuration error.
func IsConfiguration(err error) bool {
	return hasClass(err, ErrorClassConfiguration)
}

// IsPolicy returns true if the error is classified as a policy error.
func IsPolicy(err error) bool {
	return hasClass(err, ErrorClassPolicy)
}

// IsInternal returns true if the error is classified as internal.
func IsInternal(err error) bool {
	return hasClass(err, ErrorClassInternal)
}

func hasClass(err error, class ErrorClass) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == class
	}
	return false
}

// CodeOf returns the code of the first EngineError in err's chain, or
// ErrCodeInternal.
func CodeOf(err error) string {
	var e *EngineError
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	return ErrCodeInternal
}

// Common error codes.
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeAxisMissing        = "AXIS_MISSING"
	ErrCodeUnsupportedValue   = "UNSUPPORTED_VALUE"
	ErrCodeNoCandidateValues  = "NO_CANDIDATE_VALUES"
	ErrCodeDuplicateAxis      = "DUPLICATE_AXIS"
	ErrCodeElementType        = "ELEMENT_TYPE"
	ErrCodeCircularConstraint = "CIRCULAR_CONSTRAINT"
	ErrCodePolicyDenied       = "POLICY_DENIED"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// FromVariantError classifies an error returned by the variant package.
// Errors that are not configuration errors are classified as internal.
func FromVariantError(component string, err error) *EngineError {
	if err == nil {
		return nil
	}

	var ce *variant.ConfigurationError
	if !errors.As(err, &ce) {
		return NewInternalError("variant resolution failed", err).WithComponent(component)
	}

	code := ErrCodeValidation
	switch {
	case errors.Is(err, variant.ErrAxisMissing):
		code = ErrCodeAxisMissing
	case errors.Is(err, variant.ErrUnsupportedValue):
		code = ErrCodeUnsupportedValue
	case errors.Is(err, variant.ErrNoCandidateValues):
		code = ErrCodeNoCandidateValues
	case errors.Is(err, variant.ErrDuplicateAxis):
		code = ErrCodeDuplicateAxis
	case errors.Is(err, variant.ErrElementType):
		code = ErrCodeElementType
	}

	e := NewConfigurationError("invalid dimension", err).
		WithComponent(component).
		WithCode(code)
	if ce.Axis != "" {
		e.WithDetail("axis", ce.Axis)
	}
	if len(ce.Values) > 0 {
		e.WithDetail("values", ce.Values)
	}
	return e
}
