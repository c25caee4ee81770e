package variant

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for configuration failures. All of them are fatal and
// surface through a *ConfigurationError carrying the offending axis.
var (
	// ErrAxisMissing is returned when a dimension is built without an axis.
	ErrAxisMissing = errors.New("axis missing")

	// ErrUnsupportedValue is returned when a candidate value is outside the
	// declared valid values.
	ErrUnsupportedValue = errors.New("unsupported value")

	// ErrNoCandidateValues is returned when a non-optional axis has no
	// candidate values.
	ErrNoCandidateValues = errors.New("axis has no candidate values")

	// ErrDuplicateAxis is returned when the same axis is registered twice on
	// one component.
	ErrDuplicateAxis = errors.New("duplicate axis")

	// ErrElementType is returned when a candidate value does not have the
	// declared element type.
	ErrElementType = errors.New("unexpected element type")

	// ErrValidation wraps failures reported by custom validators.
	ErrValidation = errors.New("validation failed")
)

// ConfigurationError describes an illegal axis configuration detected before
// any variant is generated.
type ConfigurationError struct {
	// Component is the owning component name, if known.
	Component string

	// Axis is the axis identifier the error relates to.
	Axis string

	// Values are the offending values rendered with ValueName, if any.
	Values []string

	// Message overrides the default rendering when set.
	Message string

	// Err is the sentinel or validator error.
	Err error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	var sb strings.Builder
	if e.Message != "" {
		sb.WriteString(e.Message)
	} else if e.Err != nil {
		sb.WriteString(e.Err.Error())
	}
	if e.Axis != "" {
		fmt.Fprintf(&sb, " (axis=%s", e.Axis)
		if e.Component != "" {
			fmt.Fprintf(&sb, ", component=%s", e.Component)
		}
		sb.WriteString(")")
	}
	return sb.String()
}

// Unwrap returns the underlying error for errors.Is and errors.As.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func newConfigurationError(component, axis string, err error) *ConfigurationError {
	return &ConfigurationError{
		Component: component,
		Axis:      axis,
		Err:       err,
	}
}

// unsupportedValuesMessage renders the bullet list used for rejected values.
func unsupportedValuesMessage(values []string) string {
	var sb strings.Builder
	sb.WriteString("The following values are not supported:")
	for _, v := range values {
		sb.WriteString("\n * ")
		sb.WriteString(v)
	}
	return sb.String()
}
