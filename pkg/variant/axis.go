package variant

import (
	"strings"
	"unicode"
)

// AnyAxis is the type-erased view of an Axis used by tuples, spaces and
// error reporting.
type AnyAxis interface {
	// ID returns the stable identity of the axis.
	ID() string

	// Name returns the label listed in a variant's dimensions.
	Name() string

	// DisplayName returns the human readable name used in messages.
	DisplayName() string
}

// Axis identifies one dimension of a component. It never carries a value;
// T is the type of the values coordinates on this axis hold.
//
// Two axes denote the same dimension iff their ids are equal.
type Axis[T comparable] struct {
	id          string
	name        string
	displayName string
}

// AxisOption customizes an axis at construction.
type AxisOption func(*axisOptions)

type axisOptions struct {
	name        string
	displayName string
}

// WithName overrides the dimension label, which defaults to the id.
func WithName(name string) AxisOption {
	return func(o *axisOptions) {
		o.name = name
	}
}

// WithDisplayName overrides the human readable name.
func WithDisplayName(displayName string) AxisOption {
	return func(o *axisOptions) {
		o.displayName = displayName
	}
}

// NewAxis returns the axis identified by id.
func NewAxis[T comparable](id string, opts ...AxisOption) Axis[T] {
	o := axisOptions{name: id, displayName: toWords(id)}
	for _, opt := range opts {
		opt(&o)
	}
	return Axis[T]{
		id:          id,
		name:        o.name,
		displayName: o.displayName,
	}
}

// ID returns the stable identity of the axis.
func (a Axis[T]) ID() string { return a.id }

// Name returns the dimension label.
func (a Axis[T]) Name() string { return a.name }

// DisplayName returns the human readable name.
func (a Axis[T]) DisplayName() string { return a.displayName }

// IsZero reports whether the axis was never initialized.
func (a Axis[T]) IsZero() bool { return a.id == "" }

// Equal reports whether both axes denote the same dimension.
func (a Axis[T]) Equal(other AnyAxis) bool {
	return SameAxis(a, other)
}

// String returns the display name.
func (a Axis[T]) String() string { return a.displayName }

// SameAxis reports whether a and b denote the same dimension.
func SameAxis(a, b AnyAxis) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}

// toWords splits an identifier such as "buildType" or "build-type" into
// lower-case words separated by single spaces.
func toWords(id string) string {
	var words []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, strings.ToLower(string(current)))
			current = current[:0]
		}
	}
	runes := []rune(id)
	for i, r := range runes {
		switch {
		case r == '-' || r == '_' || r == '.' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r) && i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])):
			flush()
			current = append(current, r)
		default:
			current = append(current, r)
		}
	}
	flush()
	return strings.Join(words, " ")
}
