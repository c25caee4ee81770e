package variant

import (
	"fmt"
	"strings"
)

// Optional holds a value that may be missing.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] { return Optional[T]{value: v, ok: true} }

// None returns an empty Optional.
func None[T any]() Optional[T] { return Optional[T]{} }

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) { return o.value, o.ok }

// IsPresent reports whether a value is held.
func (o Optional[T]) IsPresent() bool { return o.ok }

// String renders the optional for diagnostics.
func (o Optional[T]) String() string {
	if !o.ok {
		return "None"
	}
	return fmt.Sprintf("Some(%s)", ValueName(o.value))
}

// Decision is the outcome of evaluating a filter against a variant.
type Decision int

const (
	// Skip means the filter does not apply to the variant.
	Skip Decision = iota

	// Keep means the filter applies and accepts the variant.
	Keep

	// Drop means the filter applies and rejects the variant.
	Drop
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case Skip:
		return "skip"
	case Keep:
		return "keep"
	case Drop:
		return "drop"
	default:
		return "unknown"
	}
}

// Filter decides whether a variant is kept.
type Filter interface {
	// Test reports whether the variant is kept.
	Test(v BuildVariant) bool

	// String describes the filter.
	String() string
}

// Predicate relates the current axis value to the other axis value.
type Predicate[C, O comparable] func(current Optional[C], other O) bool

// AxisFilter constrains the current axis by the value of another axis.
type AxisFilter[C, O comparable] struct {
	current     Axis[C]
	other       Axis[O]
	predicate   Predicate[C, O]
	description string
}

// NewAxisFilter binds a predicate between current and other.
func NewAxisFilter[C, O comparable](current Axis[C], other Axis[O], predicate Predicate[C, O]) AxisFilter[C, O] {
	return AxisFilter[C, O]{
		current:     current,
		other:       other,
		predicate:   predicate,
		description: fmt.Sprintf("%s if %s", current.ID(), other.ID()),
	}
}

// OnlyOn keeps values on current exactly when other equals expected, and
// requires current to be absent otherwise.
func OnlyOn[C, O comparable](current Axis[C], other Axis[O], expected O) AxisFilter[C, O] {
	f := NewAxisFilter(current, other, func(c Optional[C], o O) bool {
		return c.IsPresent() == valuesEqual(o, expected)
	})
	f.description = fmt.Sprintf("%s only on %s=%s", current.ID(), other.ID(), ValueName(expected))
	return f
}

// ExceptOn keeps values on current exactly when other differs from value,
// and requires current to be absent otherwise.
func ExceptOn[C, O comparable](current Axis[C], other Axis[O], value O) AxisFilter[C, O] {
	f := NewAxisFilter(current, other, func(c Optional[C], o O) bool {
		return c.IsPresent() == !valuesEqual(o, value)
	})
	f.description = fmt.Sprintf("%s except on %s=%s", current.ID(), other.ID(), ValueName(value))
	return f
}

// OnlyIf keeps the variant when predicate holds.
func OnlyIf[C, O comparable](current Axis[C], other Axis[O], predicate Predicate[C, O]) AxisFilter[C, O] {
	f := NewAxisFilter(current, other, predicate)
	f.description = fmt.Sprintf("%s only if %s", current.ID(), other.ID())
	return f
}

// ExceptIf keeps the variant when predicate does not hold.
func ExceptIf[C, O comparable](current Axis[C], other Axis[O], predicate Predicate[C, O]) AxisFilter[C, O] {
	f := NewAxisFilter(current, other, func(c Optional[C], o O) bool {
		return !predicate(c, o)
	})
	f.description = fmt.Sprintf("%s except if %s", current.ID(), other.ID())
	return f
}

// Current returns the constrained axis.
func (f AxisFilter[C, O]) Current() Axis[C] { return f.current }

// Other returns the conditioning axis.
func (f AxisFilter[C, O]) Other() Axis[O] { return f.other }

// Evaluate applies the filter. The filter is skipped when the other axis is
// missing, absent or holds a value of another type.
func (f AxisFilter[C, O]) Evaluate(v BuildVariant) Decision {
	other, presence := Lookup(v.tuple, f.other)
	if presence != Present {
		return Skip
	}

	current := None[C]()
	if value, p := Lookup(v.tuple, f.current); p == Present {
		current = Some(value)
	}

	if f.predicate(current, other) {
		return Keep
	}
	return Drop
}

// Test reports whether the variant is kept.
func (f AxisFilter[C, O]) Test(v BuildVariant) bool {
	return f.Evaluate(v) != Drop
}

// String describes the filter.
func (f AxisFilter[C, O]) String() string { return f.description }

// Dependency returns the axis ids the filter relates, conditioning axis
// first.
func (f AxisFilter[C, O]) Dependency() (other, current string) {
	return f.other.ID(), f.current.ID()
}

// Dependent is implemented by filters relating two axes.
type Dependent interface {
	Dependency() (other, current string)
}

// FilterFunc adapts a function to Filter.
type FilterFunc struct {
	Fn          func(BuildVariant) bool
	Description string
}

// Test calls Fn.
func (f FilterFunc) Test(v BuildVariant) bool { return f.Fn(v) }

// String returns the description.
func (f FilterFunc) String() string { return f.Description }

type conjunction []Filter

// AllOf keeps a variant only when every filter keeps it.
func AllOf(filters ...Filter) Filter {
	return conjunction(filters)
}

func (c conjunction) Test(v BuildVariant) bool {
	for _, f := range c {
		if !f.Test(v) {
			return false
		}
	}
	return true
}

func (c conjunction) String() string {
	parts := make([]string, len(c))
	for i, f := range c {
		parts[i] = f.String()
	}
	return strings.Join(parts, " and ")
}
