package variant

import (
	"fmt"
	"reflect"
)

// Named is implemented by axis values that carry a display name. The empty
// name marks the unlabeled default value of an axis.
type Named interface {
	Name() string
}

// ValueName returns the display name of an axis value.
func ValueName(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case Named:
		return val.Name()
	case fmt.Stringer:
		return val.String()
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// Coordinate pairs an axis with either a value or the absent marker. The
// zero Coordinate is invalid.
type Coordinate struct {
	axis   AnyAxis
	value  any
	absent bool
}

// Of returns the coordinate holding value v on axis.
func Of[T comparable](axis Axis[T], v T) Coordinate {
	return Coordinate{axis: axis, value: v}
}

// Absent returns the coordinate marking axis as known but without a value.
func Absent[T comparable](axis Axis[T]) Coordinate {
	return Coordinate{axis: axis, absent: true}
}

// Axis returns the axis of the coordinate.
func (c Coordinate) Axis() AnyAxis { return c.axis }

// Value returns the coordinate value, or false for an absent coordinate.
func (c Coordinate) Value() (any, bool) {
	if c.absent {
		return nil, false
	}
	return c.value, true
}

// IsAbsent reports whether the coordinate is the absent marker.
func (c Coordinate) IsAbsent() bool { return c.absent }

// Name returns the display name of the value; absent coordinates have the
// empty name.
func (c Coordinate) Name() string {
	if c.absent {
		return ""
	}
	return ValueName(c.value)
}

// Equal reports whether both coordinates are on the same axis and hold the
// same value, or are both absent.
func (c Coordinate) Equal(other Coordinate) bool {
	if !SameAxis(c.axis, other.axis) || c.absent != other.absent {
		return false
	}
	return c.absent || valuesEqual(c.value, other.value)
}

// valuesEqual compares axis values held as any. Values of the same
// non-comparable dynamic type, such as slices behind Axis[any], are compared
// deeply instead of with ==, which would panic.
func valuesEqual(a, b any) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta != nil && !ta.Comparable() {
		return reflect.DeepEqual(a, b)
	}
	return a == b
}

// String renders the coordinate for diagnostics.
func (c Coordinate) String() string {
	if c.axis == nil {
		return "<invalid coordinate>"
	}
	if c.absent {
		return "absent value for " + c.axis.DisplayName()
	}
	return fmt.Sprintf("%s=%s", c.axis.ID(), ValueName(c.value))
}

// key renders a stable identity for hashing and map keys.
func (c Coordinate) key() string {
	if c.absent {
		return c.axis.ID() + "\x00absent"
	}
	return fmt.Sprintf("%s\x00%T\x00%v", c.axis.ID(), c.value, c.value)
}
