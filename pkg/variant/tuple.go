package variant

import (
	"iter"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Presence describes how an axis appears in a tuple.
type Presence int

const (
	// Missing means the tuple has no coordinate for the axis.
	Missing Presence = iota

	// AbsentValue means the tuple holds the absent coordinate for the axis.
	AbsentValue

	// Present means the tuple holds a value of the expected type.
	Present

	// Mismatch means the tuple holds a value of another type on an axis with
	// the same id. Filters treat it as "does not apply".
	Mismatch
)

// String returns the presence name.
func (p Presence) String() string {
	switch p {
	case Missing:
		return "missing"
	case AbsentValue:
		return "absent"
	case Present:
		return "present"
	case Mismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// Tuple is an ordered sequence of coordinates with at most one coordinate
// per axis. Order is insertion order. Tuples are immutable.
type Tuple struct {
	coords []Coordinate
}

// TupleOf builds a tuple from coords. When an axis repeats, the last
// coordinate wins and keeps the position of the first.
func TupleOf(coords ...Coordinate) Tuple {
	out := make([]Coordinate, 0, len(coords))
	index := make(map[string]int, len(coords))
	for _, c := range coords {
		if c.axis == nil {
			continue
		}
		if i, ok := index[c.axis.ID()]; ok {
			out[i] = c
			continue
		}
		index[c.axis.ID()] = len(out)
		out = append(out, c)
	}
	return Tuple{coords: out}
}

// Len returns the number of coordinates.
func (t Tuple) Len() int { return len(t.coords) }

// At returns the i-th coordinate.
func (t Tuple) At(i int) Coordinate { return t.coords[i] }

// All iterates the coordinates in order.
func (t Tuple) All() iter.Seq2[int, Coordinate] {
	return func(yield func(int, Coordinate) bool) {
		for i, c := range t.coords {
			if !yield(i, c) {
				return
			}
		}
	}
}

// Coordinates returns a copy of the coordinates.
func (t Tuple) Coordinates() []Coordinate {
	out := make([]Coordinate, len(t.coords))
	copy(out, t.coords)
	return out
}

// Find returns the coordinate for the axis id.
func (t Tuple) Find(axisID string) (Coordinate, bool) {
	for _, c := range t.coords {
		if c.axis.ID() == axisID {
			return c, true
		}
	}
	return Coordinate{}, false
}

// With returns a new tuple with c added or replacing the coordinate on the
// same axis.
func (t Tuple) With(c Coordinate) Tuple {
	coords := make([]Coordinate, 0, len(t.coords)+1)
	coords = append(coords, t.coords...)
	coords = append(coords, c)
	return TupleOf(coords...)
}

// Equal reports whether both tuples hold equal coordinates in the same
// order.
func (t Tuple) Equal(other Tuple) bool {
	if len(t.coords) != len(other.coords) {
		return false
	}
	for i := range t.coords {
		if !t.coords[i].Equal(other.coords[i]) {
			return false
		}
	}
	return true
}

// Key returns a string usable as a map key. Equal tuples have equal keys.
func (t Tuple) Key() string {
	parts := make([]string, len(t.coords))
	for i, c := range t.coords {
		parts[i] = c.key()
	}
	return strings.Join(parts, "\x01")
}

// Hash returns a 64-bit hash consistent with Equal.
func (t Tuple) Hash() uint64 {
	return xxhash.Sum64String(t.Key())
}

// String renders the tuple for diagnostics.
func (t Tuple) String() string {
	parts := make([]string, len(t.coords))
	for i, c := range t.coords {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Lookup returns the value of axis in t and how the axis is present.
func Lookup[T comparable](t Tuple, axis Axis[T]) (T, Presence) {
	var zero T
	c, ok := t.Find(axis.ID())
	if !ok {
		return zero, Missing
	}
	if c.absent {
		return zero, AbsentValue
	}
	v, ok := c.value.(T)
	if !ok {
		return zero, Mismatch
	}
	return v, Present
}
