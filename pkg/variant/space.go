package variant

import "slices"

// CoordinateSet is the ordered list of candidate coordinates of one axis.
type CoordinateSet struct {
	axis   AnyAxis
	coords []Coordinate
}

// SetOf returns the candidate set of axis holding values in order. Repeated
// values keep their first position.
func SetOf[T comparable](axis Axis[T], values ...T) CoordinateSet {
	coords := make([]Coordinate, 0, len(values))
	for _, v := range values {
		c := Of(axis, v)
		if slices.ContainsFunc(coords, c.Equal) {
			continue
		}
		coords = append(coords, c)
	}
	return CoordinateSet{axis: axis, coords: coords}
}

// WithAbsent returns a copy of the set with the absent coordinate appended.
// Calling it on a set that already holds the absent coordinate is a no-op.
func (s CoordinateSet) WithAbsent() CoordinateSet {
	for _, c := range s.coords {
		if c.absent {
			return s
		}
	}
	coords := make([]Coordinate, 0, len(s.coords)+1)
	coords = append(coords, s.coords...)
	coords = append(coords, Coordinate{axis: s.axis, absent: true})
	return CoordinateSet{axis: s.axis, coords: coords}
}

// Axis returns the axis of the set.
func (s CoordinateSet) Axis() AnyAxis { return s.axis }

// Len returns the number of candidates.
func (s CoordinateSet) Len() int { return len(s.coords) }

// Coordinates returns a copy of the candidates.
func (s CoordinateSet) Coordinates() []Coordinate {
	out := make([]Coordinate, len(s.coords))
	copy(out, s.coords)
	return out
}

// Space is an immutable ordered collection of tuples that exist together
// and are named relative to each other.
type Space struct {
	tuples []Tuple

	// names maps an axis id to the distinct value names it takes across
	// the space. Missing and absent both count as "".
	names map[string]map[string]struct{}
}

// CartesianProduct expands sets into every combination of their candidates.
// The last set varies fastest. A set without candidates or a second set on
// the same axis is an error; zero sets produce the single empty tuple.
func CartesianProduct(sets ...CoordinateSet) (*Space, error) {
	seen := make(map[string]struct{}, len(sets))
	for _, s := range sets {
		axisID := ""
		if s.axis != nil {
			axisID = s.axis.ID()
		}
		if len(s.coords) == 0 {
			return nil, newConfigurationError("", axisID, ErrNoCandidateValues)
		}
		if _, dup := seen[axisID]; dup {
			return nil, newConfigurationError("", axisID, ErrDuplicateAxis)
		}
		seen[axisID] = struct{}{}
	}

	total := 1
	for _, s := range sets {
		total *= len(s.coords)
	}

	tuples := make([]Tuple, 0, total)
	indices := make([]int, len(sets))
	for n := 0; n < total; n++ {
		coords := make([]Coordinate, len(sets))
		for i, s := range sets {
			coords[i] = s.coords[indices[i]]
		}
		tuples = append(tuples, TupleOf(coords...))

		// odometer increment, right-most first
		for i := len(sets) - 1; i >= 0; i-- {
			indices[i]++
			if indices[i] < len(sets[i].coords) {
				break
			}
			indices[i] = 0
		}
	}

	return newSpace(tuples), nil
}

// SpaceOf builds a space from explicit tuples without expansion.
func SpaceOf(tuples ...Tuple) *Space {
	out := make([]Tuple, len(tuples))
	copy(out, tuples)
	return newSpace(out)
}

func newSpace(tuples []Tuple) *Space {
	s := &Space{
		tuples: tuples,
		names:  make(map[string]map[string]struct{}),
	}
	for _, t := range tuples {
		for _, c := range t.coords {
			if _, ok := s.names[c.axis.ID()]; !ok {
				s.names[c.axis.ID()] = make(map[string]struct{})
			}
		}
	}
	for axisID, set := range s.names {
		for _, t := range tuples {
			c, ok := t.Find(axisID)
			if !ok {
				set[""] = struct{}{}
				continue
			}
			set[c.Name()] = struct{}{}
		}
	}
	return s
}

// Len returns the number of tuples.
func (s *Space) Len() int { return len(s.tuples) }

// Tuples returns a copy of the tuples.
func (s *Space) Tuples() []Tuple {
	out := make([]Tuple, len(s.tuples))
	copy(out, s.tuples)
	return out
}

// Variants wraps every tuple into a build variant named against this space.
func (s *Space) Variants() []BuildVariant {
	out := make([]BuildVariant, len(s.tuples))
	for i, t := range s.tuples {
		out[i] = BuildVariant{tuple: t, space: s}
	}
	return out
}

// StandardBasis returns the axes whose coordinates differ across the space,
// in first-seen order.
func (s *Space) StandardBasis() []AnyAxis {
	var order []AnyAxis
	distinct := make(map[string]map[string]struct{})
	for _, t := range s.tuples {
		for _, c := range t.coords {
			id := c.axis.ID()
			set, ok := distinct[id]
			if !ok {
				set = make(map[string]struct{})
				distinct[id] = set
				order = append(order, c.axis)
			}
			set[c.key()] = struct{}{}
		}
	}

	basis := make([]AnyAxis, 0, len(order))
	for _, a := range order {
		if len(distinct[a.ID()]) > 1 {
			basis = append(basis, a)
		}
	}
	return basis
}

// distinctNames returns how many value names the axis takes in the space.
func (s *Space) distinctNames(axisID string) int {
	return len(s.names[axisID])
}
