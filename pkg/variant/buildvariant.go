package variant

import (
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DimensionSeparator joins dimensions in BuildVariant.String.
const DimensionSeparator = "-"

// Dimensions is an ordered list of dimension labels.
type Dimensions []string

// IsEmpty reports whether there are no dimensions.
func (d Dimensions) IsEmpty() bool { return len(d) == 0 }

// AsKebabCase joins the dimensions with dashes.
func (d Dimensions) AsKebabCase() string {
	return strings.Join(d, "-")
}

// AsLowerCamelCase joins the dimensions as one lower camel case word.
func (d Dimensions) AsLowerCamelCase() string {
	var sb strings.Builder
	for i, s := range d {
		for j, part := range strings.FieldsFunc(s, isWordSeparator) {
			if i == 0 && j == 0 {
				sb.WriteString(lowerFirst(part))
			} else {
				sb.WriteString(upperFirst(part))
			}
		}
	}
	return sb.String()
}

// BuildVariant is one concrete combination of coordinates. A variant
// obtained from a Space is named against its siblings; a stand-alone
// variant treats every named dimension as distinguishing.
//
// Compare variants with Equal; the space reference takes no part in it.
type BuildVariant struct {
	tuple Tuple
	space *Space
}

// VariantOf builds a stand-alone variant.
func VariantOf(coords ...Coordinate) BuildVariant {
	return BuildVariant{tuple: TupleOf(coords...)}
}

// VariantFromTuple builds a stand-alone variant from an existing tuple.
func VariantFromTuple(t Tuple) BuildVariant {
	return BuildVariant{tuple: t}
}

// Tuple returns the underlying tuple.
func (v BuildVariant) Tuple() Tuple { return v.tuple }

// Coordinates returns a copy of the coordinates.
func (v BuildVariant) Coordinates() []Coordinate { return v.tuple.Coordinates() }

// All iterates the coordinates in order.
func (v BuildVariant) All() iter.Seq2[int, Coordinate] { return v.tuple.All() }

// Find returns the coordinate for the axis id.
func (v BuildVariant) Find(axisID string) (Coordinate, bool) { return v.tuple.Find(axisID) }

// HasSpace reports whether the variant carries a sibling space.
func (v BuildVariant) HasSpace() bool { return v.space != nil }

// AllDimensions lists the axis label of every coordinate whose value name is
// not empty, in coordinate order.
func (v BuildVariant) AllDimensions() Dimensions {
	dims := make(Dimensions, 0, v.tuple.Len())
	for _, c := range v.tuple.coords {
		if c.Name() == "" {
			continue
		}
		dims = append(dims, c.axis.Name())
	}
	return dims
}

// AmbiguousDimensions lists the dimensions of AllDimensions that take more
// than one value name across the sibling space.
func (v BuildVariant) AmbiguousDimensions() Dimensions {
	dims := make(Dimensions, 0, v.tuple.Len())
	for _, c := range v.ambiguousCoordinates() {
		dims = append(dims, c.axis.Name())
	}
	return dims
}

func (v BuildVariant) ambiguousCoordinates() []Coordinate {
	out := make([]Coordinate, 0, v.tuple.Len())
	for _, c := range v.tuple.coords {
		if c.Name() == "" {
			continue
		}
		if v.space != nil && v.space.distinctNames(c.axis.ID()) <= 1 {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Name returns the unambiguous variant name built from the value names of
// the ambiguous dimensions. The default variant has the empty name.
func (v BuildVariant) Name() string {
	names := make(Dimensions, 0, v.tuple.Len())
	for _, c := range v.ambiguousCoordinates() {
		names = append(names, c.Name())
	}
	return names.AsLowerCamelCase()
}

// FullName returns the variant name built from every named value.
func (v BuildVariant) FullName() string {
	names := make(Dimensions, 0, v.tuple.Len())
	for _, c := range v.tuple.coords {
		if n := c.Name(); n != "" {
			names = append(names, n)
		}
	}
	return names.AsLowerCamelCase()
}

// Equal reports whether both variants hold equal tuples.
func (v BuildVariant) Equal(other BuildVariant) bool {
	return v.tuple.Equal(other.tuple)
}

// Key returns a map key consistent with Equal.
func (v BuildVariant) Key() string { return v.tuple.Key() }

// Hash returns a hash consistent with Equal.
func (v BuildVariant) Hash() uint64 { return v.tuple.Hash() }

// String joins AllDimensions with DimensionSeparator.
func (v BuildVariant) String() string {
	return strings.Join(v.AllDimensions(), DimensionSeparator)
}

func isWordSeparator(r rune) bool {
	return r == '-' || r == '_' || r == '.' || unicode.IsSpace(r)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
