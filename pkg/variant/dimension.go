package variant

import (
	"fmt"
	"reflect"
	"slices"
)

// Validator inspects every candidate value of an axis at once.
type Validator[T comparable] func(values []T) error

// DimensionBuilder accumulates the registration of one axis. It is
// immutable: every method returns an updated copy.
type DimensionBuilder[T comparable] struct {
	axis         Axis[T]
	elementType  reflect.Type
	validValues  []T
	hasValid     bool
	validators   []Validator[T]
	filters      []Filter
	includeEmpty bool
	defaults     []T
}

// NewDimension starts a dimension registration.
func NewDimension[T comparable]() DimensionBuilder[T] {
	return DimensionBuilder[T]{}
}

// Axis binds the axis being registered.
func (b DimensionBuilder[T]) Axis(axis Axis[T]) DimensionBuilder[T] {
	b.axis = axis
	return b
}

// ElementType requires every candidate value to have dynamic type t.
func (b DimensionBuilder[T]) ElementType(t reflect.Type) DimensionBuilder[T] {
	b.elementType = t
	return b
}

// ValidValues rejects any candidate value outside values.
func (b DimensionBuilder[T]) ValidValues(values ...T) DimensionBuilder[T] {
	b.validValues = slices.Clone(values)
	b.hasValid = true
	return b
}

// ValidateUsing adds a validator run against all candidate values.
func (b DimensionBuilder[T]) ValidateUsing(v Validator[T]) DimensionBuilder[T] {
	b.validators = append(slices.Clip(b.validators), v)
	return b
}

// IncludeEmptyCoordinate lets the axis be absent from a variant.
func (b DimensionBuilder[T]) IncludeEmptyCoordinate() DimensionBuilder[T] {
	b.includeEmpty = true
	return b
}

// Filter adds a variant filter.
func (b DimensionBuilder[T]) Filter(f Filter) DimensionBuilder[T] {
	b.filters = append(slices.Clip(b.filters), f)
	return b
}

// Constrain adds a cross-axis filter and includes the empty coordinate so
// the axis can drop out of variants the filter excludes it from.
func (b DimensionBuilder[T]) Constrain(f Filter) DimensionBuilder[T] {
	return b.Filter(f).IncludeEmptyCoordinate()
}

// DefaultValues sets the candidates used when none are supplied.
func (b DimensionBuilder[T]) DefaultValues(values ...T) DimensionBuilder[T] {
	b.defaults = slices.Clone(values)
	return b
}

// Build finalizes the registration. The axis is mandatory.
func (b DimensionBuilder[T]) Build() (Dimension[T], error) {
	if b.axis.IsZero() {
		return Dimension[T]{}, newConfigurationError("", "", ErrAxisMissing)
	}
	return Dimension[T]{
		axis:         b.axis,
		elementType:  b.elementType,
		validValues:  slices.Clone(b.validValues),
		hasValid:     b.hasValid,
		validators:   slices.Clone(b.validators),
		filters:      slices.Clone(b.filters),
		includeEmpty: b.includeEmpty,
		defaults:     slices.Clone(b.defaults),
	}, nil
}

// Dimension is a finalized axis registration.
type Dimension[T comparable] struct {
	axis         Axis[T]
	elementType  reflect.Type
	validValues  []T
	hasValid     bool
	validators   []Validator[T]
	filters      []Filter
	includeEmpty bool
	defaults     []T
}

// Axis returns the registered axis.
func (d Dimension[T]) Axis() Axis[T] { return d.axis }

// IsOptional reports whether the absent coordinate is a candidate.
func (d Dimension[T]) IsOptional() bool { return d.includeEmpty }

// Filters returns the registered filters.
func (d Dimension[T]) Filters() []Filter { return slices.Clone(d.filters) }

// DefaultValues returns the default candidates.
func (d Dimension[T]) DefaultValues() []T { return slices.Clone(d.defaults) }

// Validate runs every check on values, in order: emptiness, element type,
// valid values, custom validators.
func (d Dimension[T]) Validate(component string, values []T) error {
	if len(values) == 0 && !d.includeEmpty {
		e := newConfigurationError(component, d.axis.ID(), ErrNoCandidateValues)
		e.Message = fmt.Sprintf("A %s needs to be specified for component '%s'.", d.axis.DisplayName(), component)
		return e
	}

	if d.elementType != nil {
		var wrong []string
		for _, v := range values {
			if reflect.TypeOf(any(v)) != d.elementType {
				wrong = append(wrong, fmt.Sprintf("%s (%T)", ValueName(v), any(v)))
			}
		}
		if len(wrong) > 0 {
			e := newConfigurationError(component, d.axis.ID(), ErrElementType)
			e.Values = wrong
			e.Message = fmt.Sprintf("values of %s must be of type %s: %v", d.axis.DisplayName(), d.elementType, wrong)
			return e
		}
	}

	if d.hasValid {
		var unsupported []string
		for _, v := range values {
			if !slices.ContainsFunc(d.validValues, func(valid T) bool { return valuesEqual(valid, v) }) {
				unsupported = append(unsupported, ValueName(v))
			}
		}
		if len(unsupported) > 0 {
			e := newConfigurationError(component, d.axis.ID(), ErrUnsupportedValue)
			e.Values = unsupported
			e.Message = unsupportedValuesMessage(unsupported)
			return e
		}
	}

	for _, validate := range d.validators {
		if err := validate(slices.Clone(values)); err != nil {
			return newConfigurationError(component, d.axis.ID(), fmt.Errorf("%w: %w", ErrValidation, err))
		}
	}

	return nil
}

// Coordinates validates values and returns the candidate set, with the
// absent coordinate appended for optional axes.
func (d Dimension[T]) Coordinates(component string, values []T) (CoordinateSet, error) {
	if err := d.Validate(component, values); err != nil {
		return CoordinateSet{}, err
	}
	set := SetOf(d.axis, values...)
	if d.includeEmpty {
		set = set.WithAbsent()
	}
	return set, nil
}

// With binds candidate values to the dimension. Without values the default
// values are used.
func (d Dimension[T]) With(values ...T) Declaration {
	if len(values) == 0 {
		values = d.defaults
	}
	return declaration[T]{dimension: d, values: slices.Clone(values)}
}

// Declaration is a dimension bound to its candidate values, ready to be
// registered on a component.
type Declaration interface {
	// Axis returns the declared axis.
	Axis() AnyAxis

	// Filters returns the filters registered with the dimension.
	Filters() []Filter

	coordinates(component string) (CoordinateSet, error)
}

type declaration[T comparable] struct {
	dimension Dimension[T]
	values    []T
}

func (d declaration[T]) Axis() AnyAxis { return d.dimension.axis }

func (d declaration[T]) Filters() []Filter { return d.dimension.Filters() }

func (d declaration[T]) coordinates(component string) (CoordinateSet, error) {
	return d.dimension.Coordinates(component, d.values)
}
