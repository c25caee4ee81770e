package variant

import (
	"errors"
	"slices"
)

// VariantDimensions collects the axis registrations of one component and
// computes its build variants. Registration validates eagerly, so an
// illegal configuration never reaches expansion.
//
// A VariantDimensions is not safe for concurrent registration; the
// variants it returns are immutable.
type VariantDimensions struct {
	component string
	sets      []CoordinateSet
	filters   []Filter
	index     map[string]int
}

// NewVariantDimensions returns an empty registry for component.
func NewVariantDimensions(component string) *VariantDimensions {
	return &VariantDimensions{
		component: component,
		index:     make(map[string]int),
	}
}

// Component returns the owning component name.
func (vd *VariantDimensions) Component() string { return vd.component }

// Register validates decl and adds its axis.
func (vd *VariantDimensions) Register(decl Declaration) error {
	axis := decl.Axis()
	if _, exists := vd.index[axis.ID()]; exists {
		return newConfigurationError(vd.component, axis.ID(), ErrDuplicateAxis)
	}

	set, err := decl.coordinates(vd.component)
	if err != nil {
		return err
	}

	vd.index[axis.ID()] = len(vd.sets)
	vd.sets = append(vd.sets, set)
	vd.filters = append(vd.filters, decl.Filters()...)
	return nil
}

// Axes returns the registered axes in registration order.
func (vd *VariantDimensions) Axes() []AnyAxis {
	axes := make([]AnyAxis, len(vd.sets))
	for i, s := range vd.sets {
		axes[i] = s.axis
	}
	return axes
}

// CoordinateSet returns the candidate set registered for the axis id.
func (vd *VariantDimensions) CoordinateSet(axisID string) (CoordinateSet, bool) {
	i, ok := vd.index[axisID]
	if !ok {
		return CoordinateSet{}, false
	}
	return vd.sets[i], true
}

// Filters returns every registered filter.
func (vd *VariantDimensions) Filters() []Filter { return slices.Clone(vd.filters) }

// Space expands the registered axes.
func (vd *VariantDimensions) Space() (*Space, error) {
	space, err := CartesianProduct(vd.sets...)
	if err != nil {
		var ce *ConfigurationError
		if errors.As(err, &ce) {
			ce.Component = vd.component
		}
		return nil, err
	}
	return space, nil
}

// Resolution is the outcome of expanding and filtering a component.
type Resolution struct {
	// Space is the full, unfiltered space.
	Space *Space

	// Variants are the variants passing every filter, in space order.
	Variants []BuildVariant

	// Excluded are the variants rejected by at least one filter.
	Excluded []BuildVariant
}

// Resolve expands the space and partitions it with the registered filters.
func (vd *VariantDimensions) Resolve() (*Resolution, error) {
	space, err := vd.Space()
	if err != nil {
		return nil, err
	}

	keep := AllOf(vd.filters...)
	res := &Resolution{Space: space}
	for _, v := range space.Variants() {
		if keep.Test(v) {
			res.Variants = append(res.Variants, v)
		} else {
			res.Excluded = append(res.Excluded, v)
		}
	}
	return res, nil
}

// BuildVariants returns the variants passing every registered filter.
func (vd *VariantDimensions) BuildVariants() ([]BuildVariant, error) {
	res, err := vd.Resolve()
	if err != nil {
		return nil, err
	}
	return res.Variants, nil
}
