package variant

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDimensionBuilder_AxisMissing(t *testing.T) {
	_, err := NewDimension[label]().ValidValues("a").Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAxisMissing)
}

func TestDimensionBuilder_Immutable(t *testing.T) {
	base := NewDimension[label]().Axis(buildAxis)
	restricted := base.ValidValues("debug")
	optional := base.IncludeEmptyCoordinate()

	withA := base.ValidateUsing(func([]label) error { return nil })
	withB := base.ValidateUsing(func([]label) error { return errors.New("b") })

	d, err := base.Build()
	require.NoError(t, err)
	assert.False(t, d.IsOptional())
	assert.NoError(t, d.Validate("app", []label{"anything"}))

	r, err := restricted.Build()
	require.NoError(t, err)
	assert.ErrorIs(t, r.Validate("app", []label{"release"}), ErrUnsupportedValue)

	o, err := optional.Build()
	require.NoError(t, err)
	assert.True(t, o.IsOptional())

	a, err := withA.Build()
	require.NoError(t, err)
	assert.NoError(t, a.Validate("app", []label{"debug"}))

	b, err := withB.Build()
	require.NoError(t, err)
	assert.ErrorIs(t, b.Validate("app", []label{"debug"}), ErrValidation)
}

func TestDimension_UnsupportedValueRejectsRegistration(t *testing.T) {
	dim, err := NewDimension[label]().Axis(buildAxis).ValidValues("v1", "v2").Build()
	require.NoError(t, err)

	vd := NewVariantDimensions("app")
	err = vd.Register(dim.With("v3"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedValue)

	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"v3"}, ce.Values)
	assert.True(t, strings.HasPrefix(ce.Error(), "The following values are not supported:\n * v3"))

	assert.Empty(t, vd.Axes())
	variants, err := vd.BuildVariants()
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Empty(t, variants[0].AllDimensions())
}

func TestDimension_ValidValuesAccepted(t *testing.T) {
	dim, err := NewDimension[label]().Axis(buildAxis).ValidValues("v1", "v2").Build()
	require.NoError(t, err)

	vd := NewVariantDimensions("app")
	require.NoError(t, vd.Register(dim.With("v1", "v2")))

	variants, err := vd.BuildVariants()
	require.NoError(t, err)
	require.Len(t, variants, 2)
	assert.Equal(t, "v1", variants[0].Name())
	assert.Equal(t, "v2", variants[1].Name())
}

func TestDimension_EmptyCandidatesMessage(t *testing.T) {
	dim, err := NewDimension[label]().Axis(buildAxis).Build()
	require.NoError(t, err)

	err = NewVariantDimensions("app").Register(dim.With())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoCandidateValues)
	assert.Contains(t, err.Error(), "A build type needs to be specified for component 'app'.")
}

func TestDimension_OptionalAllowsNoValues(t *testing.T) {
	dim, err := NewDimension[label]().Axis(linkageAxis).IncludeEmptyCoordinate().Build()
	require.NoError(t, err)

	vd := NewVariantDimensions("app")
	require.NoError(t, vd.Register(dim.With()))

	set, ok := vd.CoordinateSet("linkage")
	require.True(t, ok)
	require.Equal(t, 1, set.Len())
	assert.True(t, set.Coordinates()[0].IsAbsent())
}

func TestDimension_ElementType(t *testing.T) {
	anyAxis := NewAxis[any]("value")
	dim, err := NewDimension[any]().Axis(anyAxis).ElementType(reflect.TypeOf("")).Build()
	require.NoError(t, err)

	assert.NoError(t, dim.Validate("app", []any{"a", "b"}))

	err = dim.Validate("app", []any{"a", 3})
	assert.ErrorIs(t, err, ErrElementType)
	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"3 (int)"}, ce.Values)
}

func TestDimension_ValidatorErrorIsWrapped(t *testing.T) {
	errTooMany := errors.New("at most one value")
	dim, err := NewDimension[label]().
		Axis(buildAxis).
		ValidateUsing(func(values []label) error {
			if len(values) > 1 {
				return errTooMany
			}
			return nil
		}).
		Build()
	require.NoError(t, err)

	assert.NoError(t, dim.Validate("app", []label{"debug"}))

	err = dim.Validate("app", []label{"debug", "release"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, errTooMany)
}

func TestDimension_ValidValuesCheckedBeforeValidators(t *testing.T) {
	called := false
	dim, err := NewDimension[label]().
		Axis(buildAxis).
		ValidValues("debug").
		ValidateUsing(func([]label) error {
			called = true
			return nil
		}).
		Build()
	require.NoError(t, err)

	assert.ErrorIs(t, dim.Validate("app", []label{"release"}), ErrUnsupportedValue)
	assert.False(t, called)
}

func TestDimension_DefaultValues(t *testing.T) {
	dim, err := NewDimension[label]().Axis(buildAxis).DefaultValues("debug", "release").Build()
	require.NoError(t, err)
	assert.Equal(t, []label{"debug", "release"}, dim.DefaultValues())

	vd := NewVariantDimensions("app")
	require.NoError(t, vd.Register(dim.With()))

	variants, err := vd.BuildVariants()
	require.NoError(t, err)
	assert.Len(t, variants, 2)

	explicit := NewVariantDimensions("app")
	require.NoError(t, explicit.Register(dim.With("minsize")))
	variants, err = explicit.BuildVariants()
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, "minsize", variants[0].FullName())
}

func TestVariantDimensions_RepeatedValuesYieldDistinctVariants(t *testing.T) {
	osDim, err := NewDimension[platform]().Axis(osAxis).Build()
	require.NoError(t, err)
	buildDim, err := NewDimension[label]().Axis(buildAxis).Build()
	require.NoError(t, err)

	single := NewVariantDimensions("app")
	require.NoError(t, single.Register(osDim.With("linux", "linux")))
	variants, err := single.BuildVariants()
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, "linux", variants[0].FullName())

	vd := NewVariantDimensions("app")
	require.NoError(t, vd.Register(osDim.With("linux", "windows", "linux")))
	require.NoError(t, vd.Register(buildDim.With("debug", "debug", "release")))
	variants, err = vd.BuildVariants()
	require.NoError(t, err)
	require.Len(t, variants, 4)

	var names []string
	for i, a := range variants {
		for _, b := range variants[i+1:] {
			assert.False(t, a.Equal(b), "%s and %s are equal", a, b)
		}
		assert.NotEmpty(t, a.AmbiguousDimensions())
		names = append(names, a.Name())
	}
	assert.Equal(t, []string{"linuxDebug", "linuxRelease", "windowsDebug", "windowsRelease"}, names)
}

func TestDimension_NonComparableValues(t *testing.T) {
	dim, err := NewDimension[any]().
		Axis(flagsAxis).
		ValidValues(any([]string{"-g"}), any([]string{"-O2"})).
		Build()
	require.NoError(t, err)

	assert.NoError(t, dim.Validate("app", []any{[]string{"-O2"}}))
	assert.ErrorIs(t, dim.Validate("app", []any{[]string{"-O3"}}), ErrUnsupportedValue)

	vd := NewVariantDimensions("app")
	require.NoError(t, vd.Register(dim.With([]string{"-g"}, []string{"-g"}, []string{"-O2"})))
	space, err := vd.Space()
	require.NoError(t, err)
	assert.Equal(t, 2, space.Len())
}

func TestVariantDimensions_DuplicateAxis(t *testing.T) {
	dim, err := NewDimension[platform]().Axis(osAxis).Build()
	require.NoError(t, err)

	vd := NewVariantDimensions("app")
	require.NoError(t, vd.Register(dim.With("linux")))

	err = vd.Register(dim.With("macos"))
	assert.ErrorIs(t, err, ErrDuplicateAxis)
	assert.Len(t, vd.Axes(), 1)
}

func TestVariantDimensions_ConstrainImpliesOptional(t *testing.T) {
	osDim, err := NewDimension[platform]().Axis(osAxis).Build()
	require.NoError(t, err)
	linkageDim, err := NewDimension[label]().
		Axis(linkageAxis).
		Constrain(OnlyOn(linkageAxis, osAxis, "linux")).
		Build()
	require.NoError(t, err)
	assert.True(t, linkageDim.IsOptional())

	vd := NewVariantDimensions("app")
	require.NoError(t, vd.Register(osDim.With("linux", "windows")))
	require.NoError(t, vd.Register(linkageDim.With("shared", "static")))

	res, err := vd.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 6, res.Space.Len())
	assert.Len(t, res.Excluded, 3)

	var got []string
	for _, v := range res.Variants {
		got = append(got, v.FullName())
	}
	assert.Equal(t, []string{"linuxShared", "linuxStatic", "windows"}, got)
}

func TestVariantDimensions_EmptyComponent(t *testing.T) {
	res, err := NewVariantDimensions("app").Resolve()
	require.NoError(t, err)
	require.Len(t, res.Variants, 1)
	assert.Empty(t, res.Excluded)
	assert.Equal(t, "", res.Variants[0].Name())
}
