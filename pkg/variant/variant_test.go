package variant

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type label string

func (l label) Name() string { return string(l) }

type platform string

func (p platform) Name() string { return string(p) }

var (
	osAxis      = NewAxis[platform]("os")
	buildAxis   = NewAxis[label]("buildType")
	linkageAxis = NewAxis[label]("linkage")
	flagsAxis   = NewAxis[any]("flags")
)

func TestNewAxis_Defaults(t *testing.T) {
	a := NewAxis[label]("buildType")
	assert.Equal(t, "buildType", a.ID())
	assert.Equal(t, "buildType", a.Name())
	assert.Equal(t, "build type", a.DisplayName())

	b := NewAxis[label]("build-type", WithName("bt"), WithDisplayName("Build Type"))
	assert.Equal(t, "bt", b.Name())
	assert.Equal(t, "Build Type", b.DisplayName())
}

func TestAxis_EqualityByID(t *testing.T) {
	a := NewAxis[label]("os")
	b := NewAxis[label]("os", WithDisplayName("operating system"))
	c := NewAxis[label]("arch")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.True(t, SameAxis(a, NewAxis[int]("os")))
}

func TestCoordinate_Equal(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Coordinate
		equal bool
	}{
		{"same value", Of(osAxis, "linux"), Of(osAxis, "linux"), true},
		{"different value", Of(osAxis, "linux"), Of(osAxis, "macos"), false},
		{"absent vs absent", Absent(osAxis), Absent(osAxis), true},
		{"absent vs value", Absent(osAxis), Of(osAxis, "linux"), false},
		{"different axis", Of(buildAxis, "x"), Of(linkageAxis, "x"), false},
		{"same slice value", Of(flagsAxis, any([]string{"-O2"})), Of(flagsAxis, any([]string{"-O2"})), true},
		{"different slice value", Of(flagsAxis, any([]string{"-O2"})), Of(flagsAxis, any([]string{"-O0"})), false},
		{"slice vs string", Of(flagsAxis, any([]string{"-O2"})), Of(flagsAxis, any("-O2")), false},
		{"map value", Of(flagsAxis, any(map[string]int{"a": 1})), Of(flagsAxis, any(map[string]int{"a": 1})), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.a.Equal(tt.b))
		})
	}
}

func TestCoordinate_AbsentHasNoValue(t *testing.T) {
	c := Absent(osAxis)
	_, ok := c.Value()
	assert.False(t, ok)
	assert.Equal(t, "", c.Name())
	assert.Equal(t, "absent value for os", c.String())
}

func TestTupleOf_LastWriteWinsKeepsPosition(t *testing.T) {
	tuple := TupleOf(Of(osAxis, "linux"), Of(buildAxis, "debug"), Of(osAxis, "macos"))

	require.Equal(t, 2, tuple.Len())
	assert.Equal(t, "os", tuple.At(0).Axis().ID())
	v, presence := Lookup(tuple, osAxis)
	assert.Equal(t, Present, presence)
	assert.Equal(t, platform("macos"), v)
}

func TestLookup_Presence(t *testing.T) {
	tuple := TupleOf(Of(osAxis, "linux"), Absent(buildAxis))

	_, p := Lookup(tuple, osAxis)
	assert.Equal(t, Present, p)

	_, p = Lookup(tuple, buildAxis)
	assert.Equal(t, AbsentValue, p)

	_, p = Lookup(tuple, linkageAxis)
	assert.Equal(t, Missing, p)

	_, p = Lookup(tuple, NewAxis[int]("os"))
	assert.Equal(t, Mismatch, p)
}

func TestCartesianProduct_SizeAndDistinct(t *testing.T) {
	tests := []struct {
		name string
		sets []CoordinateSet
		want int
	}{
		{"single axis", []CoordinateSet{SetOf(osAxis, "linux", "macos")}, 2},
		{"two axes", []CoordinateSet{SetOf(osAxis, "linux", "macos"), SetOf(buildAxis, "debug", "release", "minsize")}, 6},
		{"optional axis", []CoordinateSet{SetOf(osAxis, "linux", "macos"), SetOf(linkageAxis, "shared").WithAbsent()}, 4},
		{"optional only", []CoordinateSet{SetOf(linkageAxis).WithAbsent()}, 1},
		{"no axes", nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			space, err := CartesianProduct(tt.sets...)
			require.NoError(t, err)
			require.Equal(t, tt.want, space.Len())

			seen := make(map[string]bool)
			for _, tuple := range space.Tuples() {
				assert.False(t, seen[tuple.Key()], "duplicate tuple %s", tuple)
				seen[tuple.Key()] = true
			}
		})
	}
}

func TestCartesianProduct_LastAxisVariesFastest(t *testing.T) {
	space, err := CartesianProduct(
		SetOf(osAxis, "linux", "macos"),
		SetOf(buildAxis, "debug", "release"),
	)
	require.NoError(t, err)

	var got []string
	for _, tuple := range space.Tuples() {
		got = append(got, tuple.String())
	}
	assert.Equal(t, []string{
		"(os=linux, buildType=debug)",
		"(os=linux, buildType=release)",
		"(os=macos, buildType=debug)",
		"(os=macos, buildType=release)",
	}, got)
}

func TestCartesianProduct_EmptySetIsError(t *testing.T) {
	_, err := CartesianProduct(SetOf(osAxis, "linux"), SetOf(buildAxis))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoCandidateValues))

	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "buildType", ce.Axis)
}

func TestCartesianProduct_DuplicateAxisIsError(t *testing.T) {
	_, err := CartesianProduct(SetOf(osAxis, "linux"), SetOf(buildAxis, "debug"), SetOf(osAxis, "macos"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateAxis)

	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "os", ce.Axis)
}

func TestSetOf_RepeatedValuesKeepFirstPosition(t *testing.T) {
	set := SetOf(osAxis, "macos", "linux", "macos", "linux")
	require.Equal(t, 2, set.Len())
	assert.Equal(t, "macos", set.Coordinates()[0].Name())
	assert.Equal(t, "linux", set.Coordinates()[1].Name())

	flags := SetOf(flagsAxis, any([]string{"-g"}), any([]string{"-g"}), any([]string{"-O2"}))
	assert.Equal(t, 2, flags.Len())
}

func TestSpaceOf_Explicit(t *testing.T) {
	empty := SpaceOf()
	assert.Equal(t, 0, empty.Len())
	assert.Empty(t, empty.Variants())

	space := SpaceOf(
		TupleOf(Of(osAxis, "linux")),
		TupleOf(Of(osAxis, "windows")),
	)
	assert.Equal(t, 2, space.Len())
	for _, v := range space.Variants() {
		assert.Equal(t, Dimensions{"os"}, v.AmbiguousDimensions())
	}
}

func TestSpace_StandardBasis(t *testing.T) {
	space, err := CartesianProduct(
		SetOf(osAxis, "linux"),
		SetOf(buildAxis, "debug", "release"),
		SetOf(linkageAxis, "shared").WithAbsent(),
	)
	require.NoError(t, err)

	basis := space.StandardBasis()
	require.Len(t, basis, 2)
	assert.Equal(t, "buildType", basis[0].ID())
	assert.Equal(t, "linkage", basis[1].ID())
}

func TestBuildVariant_AllDimensionsExcludesEmptyNames(t *testing.T) {
	myAxis := NewAxis[label]("myAxis")
	v := VariantOf(Of(myAxis, ""))

	assert.Empty(t, v.AllDimensions())
	assert.Empty(t, v.AmbiguousDimensions())
	assert.Equal(t, "", v.String())
}

func TestBuildVariant_StandAloneKeepsEveryDimension(t *testing.T) {
	fooAxis := NewAxis[label]("foo-axis-name")
	v := VariantOf(Of(fooAxis, "foo"))

	assert.Equal(t, Dimensions{"foo-axis-name"}, v.AllDimensions())
	assert.Equal(t, v.AllDimensions(), v.AmbiguousDimensions())
	assert.False(t, v.HasSpace())
}

func TestBuildVariant_SpaceRelativeSuppression(t *testing.T) {
	myAxis := NewAxis[label]("myAxis")
	nonEmpty := NewAxis[label]("nonEmpty")

	space := SpaceOf(
		TupleOf(Of(myAxis, "myAxis"), Of(nonEmpty, "")),
		TupleOf(Of(myAxis, "myAxis"), Of(nonEmpty, "nonEmpty")),
	)
	variants := space.Variants()
	require.Len(t, variants, 2)

	assert.Equal(t, Dimensions{"myAxis"}, variants[0].AllDimensions())
	assert.Empty(t, variants[0].AmbiguousDimensions())

	assert.Equal(t, Dimensions{"myAxis", "nonEmpty"}, variants[1].AllDimensions())
	assert.Equal(t, Dimensions{"nonEmpty"}, variants[1].AmbiguousDimensions())
}

func TestBuildVariant_AbsentCountsAsEmptyName(t *testing.T) {
	space, err := CartesianProduct(
		SetOf(osAxis, "linux"),
		SetOf(linkageAxis, "shared").WithAbsent(),
	)
	require.NoError(t, err)

	variants := space.Variants()
	require.Len(t, variants, 2)
	assert.Equal(t, Dimensions{"linkage"}, variants[0].AmbiguousDimensions())
	assert.Equal(t, "shared", variants[0].Name())
	assert.Empty(t, variants[1].AmbiguousDimensions())
	assert.Equal(t, "", variants[1].Name())
	assert.Equal(t, "linux", variants[1].FullName())
}

func TestBuildVariant_Names(t *testing.T) {
	space, err := CartesianProduct(
		SetOf(osAxis, "linux", "macos"),
		SetOf(buildAxis, "debug", "release"),
		SetOf(linkageAxis, "shared"),
	)
	require.NoError(t, err)

	v := space.Variants()[1]
	assert.Equal(t, "linuxRelease", v.Name())
	assert.Equal(t, "linuxReleaseShared", v.FullName())
	assert.Equal(t, "os-buildType-linkage", v.String())
	assert.Equal(t, "os-buildType", v.AmbiguousDimensions().AsKebabCase())
	assert.Equal(t, "osBuildType", v.AmbiguousDimensions().AsLowerCamelCase())
}

func TestBuildVariant_EqualityIgnoresSpace(t *testing.T) {
	tuple := TupleOf(Of(osAxis, "linux"), Absent(linkageAxis))
	standalone := VariantFromTuple(tuple)
	fromSpace := SpaceOf(tuple, TupleOf(Of(osAxis, "macos"))).Variants()[0]

	assert.True(t, standalone.Equal(fromSpace))
	assert.Equal(t, standalone.Hash(), fromSpace.Hash())
	assert.Equal(t, standalone.Key(), fromSpace.Key())

	other := VariantOf(Of(osAxis, "linux"))
	assert.False(t, standalone.Equal(other))
}
