package variant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOnlyOn_ExclusivityLaw(t *testing.T) {
	filter := OnlyOn(linkageAxis, osAxis, "linux")

	tests := []struct {
		name    string
		variant BuildVariant
		want    bool
	}{
		{"absent current, other differs", VariantOf(Absent(linkageAxis), Of(osAxis, "windows")), true},
		{"present current, other matches", VariantOf(Of(linkageAxis, "shared"), Of(osAxis, "linux")), true},
		{"present current, other differs", VariantOf(Of(linkageAxis, "shared"), Of(osAxis, "windows")), false},
		{"absent current, other matches", VariantOf(Absent(linkageAxis), Of(osAxis, "linux")), false},
		{"missing current, other matches", VariantOf(Of(osAxis, "linux")), false},
		{"missing current, other differs", VariantOf(Of(osAxis, "macos")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filter.Test(tt.variant))
		})
	}
}

func TestExceptOn_Complement(t *testing.T) {
	filter := ExceptOn(linkageAxis, osAxis, "windows")

	tests := []struct {
		name    string
		variant BuildVariant
		want    bool
	}{
		{"present current, other differs", VariantOf(Of(linkageAxis, "shared"), Of(osAxis, "linux")), true},
		{"present current, other matches", VariantOf(Of(linkageAxis, "shared"), Of(osAxis, "windows")), false},
		{"absent current, other matches", VariantOf(Absent(linkageAxis), Of(osAxis, "windows")), true},
		{"absent current, other differs", VariantOf(Absent(linkageAxis), Of(osAxis, "linux")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filter.Test(tt.variant))
		})
	}
}

func TestAxisFilter_VacuousWhenOtherNotPresent(t *testing.T) {
	called := false
	never := func(Optional[label], platform) bool {
		called = true
		return false
	}

	tests := []struct {
		name    string
		variant BuildVariant
	}{
		{"other absent", VariantOf(Of(linkageAxis, "shared"), Absent(osAxis))},
		{"other missing", VariantOf(Of(linkageAxis, "shared"))},
		{"empty variant", VariantOf()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, f := range []AxisFilter[label, platform]{
				OnlyIf(linkageAxis, osAxis, never),
				ExceptIf(linkageAxis, osAxis, func(c Optional[label], o platform) bool { return !never(c, o) }),
			} {
				assert.Equal(t, Skip, f.Evaluate(tt.variant))
				assert.True(t, f.Test(tt.variant))
			}
			assert.False(t, called)
		})
	}
}

func TestAxisFilter_TypeMismatchIsSkipped(t *testing.T) {
	numericOS := NewAxis[int]("os")
	filter := OnlyOn(linkageAxis, numericOS, 1)

	v := VariantOf(Of(linkageAxis, "shared"), Of(osAxis, "linux"))
	assert.Equal(t, Skip, filter.Evaluate(v))
	assert.True(t, filter.Test(v))
}

func TestAxisFilter_PassesCurrentAndOther(t *testing.T) {
	var gotCurrent Optional[label]
	var gotOther platform
	filter := OnlyIf(linkageAxis, osAxis, func(c Optional[label], o platform) bool {
		gotCurrent, gotOther = c, o
		return true
	})

	assert.Equal(t, Keep, filter.Evaluate(VariantOf(Of(linkageAxis, "static"), Of(osAxis, "macos"))))
	value, ok := gotCurrent.Get()
	assert.True(t, ok)
	assert.Equal(t, label("static"), value)
	assert.Equal(t, platform("macos"), gotOther)

	filter.Evaluate(VariantOf(Absent(linkageAxis), Of(osAxis, "linux")))
	assert.False(t, gotCurrent.IsPresent())
	assert.Equal(t, platform("linux"), gotOther)
}

func TestExceptIf_NegatesPredicate(t *testing.T) {
	isWindows := func(_ Optional[label], o platform) bool { return o == "windows" }

	onlyIf := OnlyIf(linkageAxis, osAxis, isWindows)
	exceptIf := ExceptIf(linkageAxis, osAxis, isWindows)

	for _, os := range []platform{"linux", "windows"} {
		v := VariantOf(Of(linkageAxis, "shared"), Of(osAxis, os))
		assert.NotEqual(t, onlyIf.Test(v), exceptIf.Test(v), "os=%s", os)
	}
}

func TestAllOf_Conjunction(t *testing.T) {
	keep := FilterFunc{Fn: func(BuildVariant) bool { return true }, Description: "keep"}
	drop := FilterFunc{Fn: func(BuildVariant) bool { return false }, Description: "drop"}

	v := VariantOf(Of(osAxis, "linux"))
	assert.True(t, AllOf().Test(v))
	assert.True(t, AllOf(keep, keep).Test(v))
	assert.False(t, AllOf(keep, drop).Test(v))
	assert.Equal(t, "keep and drop", AllOf(keep, drop).String())
}

func TestAxisFilter_Descriptions(t *testing.T) {
	assert.Equal(t, "linkage only on os=linux", OnlyOn(linkageAxis, osAxis, "linux").String())
	assert.Equal(t, "linkage except on os=windows", ExceptOn(linkageAxis, osAxis, "windows").String())

	other, current := OnlyOn(linkageAxis, osAxis, "linux").Dependency()
	assert.Equal(t, "os", other)
	assert.Equal(t, "linkage", current)
}
