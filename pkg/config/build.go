package config

import (
	"fmt"
	"slices"

	"github.com/openfroyo/variantspace/pkg/engine"
	"github.com/openfroyo/variantspace/pkg/variant"
)

// Build converts a parsed declaration into a workspace of variant
// declarations. Filter references are resolved and every Starlark
// expression is compiled and exercised once, so expression errors surface
// here rather than during resolution.
func (l *Loader) Build(pc *ParsedConfig) (*engine.Workspace, error) {
	ws := &engine.Workspace{
		Sources:    slices.Clone(pc.SourceFiles),
		Components: make([]engine.ComponentSpec, 0, len(pc.Declaration.Components)),
		LoadedAt:   pc.ParsedAt,
	}
	if w := pc.Declaration.Workspace; w != nil {
		ws.Name = w.Name
		ws.MaxVariants = w.MaxVariants
	}

	var errs ValidationErrors
	for i, comp := range pc.Declaration.Components {
		spec, compErrs := l.buildComponent(fmt.Sprintf("components[%d]", i), comp)
		if len(compErrs) > 0 {
			errs = append(errs, compErrs...)
			continue
		}
		ws.Components = append(ws.Components, spec)
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return ws, nil
}

func (l *Loader) buildComponent(path string, comp ComponentConfig) (engine.ComponentSpec, ValidationErrors) {
	spec := engine.ComponentSpec{
		Name:        comp.Name,
		Description: comp.Description,
		Source:      comp.Source,
		Dimensions:  make([]variant.Declaration, 0, len(comp.Dimensions)),
	}

	byAxis := make(map[string]DimensionConfig, len(comp.Dimensions))
	for _, d := range comp.Dimensions {
		if _, exists := byAxis[d.Axis]; !exists {
			byAxis[d.Axis] = d
		}
	}

	var errs ValidationErrors
	fail := func(dimPath, format string, args ...interface{}) {
		errs = append(errs, ValidationError{
			File:     comp.Source,
			Path:     dimPath,
			Message:  fmt.Sprintf(format, args...),
			Severity: "error",
		})
	}

	for i, d := range comp.Dimensions {
		dimPath := fmt.Sprintf("%s.dimensions[%d]", path, i)

		before := len(errs)
		for _, ref := range d.References() {
			if ref == d.Axis {
				fail(dimPath, "axis %s cannot filter on itself", d.Axis)
			} else if _, ok := byAxis[ref]; !ok {
				fail(dimPath, "axis %s of component %s references unknown axis %s", d.Axis, comp.Name, ref)
			}
		}
		if len(errs) > before {
			continue
		}

		decl, err := l.buildDimension(comp.Name, d, byAxis)
		if err != nil {
			fail(dimPath, "%v", err)
			continue
		}
		spec.Dimensions = append(spec.Dimensions, decl)
	}

	return spec, errs
}

func (l *Loader) buildDimension(component string, d DimensionConfig, byAxis map[string]DimensionConfig) (variant.Declaration, error) {
	var opts []variant.AxisOption
	if d.Name != "" {
		opts = append(opts, variant.WithName(d.Name))
	}
	if d.DisplayName != "" {
		opts = append(opts, variant.WithDisplayName(d.DisplayName))
	}
	axis := variant.NewAxis[AxisValue](d.Axis, opts...)

	b := variant.NewDimension[AxisValue]().Axis(axis)

	if d.ValidValues != nil {
		b = b.ValidValues(toAxisValues(d.ValidValues)...)
	}
	if d.Validate != "" {
		expr, err := l.starlark.CompileValidator(d.Axis+".validate", d.Validate)
		if err != nil {
			return nil, fmt.Errorf("validate: %w", err)
		}
		b = b.ValidateUsing(expr.Validate)
	}
	if d.Optional {
		b = b.IncludeEmptyCoordinate()
	}
	if len(d.DefaultValues) > 0 {
		b = b.DefaultValues(toAxisValues(d.DefaultValues)...)
	}

	if r := d.OnlyOn; r != nil {
		b = b.Constrain(variant.OnlyOn(axis, variant.NewAxis[AxisValue](r.Axis), AxisValue(r.Value)))
	}
	if r := d.ExceptOn; r != nil {
		b = b.Constrain(variant.ExceptOn(axis, variant.NewAxis[AxisValue](r.Axis), AxisValue(r.Value)))
	}
	if r := d.OnlyIf; r != nil {
		pred, err := l.predicate(component, d, r, byAxis[r.Axis], "only_if")
		if err != nil {
			return nil, err
		}
		b = b.Constrain(variant.OnlyIf(axis, variant.NewAxis[AxisValue](r.Axis), pred))
	}
	if r := d.ExceptIf; r != nil {
		pred, err := l.predicate(component, d, r, byAxis[r.Axis], "except_if")
		if err != nil {
			return nil, err
		}
		b = b.Constrain(variant.ExceptIf(axis, variant.NewAxis[AxisValue](r.Axis), pred))
	}

	dim, err := b.Build()
	if err != nil {
		return nil, err
	}
	return dim.With(toAxisValues(d.Values)...), nil
}

// predicate compiles an expression filter and evaluates it over every
// pairing of candidate values so runtime errors are reported at load time.
func (l *Loader) predicate(component string, d DimensionConfig, ref *ExprRef, other DimensionConfig, field string) (variant.Predicate[AxisValue, AxisValue], error) {
	expr, err := l.starlark.CompilePredicate(fmt.Sprintf("%s.%s", d.Axis, field), ref.Expr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}

	info := AxisInfo{Name: d.Axis, Values: candidates(d)}

	currents := []variant.Optional[AxisValue]{variant.None[AxisValue]()}
	for _, v := range info.Values {
		currents = append(currents, variant.Some(AxisValue(v)))
	}
	for _, o := range candidates(other) {
		for _, c := range currents {
			if _, err := expr.Predicate(c, AxisValue(o), info); err != nil {
				return nil, fmt.Errorf("%s: %w", field, err)
			}
		}
	}

	logger := l.logger.With().Str("component", component).Str("axis", d.Axis).Logger()
	return func(current variant.Optional[AxisValue], o AxisValue) bool {
		ok, err := expr.Predicate(current, o, info)
		if err != nil {
			logger.Warn().Err(err).Str("expr", expr.Source()).Msg("Predicate failed, dropping variant")
			return false
		}
		return ok
	}, nil
}

// candidates returns the values a dimension will be registered with.
func candidates(d DimensionConfig) []string {
	if len(d.Values) > 0 {
		return d.Values
	}
	return d.DefaultValues
}

func toAxisValues(values []string) []AxisValue {
	out := make([]AxisValue, len(values))
	for i, v := range values {
		out[i] = AxisValue(v)
	}
	return out
}
