package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfroyo/variantspace/pkg/telemetry"
	"github.com/openfroyo/variantspace/pkg/variant"
)

type staticEvaluator struct {
	ws  *Workspace
	err error
}

func (e *staticEvaluator) Evaluate(ctx context.Context, sources []string) (*Workspace, error) {
	if e.err != nil {
		return nil, e.err
	}
	ws := *e.ws
	ws.Sources = sources
	return &ws, nil
}

type recordingPolicies struct {
	limit     int
	seenLimit int
	calls     []string
	err       error
}

func (p *recordingPolicies) EvaluateComponent(ctx context.Context, cp *ComponentPlan) (*PolicyResult, error) {
	p.calls = append(p.calls, cp.Name)
	if p.err != nil {
		return nil, p.err
	}
	if n, ok := MaxVariantsFromContext(ctx); ok {
		p.seenLimit = n
	}

	result := &PolicyResult{Allowed: true}
	if p.limit > 0 && len(cp.Variants) > p.limit {
		result.Allowed = false
		result.Violations = append(result.Violations, PolicyViolation{
			Policy:    "limit",
			Message:   "too many variants",
			Severity:  "error",
			Component: cp.Name,
		})
	}
	if len(cp.Basis) == 0 {
		result.Violations = append(result.Violations, PolicyViolation{
			Policy:    "basis",
			Message:   "nothing varies",
			Severity:  "warning",
			Component: cp.Name,
		})
		result.Warnings = append(result.Warnings, "nothing varies")
	}
	return result, nil
}

func mustDimension(t *testing.T, b variant.DimensionBuilder[string]) variant.Dimension[string] {
	t.Helper()
	d, err := b.Build()
	require.NoError(t, err)
	return d
}

func nativeLibrary(t *testing.T) ComponentSpec {
	osDim := mustDimension(t, variant.NewDimension[string]().Axis(testOS))
	linkage := mustDimension(t, variant.NewDimension[string]().
		Axis(testLinkage).
		Constrain(variant.OnlyOn(testLinkage, testOS, "linux")))

	return ComponentSpec{
		Name: "native-library",
		Dimensions: []variant.Declaration{
			osDim.With("linux", "windows"),
			linkage.With("shared", "static"),
		},
	}
}

func variantNames(cp ComponentPlan) []string {
	names := make([]string, len(cp.Variants))
	for i, v := range cp.Variants {
		names[i] = v.Name
	}
	return names
}

func TestResolver_ResolveWorkspace(t *testing.T) {
	single := mustDimension(t, variant.NewDimension[string]().Axis(testBuildType))
	ws := &Workspace{
		Sources: []string{"components.cue"},
		Components: []ComponentSpec{
			nativeLibrary(t),
			{Name: "tool", Dimensions: []variant.Declaration{single.With("release")}},
		},
	}

	policies := &recordingPolicies{}
	plan, err := NewResolver(nil, WithPolicyEvaluator(policies)).ResolveWorkspace(context.Background(), ws)
	require.NoError(t, err)

	assert.NotEmpty(t, plan.ID)
	assert.True(t, plan.Allowed)
	assert.Equal(t, []string{"components.cue"}, plan.Sources)
	require.Len(t, plan.Components, 2)

	lib := plan.Components[0]
	assert.Equal(t, "native-library", lib.Name)
	assert.Equal(t, []string{"os", "linkage"}, lib.Axes)
	assert.Equal(t, []string{"os", "linkage"}, lib.Basis)
	assert.Equal(t, 6, lib.SpaceSize)
	assert.Equal(t, []string{"linuxShared", "linuxStatic", "windows"}, variantNames(lib))
	assert.Len(t, lib.Excluded, 3)
	assert.Equal(t, []string{"linkage only on os=linux"}, lib.Filters)
	require.NotNil(t, lib.Graph)
	assert.Len(t, lib.Graph.Edges, 1)
	require.NotNil(t, lib.Policy)

	windows := lib.Variants[2]
	require.Len(t, windows.Coordinates, 2)
	assert.Equal(t, CoordinateView{Axis: "linkage", Absent: true}, windows.Coordinates[1])

	tool := plan.Components[1]
	assert.Equal(t, []string{""}, variantNames(tool))
	assert.Empty(t, tool.Basis)

	assert.Equal(t, []string{"native-library", "tool"}, policies.calls)
	assert.Equal(t, []string{"component tool: nothing varies"}, plan.Warnings)

	assert.Equal(t, PlanSummary{
		Components: 2,
		Axes:       3,
		SpaceSize:  7,
		Variants:   4,
		Excluded:   3,
		Violations: 1,
	}, plan.Summary)
}

func TestResolver_PolicyDenies(t *testing.T) {
	ws := &Workspace{Components: []ComponentSpec{nativeLibrary(t)}, MaxVariants: 2}

	policies := &recordingPolicies{limit: 2}
	plan, err := NewResolver(nil, WithPolicyEvaluator(policies)).ResolveWorkspace(context.Background(), ws)
	require.NoError(t, err)

	assert.False(t, plan.Allowed)
	assert.Equal(t, 2, policies.seenLimit)
	require.NotNil(t, plan.Components[0].Policy)
	assert.True(t, plan.Components[0].Policy.Violations[0].Blocking())
}

func TestResolver_PolicyError(t *testing.T) {
	ws := &Workspace{Components: []ComponentSpec{nativeLibrary(t)}}

	policies := &recordingPolicies{err: errors.New("rego failed")}
	_, err := NewResolver(nil, WithPolicyEvaluator(policies)).ResolveWorkspace(context.Background(), ws)
	require.Error(t, err)
	assert.True(t, IsPolicy(err))
}

func TestResolver_RegistrationErrors(t *testing.T) {
	osDim := mustDimension(t, variant.NewDimension[string]().Axis(testOS).ValidValues("linux", "windows"))
	empty := mustDimension(t, variant.NewDimension[string]().Axis(testBuildType))

	tests := []struct {
		name string
		spec ComponentSpec
		code string
	}{
		{
			name: "unsupported value",
			spec: ComponentSpec{Name: "lib", Dimensions: []variant.Declaration{osDim.With("plan9")}},
			code: ErrCodeUnsupportedValue,
		},
		{
			name: "no candidates",
			spec: ComponentSpec{Name: "lib", Dimensions: []variant.Declaration{empty.With()}},
			code: ErrCodeNoCandidateValues,
		},
		{
			name: "duplicate axis",
			spec: ComponentSpec{Name: "lib", Dimensions: []variant.Declaration{osDim.With("linux"), osDim.With("windows")}},
			code: ErrCodeDuplicateAxis,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := &Workspace{Components: []ComponentSpec{tt.spec}}
			_, err := NewResolver(nil).ResolveWorkspace(context.Background(), ws)
			require.Error(t, err)
			assert.True(t, IsConfiguration(err))
			assert.Equal(t, tt.code, CodeOf(err))

			var ee *EngineError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, "lib", ee.Component)
			assert.Equal(t, "register", ee.Operation)
		})
	}
}

func TestResolver_CircularConstraintWarns(t *testing.T) {
	osDim := mustDimension(t, variant.NewDimension[string]().
		Axis(testOS).
		Constrain(variant.ExceptOn(testOS, testLinkage, "static")))
	linkage := mustDimension(t, variant.NewDimension[string]().
		Axis(testLinkage).
		Constrain(variant.OnlyOn(testLinkage, testOS, "linux")))

	ws := &Workspace{Components: []ComponentSpec{{
		Name:       "lib",
		Dimensions: []variant.Declaration{osDim.With("linux"), linkage.With("static")},
	}}}

	plan, err := NewResolver(nil).ResolveWorkspace(context.Background(), ws)
	require.NoError(t, err)
	require.Len(t, plan.Warnings, 1)
	assert.Contains(t, plan.Warnings[0], "circular constraint detected")
	assert.NotEmpty(t, plan.Components[0].Graph.Cycle)
}

func TestResolver_Resolve(t *testing.T) {
	evaluator := &staticEvaluator{ws: &Workspace{Components: []ComponentSpec{nativeLibrary(t)}}}

	plan, err := NewResolver(evaluator).Resolve(context.Background(), []string{"decl"})
	require.NoError(t, err)
	assert.Equal(t, []string{"decl"}, plan.Sources)
	assert.Len(t, plan.Components[0].Variants, 3)

	evaluator.err = NewConfigurationError("invalid declarations", nil)
	_, err = NewResolver(evaluator).Resolve(context.Background(), []string{"decl"})
	assert.True(t, IsConfiguration(err))

	_, err = NewResolver(nil).Resolve(context.Background(), nil)
	assert.True(t, IsInternal(err))
}

func TestResolver_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ws := &Workspace{Components: []ComponentSpec{nativeLibrary(t)}}
	_, err := NewResolver(nil).ResolveWorkspace(ctx, ws)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolver_Telemetry(t *testing.T) {
	cfg := telemetry.DefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Events.Enabled = true
	cfg.Events.EnableAsync = false
	tel, err := telemetry.NewTelemetry(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	var events []telemetry.Event
	tel.Events.Subscribe(func(e telemetry.Event) { events = append(events, e) }, nil)

	ws := &Workspace{Components: []ComponentSpec{nativeLibrary(t)}}
	plan, err := NewResolver(nil, WithTelemetry(tel)).ResolveWorkspace(context.Background(), ws)
	require.NoError(t, err)

	types := make(map[string]int)
	for _, e := range events {
		types[e.Type]++
		assert.Equal(t, plan.ID, e.PlanID)
	}
	assert.Equal(t, 3, types[telemetry.EventTypeVariantExcluded])
	assert.Equal(t, 1, types[telemetry.EventTypeComponentResolved])
	assert.Equal(t, 1, types[telemetry.EventTypeWorkspaceResolved])

	families, err := tel.Metrics.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
