package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/openfroyo/variantspace/pkg/telemetry"
	"github.com/openfroyo/variantspace/pkg/variant"
)

// Resolver turns component declarations into a plan of build variants.
type Resolver struct {
	// evaluator loads declarations for Resolve
	evaluator Evaluator

	// policies is optional; without it components are not policy checked
	policies PolicyEvaluator

	telemetry *telemetry.Telemetry
	logger    *telemetry.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithPolicyEvaluator enables policy evaluation of every resolved component.
func WithPolicyEvaluator(p PolicyEvaluator) ResolverOption {
	return func(r *Resolver) {
		r.policies = p
	}
}

// WithTelemetry records spans, metrics and events through tel.
func WithTelemetry(tel *telemetry.Telemetry) ResolverOption {
	return func(r *Resolver) {
		r.telemetry = tel
	}
}

// NewResolver creates a resolver loading declarations with evaluator.
func NewResolver(evaluator Evaluator, opts ...ResolverOption) *Resolver {
	r := &Resolver{evaluator: evaluator}
	for _, opt := range opts {
		opt(r)
	}
	if r.telemetry == nil {
		r.telemetry = telemetry.Nop()
	}
	r.logger = r.telemetry.Logger.NewComponentLogger("resolver")
	return r
}

// Resolve evaluates the declarations in sources and resolves them.
func (r *Resolver) Resolve(ctx context.Context, sources []string) (*Plan, error) {
	if r.evaluator == nil {
		return nil, NewInternalError("no evaluator configured", nil).WithOperation("resolve")
	}

	ws, err := r.evaluator.Evaluate(ctx, sources)
	if err != nil {
		r.telemetry.Metrics.RecordError(CodeOf(err))
		return nil, err
	}
	return r.ResolveWorkspace(ctx, ws)
}

// ResolveWorkspace resolves every component of ws in declaration order. The
// first component that fails to register or resolve aborts the plan.
func (r *Resolver) ResolveWorkspace(ctx context.Context, ws *Workspace) (*Plan, error) {
	if ws == nil {
		return nil, NewInternalError("workspace is nil", nil).WithOperation("resolve")
	}

	timer := telemetry.NewTimer()
	plan := &Plan{
		ID:         uuid.New().String(),
		CreatedAt:  time.Now(),
		Sources:    ws.Sources,
		Components: make([]ComponentPlan, 0, len(ws.Components)),
		Allowed:    true,
	}
	logger := r.logger.WithPlanID(plan.ID)

	ctx, span := r.telemetry.Tracer.StartWorkspaceSpan(ctx, plan.ID, len(ws.Components))
	defer span.End()

	if ws.MaxVariants > 0 {
		ctx = WithMaxVariants(ctx, ws.MaxVariants)
	}

	fail := func(err error) (*Plan, error) {
		telemetry.RecordError(span, err)
		r.telemetry.Metrics.RecordResolution("failure", timer.Duration())
		return nil, err
	}

	for _, spec := range ws.Components {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		cp, err := r.resolveComponent(ctx, plan, spec)
		if err != nil {
			code := CodeOf(err)
			r.telemetry.Metrics.RecordComponentFailed(code)
			_ = r.telemetry.Events.PublishComponentFailed(plan.ID, spec.Name, code, err.Error())
			logger.WithComponent(spec.Name).WithError(err).Error("Component resolution failed")
			return fail(err)
		}
		plan.Components = append(plan.Components, *cp)
	}

	plan.Summary = summarize(plan.Components)
	status := "allowed"
	if !plan.Allowed {
		status = "denied"
	}
	duration := timer.Duration()

	r.telemetry.Metrics.RecordResolution(status, duration)
	_ = r.telemetry.Events.PublishWorkspaceResolved(plan.ID, plan.Summary.Components, plan.Summary.Variants, plan.Allowed, duration)
	span.SetAttributes(
		telemetry.AttrVariants.Int(plan.Summary.Variants),
		attribute.Bool("plan.allowed", plan.Allowed),
	)
	telemetry.RecordSuccess(span)

	logger.WithField("components", plan.Summary.Components).
		WithField("variants", plan.Summary.Variants).
		WithField("allowed", plan.Allowed).
		Info("Workspace resolved")

	return plan, nil
}

func (r *Resolver) resolveComponent(ctx context.Context, plan *Plan, spec ComponentSpec) (*ComponentPlan, error) {
	ctx, span := r.telemetry.Tracer.StartComponentSpan(ctx, spec.Name)
	defer span.End()

	vd := variant.NewVariantDimensions(spec.Name)
	for _, decl := range spec.Dimensions {
		if err := vd.Register(decl); err != nil {
			e := FromVariantError(spec.Name, err).WithOperation("register")
			telemetry.RecordError(span, e)
			span.SetAttributes(telemetry.AttrErrorCode.String(e.Code))
			return nil, e
		}
	}

	res, err := vd.Resolve()
	if err != nil {
		e := FromVariantError(spec.Name, err).WithOperation("resolve")
		telemetry.RecordError(span, e)
		return nil, e
	}

	axes := vd.Axes()
	cp := &ComponentPlan{
		Name:      spec.Name,
		Axes:      make([]string, 0, len(axes)),
		SpaceSize: res.Space.Len(),
		Variants:  make([]VariantPlan, 0, len(res.Variants)),
	}
	for _, a := range axes {
		cp.Axes = append(cp.Axes, a.ID())
	}
	for _, a := range res.Space.StandardBasis() {
		cp.Basis = append(cp.Basis, a.ID())
	}
	for _, f := range vd.Filters() {
		cp.Filters = append(cp.Filters, f.String())
	}
	for _, v := range res.Variants {
		cp.Variants = append(cp.Variants, NewVariantPlan(v))
	}
	for _, v := range res.Excluded {
		cp.Excluded = append(cp.Excluded, NewVariantPlan(v))
		_ = r.telemetry.Events.PublishVariantExcluded(plan.ID, spec.Name, v.Key())
	}

	graph, err := NewGraphBuilder().BuildGraph(axes, vd.Filters())
	if err != nil {
		plan.Warnings = append(plan.Warnings, fmt.Sprintf("component %s: %v", spec.Name, err))
	}
	cp.Graph = graph

	if r.policies != nil {
		result, err := r.evaluatePolicies(ctx, plan, cp)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		cp.Policy = result
	}

	r.telemetry.Metrics.RecordComponentResolved(spec.Name, cp.SpaceSize, len(cp.Variants), len(cp.Excluded))
	_ = r.telemetry.Events.PublishComponentResolved(plan.ID, spec.Name, len(cp.Variants), len(cp.Excluded))
	span.SetAttributes(
		telemetry.AttrSpaceSize.Int(cp.SpaceSize),
		telemetry.AttrVariants.Int(len(cp.Variants)),
		telemetry.AttrExcluded.Int(len(cp.Excluded)),
	)
	telemetry.RecordSuccess(span)

	return cp, nil
}

func (r *Resolver) evaluatePolicies(ctx context.Context, plan *Plan, cp *ComponentPlan) (*PolicyResult, error) {
	ctx, span := r.telemetry.Tracer.StartPolicySpan(ctx, cp.Name)
	defer span.End()

	result, err := r.policies.EvaluateComponent(ctx, cp)
	if err != nil {
		e := NewPolicyError("policy evaluation failed", err).
			WithComponent(cp.Name).
			WithOperation("policy")
		telemetry.RecordError(span, e)
		return nil, e
	}

	for _, v := range result.Violations {
		r.telemetry.Metrics.RecordPolicyViolation(v.Severity)
		_ = r.telemetry.Events.PublishPolicyViolation(plan.ID, cp.Name, v.Policy, v.Severity, v.Message)
	}
	for _, w := range result.Warnings {
		plan.Warnings = append(plan.Warnings, fmt.Sprintf("component %s: %s", cp.Name, w))
	}
	if !result.Allowed {
		plan.Allowed = false
	}

	telemetry.RecordSuccess(span)
	return result, nil
}

func summarize(components []ComponentPlan) PlanSummary {
	s := PlanSummary{Components: len(components)}
	for _, c := range components {
		s.Axes += len(c.Axes)
		s.SpaceSize += c.SpaceSize
		s.Variants += len(c.Variants)
		s.Excluded += len(c.Excluded)
		if c.Policy != nil {
			s.Violations += len(c.Policy.Violations)
		}
	}
	return s
}
