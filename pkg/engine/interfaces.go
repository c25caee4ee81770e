package engine

import (
	"context"
	"time"
)

// Evaluator loads component declarations.
type Evaluator interface {
	// Evaluate parses declaration sources and returns the workspace.
	Evaluate(ctx context.Context, sources []string) (*Workspace, error)
}

// PolicyEvaluator enforces policies on resolved components.
type PolicyEvaluator interface {
	// EvaluateComponent evaluates policies against one resolved component.
	EvaluateComponent(ctx context.Context, component *ComponentPlan) (*PolicyResult, error)
}

// PolicyResult represents the result of policy evaluation.
type PolicyResult struct {
	// Allowed indicates if the component is allowed.
	Allowed bool `json:"allowed"`

	// Violations lists policy violations.
	Violations []PolicyViolation `json:"violations,omitempty"`

	// Warnings lists policy warnings.
	Warnings []string `json:"warnings,omitempty"`

	// EvaluatedAt is when the policy was evaluated.
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// PolicyViolation represents a single policy violation.
type PolicyViolation struct {
	// Policy is the policy name that was violated.
	Policy string `json:"policy"`

	// Message is a human-readable violation message.
	Message string `json:"message"`

	// Severity is the violation severity (info, warning, error, critical).
	Severity string `json:"severity"`

	// Component is the component that violated the policy.
	Component string `json:"component,omitempty"`
}

// Blocking reports whether the violation prevents the plan from being allowed.
func (v PolicyViolation) Blocking() bool {
	return v.Severity == "error" || v.Severity == "critical"
}

type maxVariantsKey struct{}

// WithMaxVariants returns a context carrying a workspace variant limit for
// policy evaluators. Zero disables the limit.
func WithMaxVariants(ctx context.Context, n int) context.Context {
	return context.WithValue(ctx, maxVariantsKey{}, n)
}

// MaxVariantsFromContext returns the workspace variant limit set with
// WithMaxVariants.
func MaxVariantsFromContext(ctx context.Context) (int, bool) {
	n, ok := ctx.Value(maxVariantsKey{}).(int)
	return n, ok
}
