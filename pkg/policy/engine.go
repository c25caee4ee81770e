package policy

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
	"github.com/open-policy-agent/opa/storage"
	"github.com/open-policy-agent/opa/storage/inmem"
	"github.com/openfroyo/variantspace/pkg/engine"
	"github.com/rs/zerolog"
)

// Engine evaluates Rego policies against resolved components. It implements
// engine.PolicyEvaluator.
type Engine struct {
	mu          sync.RWMutex
	policies    map[string]*compiledPolicy
	store       storage.Store
	logger      zerolog.Logger
	maxVariants int
	operation   string
}

// compiledPolicy is a parsed policy with its prepared deny query.
type compiledPolicy struct {
	policy   *Policy
	module   *ast.Module
	query    rego.PreparedEvalQuery
	compiled time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxVariants sets the limit enforced by variants.limit. Zero disables it.
func WithMaxVariants(n int) Option {
	return func(e *Engine) {
		e.maxVariants = n
	}
}

// WithOperation sets the operation reported in the policy context.
func WithOperation(op string) Option {
	return func(e *Engine) {
		e.operation = op
	}
}

// NewEngine creates a policy engine with the built-in policies loaded.
func NewEngine(logger zerolog.Logger, opts ...Option) (*Engine, error) {
	e := &Engine{
		policies:    make(map[string]*compiledPolicy),
		logger:      logger.With().Str("component", "policy-engine").Logger(),
		maxVariants: DefaultMaxVariants,
		operation:   "plan",
	}
	for _, opt := range opts {
		opt(e)
	}

	e.store = inmem.NewFromObject(map[string]interface{}{
		"variantspace": map[string]interface{}{
			"max_variants": e.maxVariants,
		},
	})

	if err := e.loadBuiltinPolicies(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to load built-in policies: %w", err)
	}

	return e, nil
}

// EvaluateComponent evaluates every enabled policy against one component.
func (e *Engine) EvaluateComponent(ctx context.Context, component *engine.ComponentPlan) (*engine.PolicyResult, error) {
	if component == nil {
		return nil, fmt.Errorf("component plan is nil")
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	limit := e.maxVariants
	if n, ok := engine.MaxVariantsFromContext(ctx); ok {
		limit = n
	}

	input := &PolicyInput{
		Component: NewComponentInput(component),
		Context: &PolicyContext{
			Timestamp:   time.Now(),
			Operation:   e.operation,
			MaxVariants: limit,
		},
	}

	result := &engine.PolicyResult{Allowed: true}

	for _, cp := range e.sortedLocked() {
		if !cp.policy.Enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		violations, err := e.evaluatePolicy(ctx, cp, input)
		if err != nil {
			e.logger.Error().Err(err).
				Str("policy", cp.policy.Name).
				Str("component", component.Name).
				Msg("Policy evaluation failed")
			return nil, fmt.Errorf("failed to evaluate policy %s: %w", cp.policy.Name, err)
		}

		for _, v := range violations {
			if v.Blocking() {
				result.Allowed = false
			} else if v.Severity == string(SeverityWarning) {
				result.Warnings = append(result.Warnings, v.Message)
			}
			result.Violations = append(result.Violations, v)
		}
	}

	result.EvaluatedAt = time.Now()

	e.logger.Debug().
		Str("component", component.Name).
		Int("violations", len(result.Violations)).
		Bool("allowed", result.Allowed).
		Msg("Component evaluated")

	return result, nil
}

// LoadPolicies loads policy files and adds them to the engine.
func (e *Engine) LoadPolicies(ctx context.Context, paths []string) error {
	loader := NewLoader(e.logger)
	policies, err := loader.LoadFromPaths(ctx, paths)
	if err != nil {
		return fmt.Errorf("failed to load policies: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range policies {
		if err := e.compileAndStorePolicy(ctx, &policies[i]); err != nil {
			e.logger.Error().Err(err).
				Str("policy", policies[i].Name).
				Msg("Failed to compile policy")
			return fmt.Errorf("failed to compile policy %s: %w", policies[i].Name, err)
		}
	}

	e.logger.Info().
		Int("count", len(policies)).
		Msg("Policies loaded successfully")

	return nil
}

// ReplacePolicies swaps the custom policies for the given set. Built-in
// policies and their enabled state are kept. Nothing changes if any
// policy fails to compile.
func (e *Engine) ReplacePolicies(ctx context.Context, policies []Policy) error {
	next := make(map[string]*compiledPolicy, len(policies))

	e.mu.Lock()
	defer e.mu.Unlock()

	for name, cp := range e.policies {
		if cp.policy.Builtin {
			next[name] = cp
		}
	}

	for i := range policies {
		cp, err := e.compile(ctx, &policies[i])
		if err != nil {
			return fmt.Errorf("failed to compile policy %s: %w", policies[i].Name, err)
		}
		next[cp.policy.Name] = cp
	}

	e.policies = next
	e.logger.Info().Int("custom", len(policies)).Msg("Policies replaced")

	return nil
}

// evaluatePolicy runs the prepared deny query of one policy.
func (e *Engine) evaluatePolicy(ctx context.Context, cp *compiledPolicy, input *PolicyInput) ([]engine.PolicyViolation, error) {
	results, err := cp.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("policy evaluation error: %w", err)
	}

	var violations []engine.PolicyViolation
	for _, result := range results {
		if len(result.Expressions) == 0 {
			continue
		}
		denySet, ok := result.Expressions[0].Value.([]interface{})
		if !ok {
			continue
		}
		for _, d := range denySet {
			violations = append(violations, e.createViolation(cp.policy, d, input))
		}
	}

	return violations, nil
}

// createViolation creates a PolicyViolation from a deny entry.
func (e *Engine) createViolation(policy *Policy, result interface{}, input *PolicyInput) engine.PolicyViolation {
	violation := engine.PolicyViolation{
		Policy:    policy.Name,
		Severity:  string(policy.Severity),
		Component: input.Component.Name,
	}

	switch v := result.(type) {
	case string:
		violation.Message = v
	case map[string]interface{}:
		if msg, ok := v["message"].(string); ok {
			violation.Message = msg
		}
		if sev, ok := v["severity"].(string); ok {
			violation.Severity = sev
		}
	default:
		violation.Message = fmt.Sprintf("%v", result)
	}

	return violation
}

// compile parses a policy and prepares its deny query.
func (e *Engine) compile(ctx context.Context, policy *Policy) (*compiledPolicy, error) {
	module, err := ast.ParseModule(policy.Name, policy.Rego)
	if err != nil {
		return nil, fmt.Errorf("failed to parse policy: %w", err)
	}

	query, err := rego.New(
		rego.Module(policy.Name, policy.Rego),
		rego.Store(e.store),
		rego.Query(module.Package.Path.String()+".deny"),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare query: %w", err)
	}

	if policy.Severity == "" {
		policy.Severity = SeverityWarning
	}

	return &compiledPolicy{
		policy:   policy,
		module:   module,
		query:    query,
		compiled: time.Now(),
	}, nil
}

// compileAndStorePolicy compiles a policy and stores it. Callers hold e.mu.
func (e *Engine) compileAndStorePolicy(ctx context.Context, policy *Policy) error {
	cp, err := e.compile(ctx, policy)
	if err != nil {
		return err
	}
	e.policies[policy.Name] = cp

	e.logger.Debug().
		Str("policy", policy.Name).
		Str("package", cp.module.Package.Path.String()).
		Msg("Policy compiled successfully")

	return nil
}

// loadBuiltinPolicies compiles the built-in policies.
func (e *Engine) loadBuiltinPolicies(ctx context.Context) error {
	builtins := GetBuiltinPolicies()
	for i := range builtins {
		if err := e.compileAndStorePolicy(ctx, &builtins[i]); err != nil {
			return fmt.Errorf("failed to compile built-in policy %s: %w", builtins[i].Name, err)
		}
	}

	e.logger.Debug().
		Int("count", len(builtins)).
		Msg("Built-in policies loaded")

	return nil
}

// sortedLocked returns the compiled policies ordered by name.
func (e *Engine) sortedLocked() []*compiledPolicy {
	out := make([]*compiledPolicy, 0, len(e.policies))
	for _, cp := range e.policies {
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].policy.Name < out[j].policy.Name
	})
	return out
}

// GetPolicy returns a policy by name.
func (e *Engine) GetPolicy(name string) (*Policy, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	cp, exists := e.policies[name]
	if !exists {
		return nil, fmt.Errorf("policy not found: %s", name)
	}

	p := *cp.policy
	p.Tags = slices.Clone(p.Tags)
	return &p, nil
}

// ListPolicies returns all loaded policies ordered by name.
func (e *Engine) ListPolicies() []Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sorted := e.sortedLocked()
	policies := make([]Policy, 0, len(sorted))
	for _, cp := range sorted {
		policies = append(policies, *cp.policy)
	}

	return policies
}

// ReloadPolicies drops custom policies and recompiles the built-ins.
func (e *Engine) ReloadPolicies(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.policies = make(map[string]*compiledPolicy)

	return e.loadBuiltinPolicies(ctx)
}

// EnablePolicy enables a policy by name.
func (e *Engine) EnablePolicy(name string) error {
	return e.setEnabled(name, true)
}

// DisablePolicy disables a policy by name.
func (e *Engine) DisablePolicy(name string) error {
	return e.setEnabled(name, false)
}

func (e *Engine) setEnabled(name string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cp, exists := e.policies[name]
	if !exists {
		return fmt.Errorf("policy not found: %s", name)
	}

	cp.policy.Enabled = enabled
	cp.policy.UpdatedAt = time.Now()
	e.logger.Info().Str("policy", name).Bool("enabled", enabled).Msg("Policy state changed")

	return nil
}
