// Package engine resolves component declarations into a plan of build
// variants.
//
// # Overview
//
// Resolution runs in four phases:
//
//  1. Evaluate - Load declarations into a Workspace (Evaluator)
//  2. Register - Validate every dimension of a component into a variant space
//  3. Resolve - Expand the space and partition it with the registered filters
//  4. Check - Build the axis constraint graph and evaluate policies (PolicyEvaluator)
//
// The result is a Plan holding one ComponentPlan per component, in
// declaration order.
//
// # Core Types
//
//   - Workspace: The evaluated declarations of every component
//   - ComponentSpec: A component with its dimension declarations
//   - Plan: The resolved variants of a workspace, with a summary
//   - ComponentPlan: The kept and excluded variants of one component
//   - VariantPlan: The serializable view of a build variant
//   - ConstraintGraph: Axes related by their filters
//
// # Constraint Graph
//
// Every filter relating two axes is an edge from the conditioning axis to
// the constrained axis. The GraphBuilder detects cycles and assigns levels:
//
//	graph, err := NewGraphBuilder().BuildGraph(axes, filters)
//	fmt.Println(graph.ToDOT("native-library"))
//
// A cycle does not stop resolution. It is reported as a plan warning with
// the CIRCULAR_CONSTRAINT code.
//
// # Error Classification
//
// Errors carry a class and a code:
//
//   - Configuration: Invalid declarations or dimension registrations
//   - Policy: Policy evaluation failures
//   - Internal: Unexpected failures
//
// Use the helper functions to inspect them:
//
//	if IsConfiguration(err) {
//	    fmt.Println(CodeOf(err)) // e.g. UNSUPPORTED_VALUE
//	}
//
// # Example Usage
//
//	resolver := NewResolver(loader,
//	    WithPolicyEvaluator(policies),
//	    WithTelemetry(tel),
//	)
//	plan, err := resolver.Resolve(ctx, []string{"./variants"})
//	if err != nil {
//	    return err
//	}
//	if !plan.Allowed {
//	    // a policy violation with error or critical severity
//	}
package engine
