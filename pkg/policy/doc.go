// Package policy enforces Open Policy Agent (OPA) policies on resolved
// components.
//
// Every policy is a Rego module with a deny rule. The engine binds the
// resolved component to input.component and collects the deny set as
// violations. Violations with error or critical severity reject the
// component; warnings are reported on the plan.
//
// # Usage
//
//	eng, err := policy.NewEngine(logger, policy.WithMaxVariants(32))
//	if err != nil {
//	    return err
//	}
//	result, err := eng.EvaluateComponent(ctx, componentPlan)
//
// # Built-in Policies
//
//   - variants.limit: caps the number of variants per component
//   - variants.unique-names: forbids two variants with the same name
//   - variants.default-dimensions: warns when no declared dimension varies
//   - variants.non-empty: rejects components whose filters exclude everything
//
// # Custom Policies
//
// Custom policies are loaded from .rego files or JSON bundles:
//
//	# Forbids the legacy toolchain
//	# severity: error
//	package custom.toolchain
//
//	import rego.v1
//
//	deny contains msg if {
//	    some v in input.component.variants
//	    contains(v.name, "legacy")
//	    msg := sprintf("variant %s uses the legacy toolchain", [v.name])
//	}
//
// The loader watches policy directories with fsnotify and hands the
// reloaded set to Engine.ReplacePolicies.
package policy
