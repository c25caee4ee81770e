package policy

import (
	"time"
)

// DefaultMaxVariants is the variant limit used when none is configured.
const DefaultMaxVariants = 64

// GetBuiltinPolicies returns all built-in policies.
func GetBuiltinPolicies() []Policy {
	return []Policy{
		variantLimitPolicy(),
		uniqueNamesPolicy(),
		defaultDimensionsPolicy(),
		nonEmptyPolicy(),
	}
}

// variantLimitPolicy caps the number of variants per component.
func variantLimitPolicy() Policy {
	return Policy{
		Name:        "variants.limit",
		Description: "Caps the number of build variants a component may resolve to",
		Severity:    SeverityError,
		Enabled:     true,
		Builtin:     true,
		Tags:        []string{"size"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package variantspace.policies.limit

import rego.v1

deny contains violation if {
	limit := object.get(input.context, "max_variants", 64)
	limit > 0
	n := count(input.component.variants)
	n > limit
	violation := {
		"message": sprintf("component %s resolves to %d variants, more than the limit of %d", [input.component.name, n, limit]),
		"severity": "error",
	}
}
`,
	}
}

// uniqueNamesPolicy forbids two variants sharing an unambiguous name.
func uniqueNamesPolicy() Policy {
	return Policy{
		Name:        "variants.unique-names",
		Description: "Forbids two variants of a component with the same unambiguous name",
		Severity:    SeverityError,
		Enabled:     true,
		Builtin:     true,
		Tags:        []string{"naming"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package variantspace.policies.names

import rego.v1

deny contains violation if {
	some i, j
	a := input.component.variants[i]
	b := input.component.variants[j]
	i < j
	a.name == b.name
	violation := {
		"message": sprintf("variants %s and %s of component %s share the name '%s'", [a.key, b.key, input.component.name, a.name]),
		"severity": "error",
	}
}
`,
	}
}

// defaultDimensionsPolicy warns about components whose declared axes never vary.
func defaultDimensionsPolicy() Policy {
	return Policy{
		Name:        "variants.default-dimensions",
		Description: "Warns when a component declares dimensions but none of them varies",
		Severity:    SeverityWarning,
		Enabled:     true,
		Builtin:     true,
		Tags:        []string{"naming"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package variantspace.policies.dimensions

import rego.v1

deny contains violation if {
	count(input.component.axes) > 0
	count(input.component.basis) == 0
	violation := {
		"message": sprintf("component %s declares %d dimensions but none of them varies", [input.component.name, count(input.component.axes)]),
		"severity": "warning",
	}
}
`,
	}
}

// nonEmptyPolicy rejects components whose filters exclude every variant.
func nonEmptyPolicy() Policy {
	return Policy{
		Name:        "variants.non-empty",
		Description: "Rejects components whose filters exclude every variant",
		Severity:    SeverityError,
		Enabled:     true,
		Builtin:     true,
		Tags:        []string{"filters"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package variantspace.policies.nonempty

import rego.v1

deny contains violation if {
	input.component.space_size > 0
	count(input.component.variants) == 0
	violation := {
		"message": sprintf("filters of component %s exclude all %d variants", [input.component.name, input.component.space_size]),
		"severity": "error",
	}
}
`,
	}
}
