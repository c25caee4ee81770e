package policy

import (
	"time"

	"github.com/openfroyo/variantspace/pkg/engine"
)

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = "info"

	// SeverityWarning is for findings that should be reviewed.
	SeverityWarning Severity = "warning"

	// SeverityError is for violations that reject the plan.
	SeverityError Severity = "error"

	// SeverityCritical is for violations that must be addressed immediately.
	SeverityCritical Severity = "critical"
)

// Policy represents a policy rule with its Rego code.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code.
	Rego string `json:"rego"`

	// Severity is the default severity for violations.
	Severity Severity `json:"severity"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled"`

	// Builtin marks the policies shipped with the engine.
	Builtin bool `json:"builtin,omitempty"`

	// Tags are labels for organizing policies.
	Tags []string `json:"tags,omitempty"`

	// Metadata contains additional policy metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// CreatedAt is when the policy was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the policy was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// PolicyInput is the document bound to input during evaluation.
type PolicyInput struct {
	// Component is the resolved component being evaluated.
	Component *ComponentInput `json:"component"`

	// Context provides additional evaluation context.
	Context *PolicyContext `json:"context"`
}

// ComponentInput is the policy view of a resolved component.
type ComponentInput struct {
	// Name is the component name.
	Name string `json:"name"`

	// Axes are the registered axis ids.
	Axes []string `json:"axes"`

	// Basis are the axes that vary across the space.
	Basis []string `json:"basis"`

	// SpaceSize is the number of generated tuples.
	SpaceSize int `json:"space_size"`

	// Variants are the kept variants.
	Variants []engine.VariantPlan `json:"variants"`

	// Excluded is the number of variants rejected by filters.
	Excluded int `json:"excluded"`

	// Filters describe the registered filters.
	Filters []string `json:"filters"`
}

// NewComponentInput builds the policy view of a component plan.
func NewComponentInput(cp *engine.ComponentPlan) *ComponentInput {
	in := &ComponentInput{
		Name:      cp.Name,
		Axes:      cp.Axes,
		Basis:     cp.Basis,
		SpaceSize: cp.SpaceSize,
		Variants:  cp.Variants,
		Excluded:  len(cp.Excluded),
		Filters:   cp.Filters,
	}
	if in.Axes == nil {
		in.Axes = []string{}
	}
	if in.Basis == nil {
		in.Basis = []string{}
	}
	if in.Variants == nil {
		in.Variants = []engine.VariantPlan{}
	}
	if in.Filters == nil {
		in.Filters = []string{}
	}
	return in
}

// PolicyContext provides context information for policy evaluation.
type PolicyContext struct {
	// Timestamp is when the evaluation is occurring.
	Timestamp time.Time `json:"timestamp"`

	// Operation is the command being run (validate, plan, watch).
	Operation string `json:"operation,omitempty"`

	// MaxVariants is the variant limit enforced by variants.limit.
	MaxVariants int `json:"max_variants"`

	// Metadata contains additional context metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
