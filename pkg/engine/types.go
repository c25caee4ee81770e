package engine

import (
	"time"

	"github.com/openfroyo/variantspace/pkg/variant"
)

// Workspace is the evaluated set of component declarations.
type Workspace struct {
	// Name is the workspace name, if declared.
	Name string `json:"name,omitempty"`

	// Sources are the declaration files the workspace was loaded from.
	Sources []string `json:"sources"`

	// Components are the declared components in declaration order.
	Components []ComponentSpec `json:"components"`

	// MaxVariants overrides the policy variant limit when non-zero.
	MaxVariants int `json:"max_variants,omitempty"`

	// LoadedAt is when the workspace was evaluated.
	LoadedAt time.Time `json:"loaded_at"`
}

// Component returns the component named name.
func (w *Workspace) Component(name string) (*ComponentSpec, bool) {
	for i := range w.Components {
		if w.Components[i].Name == name {
			return &w.Components[i], true
		}
	}
	return nil, false
}

// ComponentSpec is one component with its dimension declarations bound to
// candidate values.
type ComponentSpec struct {
	// Name is the component name.
	Name string `json:"name"`

	// Description is a free-form description.
	Description string `json:"description,omitempty"`

	// Source is the file the component was declared in.
	Source string `json:"source,omitempty"`

	// Dimensions are the axis declarations in declaration order.
	Dimensions []variant.Declaration `json:"-"`
}

// Plan is the resolved build variants of a workspace.
type Plan struct {
	// ID is the unique identifier for this plan.
	ID string `json:"id"`

	// CreatedAt is when the plan was created.
	CreatedAt time.Time `json:"created_at"`

	// Sources are the declaration files the plan was resolved from.
	Sources []string `json:"sources"`

	// Components are the per-component results in declaration order.
	Components []ComponentPlan `json:"components"`

	// Summary provides high-level statistics about the plan.
	Summary PlanSummary `json:"summary"`

	// Warnings are non-fatal findings such as circular constraints.
	Warnings []string `json:"warnings,omitempty"`

	// Allowed is false when any policy violation has error or critical severity.
	Allowed bool `json:"allowed"`
}

// Component returns the component plan named name.
func (p *Plan) Component(name string) (*ComponentPlan, bool) {
	for i := range p.Components {
		if p.Components[i].Name == name {
			return &p.Components[i], true
		}
	}
	return nil, false
}

// PlanSummary provides statistics about a plan.
type PlanSummary struct {
	// Components is the number of resolved components.
	Components int `json:"components"`

	// Axes is the total number of registered axes.
	Axes int `json:"axes"`

	// SpaceSize is the total number of generated tuples, before filtering.
	SpaceSize int `json:"space_size"`

	// Variants is the number of variants kept.
	Variants int `json:"variants"`

	// Excluded is the number of variants rejected by filters.
	Excluded int `json:"excluded"`

	// Violations is the number of policy violations.
	Violations int `json:"violations"`
}

// ComponentPlan is the resolution of one component.
type ComponentPlan struct {
	// Name is the component name.
	Name string `json:"name"`

	// Axes are the registered axis ids in registration order.
	Axes []string `json:"axes"`

	// Basis are the axes whose coordinates vary across the space.
	Basis []string `json:"basis,omitempty"`

	// SpaceSize is the number of generated tuples.
	SpaceSize int `json:"space_size"`

	// Variants are the kept variants in space order.
	Variants []VariantPlan `json:"variants"`

	// Excluded are the variants rejected by at least one filter.
	Excluded []VariantPlan `json:"excluded,omitempty"`

	// Filters describe the registered filters.
	Filters []string `json:"filters,omitempty"`

	// Policy is the policy result for the component, if evaluated.
	Policy *PolicyResult `json:"policy,omitempty"`

	// Graph is the axis constraint graph.
	Graph *ConstraintGraph `json:"graph,omitempty"`
}

// VariantPlan is the serializable view of a build variant.
type VariantPlan struct {
	// Name is the unambiguous lower-camel name. Empty for the default variant.
	Name string `json:"name"`

	// FullName is the lower-camel name of every named value.
	FullName string `json:"full_name"`

	// Key is the canonical identity of the coordinate tuple.
	Key string `json:"key"`

	// Dimensions are the labels of every axis with a non-empty value name.
	Dimensions []string `json:"dimensions"`

	// AmbiguousDimensions are the dimensions that distinguish the variant
	// from its siblings.
	AmbiguousDimensions []string `json:"ambiguous_dimensions"`

	// Coordinates are the variant's coordinates in axis order.
	Coordinates []CoordinateView `json:"coordinates"`
}

// CoordinateView is the serializable view of a coordinate.
type CoordinateView struct {
	// Axis is the axis id.
	Axis string `json:"axis"`

	// Value is the value name. Empty for absent coordinates.
	Value string `json:"value"`

	// Absent marks the absent coordinate.
	Absent bool `json:"absent,omitempty"`
}

// NewVariantPlan builds the serializable view of v.
func NewVariantPlan(v variant.BuildVariant) VariantPlan {
	vp := VariantPlan{
		Name:                v.Name(),
		FullName:            v.FullName(),
		Key:                 v.Key(),
		Dimensions:          []string(v.AllDimensions()),
		AmbiguousDimensions: []string(v.AmbiguousDimensions()),
	}
	if vp.Dimensions == nil {
		vp.Dimensions = []string{}
	}
	if vp.AmbiguousDimensions == nil {
		vp.AmbiguousDimensions = []string{}
	}
	for _, c := range v.All() {
		vp.Coordinates = append(vp.Coordinates, CoordinateView{
			Axis:   c.Axis().ID(),
			Value:  c.Name(),
			Absent: c.IsAbsent(),
		})
	}
	return vp
}

// ConstraintGraph relates the axes of a component through their filters.
// An edge runs from the conditioning axis to the constrained axis.
type ConstraintGraph struct {
	// Nodes maps axis ids to their graph nodes.
	Nodes map[string]*GraphNode `json:"nodes"`

	// Edges lists all constraint edges in the graph.
	Edges []GraphEdge `json:"edges"`

	// Roots are the axes constrained by no other axis.
	Roots []string `json:"roots"`

	// Levels groups axis ids by topological depth.
	Levels [][]string `json:"levels,omitempty"`

	// Cycle is the first circular constraint found, if any.
	Cycle []string `json:"cycle,omitempty"`
}

// GraphNode is an axis in the constraint graph.
type GraphNode struct {
	// ID is the axis id.
	ID string `json:"id"`

	// Level is the topological level. Zero for roots and for nodes on a cycle.
	Level int `json:"level"`

	// Dependencies are the axes constraining this axis.
	Dependencies []string `json:"dependencies"`

	// Dependents are the axes this axis constrains.
	Dependents []string `json:"dependents"`
}

// GraphEdge is a filter relating two axes.
type GraphEdge struct {
	// From is the conditioning axis id.
	From string `json:"from"`

	// To is the constrained axis id.
	To string `json:"to"`

	// Filter describes the filter.
	Filter string `json:"filter"`
}
