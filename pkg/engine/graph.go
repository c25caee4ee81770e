package engine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/openfroyo/variantspace/pkg/variant"
)

// GraphBuilder builds the axis constraint graph of a component. Every
// filter relating two axes becomes an edge from the conditioning axis to
// the constrained axis.
type GraphBuilder struct {
	// order lists axis ids in registration order
	order []string

	// adjacencyList maps axis ids to the axes they constrain
	adjacencyList map[string][]string

	// reverseAdjacencyList maps axis ids to the axes constraining them
	reverseAdjacencyList map[string][]string

	// inDegree tracks the number of incoming edges for each node
	inDegree map[string]int

	edges  []GraphEdge
	levels [][]string
	cycle  []string
}

// NewGraphBuilder creates a new graph builder.
func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{
		adjacencyList:        make(map[string][]string),
		reverseAdjacencyList: make(map[string][]string),
		inDegree:             make(map[string]int),
	}
}

// BuildGraph constructs the constraint graph for axes and filters. Filters
// that do not relate two axes are ignored. When the filters form a cycle
// the graph is returned together with a CIRCULAR_CONSTRAINT error.
func (b *GraphBuilder) BuildGraph(axes []variant.AnyAxis, filters []variant.Filter) (*ConstraintGraph, error) {
	if err := b.initialize(axes, filters); err != nil {
		return nil, err
	}

	b.cycle = b.detectCycle()
	b.computeLevels()

	graph := b.buildConstraintGraph()
	if len(b.cycle) > 0 {
		return graph, NewConfigurationError(
			fmt.Sprintf("circular constraint detected: %s", formatCycle(b.cycle)),
			nil,
		).WithCode(ErrCodeCircularConstraint).WithDetail("cycle", b.cycle)
	}
	return graph, nil
}

// initialize sets up the internal data structures.
func (b *GraphBuilder) initialize(axes []variant.AnyAxis, filters []variant.Filter) error {
	for _, axis := range axes {
		id := axis.ID()
		if _, exists := b.inDegree[id]; exists {
			return NewConfigurationError(fmt.Sprintf("duplicate axis: %s", id), nil).
				WithCode(ErrCodeDuplicateAxis)
		}
		b.order = append(b.order, id)
		b.adjacencyList[id] = make([]string, 0)
		b.reverseAdjacencyList[id] = make([]string, 0)
		b.inDegree[id] = 0
	}

	for _, f := range filters {
		dep, ok := f.(variant.Dependent)
		if !ok {
			continue
		}
		from, to := dep.Dependency()

		for _, id := range []string{from, to} {
			if _, exists := b.inDegree[id]; !exists {
				return NewConfigurationError(
					fmt.Sprintf("filter %q references unknown axis %s", f.String(), id),
					nil,
				).WithCode(ErrCodeNotFound)
			}
		}

		b.edges = append(b.edges, GraphEdge{From: from, To: to, Filter: f.String()})
		if slices.Contains(b.adjacencyList[from], to) {
			continue
		}
		b.adjacencyList[from] = append(b.adjacencyList[from], to)
		b.reverseAdjacencyList[to] = append(b.reverseAdjacencyList[to], from)
		b.inDegree[to]++
	}

	return nil
}

// detectCycle uses depth-first search and returns the first cycle found.
func (b *GraphBuilder) detectCycle() []string {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	for _, id := range b.order {
		if !visited[id] {
			if cycle := b.detectCycleUtil(id, visited, recStack, nil); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

func (b *GraphBuilder) detectCycleUtil(
	nodeID string,
	visited map[string]bool,
	recStack map[string]bool,
	path []string,
) []string {
	visited[nodeID] = true
	recStack[nodeID] = true
	path = append(path, nodeID)

	for _, dependent := range b.adjacencyList[nodeID] {
		if !visited[dependent] {
			if cycle := b.detectCycleUtil(dependent, visited, recStack, path); cycle != nil {
				return cycle
			}
		} else if recStack[dependent] {
			start := slices.Index(path, dependent)
			if start >= 0 {
				return append(slices.Clone(path[start:]), dependent)
			}
		}
	}

	recStack[nodeID] = false
	return nil
}

// computeLevels assigns levels with Kahn's algorithm. Nodes on or behind a
// cycle are left out of the levels.
func (b *GraphBuilder) computeLevels() {
	inDegree := make(map[string]int, len(b.inDegree))
	for id, degree := range b.inDegree {
		inDegree[id] = degree
	}

	current := make([]string, 0)
	for _, id := range b.order {
		if inDegree[id] == 0 {
			current = append(current, id)
		}
	}

	for len(current) > 0 {
		b.levels = append(b.levels, current)

		next := make([]string, 0)
		for _, id := range current {
			for _, dependent := range b.adjacencyList[id] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		current = next
	}
}

func (b *GraphBuilder) buildConstraintGraph() *ConstraintGraph {
	graph := &ConstraintGraph{
		Nodes:  make(map[string]*GraphNode, len(b.order)),
		Edges:  slices.Clone(b.edges),
		Roots:  make([]string, 0),
		Levels: b.levels,
		Cycle:  b.cycle,
	}
	if graph.Edges == nil {
		graph.Edges = make([]GraphEdge, 0)
	}

	for _, id := range b.order {
		graph.Nodes[id] = &GraphNode{
			ID:           id,
			Dependencies: b.reverseAdjacencyList[id],
			Dependents:   b.adjacencyList[id],
		}
	}
	for level, ids := range b.levels {
		for _, id := range ids {
			graph.Nodes[id].Level = level
			if level == 0 {
				graph.Roots = append(graph.Roots, id)
			}
		}
	}

	return graph
}

// GetLevels returns the computed levels.
func (b *GraphBuilder) GetLevels() [][]string {
	return b.levels
}

// ToDOT renders the graph in DOT format, grouping axes by level. Axes on a
// cycle are drawn outside the level clusters in red.
func (g *ConstraintGraph) ToDOT(component string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "digraph %q {\n", component)
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box, style=rounded];\n\n")

	placed := make(map[string]bool)
	for level, ids := range g.Levels {
		fmt.Fprintf(&sb, "  subgraph cluster_level_%d {\n", level)
		fmt.Fprintf(&sb, "    label=\"Level %d\";\n", level)
		sb.WriteString("    style=dashed;\n")
		for _, id := range ids {
			fmt.Fprintf(&sb, "    %q;\n", id)
			placed[id] = true
		}
		sb.WriteString("  }\n\n")
	}

	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		if !placed[id] {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	for _, id := range ids {
		fmt.Fprintf(&sb, "  %q [color=red];\n", id)
	}

	for _, edge := range g.Edges {
		fmt.Fprintf(&sb, "  %q -> %q [label=%q, %s];\n",
			edge.From, edge.To, edge.Filter, getFilterStyle(edge.Filter))
	}

	sb.WriteString("}\n")
	return sb.String()
}

// Validate checks that every edge references a node of the graph.
func (g *ConstraintGraph) Validate() error {
	for _, edge := range g.Edges {
		if _, exists := g.Nodes[edge.From]; !exists {
			return NewInternalError(fmt.Sprintf("edge references non-existent node: %s", edge.From), nil)
		}
		if _, exists := g.Nodes[edge.To]; !exists {
			return NewInternalError(fmt.Sprintf("edge references non-existent node: %s", edge.To), nil)
		}
	}

	for _, rootID := range g.Roots {
		if len(g.Nodes[rootID].Dependencies) > 0 {
			return NewInternalError(fmt.Sprintf("root node %s has dependencies", rootID), nil)
		}
	}

	return nil
}

// formatCycle formats a cycle path for error messages.
func formatCycle(cycle []string) string {
	return strings.Join(cycle, " -> ")
}

// getFilterStyle returns a DOT style string for a filter description.
func getFilterStyle(description string) string {
	switch {
	case strings.Contains(description, " only on "):
		return "style=solid, color=black"
	case strings.Contains(description, " except on "):
		return "style=dashed, color=blue"
	default:
		return "style=dotted, color=gray"
	}
}
