// Package graph defines the playbook graph model versioned by the engine.
//
// A playbook is a directed graph: nodes are workflow steps, edges are the
// transitions between them. The version-control core treats this model as
// plain data - node Config maps are opaque and compared structurally, never
// interpreted. Executor-specific denormalizations (for example a branching
// step caching its true/false successors inside Config) pass through the
// engine untouched.
package graph

import "slices"

// Step types for playbook nodes. The set is closed at the editor boundary;
// the version-control core never branches on these values.
const (
	TypeTrigger   = "trigger"
	TypeAction    = "action"
	TypeCondition = "condition"
	TypeBranch    = "branch"
	TypeWait      = "wait"
	TypeEnd       = "end"
)

// stepTypes lists all valid step types for boundary validation.
var stepTypes = []string{TypeTrigger, TypeAction, TypeCondition, TypeBranch, TypeWait, TypeEnd}

// KnownType reports whether t is one of the defined step types.
func KnownType(t string) bool { return slices.Contains(stepTypes, t) }

// Graph is the canonical serialization format for playbook graphs.
// Used for commit payloads, storage, caching, and the API boundary.
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges" bson:"edges"`
}

// Node is a single workflow step.
type Node struct {
	ID     string         `json:"id" yaml:"id" bson:"id"`
	Type   string         `json:"type" yaml:"type" bson:"type"`
	Label  string         `json:"label" yaml:"label" bson:"label"`
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty" bson:"config,omitempty"`
}

// Edge is a directed transition between two steps. An optional label
// disambiguates multiple outgoing edges from a branching step
// (e.g. "true"/"false").
//
// Edges are value objects identified by ID: any change to source, target or
// label of an existing edge ID is represented as remove+add by the diff
// engine, never as a modification.
type Edge struct {
	ID     string `json:"id" yaml:"id" bson:"id"`
	Source string `json:"source" yaml:"source" bson:"source"`
	Target string `json:"target" yaml:"target" bson:"target"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty" bson:"label,omitempty"`
}

// Node returns the node with the given ID and true, or a zero Node and false.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Edge returns the edge with the given ID and true, or a zero Edge and false.
func (g Graph) Edge(id string) (Edge, bool) {
	for _, e := range g.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return Edge{}, false
}

// NodeIndex builds an ID -> Node lookup map.
func (g Graph) NodeIndex() map[string]Node {
	m := make(map[string]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		m[n.ID] = n
	}
	return m
}

// EdgeIndex builds an ID -> Edge lookup map.
func (g Graph) EdgeIndex() map[string]Edge {
	m := make(map[string]Edge, len(g.Edges))
	for _, e := range g.Edges {
		m[e.ID] = e
	}
	return m
}

// Clone returns a deep copy of the graph. Node Config maps are copied
// recursively so mutations of the clone never leak into the original.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		out.Nodes[i] = n.Clone()
	}
	copy(out.Edges, g.Edges)
	return out
}

// Clone returns a deep copy of the node, including its Config map.
func (n Node) Clone() Node {
	out := n
	if n.Config != nil {
		out.Config = cloneValue(n.Config).(map[string]any)
	}
	return out
}

// cloneValue deep-copies the JSON-shaped value types that appear in Config
// maps: maps, slices, and scalars.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		s := make([]any, len(val))
		for i, e := range val {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}

// Sorted returns a copy of the graph with nodes and edges ordered by ID.
// Deterministic ordering keeps serialized snapshots and test output stable.
func (g Graph) Sorted() Graph {
	out := g.Clone()
	slices.SortFunc(out.Nodes, func(a, b Node) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	slices.SortFunc(out.Edges, func(a, b Edge) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	return out
}
