package graph

import "errors"

var (
	// ErrEmptyNodeID is returned by [Graph.Validate] when a node has an
	// empty ID. All nodes must have non-empty identifiers.
	ErrEmptyNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.Validate] when two nodes
	// share an ID. Node IDs must be unique within a snapshot.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrEmptyEdgeID is returned by [Graph.Validate] when an edge has an
	// empty ID.
	ErrEmptyEdgeID = errors.New("edge ID must not be empty")

	// ErrDuplicateEdgeID is returned by [Graph.Validate] when two edges
	// share an ID.
	ErrDuplicateEdgeID = errors.New("duplicate edge ID")

	// ErrDanglingEdge is returned by [Graph.Validate] when an edge
	// references a node that doesn't exist in the same snapshot.
	ErrDanglingEdge = errors.New("edge endpoint references missing node")
)

// Validate checks snapshot integrity: non-empty unique IDs and edge
// endpoints that resolve within the same snapshot.
//
// Validation applies at the io boundary only. Commits are structurally
// unconstrained - the diff engine reports dangling references that appear
// across snapshots as results, not errors - so callers decide whether an
// invalid graph may still be committed.
func (g Graph) Validate() error {
	nodeIDs := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return ErrEmptyNodeID
		}
		if _, dup := nodeIDs[n.ID]; dup {
			return ErrDuplicateNodeID
		}
		nodeIDs[n.ID] = struct{}{}
	}

	edgeIDs := make(map[string]struct{}, len(g.Edges))
	for _, e := range g.Edges {
		if e.ID == "" {
			return ErrEmptyEdgeID
		}
		if _, dup := edgeIDs[e.ID]; dup {
			return ErrDuplicateEdgeID
		}
		edgeIDs[e.ID] = struct{}{}

		if _, ok := nodeIDs[e.Source]; !ok {
			return ErrDanglingEdge
		}
		if _, ok := nodeIDs[e.Target]; !ok {
			return ErrDanglingEdge
		}
	}

	return nil
}
