package vcs

import (
	"fmt"
	"maps"
	"slices"

	"github.com/branchline/branchline/pkg/diff"
	"github.com/branchline/branchline/pkg/errors"
	"github.com/branchline/branchline/pkg/graph"
)

// ConflictKind classifies a merge conflict by the more destructive of the
// two sides' operations: Delete > Modify > Add.
type ConflictKind int

const (
	// KindAdd means both sides added the entity with differing content.
	KindAdd ConflictKind = iota
	// KindModify means at least one side modified the entity and the
	// resulting contents differ.
	KindModify
	// KindDelete means one side deleted the entity while the other added
	// or modified it. Never silently resolved as delete.
	KindDelete
)

// String returns the kind name used in conflict listings.
func (k ConflictKind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindModify:
		return "modify"
	case KindDelete:
		return "delete"
	default:
		return fmt.Sprintf("ConflictKind(%d)", int(k))
	}
}

// EntitySnapshot is one side's view of a conflicted entity. Deleted marks
// an entity the side removed; otherwise exactly one of Node/Edge is set.
type EntitySnapshot struct {
	Node    *graph.Node `json:"node,omitempty"`
	Edge    *graph.Edge `json:"edge,omitempty"`
	Deleted bool        `json:"deleted,omitempty"`
}

// Conflict is an entity changed incompatibly on both sides of a merge.
// Exactly one of NodeID/EdgeID is set; the pair is the canonical conflict
// key (a tagged union, not a string, so node and edge IDs can never
// collide). Conflicts are produced transiently and not persisted.
type Conflict struct {
	NodeID string         `json:"nodeId,omitempty"`
	EdgeID string         `json:"edgeId,omitempty"`
	Kind   ConflictKind   `json:"kind"`
	Ours   EntitySnapshot `json:"ours"`
	Theirs EntitySnapshot `json:"theirs"`
}

// Key renders the transport form of the conflict key: "node:<id>" or
// "edge:<id>". The tagged fields remain the canonical identity.
func (c Conflict) Key() string {
	if c.NodeID != "" {
		return "node:" + c.NodeID
	}
	return "edge:" + c.EdgeID
}

// Choice selects which side of a conflict survives.
type Choice string

const (
	// ChoiceOurs keeps the merge target's version.
	ChoiceOurs Choice = "ours"
	// ChoiceTheirs keeps the merge source's version.
	ChoiceTheirs Choice = "theirs"
)

// Resolution resolves a single conflict. Exactly one of NodeID/EdgeID must
// be set, matching the conflict it covers.
type Resolution struct {
	NodeID string `json:"nodeId,omitempty"`
	EdgeID string `json:"edgeId,omitempty"`
	Choice Choice `json:"choice"`
}

// key returns the internal lookup key for the resolution.
func (r Resolution) key() string {
	if r.NodeID != "" {
		return "node:" + r.NodeID
	}
	return "edge:" + r.EdgeID
}

// ThreeWay merges two divergent graph snapshots against their common
// ancestor.
//
// Entities touched by only one side apply unconditionally. Entities touched
// by both sides auto-resolve when the resulting content is identical (both
// sides made the same change, including both deleting); otherwise they
// conflict and must be covered by a resolution. When any conflict is left
// unresolved, ThreeWay returns the full conflict list and no graph - the
// merge is all-or-nothing.
//
// The returned conflicts are ordered nodes first, then edges, each by ID.
func ThreeWay(ancestor, ours, theirs graph.Graph, resolutions []Resolution) (graph.Graph, []Conflict, error) {
	index, err := indexResolutions(resolutions)
	if err != nil {
		return graph.Graph{}, nil, err
	}

	oursDiff := diff.Between(ancestor, ours)
	theirsDiff := diff.Between(ancestor, theirs)

	mergedNodes := maps.Clone(ancestor.NodeIndex())
	mergedEdges := maps.Clone(ancestor.EdgeIndex())

	var conflicts []Conflict
	var deferred []func()

	nodeIDs := unionIDs(oursDiff.TouchedNodeIDs(), theirsDiff.TouchedNodeIDs())
	for _, id := range nodeIDs {
		oursTouched := oursDiff.TouchesNode(id)
		theirsTouched := theirsDiff.TouchesNode(id)
		oursNode, inOurs := ours.Node(id)
		theirsNode, inTheirs := theirs.Node(id)

		switch {
		case oursTouched && !theirsTouched:
			applyNode(mergedNodes, id, oursNode, inOurs)
		case theirsTouched && !oursTouched:
			applyNode(mergedNodes, id, theirsNode, inTheirs)
		default:
			// Both sides touched the node.
			if sameNodeState(oursNode, inOurs, theirsNode, inTheirs) {
				applyNode(mergedNodes, id, oursNode, inOurs)
				continue
			}
			c := Conflict{
				NodeID: id,
				Kind:   nodeConflictKind(ancestor, id, inOurs, inTheirs),
				Ours:   nodeSnapshot(oursNode, inOurs),
				Theirs: nodeSnapshot(theirsNode, inTheirs),
			}
			conflicts = append(conflicts, c)

			if res, ok := index[c.Key()]; ok {
				node, present := theirsNode, inTheirs
				if res == ChoiceOurs {
					node, present = oursNode, inOurs
				}
				// Defer application so an uncovered later conflict still
				// aborts without partial effects.
				deferred = append(deferred, func() { applyNode(mergedNodes, id, node, present) })
				delete(index, c.Key())
			}
		}
	}

	edgeIDs := unionIDs(oursDiff.TouchedEdgeIDs(), theirsDiff.TouchedEdgeIDs())
	for _, id := range edgeIDs {
		oursTouched := oursDiff.TouchesEdge(id)
		theirsTouched := theirsDiff.TouchesEdge(id)
		oursEdge, inOurs := ours.Edge(id)
		theirsEdge, inTheirs := theirs.Edge(id)

		switch {
		case oursTouched && !theirsTouched:
			applyEdge(mergedEdges, id, oursEdge, inOurs)
		case theirsTouched && !oursTouched:
			applyEdge(mergedEdges, id, theirsEdge, inTheirs)
		default:
			if sameEdgeState(oursEdge, inOurs, theirsEdge, inTheirs) {
				applyEdge(mergedEdges, id, oursEdge, inOurs)
				continue
			}
			c := Conflict{
				EdgeID: id,
				Kind:   edgeConflictKind(ancestor, id, inOurs, inTheirs),
				Ours:   edgeSnapshot(oursEdge, inOurs),
				Theirs: edgeSnapshot(theirsEdge, inTheirs),
			}
			conflicts = append(conflicts, c)

			if res, ok := index[c.Key()]; ok {
				edge, present := theirsEdge, inTheirs
				if res == ChoiceOurs {
					edge, present = oursEdge, inOurs
				}
				deferred = append(deferred, func() { applyEdge(mergedEdges, id, edge, present) })
				delete(index, c.Key())
			}
		}
	}

	// Resolutions that matched no conflict are caller mistakes, likely a
	// typo in an entity ID. Reject rather than ignore.
	if len(index) > 0 {
		keys := slices.Sorted(maps.Keys(index))
		return graph.Graph{}, nil, errors.New(errors.ErrCodeInvalidResolution,
			"resolution does not match any conflict: %s", keys[0])
	}

	uncovered := len(conflicts) - len(deferred)
	if uncovered > 0 {
		return graph.Graph{}, conflicts, nil
	}

	for _, apply := range deferred {
		apply()
	}

	merged := graph.Graph{
		Nodes: slices.Collect(maps.Values(mergedNodes)),
		Edges: slices.Collect(maps.Values(mergedEdges)),
	}
	return merged.Sorted(), nil, nil
}

// indexResolutions validates resolutions and builds a key -> choice map.
func indexResolutions(resolutions []Resolution) (map[string]Choice, error) {
	index := make(map[string]Choice, len(resolutions))
	for _, r := range resolutions {
		if (r.NodeID == "") == (r.EdgeID == "") {
			return nil, errors.New(errors.ErrCodeInvalidResolution,
				"resolution must reference exactly one of node or edge")
		}
		if r.Choice != ChoiceOurs && r.Choice != ChoiceTheirs {
			return nil, errors.New(errors.ErrCodeInvalidResolution,
				"resolution choice must be %q or %q, got %q", ChoiceOurs, ChoiceTheirs, r.Choice)
		}
		if _, dup := index[r.key()]; dup {
			return nil, errors.New(errors.ErrCodeInvalidResolution,
				"duplicate resolution for %s", r.key())
		}
		index[r.key()] = r.Choice
	}
	return index, nil
}

func unionIDs(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		set[id] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}

func applyNode(nodes map[string]graph.Node, id string, n graph.Node, present bool) {
	if present {
		nodes[id] = n
	} else {
		delete(nodes, id)
	}
}

func applyEdge(edges map[string]graph.Edge, id string, e graph.Edge, present bool) {
	if present {
		edges[id] = e
	} else {
		delete(edges, id)
	}
}

// sameNodeState reports whether both sides arrived at identical content,
// counting two deletions as identical.
func sameNodeState(a graph.Node, inA bool, b graph.Node, inB bool) bool {
	if inA != inB {
		return false
	}
	if !inA {
		return true
	}
	return graph.EqualNodes(a, b)
}

func sameEdgeState(a graph.Edge, inA bool, b graph.Edge, inB bool) bool {
	if inA != inB {
		return false
	}
	if !inA {
		return true
	}
	return graph.EqualEdges(a, b)
}

// nodeConflictKind ranks the conflict by the more destructive side:
// Delete > Modify > Add.
func nodeConflictKind(ancestor graph.Graph, id string, inOurs, inTheirs bool) ConflictKind {
	if !inOurs || !inTheirs {
		return KindDelete
	}
	if _, inAncestor := ancestor.Node(id); inAncestor {
		return KindModify
	}
	return KindAdd
}

func edgeConflictKind(ancestor graph.Graph, id string, inOurs, inTheirs bool) ConflictKind {
	if !inOurs || !inTheirs {
		return KindDelete
	}
	if _, inAncestor := ancestor.Edge(id); inAncestor {
		return KindModify
	}
	return KindAdd
}

func nodeSnapshot(n graph.Node, present bool) EntitySnapshot {
	if !present {
		return EntitySnapshot{Deleted: true}
	}
	node := n.Clone()
	return EntitySnapshot{Node: &node}
}

func edgeSnapshot(e graph.Edge, present bool) EntitySnapshot {
	if !present {
		return EntitySnapshot{Deleted: true}
	}
	edge := e
	return EntitySnapshot{Edge: &edge}
}
