// Package diff computes structural deltas between playbook graph snapshots.
//
// Diffing is keyed by entity identity (node and edge IDs), not by position
// or text. Nodes present in both snapshots are compared field by field;
// edges are value objects, so a changed edge appears as remove+add under
// the same ID. The computation is pure and deterministic: results are
// sorted by entity ID and never depend on input ordering.
//
// Dangling edge references are not an error here. A diff describes what
// changed between two snapshots; whether the result is a well-formed
// playbook is the caller's concern.
package diff

import (
	"fmt"
	"maps"
	"slices"

	"github.com/branchline/branchline/pkg/graph"
)

// NodeChange describes a node present in both snapshots whose content
// differs. Changes holds human-readable field change strings, e.g.
// "label: 'A' -> 'B'".
type NodeChange struct {
	ID      string     `json:"id"`
	Changes []string   `json:"changes"`
	Before  graph.Node `json:"before"`
	After   graph.Node `json:"after"`
}

// Diff is the structural delta between a base and another graph snapshot.
// Added/Removed are relative to base: an entity in the other snapshot but
// not in base is added.
type Diff struct {
	AddedNodes    []graph.Node `json:"addedNodes"`
	RemovedNodes  []graph.Node `json:"removedNodes"`
	ModifiedNodes []NodeChange `json:"modifiedNodes"`
	AddedEdges    []graph.Edge `json:"addedEdges"`
	RemovedEdges  []graph.Edge `json:"removedEdges"`
}

// HasChanges reports whether any change list is non-empty.
func (d Diff) HasChanges() bool {
	return len(d.AddedNodes) > 0 ||
		len(d.RemovedNodes) > 0 ||
		len(d.ModifiedNodes) > 0 ||
		len(d.AddedEdges) > 0 ||
		len(d.RemovedEdges) > 0
}

// TouchesNode reports whether the diff adds, removes, or modifies the node.
func (d Diff) TouchesNode(id string) bool {
	for _, n := range d.AddedNodes {
		if n.ID == id {
			return true
		}
	}
	for _, n := range d.RemovedNodes {
		if n.ID == id {
			return true
		}
	}
	for _, m := range d.ModifiedNodes {
		if m.ID == id {
			return true
		}
	}
	return false
}

// TouchesEdge reports whether the diff adds or removes the edge.
func (d Diff) TouchesEdge(id string) bool {
	for _, e := range d.AddedEdges {
		if e.ID == id {
			return true
		}
	}
	for _, e := range d.RemovedEdges {
		if e.ID == id {
			return true
		}
	}
	return false
}

// TouchedNodeIDs returns the IDs of all nodes the diff touches, sorted.
func (d Diff) TouchedNodeIDs() []string {
	set := make(map[string]struct{})
	for _, n := range d.AddedNodes {
		set[n.ID] = struct{}{}
	}
	for _, n := range d.RemovedNodes {
		set[n.ID] = struct{}{}
	}
	for _, m := range d.ModifiedNodes {
		set[m.ID] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}

// TouchedEdgeIDs returns the IDs of all edges the diff touches, sorted.
func (d Diff) TouchedEdgeIDs() []string {
	set := make(map[string]struct{})
	for _, e := range d.AddedEdges {
		set[e.ID] = struct{}{}
	}
	for _, e := range d.RemovedEdges {
		set[e.ID] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}

// Between computes the structural delta from base to other.
//
// The result is symmetric up to added/removed inversion:
// Between(a, b).AddedNodes equals Between(b, a).RemovedNodes.
// Node configs are compared by deep structural equality with key-order
// independence; unknown config fields participate like any other value.
func Between(base, other graph.Graph) Diff {
	var d Diff

	baseNodes := base.NodeIndex()
	otherNodes := other.NodeIndex()

	for _, id := range slices.Sorted(maps.Keys(otherNodes)) {
		if _, ok := baseNodes[id]; !ok {
			d.AddedNodes = append(d.AddedNodes, otherNodes[id])
		}
	}
	for _, id := range slices.Sorted(maps.Keys(baseNodes)) {
		before := baseNodes[id]
		after, ok := otherNodes[id]
		if !ok {
			d.RemovedNodes = append(d.RemovedNodes, before)
			continue
		}
		if changes := nodeChanges(before, after); len(changes) > 0 {
			d.ModifiedNodes = append(d.ModifiedNodes, NodeChange{
				ID:      id,
				Changes: changes,
				Before:  before,
				After:   after,
			})
		}
	}

	baseEdges := base.EdgeIndex()
	otherEdges := other.EdgeIndex()

	for _, id := range slices.Sorted(maps.Keys(otherEdges)) {
		e := otherEdges[id]
		if prev, ok := baseEdges[id]; !ok {
			d.AddedEdges = append(d.AddedEdges, e)
		} else if !graph.EqualEdges(prev, e) {
			// Edges are immutable value objects: a change is remove+add.
			d.RemovedEdges = append(d.RemovedEdges, prev)
			d.AddedEdges = append(d.AddedEdges, e)
		}
	}
	for _, id := range slices.Sorted(maps.Keys(baseEdges)) {
		if _, ok := otherEdges[id]; !ok {
			d.RemovedEdges = append(d.RemovedEdges, baseEdges[id])
		}
	}

	// Changed edges land in RemovedEdges before removed-only ones; re-sort so
	// results are ID-ordered and symmetric with the swapped-argument diff.
	slices.SortFunc(d.RemovedEdges, func(a, b graph.Edge) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})

	return d
}

// nodeChanges compares two versions of the same node and returns
// human-readable change strings for every differing field.
func nodeChanges(before, after graph.Node) []string {
	var changes []string

	if before.Label != after.Label {
		changes = append(changes, fmt.Sprintf("label: '%s' -> '%s'", before.Label, after.Label))
	}
	if before.Type != after.Type {
		changes = append(changes, fmt.Sprintf("type: '%s' -> '%s'", before.Type, after.Type))
	}
	changes = append(changes, configChanges(before.Config, after.Config)...)

	return changes
}

// configChanges reports top-level config key differences. Nested values are
// compared structurally but reported at the top-level key granularity.
func configChanges(before, after map[string]any) []string {
	keys := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}

	var changes []string
	for _, k := range slices.Sorted(maps.Keys(keys)) {
		bv, inBefore := before[k]
		av, inAfter := after[k]
		switch {
		case !inBefore:
			changes = append(changes, fmt.Sprintf("config.%s: added '%v'", k, av))
		case !inAfter:
			changes = append(changes, fmt.Sprintf("config.%s: removed '%v'", k, bv))
		case !graph.EqualConfig(map[string]any{k: bv}, map[string]any{k: av}):
			changes = append(changes, fmt.Sprintf("config.%s: '%v' -> '%v'", k, bv, av))
		}
	}
	return changes
}
