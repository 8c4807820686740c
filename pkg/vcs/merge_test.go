package vcs

import (
	"testing"

	"github.com/branchline/branchline/pkg/errors"
	"github.com/branchline/branchline/pkg/graph"
)

func baseGraph() graph.Graph {
	return graph.Graph{
		Nodes: []graph.Node{
			{ID: "start", Type: graph.TypeTrigger, Label: "Start"},
			{ID: "task", Type: graph.TypeAction, Label: "Task", Config: map[string]any{"retries": 3}},
			{ID: "end", Type: graph.TypeEnd, Label: "End"},
		},
		Edges: []graph.Edge{
			{ID: "e1", Source: "start", Target: "task"},
			{ID: "e2", Source: "task", Target: "end"},
		},
	}
}

func relabel(g graph.Graph, nodeID, label string) graph.Graph {
	out := g.Clone()
	for i := range out.Nodes {
		if out.Nodes[i].ID == nodeID {
			out.Nodes[i].Label = label
		}
	}
	return out
}

func dropNode(g graph.Graph, nodeID string) graph.Graph {
	out := g.Clone()
	var nodes []graph.Node
	for _, n := range out.Nodes {
		if n.ID != nodeID {
			nodes = append(nodes, n)
		}
	}
	out.Nodes = nodes
	return out
}

func addNode(g graph.Graph, n graph.Node) graph.Graph {
	out := g.Clone()
	out.Nodes = append(out.Nodes, n)
	return out
}

func TestThreeWayNoConflicts(t *testing.T) {
	t.Run("identical sides produce the ancestor", func(t *testing.T) {
		base := baseGraph()
		merged, conflicts, err := ThreeWay(base, base.Clone(), base.Clone(), nil)
		if err != nil {
			t.Fatalf("ThreeWay error: %v", err)
		}
		if len(conflicts) != 0 {
			t.Fatalf("conflicts = %v, want none", conflicts)
		}
		if len(merged.Nodes) != 3 || len(merged.Edges) != 2 {
			t.Errorf("merged has %d nodes %d edges, want 3 and 2", len(merged.Nodes), len(merged.Edges))
		}
	})

	t.Run("one-side changes apply unconditionally", func(t *testing.T) {
		base := baseGraph()
		ours := relabel(base, "task", "Renamed")
		theirs := addNode(base, graph.Node{ID: "notify", Type: graph.TypeAction, Label: "Notify"})

		merged, conflicts, err := ThreeWay(base, ours, theirs, nil)
		if err != nil {
			t.Fatalf("ThreeWay error: %v", err)
		}
		if len(conflicts) != 0 {
			t.Fatalf("conflicts = %v, want none", conflicts)
		}
		task, _ := merged.Node("task")
		if task.Label != "Renamed" {
			t.Errorf("task label = %q, want Renamed", task.Label)
		}
		if _, ok := merged.Node("notify"); !ok {
			t.Error("their added node missing from merge")
		}
	})

	t.Run("identical change on both sides auto-resolves", func(t *testing.T) {
		base := baseGraph()
		n := graph.Node{ID: "notify", Type: graph.TypeAction, Label: "Notify", Config: map[string]any{"channel": "ops"}}
		merged, conflicts, err := ThreeWay(base, addNode(base, n), addNode(base, n), nil)
		if err != nil {
			t.Fatalf("ThreeWay error: %v", err)
		}
		if len(conflicts) != 0 {
			t.Fatalf("conflicts = %v, want none", conflicts)
		}
		if _, ok := merged.Node("notify"); !ok {
			t.Error("auto-resolved node missing from merge")
		}
	})

	t.Run("both sides deleting auto-resolves", func(t *testing.T) {
		base := baseGraph()
		ours := dropNode(base, "end")
		theirs := dropNode(base, "end")
		merged, conflicts, err := ThreeWay(base, ours, theirs, nil)
		if err != nil {
			t.Fatalf("ThreeWay error: %v", err)
		}
		if len(conflicts) != 0 {
			t.Fatalf("conflicts = %v, want none", conflicts)
		}
		if _, ok := merged.Node("end"); ok {
			t.Error("node deleted on both sides survived the merge")
		}
	})
}

func TestThreeWayConflictKinds(t *testing.T) {
	base := baseGraph()

	tests := []struct {
		name     string
		ours     graph.Graph
		theirs   graph.Graph
		wantKey  string
		wantKind ConflictKind
	}{
		{
			name:     "both modified differently",
			ours:     relabel(base, "task", "Ours"),
			theirs:   relabel(base, "task", "Theirs"),
			wantKey:  "node:task",
			wantKind: KindModify,
		},
		{
			name:     "delete vs modify is a delete conflict",
			ours:     dropNode(base, "task"),
			theirs:   relabel(base, "task", "Theirs"),
			wantKey:  "node:task",
			wantKind: KindDelete,
		},
		{
			name:     "modify vs delete is a delete conflict",
			ours:     relabel(base, "task", "Ours"),
			theirs:   dropNode(base, "task"),
			wantKey:  "node:task",
			wantKind: KindDelete,
		},
		{
			name:     "both added differently",
			ours:     addNode(base, graph.Node{ID: "new", Type: graph.TypeAction, Label: "A"}),
			theirs:   addNode(base, graph.Node{ID: "new", Type: graph.TypeAction, Label: "B"}),
			wantKey:  "node:new",
			wantKind: KindAdd,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, conflicts, err := ThreeWay(base, tt.ours, tt.theirs, nil)
			if err != nil {
				t.Fatalf("ThreeWay error: %v", err)
			}
			if len(conflicts) != 1 {
				t.Fatalf("got %d conflicts, want 1: %v", len(conflicts), conflicts)
			}
			c := conflicts[0]
			if c.Key() != tt.wantKey {
				t.Errorf("conflict key = %q, want %q", c.Key(), tt.wantKey)
			}
			if c.Kind != tt.wantKind {
				t.Errorf("conflict kind = %v, want %v", c.Kind, tt.wantKind)
			}
		})
	}

	t.Run("delete conflict carries a deletion snapshot", func(t *testing.T) {
		_, conflicts, err := ThreeWay(base, dropNode(base, "task"), relabel(base, "task", "X"), nil)
		if err != nil {
			t.Fatalf("ThreeWay error: %v", err)
		}
		c := conflicts[0]
		if !c.Ours.Deleted {
			t.Error("ours snapshot should be marked deleted")
		}
		if c.Theirs.Node == nil || c.Theirs.Node.Label != "X" {
			t.Errorf("theirs snapshot = %+v, want node with label X", c.Theirs)
		}
	})

	t.Run("edge conflict via rewire", func(t *testing.T) {
		ours := base.Clone()
		ours.Edges[1].Target = "start" // rewrite e2
		theirs := base.Clone()
		theirs.Edges[1].Label = "done"

		_, conflicts, err := ThreeWay(base, ours, theirs, nil)
		if err != nil {
			t.Fatalf("ThreeWay error: %v", err)
		}
		if len(conflicts) != 1 {
			t.Fatalf("got %d conflicts, want 1: %v", len(conflicts), conflicts)
		}
		if conflicts[0].Key() != "edge:e2" {
			t.Errorf("conflict key = %q, want edge:e2", conflicts[0].Key())
		}
	})
}

func TestThreeWayResolutions(t *testing.T) {
	base := baseGraph()
	ours := relabel(base, "task", "Ours")
	theirs := relabel(base, "task", "Theirs")

	t.Run("choose ours", func(t *testing.T) {
		merged, conflicts, err := ThreeWay(base, ours, theirs,
			[]Resolution{{NodeID: "task", Choice: ChoiceOurs}})
		if err != nil {
			t.Fatalf("ThreeWay error: %v", err)
		}
		if len(conflicts) != 0 {
			t.Fatalf("conflicts = %v, want none", conflicts)
		}
		task, _ := merged.Node("task")
		if task.Label != "Ours" {
			t.Errorf("task label = %q, want Ours", task.Label)
		}
	})

	t.Run("choose theirs", func(t *testing.T) {
		merged, _, err := ThreeWay(base, ours, theirs,
			[]Resolution{{NodeID: "task", Choice: ChoiceTheirs}})
		if err != nil {
			t.Fatalf("ThreeWay error: %v", err)
		}
		task, _ := merged.Node("task")
		if task.Label != "Theirs" {
			t.Errorf("task label = %q, want Theirs", task.Label)
		}
	})

	t.Run("resolving a deletion removes the entity", func(t *testing.T) {
		merged, _, err := ThreeWay(base, dropNode(base, "task"), theirs,
			[]Resolution{{NodeID: "task", Choice: ChoiceOurs}})
		if err != nil {
			t.Fatalf("ThreeWay error: %v", err)
		}
		if _, ok := merged.Node("task"); ok {
			t.Error("resolved deletion should remove the node")
		}
	})

	t.Run("partial coverage resolves nothing", func(t *testing.T) {
		// Two conflicts, one resolution: the merge must not apply either.
		ours2 := relabel(ours, "end", "OursEnd")
		theirs2 := relabel(theirs, "end", "TheirsEnd")
		merged, conflicts, err := ThreeWay(base, ours2, theirs2,
			[]Resolution{{NodeID: "task", Choice: ChoiceOurs}})
		if err != nil {
			t.Fatalf("ThreeWay error: %v", err)
		}
		if len(conflicts) != 2 {
			t.Fatalf("got %d conflicts, want 2", len(conflicts))
		}
		if len(merged.Nodes) != 0 {
			t.Error("no graph should be produced while conflicts remain")
		}
	})

	t.Run("resolution for a non-conflict is rejected", func(t *testing.T) {
		_, _, err := ThreeWay(base, ours, theirs, []Resolution{
			{NodeID: "task", Choice: ChoiceOurs},
			{NodeID: "start", Choice: ChoiceOurs},
		})
		if !errors.Is(err, errors.ErrCodeInvalidResolution) {
			t.Errorf("err = %v, want INVALID_RESOLUTION", err)
		}
	})

	t.Run("invalid choice is rejected", func(t *testing.T) {
		_, _, err := ThreeWay(base, ours, theirs,
			[]Resolution{{NodeID: "task", Choice: "mine"}})
		if !errors.Is(err, errors.ErrCodeInvalidResolution) {
			t.Errorf("err = %v, want INVALID_RESOLUTION", err)
		}
	})

	t.Run("resolution must name exactly one entity", func(t *testing.T) {
		for _, r := range []Resolution{
			{Choice: ChoiceOurs},
			{NodeID: "task", EdgeID: "e1", Choice: ChoiceOurs},
		} {
			if _, _, err := ThreeWay(base, ours, theirs, []Resolution{r}); !errors.Is(err, errors.ErrCodeInvalidResolution) {
				t.Errorf("err = %v, want INVALID_RESOLUTION for %+v", err, r)
			}
		}
	})

	t.Run("duplicate resolutions are rejected", func(t *testing.T) {
		_, _, err := ThreeWay(base, ours, theirs, []Resolution{
			{NodeID: "task", Choice: ChoiceOurs},
			{NodeID: "task", Choice: ChoiceTheirs},
		})
		if !errors.Is(err, errors.ErrCodeInvalidResolution) {
			t.Errorf("err = %v, want INVALID_RESOLUTION", err)
		}
	})
}

func TestThreeWayDeterministic(t *testing.T) {
	base := baseGraph()
	ours := addNode(base, graph.Node{ID: "z-late", Type: graph.TypeAction})
	theirs := addNode(base, graph.Node{ID: "a-early", Type: graph.TypeAction})

	first, _, err := ThreeWay(base, ours, theirs, nil)
	if err != nil {
		t.Fatalf("ThreeWay error: %v", err)
	}
	for range 5 {
		again, _, err := ThreeWay(base, ours, theirs, nil)
		if err != nil {
			t.Fatalf("ThreeWay error: %v", err)
		}
		if len(again.Nodes) != len(first.Nodes) {
			t.Fatal("node counts differ between runs")
		}
		for i := range first.Nodes {
			if again.Nodes[i].ID != first.Nodes[i].ID {
				t.Fatalf("node order differs between runs at %d: %q vs %q",
					i, again.Nodes[i].ID, first.Nodes[i].ID)
			}
		}
	}
}
