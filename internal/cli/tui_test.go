package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/branchline/branchline/pkg/graph"
	"github.com/branchline/branchline/pkg/vcs"
)

func testConflicts() []vcs.Conflict {
	return []vcs.Conflict{
		{
			NodeID: "task-1",
			Kind:   vcs.KindModify,
			Ours:   vcs.EntitySnapshot{Node: &graph.Node{ID: "task-1", Type: graph.TypeAction, Label: "Send email"}},
			Theirs: vcs.EntitySnapshot{Node: &graph.Node{ID: "task-1", Type: graph.TypeAction, Label: "Send SMS"}},
		},
		{
			EdgeID: "e2",
			Kind:   vcs.KindDelete,
			Ours:   vcs.EntitySnapshot{Deleted: true},
			Theirs: vcs.EntitySnapshot{Edge: &graph.Edge{ID: "e2", Source: "a", Target: "b"}},
		},
	}
}

func key(s string) tea.KeyMsg {
	if len(s) == 1 {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func press(t *testing.T, m conflictModel, keys ...string) conflictModel {
	t.Helper()
	for _, k := range keys {
		updated, _ := m.Update(key(k))
		var ok bool
		m, ok = updated.(conflictModel)
		if !ok {
			t.Fatalf("Update returned %T, want conflictModel", updated)
		}
	}
	return m
}

func TestConflictModel(t *testing.T) {
	t.Run("choices advance the cursor", func(t *testing.T) {
		m := press(t, newConflictModel(testConflicts()), "o")
		if m.choices[0] != vcs.ChoiceOurs {
			t.Errorf("choices[0] = %q, want ours", m.choices[0])
		}
		if m.cursor != 1 {
			t.Errorf("cursor = %d, want 1", m.cursor)
		}
	})

	t.Run("enter confirms only when all chosen", func(t *testing.T) {
		m := press(t, newConflictModel(testConflicts()), "o", "enter")
		if m.done {
			t.Error("model done with unresolved conflicts")
		}

		m = press(t, m, "t", "enter")
		if !m.done {
			t.Error("model not done after all conflicts chosen")
		}

		got := m.resolutions()
		if len(got) != 2 {
			t.Fatalf("got %d resolutions, want 2", len(got))
		}
		if got[0].NodeID != "task-1" || got[0].Choice != vcs.ChoiceOurs {
			t.Errorf("resolutions[0] = %+v", got[0])
		}
		if got[1].EdgeID != "e2" || got[1].Choice != vcs.ChoiceTheirs {
			t.Errorf("resolutions[1] = %+v", got[1])
		}
	})

	t.Run("abort yields no resolutions", func(t *testing.T) {
		m := press(t, newConflictModel(testConflicts()), "o", "q")
		if !m.aborted {
			t.Error("model not aborted after q")
		}
		if got := m.resolutions(); got != nil {
			t.Errorf("resolutions() = %v, want nil", got)
		}
	})

	t.Run("cursor stays in bounds", func(t *testing.T) {
		m := press(t, newConflictModel(testConflicts()), "up", "up", "down", "down", "down")
		if m.cursor != 1 {
			t.Errorf("cursor = %d, want 1", m.cursor)
		}
	})

	t.Run("view lists both sides", func(t *testing.T) {
		view := newConflictModel(testConflicts()).View()
		for _, want := range []string{"node:task-1", "edge:e2", "Send email", "Send SMS", "deleted"} {
			if !strings.Contains(view, want) {
				t.Errorf("View() missing %q", want)
			}
		}
	})
}

func TestDescribeSnapshot(t *testing.T) {
	deleted := vcs.EntitySnapshot{Deleted: true}
	if got := describeSnapshot(deleted); got != "deleted" {
		t.Errorf("describeSnapshot(deleted) = %q", got)
	}

	node := vcs.EntitySnapshot{Node: &graph.Node{Type: graph.TypeCondition, Label: "Is VIP?"}}
	if got := describeSnapshot(node); !strings.Contains(got, "Is VIP?") {
		t.Errorf("describeSnapshot(node) = %q", got)
	}

	edge := vcs.EntitySnapshot{Edge: &graph.Edge{Source: "a", Target: "b", Label: "true"}}
	got := describeSnapshot(edge)
	if !strings.Contains(got, "a") || !strings.Contains(got, "b") || !strings.Contains(got, "true") {
		t.Errorf("describeSnapshot(edge) = %q", got)
	}
}
