package vcs

import (
	"context"
	"testing"
)

// historyStore seeds a MemoryStore with commits given as id -> parents
// (nil = root, one entry = regular, two = merge). Insertion respects
// parent-before-child ordering by repeated passes.
func historyStore(t *testing.T, commits map[string][]string) *MemoryStore {
	t.Helper()
	ctx := context.Background()
	s := NewMemoryStore()

	pending := make(map[string][]string, len(commits))
	for id, parents := range commits {
		pending[id] = parents
	}
	for len(pending) > 0 {
		inserted := false
		for id, parents := range pending {
			c := testCommit(id, "b1", "", 1)
			if len(parents) > 0 {
				c.ParentCommitID = parents[0]
			}
			if len(parents) > 1 {
				c.MergeParentCommitID = parents[1]
			}
			if err := s.AppendCommit(ctx, c); err == nil {
				delete(pending, id)
				inserted = true
			}
		}
		if !inserted {
			t.Fatalf("cannot insert remaining commits %v", pending)
		}
	}
	return s
}

func TestCommonAncestor(t *testing.T) {
	// r - a1 - a2      (branch a)
	//   \ b1 - b2      (branch b)
	// m = merge of a2 and b2
	s := historyStore(t, map[string][]string{
		"r":  nil,
		"a1": {"r"},
		"a2": {"a1"},
		"b1": {"r"},
		"b2": {"b1"},
		"m":  {"a2", "b2"},
		"x":  nil, // disjoint root
	})
	r := NewAncestorResolver(s)
	ctx := context.Background()

	tests := []struct {
		name   string
		a, b   string
		want   string
		wantOK bool
	}{
		{"same commit is its own ancestor", "a2", "a2", "a2", true},
		{"diverged branches meet at fork", "a2", "b2", "r", true},
		{"ancestor of descendant", "r", "a2", "r", true},
		{"descendant of ancestor", "a2", "r", "r", true},
		{"merge commit vs branch tip", "m", "b2", "b2", true},
		{"disjoint roots", "a2", "x", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := r.CommonAncestor(ctx, tt.a, tt.b)
			if err != nil {
				t.Fatalf("CommonAncestor error: %v", err)
			}
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("CommonAncestor(%s, %s) = (%q, %v), want (%q, %v)",
					tt.a, tt.b, got, ok, tt.want, tt.wantOK)
			}
		})
	}

	t.Run("symmetric", func(t *testing.T) {
		pairs := [][2]string{{"a2", "b2"}, {"r", "b1"}, {"m", "a1"}}
		for _, p := range pairs {
			ab, okAB, err := r.CommonAncestor(ctx, p[0], p[1])
			if err != nil {
				t.Fatalf("CommonAncestor error: %v", err)
			}
			ba, okBA, err := r.CommonAncestor(ctx, p[1], p[0])
			if err != nil {
				t.Fatalf("CommonAncestor error: %v", err)
			}
			if ab != ba || okAB != okBA {
				t.Errorf("CommonAncestor(%s, %s) = %q but reversed = %q", p[0], p[1], ab, ba)
			}
		}
	})

	t.Run("unknown commit errors", func(t *testing.T) {
		if _, _, err := r.CommonAncestor(ctx, "nope", "a2"); err == nil {
			t.Error("expected error for unknown commit")
		}
		if _, _, err := r.CommonAncestor(ctx, "nope", "nope"); err == nil {
			t.Error("expected error for unknown commit in self case")
		}
	})
}

func TestIsAncestor(t *testing.T) {
	s := historyStore(t, map[string][]string{
		"r":  nil,
		"a1": {"r"},
		"a2": {"a1"},
		"b1": {"r"},
		"m":  {"a2", "b1"},
	})
	r := NewAncestorResolver(s)
	ctx := context.Background()

	tests := []struct {
		name                 string
		ancestor, descendant string
		want                 bool
	}{
		{"direct parent", "a1", "a2", true},
		{"root of everything", "r", "m", true},
		{"self", "a2", "a2", true},
		{"merge reaches both sides", "b1", "m", true},
		{"siblings are not ancestors", "b1", "a2", false},
		{"reversed direction", "a2", "a1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.IsAncestor(ctx, tt.ancestor, tt.descendant)
			if err != nil {
				t.Fatalf("IsAncestor error: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsAncestor(%s, %s) = %v, want %v", tt.ancestor, tt.descendant, got, tt.want)
			}
		})
	}
}
