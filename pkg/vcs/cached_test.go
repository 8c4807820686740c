package vcs

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/branchline/branchline/pkg/cache"
)

// countingStore counts reads that reach the underlying store.
type countingStore struct {
	CommitStore
	commitReads int
}

func (s *countingStore) Commit(ctx context.Context, id string) (*Commit, error) {
	s.commitReads++
	return s.CommitStore.Commit(ctx, id)
}

func TestCachedCommits(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	if err := mem.AppendCommit(ctx, testCommit("c1", "b1", "", 1)); err != nil {
		t.Fatalf("AppendCommit error: %v", err)
	}

	counting := &countingStore{CommitStore: mem}
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	cached := NewCachedCommits(counting, fc, log.NewWithOptions(io.Discard, log.Options{}))

	t.Run("first read populates the cache", func(t *testing.T) {
		c, err := cached.Commit(ctx, "c1")
		if err != nil {
			t.Fatalf("Commit error: %v", err)
		}
		if c.ID != "c1" {
			t.Errorf("commit ID = %q, want c1", c.ID)
		}
		if counting.commitReads != 1 {
			t.Errorf("store reads = %d, want 1", counting.commitReads)
		}
	})

	t.Run("second read is served from cache", func(t *testing.T) {
		c, err := cached.Commit(ctx, "c1")
		if err != nil {
			t.Fatalf("Commit error: %v", err)
		}
		if c.Graph.Nodes[0].ID != "n1" {
			t.Errorf("cached graph lost content: %+v", c.Graph)
		}
		if counting.commitReads != 1 {
			t.Errorf("store reads = %d, want 1 (cache should serve)", counting.commitReads)
		}
	})

	t.Run("parents resolve through the cache", func(t *testing.T) {
		if err := cached.AppendCommit(ctx, testCommit("c2", "b1", "c1", 2)); err != nil {
			t.Fatalf("AppendCommit error: %v", err)
		}
		parents, err := cached.Parents(ctx, "c2")
		if err != nil {
			t.Fatalf("Parents error: %v", err)
		}
		if len(parents) != 1 || parents[0] != "c1" {
			t.Errorf("parents = %v, want [c1]", parents)
		}
		// Append primed the cache, so no extra store read happened.
		if counting.commitReads != 1 {
			t.Errorf("store reads = %d, want 1", counting.commitReads)
		}
	})

	t.Run("misses fall through to the store error", func(t *testing.T) {
		if _, err := cached.Commit(ctx, "nope"); !errors.Is(err, ErrCommitNotFound) {
			t.Errorf("err = %v, want ErrCommitNotFound", err)
		}
	})

	t.Run("null cache still works", func(t *testing.T) {
		plain := NewCachedCommits(mem, nil, nil)
		c, err := plain.Commit(ctx, "c1")
		if err != nil {
			t.Fatalf("Commit error: %v", err)
		}
		if c.ID != "c1" {
			t.Errorf("commit ID = %q, want c1", c.ID)
		}
	})
}
