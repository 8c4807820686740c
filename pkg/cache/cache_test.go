package cache

import (
	"context"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	t.Run("miss on empty cache", func(t *testing.T) {
		_, hit, err := c.Get(ctx, "absent")
		if err != nil {
			t.Fatalf("Get error: %v", err)
		}
		if hit {
			t.Error("expected miss")
		}
	})

	t.Run("set then get", func(t *testing.T) {
		if err := c.Set(ctx, "k1", []byte("v1"), 0); err != nil {
			t.Fatalf("Set error: %v", err)
		}
		data, hit, err := c.Get(ctx, "k1")
		if err != nil {
			t.Fatalf("Get error: %v", err)
		}
		if !hit {
			t.Fatal("expected hit")
		}
		if string(data) != "v1" {
			t.Errorf("data = %q, want %q", data, "v1")
		}
	})

	t.Run("zero ttl never expires", func(t *testing.T) {
		if err := c.Set(ctx, "forever", []byte("x"), 0); err != nil {
			t.Fatalf("Set error: %v", err)
		}
		_, hit, _ := c.Get(ctx, "forever")
		if !hit {
			t.Error("zero-ttl entry should not expire")
		}
	})

	t.Run("expired entry is a miss", func(t *testing.T) {
		if err := c.Set(ctx, "shortlived", []byte("x"), -time.Second); err != nil {
			t.Fatalf("Set error: %v", err)
		}
		_, hit, err := c.Get(ctx, "shortlived")
		if err != nil {
			t.Fatalf("Get error: %v", err)
		}
		if hit {
			t.Error("expired entry should be a miss")
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := c.Set(ctx, "gone", []byte("x"), 0); err != nil {
			t.Fatalf("Set error: %v", err)
		}
		if err := c.Delete(ctx, "gone"); err != nil {
			t.Fatalf("Delete error: %v", err)
		}
		_, hit, _ := c.Get(ctx, "gone")
		if hit {
			t.Error("deleted entry should be a miss")
		}
		// Deleting again is not an error.
		if err := c.Delete(ctx, "gone"); err != nil {
			t.Errorf("second Delete error: %v", err)
		}
	})
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// SHA-256 produces 64 hex chars
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestCommitKey(t *testing.T) {
	k1 := CommitKey("commit-a")
	k2 := CommitKey("commit-b")
	if k1 == k2 {
		t.Error("different commit IDs should produce different keys")
	}
	if k1 != CommitKey("commit-a") {
		t.Error("CommitKey should be deterministic")
	}
	if len(k1) == 0 || k1[:7] != "commit:" {
		t.Errorf("CommitKey should carry the commit prefix, got %q", k1)
	}
}
