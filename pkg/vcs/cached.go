package vcs

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"

	"github.com/branchline/branchline/pkg/cache"
)

// CachedCommits is a read-through cache in front of a CommitStore. Commits
// are immutable once appended, so entries are written with no expiry and
// never invalidated. Branch state is deliberately not cached: head pointers
// move, and a stale head would defeat the compare-and-swap protocol.
//
// Cache failures degrade to the underlying store; a broken cache slows
// reads down but never breaks them.
type CachedCommits struct {
	store  CommitStore
	cache  cache.Cache
	logger *log.Logger
}

// NewCachedCommits wraps a commit store with a cache. A nil cache yields a
// NullCache (caching disabled); a nil logger yields log.Default().
func NewCachedCommits(store CommitStore, c cache.Cache, logger *log.Logger) *CachedCommits {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &CachedCommits{store: store, cache: c, logger: logger}
}

// AppendCommit writes through to the store and primes the cache.
func (s *CachedCommits) AppendCommit(ctx context.Context, c *Commit) error {
	if err := s.store.AppendCommit(ctx, c); err != nil {
		return err
	}
	s.put(ctx, c)
	return nil
}

// Commit returns the commit from cache when present, falling back to the
// store and caching the result.
func (s *CachedCommits) Commit(ctx context.Context, id string) (*Commit, error) {
	key := cache.CommitKey(id)
	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Debug("commit cache read failed", "commit", id, "err", err)
	} else if ok {
		var c Commit
		if err := json.Unmarshal(data, &c); err == nil {
			return &c, nil
		}
		// Corrupt entry, drop it and fall through to the store.
		_ = s.cache.Delete(ctx, key)
	}

	c, err := s.store.Commit(ctx, id)
	if err != nil {
		return nil, err
	}
	s.put(ctx, c)
	return c, nil
}

// Parents resolves the commit through the cache and returns its parent IDs.
func (s *CachedCommits) Parents(ctx context.Context, id string) ([]string, error) {
	c, err := s.Commit(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.ParentIDs(), nil
}

// MaxVersion always hits the store: the answer changes with every commit
// on the branch.
func (s *CachedCommits) MaxVersion(ctx context.Context, branchID string) (int, error) {
	return s.store.MaxVersion(ctx, branchID)
}

func (s *CachedCommits) put(ctx context.Context, c *Commit) {
	data, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cache.CommitKey(c.ID), data, 0); err != nil {
		s.logger.Debug("commit cache write failed", "commit", c.ID, "err", err)
	}
}

// Ensure CachedCommits implements CommitStore.
var _ CommitStore = (*CachedCommits)(nil)

// cachedStore layers the commit cache over a full Store, leaving branch
// operations untouched.
type cachedStore struct {
	Store
	commits *CachedCommits
}

// WithCommitCache wraps a Store so commit reads go through the cache.
// Branch reads and head moves always hit the store directly.
func WithCommitCache(s Store, c cache.Cache, logger *log.Logger) Store {
	return &cachedStore{Store: s, commits: NewCachedCommits(s, c, logger)}
}

func (s *cachedStore) AppendCommit(ctx context.Context, c *Commit) error {
	return s.commits.AppendCommit(ctx, c)
}

func (s *cachedStore) Commit(ctx context.Context, id string) (*Commit, error) {
	return s.commits.Commit(ctx, id)
}

func (s *cachedStore) Parents(ctx context.Context, id string) ([]string, error) {
	return s.commits.Parents(ctx, id)
}
