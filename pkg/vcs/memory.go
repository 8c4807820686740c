package vcs

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore is an in-memory Store for tests and single-process use.
// All methods are safe for concurrent callers; AppendAndAdvance holds the
// write lock across both steps, which gives the same all-or-nothing
// behavior a database transaction provides for the durable backends.
type MemoryStore struct {
	mu       sync.RWMutex
	commits  map[string]*Commit
	branches map[string]*Branch
	byName   map[string]string // playbookID + "\x00" + name -> branchID
	order    []string          // branch IDs in creation order
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		commits:  make(map[string]*Commit),
		branches: make(map[string]*Branch),
		byName:   make(map[string]string),
	}
}

func nameKey(playbookID, name string) string { return playbookID + "\x00" + name }

// AppendCommit stores a new commit after checking parent references.
func (s *MemoryStore) AppendCommit(ctx context.Context, c *Commit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(c)
}

func (s *MemoryStore) appendLocked(c *Commit) error {
	if _, exists := s.commits[c.ID]; exists {
		return ErrDuplicateCommit
	}
	for _, parent := range c.ParentIDs() {
		if _, ok := s.commits[parent]; !ok {
			return ErrParentMissing
		}
	}
	s.commits[c.ID] = c.Clone()
	return nil
}

// Commit returns a deep copy of the stored commit.
func (s *MemoryStore) Commit(ctx context.Context, id string) (*Commit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.commits[id]
	if !ok {
		return nil, ErrCommitNotFound
	}
	return c.Clone(), nil
}

// Parents returns the parent IDs of the commit.
func (s *MemoryStore) Parents(ctx context.Context, id string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.commits[id]
	if !ok {
		return nil, ErrCommitNotFound
	}
	return c.ParentIDs(), nil
}

// MaxVersion returns the highest version recorded on the branch, 0 if none.
func (s *MemoryStore) MaxVersion(ctx context.Context, branchID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	max := 0
	for _, c := range s.commits {
		if c.BranchID == branchID && c.Version > max {
			max = c.Version
		}
	}
	return max, nil
}

// CreateBranch registers a new branch.
func (s *MemoryStore) CreateBranch(ctx context.Context, b *Branch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := nameKey(b.PlaybookID, b.Name)
	if _, taken := s.byName[key]; taken {
		return ErrBranchExists
	}
	s.branches[b.ID] = b.Clone()
	s.byName[key] = b.ID
	s.order = append(s.order, b.ID)
	return nil
}

// Branch returns a copy of the branch with the given ID.
func (s *MemoryStore) Branch(ctx context.Context, id string) (*Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.branches[id]
	if !ok {
		return nil, ErrBranchNotFound
	}
	return b.Clone(), nil
}

// BranchByName resolves a branch by playbook and name.
func (s *MemoryStore) BranchByName(ctx context.Context, playbookID, name string) (*Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[nameKey(playbookID, name)]
	if !ok {
		return nil, ErrBranchNotFound
	}
	return s.branches[id].Clone(), nil
}

// Branches lists the playbook's branches in creation order.
func (s *MemoryStore) Branches(ctx context.Context, playbookID string) ([]*Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Branch
	for _, id := range s.order {
		if b := s.branches[id]; b.PlaybookID == playbookID {
			out = append(out, b.Clone())
		}
	}
	return out, nil
}

// SetProtected toggles the protection flag.
func (s *MemoryStore) SetProtected(ctx context.Context, id string, protected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.branches[id]
	if !ok {
		return ErrBranchNotFound
	}
	b.IsProtected = protected
	return nil
}

// CompareAndSwapHead moves the branch head if it still matches oldHead.
func (s *MemoryStore) CompareAndSwapHead(ctx context.Context, branchID, oldHead, newHead string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.casLocked(branchID, oldHead, newHead)
}

func (s *MemoryStore) casLocked(branchID, oldHead, newHead string) error {
	b, ok := s.branches[branchID]
	if !ok {
		return ErrBranchNotFound
	}
	if b.HeadCommitID != oldHead {
		return ErrHeadMoved
	}
	b.HeadCommitID = newHead
	return nil
}

// AppendAndAdvance appends the commit and advances its branch head as one
// unit under the store lock.
func (s *MemoryStore) AppendAndAdvance(ctx context.Context, c *Commit, expectedOldHead string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check the CAS precondition before appending so a lost race leaves no
	// orphaned commit behind.
	b, ok := s.branches[c.BranchID]
	if !ok {
		return ErrBranchNotFound
	}
	if b.HeadCommitID != expectedOldHead {
		return ErrHeadMoved
	}

	if err := s.appendLocked(c); err != nil {
		return err
	}
	b.HeadCommitID = c.ID
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

// CommitIDs returns all stored commit IDs sorted lexically. Intended for
// tests and diagnostics.
func (s *MemoryStore) CommitIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.commits))
	for id := range s.commits {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
