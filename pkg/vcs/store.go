package vcs

import (
	"context"
	"errors"
)

// Sentinel errors shared by all store implementations. Engine-level code
// maps these onto structured error codes; store code returns them directly.
var (
	// ErrCommitNotFound is returned when a commit ID does not resolve.
	ErrCommitNotFound = errors.New("commit not found")

	// ErrBranchNotFound is returned when a branch ID or name does not resolve.
	ErrBranchNotFound = errors.New("branch not found")

	// ErrBranchExists is returned by CreateBranch when the name is already
	// taken within the playbook.
	ErrBranchExists = errors.New("branch name already exists in playbook")

	// ErrParentMissing is returned by AppendCommit when a parent commit ID
	// does not resolve. Appending never auto-corrects lineage.
	ErrParentMissing = errors.New("parent commit does not resolve")

	// ErrDuplicateCommit is returned by AppendCommit when the commit ID is
	// already present. Commits are append-only and never overwritten.
	ErrDuplicateCommit = errors.New("commit ID already exists")

	// ErrHeadMoved is returned by CompareAndSwapHead and AppendAndAdvance
	// when the branch head no longer matches the expected commit. Callers
	// must re-read state and recompute before trying again.
	ErrHeadMoved = errors.New("branch head changed concurrently")
)

// CommitStore is an append-only repository of immutable commit records
// forming a DAG. No update or delete operations exist; that invariant is
// what makes ancestor search decidable and commit records safe to cache
// indefinitely.
type CommitStore interface {
	// AppendCommit stores a new commit. It fails with ErrParentMissing if a
	// parent reference does not resolve and ErrDuplicateCommit on ID reuse.
	AppendCommit(ctx context.Context, c *Commit) error

	// Commit returns the commit with the given ID, or ErrCommitNotFound.
	Commit(ctx context.Context, id string) (*Commit, error)

	// Parents returns the parent IDs of the commit: zero entries for a root
	// commit, one normally, two for a merge commit.
	Parents(ctx context.Context, id string) ([]string, error)

	// MaxVersion returns the highest commit version recorded on the branch,
	// or 0 when the branch has no commits. Versions are branch-relative.
	MaxVersion(ctx context.Context, branchID string) (int, error)
}

// BranchRegistry owns the mapping from branch to head commit ID. It holds
// references to commits by ID only; commit content always resolves through
// the CommitStore.
type BranchRegistry interface {
	// CreateBranch registers a new branch. It fails with ErrBranchExists if
	// the name is taken within the playbook.
	CreateBranch(ctx context.Context, b *Branch) error

	// Branch returns the branch with the given ID, or ErrBranchNotFound.
	Branch(ctx context.Context, id string) (*Branch, error)

	// BranchByName resolves a branch by playbook and name.
	BranchByName(ctx context.Context, playbookID, name string) (*Branch, error)

	// Branches lists all branches of a playbook ordered by creation time.
	Branches(ctx context.Context, playbookID string) ([]*Branch, error)

	// SetProtected toggles the branch protection flag.
	SetProtected(ctx context.Context, id string, protected bool) error

	// CompareAndSwapHead moves the branch head from oldHead to newHead.
	// It fails with ErrHeadMoved if the current head is not oldHead.
	CompareAndSwapHead(ctx context.Context, branchID, oldHead, newHead string) error
}

// Store combines commit storage and branch registry with the transactional
// write path used by every mutating engine operation.
type Store interface {
	CommitStore
	BranchRegistry

	// AppendAndAdvance appends the commit and moves its branch head from
	// expectedOldHead to the new commit ID as one logical unit: either both
	// happen or neither does. expectedOldHead is empty only for a root
	// commit on a freshly created branch.
	AppendAndAdvance(ctx context.Context, c *Commit, expectedOldHead string) error

	// Close releases resources held by the store.
	Close() error
}
