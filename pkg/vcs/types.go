// Package vcs implements git-like version control for playbook graphs.
//
// The model mirrors git at a coarse granularity: immutable commits form a
// DAG (merge commits have two parents), branches are named mutable pointers
// to commits, and merging is three-way against the lowest common ancestor.
// Unlike git, diffs are structural - keyed by node and edge identity rather
// than line offsets - so conflicts name the exact workflow step or
// transition that changed incompatibly on both sides.
//
// Storage is abstract: the [Store] interface is an append-only commit log
// plus a branch registry with a compare-and-swap head pointer. In-memory,
// SQLite, and MongoDB implementations are provided (the latter two under
// pkg/store). All engine operations are safe under concurrent callers
// because every head move is a CAS; a lost race surfaces as a
// CONCURRENT_MODIFICATION error and is never retried silently, since a
// stale diff could drop a concurrent change.
package vcs

import (
	"time"

	"github.com/branchline/branchline/pkg/graph"
)

// DefaultBranchName is the branch created when a playbook is initialized.
const DefaultBranchName = "main"

// Commit is an immutable snapshot of a playbook graph plus lineage metadata.
//
// Commits are never mutated or deleted once appended. The ID is assigned at
// creation (not content-addressed) so authorship and message stay distinct
// from content identity. A commit with MergeParentCommitID set is a merge
// commit with two parents.
type Commit struct {
	ID                  string      `json:"id" bson:"_id"`
	PlaybookID          string      `json:"playbookId" bson:"playbook_id"`
	BranchID            string      `json:"branchId" bson:"branch_id"`
	Version             int         `json:"version" bson:"version"`
	Graph               graph.Graph `json:"graph" bson:"graph"`
	Message             string      `json:"message" bson:"message"`
	ParentCommitID      string      `json:"parentCommitId,omitempty" bson:"parent_commit_id,omitempty"`
	MergeParentCommitID string      `json:"mergeParentCommitId,omitempty" bson:"merge_parent_commit_id,omitempty"`
	AuthorID            string      `json:"authorId" bson:"author_id"`
	CreatedAt           time.Time   `json:"createdAt" bson:"created_at"`
}

// IsMerge reports whether the commit has two parents.
func (c *Commit) IsMerge() bool { return c.MergeParentCommitID != "" }

// IsRoot reports whether the commit has no parents.
func (c *Commit) IsRoot() bool { return c.ParentCommitID == "" }

// ParentIDs returns the commit's parent IDs: empty for a root commit, one
// entry normally, two for a merge commit.
func (c *Commit) ParentIDs() []string {
	if c.ParentCommitID == "" {
		return nil
	}
	ids := []string{c.ParentCommitID}
	if c.MergeParentCommitID != "" {
		ids = append(ids, c.MergeParentCommitID)
	}
	return ids
}

// Clone returns a deep copy of the commit, including its graph snapshot.
// Stores hand out clones so callers can never mutate stored history.
func (c *Commit) Clone() *Commit {
	out := *c
	out.Graph = c.Graph.Clone()
	return &out
}

// Branch is a named mutable pointer to a commit.
//
// HeadCommitID is mutated only through commit, merge, and restore
// operations, each of which moves it with a compare-and-swap. A protected
// branch accepts merges but rejects direct commits; the engine enforces the
// flag unconditionally and leaves privilege decisions to an external
// authorization layer.
type Branch struct {
	ID             string    `json:"id" bson:"_id"`
	PlaybookID     string    `json:"playbookId" bson:"playbook_id"`
	Name           string    `json:"name" bson:"name"`
	ParentBranchID string    `json:"parentBranchId,omitempty" bson:"parent_branch_id,omitempty"`
	IsProtected    bool      `json:"isProtected" bson:"is_protected"`
	HeadCommitID   string    `json:"headCommitId" bson:"head_commit_id"`
	CreatedAt      time.Time `json:"createdAt" bson:"created_at"`
}

// Clone returns a copy of the branch.
func (b *Branch) Clone() *Branch {
	out := *b
	return &out
}
