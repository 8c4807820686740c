package vcs

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/branchline/branchline/pkg/diff"
	"github.com/branchline/branchline/pkg/errors"
	"github.com/branchline/branchline/pkg/graph"
)

// Engine is the write-side facade over a Store: it owns branch creation,
// commits, merges, restores, and head moves, enforcing branch protection,
// the no-empty-commit rule, and the fast-forward policy.
//
// The Engine is stateless except for its store and logger. Multiple
// goroutines can safely share one Engine; every head move is a
// compare-and-swap, and a lost race surfaces as CONCURRENT_MODIFICATION
// rather than being retried with stale inputs.
type Engine struct {
	Store    Store
	Resolver *AncestorResolver
	Logger   *log.Logger

	// NewID and Now exist so tests can pin IDs and timestamps.
	NewID func() string
	Now   func() time.Time
}

// NewEngine creates an engine over the given store.
// If logger is nil, log.Default() is used.
func NewEngine(store Store, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		Store:    store,
		Resolver: NewAncestorResolver(store),
		Logger:   logger,
		NewID:    uuid.NewString,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// MergeRequest describes a merge of one branch's head into another.
type MergeRequest struct {
	PlaybookID     string       `json:"playbookId"`
	SourceBranchID string       `json:"sourceBranchId"`
	TargetBranchID string       `json:"targetBranchId"`
	Message        string       `json:"message,omitempty"`
	AuthorID       string       `json:"authorId"`
	Resolutions    []Resolution `json:"resolutions,omitempty"`
}

// MergeOutcome is the result of a merge attempt. Exactly one of Commit and
// Conflicts is populated: conflicts mean nothing was written and the caller
// must resupply the request with resolutions covering every conflict.
type MergeOutcome struct {
	Commit     *Commit    `json:"commit,omitempty"`
	Conflicts  []Conflict `json:"conflicts,omitempty"`
	AncestorID string     `json:"ancestorId"`
}

// Init bootstraps version control for a playbook: it creates the default
// "main" branch and a root commit (version 1) holding the initial graph.
func (e *Engine) Init(ctx context.Context, playbookID string, g graph.Graph, message, authorID string) (*Branch, *Commit, error) {
	if message == "" {
		message = "Initial commit"
	}
	if err := errors.ValidateCommitMessage(message); err != nil {
		return nil, nil, err
	}

	branch := &Branch{
		ID:         e.NewID(),
		PlaybookID: playbookID,
		Name:       DefaultBranchName,
		CreatedAt:  e.Now(),
	}
	if err := e.Store.CreateBranch(ctx, branch); err != nil {
		return nil, nil, mapStoreErr(err, "create branch %q", branch.Name)
	}

	commit := &Commit{
		ID:         e.NewID(),
		PlaybookID: playbookID,
		BranchID:   branch.ID,
		Version:    1,
		Graph:      g.Clone(),
		Message:    message,
		AuthorID:   authorID,
		CreatedAt:  e.Now(),
	}
	if err := e.Store.AppendAndAdvance(ctx, commit, ""); err != nil {
		return nil, nil, mapStoreErr(err, "write root commit")
	}
	branch.HeadCommitID = commit.ID

	e.Logger.Info("initialized playbook",
		"playbook", playbookID,
		"branch", branch.Name,
		"commit", commit.ID)
	return branch, commit, nil
}

// CreateBranch creates a branch whose head starts at the source branch's
// current head. The name must match ^[A-Za-z0-9_-]+$ and be unique within
// the playbook.
func (e *Engine) CreateBranch(ctx context.Context, playbookID, name, sourceBranchID string) (*Branch, error) {
	if err := errors.ValidateBranchName(name); err != nil {
		return nil, err
	}

	source, err := e.Store.Branch(ctx, sourceBranchID)
	if err != nil {
		return nil, mapStoreErr(err, "resolve source branch %s", sourceBranchID)
	}
	if source.HeadCommitID == "" {
		return nil, errors.New(errors.ErrCodeCommitNotFound,
			"source branch %q has no head commit", source.Name)
	}

	branch := &Branch{
		ID:             e.NewID(),
		PlaybookID:     playbookID,
		Name:           name,
		ParentBranchID: source.ID,
		HeadCommitID:   source.HeadCommitID,
		CreatedAt:      e.Now(),
	}
	if err := e.Store.CreateBranch(ctx, branch); err != nil {
		return nil, mapStoreErr(err, "create branch %q", name)
	}

	e.Logger.Info("created branch",
		"branch", name,
		"from", source.Name,
		"head", branch.HeadCommitID)
	return branch, nil
}

// Commit records a new graph snapshot on the branch and advances its head.
// A graph identical to the current head is rejected with NO_CHANGES, and a
// protected branch rejects direct commits unconditionally.
func (e *Engine) Commit(ctx context.Context, branchID string, g graph.Graph, message, authorID string) (*Commit, error) {
	if err := errors.ValidateCommitMessage(message); err != nil {
		return nil, err
	}

	branch, err := e.Store.Branch(ctx, branchID)
	if err != nil {
		return nil, mapStoreErr(err, "resolve branch %s", branchID)
	}
	if branch.IsProtected {
		return nil, errors.New(errors.ErrCodeProtectedBranch,
			"branch %q is protected and does not accept direct commits", branch.Name)
	}

	head, err := e.Store.Commit(ctx, branch.HeadCommitID)
	if err != nil {
		return nil, mapStoreErr(err, "load head commit %s", branch.HeadCommitID)
	}
	if !diff.Between(head.Graph, g).HasChanges() {
		return nil, errors.New(errors.ErrCodeNoChanges,
			"graph is identical to the head of branch %q", branch.Name)
	}

	commit, err := e.appendCommit(ctx, branch, g, message, authorID, "")
	if err != nil {
		return nil, err
	}

	e.Logger.Info("created commit",
		"branch", branch.Name,
		"version", commit.Version,
		"commit", commit.ID)
	return commit, nil
}

// Merge merges the source branch's head into the target branch.
//
// When the two sides changed the same node or edge incompatibly, the
// outcome carries the conflict list and no commit is written. Supplying
// resolutions covering every conflict lets the merge complete; partial
// coverage still writes nothing. Merging into a protected branch is
// allowed; protection blocks direct commits only.
func (e *Engine) Merge(ctx context.Context, req MergeRequest) (*MergeOutcome, error) {
	source, err := e.Store.Branch(ctx, req.SourceBranchID)
	if err != nil {
		return nil, mapStoreErr(err, "resolve source branch %s", req.SourceBranchID)
	}
	target, err := e.Store.Branch(ctx, req.TargetBranchID)
	if err != nil {
		return nil, mapStoreErr(err, "resolve target branch %s", req.TargetBranchID)
	}

	ancestorID, ok, err := e.Resolver.CommonAncestor(ctx, target.HeadCommitID, source.HeadCommitID)
	if err != nil {
		return nil, mapStoreErr(err, "resolve common ancestor")
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeUnrelatedHistories,
			"branches %q and %q share no common ancestor", source.Name, target.Name)
	}

	ancestor, err := e.Store.Commit(ctx, ancestorID)
	if err != nil {
		return nil, mapStoreErr(err, "load ancestor commit %s", ancestorID)
	}
	ours, err := e.Store.Commit(ctx, target.HeadCommitID)
	if err != nil {
		return nil, mapStoreErr(err, "load target head %s", target.HeadCommitID)
	}
	theirs, err := e.Store.Commit(ctx, source.HeadCommitID)
	if err != nil {
		return nil, mapStoreErr(err, "load source head %s", source.HeadCommitID)
	}

	merged, conflicts, err := ThreeWay(ancestor.Graph, ours.Graph, theirs.Graph, req.Resolutions)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		e.Logger.Info("merge has conflicts",
			"source", source.Name,
			"target", target.Name,
			"conflicts", len(conflicts))
		return &MergeOutcome{Conflicts: conflicts, AncestorID: ancestorID}, nil
	}

	message := req.Message
	if message == "" {
		message = fmt.Sprintf("Merge branch '%s' into '%s'", source.Name, target.Name)
	}
	if err := errors.ValidateCommitMessage(message); err != nil {
		return nil, err
	}

	commit, err := e.appendCommit(ctx, target, merged, message, req.AuthorID, source.HeadCommitID)
	if err != nil {
		return nil, err
	}

	e.Logger.Info("merged branches",
		"source", source.Name,
		"target", target.Name,
		"version", commit.Version,
		"commit", commit.ID)
	return &MergeOutcome{Commit: commit, AncestorID: ancestorID}, nil
}

// Restore records the graph of an earlier commit as a new commit on the
// branch. History is never rewritten; restoring is just committing an old
// snapshot, so protection and the no-changes rule apply as for Commit.
func (e *Engine) Restore(ctx context.Context, branchID, commitID, message, authorID string) (*Commit, error) {
	branch, err := e.Store.Branch(ctx, branchID)
	if err != nil {
		return nil, mapStoreErr(err, "resolve branch %s", branchID)
	}
	if branch.IsProtected {
		return nil, errors.New(errors.ErrCodeProtectedBranch,
			"branch %q is protected and does not accept direct commits", branch.Name)
	}

	old, err := e.Store.Commit(ctx, commitID)
	if err != nil {
		return nil, mapStoreErr(err, "load commit %s", commitID)
	}
	if old.PlaybookID != branch.PlaybookID {
		return nil, errors.New(errors.ErrCodeInvalidCommit,
			"commit %s belongs to a different playbook", commitID)
	}

	head, err := e.Store.Commit(ctx, branch.HeadCommitID)
	if err != nil {
		return nil, mapStoreErr(err, "load head commit %s", branch.HeadCommitID)
	}
	if !diff.Between(head.Graph, old.Graph).HasChanges() {
		return nil, errors.New(errors.ErrCodeNoChanges,
			"commit %s is identical to the head of branch %q", commitID, branch.Name)
	}

	if message == "" {
		message = fmt.Sprintf("Restore version %d", old.Version)
	}
	if err := errors.ValidateCommitMessage(message); err != nil {
		return nil, err
	}

	commit, err := e.appendCommit(ctx, branch, old.Graph, message, authorID, "")
	if err != nil {
		return nil, err
	}

	e.Logger.Info("restored commit",
		"branch", branch.Name,
		"restored", old.ID,
		"version", commit.Version,
		"commit", commit.ID)
	return commit, nil
}

// SwitchHead moves a branch head to an existing commit. The move must be a
// fast-forward: the new head's ancestry has to contain the current head.
// Merge commits are exempt, since a merge by construction descends from the
// head it replaces. Forced (history-discarding) moves are not supported.
func (e *Engine) SwitchHead(ctx context.Context, branchID, commitID string) error {
	branch, err := e.Store.Branch(ctx, branchID)
	if err != nil {
		return mapStoreErr(err, "resolve branch %s", branchID)
	}

	target, err := e.Store.Commit(ctx, commitID)
	if err != nil {
		return mapStoreErr(err, "load commit %s", commitID)
	}
	if target.PlaybookID != branch.PlaybookID {
		return errors.New(errors.ErrCodeInvalidCommit,
			"commit %s belongs to a different playbook", commitID)
	}

	if !target.IsMerge() {
		ff, err := e.Resolver.IsAncestor(ctx, branch.HeadCommitID, commitID)
		if err != nil {
			return mapStoreErr(err, "check ancestry of %s", commitID)
		}
		if !ff {
			return errors.New(errors.ErrCodeNonFastForward,
				"commit %s does not descend from the head of branch %q", commitID, branch.Name)
		}
	}

	if err := e.Store.CompareAndSwapHead(ctx, branchID, branch.HeadCommitID, commitID); err != nil {
		return mapStoreErr(err, "move head of branch %q", branch.Name)
	}

	e.Logger.Info("moved branch head",
		"branch", branch.Name,
		"from", branch.HeadCommitID,
		"to", commitID)
	return nil
}

// Protect toggles the protection flag on a branch.
func (e *Engine) Protect(ctx context.Context, branchID string, protected bool) error {
	if err := e.Store.SetProtected(ctx, branchID, protected); err != nil {
		return mapStoreErr(err, "set protection on branch %s", branchID)
	}
	e.Logger.Info("updated branch protection", "branch", branchID, "protected", protected)
	return nil
}

// Head returns the commit a branch currently points at.
func (e *Engine) Head(ctx context.Context, branchID string) (*Commit, error) {
	branch, err := e.Store.Branch(ctx, branchID)
	if err != nil {
		return nil, mapStoreErr(err, "resolve branch %s", branchID)
	}
	head, err := e.Store.Commit(ctx, branch.HeadCommitID)
	if err != nil {
		return nil, mapStoreErr(err, "load head commit %s", branch.HeadCommitID)
	}
	return head, nil
}

// appendCommit builds the next commit on the branch and writes it together
// with the head move as one unit. mergeParent is empty for regular commits.
func (e *Engine) appendCommit(ctx context.Context, branch *Branch, g graph.Graph, message, authorID, mergeParent string) (*Commit, error) {
	version, err := e.Store.MaxVersion(ctx, branch.ID)
	if err != nil {
		return nil, mapStoreErr(err, "compute next version for branch %q", branch.Name)
	}

	commit := &Commit{
		ID:                  e.NewID(),
		PlaybookID:          branch.PlaybookID,
		BranchID:            branch.ID,
		Version:             version + 1,
		Graph:               g.Clone(),
		Message:             message,
		ParentCommitID:      branch.HeadCommitID,
		MergeParentCommitID: mergeParent,
		AuthorID:            authorID,
		CreatedAt:           e.Now(),
	}
	if err := e.Store.AppendAndAdvance(ctx, commit, branch.HeadCommitID); err != nil {
		return nil, mapStoreErr(err, "write commit on branch %q", branch.Name)
	}
	return commit, nil
}

// mapStoreErr translates store sentinel errors into coded errors. Unknown
// errors become INTERNAL_ERROR so callers always see a structured code.
func mapStoreErr(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	switch {
	case stderrors.Is(err, ErrBranchNotFound):
		return errors.Wrap(errors.ErrCodeBranchNotFound, err, "%s", msg)
	case stderrors.Is(err, ErrCommitNotFound):
		return errors.Wrap(errors.ErrCodeCommitNotFound, err, "%s", msg)
	case stderrors.Is(err, ErrBranchExists):
		return errors.Wrap(errors.ErrCodeBranchExists, err, "%s", msg)
	case stderrors.Is(err, ErrHeadMoved):
		return errors.Wrap(errors.ErrCodeConcurrentModification, err, "%s", msg)
	case stderrors.Is(err, ErrParentMissing), stderrors.Is(err, ErrDuplicateCommit):
		return errors.Wrap(errors.ErrCodeInvalidCommit, err, "%s", msg)
	default:
		return errors.Wrap(errors.ErrCodeInternal, err, "%s", msg)
	}
}
