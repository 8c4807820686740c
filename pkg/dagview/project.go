// Package dagview projects commit history into a renderable DAG view.
//
// The projection is derived on every read from branch heads and parent
// links; it is never stored. Branches map onto lanes in creation order,
// the way a git log --graph assigns columns.
package dagview

import (
	"context"
	"slices"
	"time"

	"github.com/branchline/branchline/pkg/errors"
	"github.com/branchline/branchline/pkg/vcs"
)

// Source is the subset of a vcs.Store the projector reads from.
type Source interface {
	Branches(ctx context.Context, playbookID string) ([]*vcs.Branch, error)
	Commit(ctx context.Context, id string) (*vcs.Commit, error)
}

// Node is one commit in the projected view.
type Node struct {
	CommitID   string    `json:"commitId"`
	BranchID   string    `json:"branchId"`
	BranchName string    `json:"branchName"`
	ParentIDs  []string  `json:"parentIds,omitempty"`
	IsMerge    bool      `json:"isMerge"`
	Version    int       `json:"version"`
	Message    string    `json:"message"`
	AuthorID   string    `json:"authorId"`
	CreatedAt  time.Time `json:"createdAt"`
	Lane       int       `json:"lane"`
}

// View is the commit DAG of one playbook, topologically ordered with
// parents before children. Lanes maps branch names to lane indexes in
// branch creation order.
type View struct {
	Nodes []Node         `json:"nodes"`
	Lanes map[string]int `json:"lanes"`
	Heads map[string]string `json:"heads"` // branch name -> head commit ID
}

// Project reads every commit reachable from the playbook's branch heads
// and orders them parents-first, breaking ties by creation time then ID so
// the projection is deterministic.
func Project(ctx context.Context, src Source, playbookID string) (*View, error) {
	branches, err := src.Branches(ctx, playbookID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list branches of %s", playbookID)
	}
	if len(branches) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "playbook %s has no branches", playbookID)
	}

	view := &View{
		Lanes: make(map[string]int, len(branches)),
		Heads: make(map[string]string, len(branches)),
	}
	laneByBranchID := make(map[string]int, len(branches))
	nameByBranchID := make(map[string]string, len(branches))
	for i, b := range branches {
		view.Lanes[b.Name] = i
		view.Heads[b.Name] = b.HeadCommitID
		laneByBranchID[b.ID] = i
		nameByBranchID[b.ID] = b.Name
	}

	commits, err := collect(ctx, src, branches)
	if err != nil {
		return nil, err
	}

	for _, c := range topoSort(commits) {
		lane, known := laneByBranchID[c.BranchID]
		if !known {
			// Commit from a branch outside this playbook's registry; park
			// it on an overflow lane rather than failing the projection.
			lane = len(branches)
		}
		view.Nodes = append(view.Nodes, Node{
			CommitID:   c.ID,
			BranchID:   c.BranchID,
			BranchName: nameByBranchID[c.BranchID],
			ParentIDs:  c.ParentIDs(),
			IsMerge:    c.IsMerge(),
			Version:    c.Version,
			Message:    c.Message,
			AuthorID:   c.AuthorID,
			CreatedAt:  c.CreatedAt,
			Lane:       lane,
		})
	}
	return view, nil
}

// collect walks parent links backward from every branch head and returns
// the reachable commits, deduplicated by ID.
func collect(ctx context.Context, src Source, branches []*vcs.Branch) (map[string]*vcs.Commit, error) {
	commits := make(map[string]*vcs.Commit)
	var frontier []string
	for _, b := range branches {
		if b.HeadCommitID != "" {
			frontier = append(frontier, b.HeadCommitID)
		}
	}

	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]
		if _, seen := commits[id]; seen {
			continue
		}
		c, err := src.Commit(ctx, id)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "load commit %s", id)
		}
		commits[id] = c
		frontier = append(frontier, c.ParentIDs()...)
	}
	return commits, nil
}

// topoSort orders commits parents-first. Among commits whose parents are
// already emitted, the oldest (then lexically smallest ID) goes first.
func topoSort(commits map[string]*vcs.Commit) []*vcs.Commit {
	emitted := make(map[string]bool, len(commits))
	out := make([]*vcs.Commit, 0, len(commits))

	for len(out) < len(commits) {
		var ready []*vcs.Commit
		for id, c := range commits {
			if emitted[id] {
				continue
			}
			ok := true
			for _, p := range c.ParentIDs() {
				if _, inSet := commits[p]; inSet && !emitted[p] {
					ok = false
					break
				}
			}
			if ok {
				ready = append(ready, c)
			}
		}
		if len(ready) == 0 {
			// Parent cycle; impossible for append-only history but bail
			// rather than spin.
			break
		}
		slices.SortFunc(ready, func(a, b *vcs.Commit) int {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				if a.CreatedAt.Before(b.CreatedAt) {
					return -1
				}
				return 1
			}
			if a.ID < b.ID {
				return -1
			}
			if a.ID > b.ID {
				return 1
			}
			return 0
		})
		out = append(out, ready[0])
		emitted[ready[0].ID] = true
	}
	return out
}
