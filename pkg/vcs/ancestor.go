package vcs

import "context"

// AncestorResolver finds the lowest common ancestor of two commits by
// walking the commit DAG backward through parent links.
type AncestorResolver struct {
	commits CommitStore
}

// NewAncestorResolver creates a resolver over the given commit store.
func NewAncestorResolver(commits CommitStore) *AncestorResolver {
	return &AncestorResolver{commits: commits}
}

// CommonAncestor returns the lowest common ancestor of commits a and b,
// or ok=false when the two commits belong to disjoint root histories.
// Disjoint histories should not occur for branches of the same playbook
// but are handled defensively rather than treated as corruption.
//
// The walk is a simultaneous breadth-first expansion of two frontiers, one
// from each commit. The first commit visited by both frontiers is the
// lowest common ancestor. Merge commits make history a general DAG, so a
// visited set bounds the walk to O(V+E) over reachable history.
func (r *AncestorResolver) CommonAncestor(ctx context.Context, a, b string) (string, bool, error) {
	visitedA := map[string]bool{}
	visitedB := map[string]bool{}
	frontierA := []string{a}
	frontierB := []string{b}

	// Trivial self-ancestor case still validates that the commit exists.
	if a == b {
		if _, err := r.commits.Parents(ctx, a); err != nil {
			return "", false, err
		}
		return a, true, nil
	}

	for len(frontierA) > 0 || len(frontierB) > 0 {
		next, found, err := r.expand(ctx, frontierA, visitedA, visitedB)
		if err != nil {
			return "", false, err
		}
		if found != "" {
			return found, true, nil
		}
		frontierA = next

		next, found, err = r.expand(ctx, frontierB, visitedB, visitedA)
		if err != nil {
			return "", false, err
		}
		if found != "" {
			return found, true, nil
		}
		frontierB = next
	}

	return "", false, nil
}

// expand advances one frontier by a single BFS level. It marks each newly
// reached commit in mine and reports the first one already present in
// theirs - the meeting point of the two walks.
func (r *AncestorResolver) expand(ctx context.Context, frontier []string, mine, theirs map[string]bool) ([]string, string, error) {
	var next []string
	for _, id := range frontier {
		if mine[id] {
			continue
		}
		mine[id] = true

		if theirs[id] {
			return nil, id, nil
		}

		parents, err := r.commits.Parents(ctx, id)
		if err != nil {
			return nil, "", err
		}
		for _, p := range parents {
			if !mine[p] {
				next = append(next, p)
			}
		}
	}
	return next, "", nil
}

// IsAncestor reports whether ancestor is reachable from descendant by
// following parent links, including the trivial case ancestor == descendant.
// Used to enforce the fast-forward policy on branch head moves.
func (r *AncestorResolver) IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	visited := map[string]bool{}
	frontier := []string{descendant}

	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		if id == ancestor {
			return true, nil
		}

		parents, err := r.commits.Parents(ctx, id)
		if err != nil {
			return false, err
		}
		frontier = append(frontier, parents...)
	}
	return false, nil
}
