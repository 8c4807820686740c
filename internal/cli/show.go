package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/branchline/branchline/pkg/diff"
	"github.com/branchline/branchline/pkg/graph"
)

// showCommand creates the "show" command, which prints a commit's
// metadata and its changes relative to the first parent.
func (c *CLI) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show COMMIT",
		Short: "Show a commit and its changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)

			s, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			commit, err := s.store.Commit(ctx, args[0])
			if err != nil {
				printError("%s", friendlyError(err))
				return err
			}

			printKeyValue("Commit", commit.ID)
			branchName := commit.BranchID
			if branch, err := s.store.Branch(ctx, commit.BranchID); err == nil {
				branchName = branch.Name
			}
			printKeyValue("Branch", branchName)
			printKeyValue("Version", versionLabel(commit.Version))
			if commit.Message != "" {
				printKeyValue("Message", commit.Message)
			}
			if commit.AuthorID != "" {
				printKeyValue("Author", commit.AuthorID)
			}
			printKeyValue("Created", commit.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			if commit.IsMerge() {
				printKeyValue("Merged", shortID(commit.MergeParentCommitID))
			}

			base := graph.Graph{}
			if commit.ParentCommitID != "" {
				parent, err := s.store.Commit(ctx, commit.ParentCommitID)
				if err != nil {
					printError("%s", friendlyError(err))
					return err
				}
				base = parent.Graph
			}

			printNewline()
			printDiff(diff.Between(base, commit.Graph))
			return nil
		},
	}
}

func printDiff(d diff.Diff) {
	if !d.HasChanges() {
		printInfo("No changes against the parent commit")
		return
	}

	for _, n := range d.AddedNodes {
		printDetail("%s", StyleSuccess.Render("+ node "+n.ID)+" "+StyleDim.Render(describeNode(n)))
	}
	for _, n := range d.RemovedNodes {
		printDetail("%s", StyleWarning.Render("- node "+n.ID)+" "+StyleDim.Render(describeNode(n)))
	}
	for _, ch := range d.ModifiedNodes {
		printDetail("%s", StyleHighlight.Render("~ node "+ch.ID)+" "+StyleDim.Render(strings.Join(ch.Changes, ", ")))
	}
	for _, e := range d.AddedEdges {
		printDetail("%s", StyleSuccess.Render("+ edge "+e.ID)+" "+StyleDim.Render(describeEdge(e)))
	}
	for _, e := range d.RemovedEdges {
		printDetail("%s", StyleWarning.Render("- edge "+e.ID)+" "+StyleDim.Render(describeEdge(e)))
	}
}
