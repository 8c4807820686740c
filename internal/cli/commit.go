package cli

import (
	"github.com/spf13/cobra"

	"github.com/branchline/branchline/pkg/errors"
	"github.com/branchline/branchline/pkg/graph"
	"github.com/branchline/branchline/pkg/vcs"
)

type commitOptions struct {
	branch  string
	message string
}

// commitCommand creates the "commit" command, which records a new graph
// snapshot on a branch.
func (c *CLI) commitCommand() *cobra.Command {
	opts := commitOptions{branch: vcs.DefaultBranchName}

	cmd := &cobra.Command{
		Use:   "commit GRAPH_FILE",
		Short: "Commit a graph snapshot to a branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)

			g, err := graph.ReadFile(args[0])
			if err != nil {
				printError("Failed to read graph: %v", err)
				return err
			}
			if err := g.Validate(); err != nil {
				printError("Invalid graph: %v", err)
				return err
			}

			s, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			branch, err := c.resolveBranch(ctx, s, opts.branch)
			if err != nil {
				printError("%s", friendlyError(err))
				return err
			}

			commit, err := s.engine.Commit(ctx, branch.ID, g, opts.message, c.Author)
			if err != nil {
				if errors.Is(err, errors.ErrCodeNoChanges) {
					printInfo("%s", friendlyError(err))
					return nil
				}
				printError("%s", friendlyError(err))
				return err
			}

			printSuccess("Committed %s to %s", versionLabel(commit.Version), StyleHighlight.Render(branch.Name))
			printKeyValue("Commit", shortID(commit.ID))
			if commit.Message != "" {
				printKeyValue("Message", commit.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.branch, "branch", "b", vcs.DefaultBranchName, "branch to commit to")
	cmd.Flags().StringVarP(&opts.message, "message", "m", "", "commit message")
	return cmd
}
