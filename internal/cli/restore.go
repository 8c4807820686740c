package cli

import (
	"github.com/spf13/cobra"

	"github.com/branchline/branchline/pkg/vcs"
)

type restoreOptions struct {
	branch  string
	message string
}

// restoreCommand creates the "restore" command, which records a new
// commit carrying the graph of an older commit. History is never
// rewritten; restores move forward like any other commit.
func (c *CLI) restoreCommand() *cobra.Command {
	opts := restoreOptions{branch: vcs.DefaultBranchName}

	cmd := &cobra.Command{
		Use:   "restore COMMIT",
		Short: "Restore an earlier commit's graph as a new commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)

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

			commit, err := s.engine.Restore(ctx, branch.ID, args[0], opts.message, c.Author)
			if err != nil {
				printError("%s", friendlyError(err))
				return err
			}

			printSuccess("Restored onto %s as %s", StyleHighlight.Render(branch.Name), versionLabel(commit.Version))
			printKeyValue("Commit", shortID(commit.ID))
			printKeyValue("Message", commit.Message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.branch, "branch", "b", vcs.DefaultBranchName, "branch to restore onto")
	cmd.Flags().StringVarP(&opts.message, "message", "m", "", "commit message (default \"Restore version N\")")
	return cmd
}
