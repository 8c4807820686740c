package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/branchline/branchline/pkg/dagview"
)

type historyOptions struct {
	limit int
}

// historyCommand creates the "log" command, which prints the playbook's
// commit history newest first with one color per branch lane.
func (c *CLI) historyCommand() *cobra.Command {
	opts := historyOptions{}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the playbook commit history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)

			s, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			view, err := dagview.Project(ctx, s.store, c.Playbook)
			if err != nil {
				printError("%s", friendlyError(err))
				return err
			}
			if len(view.Nodes) == 0 {
				printInfo("No commits yet")
				return nil
			}

			heads := make(map[string]string, len(view.Heads))
			for branch, commitID := range view.Heads {
				heads[commitID] = branch
			}

			shown := 0
			for i := len(view.Nodes) - 1; i >= 0; i-- {
				if opts.limit > 0 && shown >= opts.limit {
					break
				}
				printHistoryLine(view.Nodes[i], heads)
				shown++
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "show at most N commits (0 for all)")
	return cmd
}

func printHistoryLine(n dagview.Node, heads map[string]string) {
	style := laneStyle(n.Lane)

	line := style.Render(shortID(n.CommitID)) + " " +
		style.Render(fmt.Sprintf("%s %s", n.BranchName, versionLabel(n.Version)))

	if branch, ok := heads[n.CommitID]; ok {
		line += " " + StyleHighlight.Render("(head of "+branch+")")
	}
	if n.IsMerge {
		line += " " + StyleWarning.Render("(merge)")
	}
	if n.Message != "" {
		line += " " + StyleValue.Render(n.Message)
	}
	line += " " + StyleDim.Render(relativeTime(n.CreatedAt))

	fmt.Println(line)
}
