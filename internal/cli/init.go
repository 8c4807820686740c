package cli

import (
	"github.com/spf13/cobra"

	"github.com/branchline/branchline/pkg/graph"
)

type initOptions struct {
	message string
}

// initCommand creates the "init" command, which starts version control
// for a playbook from an initial graph file.
func (c *CLI) initCommand() *cobra.Command {
	opts := initOptions{}

	cmd := &cobra.Command{
		Use:   "init GRAPH_FILE",
		Short: "Start version control for a playbook",
		Long:  "Create the main branch and an initial commit from a graph file (JSON or YAML).",
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

			branch, commit, err := s.engine.Init(ctx, c.Playbook, g, opts.message, c.Author)
			if err != nil {
				printError("%s", friendlyError(err))
				return err
			}

			printSuccess("Initialized playbook %s", StyleHighlight.Render(c.Playbook))
			printKeyValue("Branch", branch.Name)
			printKeyValue("Commit", shortID(commit.ID))
			printKeyValue("Version", versionLabel(commit.Version))
			printNewline()
			printNextStep("Create a branch", appName+" branch create my-feature")
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.message, "message", "m", "", "commit message (default \"Initial commit\")")
	return cmd
}
