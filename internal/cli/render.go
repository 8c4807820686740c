package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/branchline/branchline/pkg/dagview"
)

type renderOptions struct {
	output string
	format string
}

// renderCommand creates the "render" command, which writes the commit
// DAG as Graphviz DOT or rendered SVG.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOptions{format: "svg"}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the commit DAG as SVG or DOT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)

			if opts.format != "svg" && opts.format != "dot" {
				return fmt.Errorf("unknown format %q (must be svg or dot)", opts.format)
			}

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

			dot := dagview.ToDOT(view)
			data := []byte(dot)
			if opts.format == "svg" {
				if data, err = dagview.RenderSVG(dot); err != nil {
					printError("SVG rendering failed: %v", err)
					return err
				}
			}

			out := opts.output
			if out == "" {
				out = c.Playbook + "." + opts.format
			}
			if err := os.WriteFile(out, data, 0644); err != nil {
				printError("Failed to write %s: %v", out, err)
				return err
			}

			printSuccess("Rendered %d commit(s)", len(view.Nodes))
			printFile(out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default <playbook>.<format>)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "svg", "output format: svg or dot")
	return cmd
}
