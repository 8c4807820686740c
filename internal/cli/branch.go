package cli

import (
	"github.com/spf13/cobra"

	"github.com/branchline/branchline/pkg/vcs"
)

// branchCommand groups branch management subcommands.
func (c *CLI) branchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "Manage playbook branches",
	}
	cmd.AddCommand(
		c.branchCreateCommand(),
		c.branchListCommand(),
		c.branchProtectCommand(),
	)
	return cmd
}

type branchCreateOptions struct {
	from string
}

func (c *CLI) branchCreateCommand() *cobra.Command {
	opts := branchCreateOptions{from: vcs.DefaultBranchName}

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a branch from an existing branch head",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)

			s, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			source, err := c.resolveBranch(ctx, s, opts.from)
			if err != nil {
				printError("%s", friendlyError(err))
				return err
			}

			branch, err := s.engine.CreateBranch(ctx, c.Playbook, args[0], source.ID)
			if err != nil {
				printError("%s", friendlyError(err))
				return err
			}

			printSuccess("Created branch %s from %s", StyleHighlight.Render(branch.Name), source.Name)
			if branch.HeadCommitID != "" {
				printKeyValue("Head", shortID(branch.HeadCommitID))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.from, "from", vcs.DefaultBranchName, "branch to fork from")
	return cmd
}

func (c *CLI) branchListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List branches in the playbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)

			s, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			branches, err := s.store.Branches(ctx, c.Playbook)
			if err != nil {
				printError("%s", friendlyError(err))
				return err
			}
			if len(branches) == 0 {
				printInfo("No branches yet, run %s first", styleCommand.Render(appName+" init"))
				return nil
			}

			for _, b := range branches {
				name := StyleHighlight.Render(b.Name)
				head := StyleDim.Render(shortID(b.HeadCommitID))
				line := name + " " + head
				if b.IsProtected {
					line += " " + StyleWarning.Render("(protected)")
				}
				printDetail("%s", line)
			}
			return nil
		},
	}
}

type branchProtectOptions struct {
	off bool
}

func (c *CLI) branchProtectCommand() *cobra.Command {
	opts := branchProtectOptions{}

	cmd := &cobra.Command{
		Use:   "protect NAME",
		Short: "Protect a branch against direct commits",
		Long:  "Protected branches reject direct commits and restores. Merges are still allowed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)

			s, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			branch, err := c.resolveBranch(ctx, s, args[0])
			if err != nil {
				printError("%s", friendlyError(err))
				return err
			}

			if err := s.engine.Protect(ctx, branch.ID, !opts.off); err != nil {
				printError("%s", friendlyError(err))
				return err
			}

			if opts.off {
				printSuccess("Removed protection from %s", StyleHighlight.Render(branch.Name))
			} else {
				printSuccess("Protected %s", StyleHighlight.Render(branch.Name))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.off, "off", false, "remove protection instead")
	return cmd
}
