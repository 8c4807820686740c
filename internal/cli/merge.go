package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/branchline/branchline/pkg/errors"
	"github.com/branchline/branchline/pkg/vcs"
)

type mergeOptions struct {
	into        string
	message     string
	resolve     []string
	interactive bool
}

// mergeCommand creates the "merge" command, which merges one branch into
// another with three-way conflict detection. Conflicts can be resolved
// via --resolve flags or an interactive picker.
func (c *CLI) mergeCommand() *cobra.Command {
	opts := mergeOptions{into: vcs.DefaultBranchName}

	cmd := &cobra.Command{
		Use:   "merge SOURCE",
		Short: "Merge a branch into another",
		Long: "Merge SOURCE into the target branch using the nearest common ancestor.\n" +
			"Conflicting node and edge changes must be resolved with --resolve\n" +
			"(e.g. --resolve node:task-1=ours) or interactively with --interactive.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)

			resolutions, err := parseResolutions(opts.resolve)
			if err != nil {
				printError("%s", friendlyError(err))
				return err
			}

			s, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			source, err := c.resolveBranch(ctx, s, args[0])
			if err != nil {
				printError("%s", friendlyError(err))
				return err
			}
			target, err := c.resolveBranch(ctx, s, opts.into)
			if err != nil {
				printError("%s", friendlyError(err))
				return err
			}

			req := vcs.MergeRequest{
				PlaybookID:     c.Playbook,
				SourceBranchID: source.ID,
				TargetBranchID: target.ID,
				Message:        opts.message,
				AuthorID:       c.Author,
				Resolutions:    resolutions,
			}

			outcome, err := s.engine.Merge(ctx, req)
			if err != nil {
				printError("%s", friendlyError(err))
				return err
			}

			if len(outcome.Conflicts) > 0 && opts.interactive {
				picked, ok, pickErr := pickResolutions(outcome.Conflicts)
				if pickErr != nil {
					printError("Conflict picker failed: %v", pickErr)
					return pickErr
				}
				if !ok {
					printWarning("Merge aborted, no commit was created")
					return nil
				}
				req.Resolutions = append(req.Resolutions, picked...)
				outcome, err = s.engine.Merge(ctx, req)
				if err != nil {
					printError("%s", friendlyError(err))
					return err
				}
			}

			if len(outcome.Conflicts) > 0 {
				printWarning("Merge stopped: %d unresolved conflict(s)", len(outcome.Conflicts))
				for _, conflict := range outcome.Conflicts {
					printDetail("%s (%s)", conflict.Key(), conflict.Kind)
				}
				printNewline()
				printNextStep("Resolve and retry", appName+" merge "+source.Name+" --into "+target.Name+" --resolve "+outcome.Conflicts[0].Key()+"=ours")
				return nil
			}

			printSuccess("Merged %s into %s", StyleHighlight.Render(source.Name), StyleHighlight.Render(target.Name))
			printKeyValue("Commit", shortID(outcome.Commit.ID))
			printKeyValue("Version", versionLabel(outcome.Commit.Version))
			printKeyValue("Ancestor", shortID(outcome.AncestorID))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.into, "into", vcs.DefaultBranchName, "branch to merge into")
	cmd.Flags().StringVarP(&opts.message, "message", "m", "", "merge commit message")
	cmd.Flags().StringArrayVar(&opts.resolve, "resolve", nil, "conflict resolution, e.g. node:task-1=ours or edge:e2=theirs (repeatable)")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "resolve conflicts with an interactive picker")
	return cmd
}

// parseResolutions parses "node:<id>=ours" / "edge:<id>=theirs" specs.
func parseResolutions(specs []string) ([]vcs.Resolution, error) {
	resolutions := make([]vcs.Resolution, 0, len(specs))
	for _, spec := range specs {
		key, choice, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidResolution,
				"resolution %q must look like node:<id>=ours or edge:<id>=theirs", spec)
		}

		r := vcs.Resolution{Choice: vcs.Choice(choice)}
		switch {
		case strings.HasPrefix(key, "node:"):
			r.NodeID = strings.TrimPrefix(key, "node:")
		case strings.HasPrefix(key, "edge:"):
			r.EdgeID = strings.TrimPrefix(key, "edge:")
		default:
			return nil, errors.New(errors.ErrCodeInvalidResolution,
				"resolution %q must target node:<id> or edge:<id>", spec)
		}
		if r.NodeID == "" && r.EdgeID == "" {
			return nil, errors.New(errors.ErrCodeInvalidResolution,
				"resolution %q has an empty entity ID", spec)
		}
		resolutions = append(resolutions, r)
	}
	return resolutions, nil
}
