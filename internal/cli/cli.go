package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/branchline/branchline/pkg/buildinfo"
)

const appName = "branchline"

// LogDebug logs a debug message using the logger from the context.
var LogDebug = func(cmd *cobra.Command, msg string, args ...any) {
	loggerFromContext(cmd.Context()).Debug(msg, args...)
}

// LogInfo logs an info message using the logger from the context.
var LogInfo = func(cmd *cobra.Command, msg string, args ...any) {
	loggerFromContext(cmd.Context()).Info(msg, args...)
}

// CLI holds shared state for all commands.
type CLI struct {
	// Logger used by all commands. Commands pass it down through the
	// command context so engine and store calls can log progress.
	Logger *log.Logger

	// ConfigPath overrides the default config file location.
	ConfigPath string

	// Playbook is the playbook every command operates on.
	Playbook string

	// Author is recorded on commits created by this invocation.
	Author string
}

// New creates a CLI writing logs to w at the given level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel adjusts the log level after construction.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand builds the root cobra command with all subcommands
// registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Version control for playbook workflow graphs",
		Long:         "branchline tracks playbook workflow graphs across branches and immutable commits,\nwith three-way merges and node/edge level conflict resolution.",
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default ~/.config/branchline/config.toml)")
	root.PersistentFlags().StringVarP(&c.Playbook, "playbook", "p", "default", "playbook to operate on")
	root.PersistentFlags().StringVar(&c.Author, "author", "", "author recorded on new commits")

	root.AddCommand(
		c.initCommand(),
		c.branchCommand(),
		c.commitCommand(),
		c.mergeCommand(),
		c.restoreCommand(),
		c.historyCommand(),
		c.showCommand(),
		c.renderCommand(),
	)

	return root
}
