// cmd/tddflow/main.go
//
// This is the entry point for the tddflow CLI. Running `tddflow` in a project
// opens the interactive shell; the subcommands print a snapshot and exit.

package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/tddflow/internal/tui"
	"github.com/kingrea/tddflow/internal/workflow/registry"
)

var version = "dev"

// options are the persistent flags shared by every subcommand.
type options struct {
	projectRoot string
	catalog     string
	stateFile   string
	logLevel    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "tddflow",
		Short: "Walk components through a test-first review workflow",
		Long: `tddflow tracks every component of a project through the gates of a
test-driven workflow: issue, tests, implementation, documentation, examples.
Components are worked on one at a time, in dependency order.

Run without a subcommand to open the interactive shell.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, opts)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.projectRoot, "project-root", ".", "project directory holding .tddflow/")
	flags.StringVar(&opts.catalog, "catalog", "", "component catalog YAML, relative to the working directory (default: built-in catalog)")
	flags.StringVar(&opts.stateFile, "state", "", "workflow state file, relative to the working directory (default: <project-root>/.workflow_status.json)")
	flags.StringVar(&opts.logLevel, "log-level", "", "structured log level: debug, info, warn, error")

	root.AddCommand(newStatusCmd(opts), newNextCmd(opts), newCatalogCmd())
	return root
}

func runShell(cmd *cobra.Command, opts *options) error {
	sess, err := openSession(opts)
	if err != nil {
		return err
	}
	defer sess.Close()

	app, err := tui.NewApp(sess.engine,
		tui.WithRunner(sess.runner),
		tui.WithHistory(sess.journal),
		tui.WithLogger(sess.logger.Logger),
		tui.WithContext(cmd.Context()),
	)
	if err != nil {
		return err
	}
	sess.journal.Info("session opened in %s", sess.config.ProjectDir)
	defer sess.journal.Info("session closed")

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run shell: %w", err)
	}
	return nil
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print every component with its gate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := openSession(opts)
			if err != nil {
				return err
			}
			defer sess.Close()
			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderStatus(sess.engine.Plan(), sess.engine.Status()))
			return nil
		},
	}
}

func newNextCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Print the current task and what to do next",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := openSession(opts)
			if err != nil {
				return err
			}
			defer sess.Close()
			desc, err := sess.engine.NextAction()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderDescriptor(desc))
			return nil
		},
	}
}

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the built-in component catalog as YAML",
		Long: `Print the built-in component catalog. Save the output, edit it and point
--catalog (or catalog: in .tddflow/config.yaml) at the copy to use your own.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(cmd.OutOrStdout(), registry.DefaultCatalogYAML())
			return nil
		},
	}
}
