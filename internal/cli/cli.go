// Package cli implements the jargo command-line interface.
//
// This package provides the Cargo-style command surface over the core
// libraries: project scaffolding (new, init), the build pipeline (build,
// run, test, check, clean), dependency management (add, update, tree),
// and source tooling (fmt, fix, doc). The CLI is built using cobra and
// supports verbose logging via the charmbracelet/log library.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context so the core packages stay logger-agnostic.
//
// # Example
//
//	import "github.com/jargo-build/jargo/internal/cli"
//
//	func main() {
//	    os.Exit(cli.Main())
//	}
package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jargo-build/jargo/pkg/buildinfo"
	"github.com/jargo-build/jargo/pkg/errors"
)

// exitError carries a child process exit code through the command tree so
// `jargo run` can propagate the user program's status unchanged.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Execute runs the jargo CLI and returns an error if any command fails.
func Execute() error {
	var verbose bool

	root := &cobra.Command{
		Use:           "jargo",
		Short:         "A Cargo-inspired build tool for Java",
		Long:          `Jargo builds Java projects the way Cargo builds Rust: one TOML manifest, a flat source tree, and a lock file pinning transitive dependencies from Maven Central.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newNewCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newBuildCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newTestCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newCleanCmd())
	root.AddCommand(newAddCmd())
	root.AddCommand(newUpdateCmd())
	root.AddCommand(newTreeCmd())
	root.AddCommand(newFmtCmd())
	root.AddCommand(newFixCmd())
	root.AddCommand(newDocCmd())

	return root.ExecuteContext(context.Background())
}

// Main runs the CLI and maps the outcome to a process exit code: 0 on
// success, 1 on user errors, 2 on internal errors, 101 on panic. A
// `jargo run` whose program exited non-zero propagates that code.
func Main() (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "jargo panicked: %v\n", r)
			code = errors.ExitPanic
		}
	}()

	err := Execute()
	if err == nil {
		return errors.ExitOK
	}

	var exit *exitError
	if stderrors.As(err, &exit) {
		return exit.code
	}

	printError(err)
	return errors.ExitCode(err)
}

// printError renders the single-line summary followed by the structured
// context block (dependency chain, diagnostic excerpt).
func printError(err error) {
	fmt.Fprintln(os.Stderr, StyleError.Render("error:")+" "+errors.UserMessage(err))
	for _, line := range errors.GetContext(err) {
		fmt.Fprintln(os.Stderr, StyleDim.Render("  "+line))
	}
}
