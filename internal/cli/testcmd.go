package cli

import (
	stderrors "errors"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/jargo-build/jargo/pkg/classpath"
	"github.com/jargo-build/jargo/pkg/errors"
)

// consoleLauncher is the JUnit Platform entry point bundled via the
// implicit junit-platform-console-standalone artifact.
const consoleLauncher = "org.junit.platform.console.ConsoleLauncher"

// newTestCmd creates the `jargo test` command: compile main and test
// sources, then run the JUnit Platform console launcher over the
// test-runtime classpath.
func newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run tests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := openProject()
			if err != nil {
				return err
			}

			set, err := p.resolve(ctx, true)
			if err != nil {
				return err
			}
			paths, err := p.classpaths(ctx, set)
			if err != nil {
				return err
			}
			if err := p.compileMain(ctx, paths.Compile); err != nil {
				return err
			}
			if err := p.compileTests(ctx, paths.TestCompile); err != nil {
				return err
			}

			status("Testing", "%s", p.Manifest.Package.Name)

			javaArgs := []string{
				"-cp", classpath.Join(paths.TestRuntime),
				consoleLauncher,
				"execute",
				"--scan-class-path", "target/test-classes",
				"--disable-banner",
			}
			java := exec.CommandContext(ctx, "java", javaArgs...)
			java.Dir = p.Root
			java.Stdout = os.Stdout
			java.Stderr = os.Stderr

			if err := java.Run(); err != nil {
				var exitErr *exec.ExitError
				if stderrors.As(err, &exitErr) {
					return errors.New(errors.ErrCodeTest, "tests failed")
				}
				var execErr *exec.Error
				if stderrors.As(err, &execErr) && stderrors.Is(execErr.Err, exec.ErrNotFound) {
					return errors.New(errors.ErrCodeToolNotFound, "java not found in PATH")
				}
				return errors.Wrap(errors.ErrCodeTest, err, "failed to invoke the test harness")
			}
			return nil
		},
	}
}
