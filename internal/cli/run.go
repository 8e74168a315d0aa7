package cli

import (
	stderrors "errors"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/jargo-build/jargo/pkg/classpath"
	"github.com/jargo-build/jargo/pkg/errors"
)

// newRunCmd creates the `jargo run` command: build, then execute the
// app's main class on the runtime classpath. Arguments after `--` pass
// through to the Java program.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [-- args...]",
		Short: "Compile and run the project (app only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := openProject()
			if err != nil {
				return err
			}
			if !p.Manifest.IsApp() {
				return errors.New(errors.ErrCodeRun, "`jargo run` requires an app project (type = \"app\")")
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

			status("Running", "%s", p.Manifest.Package.Name)

			javaArgs := []string{"-cp", classpath.Join(paths.Runtime)}
			javaArgs = append(javaArgs, p.Manifest.Run.JVMArgs...)
			javaArgs = append(javaArgs, p.Manifest.MainClassFQN())
			javaArgs = append(javaArgs, args...)

			java := exec.CommandContext(ctx, "java", javaArgs...)
			java.Dir = p.Root
			java.Stdin = os.Stdin
			java.Stdout = os.Stdout
			java.Stderr = os.Stderr

			if err := java.Run(); err != nil {
				var exitErr *exec.ExitError
				if stderrors.As(err, &exitErr) {
					// The user program failed; propagate its exit code
					// without wrapping it in a jargo error message.
					return &exitError{code: exitErr.ExitCode()}
				}
				var execErr *exec.Error
				if stderrors.As(err, &execErr) && stderrors.Is(execErr.Err, exec.ErrNotFound) {
					return errors.New(errors.ErrCodeToolNotFound, "java not found in PATH")
				}
				return errors.Wrap(errors.ErrCodeRun, err, "failed to invoke java")
			}
			return nil
		},
	}
}
