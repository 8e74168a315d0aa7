package cli

import (
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jargo-build/jargo/pkg/compiler"
	"github.com/jargo-build/jargo/pkg/errors"
	"github.com/jargo-build/jargo/pkg/maven"
)

// formatterCoord pins the google-java-format release Jargo runs. The JAR
// is fetched through the artifact cache like any other coordinate.
var formatterCoord = maven.Coordinate{
	Module:  maven.Module{Group: "com.google.googlejavaformat", Artifact: "google-java-format"},
	Version: "1.19.2",
}

// newFmtCmd creates the `jargo fmt` command.
func newFmtCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fmt",
		Short: "Format source files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject()
			if err != nil {
				return err
			}
			if err := runFormatter(cmd.Context(), p, false); err != nil {
				return err
			}
			status("Formatted", "src/ and test/")
			return nil
		},
	}
}

// runFormatter invokes google-java-format over every source file. In
// check mode nothing is rewritten; differing files fail with FORMAT_FAILED.
func runFormatter(ctx context.Context, p *project, check bool) error {
	jarPath, _, err := p.Cache.FetchJAR(ctx, formatterCoord, "")
	if err != nil {
		return err
	}

	var sources []string
	for _, dir := range []string{"src", "test"} {
		files, err := compiler.FindJavaFiles(filepath.Join(p.Root, dir))
		if err != nil {
			return err
		}
		sources = append(sources, files...)
	}
	if len(sources) == 0 {
		return nil
	}

	args := []string{"-jar", jarPath}
	if p.Manifest.Format.Indent == 4 {
		// google-java-format's AOSP style is the 4-space variant; the
		// default Google style indents by 2.
		args = append(args, "--aosp")
	}
	if check {
		args = append(args, "--dry-run", "--set-exit-if-changed")
	} else {
		args = append(args, "--replace")
	}
	args = append(args, sources...)

	java := exec.CommandContext(ctx, "java", args...)
	java.Dir = p.Root
	java.Stdout = os.Stdout
	java.Stderr = os.Stderr

	if err := java.Run(); err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			if check {
				return errors.New(errors.ErrCodeFormat, "source files are not formatted (run `jargo fmt`)")
			}
			return errors.New(errors.ErrCodeFormat, "formatter failed")
		}
		var execErr *exec.Error
		if stderrors.As(err, &execErr) && stderrors.Is(execErr.Err, exec.ErrNotFound) {
			return errors.New(errors.ErrCodeToolNotFound, "java not found in PATH")
		}
		return errors.Wrap(errors.ErrCodeFormat, err, "failed to invoke the formatter")
	}
	return nil
}
