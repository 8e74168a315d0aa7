package cli

import (
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jargo-build/jargo/pkg/classpath"
	"github.com/jargo-build/jargo/pkg/compiler"
	"github.com/jargo-build/jargo/pkg/errors"
)

// newDocCmd creates the `jargo doc` command: run javadoc over the staged
// source tree into target/doc.
func newDocCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doc",
		Short: "Generate Javadoc",
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

			if _, err := compiler.Stage(p.Root, "target/src-root", "src", p.Manifest.BasePackage()); err != nil {
				return err
			}

			sources, err := compiler.FindJavaFiles(filepath.Join(p.Root, "src"))
			if err != nil {
				return err
			}
			if len(sources) == 0 {
				return errors.New(errors.ErrCodeCompile, "no source files found in src/")
			}

			pkgPath := strings.ReplaceAll(p.Manifest.BasePackage(), ".", "/")
			docArgs := []string{"-d", "target/doc", "-sourcepath", "target/src-root", "-quiet"}
			if cp := dropFirst(paths.Compile); len(cp) > 0 {
				docArgs = append(docArgs, "-classpath", classpath.Join(cp))
			}
			for _, s := range sources {
				rel, err := filepath.Rel(filepath.Join(p.Root, "src"), s)
				if err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "source outside src/: %s", s)
				}
				docArgs = append(docArgs, filepath.Join("target/src-root", pkgPath, rel))
			}

			status("Documenting", "%s v%s", p.Manifest.Package.Name, p.Manifest.Package.Version)

			javadoc := exec.CommandContext(ctx, "javadoc", docArgs...)
			javadoc.Dir = p.Root
			javadoc.Stdout = os.Stdout
			javadoc.Stderr = os.Stderr

			if err := javadoc.Run(); err != nil {
				var exitErr *exec.ExitError
				if stderrors.As(err, &exitErr) {
					return errors.New(errors.ErrCodeCompile, "javadoc failed")
				}
				var execErr *exec.Error
				if stderrors.As(err, &execErr) && stderrors.Is(execErr.Err, exec.ErrNotFound) {
					return errors.New(errors.ErrCodeToolNotFound, "javadoc not found in PATH")
				}
				return errors.Wrap(errors.ErrCodeInternal, err, "failed to invoke javadoc")
			}

			status("Finished", "documentation at target/doc/index.html")
			return nil
		},
	}
}
