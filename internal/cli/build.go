package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jargo-build/jargo/pkg/jar"
)

// newBuildCmd creates the `jargo build` command: resolve, compile,
// assemble the JAR.
func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Compile the project and assemble a JAR",
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

			jarPath, err := jar.Assemble(p.Root, p.Manifest)
			if err != nil {
				return err
			}
			rel, relErr := filepath.Rel(p.Root, jarPath)
			if relErr != nil {
				rel = jarPath
			}
			status("Finished", "JAR at %s", rel)
			return nil
		},
	}
}
