package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jargo-build/jargo/pkg/errors"
	"github.com/jargo-build/jargo/pkg/manifest"
)

// newInitCmd creates the `jargo init` command, which scaffolds a project
// in the current directory using its name.
func newInitCmd() *cobra.Command {
	var lib bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a Jargo project in the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "cannot determine working directory")
			}
			if _, err := os.Stat(filepath.Join(cwd, manifest.FileName)); err == nil {
				return errors.New(errors.ErrCodeProjectExists, "`%s` already exists in current directory", manifest.FileName)
			}

			name := filepath.Base(cwd)
			if name == "." || name == string(filepath.Separator) {
				return errors.New(errors.ErrCodeInvalidName, "could not determine directory name")
			}
			if err := manifest.ValidateName(name); err != nil {
				return err
			}
			if err := scaffold(cwd, name, lib); err != nil {
				return err
			}

			kind := "app"
			if lib {
				kind = "lib"
			}
			status("Created", "%s `%s` package", kind, name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&lib, "lib", false, "create a library project instead of an application")
	return cmd
}
