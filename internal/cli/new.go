package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jargo-build/jargo/pkg/errors"
	"github.com/jargo-build/jargo/pkg/manifest"
)

// newNewCmd creates the `jargo new` command.
func newNewCmd() *cobra.Command {
	var lib bool

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a new Jargo project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := manifest.ValidateName(name); err != nil {
				return err
			}
			if _, err := os.Stat(name); err == nil {
				return errors.New(errors.ErrCodeProjectExists, "destination `%s` already exists", name)
			}
			if err := os.Mkdir(name, 0o755); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "failed to create directory `%s`", name)
			}
			if err := scaffold(name, name, lib); err != nil {
				return err
			}
			gitInit(name)

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
