package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jargo-build/jargo/pkg/errors"
)

// newCleanCmd creates the `jargo clean` command: remove target/ wholesale.
func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the target directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject()
			if err != nil {
				return err
			}
			target := filepath.Join(p.Root, "target")
			if err := os.RemoveAll(target); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "failed to remove %s", target)
			}
			status("Cleaned", "target/")
			return nil
		},
	}
}
