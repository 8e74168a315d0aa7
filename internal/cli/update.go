package cli

import (
	"github.com/spf13/cobra"
)

// newUpdateCmd creates the `jargo update` command: discard the existing
// lock, re-resolve from the manifest, and write a fresh lock.
func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Re-resolve dependencies and regenerate the lock file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject()
			if err != nil {
				return err
			}
			set, err := p.resolve(cmd.Context(), false)
			if err != nil {
				return err
			}
			status("Updated", "%d dependencies pinned", len(set.Nodes))
			return nil
		},
	}
}
