package cli

import (
	"github.com/spf13/cobra"
)

// newCheckCmd creates the `jargo check` command: compile without
// assembling a JAR. With --fmt, also verify formatting.
func newCheckCmd() *cobra.Command {
	var checkFmt bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the project for errors without producing a JAR",
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
			if checkFmt {
				if err := runFormatter(ctx, p, true); err != nil {
					return err
				}
			}
			status("Finished", "no errors found")
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkFmt, "fmt", false, "also check formatting")
	return cmd
}
