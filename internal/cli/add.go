package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jargo-build/jargo/pkg/manifest"
	"github.com/jargo-build/jargo/pkg/maven"
	"github.com/jargo-build/jargo/pkg/registry"
)

// newAddCmd creates the `jargo add` command: insert a dependency into the
// manifest (querying Maven Central for the latest version when none is
// given) and re-resolve.
func newAddCmd() *cobra.Command {
	var version string
	var scope string
	var expose bool
	var dev bool

	cmd := &cobra.Command{
		Use:   "add <groupId:artifactId>",
		Short: "Add a dependency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := openProject()
			if err != nil {
				return err
			}

			mod, err := maven.ParseModule(args[0])
			if err != nil {
				return err
			}

			if version == "" {
				sp := newSpinner(ctx, "Searching Maven Central")
				sp.Start()
				version, err = registry.NewSearchClient().LatestVersion(ctx, mod)
				sp.Stop()
				if err != nil {
					return err
				}
			}

			dep := manifest.Dependency{Module: mod, Version: version, Scope: scope, Expose: expose}
			if dev {
				p.Manifest.AddDevDependency(dep)
			} else {
				p.Manifest.AddDependency(dep)
			}
			if err := p.Manifest.Save(filepath.Join(p.Root, manifest.FileName)); err != nil {
				return err
			}
			status("Added", "%s %s", mod, version)

			// The manifest changed, so the lock no longer covers it; a full
			// resolution regenerates it.
			if _, err := p.resolve(ctx, true); err != nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "specific version (otherwise queries Maven Central for latest)")
	cmd.Flags().StringVar(&scope, "scope", manifest.ScopeCompile, "dependency scope (compile or runtime)")
	cmd.Flags().BoolVar(&expose, "expose", false, "expose to consumers' compile classpaths (lib projects)")
	cmd.Flags().BoolVar(&dev, "dev", false, "add to [dev-dependencies]")
	return cmd
}
