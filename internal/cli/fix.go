package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jargo-build/jargo/pkg/compiler"
	"github.com/jargo-build/jargo/pkg/errors"
)

var packageDeclRe = regexp.MustCompile(`(?m)^\s*package\s+[\w.]+\s*;`)

// newFixCmd creates the `jargo fix` command: rewrite package declarations
// in src/ and test/ to match each file's location under the base package.
func newFixCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fix",
		Short: "Auto-fix package declarations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject()
			if err != nil {
				return err
			}

			fixed := 0
			for _, dir := range []string{"src", "test"} {
				n, err := fixPackageDecls(p.Root, dir, p.Manifest.BasePackage())
				if err != nil {
					return err
				}
				fixed += n
			}
			if fixed == 0 {
				status("Finished", "all package declarations are correct")
			} else {
				status("Fixed", "%d package declaration(s)", fixed)
			}
			return nil
		},
	}
}

// fixPackageDecls walks a source dir and rewrites wrong or missing
// package declarations. A file at src/util/Foo.java in base package
// "com.example.app" must declare "com.example.app.util".
func fixPackageDecls(root, dir, basePackage string) (int, error) {
	files, err := compiler.FindJavaFiles(filepath.Join(root, dir))
	if err != nil {
		return 0, err
	}

	fixed := 0
	for _, file := range files {
		rel, err := filepath.Rel(filepath.Join(root, dir), file)
		if err != nil {
			return fixed, errors.Wrap(errors.ErrCodeInternal, err, "failed to relativize %s", file)
		}
		want := expectedPackage(basePackage, rel)

		data, err := os.ReadFile(file)
		if err != nil {
			return fixed, errors.Wrap(errors.ErrCodeInternal, err, "failed to read %s", file)
		}
		decl := fmt.Sprintf("package %s;", want)

		var updated string
		if loc := packageDeclRe.FindIndex(data); loc != nil {
			current := strings.TrimSpace(string(data[loc[0]:loc[1]]))
			if current == decl {
				continue
			}
			updated = string(data[:loc[0]]) + decl + string(data[loc[1]:])
		} else {
			updated = decl + "\n\n" + string(data)
		}

		if err := os.WriteFile(file, []byte(updated), 0o644); err != nil {
			return fixed, errors.Wrap(errors.ErrCodeInternal, err, "failed to write %s", file)
		}
		fixed++
	}
	return fixed, nil
}

// expectedPackage derives the package a source file must declare from its
// path relative to the source root.
func expectedPackage(basePackage, rel string) string {
	sub := filepath.Dir(rel)
	if sub == "." {
		return basePackage
	}
	return basePackage + "." + strings.ReplaceAll(filepath.ToSlash(sub), "/", ".")
}
