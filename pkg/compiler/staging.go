package compiler

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jargo-build/jargo/pkg/errors"
)

// Stage presents a flat source tree to javac as if it were nested under
// the base package. For base package "a.b.c" and staging dir
// "target/src-root", the result is:
//
//	target/src-root/a/b/c -> ../../../../src  (single directory symlink)
//
// The symlink target is relative, so moving the project directory does not
// invalidate staging. A prior staging tree for a different base package is
// removed first. On filesystems where directory symlinks fail, staging
// falls back to per-file symlinks, then to plain copies; the fallback is
// transparent to callers.
//
// Returns the absolute staging root to pass to javac's -sourcepath.
func Stage(projectRoot, stagingDir, sourceDir, basePackage string) (string, error) {
	root := filepath.Join(projectRoot, stagingDir)
	pkgPath := filepath.FromSlash(strings.ReplaceAll(basePackage, ".", "/"))
	linkPath := filepath.Join(root, pkgPath)
	linkDir := filepath.Dir(linkPath)

	relTarget, err := filepath.Rel(linkDir, filepath.Join(projectRoot, sourceDir))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStaging, err, "cannot express %s relative to staging tree", sourceDir)
	}

	// Reuse an intact staging tree for the same base package.
	if current, err := os.Readlink(linkPath); err == nil && current == relTarget {
		return root, nil
	}
	if _, err := os.Lstat(root); err == nil {
		if err := os.RemoveAll(root); err != nil {
			return "", errors.Wrap(errors.ErrCodeStaging, err, "failed to remove stale staging tree %s", root)
		}
	}

	if err := os.MkdirAll(linkDir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeStaging, err, "failed to create staging tree %s", linkDir)
	}

	if err := os.Symlink(relTarget, linkPath); err == nil {
		return root, nil
	}

	// Directory symlink unavailable: per-file symlinks, then copies.
	if err := stageFiles(filepath.Join(projectRoot, sourceDir), linkPath); err != nil {
		return "", err
	}
	return root, nil
}

// stageFiles mirrors srcDir under destDir one file at a time, preferring
// relative symlinks and copying where even those fail. Slower than the
// single directory symlink but produces identical javac behavior.
func stageFiles(srcDir, destDir string) error {
	err := filepath.WalkDir(srcDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(destDir, rel)
		if d.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}

		relTarget, err := filepath.Rel(filepath.Dir(dest), path)
		if err != nil {
			return err
		}
		if err := os.Symlink(relTarget, dest); err == nil {
			return nil
		}
		return copyFile(path, dest)
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStaging, err, "failed to stage sources from %s", srcDir)
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// CopyResources copies the resources/ tree (when present) into the output
// directory so the JAR and the runtime classpath see them.
func CopyResources(projectRoot, outputDir string) error {
	resources := filepath.Join(projectRoot, "resources")
	info, err := os.Stat(resources)
	if err != nil || !info.IsDir() {
		return nil
	}
	err = filepath.WalkDir(resources, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(resources, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(outputDir, rel)
		if d.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}
		return copyFile(path, dest)
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to copy resources")
	}
	return nil
}
