// Package jar assembles the project JAR from compiled classes.
//
// The archive carries a generated META-INF/MANIFEST.MF (with a Main-Class
// entry for app projects) followed by the target/classes tree. Entries are
// written in sorted path order so repeated builds of identical classes
// produce identical archives.
package jar

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/jargo-build/jargo/pkg/errors"
	"github.com/jargo-build/jargo/pkg/manifest"
)

// Assemble writes target/<name>.jar from the classes directory and
// returns its path.
func Assemble(projectRoot string, m *manifest.Manifest) (string, error) {
	jarPath := filepath.Join(projectRoot, "target", m.Package.Name+".jar")

	f, err := os.Create(jarPath)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "failed to create %s", jarPath)
	}
	defer f.Close()

	w := zip.NewWriter(f)

	if err := writeManifest(w, m); err != nil {
		return "", err
	}
	classesDir := filepath.Join(projectRoot, "target", "classes")
	if err := addTree(w, classesDir); err != nil {
		return "", err
	}

	if err := w.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "failed to finish %s", jarPath)
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "failed to finish %s", jarPath)
	}
	return jarPath, nil
}

// ManifestContent renders the META-INF/MANIFEST.MF body for a project.
func ManifestContent(m *manifest.Manifest) string {
	content := "Manifest-Version: 1.0\n"
	if m.IsApp() {
		content += fmt.Sprintf("Main-Class: %s\n", m.MainClassFQN())
	}
	return content
}

func writeManifest(w *zip.Writer, m *manifest.Manifest) error {
	entry, err := w.Create("META-INF/MANIFEST.MF")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to start MANIFEST.MF")
	}
	if _, err := io.WriteString(entry, ManifestContent(m)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to write MANIFEST.MF")
	}
	return nil
}

// addTree adds every file under dir to the archive, paths relative to dir
// with forward slashes, sorted. A missing classes directory contributes
// nothing (a project can be all resources).
func addTree(w *zip.Writer, dir string) error {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return filepath.SkipAll
			}
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to scan %s", dir)
	}
	sort.Strings(files)

	for _, path := range files {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "failed to relativize %s", path)
		}
		name := filepath.ToSlash(rel)
		entry, err := w.Create(name)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "failed to start %s in JAR", name)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "failed to read %s", path)
		}
		if _, err := entry.Write(data); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "failed to write %s to JAR", name)
		}
	}
	return nil
}
