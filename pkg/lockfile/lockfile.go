// Package lockfile models the Jargo.lock pinned-resolution file.
//
// The lock file is a TOML document with a single repeated [[dependency]]
// array of tables:
//
//	[[dependency]]
//	group = "com.google.guava"
//	artifact = "guava"
//	version = "33.0.0-jre"
//	sha256 = "abcdef..."
//
// Entries are unique per (group, artifact) and serialized in lexicographic
// (group, artifact) order so that two identical resolutions produce
// byte-identical lock files.
package lockfile

import (
	"bytes"
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/jargo-build/jargo/pkg/errors"
	"github.com/jargo-build/jargo/pkg/maven"
)

// FileName is the lock file name in a project root.
const FileName = "Jargo.lock"

// Entry is a single pinned dependency.
type Entry struct {
	Group    string `toml:"group"`
	Artifact string `toml:"artifact"`
	Version  string `toml:"version"`
	SHA256   string `toml:"sha256"`
}

// Module returns the entry's module identity.
func (e Entry) Module() maven.Module {
	return maven.Module{Group: e.Group, Artifact: e.Artifact}
}

// Coordinate returns the entry's pinned coordinate.
func (e Entry) Coordinate() maven.Coordinate {
	return maven.Coordinate{Module: e.Module(), Version: e.Version}
}

// File is a parsed Jargo.lock.
type File struct {
	Dependency []Entry `toml:"dependency"`
}

// New creates an empty lock file.
func New() *File {
	return &File{}
}

// Read parses the lock file at path. A missing file returns the os error
// unwrapped, so os.IsNotExist reports it and callers can treat it as
// "no lock yet".
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeLockParse, err, "failed to read %s", path)
	}
	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLockParse, err, "failed to parse %s", path)
	}
	return &f, nil
}

// Add inserts or replaces the entry for its (group, artifact).
func (f *File) Add(e Entry) {
	for i, existing := range f.Dependency {
		if existing.Group == e.Group && existing.Artifact == e.Artifact {
			f.Dependency[i] = e
			return
		}
	}
	f.Dependency = append(f.Dependency, e)
}

// Lookup returns the entry for a module, if present.
func (f *File) Lookup(mod maven.Module) (Entry, bool) {
	for _, e := range f.Dependency {
		if e.Group == mod.Group && e.Artifact == mod.Artifact {
			return e, true
		}
	}
	return Entry{}, false
}

// sorted returns the entries in lexicographic (group, artifact) order.
func (f *File) sorted() []Entry {
	out := append([]Entry(nil), f.Dependency...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Artifact < out[j].Artifact
	})
	return out
}

// Encode serializes the lock file with entries in lexicographic order.
func (f *File) Encode() ([]byte, error) {
	normalized := File{Dependency: f.sorted()}
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(normalized); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to serialize lock file")
	}
	return buf.Bytes(), nil
}

// Write serializes and writes the lock file to path.
func (f *File) Write(path string) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to write %s", path)
	}
	return nil
}
