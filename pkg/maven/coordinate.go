// Package maven models Maven Central coordinates and metadata.
//
// The package covers the three metadata concerns the resolver needs:
//
//   - Coordinates and modules ([Coordinate], [Module]) with the path and
//     filename conventions of the repo1.maven.org directory tree.
//   - Version ordering ([CompareVersions]) following Maven's canonical
//     algorithm for common qualifiers.
//   - Artifact metadata in both formats Maven Central serves: POM XML
//     ([Project], with parent-chain merging and property interpolation)
//     and Gradle Module JSON ([GradleModule]).
//
// Both metadata formats normalize into [ProjectMetadata], the only shape
// the resolver consumes.
package maven

import (
	"fmt"
	"strings"
)

// Module identifies a versionless Maven module: the (group, artifact) pair.
// Two coordinates are module-equal when their Module values match.
type Module struct {
	Group    string // dot-separated group ID (e.g., "com.google.guava")
	Artifact string // artifact ID (e.g., "guava")
}

// String returns the "group:artifact" form.
func (m Module) String() string {
	return m.Group + ":" + m.Artifact
}

// Coordinate identifies a concrete artifact version on Maven Central.
type Coordinate struct {
	Module
	Version string // opaque version string, ordered by CompareVersions
}

// String returns the "group:artifact:version" form.
func (c Coordinate) String() string {
	return c.Module.String() + ":" + c.Version
}

// ParseModule splits "group:artifact" into a Module.
// Both parts must be non-empty; anything else is an error.
func ParseModule(s string) (Module, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Module{}, fmt.Errorf("invalid coordinate %q: expected `groupId:artifactId`", s)
	}
	return Module{Group: parts[0], Artifact: parts[1]}, nil
}

// ParseCoordinate splits "group:artifact:version" into a Coordinate.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: expected `groupId:artifactId:version`", s)
	}
	return Coordinate{Module: Module{Group: parts[0], Artifact: parts[1]}, Version: parts[2]}, nil
}

// GroupPath converts a group ID to its repository path segment:
// "com.google.guava" becomes "com/google/guava".
func GroupPath(group string) string {
	return strings.ReplaceAll(group, ".", "/")
}

// FileName builds the standard Maven artifact filename:
// ("guava", "33.0.0-jre", "jar") becomes "guava-33.0.0-jre.jar".
func FileName(artifact, version, ext string) string {
	return artifact + "-" + version + "." + ext
}

// RepoPath returns the repository-relative path for a coordinate and file
// extension, mirroring the Maven Central directory tree:
// "com/google/guava/guava/33.0.0-jre/guava-33.0.0-jre.jar".
func (c Coordinate) RepoPath(ext string) string {
	return fmt.Sprintf("%s/%s/%s/%s",
		GroupPath(c.Group), c.Artifact, c.Version, FileName(c.Artifact, c.Version, ext))
}
