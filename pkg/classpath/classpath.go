// Package classpath derives the four classpaths of a build from a
// resolved dependency set.
//
// The four classpaths are:
//
//   - compile: what javac sees for main sources
//   - runtime: what java sees for `jargo run`
//   - test-compile: what javac sees for test sources
//   - test-runtime: what the test harness runs against
//
// Ordering is stable: the project's own output directories first (test
// classes before main classes on the test paths), then resolved artifacts
// in resolution-map iteration order. Each module contributes at most one
// JAR; the resolver guarantees one version per module.
package classpath

import (
	"path/filepath"
	"strings"

	"github.com/jargo-build/jargo/pkg/manifest"
	"github.com/jargo-build/jargo/pkg/maven"
	"github.com/jargo-build/jargo/pkg/resolver"
)

// JUnit artifacts implicitly present on the test classpaths.
var junitArtifacts = []maven.Coordinate{
	{Module: maven.Module{Group: "org.junit.jupiter", Artifact: "junit-jupiter-api"}, Version: "5.10.2"},
	{Module: maven.Module{Group: "org.junit.jupiter", Artifact: "junit-jupiter-engine"}, Version: "5.10.2"},
	{Module: maven.Module{Group: "org.junit.platform", Artifact: "junit-platform-console-standalone"}, Version: "1.10.2"},
}

// JUnitArtifacts returns the coordinates of the implicit test framework.
// The test command fetches these through the artifact cache like any other
// coordinate; they are not recorded in the lock file.
func JUnitArtifacts() []maven.Coordinate {
	return append([]maven.Coordinate(nil), junitArtifacts...)
}

// Paths holds the four ordered, deduplicated classpaths as filesystem
// paths (output directories and cached JARs).
type Paths struct {
	Compile     []string
	Runtime     []string
	TestCompile []string
	TestRuntime []string
}

// Join renders a classpath list in the platform's path-list syntax for
// handing to javac/java.
func Join(paths []string) string {
	return strings.Join(paths, string(filepath.ListSeparator))
}

// Build partitions the resolved set into the four classpaths. The set
// must be materialized (JAR paths filled in). junitJARs are the cached
// paths of [JUnitArtifacts], appended to the test classpaths.
//
// For an app project the compile classpath carries every compile-scope
// artifact, and `expose` is ignored entirely. For a lib project only
// `expose = true` direct dependencies (and the transitives they reach
// through compile-scope edges) are visible at compile time; everything
// else is deferred to the runtime classpath.
func Build(set *resolver.Set, m *manifest.Manifest, targetDir string, junitJARs []string) *Paths {
	classes := filepath.Join(targetDir, "classes")
	testClasses := filepath.Join(targetDir, "test-classes")

	compileMods := compileVisible(set, m)

	var compile, runtime []string
	compile = append(compile, classes)
	runtime = append(runtime, classes)

	for _, n := range set.Nodes {
		switch n.Scope {
		case resolver.ScopeCompile:
			if compileMods[n.Module] {
				compile = append(compile, n.Path)
			}
			runtime = append(runtime, n.Path)
		case resolver.ScopeRuntime:
			runtime = append(runtime, n.Path)
		}
	}

	testCompile := append([]string{testClasses}, compile...)
	testRuntime := append([]string{testClasses}, runtime...)
	for _, n := range set.Nodes {
		if n.Scope == resolver.ScopeTest {
			testCompile = append(testCompile, n.Path)
			testRuntime = append(testRuntime, n.Path)
		}
	}
	testCompile = append(testCompile, junitJARs...)
	testRuntime = append(testRuntime, junitJARs...)

	return &Paths{
		Compile:     compile,
		Runtime:     runtime,
		TestCompile: testCompile,
		TestRuntime: testRuntime,
	}
}

// compileVisible returns the set of modules visible on the compile
// classpath. For apps that is every compile-scope module. For libs it is
// the exposed direct dependencies plus the modules they reach through
// compile-scope edges.
func compileVisible(set *resolver.Set, m *manifest.Manifest) map[maven.Module]bool {
	visible := make(map[maven.Module]bool)

	if m.IsApp() {
		for _, n := range set.Nodes {
			if n.Scope == resolver.ScopeCompile {
				visible[n.Module] = true
			}
		}
		return visible
	}

	// Compile-scope adjacency from the resolved graph.
	children := make(map[maven.Module][]maven.Module)
	for _, e := range set.Graph.Edges() {
		if e.Scope == resolver.ScopeCompile {
			children[e.From] = append(children[e.From], e.To)
		}
	}

	var walk func(mod maven.Module)
	walk = func(mod maven.Module) {
		if visible[mod] {
			return
		}
		visible[mod] = true
		for _, child := range children[mod] {
			walk(child)
		}
	}
	for _, d := range m.Dependencies() {
		if d.Expose && d.Scope == manifest.ScopeCompile {
			walk(d.Module)
		}
	}
	return visible
}
