package maven

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GradleModule is the subset of a Gradle Module Metadata document
// (the ".module" JSON file) the resolver consumes. See
// https://github.com/gradle/gradle/blob/master/platforms/documentation/docs/src/docs/design/gradle-module-metadata-latest-specification.md
type GradleModule struct {
	FormatVersion string `json:"formatVersion"`
	Component     struct {
		Group   string `json:"group"`
		Module  string `json:"module"`
		Version string `json:"version"`
	} `json:"component"`
	Variants []ModuleVariant `json:"variants"`
}

// ModuleVariant is one published variant (apiElements, runtimeElements,
// sources, javadoc, ...). Only the api and runtime variants matter for
// classpath construction.
type ModuleVariant struct {
	Name         string             `json:"name"`
	Attributes   map[string]any     `json:"attributes"`
	Dependencies []ModuleDependency `json:"dependencies"`
}

// ModuleDependency is a dependency edge inside a variant.
type ModuleDependency struct {
	Group   string `json:"group"`
	Module  string `json:"module"`
	Version struct {
		Requires string `json:"requires"`
		Prefers  string `json:"prefers"`
		Strictly string `json:"strictly"`
	} `json:"version"`
	Excludes []struct {
		Group  string `json:"group"`
		Module string `json:"module"`
	} `json:"excludes"`
}

// requested returns the dependency's requested version, preferring the
// strict constraint when present.
func (d ModuleDependency) requested() string {
	if d.Version.Strictly != "" {
		return d.Version.Strictly
	}
	if d.Version.Requires != "" {
		return d.Version.Requires
	}
	return d.Version.Prefers
}

// ParseGradleModule parses Gradle Module Metadata JSON bytes.
func ParseGradleModule(data []byte) (*GradleModule, error) {
	var gm GradleModule
	if err := json.Unmarshal(data, &gm); err != nil {
		return nil, fmt.Errorf("parse module metadata: %w", err)
	}
	if !strings.HasPrefix(gm.FormatVersion, "1.") {
		return nil, fmt.Errorf("unsupported module metadata format version %q", gm.FormatVersion)
	}
	return &gm, nil
}

// apiVariant and runtimeVariant report whether a variant contributes to
// the compile or runtime classpath of consumers. Matching is by the
// org.gradle.usage attribute with a fallback on conventional names.
func (v ModuleVariant) apiVariant() bool {
	if usage, ok := v.Attributes["org.gradle.usage"].(string); ok {
		return usage == "java-api"
	}
	return v.Name == "apiElements" || v.Name == "api"
}

func (v ModuleVariant) runtimeVariant() bool {
	if usage, ok := v.Attributes["org.gradle.usage"].(string); ok {
		return usage == "java-runtime"
	}
	return v.Name == "runtimeElements" || v.Name == "runtime"
}

// Metadata normalizes the module document into [ProjectMetadata].
// Dependencies of the api variant become compile-scope edges; runtime
// variant dependencies not already present become runtime-scope edges.
func (gm *GradleModule) Metadata() *ProjectMetadata {
	meta := &ProjectMetadata{
		Coordinate: Coordinate{
			Module:  Module{Group: gm.Component.Group, Artifact: gm.Component.Module},
			Version: gm.Component.Version,
		},
	}

	seen := make(map[Module]bool)
	add := func(d ModuleDependency, scope string) {
		mod := Module{Group: d.Group, Artifact: d.Module}
		if seen[mod] {
			return
		}
		version := d.requested()
		if version == "" {
			return
		}
		seen[mod] = true

		info := DepInfo{Module: mod, Version: version, Scope: scope}
		for _, ex := range d.Excludes {
			info.Exclusions = append(info.Exclusions, Module{Group: ex.Group, Artifact: ex.Module})
		}
		meta.Dependencies = append(meta.Dependencies, info)
	}

	for _, v := range gm.Variants {
		if v.apiVariant() {
			for _, d := range v.Dependencies {
				add(d, ScopeCompile)
			}
		}
	}
	for _, v := range gm.Variants {
		if v.runtimeVariant() {
			for _, d := range v.Dependencies {
				add(d, ScopeRuntime)
			}
		}
	}
	return meta
}
