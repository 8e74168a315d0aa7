package maven

import (
	"context"
	"fmt"
	"strings"
)

// Dependency scopes as they appear in upstream metadata. The user manifest
// only accepts compile and runtime; test, provided, and import occur in
// fetched POMs and are handled (or dropped) during mediation.
const (
	ScopeCompile  = "compile"
	ScopeRuntime  = "runtime"
	ScopeTest     = "test"
	ScopeProvided = "provided"
	ScopeImport   = "import"
)

// DepInfo is one direct dependency extracted from artifact metadata,
// normalized across the POM and Gradle module formats.
type DepInfo struct {
	Module
	Version    string
	Scope      string // compile, runtime, test, or provided; never import
	Optional   bool
	Exclusions []Module // pruned from this edge's descendants; "*" wildcards allowed
}

// ManagedDep is a <dependencyManagement> entry: defaults applied to
// matching dependency declarations that omit a version or scope.
type ManagedDep struct {
	Version    string
	Scope      string
	Exclusions []Module
}

// ProjectMetadata is the resolver's view of one artifact: its coordinate,
// direct dependencies, and composed dependency management scope.
type ProjectMetadata struct {
	Coordinate
	Dependencies         []DepInfo
	DependencyManagement map[Module]ManagedDep
}

// POMFetcher retrieves and parses the POM for a coordinate. The artifact
// cache provides the production implementation; tests substitute fakes.
type POMFetcher func(ctx context.Context, coord Coordinate) (*Project, error)

const maxParentDepth = 50

// EffectivePOM builds the effective metadata for proj by walking its
// parent chain, merging inherited sections, composing dependency
// management (including scope=import BOMs), and interpolating properties.
//
// A parent that cannot be fetched fails the build of the effective POM;
// the returned error lists the parent chain walked so far.
func EffectivePOM(ctx context.Context, proj *Project, fetch POMFetcher) (*ProjectMetadata, error) {
	merged, err := mergeParentChain(ctx, proj, fetch)
	if err != nil {
		return nil, err
	}

	owner := merged.Coordinate()
	owner.Group = Interpolate(owner.Group, merged.Properties, Coordinate{})
	owner.Version = Interpolate(owner.Version, merged.Properties, Coordinate{})

	management, err := composeManagement(ctx, merged, owner, fetch)
	if err != nil {
		return nil, err
	}

	meta := &ProjectMetadata{Coordinate: owner, DependencyManagement: management}

	seen := make(map[Module]bool)
	for _, d := range merged.Dependencies {
		info, ok := normalizeDependency(d, merged.Properties, owner, management)
		if !ok || seen[info.Module] {
			continue
		}
		seen[info.Module] = true
		meta.Dependencies = append(meta.Dependencies, info)
	}
	return meta, nil
}

func mergeParentChain(ctx context.Context, proj *Project, fetch POMFetcher) (*Project, error) {
	merged := *proj
	merged.Dependencies = append([]POMDependency(nil), proj.Dependencies...)
	merged.DependencyManagement.Dependencies = append([]POMDependency(nil), proj.DependencyManagement.Dependencies...)

	var chain []string
	visited := map[Coordinate]bool{}
	current := proj

	for depth := 0; current.Parent != nil; depth++ {
		if depth >= maxParentDepth {
			return nil, fmt.Errorf("parent chain exceeds %d levels: %s", maxParentDepth, strings.Join(chain, " -> "))
		}
		parentCoord := current.Parent.Coordinate()
		if visited[parentCoord] {
			break
		}
		visited[parentCoord] = true
		chain = append(chain, parentCoord.String())

		parent, err := fetch(ctx, parentCoord)
		if err != nil {
			return nil, fmt.Errorf("fetch parent %s (chain: %s): %w", parentCoord, strings.Join(chain, " -> "), err)
		}
		MergeParent(&merged, parent)
		current = parent
	}
	return &merged, nil
}

// composeManagement builds the effective dependency management map.
// Entries with scope=import and type=pom pull in a BOM: the BOM's own
// effective management merges into the caller's scope without overriding
// entries the caller already declares.
func composeManagement(ctx context.Context, proj *Project, owner Coordinate, fetch POMFetcher) (map[Module]ManagedDep, error) {
	management := make(map[Module]ManagedDep)

	for _, d := range proj.DependencyManagement.Dependencies {
		group := Interpolate(d.GroupID, proj.Properties, owner)
		artifact := Interpolate(d.ArtifactID, proj.Properties, owner)
		version := Interpolate(d.Version, proj.Properties, owner)
		if unresolved(group) || unresolved(artifact) {
			continue
		}
		mod := Module{Group: group, Artifact: artifact}

		if d.Scope == ScopeImport && d.Type == "pom" {
			if unresolved(version) {
				continue
			}
			bom := Coordinate{Module: mod, Version: version}
			bomProj, err := fetch(ctx, bom)
			if err != nil {
				return nil, fmt.Errorf("fetch bom %s: %w", bom, err)
			}
			bomMeta, err := EffectivePOM(ctx, bomProj, fetch)
			if err != nil {
				return nil, fmt.Errorf("bom %s: %w", bom, err)
			}
			for m, managed := range bomMeta.DependencyManagement {
				if _, exists := management[m]; !exists {
					management[m] = managed
				}
			}
			continue
		}

		if _, exists := management[mod]; exists {
			continue
		}
		managed := ManagedDep{Version: version, Scope: d.Scope}
		for _, ex := range d.Exclusions {
			managed.Exclusions = append(managed.Exclusions, Module{
				Group:    Interpolate(ex.GroupID, proj.Properties, owner),
				Artifact: Interpolate(ex.ArtifactID, proj.Properties, owner),
			})
		}
		management[mod] = managed
	}
	return management, nil
}

// normalizeDependency interpolates, applies management defaults, and
// resolves version ranges for a single declared dependency. It reports
// ok=false for declarations the resolver must skip entirely: unresolvable
// coordinates, non-jar types, and versionless entries with no managed
// version.
func normalizeDependency(d POMDependency, props Properties, owner Coordinate, management map[Module]ManagedDep) (DepInfo, bool) {
	group := Interpolate(d.GroupID, props, owner)
	artifact := Interpolate(d.ArtifactID, props, owner)
	if unresolved(group) || unresolved(artifact) {
		return DepInfo{}, false
	}
	if d.Type != "" && d.Type != "jar" {
		return DepInfo{}, false
	}
	mod := Module{Group: group, Artifact: artifact}
	managed, hasManaged := management[mod]

	version := Interpolate(d.Version, props, owner)
	if version == "" && hasManaged {
		version = managed.Version
	}
	if version == "" || unresolved(version) {
		return DepInfo{}, false
	}
	if IsRange(version) {
		resolved, err := ResolveRange(version)
		if err != nil {
			// Surfaced as UNRESOLVED_VERSION by the resolver; keep the raw
			// range so the error names it.
			return DepInfo{Module: mod, Version: version, Scope: d.Scope}, true
		}
		version = resolved
	}

	scope := d.Scope
	if scope == "" && hasManaged && managed.Scope != "" && managed.Scope != ScopeImport {
		scope = managed.Scope
	}
	if scope == "" {
		scope = ScopeCompile
	}

	info := DepInfo{
		Module:   mod,
		Version:  version,
		Scope:    scope,
		Optional: d.Optional == "true",
	}
	for _, ex := range d.Exclusions {
		info.Exclusions = append(info.Exclusions, Module{
			Group:    Interpolate(ex.GroupID, props, owner),
			Artifact: Interpolate(ex.ArtifactID, props, owner),
		})
	}
	if hasManaged {
		info.Exclusions = append(info.Exclusions, managed.Exclusions...)
	}
	return info, true
}

func unresolved(s string) bool {
	return strings.Contains(s, "${")
}
