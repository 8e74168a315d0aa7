// Package resolver builds the pinned dependency set for a project.
//
// Resolution is a breadth-first traversal from the manifest's direct
// declarations. Worker goroutines fetch artifact metadata concurrently
// (Gradle Module JSON preferred, POM XML with parent-chain merging as the
// fallback) while a single owner goroutine applies every mutation to the
// resolution map, so the map needs no locking and the outcome is
// independent of download completion order.
//
// Version conflicts resolve highest-wins: when a later observation names a
// higher version for an already-pinned module, the pin moves up and the
// newly pinned coordinate re-enters the traversal so its subtree is
// re-walked against the new metadata. The version order within one run
// only ever moves up, which bounds re-propagation. Cycles in the raw graph
// terminate naturally: a revisit at an already-seen coordinate and scope
// is dropped at the frontier.
package resolver

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jargo-build/jargo/pkg/cache"
	"github.com/jargo-build/jargo/pkg/depgraph"
	"github.com/jargo-build/jargo/pkg/errors"
	"github.com/jargo-build/jargo/pkg/lockfile"
	"github.com/jargo-build/jargo/pkg/manifest"
	"github.com/jargo-build/jargo/pkg/maven"
	"github.com/jargo-build/jargo/pkg/observability"
)

// DefaultWorkers bounds outstanding metadata fetches.
const DefaultWorkers = 8

// Effective scopes carried by resolved nodes.
const (
	ScopeCompile = maven.ScopeCompile
	ScopeRuntime = maven.ScopeRuntime
	ScopeTest    = maven.ScopeTest
)

// Source provides artifact metadata and files. *cache.Cache is the
// production implementation; tests substitute in-memory fakes.
type Source interface {
	FetchMetadata(ctx context.Context, coord maven.Coordinate) ([]byte, cache.MetadataFormat, error)
	FetchPOM(ctx context.Context, coord maven.Coordinate) ([]byte, error)
	FetchJAR(ctx context.Context, coord maven.Coordinate, pinned string) (path string, sha256 string, err error)
}

// Resolved is one pinned module in the resolved set.
type Resolved struct {
	maven.Coordinate
	Scope  string // effective scope: compile, runtime, or test
	SHA256 string // filled by Materialize
	Path   string // cached JAR path, filled by Materialize
}

// Set is the output of a resolution run: the pinned modules in resolution
// map iteration order (sorted by module identity) plus the dependency
// graph for tree rendering and origin-path reporting.
type Set struct {
	Nodes []Resolved
	Graph *depgraph.Graph

	index map[maven.Module]int
}

// Lookup returns the resolved node for a module, if pinned.
func (s *Set) Lookup(mod maven.Module) (*Resolved, bool) {
	i, ok := s.index[mod]
	if !ok {
		return nil, false
	}
	return &s.Nodes[i], true
}

// Lock converts the materialized set into a lock file. Nodes must carry
// checksums; call Materialize first.
func (s *Set) Lock() *lockfile.File {
	f := lockfile.New()
	for _, n := range s.Nodes {
		f.Add(lockfile.Entry{Group: n.Group, Artifact: n.Artifact, Version: n.Version, SHA256: n.SHA256})
	}
	return f
}

// Options configures a Resolver.
type Options struct {
	Workers int                  // outstanding fetches, default 8
	Logger  func(string, ...any) // progress/debug callback (optional)
}

// Resolver resolves manifests against a metadata source.
type Resolver struct {
	source  Source
	workers int
	logf    func(string, ...any)
}

// New creates a Resolver over the given source.
func New(source Source, opts *Options) *Resolver {
	r := &Resolver{source: source, workers: DefaultWorkers, logf: func(string, ...any) {}}
	if opts != nil {
		if opts.Workers > 0 {
			r.workers = opts.Workers
		}
		if opts.Logger != nil {
			r.logf = opts.Logger
		}
	}
	return r
}

// LockSatisfies reports whether every direct declaration of the manifest
// is present in the lock at the same version. When it holds, a build can
// trust the lock's pins and checksums; when it fails (a declaration was
// added or its version changed), the lock is stale and a full resolution
// regenerates it. A declaration removed from the manifest does not make
// the lock stale: its entries stay in the lock.
func LockSatisfies(m *manifest.Manifest, lock *lockfile.File) bool {
	if lock == nil {
		return false
	}
	for _, d := range append(m.Dependencies(), m.DevDependencies()...) {
		e, ok := lock.Lookup(d.Module)
		if !ok || e.Version != d.Version {
			return false
		}
	}
	return true
}

// declaration is a direct dependency with its root scope.
type declaration struct {
	coord maven.Coordinate
	scope string
}

func directDeclarations(m *manifest.Manifest) []declaration {
	var decls []declaration
	for _, d := range m.Dependencies() {
		scope := ScopeCompile
		if d.Scope == manifest.ScopeRuntime {
			scope = ScopeRuntime
		}
		decls = append(decls, declaration{coord: d.Coordinate(), scope: scope})
	}
	for _, d := range m.DevDependencies() {
		decls = append(decls, declaration{coord: d.Coordinate(), scope: ScopeTest})
	}
	return decls
}

// Resolve walks the manifest's dependency graph and returns the pinned
// set. The lock, when given and satisfied by the manifest, acts as a
// version oracle so re-resolution reproduces it exactly; pass nil to
// ignore it (the `update` path).
func (r *Resolver) Resolve(ctx context.Context, m *manifest.Manifest, lock *lockfile.File) (*Set, error) {
	decls := directDeclarations(m)

	start := time.Now()
	observability.Resolver().OnResolveStart(ctx, len(decls))

	// A run-scoped context tears down workers and in-flight handoffs on
	// any exit path, including resolution errors.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	run := &resolution{
		resolver: r,
		ctx:      runCtx,
		graph:    depgraph.New(),
		pinned:   make(map[maven.Module]*pin),
		seen:     make(map[frontierKey]bool),
		jobs:     make(chan job, r.workers*2),
		results:  make(chan result, r.workers*2),
	}
	if lock != nil && LockSatisfies(m, lock) {
		run.oracle = lock
	}

	set, err := run.run(decls)
	observability.Resolver().OnResolveComplete(ctx, run.graph.Len(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return set, nil
}

// pin is the resolution map entry for one module.
type pin struct {
	version string
	scope   string
}

// frontierKey guards the traversal frontier: one visit per coordinate and
// parent scope. Keying by scope (not just coordinate) lets a scope upgrade
// re-propagate through an already-walked subtree, while cycles at a stable
// scope terminate immediately.
type frontierKey struct {
	coord maven.Coordinate
	scope string
}

type job struct {
	coord      maven.Coordinate
	scope      string // effective scope of this node
	origin     []maven.Module
	exclusions []maven.Module
}

type result struct {
	job
	meta *maven.ProjectMetadata
	err  error
}

type resolution struct {
	resolver *Resolver
	ctx      context.Context
	oracle   *lockfile.File

	graph  *depgraph.Graph
	pinned map[maven.Module]*pin
	seen   map[frontierKey]bool

	jobs    chan job
	results chan result
	pending int
}

func (run *resolution) run(decls []declaration) (*Set, error) {
	for range run.resolver.workers {
		go run.worker()
	}

	for _, d := range decls {
		run.graph.AddRoot(d.coord.Module)
		run.applyCandidate(d.coord, d.scope, nil, nil, nil)
	}

	for run.pending > 0 {
		select {
		case res := <-run.results:
			run.pending--
			if err := run.handle(res); err != nil {
				return nil, err
			}
		case <-run.ctx.Done():
			return nil, run.ctx.Err()
		}
	}

	return run.finish(), nil
}

func (run *resolution) worker() {
	for {
		select {
		case j := <-run.jobs:
			meta, err := run.resolver.fetchMeta(run.ctx, j.coord)
			select {
			case run.results <- result{job: j, meta: meta, err: err}:
			case <-run.ctx.Done():
				return
			}
		case <-run.ctx.Done():
			return
		}
	}
}

// enqueue schedules a fetch for a coordinate unless the frontier has
// already seen it at this scope (the cycle guard).
func (run *resolution) enqueue(j job) {
	key := frontierKey{coord: j.coord, scope: j.scope}
	if run.seen[key] {
		return
	}
	run.seen[key] = true
	run.pending++
	// Buffered sends can still block when the frontier outgrows the
	// channel; hand off asynchronously so the owner loop never deadlocks.
	go func() {
		select {
		case run.jobs <- j:
		case <-run.ctx.Done():
		}
	}()
}

// handle processes one fetched metadata result on the owner goroutine.
func (run *resolution) handle(res result) error {
	if res.err != nil {
		return run.annotate(res.err, res.job)
	}
	for _, dep := range res.meta.Dependencies {
		if dep.Optional {
			continue
		}
		effective, keep := Mediate(res.scope, dep.Scope)
		if !keep {
			continue
		}
		if excluded(dep.Module, res.exclusions) {
			continue
		}
		if maven.IsRange(dep.Version) {
			return errors.New(errors.ErrCodeUnresolvedVersion,
				"no concrete version satisfies range %q for %s", dep.Version, dep.Module).
				WithContext(chainContext(append(res.origin, res.coord.Module), dep.Module)...)
		}

		version := dep.Version
		if run.oracle != nil {
			if e, ok := run.oracle.Lookup(dep.Module); ok {
				version = e.Version
			}
		}

		coord := maven.Coordinate{Module: dep.Module, Version: version}
		origin := append(append([]maven.Module(nil), res.origin...), res.coord.Module)
		childExclusions := append(append([]maven.Module(nil), res.exclusions...), dep.Exclusions...)
		from := res.coord.Module
		run.applyCandidate(coord, effective, origin, childExclusions, &from)
	}
	return nil
}

// applyCandidate performs resolution map step 4 for one observed edge:
// insert new modules, replace on a higher version (marking the module
// dirty by re-entering the frontier), upgrade scope on a stronger path,
// and discard everything else.
func (run *resolution) applyCandidate(coord maven.Coordinate, scope string, origin []maven.Module, exclusions []maven.Module, from *maven.Module) {
	cur, ok := run.pinned[coord.Module]
	switch {
	case !ok:
		run.pinned[coord.Module] = &pin{version: coord.Version, scope: scope}
		observability.Resolver().OnModulePinned(run.ctx, coord.Module.String(), coord.Version, false)
		run.enqueue(job{coord: coord, scope: scope, origin: origin, exclusions: exclusions})

	case maven.CompareVersions(coord.Version, cur.version) > 0:
		run.resolver.logf("conflict: %s %s -> %s (highest wins)", coord.Module, cur.version, coord.Version)
		cur.version = coord.Version
		cur.scope = strongerScope(cur.scope, scope)
		observability.Resolver().OnModulePinned(run.ctx, coord.Module.String(), coord.Version, true)
		// Dirty: the subtree resolved against the old metadata is stale;
		// re-walk from the newly pinned coordinate.
		run.enqueue(job{coord: coord, scope: cur.scope, origin: origin, exclusions: exclusions})

	case strongerScope(scope, cur.scope) != cur.scope:
		cur.scope = scope
		// Scope upgrades re-propagate: children mediated against the old,
		// weaker scope may now land on a stronger classpath.
		run.enqueue(job{coord: maven.Coordinate{Module: coord.Module, Version: cur.version}, scope: scope, origin: origin, exclusions: exclusions})
	}

	run.graph.SetNode(depgraph.Node{Module: coord.Module, Version: run.pinned[coord.Module].version, Scope: run.pinned[coord.Module].scope})
	if from != nil {
		_ = run.graph.AddEdge(depgraph.Edge{From: *from, To: coord.Module, Scope: scope})
	}
}

func (run *resolution) finish() *Set {
	set := &Set{Graph: run.graph, index: make(map[maven.Module]int)}

	mods := make([]maven.Module, 0, len(run.pinned))
	for mod := range run.pinned {
		mods = append(mods, mod)
	}
	sort.Slice(mods, func(i, j int) bool {
		if mods[i].Group != mods[j].Group {
			return mods[i].Group < mods[j].Group
		}
		return mods[i].Artifact < mods[j].Artifact
	})

	for _, mod := range mods {
		p := run.pinned[mod]
		// Keep graph nodes in step with the final pins; a node set before
		// a later highest-wins replacement would otherwise be stale.
		run.graph.SetNode(depgraph.Node{Module: mod, Version: p.version, Scope: p.scope})
		set.index[mod] = len(set.Nodes)
		set.Nodes = append(set.Nodes, Resolved{
			Coordinate: maven.Coordinate{Module: mod, Version: p.version},
			Scope:      p.scope,
		})
	}
	return set
}

// annotate attaches the dependency chain to a fetch failure.
func (run *resolution) annotate(err error, j job) error {
	chain := chainContext(append(j.origin, j.coord.Module), maven.Module{})
	switch errors.GetCode(err) {
	case errors.ErrCodeArtifactNotFound, errors.ErrCodeNetwork, errors.ErrCodeParentNotFound, errors.ErrCodeChecksumMismatch:
		var e *errors.Error
		if stderrors.As(err, &e) {
			return e.WithContext(chain...)
		}
		return err
	default:
		return errors.Wrap(errors.ErrCodeResolution, err, "failed to resolve %s", j.coord).WithContext(chain...)
	}
}

func chainContext(path []maven.Module, target maven.Module) []string {
	if len(path) == 0 {
		return nil
	}
	parts := make([]string, 0, len(path)+1)
	for _, m := range path {
		parts = append(parts, m.String())
	}
	if target != (maven.Module{}) {
		parts = append(parts, target.String())
	}
	return []string{"required by: " + strings.Join(parts, " -> ")}
}

// fetchMeta fetches and normalizes metadata for one coordinate: Gradle
// Module JSON when published, effective POM otherwise.
func (r *Resolver) fetchMeta(ctx context.Context, coord maven.Coordinate) (*maven.ProjectMetadata, error) {
	data, format, err := r.source.FetchMetadata(ctx, coord)
	if err != nil {
		return nil, err
	}

	if format == cache.FormatModule {
		gm, err := maven.ParseGradleModule(data)
		if err == nil {
			return gm.Metadata(), nil
		}
		// Fall through to the POM on an unreadable module file.
		r.logf("unusable module metadata for %s: %v", coord, err)
		if data, err = r.source.FetchPOM(ctx, coord); err != nil {
			return nil, err
		}
	}

	proj, err := maven.ParsePOM(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResolution, err, "unreadable pom for %s", coord)
	}
	return maven.EffectivePOM(ctx, proj, r.pomFetcher())
}

// pomFetcher adapts the source for parent-chain and BOM fetches, mapping
// a missing POM to PARENT_NOT_FOUND.
func (r *Resolver) pomFetcher() maven.POMFetcher {
	return func(ctx context.Context, coord maven.Coordinate) (*maven.Project, error) {
		data, err := r.source.FetchPOM(ctx, coord)
		if err != nil {
			if errors.Is(err, errors.ErrCodeArtifactNotFound) {
				return nil, errors.New(errors.ErrCodeParentNotFound, "parent pom %s not found on Maven Central", coord)
			}
			return nil, err
		}
		return maven.ParsePOM(data)
	}
}

// Mediate combines the parent edge's effective scope with a dependency's
// declared scope, returning the transitive effective scope and whether
// the edge survives at all. Upstream test and provided scopes are dropped.
func Mediate(parentScope, declared string) (string, bool) {
	if declared == "" {
		declared = ScopeCompile
	}
	switch declared {
	case maven.ScopeTest, maven.ScopeProvided:
		return "", false
	}
	switch parentScope {
	case ScopeCompile:
		if declared == maven.ScopeRuntime {
			return ScopeRuntime, true
		}
		return ScopeCompile, true
	case ScopeRuntime:
		return ScopeRuntime, true
	case ScopeTest:
		return ScopeTest, true
	}
	return "", false
}

// strongerScope returns the stronger of two effective scopes, where
// compile > runtime > test.
func strongerScope(a, b string) string {
	rank := func(s string) int {
		switch s {
		case ScopeCompile:
			return 3
		case ScopeRuntime:
			return 2
		default:
			return 1
		}
	}
	if rank(a) >= rank(b) {
		return a
	}
	return b
}

// excluded reports whether a module matches any exclusion, honoring "*"
// wildcards on either part.
func excluded(mod maven.Module, exclusions []maven.Module) bool {
	for _, ex := range exclusions {
		groupMatch := ex.Group == "*" || ex.Group == mod.Group
		artifactMatch := ex.Artifact == "*" || ex.Artifact == mod.Artifact
		if groupMatch && artifactMatch {
			return true
		}
	}
	return false
}

// Materialize downloads the JAR for every resolved node (bounded
// parallelism) and fills in paths and checksums. When the lock pins a
// checksum for a module, a mismatching download aborts the build.
func (r *Resolver) Materialize(ctx context.Context, set *Set, lock *lockfile.File) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i := range set.Nodes {
		g.Go(func() error {
			node := &set.Nodes[i]
			var pinnedSum string
			if lock != nil {
				if e, ok := lock.Lookup(node.Module); ok && e.Version == node.Version {
					pinnedSum = e.SHA256
				}
			}
			path, sum, err := r.source.FetchJAR(gctx, node.Coordinate, pinnedSum)
			if err != nil {
				var e *errors.Error
				if stderrors.As(err, &e) {
					return e.WithContext(chainContext(set.Graph.PathTo(node.Module), maven.Module{})...)
				}
				return err
			}
			node.Path = path
			node.SHA256 = sum
			return nil
		})
	}
	return g.Wait()
}

// Tree renders the resolved graph as an indented textual tree rooted at
// the project, the data feeding `jargo tree`.
func (s *Set) Tree(projectName string) string {
	var b strings.Builder
	fmt.Fprintln(&b, projectName)
	s.Graph.Walk(func(n *depgraph.Node, depth int) bool {
		fmt.Fprintf(&b, "%s%s:%s (%s)\n", strings.Repeat("  ", depth+1), n.Module, n.Version, n.Scope)
		return true
	})
	return b.String()
}
