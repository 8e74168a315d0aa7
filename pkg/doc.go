// Package pkg provides the core libraries for the Jargo build tool.
//
// # Overview
//
// Jargo builds Java projects the way Cargo builds Rust: one TOML manifest,
// a flat source tree, and a lock file pinning transitive dependencies from
// Maven Central. The pkg directory is organized into five main areas:
//
//  1. [manifest], [lockfile] - Jargo.toml and Jargo.lock models
//  2. [maven], [cache], [resolver], [depgraph] - dependency resolution
//  3. [classpath] - the four-classpath construction
//  4. [compiler], [jar] - javac orchestration and JAR assembly
//  5. [errors], [httputil], [observability], [buildinfo] - cross-cutting
//
// # Architecture
//
// The typical data flow through a build:
//
//	Jargo.toml + Jargo.lock
//	         ↓
//	    [resolver] (fetch metadata via [cache], walk the graph)
//	         ↓
//	    [classpath] (compile / runtime / test-compile / test-runtime)
//	         ↓
//	    [compiler] (stage sources, invoke javac, rewrite diagnostics)
//	         ↓
//	    [jar] (target/<name>.jar)
//
// # Quick Start
//
// Resolve a project's dependencies and build the compile classpath:
//
//	m, _ := manifest.Load("Jargo.toml")
//	store, _ := cache.Open("")
//	r := resolver.New(store, nil)
//	set, _ := r.Resolve(ctx, m, nil)
//	_ = r.Materialize(ctx, set, nil)
//	cp := classpath.Build(set, m, "target", nil)
//
// [manifest]: https://pkg.go.dev/github.com/jargo-build/jargo/pkg/manifest
// [lockfile]: https://pkg.go.dev/github.com/jargo-build/jargo/pkg/lockfile
// [maven]: https://pkg.go.dev/github.com/jargo-build/jargo/pkg/maven
// [cache]: https://pkg.go.dev/github.com/jargo-build/jargo/pkg/cache
// [resolver]: https://pkg.go.dev/github.com/jargo-build/jargo/pkg/resolver
// [depgraph]: https://pkg.go.dev/github.com/jargo-build/jargo/pkg/depgraph
// [classpath]: https://pkg.go.dev/github.com/jargo-build/jargo/pkg/classpath
// [compiler]: https://pkg.go.dev/github.com/jargo-build/jargo/pkg/compiler
// [jar]: https://pkg.go.dev/github.com/jargo-build/jargo/pkg/jar
// [errors]: https://pkg.go.dev/github.com/jargo-build/jargo/pkg/errors
// [httputil]: https://pkg.go.dev/github.com/jargo-build/jargo/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/jargo-build/jargo/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/jargo-build/jargo/pkg/buildinfo
package pkg
