// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register
// hooks at startup to receive events about dependency resolution, cache
// downloads, and compiler invocations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach avoids import cycles (hooks are registered by main, not by
// libraries) and keeps the core library free of observability frameworks.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetResolverHooks(&myResolverHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Resolver().OnResolveStart(ctx, directCount)
//	// ... resolve ...
//	observability.Resolver().OnResolveComplete(ctx, pinnedCount, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// ResolverHooks receives events from the dependency resolver.
type ResolverHooks interface {
	// OnResolveStart fires when a resolution run begins, with the number
	// of direct dependency declarations.
	OnResolveStart(ctx context.Context, directCount int)
	// OnModulePinned fires each time the resolution map selects a version
	// for a module, including highest-wins replacements.
	OnModulePinned(ctx context.Context, module, version string, replaced bool)
	// OnResolveComplete fires when the run quiesces.
	OnResolveComplete(ctx context.Context, pinnedCount int, duration time.Duration, err error)
}

// CacheHooks receives events from the artifact cache.
type CacheHooks interface {
	// OnDownloadStart fires before an HTTP fetch (cache misses only).
	OnDownloadStart(ctx context.Context, coordinate, ext string)
	// OnDownloadComplete fires when the fetch finishes. found is false
	// when the repository returned 404.
	OnDownloadComplete(ctx context.Context, coordinate, ext string, found bool, duration time.Duration, err error)
}

// CompilerHooks receives events from the compiler orchestrator.
type CompilerHooks interface {
	// OnCompileStart fires before javac is invoked.
	OnCompileStart(ctx context.Context, sourceCount int)
	// OnCompileComplete fires after javac exits.
	OnCompileComplete(ctx context.Context, success bool, duration time.Duration)
}

type noopResolverHooks struct{}

func (noopResolverHooks) OnResolveStart(context.Context, int)                          {}
func (noopResolverHooks) OnModulePinned(context.Context, string, string, bool)         {}
func (noopResolverHooks) OnResolveComplete(context.Context, int, time.Duration, error) {}

type noopCacheHooks struct{}

func (noopCacheHooks) OnDownloadStart(context.Context, string, string) {}
func (noopCacheHooks) OnDownloadComplete(context.Context, string, string, bool, time.Duration, error) {
}

type noopCompilerHooks struct{}

func (noopCompilerHooks) OnCompileStart(context.Context, int)                    {}
func (noopCompilerHooks) OnCompileComplete(context.Context, bool, time.Duration) {}

var (
	mu            sync.RWMutex
	resolverHooks ResolverHooks = noopResolverHooks{}
	cacheHooks    CacheHooks    = noopCacheHooks{}
	compilerHooks CompilerHooks = noopCompilerHooks{}
)

// SetResolverHooks registers resolver instrumentation. Pass nil to restore
// the no-op implementation.
func SetResolverHooks(h ResolverHooks) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		resolverHooks = noopResolverHooks{}
		return
	}
	resolverHooks = h
}

// SetCacheHooks registers cache instrumentation. Pass nil to restore the
// no-op implementation.
func SetCacheHooks(h CacheHooks) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		cacheHooks = noopCacheHooks{}
		return
	}
	cacheHooks = h
}

// SetCompilerHooks registers compiler instrumentation. Pass nil to restore
// the no-op implementation.
func SetCompilerHooks(h CompilerHooks) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		compilerHooks = noopCompilerHooks{}
		return
	}
	compilerHooks = h
}

// Resolver returns the registered resolver hooks (never nil).
func Resolver() ResolverHooks {
	mu.RLock()
	defer mu.RUnlock()
	return resolverHooks
}

// Cache returns the registered cache hooks (never nil).
func Cache() CacheHooks {
	mu.RLock()
	defer mu.RUnlock()
	return cacheHooks
}

// Compiler returns the registered compiler hooks (never nil).
func Compiler() CompilerHooks {
	mu.RLock()
	defer mu.RUnlock()
	return compilerHooks
}
