package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/jargo-build/jargo/pkg/cache"
	"github.com/jargo-build/jargo/pkg/classpath"
	"github.com/jargo-build/jargo/pkg/compiler"
	"github.com/jargo-build/jargo/pkg/errors"
	"github.com/jargo-build/jargo/pkg/lockfile"
	"github.com/jargo-build/jargo/pkg/manifest"
	"github.com/jargo-build/jargo/pkg/resolver"
)

// project bundles everything a command needs about the current directory:
// the parsed manifest, the lock file (nil when absent), and the shared
// artifact cache.
type project struct {
	Root     string
	Manifest *manifest.Manifest
	Lock     *lockfile.File
	Cache    *cache.Cache
}

// openProject loads the project in the current working directory.
// A missing Jargo.toml is a user error.
func openProject() (*project, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "cannot determine working directory")
	}

	m, err := manifest.Load(filepath.Join(cwd, manifest.FileName))
	if err != nil {
		return nil, err
	}

	lock, err := lockfile.Read(filepath.Join(cwd, lockfile.FileName))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		lock = nil
	}

	store, err := cache.Open(os.Getenv("JARGO_CACHE_DIR"))
	if err != nil {
		return nil, err
	}

	return &project{Root: cwd, Manifest: m, Lock: lock, Cache: store}, nil
}

// lockPath returns the project's Jargo.lock path.
func (p *project) lockPath() string {
	return filepath.Join(p.Root, lockfile.FileName)
}

// resolveOptions wires the context logger into the resolver.
func (p *project) resolveOptions(ctx context.Context) *resolver.Options {
	logger := loggerFromContext(ctx)
	return &resolver.Options{
		Logger: func(msg string, args ...any) { logger.Debugf(msg, args...) },
	}
}

// resolve runs dependency resolution and materializes JARs. When
// useLock is false (the `update` path) the existing lock is ignored and
// regenerated. The lock file on disk is rewritten only when its pinned
// set changed, keeping repeated builds byte-stable.
func (p *project) resolve(ctx context.Context, useLock bool) (*resolver.Set, error) {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	lock := p.Lock
	if !useLock {
		lock = nil
	}

	sp := newSpinner(ctx, "Resolving dependencies")
	sp.Start()
	r := resolver.New(p.Cache, p.resolveOptions(ctx))
	set, err := r.Resolve(ctx, p.Manifest, lock)
	if err != nil {
		sp.Stop()
		return nil, err
	}
	err = r.Materialize(ctx, set, lock)
	sp.Stop()
	if err != nil {
		return nil, err
	}
	prog.done("resolved dependencies")

	if err := p.writeLockIfChanged(set); err != nil {
		return nil, err
	}
	return set, nil
}

// writeLockIfChanged persists the pinned set, skipping the write when the
// encoding matches the lock already on disk.
func (p *project) writeLockIfChanged(set *resolver.Set) error {
	fresh := set.Lock()
	data, err := fresh.Encode()
	if err != nil {
		return err
	}
	if existing, readErr := os.ReadFile(p.lockPath()); readErr == nil && string(existing) == string(data) {
		return nil
	}
	if err := os.WriteFile(p.lockPath(), data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to write %s", lockfile.FileName)
	}
	p.Lock = fresh
	return nil
}

// classpaths fetches the implicit JUnit artifacts and partitions the
// resolved set into the four classpaths.
func (p *project) classpaths(ctx context.Context, set *resolver.Set) (*classpath.Paths, error) {
	var junitJARs []string
	for _, coord := range classpath.JUnitArtifacts() {
		path, _, err := p.Cache.FetchJAR(ctx, coord, "")
		if err != nil {
			return nil, err
		}
		junitJARs = append(junitJARs, path)
	}
	return classpath.Build(set, p.Manifest, "target", junitJARs), nil
}

// compileMain compiles the main source tree and renders diagnostics on
// failure.
func (p *project) compileMain(ctx context.Context, compileCP []string) error {
	status("Compiling", "%s v%s (java %s)", p.Manifest.Package.Name, p.Manifest.Package.Version, p.Manifest.Package.Java)

	res, err := compiler.Compile(ctx, compiler.Options{
		ProjectRoot: p.Root,
		BasePackage: p.Manifest.BasePackage(),
		Release:     p.Manifest.Package.Java,
		Classpath:   dropFirst(compileCP), // the output dir itself is not an input
		SourceDir:   "src",
		StagingDir:  "target/src-root",
		OutputDir:   "target/classes",
		ArgFile:     "target/javac-args.txt",
	})
	if err != nil {
		return err
	}
	if !res.Success {
		return compileError(res.Diagnostics)
	}
	return compiler.CopyResources(p.Root, filepath.Join(p.Root, "target", "classes"))
}

// compileTests compiles the test source tree against the test-compile
// classpath.
func (p *project) compileTests(ctx context.Context, testCompileCP []string) error {
	res, err := compiler.Compile(ctx, compiler.Options{
		ProjectRoot: p.Root,
		BasePackage: p.Manifest.BasePackage(),
		Release:     p.Manifest.Package.Java,
		Classpath:   dropFirst(testCompileCP),
		SourceDir:   "test",
		StagingDir:  "target/test-src-root",
		OutputDir:   "target/test-classes",
		ArgFile:     "target/javac-test-args.txt",
	})
	if err != nil {
		return err
	}
	if !res.Success {
		return compileError(res.Diagnostics)
	}
	return nil
}

func compileError(diagnostics []string) error {
	return errors.New(errors.ErrCodeCompile, "javac compilation failed").WithContext(diagnostics...)
}

// dropFirst removes the leading output-directory entry a classpath list
// carries for runtime use.
func dropFirst(paths []string) []string {
	if len(paths) == 0 {
		return paths
	}
	return paths[1:]
}
