// Package compiler orchestrates javac over a staged source tree.
//
// The orchestrator bridges Jargo's flat src/ layout and javac's
// package-mirroring expectation in three steps: stage sources under
// target/src-root via a single directory symlink ([Stage]), write every
// javac argument to an argument file to dodge OS command-line length
// limits, and rewrite staged paths in javac's stderr back to the
// user-visible src/ paths so no target/src-root path ever reaches a
// diagnostic.
package compiler

import (
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jargo-build/jargo/pkg/errors"
	"github.com/jargo-build/jargo/pkg/observability"
)

// Options configures one javac invocation.
type Options struct {
	ProjectRoot string   // absolute project directory
	BasePackage string   // e.g. "com.example.app"
	Release     string   // value for --release
	Classpath   []string // compile classpath entries; empty means none
	SourceDir   string   // "src" for main sources, "test" for test sources
	StagingDir  string   // "target/src-root" or "target/test-src-root"
	OutputDir   string   // "target/classes" or "target/test-classes"
	ArgFile     string   // "target/javac-args.txt"
}

// Result is the outcome of a javac invocation.
type Result struct {
	Success     bool
	Diagnostics []string // stderr lines with staged paths rewritten
}

// Compile stages sources, assembles the argument file, runs javac, and
// rewrites diagnostics. A missing javac binary surfaces TOOL_NOT_FOUND; a
// non-zero exit is reported through Result, not an error, so callers can
// render diagnostics before failing the build.
func Compile(ctx context.Context, opts Options) (*Result, error) {
	if _, err := Stage(opts.ProjectRoot, opts.StagingDir, opts.SourceDir, opts.BasePackage); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Join(opts.ProjectRoot, opts.OutputDir), 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to create %s", opts.OutputDir)
	}

	sources, err := FindJavaFiles(filepath.Join(opts.ProjectRoot, opts.SourceDir))
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, errors.New(errors.ErrCodeCompile, "no source files found in %s/", opts.SourceDir)
	}

	// Source files are named through the staging root so javac sees them
	// at their package-mirrored locations.
	pkgPath := filepath.FromSlash(strings.ReplaceAll(opts.BasePackage, ".", "/"))
	stagedSources := make([]string, 0, len(sources))
	for _, s := range sources {
		rel, err := filepath.Rel(filepath.Join(opts.ProjectRoot, opts.SourceDir), s)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "source outside source dir: %s", s)
		}
		stagedSources = append(stagedSources, filepath.Join(opts.StagingDir, pkgPath, rel))
	}

	args := []string{"--release", opts.Release}
	if len(opts.Classpath) > 0 {
		args = append(args, "-classpath", strings.Join(opts.Classpath, string(filepath.ListSeparator)))
	}
	args = append(args, "-sourcepath", opts.StagingDir, "-d", opts.OutputDir)
	args = append(args, stagedSources...)

	argFile := filepath.Join(opts.ProjectRoot, opts.ArgFile)
	if err := WriteArgFile(argFile, args); err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Compiler().OnCompileStart(ctx, len(sources))

	cmd := exec.CommandContext(ctx, "javac", "@"+opts.ArgFile)
	cmd.Dir = opts.ProjectRoot
	var stderr strings.Builder
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	success := runErr == nil
	observability.Compiler().OnCompileComplete(ctx, success, time.Since(start))

	if runErr != nil {
		var exitErr *exec.ExitError
		if !stderrors.As(runErr, &exitErr) {
			var execErr *exec.Error
			if stderrors.As(runErr, &execErr) && stderrors.Is(execErr.Err, exec.ErrNotFound) {
				return nil, errors.New(errors.ErrCodeToolNotFound, "javac not found in PATH")
			}
			return nil, errors.Wrap(errors.ErrCodeInternal, runErr, "failed to invoke javac")
		}
	}

	res := &Result{Success: success}
	if !success {
		res.Diagnostics = RewriteDiagnostics(stderr.String(), opts.StagingDir, opts.BasePackage, opts.SourceDir)
	}
	return res, nil
}

// FindJavaFiles collects every .java file under dir, sorted by path for a
// deterministic argument file. A missing directory yields an empty list.
func FindJavaFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return filepath.SkipAll
			}
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".java") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to scan %s", dir)
	}
	return files, nil
}

// WriteArgFile writes javac arguments one token per line, double-quoting
// tokens that contain whitespace, per javac's @file syntax.
func WriteArgFile(path string, args []string) error {
	var b strings.Builder
	for _, arg := range args {
		if strings.ContainsAny(arg, " \t") {
			b.WriteString(`"` + arg + `"` + "\n")
			continue
		}
		b.WriteString(arg + "\n")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to write argument file %s", path)
	}
	return nil
}

// RewriteDiagnostics maps staged paths in javac stderr back to the
// user-visible source tree: every occurrence of
// "<stagingDir>/<base-package-as-path>/" becomes "<sourceDir>/". Line and
// column suffixes pass through untouched; rewriting applies to errors and
// warnings alike.
func RewriteDiagnostics(stderr, stagingDir, basePackage, sourceDir string) []string {
	pkgPath := strings.ReplaceAll(basePackage, ".", "/")
	stagedPrefix := stagingDir + "/" + pkgPath + "/"

	var lines []string
	for line := range strings.Lines(stderr) {
		line = strings.TrimRight(line, "\n")
		lines = append(lines, strings.ReplaceAll(line, stagedPrefix, sourceDir+"/"))
	}
	return lines
}
