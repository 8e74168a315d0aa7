package compiler

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/jargo-build/jargo/pkg/errors"
)

// newProject lays out a minimal flat project under a temp dir.
func newProject(t *testing.T, basePackage string, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestStageCreatesSingleRelativeSymlink(t *testing.T) {
	root := newProject(t, "com.example.app", map[string]string{
		"src/Main.java": "package com.example.app;",
	})

	srcRoot, err := Stage(root, "target/src-root", "src", "com.example.app")
	if err != nil {
		t.Fatalf("Stage error: %v", err)
	}
	if srcRoot != filepath.Join(root, "target/src-root") {
		t.Errorf("srcRoot = %q", srcRoot)
	}

	link := filepath.Join(root, "target/src-root/com/example/app")
	target, err := os.Readlink(link)
	if err != nil {
		t.Fatalf("Readlink error: %v", err)
	}
	if filepath.IsAbs(target) {
		t.Errorf("symlink target must be relative, got %q", target)
	}
	if target != "../../../../src" {
		t.Errorf("symlink target = %q, want ../../../../src", target)
	}

	// The staged path resolves to the real source file.
	if _, err := os.Stat(filepath.Join(link, "Main.java")); err != nil {
		t.Errorf("staged source not reachable: %v", err)
	}
}

func TestStageSingleSegmentPackage(t *testing.T) {
	root := newProject(t, "myapp", map[string]string{
		"src/Main.java": "package myapp;",
	})

	if _, err := Stage(root, "target/src-root", "src", "myapp"); err != nil {
		t.Fatalf("Stage error: %v", err)
	}
	target, err := os.Readlink(filepath.Join(root, "target/src-root/myapp"))
	if err != nil {
		t.Fatalf("Readlink error: %v", err)
	}
	if target != "../../src" {
		t.Errorf("symlink target = %q, want ../../src", target)
	}
}

func TestStageIdempotent(t *testing.T) {
	root := newProject(t, "myapp", map[string]string{
		"src/Main.java": "package myapp;",
	})

	if _, err := Stage(root, "target/src-root", "src", "myapp"); err != nil {
		t.Fatalf("first Stage: %v", err)
	}
	if _, err := Stage(root, "target/src-root", "src", "myapp"); err != nil {
		t.Fatalf("second Stage: %v", err)
	}
}

func TestStageReplacesStaleBasePackage(t *testing.T) {
	root := newProject(t, "oldpkg", map[string]string{
		"src/Main.java": "package oldpkg;",
	})

	if _, err := Stage(root, "target/src-root", "src", "oldpkg"); err != nil {
		t.Fatalf("Stage error: %v", err)
	}
	if _, err := Stage(root, "target/src-root", "src", "com.example.newpkg"); err != nil {
		t.Fatalf("restage error: %v", err)
	}

	if _, err := os.Lstat(filepath.Join(root, "target/src-root/oldpkg")); !os.IsNotExist(err) {
		t.Error("stale staging tree for the old base package must be removed")
	}
	if _, err := os.Readlink(filepath.Join(root, "target/src-root/com/example/newpkg")); err != nil {
		t.Errorf("new staging symlink missing: %v", err)
	}
}

func TestFindJavaFiles(t *testing.T) {
	root := newProject(t, "myapp", map[string]string{
		"src/Main.java":        "",
		"src/util/Helper.java": "",
		"src/notes.txt":        "",
		"src/util/data.json":   "",
	})

	files, err := FindJavaFiles(filepath.Join(root, "src"))
	if err != nil {
		t.Fatalf("FindJavaFiles error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %v, want 2 java files", files)
	}
	// Lexical walk order is deterministic.
	if !strings.HasSuffix(files[0], "Main.java") || !strings.HasSuffix(files[1], "Helper.java") {
		t.Errorf("unexpected order: %v", files)
	}
}

func TestFindJavaFilesMissingDir(t *testing.T) {
	files, err := FindJavaFiles(filepath.Join(t.TempDir(), "no-such-dir"))
	if err != nil {
		t.Fatalf("missing dir should not error, got %v", err)
	}
	if len(files) != 0 {
		t.Errorf("files = %v, want none", files)
	}
}

func TestWriteArgFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target", "javac-args.txt")
	err := WriteArgFile(path, []string{"--release", "21", "-d", "target/classes", "src/My File.java"})
	if err != nil {
		t.Fatalf("WriteArgFile error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	want := []string{"--release", "21", "-d", "target/classes", `"src/My File.java"`}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestRewriteDiagnostics(t *testing.T) {
	stderr := "target/src-root/myapp/Main.java:5: error: ';' expected\n" +
		"target/src-root/myapp/util/Helper.java:10:3: warning: unused variable\n" +
		"1 error\n"

	lines := RewriteDiagnostics(stderr, "target/src-root", "myapp", "src")

	if lines[0] != "src/Main.java:5: error: ';' expected" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != "src/util/Helper.java:10:3: warning: unused variable" {
		t.Errorf("line 1 = %q (line/column suffix must be preserved)", lines[1])
	}
	if lines[2] != "1 error" {
		t.Errorf("line 2 = %q", lines[2])
	}
	for _, l := range lines {
		if strings.Contains(l, "src-root") {
			t.Errorf("staged path leaked: %q", l)
		}
	}
}

func TestRewriteDiagnosticsNestedPackage(t *testing.T) {
	stderr := "target/src-root/com/example/app/Main.java:5: error: x"
	lines := RewriteDiagnostics(stderr, "target/src-root", "com.example.app", "src")
	if lines[0] != "src/Main.java:5: error: x" {
		t.Errorf("line = %q", lines[0])
	}
}

func TestRewriteDiagnosticsTestSources(t *testing.T) {
	stderr := "target/test-src-root/myapp/MainTest.java:7: error: y"
	lines := RewriteDiagnostics(stderr, "target/test-src-root", "myapp", "test")
	if lines[0] != "test/MainTest.java:7: error: y" {
		t.Errorf("line = %q", lines[0])
	}
}

// fakeJavac installs a shell script named javac on PATH that records its
// argument file and emits canned stderr with the given exit code.
func fakeJavac(t *testing.T, stderr string, exitCode int) {
	t.Helper()
	bin := t.TempDir()
	script := "#!/bin/sh\n"
	if stderr != "" {
		script += "printf '%s\\n' '" + strings.ReplaceAll(stderr, "'", `'\''`) + "' >&2\n"
	}
	script += "exit " + strconv.Itoa(exitCode) + "\n"
	if err := os.WriteFile(filepath.Join(bin, "javac"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", bin)
}

func TestCompileSuccess(t *testing.T) {
	root := newProject(t, "myapp", map[string]string{
		"src/Main.java": "package myapp;\npublic class Main {}\n",
	})
	fakeJavac(t, "", 0)

	res, err := Compile(context.Background(), Options{
		ProjectRoot: root,
		BasePackage: "myapp",
		Release:     "21",
		SourceDir:   "src",
		StagingDir:  "target/src-root",
		OutputDir:   "target/classes",
		ArgFile:     "target/javac-args.txt",
	})
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if !res.Success {
		t.Error("expected success")
	}

	// The argument file names the staged source path.
	data, err := os.ReadFile(filepath.Join(root, "target/javac-args.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "target/src-root/myapp/Main.java") {
		t.Errorf("arg file should reference staged sources:\n%s", data)
	}
	if !strings.Contains(string(data), "--release\n21\n") {
		t.Errorf("arg file missing --release:\n%s", data)
	}
}

func TestCompileFailureRewritesPaths(t *testing.T) {
	root := newProject(t, "myapp", map[string]string{
		"src/util/Bar.java": "package myapp.util;\nclass Bar {\n",
	})
	fakeJavac(t, "target/src-root/myapp/util/Bar.java:2: error: reached end of file while parsing", 1)

	res, err := Compile(context.Background(), Options{
		ProjectRoot: root,
		BasePackage: "myapp",
		Release:     "21",
		SourceDir:   "src",
		StagingDir:  "target/src-root",
		OutputDir:   "target/classes",
		ArgFile:     "target/javac-args.txt",
	})
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if res.Success {
		t.Fatal("expected failure")
	}
	if len(res.Diagnostics) == 0 || !strings.HasPrefix(res.Diagnostics[0], "src/util/Bar.java:2:") {
		t.Errorf("diagnostics = %v, want rewritten src/util/Bar.java path", res.Diagnostics)
	}
}

func TestCompileJavacMissing(t *testing.T) {
	root := newProject(t, "myapp", map[string]string{
		"src/Main.java": "package myapp;",
	})
	t.Setenv("PATH", t.TempDir()) // no javac anywhere

	_, err := Compile(context.Background(), Options{
		ProjectRoot: root,
		BasePackage: "myapp",
		Release:     "21",
		SourceDir:   "src",
		StagingDir:  "target/src-root",
		OutputDir:   "target/classes",
		ArgFile:     "target/javac-args.txt",
	})
	if !errors.Is(err, errors.ErrCodeToolNotFound) {
		t.Errorf("err = %v, want TOOL_NOT_FOUND", err)
	}
}

func TestCompileNoSources(t *testing.T) {
	root := newProject(t, "myapp", map[string]string{})
	os.MkdirAll(filepath.Join(root, "src"), 0o755)

	_, err := Compile(context.Background(), Options{
		ProjectRoot: root,
		BasePackage: "myapp",
		Release:     "21",
		SourceDir:   "src",
		StagingDir:  "target/src-root",
		OutputDir:   "target/classes",
		ArgFile:     "target/javac-args.txt",
	})
	if !errors.Is(err, errors.ErrCodeCompile) {
		t.Errorf("err = %v, want COMPILE_FAILED", err)
	}
}

func TestCopyResources(t *testing.T) {
	root := newProject(t, "myapp", map[string]string{
		"resources/banner.txt":    "hello",
		"resources/conf/app.conf": "k=v",
	})
	out := filepath.Join(root, "target/classes")
	os.MkdirAll(out, 0o755)

	if err := CopyResources(root, out); err != nil {
		t.Fatalf("CopyResources error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(out, "conf/app.conf"))
	if err != nil || string(data) != "k=v" {
		t.Errorf("copied resource = %q, %v", data, err)
	}
}

func TestCopyResourcesAbsent(t *testing.T) {
	root := t.TempDir()
	if err := CopyResources(root, filepath.Join(root, "target/classes")); err != nil {
		t.Errorf("absent resources dir should be a no-op, got %v", err)
	}
}
