package cli

import (
	"strings"
	"testing"

	"github.com/jargo-build/jargo/pkg/depgraph"
	"github.com/jargo-build/jargo/pkg/maven"
	"github.com/jargo-build/jargo/pkg/resolver"
)

func mod(g, a string) maven.Module {
	return maven.Module{Group: g, Artifact: a}
}

// fakeSet builds a resolved set with a small diamond:
// root deps a and b, both depending on c.
func fakeSet() *resolver.Set {
	g := depgraph.New()
	g.SetNode(depgraph.Node{Module: mod("com.example", "a"), Version: "1.0", Scope: "compile"})
	g.SetNode(depgraph.Node{Module: mod("com.example", "b"), Version: "2.0", Scope: "compile"})
	g.SetNode(depgraph.Node{Module: mod("com.example", "c"), Version: "3.0", Scope: "compile"})
	g.AddRoot(mod("com.example", "a"))
	g.AddRoot(mod("com.example", "b"))
	g.AddEdge(depgraph.Edge{From: mod("com.example", "a"), To: mod("com.example", "c"), Scope: "compile"})
	g.AddEdge(depgraph.Edge{From: mod("com.example", "b"), To: mod("com.example", "c"), Scope: "compile"})
	return &resolver.Set{Graph: g}
}

func TestRenderTextTree(t *testing.T) {
	out := renderTextTree("demo", "0.1.0", fakeSet())

	for _, want := range []string{"demo", "com.example:a:1.0", "com.example:b:2.0", "com.example:c:3.0"} {
		if !strings.Contains(out, want) {
			t.Errorf("tree missing %q:\n%s", want, out)
		}
	}
	// The second occurrence of c collapses to a (*) marker.
	if strings.Count(out, "com.example:c:3.0") != 2 {
		t.Errorf("c should appear under both parents:\n%s", out)
	}
	if !strings.Contains(out, "(*)") {
		t.Errorf("repeat visit should be marked with (*):\n%s", out)
	}
}

func TestToDOT(t *testing.T) {
	dot := toDOT("demo", fakeSet().Graph)

	for _, want := range []string{
		"digraph deps",
		`"demo" -> "com.example:a"`,
		`"com.example:a" -> "com.example:c"`,
		`"com.example:c" [label="com.example:c\n3.0"]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}
