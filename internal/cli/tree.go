package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/spf13/cobra"

	"github.com/jargo-build/jargo/pkg/depgraph"
	"github.com/jargo-build/jargo/pkg/errors"
	"github.com/jargo-build/jargo/pkg/maven"
	"github.com/jargo-build/jargo/pkg/resolver"
)

// newTreeCmd creates the `jargo tree` command. The default output is an
// indented text tree; --format dot emits Graphviz DOT and --format svg
// renders it in-process.
func newTreeCmd() *cobra.Command {
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Display the dependency tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := openProject()
			if err != nil {
				return err
			}
			set, err := p.resolve(ctx, true)
			if err != nil {
				return err
			}

			var rendered []byte
			switch format {
			case "text":
				rendered = []byte(renderTextTree(p.Manifest.Package.Name, p.Manifest.Package.Version, set))
			case "dot":
				rendered = []byte(toDOT(p.Manifest.Package.Name, set.Graph))
			case "svg":
				rendered, err = renderSVG(ctx, toDOT(p.Manifest.Package.Name, set.Graph))
				if err != nil {
					return err
				}
			default:
				return errors.New(errors.ErrCodeManifestField, "unknown tree format %q: expected text, dot, or svg", format)
			}

			if output == "" {
				_, err = os.Stdout.Write(rendered)
				return err
			}
			if err := os.WriteFile(output, rendered, 0o644); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "failed to write %s", output)
			}
			status("Wrote", "%s", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text, dot, or svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

// renderTextTree draws the graph with box-drawing connectors, one version
// per module, scopes dimmed.
func renderTextTree(name, version string, set *resolver.Set) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s v%s\n", StyleHighlight.Render(name), version)

	roots := set.Graph.Roots()
	seen := map[string]bool{}
	for i, root := range roots {
		renderSubtree(&b, set, root, "", i == len(roots)-1, seen)
	}
	return b.String()
}

func renderSubtree(b *strings.Builder, set *resolver.Set, mod maven.Module, prefix string, last bool, seen map[string]bool) {
	connector := "├── "
	childPrefix := prefix + "│   "
	if last {
		connector = "└── "
		childPrefix = prefix + "    "
	}

	node, ok := set.Graph.Node(mod)
	if !ok {
		return
	}
	label := fmt.Sprintf("%s:%s", node.Module, node.Version)
	if seen[label] {
		fmt.Fprintf(b, "%s%s%s %s\n", prefix, connector, label, StyleDim.Render("(*)"))
		return
	}
	seen[label] = true
	fmt.Fprintf(b, "%s%s%s %s\n", prefix, connector, label, StyleDim.Render("("+node.Scope+")"))

	children := set.Graph.Children(node.Module)
	for i, child := range children {
		renderSubtree(b, set, child, childPrefix, i == len(children)-1, seen)
	}
}

// toDOT converts the dependency graph to Graphviz DOT, top-to-bottom with
// rounded box nodes.
func toDOT(name string, g *depgraph.Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph deps {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\"];\n")

	fmt.Fprintf(&buf, "  %q [style=\"rounded,bold\"];\n", name)
	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", n.Module.String(), n.Module.String()+"\n"+n.Version)
	}
	for _, root := range g.Roots() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", name, root.String())
	}
	for _, e := range g.Edges() {
		attrs := ""
		if e.Scope != resolver.ScopeCompile {
			attrs = fmt.Sprintf(" [label=%q, fontsize=9]", e.Scope)
		}
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", e.From.String(), e.To.String(), attrs)
	}
	buf.WriteString("}\n")
	return buf.String()
}

// renderSVG renders DOT to SVG using Graphviz in-process.
func renderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render SVG")
	}
	return buf.Bytes(), nil
}
