package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
)

// Role is the part a package plays in a bundle.
type Role int

const (
	// RoleExternal marks packages the bundle uses but does not contain.
	RoleExternal Role = iota
	// RolePrivate marks contained packages that are not exported.
	RolePrivate
	// RoleExported marks exported packages.
	RoleExported
	// RoleUnreachable marks contained packages no export or activator
	// reaches.
	RoleUnreachable
)

func (r Role) String() string {
	switch r {
	case RolePrivate:
		return "private"
	case RoleExported:
		return "exported"
	case RoleUnreachable:
		return "unreachable"
	}
	return "external"
}

// Node describes one package.
type Node struct {
	Role    Role
	Version string
}

// Graph is the input of [ToDOT].
type Graph struct {
	// Uses maps a package to the packages it uses.
	Uses map[string][]string

	// Nodes describes packages. A package missing here is external.
	Nodes map[string]Node
}

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the role and version to node labels.
	Detailed bool

	// Internal drops external packages and the edges to them.
	Internal bool
}

var roleAttrs = map[Role]string{
	RoleExternal:    `fillcolor=white, style="rounded,dashed"`,
	RolePrivate:     `fillcolor="#dddddd"`,
	RoleExported:    `fillcolor="#a6d96a"`,
	RoleUnreachable: `fillcolor="#fdae61"`,
}

// ToDOT converts a package graph to Graphviz DOT format.
func ToDOT(g Graph, opts Options) string {
	names := make(map[string]bool)
	for from, used := range g.Uses {
		names[from] = true
		for _, to := range used {
			names[to] = true
		}
	}
	for n := range g.Nodes {
		names[n] = true
	}
	keep := func(name string) bool {
		if !opts.Internal {
			return true
		}
		_, ok := g.Nodes[name]
		return ok
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, name := range slices.Sorted(maps.Keys(names)) {
		if !keep(name) {
			continue
		}
		n := g.Nodes[name]
		fmt.Fprintf(&buf, "  %q [label=%q, %s];\n", name, fmtLabel(name, n, opts.Detailed), roleAttrs[n.Role])
	}

	buf.WriteString("\n")
	for _, from := range slices.Sorted(maps.Keys(g.Uses)) {
		if !keep(from) {
			continue
		}
		for _, to := range slices.Sorted(slices.Values(g.Uses[from])) {
			if keep(to) {
				fmt.Fprintf(&buf, "  %q -> %q;\n", from, to)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(name string, n Node, detailed bool) string {
	if !detailed {
		return name
	}
	parts := []string{name, n.Role.String()}
	if n.Version != "" {
		parts = append(parts, "version: "+n.Version)
	}
	return strings.Join(parts, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the point sized root element Graphviz writes
// with one sized in pixels.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
