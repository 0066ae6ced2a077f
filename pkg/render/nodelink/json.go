package nodelink

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
)

var roleNames = map[string]Role{
	"external":    RoleExternal,
	"private":     RolePrivate,
	"exported":    RoleExported,
	"unreachable": RoleUnreachable,
}

type jsonGraph struct {
	Nodes []jsonNode `json:"nodes"`
	Edges []jsonEdge `json:"edges"`
}

type jsonNode struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Version string `json:"version,omitempty"`
}

type jsonEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// WriteJSON encodes g as a node and edge list. Packages that are only
// used appear as external nodes. The output is sorted and can be read
// back with [ReadJSON].
func WriteJSON(g Graph, w io.Writer, opts Options) error {
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
		_, ok := g.Nodes[name]
		return ok || !opts.Internal
	}

	out := jsonGraph{Nodes: []jsonNode{}, Edges: []jsonEdge{}}
	for _, name := range slices.Sorted(maps.Keys(names)) {
		if !keep(name) {
			continue
		}
		n := g.Nodes[name]
		out.Nodes = append(out.Nodes, jsonNode{ID: name, Role: n.Role.String(), Version: n.Version})
	}
	for _, from := range slices.Sorted(maps.Keys(g.Uses)) {
		if !keep(from) {
			continue
		}
		for _, to := range slices.Sorted(slices.Values(g.Uses[from])) {
			if keep(to) {
				out.Edges = append(out.Edges, jsonEdge{From: from, To: to})
			}
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a graph written by [WriteJSON].
//
// Every node other than an external one gets a uses entry, possibly empty.
// ReadJSON fails on a duplicate node, an unknown role, or an edge between
// undeclared nodes.
func ReadJSON(r io.Reader) (Graph, error) {
	var data jsonGraph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return Graph{}, fmt.Errorf("decode: %w", err)
	}

	g := Graph{Uses: make(map[string][]string), Nodes: make(map[string]Node)}
	seen := make(map[string]bool, len(data.Nodes))
	for _, n := range data.Nodes {
		if seen[n.ID] {
			return Graph{}, fmt.Errorf("node %s: duplicate id", n.ID)
		}
		seen[n.ID] = true
		role, ok := roleNames[n.Role]
		if !ok {
			return Graph{}, fmt.Errorf("node %s: unknown role %q", n.ID, n.Role)
		}
		if role == RoleExternal {
			continue
		}
		g.Nodes[n.ID] = Node{Role: role, Version: n.Version}
		g.Uses[n.ID] = []string{}
	}
	for _, e := range data.Edges {
		if !seen[e.From] || !seen[e.To] {
			return Graph{}, fmt.Errorf("edge %s->%s: unknown node", e.From, e.To)
		}
		g.Uses[e.From] = append(g.Uses[e.From], e.To)
	}
	return g, nil
}
