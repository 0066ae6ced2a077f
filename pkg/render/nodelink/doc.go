// Package nodelink renders package dependency graphs as node-link diagrams.
//
// # Overview
//
// Every package is a box and every uses relation an arrow from the using
// package to the used one. Boxes are colored by the role the package
// plays in the bundle: exported, private, imported from elsewhere or
// unreachable from the exports.
//
// # Usage
//
// Convert a graph to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # DOT Format
//
// The [ToDOT] function produces Graphviz DOT source that can be:
//
//   - Rendered directly via [RenderSVG]
//   - Saved and processed with external Graphviz tools
//
// Output is deterministic: nodes and edges are emitted in sorted order.
//
// # JSON Format
//
// [WriteJSON] emits the same graph as a node and edge list for other
// tools, and [ReadJSON] reads it back:
//
//	{
//	  "nodes": [{"id": "com.acme.api", "role": "exported", "version": "1.2"}],
//	  "edges": [{"from": "com.acme.impl", "to": "com.acme.api"}]
//	}
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
