package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bundlescope/pkg/analyzer"
	"github.com/matzehuels/bundlescope/pkg/render/nodelink"
)

// =============================================================================
// Classes Command
// =============================================================================

// classesCommand creates the classes command, a front end to the class
// space queries of the ${classes} macro.
func (c *CLI) classesCommand() *cobra.Command {
	var opts setupOpts

	cmd := &cobra.Command{
		Use:   "classes <jar|dir> [<query> <pattern>]...",
		Short: "List classes matching queries",
		Long: `List the classes of a jar that satisfy every query/pattern pair.

Queries: implementing, extending, importing, named, version, any.
Patterns are dotted and may use * and ? wildcards; a leading ! negates.

Examples:
  bundlescope classes app.jar implementing 'org.osgi.framework.BundleActivator'
  bundlescope classes app.jar named '*Impl' importing 'org.slf4j'`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("requires a jar")
			}
			if len(args)%2 != 1 {
				return fmt.Errorf("queries come in <query> <pattern> pairs")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.analyzeOne(cmd.Context(), args[0], &opts)
			if err != nil {
				return err
			}
			defer a.Close()
			names, err := a.Query(args[1:]...)
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
	opts.register(cmd)
	return cmd
}

// =============================================================================
// Unreachable Command
// =============================================================================

// unreachableCommand creates the unreachable command.
func (c *CLI) unreachableCommand() *cobra.Command {
	var opts setupOpts

	cmd := &cobra.Command{
		Use:   "unreachable <jar|dir>",
		Short: "List packages no export or activator reaches",
		Long: `List the contained packages that cannot be reached from the exported
packages or the activator package through the uses graph. Such packages are
candidates for removal from the bundle.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.analyzeOne(cmd.Context(), args[0], &opts)
			if err != nil {
				return err
			}
			defer a.Close()
			return writeUnreachable(cmd.OutOrStdout(), a.Unreachable())
		},
	}
	opts.register(cmd)
	return cmd
}

func writeUnreachable(w io.Writer, pkgs []string) error {
	if len(pkgs) == 0 {
		printSuccess(w, "Every package is reachable")
		return nil
	}
	_, err := fmt.Fprintln(w, listTable("Unreachable packages", pkgs, StyleWarning))
	return err
}

// =============================================================================
// Graph Command
// =============================================================================

// graphOpts holds the flags of the graph command.
type graphOpts struct {
	setupOpts
	format   string // dot, svg or json
	output   string // output file, stdout if empty
	detailed bool   // role and version in labels
	internal bool   // hide external packages
}

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOpts{format: "dot"}

	cmd := &cobra.Command{
		Use:   "graph <jar|dir>",
		Short: "Render the package uses graph",
		Long: `Render the package uses graph as Graphviz DOT, SVG or a JSON node and edge
list. Packages are colored by role: exported, private, unreachable or external.

Examples:
  bundlescope graph app.jar -e 'com.acme.api.*' > app.dot
  bundlescope graph app.jar -e 'com.acme.api.*' --format svg -o app.svg --internal`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd.Context(), cmd.OutOrStdout(), args[0], &opts)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: dot, svg or json")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show role and version in node labels")
	cmd.Flags().BoolVar(&opts.internal, "internal", false, "omit packages outside the jar")
	return cmd
}

func (c *CLI) runGraph(ctx context.Context, w io.Writer, path string, opts *graphOpts) error {
	if !slices.Contains([]string{"dot", "svg", "json"}, opts.format) {
		return fmt.Errorf("unknown format %q", opts.format)
	}
	a, err := c.analyzeOne(ctx, path, &opts.setupOpts)
	if err != nil {
		return err
	}
	defer a.Close()

	g := packageGraph(a)
	nopts := nodelink.Options{Detailed: opts.detailed, Internal: opts.internal}
	var data []byte
	switch opts.format {
	case "json":
		var buf bytes.Buffer
		if err := nodelink.WriteJSON(g, &buf, nopts); err != nil {
			return err
		}
		data = buf.Bytes()
	case "svg":
		if data, err = nodelink.RenderSVG(ctx, nodelink.ToDOT(g, nopts)); err != nil {
			return err
		}
	default:
		data = []byte(nodelink.ToDOT(g, nopts))
	}

	if opts.output == "" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return err
	}
	printSuccess(w, "Wrote %s", opts.output)
	return nil
}

// packageGraph describes the packages of an analysis for rendering.
func packageGraph(a *analyzer.Analyzer) nodelink.Graph {
	g := nodelink.Graph{Uses: a.Uses(), Nodes: make(map[string]nodelink.Node)}
	for _, pkg := range a.Contained().Names() {
		n := nodelink.Node{Role: nodelink.RolePrivate}
		if attrs, ok := a.Exports().Get(pkg); ok {
			n = nodelink.Node{Role: nodelink.RoleExported, Version: attrs["version"]}
		} else if attrs, _ := a.Contained().Get(pkg); attrs != nil {
			n.Version = attrs["version"]
		}
		g.Nodes[pkg] = n
	}
	for _, pkg := range a.Unreachable() {
		if n, ok := g.Nodes[pkg]; ok {
			n.Role = nodelink.RoleUnreachable
			g.Nodes[pkg] = n
		}
	}
	return g
}
