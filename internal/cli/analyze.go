package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/bundlescope/pkg/analyzer"
	"github.com/matzehuels/bundlescope/pkg/cache"
	"github.com/matzehuels/bundlescope/pkg/errors"
)

// Output formats of the analyze command.
const (
	formatText     = "text"
	formatManifest = "manifest"
	formatJSON     = "json"
)

// =============================================================================
// Shared Analysis Setup
// =============================================================================

// setupOpts holds the flags every analyzing command accepts.
type setupOpts struct {
	config    string   // TOML or bnd file with instructions and properties
	exports   string   // Export-Package instruction
	imports   string   // Import-Package instruction
	activator string   // Bundle-Activator class
	classpath []string // jars that decorate imports with versions
	set       []string // key=value properties
	failOK    bool     // report errors as warnings
}

func (o *setupOpts) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.config, "config", "c", "", "instructions file (.toml, or a bnd properties file)")
	f.StringVarP(&o.exports, "export", "e", "", "Export-Package instruction")
	f.StringVarP(&o.imports, "import", "i", "", "Import-Package instruction (default \"*\")")
	f.StringVar(&o.activator, "activator", "", "Bundle-Activator class")
	f.StringSliceVar(&o.classpath, "classpath", nil, "jars providing exports and packageinfo versions")
	f.StringArrayVarP(&o.set, "set", "D", nil, "set a property or instruction (key=value, repeatable)")
	f.BoolVar(&o.failOK, "failok", false, "downgrade analysis errors to warnings")
}

// validate checks the flags before any jar is opened.
func (o *setupOpts) validate() error {
	if err := validateInstruction("export", o.exports); err != nil {
		return err
	}
	if err := validateInstruction("import", o.imports); err != nil {
		return err
	}
	if o.activator != "" {
		if err := errors.ValidatePackageName(o.activator); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid --activator %q", o.activator)
		}
	}
	_, err := parseAssignments(o.set)
	return err
}

// apply configures a. Later sources win: the config file, then the
// dedicated flags, then --set.
func (o *setupOpts) apply(a *analyzer.Analyzer, cfg *config) error {
	if cfg != nil {
		cfg.apply(a)
	}
	if o.exports != "" {
		a.Set(analyzer.ExportPackage, o.exports)
	}
	if o.imports != "" {
		a.Set(analyzer.ImportPackage, o.imports)
	}
	if o.activator != "" {
		a.Set(analyzer.BundleActivator, o.activator)
	}
	if len(o.classpath) > 0 {
		// Flag entries are relative to the working directory, not the
		// config file.
		entries := make([]string, 0, len(o.classpath)+1)
		for _, p := range o.classpath {
			abs, err := filepath.Abs(p)
			if err != nil {
				return err
			}
			entries = append(entries, abs)
		}
		if v, ok := a.Property(analyzer.Classpath); ok && v != "" {
			entries = append([]string{v}, entries...)
		}
		a.Set(analyzer.Classpath, strings.Join(entries, ","))
	}
	if o.failOK {
		a.Set(analyzer.FailOK, "true")
	}
	props, err := parseAssignments(o.set)
	if err != nil {
		return err
	}
	for k, v := range props {
		a.Set(k, v)
	}
	return nil
}

// loadConfig reads the --config file, if any.
func (o *setupOpts) loadConfig() (*config, error) {
	if o.config == "" {
		return nil, nil
	}
	return loadConfig(o.config)
}

// analyze opens the jar at path and analyzes it. The caller closes the
// returned Analyzer.
func (c *CLI) analyze(ctx context.Context, path string, o *setupOpts, cfg *config, parse analyzer.ParseFunc) (*analyzer.Analyzer, error) {
	base := ""
	if cfg != nil {
		base = cfg.dir
	}
	a := analyzer.New(analyzer.Options{Logger: loggerFromContext(ctx), Parse: parse, Base: base})

	j, err := analyzer.Open(path)
	if err != nil {
		return nil, err
	}
	a.SetJar(j)
	if err := o.apply(a, cfg); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.Analyze(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// analyzeOne runs a single analysis for the query commands, backed by the
// record cache.
func (c *CLI) analyzeOne(ctx context.Context, path string, o *setupOpts) (*analyzer.Analyzer, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	backend, err := c.openCache(ctx)
	if err != nil {
		return nil, err
	}
	defer backend.Close()
	rc := cache.NewRecordCache(backend, nil, nil)
	return c.analyze(ctx, path, o, cfg, rc.Parse)
}

// =============================================================================
// Analyze Command
// =============================================================================

// analyzeOpts holds the flags of the analyze command.
type analyzeOpts struct {
	setupOpts
	format string // text, manifest or json
	jobs   int    // jars analyzed in parallel
}

// jarResult is the outcome of analyzing one jar.
type jarResult struct {
	Jar         string            `json:"jar"`
	Run         string            `json:"run"`
	Headers     map[string]string `json:"headers"`
	Warnings    []string          `json:"warnings,omitempty"`
	Errors      []string          `json:"errors,omitempty"`
	Unreachable []string          `json:"unreachable,omitempty"`
	Classes     int               `json:"classes"`
	Packages    int               `json:"packages"`
	Duration    time.Duration     `json:"duration_ns"`
}

func (r *jarResult) ok() bool { return len(r.Errors) == 0 }

// analyzeCommand creates the analyze command.
func (c *CLI) analyzeCommand() *cobra.Command {
	opts := analyzeOpts{format: formatText, jobs: runtime.NumCPU()}

	cmd := &cobra.Command{
		Use:   "analyze <jar|dir>...",
		Short: "Compute Export-Package and Import-Package for jars",
		Long: `Analyze reads every class of each jar or class directory, builds the package
dependency graph and resolves the export and import instructions against it.

Examples:
  bundlescope analyze app.jar -e 'com.acme.api.*' --classpath lib/slf4j-api.jar
  bundlescope analyze target/classes -c bundle.bnd -D version=1.4.0
  bundlescope analyze *.jar --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(cmd.Context(), cmd.OutOrStdout(), args, &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: text, manifest or json")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", opts.jobs, "jars analyzed in parallel")
	return cmd
}

func (c *CLI) runAnalyze(ctx context.Context, w io.Writer, jars []string, opts *analyzeOpts) error {
	if !slices.Contains([]string{formatText, formatManifest, formatJSON}, opts.format) {
		return fmt.Errorf("unknown format %q", opts.format)
	}
	if err := opts.validate(); err != nil {
		return err
	}
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	backend, err := c.openCache(ctx)
	if err != nil {
		return err
	}
	defer backend.Close()
	rc := cache.NewRecordCache(backend, nil, nil)

	if opts.format == formatText && isatty.IsTerminal(os.Stderr.Fd()) {
		sp := newSpinnerWithContext(ctx, fmt.Sprintf("Analyzing %d jar(s)...", len(jars)))
		sp.Start()
		defer sp.Stop()
	}

	prog := newProgress(loggerFromContext(ctx))
	results := make([]*jarResult, len(jars))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.jobs, 1))
	for i, path := range jars {
		g.Go(func() error {
			start := time.Now()
			a, err := c.analyze(gctx, path, &opts.setupOpts, cfg, rc.Parse)
			if err != nil {
				return err
			}
			defer a.Close()
			results[i] = &jarResult{
				Jar:         filepath.Base(path),
				Run:         a.ID(),
				Headers:     a.Headers(),
				Warnings:    a.Warnings(),
				Errors:      a.Errors(),
				Unreachable: a.Unreachable(),
				Classes:     len(a.Classes()),
				Packages:    a.Contained().Len(),
				Duration:    time.Since(start),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	hits, misses := rc.Stats()
	loggerFromContext(ctx).Debug("record cache", "hits", hits, "misses", misses)
	prog.done(fmt.Sprintf("Analyzed %d jar(s)", len(jars)))

	switch opts.format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	case formatManifest:
		for _, r := range results {
			writeManifest(w, r, len(results) > 1)
		}
	default:
		for _, r := range results {
			writeReport(w, r, hits, misses)
		}
	}

	failed := 0
	for _, r := range results {
		if !r.ok() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d jar(s) have errors", failed, len(results))
	}
	return nil
}

// writeManifest prints headers as manifest lines. With named set, a
// Name line introduces each jar.
func writeManifest(w io.Writer, r *jarResult, named bool) {
	if named {
		fmt.Fprintf(w, "Name: %s\n", r.Jar)
	}
	for _, h := range headerOrder {
		if v, ok := r.Headers[h]; ok {
			fmt.Fprintf(w, "%s: %s\n", h, v)
		}
	}
	fmt.Fprintln(w)
}

// writeReport prints the human readable summary of one jar.
func writeReport(w io.Writer, r *jarResult, hits, misses int64) {
	fmt.Fprintln(w, StyleTitle.Render(r.Jar)+" "+StyleDim.Render(r.Run[:8]))
	printStats(w, r.Classes, r.Packages, hits, misses)
	if len(r.Headers) > 0 {
		fmt.Fprintln(w, headerTable(r.Headers))
	} else {
		printInfo(w, "No packages to export or import")
	}
	for _, msg := range r.Errors {
		printError(w, "%s", msg)
	}
	for _, msg := range r.Warnings {
		printWarning(w, "%s", msg)
	}
	if len(r.Unreachable) > 0 {
		printDetail(w, "unreachable from exports: %s", strings.Join(r.Unreachable, ", "))
	}
	if r.ok() {
		printSuccess(w, "Analyzed in %s", r.Duration.Round(time.Millisecond))
	}
	fmt.Fprintln(w)
}
