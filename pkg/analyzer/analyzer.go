package analyzer

import (
	"context"
	stderrors "errors"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/bundlescope/pkg/classfile"
	"github.com/matzehuels/bundlescope/pkg/diag"
	"github.com/matzehuels/bundlescope/pkg/errors"
	"github.com/matzehuels/bundlescope/pkg/header"
	"github.com/matzehuels/bundlescope/pkg/instruction"
	"github.com/matzehuels/bundlescope/pkg/macro"
	"github.com/matzehuels/bundlescope/pkg/observability"
)

// =============================================================================
// Constants - Headers, Instructions and Directives
// =============================================================================

// Manifest headers read or produced by an analysis.
const (
	ExportPackage        = "Export-Package"
	ImportPackage        = "Import-Package"
	DynamicImportPackage = "DynamicImport-Package"
	PrivatePackage       = "Private-Package"
	IgnorePackage        = "Ignore-Package"
	BundleClassPath      = "Bundle-ClassPath"
	BundleActivator      = "Bundle-Activator"
)

// Instructions that steer the analysis without becoming headers.
const (
	ExportContents = "-exportcontents"
	VersionPolicy  = "-versionpolicy"
	NoUses         = "-nouses"
	ResourceOnly   = "-resourceonly"
	FailOK         = "-failok"
	Classpath      = "-classpath"
)

// Clause directives.
const (
	UsesDirective            = "uses:"
	MandatoryDirective       = "mandatory:"
	NoImportDirective        = "-noimport:"
	ImportDirective          = "-import:"
	RemoveAttributeDirective = "-remove-attribute:"
	ResolutionDirective      = "resolution:"
)

// Properties set while attribute values are expanded.
const (
	// CurrentPackage holds the package whose clause is being expanded.
	CurrentPackage = "@package"

	// CurrentUses holds the computed uses list while a uses: override is
	// expanded.
	CurrentUses = "@uses"

	// ExporterVersion holds the cleaned up exporter version while an
	// import version is computed.
	ExporterVersion = "@"
)

// UsesMarker in a uses: directive is replaced with the computed list.
const UsesMarker = "<<USES>>"

// DefaultVersionPolicy imports an exporter version such as 1.2.3 as the
// minimum version 1.2.
const DefaultVersionPolicy = "${version;==;${@}}"

// =============================================================================
// Analyzer - One Analysis Run
// =============================================================================

// Options configures an Analyzer.
type Options struct {
	// Logger receives progress and diagnostics. Nil discards them.
	Logger *log.Logger

	// Parse parses class resources. Nil means [ParseClass].
	Parse ParseFunc

	// Base is the directory relative -classpath entries and file macros
	// are resolved against.
	Base string
}

// Analyzer computes the package imports and exports of one jar. It owns all
// state of the run and is not safe for concurrent use; run several
// analyses with several Analyzers.
type Analyzer struct {
	id     string
	logger *log.Logger
	parse  ParseFunc
	base   string

	props  macro.Map
	diag   *diag.Diagnostics
	macros *macro.Expander

	jar       Jar
	classpath []Jar
	closers   []io.Closer

	analyzed         bool
	activator        string
	graph            *Graph
	space            map[string]*classfile.Record
	classpathExports *header.Clauses
	contained        *header.Clauses
	referred         *header.Clauses
	exports          *header.Clauses
	imports          *header.Clauses
	ignored          *header.Clauses
}

// New creates an Analyzer.
func New(opts Options) *Analyzer {
	id := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.With("run", id[:8])
	if opts.Parse == nil {
		opts.Parse = ParseClass
	}

	a := &Analyzer{
		id:               id,
		logger:           logger,
		parse:            opts.Parse,
		base:             opts.Base,
		props:            make(macro.Map),
		diag:             diag.New(logger),
		graph:            &Graph{Contained: header.New(), Referred: header.New(), Uses: map[string][]string{}, Classes: map[string]*classfile.Record{}},
		classpathExports: header.New(),
		contained:        header.New(),
		referred:         header.New(),
		exports:          header.New(),
		imports:          header.New(),
		ignored:          header.New(),
	}
	a.macros = macro.New(a.props, a.diag, classDomain{a})
	a.macros.Base = opts.Base
	return a
}

// ID returns the unique id of this run.
func (a *Analyzer) ID() string { return a.id }

// SetJar sets the jar to analyze. The Analyzer closes it on Close.
func (a *Analyzer) SetJar(j Jar) {
	a.jar = j
	a.closers = append(a.closers, j)
}

// AddClasspath adds a jar whose exports and packageinfo versions decorate
// the imports. The Analyzer closes it on Close.
func (a *Analyzer) AddClasspath(j Jar) {
	a.classpath = append(a.classpath, j)
	a.closers = append(a.closers, j)
}

// SetProperties copies every property of p, replacing existing values.
func (a *Analyzer) SetProperties(p macro.Properties) {
	for _, k := range p.Keys() {
		if v, ok := p.Get(k); ok {
			a.props[k] = v
		}
	}
}

// Set sets a single property or instruction.
func (a *Analyzer) Set(key, value string) {
	a.props[key] = value
}

// Property returns the macro expanded value of key.
func (a *Analyzer) Property(key string) (string, bool) {
	v, ok := a.props[key]
	if !ok {
		return "", false
	}
	return a.macros.Process(v), true
}

// property returns the expanded value of key, or the expanded deflt when
// key is not set.
func (a *Analyzer) property(key, deflt string) string {
	if v, ok := a.Property(key); ok {
		return v
	}
	return a.macros.Process(deflt)
}

func (a *Analyzer) isTrue(key string) bool {
	return strings.EqualFold(strings.TrimSpace(a.property(key, "false")), "true")
}

// Process expands the macros in text against the properties of this run.
func (a *Analyzer) Process(text string) string {
	return a.macros.Process(text)
}

// =============================================================================
// Analyze
// =============================================================================

// Analyze builds the package graph of the jar and resolves the export and
// import instructions against it. It runs once; later calls return nil.
//
// Problems in the jar or the instructions are collected as warnings and
// errors, see [Analyzer.Warnings] and [Analyzer.Errors]. The returned error
// is reserved for conditions that make a result meaningless: no jar, an
// instruction that does not compile, or a done ctx.
func (a *Analyzer) Analyze(ctx context.Context) (err error) {
	if a.analyzed {
		return nil
	}
	if a.jar == nil {
		return errors.New(errors.ErrCodeInvalidInput, "no jar to analyze")
	}
	a.analyzed = true

	start := time.Now()
	name := a.jar.Name()
	observability.Analysis().OnAnalyzeStart(ctx, name)
	defer func() {
		observability.Analysis().OnAnalyzeComplete(ctx, name, len(a.graph.Classes), time.Since(start), err)
	}()

	a.diag.FailOK = a.isTrue(FailOK)
	a.activator = a.property(BundleActivator, "")
	bundleClasspath := header.Parse(a.property(BundleClassPath, ""), a.diag)

	a.openClasspath()
	a.analyzeClasspath()

	a.logger.Debug("building package graph", "jar", name, "classpath", bundleClasspath.Names())
	g, err := BuildGraph(ctx, a.jar, bundleClasspath.Names(), GraphOptions{Parse: a.parse, Reporter: a.diag})
	if err != nil {
		return err
	}
	a.graph = g
	a.space = g.ByName()
	a.contained = g.Contained
	a.referred = g.Referred.Clone()

	// The activator package is referred even when no class names it, and
	// must be added before the contained packages are removed.
	if n := strings.LastIndexByte(a.activator, '.'); n > 0 {
		if err := errors.ValidatePackageName(a.activator[:n]); err != nil {
			a.diag.Errorf("Invalid Bundle-Activator %s: %s", a.activator, errors.UserMessage(err))
		} else {
			a.referred.Set(a.activator[:n], nil)
		}
	}

	a.referred.DeleteAll(a.contained)
	if a.referred.Has(".") {
		a.diag.Errorf("The default package '.' is not permitted by the Import-Package syntax. "+
			"This can be caused by compile errors in Eclipse because Eclipse creates valid class files regardless of compile errors. "+
			"The following package(s) import from the default package %s", list(g.UsedBy(".")))
	}

	exportInstructions := header.Parse(a.property(ExportPackage, ""), a.diag)
	exportInstructions.Merge(header.Parse(a.property(ExportContents, ""), a.diag))
	importInstructions := header.Parse(a.property(ImportPackage, "*"), a.diag)
	dynamicImports := header.Parse(a.property(DynamicImportPackage, ""), a.diag)

	a.referred.DeleteAll(dynamicImports)

	if err := a.resolveExports(exportInstructions); err != nil {
		return err
	}
	if err := a.resolveImports(importInstructions); err != nil {
		return err
	}

	a.augmentImports()
	a.doUses()

	a.logger.Info("analyzed bundle",
		"jar", name,
		"classes", len(g.Classes),
		"contained", a.contained.Len(),
		"exports", a.exports.Len(),
		"imports", a.imports.Len(),
		"duration", time.Since(start))
	return ctx.Err()
}

func (a *Analyzer) resolveExports(instructions *header.Clauses) error {
	superfluous, err := trackInstructions("export-package", instructions, func(name string) bool {
		return !strings.HasPrefix(name, "!")
	})
	if err != nil {
		return err
	}

	exports, err := Merge("export-package", instructions, a.contained, superfluous, nil)
	if err != nil {
		return err
	}
	exports.Delete(".")

	// Metadata directories are exported only when named explicitly.
	var left []string
	for _, in := range superfluous.List() {
		name := in.Source()
		switch {
		case isMetaData(name):
			attrs, _ := instructions.Get(name)
			exports.Set(name, attrs.Clone())
		case !in.Optional():
			left = append(left, name)
		}
	}
	if len(left) > 0 {
		slices.Sort(left)
		a.diag.Warningf("Superfluous export-package instructions: %s", list(left))
	}
	a.exports = exports
	return nil
}

func (a *Analyzer) resolveImports(instructions *header.Clauses) error {
	candidates := a.referred.Clone()
	candidates.Merge(exportsToImports(a.exports))

	extra, err := trackInstructions("import-package", instructions, nil)
	if err != nil {
		return err
	}
	imports, err := Merge("import-package", instructions, candidates, extra, a.ignored)
	if err != nil {
		return err
	}

	// Unused literal instructions are imported anyway; the user knows best.
	resourceOnly := a.isTrue(ResourceOnly)
	for _, in := range extra.List() {
		name := in.Source()
		if instruction.HasWildcard(name) {
			if !resourceOnly && !in.Optional() {
				a.diag.Warningf("Did not find matching referal for %s", name)
			}
			continue
		}
		attrs, _ := instructions.Get(name)
		imports.Set(name, attrs.Clone())
	}
	a.imports = imports
	return nil
}

// exportsToImports returns the exports that are also imported: all but
// those marked -noimport:=true, without their version.
func exportsToImports(exports *header.Clauses) *header.Clauses {
	out := header.New()
	exports.Each(func(name string, attrs header.Attrs) {
		if strings.EqualFold(attrs[NoImportDirective], "true") {
			return
		}
		attrs = attrs.Clone()
		delete(attrs, "version")
		out.Set(name, attrs)
	})
	return out
}

// list renders names the way diagnostics show sets: [a, b].
func list(names []string) string {
	return "[" + strings.Join(names, ", ") + "]"
}

// =============================================================================
// Classpath
// =============================================================================

// openClasspath opens the jars named by the -classpath instruction.
func (a *Analyzer) openClasspath() {
	for _, entry := range header.SplitList(a.property(Classpath, "")) {
		p := entry
		if !filepath.IsAbs(p) && a.base != "" {
			p = filepath.Join(a.base, p)
		}
		j, err := Open(p)
		if err != nil {
			a.diag.Warningf("File on classpath that does not exist: %s", entry)
			continue
		}
		a.AddClasspath(j)
	}
}

// analyzeClasspath collects the exports declared by classpath manifests
// and the versions of their packageinfo files.
func (a *Analyzer) analyzeClasspath() {
	a.classpathExports = header.New()
	for _, j := range a.classpath {
		a.checkManifest(j)
		for _, dir := range slices.Sorted(maps.Keys(Directories(j))) {
			info := dir + "/packageinfo"
			if !HasResource(j, info) {
				continue
			}
			data, err := ReadResource(j, info)
			if err != nil {
				continue
			}
			if v, ok, err := parsePackageInfo(data); err == nil && ok {
				a.setPackageInfo(dir, "version", v)
			}
		}
	}
}

func (a *Analyzer) checkManifest(j Jar) {
	m, err := ReadManifest(j)
	if err != nil {
		a.diag.Warningf("Erroneous Manifest for %s %v", j.Name(), err)
		return
	}
	if v, ok := m.Get(ExportPackage); ok {
		a.classpathExports.Merge(header.Parse(v, a.diag))
	}
}

func (a *Analyzer) setPackageInfo(dir, key, value string) {
	pkg := strings.ReplaceAll(dir, "/", ".")
	attrs, ok := a.classpathExports.Get(pkg)
	if !ok {
		attrs = header.Attrs{}
		a.classpathExports.Set(pkg, attrs)
	}
	attrs[key] = value
}

// =============================================================================
// Results
// =============================================================================

// Exports returns the resolved exports.
func (a *Analyzer) Exports() *header.Clauses { return a.exports }

// Imports returns the resolved imports.
func (a *Analyzer) Imports() *header.Clauses { return a.imports }

// Contained returns the packages found in the jar.
func (a *Analyzer) Contained() *header.Clauses { return a.contained }

// Referred returns the referenced packages that are not contained.
func (a *Analyzer) Referred() *header.Clauses { return a.referred }

// Ignored returns the referred packages excluded by a negated import
// instruction.
func (a *Analyzer) Ignored() *header.Clauses { return a.ignored }

// Uses returns the package uses graph.
func (a *Analyzer) Uses() map[string][]string { return a.graph.Uses }

// Classes returns the parsed classes keyed by resource path.
func (a *Analyzer) Classes() map[string]*classfile.Record { return a.graph.Classes }

// Unreachable returns the packages that no export and no activator
// reaches through the uses graph.
func (a *Analyzer) Unreachable() []string {
	roots := a.exports.Names()
	if n := strings.LastIndexByte(a.activator, '.'); n > 0 {
		roots = append(roots, a.activator[:n])
	}
	return Unreachable(a.graph.Uses, roots...)
}

// Warnings returns the warnings collected so far.
func (a *Analyzer) Warnings() []string { return a.diag.Warnings() }

// Errors returns the errors collected so far.
func (a *Analyzer) Errors() []string { return a.diag.Errors() }

// OK reports whether the run has no errors.
func (a *Analyzer) OK() bool { return a.diag.OK() }

// Headers renders the resolved clauses as manifest header values. Empty
// headers are omitted.
func (a *Analyzer) Headers() map[string]string {
	out := make(map[string]string)
	put := func(name, value string) {
		if value != "" {
			out[name] = value
		}
	}

	put(ExportPackage, header.Format(a.exports, UsesDirective, "include:", "exclude:", MandatoryDirective, ImportDirective))

	imports := a.imports.Clone()
	for _, name := range imports.Names() {
		if strings.HasPrefix(name, "java.") {
			imports.Delete(name)
		}
	}
	put(ImportPackage, header.Format(imports, ResolutionDirective))

	private := a.contained.Clone()
	private.DeleteAll(a.exports)
	put(PrivatePackage, header.Format(private))
	put(IgnorePackage, header.Format(a.ignored))
	return out
}

// Close releases the jar and every classpath jar.
func (a *Analyzer) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return stderrors.Join(errs...)
}
