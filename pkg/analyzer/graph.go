package analyzer

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/bundlescope/pkg/classfile"
	"github.com/matzehuels/bundlescope/pkg/diag"
	"github.com/matzehuels/bundlescope/pkg/header"
	"github.com/matzehuels/bundlescope/pkg/observability"
)

// metaPackages are resource prefixes that never form a contained package.
var metaPackages = []string{"META-INF", "OSGI-OPT"}

// isMetaData reports whether a resource path or package name lies in a
// metadata directory.
func isMetaData(name string) bool {
	for _, p := range metaPackages {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// packageOfPath returns the dotted package of a resource path, "." for a
// resource in the root.
func packageOfPath(p string) string {
	n := strings.LastIndexByte(p, '/')
	if n < 0 {
		return "."
	}
	return strings.ReplaceAll(p[:n], "/", ".")
}

// =============================================================================
// Graph - Package Dependency Graph
// =============================================================================

// ParseFunc turns the bytes of a class resource into a record.
type ParseFunc func(ctx context.Context, path string, data []byte) (*classfile.Record, error)

// ParseClass is the default ParseFunc. It calls [classfile.Parse].
func ParseClass(_ context.Context, path string, data []byte) (*classfile.Record, error) {
	return classfile.Parse(path, data)
}

// Graph is the package level view of a bundle.
type Graph struct {
	// Contained maps every package holding a resource to its attributes.
	// A packageinfo file contributes a version attribute.
	Contained *header.Clauses

	// Referred holds every package referenced by a class, including the
	// contained ones.
	Referred *header.Clauses

	// Uses maps a package to the packages its classes reference, in order
	// of first reference and without the package itself.
	Uses map[string][]string

	// Classes maps resource paths, relative to their classpath entry, to
	// the parsed records.
	Classes map[string]*classfile.Record
}

// GraphOptions configures [BuildGraph].
type GraphOptions struct {
	// Parse parses class resources. Nil means [ParseClass].
	Parse ParseFunc

	// Reporter receives malformed class errors and classpath warnings.
	// Nil discards them.
	Reporter diag.Reporter
}

// BuildGraph walks the bundle classpath of jar and builds its package
// graph. An empty classpath, or the entry ".", means the root of the jar.
// Other entries name an embedded jar or a directory inside jar.
//
// Problems with single classes or classpath entries are reported and
// skipped. The returned error is non-nil only when ctx is done.
func BuildGraph(ctx context.Context, jar Jar, classpath []string, opts GraphOptions) (*Graph, error) {
	if opts.Parse == nil {
		opts.Parse = ParseClass
	}
	if opts.Reporter == nil {
		opts.Reporter = diag.Discard
	}
	b := &graphBuilder{
		opts: opts,
		g: &Graph{
			Contained: header.New(),
			Referred:  header.New(),
			Uses:      make(map[string][]string),
			Classes:   make(map[string]*classfile.Record),
		},
		used: make(map[string]map[string]bool),
	}

	if len(classpath) == 0 {
		return b.g, b.analyzeJar(ctx, jar, "")
	}
	for _, entry := range classpath {
		if err := b.analyzeEntry(ctx, jar, entry); err != nil {
			return nil, err
		}
	}
	return b.g, nil
}

type graphBuilder struct {
	opts GraphOptions
	g    *Graph
	used map[string]map[string]bool
}

func (b *graphBuilder) analyzeEntry(ctx context.Context, jar Jar, entry string) error {
	if entry == "." {
		return b.analyzeJar(ctx, jar, "")
	}
	if HasResource(jar, entry) {
		data, err := ReadResource(jar, entry)
		var embedded Jar
		if err == nil {
			embedded, err = ReadZip(entry, data)
		}
		if err != nil {
			b.opts.Reporter.Warningf("Invalid bundle classpath entry: %s %v", entry, err)
			return nil
		}
		defer embedded.Close()
		return b.analyzeJar(ctx, embedded, "")
	}
	if hasDirectory(jar, entry) {
		return b.analyzeJar(ctx, jar, entry+"/")
	}
	b.opts.Reporter.Warningf("No sub JAR or directory %s", entry)
	return nil
}

func (b *graphBuilder) analyzeJar(ctx context.Context, jar Jar, prefix string) error {
	for _, p := range jar.Resources() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rel := p[len(prefix):]
		pkg := packageOfPath(rel)

		if !b.g.Contained.Has(pkg) && !isMetaData(rel) {
			b.g.Contained.Set(pkg, b.packageAttrs(jar, prefix, pkg))
		}

		if !strings.HasSuffix(p, ".class") {
			continue
		}
		rec, err := b.parse(ctx, jar, p, rel)
		if err != nil {
			b.opts.Reporter.Errorf("Invalid class file: %s: %v", rel, err)
			observability.Analysis().OnClassFailed(ctx, rel, err)
			continue
		}

		if calculated := rec.Name + ".class"; calculated != rel {
			b.opts.Reporter.Errorf("Class in different directory than declared. Path from class name is %s but the path in the jar is %s from %s",
				calculated, rel, jar.Name())
		}

		b.g.Classes[rel] = rec
		for _, ref := range rec.Referred {
			b.g.Referred.Add(ref)
		}
		b.addUses(pkg, rec.Referred)
	}
	return nil
}

func (b *graphBuilder) parse(ctx context.Context, jar Jar, p, rel string) (*classfile.Record, error) {
	data, err := ReadResource(jar, p)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rec, err := b.opts.Parse(ctx, rel, data)
	if err != nil {
		return nil, err
	}
	observability.Analysis().OnClassParsed(ctx, rel, time.Since(start))
	return rec, nil
}

// packageAttrs reads the packageinfo file of pkg, if there is one.
func (b *graphBuilder) packageAttrs(jar Jar, prefix, pkg string) header.Attrs {
	attrs := header.Attrs{}
	info := prefix + "packageinfo"
	if pkg != "." {
		info = prefix + strings.ReplaceAll(pkg, ".", "/") + "/packageinfo"
	}
	if !HasResource(jar, info) {
		return attrs
	}
	data, err := ReadResource(jar, info)
	if err == nil {
		var v string
		var ok bool
		if v, ok, err = parsePackageInfo(data); ok {
			attrs["version"] = v
		}
	}
	if err != nil {
		b.opts.Reporter.Warningf("Invalid packageinfo %s: %v", info, err)
	}
	return attrs
}

func (b *graphBuilder) addUses(pkg string, referred []string) {
	seen, ok := b.used[pkg]
	if !ok {
		seen = make(map[string]bool)
		b.used[pkg] = seen
		b.g.Uses[pkg] = []string{}
	}
	for _, ref := range referred {
		if ref == pkg || seen[ref] {
			continue
		}
		seen[ref] = true
		b.g.Uses[pkg] = append(b.g.Uses[pkg], ref)
	}
}

// hasDirectory reports whether any resource of j lies below dir.
func hasDirectory(j Jar, dir string) bool {
	prefix := strings.TrimSuffix(dir, "/") + "/"
	res := j.Resources()
	i, _ := slices.BinarySearch(res, prefix)
	return i < len(res) && strings.HasPrefix(res[i], prefix)
}

// =============================================================================
// Graph Queries
// =============================================================================

// UsedBy returns the packages that use pkg, sorted.
func (g *Graph) UsedBy(pkg string) []string {
	var out []string
	for p, used := range g.Uses {
		if slices.Contains(used, pkg) {
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return out
}

// ByName indexes the class records by internal class name, the form
// [classfile.Record.Is] follows superclass links through.
func (g *Graph) ByName() map[string]*classfile.Record {
	out := make(map[string]*classfile.Record, len(g.Classes))
	for _, rec := range g.Classes {
		out[rec.Name] = rec
	}
	return out
}
