package analyzer

import (
	"archive/zip"
	"bytes"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/bundlescope/pkg/errors"
)

// =============================================================================
// Jar - Resource Sources
// =============================================================================

// Jar is a read-only set of resources addressed by slash separated paths.
// Directory entries are not resources; they are derived from resource
// paths by [Directories].
type Jar interface {
	// Name identifies the jar in diagnostics.
	Name() string

	// Resources returns every resource path in sorted order.
	Resources() []string

	// Open opens the resource at path.
	Open(path string) (io.ReadCloser, error)

	// Close releases the underlying archive handle.
	Close() error
}

// Open opens path as an exploded directory when it is one and as a zip
// archive otherwise.
func Open(p string) (Jar, error) {
	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "jar not found: %s", p)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "stat %s", p)
	}
	if info.IsDir() {
		return OpenDir(p)
	}
	return OpenZip(p)
}

// ReadResource reads the whole resource at p.
func ReadResource(j Jar, p string) ([]byte, error) {
	rc, err := j.Open(p)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// HasResource reports whether j holds a resource at p.
func HasResource(j Jar, p string) bool {
	_, ok := slices.BinarySearch(j.Resources(), p)
	return ok
}

// Directories returns the set of directories that directly hold at least
// one resource. The root directory is not included.
func Directories(j Jar) map[string]bool {
	dirs := make(map[string]bool)
	for _, p := range j.Resources() {
		if d := path.Dir(p); d != "." {
			dirs[d] = true
		}
	}
	return dirs
}

// =============================================================================
// Zip Archives
// =============================================================================

type zipJar struct {
	name   string
	closer io.Closer
	files  map[string]*zip.File
	paths  []string
}

// OpenZip opens the zip archive at p. The caller must Close the jar.
func OpenZip(p string) (Jar, error) {
	rc, err := zip.OpenReader(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "jar not found: %s", p)
		}
		return nil, errors.Wrap(errors.ErrCodeMalformedArchive, err, "open %s", p)
	}
	return newZipJar(p, &rc.Reader, rc), nil
}

// ReadZip reads a zip archive held in memory, such as a jar embedded in
// another jar.
func ReadZip(name string, data []byte) (Jar, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedArchive, err, "read %s", name)
	}
	return newZipJar(name, r, nil), nil
}

func newZipJar(name string, r *zip.Reader, closer io.Closer) *zipJar {
	j := &zipJar{name: name, closer: closer, files: make(map[string]*zip.File, len(r.File))}
	for _, f := range r.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		if _, dup := j.files[f.Name]; dup {
			continue
		}
		j.files[f.Name] = f
		j.paths = append(j.paths, f.Name)
	}
	slices.Sort(j.paths)
	return j
}

func (j *zipJar) Name() string        { return j.name }
func (j *zipJar) Resources() []string { return j.paths }

func (j *zipJar) Open(p string) (io.ReadCloser, error) {
	f, ok := j.files[p]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "%s: no resource %s", j.name, p)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedArchive, err, "%s: open %s", j.name, p)
	}
	return rc, nil
}

func (j *zipJar) Close() error {
	if j.closer == nil {
		return nil
	}
	err := j.closer.Close()
	j.closer = nil
	return err
}

// =============================================================================
// Exploded Directories
// =============================================================================

type dirJar struct {
	root  string
	paths []string
}

// OpenDir treats the directory root as a jar, for example a compiler
// output directory.
func OpenDir(root string) (Jar, error) {
	var paths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "walk %s", root)
	}
	slices.Sort(paths)
	return &dirJar{root: root, paths: paths}, nil
}

func (j *dirJar) Name() string        { return j.root }
func (j *dirJar) Resources() []string { return j.paths }
func (j *dirJar) Close() error        { return nil }

func (j *dirJar) Open(p string) (io.ReadCloser, error) {
	if err := errors.ValidatePath(p); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(j.root, filepath.FromSlash(p)))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "%s: no resource %s", j.root, p)
	}
	return f, nil
}

// =============================================================================
// In-memory Jars
// =============================================================================

type memJar struct {
	name  string
	data  map[string][]byte
	paths []string
}

// NewMemJar builds a jar from resource contents keyed by path.
func NewMemJar(name string, resources map[string][]byte) Jar {
	j := &memJar{name: name, data: make(map[string][]byte, len(resources))}
	for p, b := range resources {
		j.data[p] = b
		j.paths = append(j.paths, p)
	}
	slices.Sort(j.paths)
	return j
}

func (j *memJar) Name() string        { return j.name }
func (j *memJar) Resources() []string { return j.paths }
func (j *memJar) Close() error        { return nil }

func (j *memJar) Open(p string) (io.ReadCloser, error) {
	b, ok := j.data[p]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "%s: no resource %s", j.name, p)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}
