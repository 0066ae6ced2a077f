package analyzer

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/magiconair/properties"

	"github.com/matzehuels/bundlescope/pkg/errors"
)

// ManifestPath is the location of the jar manifest.
const ManifestPath = "META-INF/MANIFEST.MF"

// Manifest holds the main section attributes of a jar manifest. Lookups
// ignore case, as manifest attribute names do.
type Manifest map[string]string

// Get returns the value of the named attribute.
func (m Manifest) Get(name string) (string, bool) {
	if v, ok := m[name]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// ReadManifest reads the main section of the manifest in j. A jar without
// a manifest yields (nil, nil).
func ReadManifest(j Jar) (Manifest, error) {
	if !HasResource(j, ManifestPath) {
		return nil, nil
	}
	data, err := ReadResource(j, ManifestPath)
	if err != nil {
		return nil, err
	}
	return ParseManifest(data)
}

// ParseManifest parses manifest text. Only the main section, which ends at
// the first empty line, is read. Lines starting with a single space
// continue the previous value.
func ParseManifest(data []byte) (Manifest, error) {
	m := make(Manifest)
	var key string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" {
			break
		}
		if line[0] == ' ' {
			if key == "" {
				return nil, errors.New(errors.ErrCodeInvalidHeader, "manifest line %d: continuation without a header", n)
			}
			m[key] += line[1:]
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok || name == "" {
			return nil, errors.New(errors.ErrCodeInvalidHeader, "manifest line %d: missing ':' in %q", n, line)
		}
		key = name
		m[key] = strings.TrimPrefix(value, " ")
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidHeader, err, "read manifest")
	}
	return m, nil
}

// parsePackageInfo returns the version recorded in a packageinfo file.
// The file uses the properties format, typically a single line such as
// "version 1.2.0".
func parsePackageInfo(data []byte) (string, bool, error) {
	l := &properties.Loader{Encoding: properties.ISO_8859_1, DisableExpansion: true}
	p, err := l.LoadBytes(data)
	if err != nil {
		return "", false, err
	}
	v, ok := p.Get("version")
	return v, ok, nil
}
