// Package header models OSGi manifest headers as ordered clause maps.
//
// A header is a comma separated list of clauses. Each clause names one or
// more packages followed by attributes (key=value) and directives
// (key:=value):
//
//	com.acme.api;version="1.2";uses:="com.acme.spi",com.acme.spi
//
// Directive keys keep their trailing colon ("uses:") so an attribute and a
// directive with the same name can coexist in one [Attrs].
package header

import (
	"maps"
	"slices"
	"strings"
)

// DuplicateMarker is appended to a clause name to keep a second clause with
// the same name. [Format] strips it again.
const DuplicateMarker = '~'

// Attrs holds the attributes and directives of one clause.
type Attrs map[string]string

// Clone returns a copy of a. A nil receiver yields an empty map.
func (a Attrs) Clone() Attrs {
	out := make(Attrs, len(a))
	maps.Copy(out, a)
	return out
}

// Keys returns the attribute keys in sorted order.
func (a Attrs) Keys() []string {
	return slices.Sorted(maps.Keys(a))
}

// IsDirective reports whether key names a directive.
func IsDirective(key string) bool {
	return strings.HasSuffix(key, ":")
}

// Clauses is an insertion-ordered map from clause name to attributes.
// The zero value is an empty, usable map.
type Clauses struct {
	names []string
	attrs map[string]Attrs
}

// New returns an empty Clauses.
func New() *Clauses {
	return &Clauses{attrs: make(map[string]Attrs)}
}

// Of builds Clauses from names, each with empty attributes.
func Of(names ...string) *Clauses {
	c := New()
	for _, n := range names {
		c.Set(n, nil)
	}
	return c
}

// Set stores attrs under name. An existing name keeps its position.
func (c *Clauses) Set(name string, attrs Attrs) {
	if c.attrs == nil {
		c.attrs = make(map[string]Attrs)
	}
	if attrs == nil {
		attrs = Attrs{}
	}
	if _, ok := c.attrs[name]; !ok {
		c.names = append(c.names, name)
	}
	c.attrs[name] = attrs
}

// Add stores name with empty attributes unless it is already present.
func (c *Clauses) Add(name string) {
	if !c.Has(name) {
		c.Set(name, nil)
	}
}

// Get returns the attributes stored under name.
func (c *Clauses) Get(name string) (Attrs, bool) {
	if c == nil || c.attrs == nil {
		return nil, false
	}
	a, ok := c.attrs[name]
	return a, ok
}

// Has reports whether name is present.
func (c *Clauses) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Delete removes name.
func (c *Clauses) Delete(name string) {
	if !c.Has(name) {
		return
	}
	delete(c.attrs, name)
	if i := slices.Index(c.names, name); i >= 0 {
		c.names = slices.Delete(c.names, i, i+1)
	}
}

// Len returns the number of clauses.
func (c *Clauses) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

// Names returns the clause names in insertion order.
func (c *Clauses) Names() []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.names)
}

// Each calls fn for every clause in insertion order.
func (c *Clauses) Each(fn func(name string, attrs Attrs)) {
	if c == nil {
		return
	}
	for _, n := range c.names {
		fn(n, c.attrs[n])
	}
}

// Clone returns a deep copy of c.
func (c *Clauses) Clone() *Clauses {
	out := New()
	c.Each(func(name string, attrs Attrs) {
		out.Set(name, attrs.Clone())
	})
	return out
}

// Merge copies every clause of other into c, replacing existing names.
func (c *Clauses) Merge(other *Clauses) {
	other.Each(func(name string, attrs Attrs) {
		c.Set(name, attrs)
	})
}

// DeleteAll removes every name present in other.
func (c *Clauses) DeleteAll(other *Clauses) {
	other.Each(func(name string, _ Attrs) {
		c.Delete(name)
	})
}

// IsDuplicate reports whether name ends with the duplicate marker.
func IsDuplicate(name string) bool {
	return len(name) > 0 && name[len(name)-1] == DuplicateMarker
}

// RemoveDuplicateMarker strips every trailing duplicate marker from name.
func RemoveDuplicateMarker(name string) string {
	return strings.TrimRight(name, string(DuplicateMarker))
}
