package classfile

import (
	"fmt"
	"strings"

	"github.com/matzehuels/bundlescope/pkg/instruction"
)

// Record summarizes one parsed class. It is immutable once returned by
// [Parse] and safe to share between goroutines.
type Record struct {
	// Path is the resource path the class was read from.
	Path string `json:"path"`

	// Name is the internal, slash separated class name (com/acme/Foo).
	Name string `json:"name"`

	// Super is the internal name of the superclass. It is empty only for
	// java/lang/Object.
	Super string `json:"super,omitempty"`

	// Interfaces lists the directly implemented interfaces in declaration
	// order.
	Interfaces []string `json:"interfaces,omitempty"`

	// Types lists every referenced class outside java/, in order of first
	// resolution.
	Types []string `json:"types,omitempty"`

	// Referred lists the dotted packages of Types without duplicates. The
	// class's own package is included; callers remove it where needed.
	Referred []string `json:"referred,omitempty"`

	SourceFile string `json:"source_file,omitempty"`
	Major      int    `json:"major"`
	Minor      int    `json:"minor"`
}

// Package returns the dotted package of the class.
func (r *Record) Package() string {
	return PackageOf(r.Name)
}

// FQN returns the dotted, fully qualified class name.
func (r *Record) FQN() string {
	return strings.ReplaceAll(r.Name, "/", ".")
}

// Version returns the class file version as "major/minor".
func (r *Record) Version() string {
	return fmt.Sprintf("%d/%d", r.Major, r.Minor)
}

// String returns the FQN.
func (r *Record) String() string { return r.FQN() }

// Query selects what [Record.Is] compares against an instruction.
type Query int

// Class space queries.
const (
	QueryAny Query = iota
	QueryImplements
	QueryExtends
	QueryImports
	QueryNamed
	QueryVersion
)

var queryNames = map[string]Query{
	"implementing": QueryImplements,
	"implements":   QueryImplements,
	"extending":    QueryExtends,
	"extends":      QueryExtends,
	"importing":    QueryImports,
	"imports":      QueryImports,
	"named":        QueryNamed,
	"version":      QueryVersion,
	"all":          QueryAny,
	"any":          QueryAny,
}

// ParseQuery reads a query keyword such as "implementing" or "named".
func ParseQuery(s string) (Query, bool) {
	q, ok := queryNames[s]
	return q, ok
}

// Is reports whether the class satisfies query for instr. Instructions are
// matched against slash separated names, so "com/acme/*" selects classes
// in com.acme. When the class itself does not match, the superclass chain
// is followed through space, which maps internal class names to records.
// A negated instruction that matches yields false.
func (r *Record) Is(query Query, instr *instruction.Instruction, space map[string]*Record) bool {
	seen := make(map[string]bool)
	for c := r; c != nil && !seen[c.Name]; {
		seen[c.Name] = true
		if matched, decided := c.is(query, instr); decided {
			return matched
		}
		if c.Super == "" || space == nil {
			return false
		}
		c = space[c.Super]
	}
	return false
}

// is evaluates query against this class only. decided is false when the
// superclass should be consulted.
func (r *Record) is(query Query, instr *instruction.Instruction) (matched, decided bool) {
	hit := func(s string) bool { return instr.Matches(s) }
	switch query {
	case QueryAny:
		return true, true
	case QueryNamed:
		return hit(r.Name) && !instr.Negated(), true
	case QueryVersion:
		return hit(r.Version()) && !instr.Negated(), true
	case QueryImplements:
		for _, iface := range r.Interfaces {
			if hit(iface) {
				return !instr.Negated(), true
			}
		}
	case QueryExtends:
		if r.Super == "" {
			return false, true
		}
		if hit(r.Super) {
			return !instr.Negated(), true
		}
	case QueryImports:
		for _, pkg := range r.Referred {
			if hit(strings.ReplaceAll(pkg, ".", "/")) {
				return !instr.Negated(), true
			}
		}
	}
	return false, false
}
