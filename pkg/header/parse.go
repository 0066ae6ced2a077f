package header

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/matzehuels/bundlescope/pkg/diag"
	"github.com/matzehuels/bundlescope/pkg/errors"
)

// Parse reads an OSGi header into clauses. Problems such as duplicate names
// are reported to r and parsing continues. A nil r discards them.
//
// A clause may name several packages that share the attributes that follow
// them: "a;b;version=1" yields clauses a and b, both with version=1. A name
// that appears twice gets [DuplicateMarker] appended until it is unique.
func Parse(text string, r diag.Reporter) *Clauses {
	if r == nil {
		r = diag.Discard
	}
	result := New()
	if strings.TrimSpace(text) == "" {
		return result
	}

	for _, clause := range splitQuoted(text, ',') {
		if strings.TrimSpace(clause) == "" {
			continue
		}
		var names []string
		attrs := Attrs{}
		for _, part := range splitQuoted(clause, ';') {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			eq := indexUnquoted(part, '=')
			if eq < 0 {
				if len(attrs) > 0 {
					r.Warningf("Header contains name field after attribute or directive: %s from %s", part, text)
				}
				names = append(names, unquote(part))
				continue
			}
			key := strings.TrimSpace(part[:eq])
			value := unquote(strings.TrimSpace(part[eq+1:]))
			if key == "" {
				r.Warningf("Header contains an attribute without a name: %s", part)
				continue
			}
			attrs[key] = value
		}
		if len(names) == 0 {
			r.Warningf("Header clause has no name: %s", clause)
			continue
		}
		for i, name := range names {
			a := attrs
			if i > 0 {
				a = attrs.Clone()
			}
			if result.Has(name) {
				orig := name
				for result.Has(name) {
					name += string(DuplicateMarker)
				}
				r.Warningf("Duplicate name %s used in header: '%s'", orig, text)
			}
			result.Set(name, a)
		}
	}
	return result
}

// ParseStrict is like Parse but fails on the first problem.
func ParseStrict(text string) (*Clauses, error) {
	var c collector
	out := Parse(text, &c)
	if c.first != "" {
		return nil, errors.New(errors.ErrCodeInvalidHeader, "%s", c.first)
	}
	return out, nil
}

type collector struct{ first string }

func (c *collector) Warningf(format string, args ...any) { c.note(format, args...) }
func (c *collector) Errorf(format string, args ...any)   { c.note(format, args...) }

func (c *collector) note(format string, args ...any) {
	if c.first == "" {
		c.first = fmt.Sprintf(format, args...)
	}
}

// splitQuoted splits s on sep, ignoring separators inside double quotes.
func splitQuoted(s string, sep byte) []string {
	var parts []string
	quoted := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\' && quoted && i+1 < len(s):
			i++
		case s[i] == '"':
			quoted = !quoted
		case s[i] == sep && !quoted:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// indexUnquoted returns the index of the first c outside double quotes.
// For "uses:=x" this is the '=' so the key keeps its trailing colon.
func indexUnquoted(part string, c byte) int {
	quoted := false
	for i := 0; i < len(part); i++ {
		switch {
		case part[i] == '"':
			quoted = !quoted
		case part[i] == c && !quoted:
			return i
		}
	}
	return -1
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
		s = strings.ReplaceAll(s, `\"`, `"`)
	}
	return s
}

// listSplit matches the separators of a comma separated list, including
// the surrounding whitespace.
var listSplit = regexp.MustCompile(`\s*,\s*`)

// SplitList splits a comma separated list, dropping empty entries.
func SplitList(s string) []string {
	var out []string
	for _, p := range listSplit.Split(strings.TrimSpace(s), -1) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SplitClauses splits header text into its clauses, ignoring commas
// inside quoted values. Clauses are returned untrimmed.
func SplitClauses(s string) []string {
	if s == "" {
		return nil
	}
	return splitQuoted(s, ',')
}
