// Package macro expands ${...} references in header values and
// configuration properties.
//
// A reference names either a property or a function. Function references
// separate their arguments with ';' and are dispatched to the registered
// [Domain]s in order, then to the built-in functions:
//
//	${version;==;${@}}        // 1.2 when @ is 1.2.3
//	${sort;b,c,a}             // a,b,c
//	${if;${debug};-g;-O}
//
// Besides braces, the openers (, [, <, « and ‹ are accepted after '$'. A
// backslash before '$' emits a literal dollar. References that expand into
// themselves are cut off with an ${infinite:[...]} marker.
//
// Unresolved references are left in place as ${key} and reported through
// the [diag.Reporter]. Expansion never fails.
package macro

import (
	"os"
	"strings"

	"github.com/matzehuels/bundlescope/pkg/diag"
	"github.com/matzehuels/bundlescope/pkg/errors"
)

// Properties is the lookup table for property references. It is satisfied
// by *properties.Properties from github.com/magiconair/properties and by
// [Map].
type Properties interface {
	Get(key string) (string, bool)
	Keys() []string
}

// Map is a plain Properties implementation.
type Map map[string]string

// Get returns the value for key.
func (m Map) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Keys returns all keys in unspecified order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// Domain supplies macro functions. TryInvoke is called with the function
// name and the full argument list, args[0] being the name. A domain that
// does not know the function returns ok == false. A non-nil error is
// reported as a warning and leaves the reference unexpanded.
type Domain interface {
	TryInvoke(name string, args []string) (value string, ok bool, err error)
}

// DomainFunc adapts a function to the Domain interface.
type DomainFunc func(name string, args []string) (string, bool, error)

// TryInvoke calls f.
func (f DomainFunc) TryInvoke(name string, args []string) (string, bool, error) {
	return f(name, args)
}

// Expander expands macros. It is not safe for concurrent use.
type Expander struct {
	props    Properties
	reporter diag.Reporter
	domains  []Domain

	// Base is the directory relative file names in file functions are
	// resolved against. Empty means the working directory.
	Base string

	// LookupEnv resolves references that match no property or function.
	LookupEnv func(string) (string, bool)

	flattening bool
}

// New creates an Expander over props. Domains are consulted in order
// before the built-in functions. A nil props or reporter is allowed.
func New(props Properties, r diag.Reporter, domains ...Domain) *Expander {
	if props == nil {
		props = Map{}
	}
	if r == nil {
		r = diag.Discard
	}
	e := &Expander{
		props:     props,
		reporter:  r,
		LookupEnv: os.LookupEnv,
	}
	e.domains = append(append(e.domains, domains...), builtins{e})
	return e
}

// Process expands every reference in text.
func (e *Expander) Process(text string) string {
	return e.process(text, nil)
}

// Flatten expands every property value. Keys starting with '_' are
// omitted and keys starting with '-' are copied unexpanded. Unresolved
// references are not reported while flattening, since properties may
// refer to values that are only defined later.
func (e *Expander) Flatten() map[string]string {
	e.flattening = true
	defer func() { e.flattening = false }()

	out := make(map[string]string)
	for _, k := range e.props.Keys() {
		if strings.HasPrefix(k, "_") {
			continue
		}
		v, _ := e.props.Get(k)
		if !strings.HasPrefix(k, "-") {
			v = e.Process(v)
		}
		out[k] = v
	}
	return out
}

func (e *Expander) process(text string, l *link) string {
	var sb strings.Builder
	e.scan([]rune(text), 0, 0, 0, &sb, l)
	return sb.String()
}

// scan copies line from index into result until the closing rune end is
// found at nesting depth zero. The text collected up to that point is then
// replaced as a macro key. At top level begin and end are zero and the
// whole line is copied.
func (e *Expander) scan(line []rune, index int, begin, end rune, result *strings.Builder, l *link) int {
	nesting := 1
	var variable strings.Builder
	for index < len(line) {
		c := line[index]
		index++
		switch {
		case end != 0 && c == end:
			nesting--
			if nesting == 0 {
				result.WriteString(e.replace(variable.String(), l))
				return index
			}
		case begin != 0 && c == begin:
			nesting++
		case c == '\\' && index < len(line)-1 && line[index] == '$':
			index++
			variable.WriteRune('$')
			continue
		case c == '$' && index < len(line)-2:
			open := line[index]
			if closer := terminator(open); closer != 0 {
				index = e.scan(line, index+1, open, closer, &variable, l)
				continue
			}
		}
		variable.WriteRune(c)
	}
	// Unterminated: keep the text without its opener.
	result.WriteString(variable.String())
	return index
}

func terminator(open rune) rune {
	switch open {
	case '(':
		return ')'
	case '[':
		return ']'
	case '{':
		return '}'
	case '<':
		return '>'
	case '«':
		return '»'
	case '‹':
		return '›'
	}
	return 0
}

func (e *Expander) replace(key string, l *link) string {
	if l.contains(key) {
		marker := "${infinite:" + l.String() + "}"
		e.reporter.Warningf("Infinite macro recursion: %s", marker)
		return marker
	}

	key = strings.TrimSpace(key)
	if key == "" {
		e.reporter.Warningf("Found empty macro key")
		return "${}"
	}

	if v, ok := e.props.Get(key); ok {
		return e.process(v, &link{prev: l, key: key})
	}

	v, ok, err := e.invoke(key)
	if err != nil {
		e.reporter.Warningf("%s", errors.UserMessage(err))
		return "${" + key + "}"
	}
	if ok {
		return e.process(v, &link{prev: l, key: key})
	}

	if v, ok := e.LookupEnv(key); ok {
		return v
	}
	if !e.flattening {
		e.reporter.Warningf("No translation found for macro: %s", key)
	}
	return "${" + key + "}"
}

// invoke dispatches a function reference to the first domain that claims
// it.
func (e *Expander) invoke(key string) (string, bool, error) {
	args := splitArgs(key)
	name := strings.ReplaceAll(args[0], "-", "_")
	for _, d := range e.domains {
		v, ok, err := d.TryInvoke(name, args)
		if err != nil || ok {
			return v, ok, err
		}
	}
	return "", false, nil
}

// splitArgs splits a key on ';' not preceded by a backslash and unescapes
// "\;". Trailing empty arguments are dropped.
func splitArgs(key string) []string {
	var args []string
	start := 0
	for i := 0; i < len(key); i++ {
		if key[i] == ';' && (i == 0 || key[i-1] != '\\') {
			args = append(args, key[start:i])
			start = i + 1
		}
	}
	args = append(args, key[start:])
	for len(args) > 1 && args[len(args)-1] == "" {
		args = args[:len(args)-1]
	}
	for i, a := range args {
		args[i] = strings.ReplaceAll(a, `\;`, ";")
	}
	return args
}

// link is the chain of keys currently being expanded, innermost first.
type link struct {
	prev *link
	key  string
}

func (l *link) contains(key string) bool {
	for ; l != nil; l = l.prev {
		if l.key == key {
			return true
		}
	}
	return false
}

func (l *link) String() string {
	var keys []string
	for ; l != nil; l = l.prev {
		keys = append(keys, l.key)
	}
	return "[" + strings.Join(keys, ",") + "]"
}
