package analyzer

import (
	"testing"

	"github.com/matzehuels/bundlescope/internal/classtest"
)

// cls is shorthand for a test class.
type cls struct {
	name       string
	super      string
	implements []string
	refs       []string
}

func (c cls) bytes() []byte {
	return classtest.Class{Name: c.name, Super: c.super, Interfaces: c.implements, Refs: c.refs}.Bytes()
}

// classes lays classes out at the paths their names imply.
func classes(cs ...cls) map[string][]byte {
	out := make(map[string][]byte, len(cs))
	for _, c := range cs {
		out[c.name+".class"] = c.bytes()
	}
	return out
}

// with adds resources to m and returns it.
func with(m map[string][]byte, kv ...string) map[string][]byte {
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = []byte(kv[i+1])
	}
	return m
}

// zipBytes packs files into a zip archive, directories first.
func zipBytes(t *testing.T, files map[string][]byte, dirs ...string) []byte {
	t.Helper()
	return classtest.Zip(t, files, dirs...)
}

// sampleJar is the three class bundle most tests start from: a.Foo uses
// b.Bar, a.Helper uses the absent c.Missing.
func sampleJar() map[string][]byte {
	return classes(
		cls{name: "a/Foo", refs: []string{"b/Bar"}},
		cls{name: "b/Bar"},
		cls{name: "a/Helper", refs: []string{"c/Missing"}},
	)
}

// analyze runs an Analyzer over resources with the given properties.
func analyze(t *testing.T, resources map[string][]byte, props map[string]string) *Analyzer {
	t.Helper()
	a := New(Options{})
	t.Cleanup(func() { a.Close() })
	a.SetJar(NewMemJar("test.jar", resources))
	for k, v := range props {
		a.Set(k, v)
	}
	if err := a.Analyze(t.Context()); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return a
}
