package header

import (
	"slices"
	"testing"

	"github.com/matzehuels/bundlescope/pkg/diag"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		names []string
		attrs map[string]Attrs
	}{
		{
			name:  "empty",
			input: "  ",
			names: nil,
		},
		{
			name:  "single",
			input: "com.acme.api",
			names: []string{"com.acme.api"},
			attrs: map[string]Attrs{"com.acme.api": {}},
		},
		{
			name:  "attributes and directives",
			input: `com.acme.api;version="1.2";uses:="com.acme.spi,com.acme.util", com.acme.spi`,
			names: []string{"com.acme.api", "com.acme.spi"},
			attrs: map[string]Attrs{
				"com.acme.api": {"version": "1.2", "uses:": "com.acme.spi,com.acme.util"},
				"com.acme.spi": {},
			},
		},
		{
			name:  "shared attributes",
			input: "a;b;version=1",
			names: []string{"a", "b"},
			attrs: map[string]Attrs{"a": {"version": "1"}, "b": {"version": "1"}},
		},
		{
			name:  "duplicate name",
			input: "com.acme;version=1,com.acme;version=2",
			names: []string{"com.acme", "com.acme~"},
			attrs: map[string]Attrs{"com.acme": {"version": "1"}, "com.acme~": {"version": "2"}},
		},
		{
			name:  "quoted semicolon",
			input: `x;filter:="(&(a=1);(b=2))"`,
			names: []string{"x"},
			attrs: map[string]Attrs{"x": {"filter:": "(&(a=1);(b=2))"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input, nil)
			if !slices.Equal(got.Names(), tt.names) {
				t.Fatalf("Names() = %v, want %v", got.Names(), tt.names)
			}
			for name, want := range tt.attrs {
				a, _ := got.Get(name)
				if len(a) != len(want) {
					t.Errorf("%s attrs = %v, want %v", name, a, want)
					continue
				}
				for k, v := range want {
					if a[k] != v {
						t.Errorf("%s[%s] = %q, want %q", name, k, a[k], v)
					}
				}
			}
		})
	}
}

func TestParseReportsDuplicates(t *testing.T) {
	d := diag.New(nil)
	Parse("a,a", d)
	if len(d.Warnings()) != 1 {
		t.Errorf("Warnings() = %v, want one duplicate warning", d.Warnings())
	}

	if _, err := ParseStrict("a,a"); err == nil {
		t.Error("ParseStrict should fail on duplicates")
	}
	if c, err := ParseStrict("a;version=1"); err != nil || c.Len() != 1 {
		t.Errorf("ParseStrict = %v, %v", c, err)
	}
}

func TestSharedAttributesAreIndependent(t *testing.T) {
	c := Parse("a;b;version=1", nil)
	a, _ := c.Get("a")
	a["version"] = "2"
	b, _ := c.Get("b")
	if b["version"] != "1" {
		t.Error("clauses parsed together should not share their attribute map")
	}
}

func TestFormat(t *testing.T) {
	c := New()
	c.Set("com.acme.api", Attrs{"version": "[1.0,2)", "uses:": "com.acme.spi", "x-internal:": "true", "resolution:": "optional"})
	c.Set("com.acme.api~", Attrs{"version": "3"})
	c.Set("org.simple", nil)

	got := Format(c, "uses:")
	want := `com.acme.api;uses:="com.acme.spi";version="[1.0,2)";x-internal:=true,com.acme.api;version=3,org.simple`
	if got != want {
		t.Errorf("Format() =\n  %s\nwant\n  %s", got, want)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	in := `com.acme;version="1.2.3";uses:="a,b"`
	out := Format(Parse(in, nil), "uses:")
	again := Parse(out, nil)
	a, _ := again.Get("com.acme")
	if a["version"] != "1.2.3" || a["uses:"] != "a,b" {
		t.Errorf("round trip attrs = %v", a)
	}
}

func TestClauses(t *testing.T) {
	c := Of("b", "a", "c")
	c.Set("a", Attrs{"k": "v"})
	if !slices.Equal(c.Names(), []string{"b", "a", "c"}) {
		t.Errorf("Set should keep the original position, got %v", c.Names())
	}
	c.Delete("a")
	if c.Has("a") || c.Len() != 2 {
		t.Errorf("Delete failed: %v", c.Names())
	}
	c.DeleteAll(Of("b"))
	if !slices.Equal(c.Names(), []string{"c"}) {
		t.Errorf("DeleteAll failed: %v", c.Names())
	}

	var zero Clauses
	zero.Add("x")
	if !zero.Has("x") {
		t.Error("zero value Clauses should be usable")
	}
}

func TestDuplicateMarker(t *testing.T) {
	if !IsDuplicate("com.acme~") || IsDuplicate("com.acme") || IsDuplicate("") {
		t.Error("IsDuplicate misclassified a name")
	}
	if got := RemoveDuplicateMarker("com.acme~~"); got != "com.acme" {
		t.Errorf("RemoveDuplicateMarker = %q", got)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" a , b,,c ")
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("SplitList = %v", got)
	}
	if SplitList("") != nil {
		t.Error("SplitList(\"\") should be nil")
	}
}

func TestSplitClauses(t *testing.T) {
	got := SplitClauses(`a;uses:="b,c",d;version=1`)
	if !slices.Equal(got, []string{`a;uses:="b,c"`, "d;version=1"}) {
		t.Errorf("SplitClauses = %q", got)
	}
	if SplitClauses("") != nil {
		t.Error(`SplitClauses("") should be nil`)
	}
}
