package analyzer

import (
	"reflect"
	"testing"

	"github.com/matzehuels/bundlescope/pkg/errors"
	"github.com/matzehuels/bundlescope/pkg/header"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name         string
		instructions string
		actual       string
		want         string
		superfluous  []string
		ignored      []string
	}{
		{
			name:         "first instruction claims",
			instructions: "a.*;x=1, a.b;x=2",
			actual:       "a, a.b, a.c",
			want:         "a;x=1,a.b;x=1,a.c;x=1",
			superfluous:  []string{"a.b"},
		},
		{
			name:         "negation consumes",
			instructions: "!a.b, a.*",
			actual:       "a, a.b, a.c",
			want:         "a,a.c",
			ignored:      []string{"a.b"},
		},
		{
			name:         "instruction attributes win",
			instructions: "a;version=2;extra=yes",
			actual:       "a;version=1;kept=true",
			want:         "a;extra=yes;kept=true;version=2",
		},
		{
			name:         "literal passthrough",
			instructions: "=not.there;resolution:=optional",
			actual:       "a",
			want:         "not.there;resolution:=optional",
		},
		{
			name:         "duplicate passthrough",
			instructions: "a, a;version=2",
			actual:       "a",
			want:         "a,a;version=2",
		},
		{
			name:         "result follows instruction order",
			instructions: "b, a",
			actual:       "a, b",
			want:         "b,a",
		},
		{
			name:         "wildcard in candidate order",
			instructions: "*",
			actual:       "c, a, b",
			want:         "c,a,b",
		},
		{
			name:         "unmatched stays superfluous",
			instructions: "x.*, a",
			actual:       "a",
			want:         "a",
			superfluous:  []string{"x.*"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instructions := header.Parse(tt.instructions, nil)
			actual := header.Parse(tt.actual, nil)
			superfluous, err := trackInstructions("test", instructions, nil)
			if err != nil {
				t.Fatal(err)
			}
			ignored := header.New()

			got, err := Merge("test", instructions, actual, superfluous, ignored)
			if err != nil {
				t.Fatalf("Merge: %v", err)
			}
			if s := header.Format(got, "resolution:"); s != tt.want {
				t.Errorf("Merge = %q, want %q", s, tt.want)
			}

			var left []string
			for _, in := range superfluous.List() {
				left = append(left, in.Source())
			}
			if !reflect.DeepEqual(left, tt.superfluous) {
				t.Errorf("superfluous = %v, want %v", left, tt.superfluous)
			}
			if got := ignored.Names(); !reflect.DeepEqual(got, tt.ignored) {
				t.Errorf("ignored = %v, want %v", got, tt.ignored)
			}
		})
	}
}

func TestMergeClaimsAtMostOnce(t *testing.T) {
	instructions := header.Parse("com.*;by=first, com.acme.*;by=second, *;by=third", nil)
	actual := header.Parse("com.acme, com.acme.api, org.other", nil)

	got, err := Merge("test", instructions, actual, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"com.acme": "first", "com.acme.api": "first", "org.other": "third"}
	if got.Len() != len(want) {
		t.Fatalf("Merge returned %v", got.Names())
	}
	for pkg, by := range want {
		attrs, _ := got.Get(pkg)
		if attrs["by"] != by {
			t.Errorf("%s claimed by %q, want %q", pkg, attrs["by"], by)
		}
	}
}

func TestMergeLeavesInputsAlone(t *testing.T) {
	instructions := header.Parse("a;x=1", nil)
	actual := header.Parse("a;y=2", nil)

	got, err := Merge("test", instructions, actual, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	attrs, _ := got.Get("a")
	attrs["z"] = "3"

	if s := header.Format(instructions); s != "a;x=1" {
		t.Errorf("instructions changed to %q", s)
	}
	if s := header.Format(actual); s != "a;y=2" {
		t.Errorf("actual changed to %q", s)
	}
}

func TestMergeNegatedWithoutIgnored(t *testing.T) {
	got, err := Merge("test", header.Parse("!a, *", nil), header.Parse("a, b", nil), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if names := got.Names(); !reflect.DeepEqual(names, []string{"b"}) {
		t.Errorf("Merge = %v, want [b]", names)
	}
}

func TestMergeInvalidPattern(t *testing.T) {
	_, err := Merge("export-package", header.Parse("a(b", nil), header.Parse("a", nil), nil, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, errors.ErrCodePatternCompile) {
		t.Errorf("code = %q, want %q", errors.GetCode(err), errors.ErrCodePatternCompile)
	}
}

func TestTrackInstructions(t *testing.T) {
	instructions := header.Parse("=lit, a;resolution:=optional, !b, a~, c.*", nil)

	set, err := trackInstructions("test", instructions, func(name string) bool { return name != "!b" })
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	var optional []string
	for _, in := range set.List() {
		got = append(got, in.Source())
		if in.Optional() {
			optional = append(optional, in.Source())
		}
	}
	if want := []string{"a", "c.*"}; !reflect.DeepEqual(got, want) {
		t.Errorf("tracked = %v, want %v", got, want)
	}
	if want := []string{"a"}; !reflect.DeepEqual(optional, want) {
		t.Errorf("optional = %v, want %v", optional, want)
	}

	if _, err := trackInstructions("export-package", header.Parse("a(b", nil), nil); !errors.Is(err, errors.ErrCodePatternCompile) {
		t.Errorf("err = %v, want PATTERN_COMPILE", err)
	}
}
