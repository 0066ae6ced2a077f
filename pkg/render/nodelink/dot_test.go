package nodelink

import (
	"strings"
	"testing"
)

func sampleGraph() Graph {
	return Graph{
		Uses: map[string][]string{
			"com.acme.api":  {"org.slf4j"},
			"com.acme.impl": {"com.acme.api", "org.slf4j"},
			"com.acme.old":  {},
		},
		Nodes: map[string]Node{
			"com.acme.api":  {Role: RoleExported, Version: "1.2"},
			"com.acme.impl": {Role: RolePrivate},
			"com.acme.old":  {Role: RoleUnreachable},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleGraph(), Options{})

	for _, want := range []string{
		"digraph G {",
		`"com.acme.api" [label="com.acme.api", fillcolor="#a6d96a"];`,
		`"org.slf4j" [label="org.slf4j", fillcolor=white, style="rounded,dashed"];`,
		`"com.acme.impl" -> "com.acme.api";`,
		`"com.acme.impl" -> "org.slf4j";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Index(dot, `"com.acme.api" ->`) > strings.Index(dot, `"com.acme.impl" ->`) {
		t.Error("edges are not sorted")
	}
}

func TestToDOTDeterministic(t *testing.T) {
	first := ToDOT(sampleGraph(), Options{Detailed: true})
	for i := 0; i < 10; i++ {
		if got := ToDOT(sampleGraph(), Options{Detailed: true}); got != first {
			t.Fatal("ToDOT output varies between calls")
		}
	}
}

func TestToDOTOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    []string
		notWant []string
	}{
		{
			name: "detailed",
			opts: Options{Detailed: true},
			want: []string{`label="com.acme.api\nexported\nversion: 1.2"`, `label="com.acme.old\nunreachable"`},
		},
		{
			name:    "internal",
			opts:    Options{Internal: true},
			want:    []string{`"com.acme.impl" -> "com.acme.api";`},
			notWant: []string{"org.slf4j"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dot := ToDOT(sampleGraph(), tt.opts)
			for _, w := range tt.want {
				if !strings.Contains(dot, w) {
					t.Errorf("DOT missing %q:\n%s", w, dot)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(dot, w) {
					t.Errorf("DOT contains %q:\n%s", w, dot)
				}
			}
		})
	}
}

func TestRoleString(t *testing.T) {
	tests := map[Role]string{
		RoleExternal:    "external",
		RolePrivate:     "private",
		RoleExported:    "exported",
		RoleUnreachable: "unreachable",
	}
	for r, want := range tests {
		if got := r.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", r, got, want)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox = %s, want %s", got, want)
	}

	plain := []byte("<svg><g/></svg>")
	if got := normalizeViewBox(plain); string(got) != string(plain) {
		t.Errorf("normalizeViewBox changed an svg without viewBox: %s", got)
	}
}
