package analyzer

import (
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/bundlescope/pkg/errors"
)

func classSpace() map[string][]byte {
	return classes(
		cls{name: "com/acme/Base", implements: []string{"org/spi/Service"}},
		cls{name: "com/acme/Impl", super: "com/acme/Base"},
		cls{name: "com/acme/Plain"},
		cls{name: "com/acme/util/Log", refs: []string{"org/slf4j/Logger"}},
	)
}

func TestQuery(t *testing.T) {
	a := analyze(t, classSpace(), nil)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"implementing follows superclass", []string{"implementing", "org.spi.*"}, []string{"com.acme.Base", "com.acme.Impl"}},
		{"extending", []string{"extending", "com.acme.Base"}, []string{"com.acme.Impl"}},
		{"importing", []string{"importing", "org.slf4j"}, []string{"com.acme.util.Log"}},
		{"named", []string{"named", "*Impl"}, []string{"com.acme.Impl"}},
		{"any", []string{"any", "*"}, []string{"com.acme.Base", "com.acme.Impl", "com.acme.Plain", "com.acme.util.Log"}},
		{"pairs combine", []string{"named", "com.acme.*", "implementing", "org.spi.Service"}, []string{"com.acme.Base", "com.acme.Impl"}},
		{"no arguments", nil, []string{"com.acme.Base", "com.acme.Impl", "com.acme.Plain", "com.acme.util.Log"}},
		{"no match", []string{"named", "nothing"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Query(tt.args...)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Query(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestQueryErrors(t *testing.T) {
	a := analyze(t, classSpace(), nil)

	if _, err := a.Query("named"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("odd arguments: err = %v", err)
	}
	if _, err := a.Query("bogus", "*"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad keyword: err = %v", err)
	}
	if _, err := a.Query("named", "a("); !errors.Is(err, errors.ErrCodePatternCompile) {
		t.Errorf("bad pattern: err = %v", err)
	}
}

func TestClassesMacro(t *testing.T) {
	a := analyze(t, classSpace(), nil)

	if got, want := a.Process("${classes;implementing;org.spi.*}"), "com.acme.Base,com.acme.Impl"; got != want {
		t.Errorf("classes = %q, want %q", got, want)
	}
	if got, want := a.Process("${classes;extending;com.acme.Base}"), "com.acme.Impl"; got != want {
		t.Errorf("classes = %q, want %q", got, want)
	}
}

func TestClassesMacroInExport(t *testing.T) {
	a := analyze(t, classSpace(), map[string]string{
		ExportPackage: "com.acme;services=\"${classes;implementing;org.spi.Service}\"",
	})
	attrs, ok := a.Exports().Get("com.acme")
	if !ok {
		t.Fatalf("exports = %v", a.Exports().Names())
	}
	if got, want := attrs["services"], "com.acme.Base,com.acme.Impl"; got != want {
		t.Errorf("services = %q, want %q", got, want)
	}
}

func TestFindPath(t *testing.T) {
	resources := with(classSpace(), "META-INF/MANIFEST.MF", "Manifest-Version: 1.0\n")
	a := analyze(t, resources, nil)
	d := classDomain{a}

	tests := []struct {
		name string
		args []string
		full bool
		want string
	}{
		{"paths", []string{"findpath", `com/acme/util/.*`}, true, "com/acme/util/Log.class"},
		{"names", []string{"findname", `.*\.MF`}, false, "MANIFEST.MF"},
		{"anchored", []string{"findname", `Log`}, false, ""},
		{"replacement", []string{"findname", `(.*)\.class`, "$1"}, false, "Base, Impl, Plain, Log"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := d.findPath(tt.args, tt.full)
			if err != nil || !ok {
				t.Fatalf("findPath = %v, %v", ok, err)
			}
			if got != tt.want {
				t.Errorf("findPath = %q, want %q", got, tt.want)
			}
		})
	}

	if _, _, err := d.findPath([]string{"findpath", "a", "b", "c"}, true); err == nil {
		t.Error("expected an error for too many arguments")
	}
}

func TestExporters(t *testing.T) {
	a := New(Options{})
	defer a.Close()
	a.SetJar(NewMemJar("bundle.jar", classSpace()))
	a.AddClasspath(NewMemJar("slf4j.jar", classes(cls{name: "org/slf4j/Logger"})))
	a.AddClasspath(NewMemJar("other.jar", classes(cls{name: "org/other/Thing"})))
	if err := a.Analyze(t.Context()); err != nil {
		t.Fatal(err)
	}

	if got := a.Process("${exporters;org.slf4j}"); got != "slf4j.jar" {
		t.Errorf("exporters = %q, want slf4j.jar", got)
	}
	if got := a.Process("${exporters;com.nowhere}"); got != "" {
		t.Errorf("exporters = %q, want empty", got)
	}
	if got := a.Process("${exporters}"); !strings.Contains(got, "${exporters}") {
		t.Errorf("exporters without a package = %q, want it left unexpanded", got)
	}
}
