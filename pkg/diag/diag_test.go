package diag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestDiagnosticsDeduplicates(t *testing.T) {
	d := New(nil)
	d.Warningf("Superfluous export-package instructions: %v", []string{"com.acme"})
	d.Warningf("Superfluous export-package instructions: %v", []string{"com.acme"})
	d.Errorf("Invalid class file: %s", "a/Foo.class")
	d.Errorf("Invalid class file: %s", "a/Foo.class")
	d.Errorf("Invalid class file: %s", "b/Bar.class")

	if got := len(d.Warnings()); got != 1 {
		t.Errorf("len(Warnings()) = %d, want 1", got)
	}
	errs := d.Errors()
	if len(errs) != 2 {
		t.Fatalf("len(Errors()) = %d, want 2", len(errs))
	}
	if errs[0] != "Invalid class file: a/Foo.class" || errs[1] != "Invalid class file: b/Bar.class" {
		t.Errorf("Errors() = %v, want insertion order", errs)
	}
	if d.OK() {
		t.Error("OK() = true, want false")
	}
}

func TestDiagnosticsFailOK(t *testing.T) {
	d := New(nil)
	d.FailOK = true
	d.Errorf("The default package '.' is not permitted")

	if len(d.Errors()) != 0 {
		t.Errorf("Errors() = %v, want none", d.Errors())
	}
	if len(d.Warnings()) != 1 {
		t.Errorf("Warnings() = %v, want one", d.Warnings())
	}
	if !d.OK() {
		t.Error("OK() = false, want true")
	}
}

func TestDiagnosticsLogs(t *testing.T) {
	var buf bytes.Buffer
	d := New(log.New(&buf))
	d.Warningf("No translation found for macro: %s", "vendor")

	if !strings.Contains(buf.String(), "No translation found for macro: vendor") {
		t.Errorf("log output = %q, want the warning text", buf.String())
	}
}

func TestDiagnosticsZeroValue(t *testing.T) {
	var d Diagnostics
	d.Warningf("w")
	d.Reset()
	if len(d.Warnings()) != 0 {
		t.Error("Reset() should discard warnings")
	}
}
