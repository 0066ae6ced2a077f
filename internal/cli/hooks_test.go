package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/bundlescope/pkg/observability"
)

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogDebug)
	c.RegisterHooks()
	t.Cleanup(observability.Reset)

	h := observability.Analysis()
	ctx := t.Context()
	h.OnAnalyzeStart(ctx, "app.jar")
	h.OnClassParsed(ctx, "a/Foo.class", time.Millisecond)
	h.OnClassFailed(ctx, "a/Bad.class", errors.New("truncated"))
	h.OnAnalyzeComplete(ctx, "app.jar", 3, time.Second, nil)

	out := buf.String()
	for _, want := range []string{"analysis started", "class rejected", "a/Bad.class", "analysis complete", "classes=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "a/Foo.class") {
		t.Errorf("parsed classes should not be logged:\n%s", out)
	}
}
