package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bundlescope/pkg/observability"
)

// logHooks reports analysis runs to a logger. Per class events other than
// failures are dropped; a jar holds thousands of classes.
type logHooks struct {
	observability.NoopAnalysisHooks
	logger *log.Logger
}

func (h logHooks) OnAnalyzeStart(_ context.Context, jar string) {
	h.logger.Debug("analysis started", "jar", jar)
}

func (h logHooks) OnAnalyzeComplete(_ context.Context, jar string, classes int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("analysis failed", "jar", jar, "err", err)
		return
	}
	h.logger.Debug("analysis complete", "jar", jar, "classes", classes, "duration", d.Round(time.Millisecond))
}

func (h logHooks) OnClassFailed(_ context.Context, path string, err error) {
	h.logger.Debug("class rejected", "path", path, "err", err)
}

// RegisterHooks routes analysis events to the CLI logger.
func (c *CLI) RegisterHooks() {
	observability.SetAnalysisHooks(logHooks{logger: c.Logger})
}
