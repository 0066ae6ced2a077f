// Package diag collects the warnings and errors produced while analyzing a
// bundle.
//
// Analysis does not stop at the first problem. Malformed classes, unmatched
// instructions and unresolved macros are recorded here and inspected by the
// caller once the run is complete.
package diag

import (
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
)

// Reporter receives diagnostics. Implementations must tolerate being called
// with the same message more than once.
type Reporter interface {
	Warningf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Diagnostics is an ordered, de-duplicated collection of warnings and errors.
// The zero value is ready to use and discards log output.
type Diagnostics struct {
	// FailOK demotes errors to warnings.
	FailOK bool

	logger   *log.Logger
	mu       sync.Mutex
	warnings []string
	errors   []string
}

// New creates a Diagnostics that also logs every new entry to logger.
// A nil logger discards log output.
func New(logger *log.Logger) *Diagnostics {
	return &Diagnostics{logger: logger}
}

// Warningf records a warning.
func (d *Diagnostics) Warningf(format string, args ...any) {
	d.add(false, fmt.Sprintf(format, args...))
}

// Errorf records an error, or a warning when FailOK is set.
func (d *Diagnostics) Errorf(format string, args ...any) {
	d.add(!d.FailOK, fmt.Sprintf(format, args...))
}

func (d *Diagnostics) add(isError bool, msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	list := &d.warnings
	if isError {
		list = &d.errors
	}
	if slices.Contains(*list, msg) {
		return
	}
	*list = append(*list, msg)

	l := d.log()
	if isError {
		l.Error(msg)
	} else {
		l.Warn(msg)
	}
}

func (d *Diagnostics) log() *log.Logger {
	if d.logger == nil {
		d.logger = log.New(io.Discard)
	}
	return d.logger
}

// Warnings returns a copy of the recorded warnings in insertion order.
func (d *Diagnostics) Warnings() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.warnings)
}

// Errors returns a copy of the recorded errors in insertion order.
func (d *Diagnostics) Errors() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.errors)
}

// OK reports whether no errors were recorded.
func (d *Diagnostics) OK() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.errors) == 0
}

// Reset discards all recorded diagnostics.
func (d *Diagnostics) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.warnings = nil
	d.errors = nil
}

// Discard is a Reporter that drops everything.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Warningf(string, ...any) {}
func (discard) Errorf(string, ...any)   {}

var _ Reporter = (*Diagnostics)(nil)
