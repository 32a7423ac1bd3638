// Package cli implements the flyersmith command-line interface.
//
// The CLI runs the whole flyer pipeline (generate, interactive), each of its
// stages on saved files (compile, inject, refine, preview), the HTTP front
// end (serve), and the cache and archive housekeeping around them.
//
// # Commands
//
//   - generate: design a flyer from a prompt and write its documents
//   - interactive: type prompts in a terminal UI and generate flyers
//   - compile: lay out a saved plan without calling the model
//   - inject: place generated images into a document
//   - refine: run critique rounds on a document
//   - preview: inline a document's images into a self-contained file
//   - show: print an archived flyer
//   - serve: run the HTTP front end
//   - cache: manage the completion cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// logs every pipeline stage, cache lookup and model call.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Compiled plan.json (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
