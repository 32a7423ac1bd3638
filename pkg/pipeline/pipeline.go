// Package pipeline runs the flyer pipeline for the CLI and the HTTP server.
//
// # Architecture
//
// One run goes through six stages:
//
//  1. Plan: ask the planning model for a design plan and decode it
//  2. Compile: lay the plan out as a document with image placeholders
//  3. Images: generate one image per request and store it under the run
//  4. Inject: place the generated images into the document
//  5. Refine: let the critique model propose edits, a bounded number of rounds
//  6. Preview: inline the images into a self-contained copy
//
// Only the plan stage can end a run early. Every other failure is absorbed:
// a failed image is skipped, a bad edit is discarded, a missing asset stays
// a path. Without a usable plan the run still produces an error document.
//
// # Usage
//
//	runner := pipeline.NewRunner(client, client, client, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{Prompt: "Tea festival"})
//	if err != nil {
//	    return err // invalid options or cancellation
//	}
//	html := document.Render(res.Document)
package pipeline

import (
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flyersmith/pkg/document"
	"github.com/matzehuels/flyersmith/pkg/errors"
	"github.com/matzehuels/flyersmith/pkg/inject"
	"github.com/matzehuels/flyersmith/pkg/plan"
	"github.com/matzehuels/flyersmith/pkg/refine"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultRounds bounds the critique loop.
	DefaultRounds = refine.DefaultMaxRounds

	// MaxRounds is the largest accepted Rounds value.
	MaxRounds = 10

	// DefaultOutputDir is where documents and images are written.
	DefaultOutputDir = "outputs"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one run. It supports JSON for server requests.
type Options struct {
	Prompt string `json:"prompt"`

	// Rounds is the maximum number of critique rounds. Zero means
	// DefaultRounds.
	Rounds        int  `json:"rounds,omitempty"`
	SkipImages    bool `json:"skip_images,omitempty"`
	SkipRefine    bool `json:"skip_refine,omitempty"`
	LegibilityCap bool `json:"legibility_cap,omitempty"`

	// Runtime options (not serialized)
	OutputDir string      `json:"-"`
	Logger    *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks the options and fills in defaults.
// Calling it again has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := errors.ValidatePrompt(o.Prompt); err != nil {
		return err
	}
	if err := ValidateRounds(o.Rounds); err != nil {
		return err
	}
	if o.Rounds == 0 {
		o.Rounds = DefaultRounds
	}
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ValidateRounds checks a critique round count. Zero selects the default.
func ValidateRounds(n int) error {
	if n < 0 || n > MaxRounds {
		return errors.New(errors.ErrCodeInvalidInput, "rounds must be between 0 and %d, got %d", MaxRounds, n)
	}
	return nil
}

// AssetFS returns the filesystem image paths in documents resolve against.
func (o *Options) AssetFS() fs.FS {
	return os.DirFS(o.OutputDir)
}

// =============================================================================
// Result
// =============================================================================

// Result holds everything a run produced.
type Result struct {
	// ID identifies the run and names its image folder.
	ID string

	// Plan is nil when planning failed.
	Plan *plan.Plan

	// Final is the compiled document with images injected.
	Final *document.Document

	// Document is the best document: the last refinement outcome, or Final
	// when refinement did not run.
	Document *document.Document

	// Preview is Document with images inlined.
	Preview *document.Document

	Assets  []plan.GeneratedImage
	Report  inject.Report
	Rounds  []refine.Outcome
	Summary string

	// Warnings lists absorbed failures in the order they happened.
	Warnings []string

	// Failed is set when no usable plan existed; Document is then an
	// error document.
	Failed bool

	Stats Stats
}

// Refined reports whether any critique round ran.
func (r *Result) Refined() bool { return len(r.Rounds) > 0 }

// Stats contains per-stage timings.
type Stats struct {
	PlanTime    time.Duration
	CompileTime time.Duration
	ImageTime   time.Duration
	RefineTime  time.Duration
	PreviewTime time.Duration
	Images      int
}

func (r *Result) warn(logger *log.Logger, msg string, keyvals ...any) {
	r.Warnings = append(r.Warnings, msg)
	logger.Warn(msg, keyvals...)
}
