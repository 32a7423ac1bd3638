// Package store archives finished flyers.
//
// A [Record] holds everything a run produced except the image bytes, which
// stay on disk under the run's asset folder. Two backends implement
// [Store]: [FileStore] for the CLI and [MongoStore] for the server.
// [WriteOutputs] writes the documents of one run next to its images.
package store

import (
	"context"
	"time"

	"github.com/matzehuels/flyersmith/pkg/plan"
	"github.com/matzehuels/flyersmith/pkg/refine"
)

// Record is the archived result of one flyer run.
type Record struct {
	ID          string                `json:"id" bson:"_id"`
	Prompt      string                `json:"prompt" bson:"prompt"`
	CreatedAt   time.Time             `json:"created_at" bson:"created_at"`
	Plan        *plan.Plan            `json:"plan,omitempty" bson:"plan,omitempty"`
	Summary     string                `json:"summary" bson:"summary"`
	Assets      []plan.GeneratedImage `json:"assets,omitempty" bson:"assets,omitempty"`
	FinalHTML   string                `json:"final_html" bson:"final_html"`
	RefinedHTML string                `json:"refined_html,omitempty" bson:"refined_html,omitempty"`
	Verdicts    []refine.Verdict      `json:"verdicts,omitempty" bson:"verdicts,omitempty"`
	Iterations  int                   `json:"iterations" bson:"iterations"`
	Warnings    []string              `json:"warnings,omitempty" bson:"warnings,omitempty"`
	// Failed marks a run that produced only an error document.
	Failed bool `json:"failed,omitempty" bson:"failed,omitempty"`
}

// Document returns the best document of the run: the refined one if
// refinement ran, else the final one.
func (r *Record) Document() string {
	if r.RefinedHTML != "" {
		return r.RefinedHTML
	}
	return r.FinalHTML
}

// Store persists records by ID.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	// Load returns the record or an error with code NOT_FOUND.
	Load(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Lister is implemented by stores that can list their newest records.
type Lister interface {
	Recent(ctx context.Context, limit int64) ([]*Record, error)
}
