package refine

import (
	"context"

	"github.com/matzehuels/flyersmith/pkg/document"
	"github.com/matzehuels/flyersmith/pkg/plan"
)

// DefaultMaxRounds bounds a refinement loop.
const DefaultMaxRounds = 3

// Loop repeats refinement rounds until the critic has no feedback left or
// MaxRounds rounds have run.
type Loop struct {
	Merger    *Merger
	MaxRounds int
}

// Run refines doc starting from iteration 0. It returns the outcome of the
// last round and the outcomes of all rounds in order. A cancelled context
// stops the loop before the next round.
func (l Loop) Run(ctx context.Context, doc *document.Document, assets []plan.GeneratedImage) (Outcome, []Outcome) {
	max := l.MaxRounds
	if max <= 0 {
		max = DefaultMaxRounds
	}

	last := Outcome{Document: doc}
	var rounds []Outcome
	for last.Iteration < max {
		if ctx.Err() != nil {
			break
		}
		last = l.Merger.Refine(ctx, last.Document, assets, last.Iteration)
		rounds = append(rounds, last)
		if len(last.Verdict.Feedback) == 0 {
			break
		}
	}
	return last, rounds
}

// Accepted reports whether any round in rounds accepted an edit.
func Accepted(rounds []Outcome) bool {
	for _, o := range rounds {
		if o.Accepted {
			return true
		}
	}
	return false
}
