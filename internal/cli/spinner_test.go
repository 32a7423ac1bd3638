package cli

import (
	"context"
	"testing"
	"time"

	"github.com/matzehuels/flyersmith/pkg/observability"
)

func TestSpinnerBasic(t *testing.T) {
	s := newSpinner("Testing...")
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	// Stop cancels the spinner's own context.
	if !s.Cancelled() {
		t.Error("Cancelled() = false after Stop")
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinnerWithContext(ctx, "Testing with context...")
	s.Start()
	cancel()

	// Give goroutine time to notice cancellation
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner("Testing idempotent stop...")
	s.Start()

	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithMessages(t *testing.T) {
	s := newSpinner("Testing success...")
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.StopWithSuccess("Done!")

	s = newSpinner("Testing error...")
	s.Start()
	s.StopWithError("Failed!")
}

func TestSpinnerFollowsStages(t *testing.T) {
	s := newSpinner("Designing flyer...")
	hooks := s.stageHooks()

	tests := []struct {
		stage observability.Stage
		want  string
	}{
		{observability.StagePlan, "Planning the design..."},
		{observability.StageImage, "Generating images..."},
		{"unknown", "Generating images..."},
		{observability.StageRefine, "Polishing the design..."},
	}

	for _, tt := range tests {
		hooks.OnStageStart(context.Background(), tt.stage)
		if got := s.Message(); got != tt.want {
			t.Errorf("after %s: Message() = %q, want %q", tt.stage, got, tt.want)
		}
	}
	if s.width != len("Polishing the design...") {
		t.Errorf("width = %d, want the widest message", s.width)
	}
}
