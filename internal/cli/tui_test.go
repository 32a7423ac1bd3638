package cli

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/flyersmith/pkg/observability"
	"github.com/matzehuels/flyersmith/pkg/pipeline"
	"github.com/matzehuels/flyersmith/pkg/store"
)

func typeText(m FlyerModel, s string) FlyerModel {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(FlyerModel)
}

// finish runs the commands returned by enter and feeds the result back.
func finish(t *testing.T, m FlyerModel, cmd tea.Cmd) FlyerModel {
	t.Helper()
	if cmd == nil {
		t.Fatal("enter returned no command")
	}
	msgs := []tea.Msg{cmd()}
	if batch, ok := msgs[0].(tea.BatchMsg); ok {
		msgs = msgs[:0]
		for _, c := range batch {
			if c != nil {
				msgs = append(msgs, c())
			}
		}
	}
	for _, msg := range msgs {
		if done, ok := msg.(runDoneMsg); ok {
			next, _ := m.Update(done)
			return next.(FlyerModel)
		}
	}
	t.Fatal("no run result among the returned messages")
	return m
}

func TestFlyerModelRun(t *testing.T) {
	var got string
	run := func(ctx context.Context, prompt string) (*pipeline.Result, store.Outputs, error) {
		got = prompt
		return &pipeline.Result{ID: "run-1", Summary: "A calm tea flyer."}, store.Outputs{Preview: "out/flyer_preview.html"}, nil
	}

	m := typeText(NewFlyerModel(context.Background(), run), "Tea festival")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(FlyerModel)
	if !m.running {
		t.Fatal("enter did not start a run")
	}
	if !strings.Contains(m.View(), "Designing flyer") {
		t.Error("view does not show the running stage")
	}

	next, _ = m.Update(stageMsg(observability.StageImage))
	m = next.(FlyerModel)
	if m.stage != stageMessages[observability.StageImage] {
		t.Errorf("stage = %q", m.stage)
	}

	m = finish(t, m, cmd)
	if got != "Tea festival" {
		t.Errorf("prompt = %q", got)
	}
	if m.running || len(m.History) != 1 {
		t.Fatalf("running = %v, history = %d", m.running, len(m.History))
	}
	if e := m.History[0]; e.ID != "run-1" || e.Preview != "out/flyer_preview.html" {
		t.Errorf("entry = %+v", e)
	}
	if m.input.Value() != "" {
		t.Error("input not reset after the run")
	}
	if view := m.View(); !strings.Contains(view, "A calm tea flyer.") || !strings.Contains(view, "Tea festival") {
		t.Errorf("view missing history:\n%s", view)
	}
}

func TestFlyerModelRunError(t *testing.T) {
	run := func(ctx context.Context, prompt string) (*pipeline.Result, store.Outputs, error) {
		return nil, store.Outputs{}, errors.New("quota exhausted")
	}
	m := typeText(NewFlyerModel(context.Background(), run), "Jazz night")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = finish(t, next.(FlyerModel), cmd)

	if m.History[0].Err == nil {
		t.Fatal("error not recorded")
	}
	if !strings.Contains(m.View(), "quota exhausted") {
		t.Error("view does not show the error")
	}
}

func TestFlyerModelKeys(t *testing.T) {
	m := NewFlyerModel(context.Background(), nil)

	// An empty prompt is not submitted.
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if next.(FlyerModel).running || cmd != nil {
		t.Error("empty prompt started a run")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("esc returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("esc while idle should quit")
	}
}

func TestFlyerModelCancel(t *testing.T) {
	run := func(ctx context.Context, prompt string) (*pipeline.Result, store.Outputs, error) {
		<-ctx.Done()
		return nil, store.Outputs{}, ctx.Err()
	}
	m := typeText(NewFlyerModel(context.Background(), run), "Tea")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(FlyerModel)

	next, quit := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(FlyerModel)
	if quit != nil {
		t.Error("esc during a run should cancel it, not quit")
	}

	m = finish(t, m, cmd)
	if !errors.Is(m.History[0].Err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", m.History[0].Err)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"a  spaced\nprompt", 20, "a spaced prompt"},
		{"abcdefghij", 5, "abcd…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Now()
	tests := []struct {
		t    time.Time
		want string
	}{
		{time.Time{}, "—"},
		{now, "just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
	}
	for _, tt := range tests {
		if got := formatRelativeTime(tt.t); got != tt.want {
			t.Errorf("formatRelativeTime(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}
