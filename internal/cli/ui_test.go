package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/flyersmith/pkg/refine"
)

// captureStdout redirects command output to a buffer for the test.
func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	return &buf
}

func TestPrintRunStats(t *testing.T) {
	tests := []struct {
		images, rounds int
		refined        bool
		want           []string
		not            string
	}{
		{2, 1, true, []string{"2 images", "1 critique rounds", iconRefined}, iconUnchanged},
		{0, 0, false, []string{"0 images", iconUnchanged}, "critique"},
	}
	for _, tt := range tests {
		buf := captureStdout(t)
		printRunStats(tt.images, tt.rounds, tt.refined)
		got := buf.String()
		for _, w := range tt.want {
			if !strings.Contains(got, w) {
				t.Errorf("printRunStats(%d, %d, %v) = %q, missing %q", tt.images, tt.rounds, tt.refined, got, w)
			}
		}
		if strings.Contains(got, tt.not) {
			t.Errorf("printRunStats(%d, %d, %v) = %q, unexpected %q", tt.images, tt.rounds, tt.refined, got, tt.not)
		}
	}
}

func TestPrintVerdict(t *testing.T) {
	buf := captureStdout(t)
	printVerdict(refine.Outcome{
		Iteration: 1,
		Accepted:  true,
		Verdict:   refine.Verdict{Judgment: "Balanced", Score: "8", Feedback: []string{"Enlarge the title"}},
	})
	printVerdict(refine.Outcome{Iteration: 2, Reason: "no edit proposed"})

	out := buf.String()
	for _, want := range []string{"Round 1 · score 8: Balanced", "Enlarge the title", "Round 2: edit discarded (no edit proposed)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteOutputStdout(t *testing.T) {
	buf := captureStdout(t)
	if err := writeOutput("-", []byte("<div></div>")); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "<div></div>" {
		t.Errorf("stdout = %q", buf.String())
	}
}
