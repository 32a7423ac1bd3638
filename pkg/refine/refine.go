// Package refine runs the critique pass over a compiled flyer.
//
// The critique model is an untrusted text generator. [Merger.Refine] sends
// it the rendered document and a description of every placed image, and
// accepts an edited document only if the reply parses, the edit is at least
// [DefaultMinLength] bytes and the edit parses into a document with a root
// element. A rejected edit leaves the input document untouched; an accepted
// one is re-injected so images the edit dropped are restored, and every
// role-tagged element the edit moved out of its z-index band is put back.
//
// The iteration counter advances on every call, accepted or not, so callers
// can bound repeated rounds. [Loop] implements the usual bound: stop when
// the critic has no more feedback or after a fixed number of rounds.
package refine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flyersmith/pkg/document"
	"github.com/matzehuels/flyersmith/pkg/errors"
	"github.com/matzehuels/flyersmith/pkg/inject"
	"github.com/matzehuels/flyersmith/pkg/plan"
	"github.com/matzehuels/flyersmith/pkg/prompt"
)

// DefaultMinLength is the shortest edited document considered plausible.
const DefaultMinLength = 200

// Rejection reasons that are not a judgment on the edit itself.
const (
	ReasonCriticError = "critic error"
	ReasonNoEdit      = "no edit proposed"
)

// Critic is the external critique service.
type Critic interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CriticFunc adapts a function to the Critic interface.
type CriticFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CriticFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Verdict is the critic's opinion. It is informational only.
type Verdict struct {
	Judgment string   `json:"judgment"`
	Score    string   `json:"score,omitempty"`
	Feedback []string `json:"feedback,omitempty"`
}

// Outcome is the result of one refinement round.
type Outcome struct {
	Document  *document.Document
	Verdict   Verdict
	Iteration int
	Accepted  bool
	// Reason explains a rejected edit.
	Reason string
	// Report is the re-injection report of an accepted edit.
	Report *inject.Report
	// Relayered counts z-index corrections made to an accepted edit.
	Relayered int
}

// Err returns a warning-class error for a round whose reply or edit was
// unusable, or nil when the edit was accepted or none was proposed.
func (o Outcome) Err() error {
	switch {
	case o.Accepted, o.Reason == "", o.Reason == ReasonNoEdit:
		return nil
	case o.Reason == ReasonCriticError:
		return errors.New(errors.ErrCodeUpstream, "refinement round %d: %s", o.Iteration, o.Verdict.Judgment)
	default:
		return errors.New(errors.ErrCodeMalformedEdit, "refinement round %d: %s", o.Iteration, o.Reason)
	}
}

// Merger runs refinement rounds against a critic.
type Merger struct {
	Critic    Critic
	Logger    *log.Logger
	MinLength int
}

// NewMerger creates a merger with the default plausibility threshold.
// If logger is nil, output is discarded.
func NewMerger(critic Critic, logger *log.Logger) *Merger {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Merger{Critic: critic, Logger: logger, MinLength: DefaultMinLength}
}

// Refine asks the critic to review doc and merges an acceptable edit. It
// never fails: critic errors and unusable replies keep doc and are
// reflected in the verdict and reason.
func (m *Merger) Refine(ctx context.Context, doc *document.Document, assets []plan.GeneratedImage, iteration int) Outcome {
	out := Outcome{Document: doc, Iteration: iteration + 1}
	logger := m.logger()

	req := prompt.Refinement(document.Render(doc), DescribeAssets(assets))
	reply, err := m.Critic.Complete(ctx, req)
	if err != nil {
		logger.Warn("critique failed", "iteration", out.Iteration, "error", err)
		out.Verdict = Verdict{Judgment: "Error: " + err.Error()}
		out.Reason = ReasonCriticError
		return out
	}

	resp, ok := parseResponse(reply)
	if !ok {
		logger.Warn("critique reply could not be parsed", "iteration", out.Iteration)
		out.Verdict = Verdict{Judgment: "LLM output could not be parsed"}
		out.Reason = "unparsable reply"
		return out
	}
	out.Verdict = resp.verdict()

	edited, reason := m.plausible(resp.edit())
	if edited == nil {
		logger.Info("kept current document", "iteration", out.Iteration, "reason", reason)
		out.Reason = reason
		return out
	}

	if edited.PlannedImages == 0 && doc != nil {
		edited.SetPlannedImages(doc.PlannedImages)
	}
	rep := inject.Inject(edited, assets, inject.WithLogger(logger))
	out.Relayered = restoreLayers(edited, assets)
	if out.Relayered > 0 {
		logger.Warn("edit broke layer order; restored z-index", "iteration", out.Iteration, "corrected", out.Relayered)
	}
	out.Document = edited
	out.Accepted = true
	out.Report = &rep
	logger.Info("accepted edit",
		"iteration", out.Iteration,
		"restored", len(rep.Injected),
		"relayered", out.Relayered,
		"judgment", out.Verdict.Judgment)
	return out
}

func (m *Merger) logger() *log.Logger {
	if m.Logger == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return m.Logger
}

// plausible parses an edit, or returns nil and the reason it was rejected.
func (m *Merger) plausible(edit string) (*document.Document, string) {
	minLen := m.MinLength
	if minLen <= 0 {
		minLen = DefaultMinLength
	}
	if edit == "" {
		return nil, ReasonNoEdit
	}
	if len(edit) < minLen {
		return nil, fmt.Sprintf("edit shorter than %d bytes", minLen)
	}
	d, err := document.Parse(edit)
	if err != nil {
		return nil, "edit is not parsable HTML"
	}
	if d.Root() == nil {
		return nil, "edit has no root element"
	}
	return d, ""
}

// DescribeAssets lists every image with the metadata the critic needs to
// leave it in place.
func DescribeAssets(assets []plan.GeneratedImage) string {
	if len(assets) == 0 {
		return ""
	}
	lines := make([]string, 0, len(assets))
	for k, a := range assets {
		idx := a.Index
		if idx < 0 {
			idx = k
		}
		radius := a.BorderRadius
		if radius == "" {
			radius = inject.DefaultBorderRadius
		}
		lines = append(lines, fmt.Sprintf("Image %d: path=%s, position=%s, size=%s, layer=%s, border_radius=%s",
			idx, a.Path, a.Position, a.Size, a.Layer, radius))
	}
	return strings.Join(lines, "\n")
}

// response is the critic's JSON reply. Several spellings of the edited
// document field are accepted.
type response struct {
	Judgment    plan.Value `json:"judgment"`
	Score       plan.Value `json:"score"`
	Feedback    feedback   `json:"feedback"`
	EditedHTML  string     `json:"edited_html"`
	HTMLRefined string     `json:"html_refined"`
	RefinedHTML string     `json:"refined_html"`
	FinalOutput string     `json:"final_output"`
	RevisedHTML string     `json:"revised_html"`
}

func parseResponse(reply string) (response, bool) {
	var r response
	obj, ok := plan.ExtractObject(reply)
	if !ok {
		return r, false
	}
	if err := json.Unmarshal([]byte(obj), &r); err != nil {
		return r, false
	}
	return r, true
}

func (r response) verdict() Verdict {
	return Verdict{
		Judgment: r.Judgment.String(),
		Score:    r.Score.String(),
		Feedback: []string(r.Feedback),
	}
}

func (r response) edit() string {
	for _, s := range []string{r.EditedHTML, r.HTMLRefined, r.RefinedHTML, r.FinalOutput, r.RevisedHTML} {
		if s = stripFences(s); s != "" {
			return s
		}
	}
	return ""
}

var htmlFence = regexp.MustCompile("(?m)^```(?:html)?|```$")

func stripFences(s string) string {
	return strings.TrimSpace(htmlFence.ReplaceAllString(strings.TrimSpace(s), ""))
}

// feedback accepts a list of strings or a single string.
type feedback []string

func (f *feedback) UnmarshalJSON(data []byte) error {
	var list []plan.Value
	if err := json.Unmarshal(data, &list); err == nil {
		out := make(feedback, 0, len(list))
		for _, v := range list {
			if s := v.String(); s != "" {
				out = append(out, s)
			}
		}
		*f = out
		return nil
	}
	var one plan.Value
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	if s := one.String(); s != "" {
		*f = feedback{s}
	} else {
		*f = nil
	}
	return nil
}
