package refine

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/matzehuels/flyersmith/pkg/compile"
	"github.com/matzehuels/flyersmith/pkg/document"
	ferrors "github.com/matzehuels/flyersmith/pkg/errors"
	"github.com/matzehuels/flyersmith/pkg/inject"
	"github.com/matzehuels/flyersmith/pkg/plan"
)

func flyer(t *testing.T) (*document.Document, []plan.GeneratedImage) {
	t.Helper()
	p := &plan.Plan{
		Texts: []plan.Text{
			{Content: "Tea Festival", Position: "top center", Size: "56px"},
			{Content: "Refresh Your Soul", Position: "bottom center"},
		},
		Layout: plan.Layout{Background: plan.Background{Color: "#F4EBD0"}},
		Images: []plan.ImageRequest{
			{Description: "teapot", Position: "top right", Size: "25%"},
			{Description: "leaves", Position: "bottom left", Size: "20%"},
		},
	}
	res := compile.Compile(p)
	var assets []plan.GeneratedImage
	for i, r := range p.Images {
		assets = append(assets, r.Generated(i, "flyer_images/run/flyer_img_"+strconv.Itoa(i)+".png"))
	}
	if err := inject.Inject(res.Document, assets).Err(); err != nil {
		t.Fatalf("inject: %v", err)
	}
	return res.Document, assets
}

// withoutImages renders doc with every image removed, the way a careless
// critic would return it.
func withoutImages(doc *document.Document) string {
	c := doc.Clone()
	root := c.Root()
	kept := root.Children[:0]
	for _, n := range root.Children {
		if n.Kind != document.KindImage {
			kept = append(kept, n)
		}
	}
	root.Children = kept
	return document.Render(c)
}

func reply(t *testing.T, fields map[string]any) string {
	t.Helper()
	b, err := json.Marshal(fields)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func critic(out string, err error) Critic {
	return CriticFunc(func(context.Context, string) (string, error) { return out, err })
}

func TestRefineAcceptsAndRestoresImages(t *testing.T) {
	doc, assets := flyer(t)
	edit := withoutImages(doc)
	m := NewMerger(critic(reply(t, map[string]any{
		"judgment":    "Good hierarchy",
		"score":       8,
		"feedback":    []string{"Increase headline contrast"},
		"edited_html": edit,
	}), nil), nil)

	out := m.Refine(context.Background(), doc, assets, 0)

	if !out.Accepted {
		t.Fatalf("Accepted = false, reason %q", out.Reason)
	}
	if out.Iteration != 1 {
		t.Errorf("Iteration = %d, want 1", out.Iteration)
	}
	if out.Document == doc {
		t.Error("accepted edit should be a new document")
	}
	if got := len(out.Document.OfKind(document.KindImage)); got != 2 {
		t.Errorf("images after refine = %d, want 2", got)
	}
	if out.Report == nil || len(out.Report.Injected) != 2 {
		t.Errorf("Report = %+v, want two restored images", out.Report)
	}
	if out.Verdict.Judgment != "Good hierarchy" || out.Verdict.Score != "8" {
		t.Errorf("Verdict = %+v", out.Verdict)
	}
	if len(out.Verdict.Feedback) != 1 {
		t.Errorf("Feedback = %v", out.Verdict.Feedback)
	}
}

func TestRefineKeepsImagesAlreadyPresent(t *testing.T) {
	doc, assets := flyer(t)
	m := NewMerger(critic(reply(t, map[string]any{
		"judgment":    "fine",
		"edited_html": document.Render(doc),
	}), nil), nil)

	out := m.Refine(context.Background(), doc, assets, 2)

	if !out.Accepted {
		t.Fatalf("Accepted = false, reason %q", out.Reason)
	}
	if got := len(out.Document.OfKind(document.KindImage)); got != 2 {
		t.Errorf("images = %d, want 2", got)
	}
	if len(out.Report.Injected) != 0 {
		t.Errorf("Injected = %v, want none", out.Report.Injected)
	}
	if out.Iteration != 3 {
		t.Errorf("Iteration = %d, want 3", out.Iteration)
	}
}

func TestRefineRejects(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		err      error
		judgment string
	}{
		{"short edit", `{"judgment":"ok","edited_html":"<div>tiny</div>"}`, nil, "ok"},
		{"no edit", `{"judgment":"perfect as is"}`, nil, "perfect as is"},
		{"prose reply", "Looks great to me!", nil, "LLM output could not be parsed"},
		{"broken json", `{"judgment": "ok", "edited_html": }`, nil, "LLM output could not be parsed"},
		{"critic error", "", errors.New("quota exceeded"), "Error: quota exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, assets := flyer(t)
			before := document.Render(doc)

			out := NewMerger(critic(tt.reply, tt.err), nil).Refine(context.Background(), doc, assets, 0)

			if out.Accepted {
				t.Fatal("Accepted = true, want rejection")
			}
			if out.Document != doc {
				t.Error("rejected refinement must return the input document")
			}
			if document.Render(out.Document) != before {
				t.Error("rejected refinement modified the document")
			}
			if out.Iteration != 1 {
				t.Errorf("Iteration = %d, want 1", out.Iteration)
			}
			if out.Reason == "" {
				t.Error("Reason is empty")
			}
			if out.Verdict.Judgment != tt.judgment {
				t.Errorf("Judgment = %q, want %q", out.Verdict.Judgment, tt.judgment)
			}
		})
	}
}

func TestRefineAliasFieldAndFences(t *testing.T) {
	doc, assets := flyer(t)
	edit := "```html\n" + withoutImages(doc) + "\n```"
	text := "Here you go:\n" + reply(t, map[string]any{
		"judgment":     "tightened spacing",
		"feedback":     "Move the slogan up",
		"refined_html": edit,
	})

	out := NewMerger(critic(text, nil), nil).Refine(context.Background(), doc, assets, 0)

	if !out.Accepted {
		t.Fatalf("Accepted = false, reason %q", out.Reason)
	}
	if strings.Contains(document.Render(out.Document), "```") {
		t.Error("fence survived into the document")
	}
	if len(out.Verdict.Feedback) != 1 || out.Verdict.Feedback[0] != "Move the slogan up" {
		t.Errorf("Feedback = %v", out.Verdict.Feedback)
	}
}

func TestRefineRestoresPlannedCountFromInput(t *testing.T) {
	doc, assets := flyer(t)
	bare := `<div style="position:relative;width:800px;height:600px;background:#F4EBD0">` +
		`<div style="position:absolute;top:8%;left:50%;font-size:56px;color:#1A1A1A">Tea Festival</div>` +
		`<div style="position:absolute;top:92%;left:50%;font-size:40px;color:#1A1A1A">Refresh Your Soul</div>` +
		`</div>`
	if len(bare) < DefaultMinLength {
		t.Fatalf("fixture too short: %d", len(bare))
	}

	out := NewMerger(critic(reply(t, map[string]any{"edited_html": bare}), nil), nil).
		Refine(context.Background(), doc, assets, 0)

	if !out.Accepted {
		t.Fatalf("Accepted = false, reason %q", out.Reason)
	}
	if out.Document.PlannedImages != 2 {
		t.Errorf("PlannedImages = %d, want 2", out.Document.PlannedImages)
	}
	if got := len(out.Document.OfKind(document.KindImage)); got != 2 {
		t.Errorf("images = %d, want 2", got)
	}
	if out.Report.Mismatch || out.Report.Degraded {
		t.Errorf("Report = %+v", out.Report)
	}
}

func TestRefineRestoresLayerOrder(t *testing.T) {
	doc, assets := flyer(t)
	edit := strings.NewReplacer(
		"z-index:2", "z-index:7",
		"z-index:10", "z-index:1",
		"z-index:3", "z-index:0",
		"pointer-events:none;user-select", "user-select",
	).Replace(document.Render(doc))

	out := NewMerger(critic(reply(t, map[string]any{"judgment": "bolder", "edited_html": edit}), nil), nil).
		Refine(context.Background(), doc, assets, 0)

	if !out.Accepted {
		t.Fatalf("Accepted = false, reason %q", out.Reason)
	}
	if out.Relayered == 0 {
		t.Error("Relayered = 0, want corrections")
	}
	if err := out.Err(); err != nil {
		t.Errorf("Err() = %v", err)
	}

	maxContent := -1
	for _, kind := range []document.Kind{document.KindShape, document.KindImage} {
		for _, n := range out.Document.OfKind(kind) {
			if z, _ := n.Z(); z > maxContent {
				maxContent = z
			}
		}
	}
	if maxContent != inject.ZForeground {
		t.Errorf("max image z = %d, want %d", maxContent, inject.ZForeground)
	}
	texts := out.Document.OfKind(document.KindText)
	if len(texts) == 0 {
		t.Fatal("edit lost its text")
	}
	for _, n := range texts {
		if z, ok := n.Z(); !ok || z <= maxContent {
			t.Errorf("text z = %d, not above content z %d", z, maxContent)
		}
	}
	ov := out.Document.OfKind(document.KindOverlay)
	if len(ov) != 1 {
		t.Fatalf("overlays = %d", len(ov))
	}
	if z, _ := ov[0].Z(); z != compile.ZOverlay {
		t.Errorf("overlay z = %d, want %d", z, compile.ZOverlay)
	}
	if ov[0].Style.Value("pointer-events") != "none" {
		t.Error("overlay intercepts pointer events")
	}
}

func TestRefineLeavesValidLayersAlone(t *testing.T) {
	doc, assets := flyer(t)
	out := NewMerger(critic(reply(t, map[string]any{"edited_html": document.Render(doc)}), nil), nil).
		Refine(context.Background(), doc, assets, 0)

	if !out.Accepted || out.Relayered != 0 {
		t.Errorf("Accepted = %v, Relayered = %d", out.Accepted, out.Relayered)
	}
}

func TestOutcomeErr(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
		code  ferrors.Code
	}{
		{"accepted", "", nil, ""},
		{"no edit", `{"judgment":"perfect as is"}`, nil, ""},
		{"short edit", `{"judgment":"ok","edited_html":"<div>tiny</div>"}`, nil, ferrors.ErrCodeMalformedEdit},
		{"prose reply", "Looks great to me!", nil, ferrors.ErrCodeMalformedEdit},
		{"critic error", "", errors.New("quota exceeded"), ferrors.ErrCodeUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, assets := flyer(t)
			r := tt.reply
			if tt.name == "accepted" {
				r = reply(t, map[string]any{"edited_html": document.Render(doc)})
			}

			err := NewMerger(critic(r, tt.err), nil).Refine(context.Background(), doc, assets, 0).Err()

			if tt.code == "" {
				if err != nil {
					t.Errorf("Err() = %v, want nil", err)
				}
				return
			}
			if !ferrors.Is(err, tt.code) {
				t.Errorf("Err() = %v, want %s", err, tt.code)
			}
			if !ferrors.Recoverable(err) && tt.code == ferrors.ErrCodeMalformedEdit {
				t.Error("malformed edit should be recoverable")
			}
		})
	}
}

func TestRefinePromptCarriesAssets(t *testing.T) {
	doc, assets := flyer(t)
	var got string
	c := CriticFunc(func(_ context.Context, p string) (string, error) {
		got = p
		return `{"judgment":"ok"}`, nil
	})

	NewMerger(c, nil).Refine(context.Background(), doc, assets, 0)

	for _, want := range []string{"flyer_images/run/flyer_img_1.png", "Tea Festival", "position=bottom left"} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestDescribeAssets(t *testing.T) {
	got := DescribeAssets([]plan.GeneratedImage{
		{Index: 0, Path: "a.png", Position: "top left", Size: "30%", Layer: "foreground"},
		{Index: -1, Path: "b.png", Position: "background", Size: "100%", Layer: "background", BorderRadius: "0"},
	})
	want := "Image 0: path=a.png, position=top left, size=30%, layer=foreground, border_radius=10px\n" +
		"Image 1: path=b.png, position=background, size=100%, layer=background, border_radius=0"
	if got != want {
		t.Errorf("DescribeAssets =\n%s\nwant\n%s", got, want)
	}
	if DescribeAssets(nil) != "" {
		t.Error("DescribeAssets(nil) should be empty")
	}
}

func TestLoopStopsWithoutFeedback(t *testing.T) {
	doc, assets := flyer(t)
	calls := 0
	c := CriticFunc(func(context.Context, string) (string, error) {
		calls++
		if calls == 1 {
			return `{"judgment":"almost","feedback":["bigger title"]}`, nil
		}
		return `{"judgment":"done","feedback":[]}`, nil
	})

	last, rounds := Loop{Merger: NewMerger(c, nil)}.Run(context.Background(), doc, assets)

	if calls != 2 || len(rounds) != 2 {
		t.Errorf("calls = %d, rounds = %d, want 2", calls, len(rounds))
	}
	if last.Iteration != 2 || last.Verdict.Judgment != "done" {
		t.Errorf("last = %+v", last.Verdict)
	}
	if Accepted(rounds) {
		t.Error("no round proposed an edit")
	}
}

func TestLoopBoundedByMaxRounds(t *testing.T) {
	doc, assets := flyer(t)
	calls := 0
	c := CriticFunc(func(context.Context, string) (string, error) {
		calls++
		return `{"judgment":"again","feedback":"more"}`, nil
	})

	last, _ := Loop{Merger: NewMerger(c, nil), MaxRounds: 2}.Run(context.Background(), doc, assets)

	if calls != 2 || last.Iteration != 2 {
		t.Errorf("calls = %d, iteration = %d, want 2", calls, last.Iteration)
	}
}

func TestLoopStopsOnCancel(t *testing.T) {
	doc, assets := flyer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	last, rounds := Loop{Merger: NewMerger(critic(`{"feedback":"x"}`, nil), nil)}.Run(ctx, doc, assets)

	if len(rounds) != 0 {
		t.Errorf("rounds = %d, want 0", len(rounds))
	}
	if last.Document != doc {
		t.Error("cancelled loop must return the input document")
	}
}
