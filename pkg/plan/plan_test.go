package plan

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flyersmith/pkg/errors"
	"github.com/matzehuels/flyersmith/pkg/placement"
)

const teaPlan = "```json\n" + `{
  "theme": {"tone": "fresh", "theme_colors": ["#2E7D32", "#A5D6A7"], "keywords": "organic, calm"},
  "texts": [
    {"content": "Tea Festival", "font_size": "72px", "font_color": "#1B5E20", "style": ["bold", "shadow"], "position": "Top Center"},
    {"content": "Refresh Your Soul", "size": 28, "color": "linear-gradient(90deg, #388E3C, #A5D6A7)", "style": "italic gradient"},
    "Book now"
  ],
  "layout": {
    "background": {"color": "#F1F8E9"},
    "layout_shapes": [{"shape": "circle", "position": "Center", "size": "40%", "opacity": "0.5"}]
  },
  "images": [{"description": "tea leaves", "position": "Background", "size": "100%"}]
}` + "\n```"

func TestDecode(t *testing.T) {
	p, err := Decode([]byte(teaPlan))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if got := p.Tone(); got != "fresh" {
		t.Errorf("Tone = %q, want fresh", got)
	}
	if !p.Theme.Keywords.Has("organic") || !p.Theme.Keywords.Has("calm") {
		t.Errorf("Keywords = %v", p.Theme.Keywords)
	}
	if len(p.Texts) != 3 {
		t.Fatalf("Texts = %d, want 3", len(p.Texts))
	}

	second := p.Texts[1]
	if second.Size != "28" {
		t.Errorf("size alias = %q, want 28", second.Size)
	}
	if second.Color.String() != "linear-gradient(90deg, #388E3C, #A5D6A7)" {
		t.Errorf("color alias = %q", second.Color)
	}
	if !second.Style.Has("italic") || !second.Style.Has("gradient") {
		t.Errorf("string style = %v", second.Style)
	}

	if p.Texts[2].Content != "Book now" {
		t.Errorf("bare text entry = %+v", p.Texts[2])
	}

	if got := p.Layout.Shapes[0].Opacity.Float(0.9); got != 0.5 {
		t.Errorf("opacity = %v, want 0.5", got)
	}
	if got := p.Images[0].Layer(); got != placement.LayerBackground {
		t.Errorf("image layer = %q, want background", got)
	}
	if got := p.Title(); got != "Tea Festival" {
		t.Errorf("Title = %q", got)
	}
}

func TestDecodeEmptySections(t *testing.T) {
	p, err := Decode([]byte(`{"theme": {}, "texts": [], "layout": {}, "images": []}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(p.Texts) != 0 || len(p.Images) != 0 || len(p.Layout.Shapes) != 0 {
		t.Errorf("expected empty plan, got %+v", p)
	}
	if p.Title() != "Untitled Flyer" || p.Tone() != "neutral" {
		t.Errorf("defaults: title=%q tone=%q", p.Title(), p.Tone())
	}
}

func TestDecodeDriftedFields(t *testing.T) {
	const base = `{"theme": %s, "texts": %s, "layout": %s, "images": %s}`
	theme := `{"tone": "calm"}`
	texts := `[{"content": "Tea Festival"}]`
	layout := `{"background": {"color": "#F1F8E9"}}`
	images := `[{"description": "teapot"}]`

	tests := []struct {
		name  string
		reply string
		check func(*testing.T, *Plan)
	}{
		{
			"string background",
			fmt.Sprintf(base, theme, texts, `{"background": "#FFEEDD"}`, images),
			func(t *testing.T, p *Plan) {
				if p.Layout.Background.Color != "#FFEEDD" {
					t.Errorf("background = %+v", p.Layout.Background)
				}
			},
		},
		{
			"single shape object",
			fmt.Sprintf(base, theme, texts, `{"layout_shapes": {"shape": "circle", "size": "30%"}}`, images),
			func(t *testing.T, p *Plan) {
				if len(p.Layout.Shapes) != 1 || p.Layout.Shapes[0].Kind != "circle" {
					t.Errorf("shapes = %+v", p.Layout.Shapes)
				}
			},
		},
		{
			"string palette",
			fmt.Sprintf(base, `{"tone": "calm", "theme_colors": "#111111"}`, texts, layout, images),
			func(t *testing.T, p *Plan) {
				if len(p.Theme.Colors) != 1 || p.Theme.Colors[0] != "#111111" {
					t.Errorf("colors = %v", p.Theme.Colors)
				}
			},
		},
		{
			"single text object",
			fmt.Sprintf(base, theme, `{"content": "Tea Festival", "font_size": "64px"}`, layout, images),
			func(t *testing.T, p *Plan) {
				if len(p.Texts) != 1 || p.Title() != "Tea Festival" || p.Texts[0].Size != "64px" {
					t.Errorf("texts = %+v", p.Texts)
				}
			},
		},
		{
			"bad list elements dropped",
			fmt.Sprintf(base, theme, texts, `{"layout_shapes": [{"shape": "star"}, 7, "wave"]}`, `[{"description": "teapot"}, {"path": 3}]`),
			func(t *testing.T, p *Plan) {
				if len(p.Layout.Shapes) != 1 || p.Layout.Shapes[0].Kind != "star" {
					t.Errorf("shapes = %+v", p.Layout.Shapes)
				}
				if len(p.Images) != 1 || p.Images[0].Description != "teapot" {
					t.Errorf("images = %+v", p.Images)
				}
			},
		},
		{
			"wrongly typed sections left empty",
			fmt.Sprintf(base, `"a calm tea festival"`, texts, `"centered"`, `{"description": 42}`),
			func(t *testing.T, p *Plan) {
				if p.Theme.Summary != "a calm tea festival" {
					t.Errorf("theme = %+v", p.Theme)
				}
				if !reflect.DeepEqual(p.Layout, Layout{}) {
					t.Errorf("layout = %+v", p.Layout)
				}
				if len(p.Images) != 1 || p.Images[0].Description != "42" {
					t.Errorf("images = %+v", p.Images)
				}
			},
		},
		{
			"array background dropped",
			fmt.Sprintf(base, theme, texts, `{"background": ["#000"], "balance": "symmetric"}`, images),
			func(t *testing.T, p *Plan) {
				if p.Layout.Background != (Background{}) || p.Layout.Balance != "symmetric" {
					t.Errorf("layout = %+v", p.Layout)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})

			p, err := Decode([]byte(tt.reply), WithLogger(logger))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			tt.check(t, p)

			var again Plan
			if err := json.Unmarshal([]byte(tt.reply), &again); err != nil {
				t.Fatalf("json.Unmarshal: %v", err)
			}
			if !reflect.DeepEqual(&again, p) {
				t.Errorf("json.Unmarshal = %+v, Decode = %+v", again, *p)
			}
		})
	}
}

func TestDecodeLogsDroppedFields(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})

	_, err := Decode([]byte(`{"theme": {}, "texts": [], "layout": {"layout_shapes": [3]}, "images": []}`), WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "layout.layout_shapes") {
		t.Errorf("log = %q, want dropped shape reported", buf.String())
	}
}

func TestDecodeMissingSections(t *testing.T) {
	_, err := Decode([]byte(`{"theme": {}, "layout": {}}`))
	if !errors.Is(err, errors.ErrCodeMissingSections) {
		t.Fatalf("code = %v, want MISSING_SECTIONS", errors.GetCode(err))
	}
	var missing *MissingSectionsError
	if !stderrors.As(err, &missing) {
		t.Fatalf("error %v is not a MissingSectionsError", err)
	}
	if want := []string{"texts", "images"}; !reflect.DeepEqual(missing.Sections, want) {
		t.Errorf("Sections = %v, want %v", missing.Sections, want)
	}
}

func TestDecodeUndecodable(t *testing.T) {
	for _, reply := range []string{"", "no json here", "{\"theme\": ", "[1, 2]"} {
		_, err := Decode([]byte(reply))
		if !errors.Is(err, errors.ErrCodeUndecodablePlan) {
			t.Errorf("Decode(%q) code = %v, want UNDECODABLE_PLAN", reply, errors.GetCode(err))
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want []string
	}{
		{"complete", []string{"theme", "texts", "layout", "images"}, nil},
		{"extra keys", []string{"theme", "texts", "layout", "images", "notes"}, nil},
		{"missing images", []string{"theme", "texts", "layout"}, []string{"images"}},
		{"empty", nil, []string{"theme", "texts", "layout", "images"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]json.RawMessage{}
			for _, k := range tt.keys {
				raw[k] = json.RawMessage(`null`)
			}
			err := Validate(raw)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate = %v, want nil", err)
				}
				return
			}
			var missing *MissingSectionsError
			if !stderrors.As(err, &missing) {
				t.Fatalf("Validate = %v, want MissingSectionsError", err)
			}
			if !reflect.DeepEqual(missing.Sections, tt.want) {
				t.Errorf("Sections = %v, want %v", missing.Sections, tt.want)
			}
		})
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n{\"a\": 1}\n```", `{"a": 1}`},
		{`{"a": 1}`, `{"a": 1}`},
		{"Here is your plan: {\"a\": 1} Enjoy!", `{"a": 1}`},
	}
	for _, tt := range tests {
		if got := StripFences(tt.in); got != tt.want {
			t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValue(t *testing.T) {
	var s struct {
		A Value `json:"a"`
		B Value `json:"b"`
		C Value `json:"c"`
		D Value `json:"d"`
		E Value `json:"e"`
	}
	data := `{"a": "text", "b": 0.75, "c": true, "d": null, "e": {"x": 1}}`
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if s.A != "text" || s.B != "0.75" || s.C != "true" || s.D != "" || s.E != `{"x":1}` {
		t.Errorf("got %+v", s)
	}
	if s.B.Float(0) != 0.75 || s.A.Float(0.9) != 0.9 {
		t.Errorf("Float conversions wrong")
	}
	if s.D.Or("Center") != "Center" {
		t.Errorf("Or default wrong")
	}
}

func TestGenerated(t *testing.T) {
	req := ImageRequest{Description: "teapot", Position: "overlay top right", BorderRadius: "50%"}
	img := req.Generated(2, "flyer_images/run/flyer_img_2.png")
	want := GeneratedImage{
		Index:        2,
		Path:         "flyer_images/run/flyer_img_2.png",
		Description:  "teapot",
		Position:     "overlay top right",
		Size:         DefaultImageSize,
		Layer:        placement.LayerOverlay,
		BorderRadius: "50%",
	}
	if img != want {
		t.Errorf("Generated = %+v, want %+v", img, want)
	}
}

func TestGeneratedImageIndex(t *testing.T) {
	var imgs []GeneratedImage
	data := `[{"path": "a.png"}, {"index": 0, "path": "b.png"}, {"index": 3, "path": "c.png", "layer": "overlay"}]`
	if err := json.Unmarshal([]byte(data), &imgs); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if imgs[0].Index != -1 || imgs[1].Index != 0 || imgs[2].Index != 3 {
		t.Errorf("indices = %d %d %d, want -1 0 3", imgs[0].Index, imgs[1].Index, imgs[2].Index)
	}
	if imgs[2].Layer != placement.LayerOverlay {
		t.Errorf("layer = %q", imgs[2].Layer)
	}
}
