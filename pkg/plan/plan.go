package plan

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/matzehuels/flyersmith/pkg/placement"
)

// Defaults applied by the compiler when a plan leaves a field empty.
const (
	DefaultPosition     = "Center"
	DefaultAngle        = "0deg"
	DefaultFontSize     = "40px"
	DefaultFontFamily   = "sans-serif"
	DefaultTextColor    = "#000000"
	DefaultTextShape    = "straight"
	DefaultShapeKind    = "rectangle"
	DefaultShapeSize    = "40%"
	DefaultShapeColor   = "#FFFFFF"
	DefaultShapeOpacity = 0.9
	DefaultImageSize    = "40%"
	DefaultBackground   = "#FFFFFF"
)

// Plan is a decoded design plan.
type Plan struct {
	Theme  Theme          `json:"theme"`
	Texts  []Text         `json:"texts"`
	Layout Layout         `json:"layout"`
	Images []ImageRequest `json:"images"`
}

// UnmarshalJSON decodes a plan field by field. Fields of the wrong JSON
// type are left empty rather than failing the whole plan.
func (p *Plan) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = newDecoder().plan(raw)
	return nil
}

// Theme is informational metadata. Only the palette affects rendering, as
// the background fallback.
type Theme struct {
	Summary      Value   `json:"summary,omitempty"`
	Tone         Value   `json:"tone,omitempty"`
	Keywords     Tokens  `json:"keywords,omitempty"`
	Colors       []Value `json:"theme_colors,omitempty"`
	ImageryIdeas []Value `json:"imagery_ideas,omitempty"`
}

// Text is one text block. Fields hold the plan's raw descriptors; the
// compiler resolves them.
type Text struct {
	Content   Value  `json:"content"`
	Position  Value  `json:"position,omitempty"`
	Size      Value  `json:"font_size,omitempty"`
	Color     Value  `json:"font_color,omitempty"`
	Family    Value  `json:"font_style,omitempty"`
	Angle     Value  `json:"angle,omitempty"`
	Style     Tokens `json:"style,omitempty"`
	Layer     Value  `json:"layer,omitempty"`
	TextShape Value  `json:"text_shape,omitempty"`
	Priority  Value  `json:"priority,omitempty"`
}

// textAliases lists the alternate keys models use for text fields.
type textAliases struct {
	Size  Value `json:"size"`
	Color Value `json:"color"`
}

// UnmarshalJSON accepts a text block written as an object or as a bare
// string, and the "size"/"color" spellings of font_size/font_color.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '{' {
		var content Value
		if err := json.Unmarshal(data, &content); err != nil {
			return err
		}
		*t = Text{Content: content}
		return nil
	}

	type rawText Text
	var raw rawText
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var alias textAliases
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	if raw.Size == "" {
		raw.Size = alias.Size
	}
	if raw.Color == "" {
		raw.Color = alias.Color
	}
	*t = Text(raw)
	return nil
}

// Layout holds the background and decorative shapes.
type Layout struct {
	Background Background `json:"background"`
	Shapes     []Shape    `json:"layout_shapes"`
	Balance    Value      `json:"balance,omitempty"`
}

// Background is the canvas fill.
type Background struct {
	Color   Value `json:"color,omitempty"`
	Texture Value `json:"texture,omitempty"`
}

// UnmarshalJSON accepts an object or a bare colour.
func (b *Background) UnmarshalJSON(data []byte) error {
	if s := bytes.TrimSpace(data); len(s) > 0 && s[0] == '[' {
		return &json.UnmarshalTypeError{Value: "array", Type: reflect.TypeOf(Background{})}
	}
	if !isObject(data) {
		var color Value
		if err := json.Unmarshal(data, &color); err != nil {
			return err
		}
		*b = Background{Color: color}
		return nil
	}
	type rawBackground Background
	var raw rawBackground
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = Background(raw)
	return nil
}

// Shape is one decorative shape.
type Shape struct {
	Kind     Value `json:"shape"`
	Position Value `json:"position,omitempty"`
	Size     Value `json:"size,omitempty"`
	Color    Value `json:"color,omitempty"`
	Opacity  Value `json:"opacity,omitempty"`
	Layer    Value `json:"layer,omitempty"`
}

// ImageRequest asks the image backend for one picture.
type ImageRequest struct {
	Description  Value  `json:"description"`
	Position     Value  `json:"position,omitempty"`
	Size         Value  `json:"size,omitempty"`
	BorderRadius Value  `json:"border_radius,omitempty"`
	Path         string `json:"path,omitempty"`
}

// Layer infers the paint layer from the position text.
func (r ImageRequest) Layer() placement.Layer {
	return placement.InferLayer(r.Position.String())
}

// GeneratedImage is an image the backend produced for the request at
// Index in the plan's images list. Position, size and radius are copied
// from the request so the injector can place it without the plan.
type GeneratedImage struct {
	Index        int             `json:"index"`
	Path         string          `json:"path"`
	Description  string          `json:"description,omitempty"`
	Position     string          `json:"position,omitempty"`
	Size         string          `json:"size,omitempty"`
	Layer        placement.Layer `json:"layer,omitempty"`
	BorderRadius string          `json:"border_radius,omitempty"`
}

// UnmarshalJSON reads an asset record. A record without an "index" key
// gets Index -1, meaning its request is identified by list position.
func (g *GeneratedImage) UnmarshalJSON(data []byte) error {
	type rawImage GeneratedImage
	raw := rawImage{Index: -1}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*g = GeneratedImage(raw)
	return nil
}

// Generated describes the image produced for this request.
func (r ImageRequest) Generated(index int, path string) GeneratedImage {
	return GeneratedImage{
		Index:        index,
		Path:         path,
		Description:  r.Description.String(),
		Position:     r.Position.Or(DefaultPosition),
		Size:         r.Size.Or(DefaultImageSize),
		Layer:        r.Layer(),
		BorderRadius: r.BorderRadius.String(),
	}
}

// Title is the first text's content, or "Untitled Flyer".
func (p *Plan) Title() string {
	if len(p.Texts) > 0 {
		if s := p.Texts[0].Content.String(); s != "" {
			return s
		}
	}
	return "Untitled Flyer"
}

// Tone is the theme tone, or "neutral".
func (p *Plan) Tone() string {
	return p.Theme.Tone.Or("neutral")
}
