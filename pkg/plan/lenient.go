package plan

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/charmbracelet/log"
)

// DecodeOption configures Decode.
type DecodeOption func(*decoder)

// WithLogger reports dropped plan fields to l at debug level.
func WithLogger(l *log.Logger) DecodeOption { return func(d *decoder) { d.logger = l } }

// decoder reads plan sections one field at a time so a field of the wrong
// JSON type falls back to its zero value instead of failing the plan.
type decoder struct {
	logger *log.Logger
}

func newDecoder(opts ...DecodeOption) decoder {
	d := decoder{}
	for _, opt := range opts {
		opt(&d)
	}
	if d.logger == nil {
		d.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return d
}

func (d decoder) plan(raw map[string]json.RawMessage) Plan {
	return Plan{
		Theme:  d.theme(raw["theme"]),
		Texts:  list[Text](d, "texts", raw["texts"]),
		Layout: d.layout(raw["layout"]),
		Images: list[ImageRequest](d, "images", raw["images"]),
	}
}

func (d decoder) drop(field string, err error) {
	d.logger.Debug("dropped plan field", "field", field, "error", err)
}

func (d decoder) theme(data json.RawMessage) Theme {
	if absent(data) {
		return Theme{}
	}
	if !isObject(data) {
		// A bare summary is still worth keeping.
		var summary Value
		if err := json.Unmarshal(data, &summary); err != nil {
			d.drop("theme", err)
		}
		return Theme{Summary: summary}
	}
	var raw struct {
		Summary      Value           `json:"summary"`
		Tone         Value           `json:"tone"`
		Keywords     json.RawMessage `json:"keywords"`
		Colors       json.RawMessage `json:"theme_colors"`
		ImageryIdeas json.RawMessage `json:"imagery_ideas"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		d.drop("theme", err)
		return Theme{}
	}
	t := Theme{
		Summary:      raw.Summary,
		Tone:         raw.Tone,
		Colors:       list[Value](d, "theme.theme_colors", raw.Colors),
		ImageryIdeas: list[Value](d, "theme.imagery_ideas", raw.ImageryIdeas),
	}
	if !absent(raw.Keywords) {
		if err := json.Unmarshal(raw.Keywords, &t.Keywords); err != nil {
			d.drop("theme.keywords", err)
		}
	}
	return t
}

func (d decoder) layout(data json.RawMessage) Layout {
	if absent(data) {
		return Layout{}
	}
	var raw struct {
		Background json.RawMessage `json:"background"`
		Shapes     json.RawMessage `json:"layout_shapes"`
		Balance    Value           `json:"balance"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		d.drop("layout", err)
		return Layout{}
	}
	l := Layout{
		Shapes:  list[Shape](d, "layout.layout_shapes", raw.Shapes),
		Balance: raw.Balance,
	}
	if !absent(raw.Background) {
		if err := json.Unmarshal(raw.Background, &l.Background); err != nil {
			d.drop("layout.background", err)
		}
	}
	return l
}

// list decodes a JSON list of T. A single value where a list is expected
// becomes a one-element list, and elements that do not decode as T are
// dropped.
func list[T any](d decoder, field string, data json.RawMessage) []T {
	if absent(data) {
		return nil
	}
	items := []json.RawMessage{data}
	if bytes.TrimSpace(data)[0] == '[' {
		if err := json.Unmarshal(data, &items); err != nil {
			d.drop(field, err)
			return nil
		}
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			d.logger.Debug("dropped plan list element", "field", field, "index", i, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out
}

func absent(data json.RawMessage) bool {
	s := bytes.TrimSpace(data)
	return len(s) == 0 || bytes.Equal(s, []byte("null"))
}

func isObject(data json.RawMessage) bool {
	s := bytes.TrimSpace(data)
	return len(s) > 0 && s[0] == '{'
}
