package compile

import (
	"github.com/matzehuels/flyersmith/pkg/document"
	"github.com/matzehuels/flyersmith/pkg/placement"
	"github.com/matzehuels/flyersmith/pkg/plan"
)

// Canvas dimensions in CSS pixels.
const (
	CanvasWidth  = 800
	CanvasHeight = 600
)

// Z-index values by role.
const (
	ZBackground = 0
	ZForeground = 1
	ZText       = 3
	ZOverlay    = 10
)

// LegibilityCap is the opacity ceiling applied to background shapes when
// [WithLegibilityCap] is set.
const LegibilityCap = 0.6

// Option configures a compilation.
type Option func(*compiler)

type compiler struct {
	opacityCap   float64
	placeholders bool
	overlay      bool
}

// WithLegibilityCap limits background shapes to [LegibilityCap] opacity so
// text stays readable over them.
func WithLegibilityCap() Option { return func(c *compiler) { c.opacityCap = LegibilityCap } }

// WithoutPlaceholders omits image placeholders. The injector then inserts
// images at the start of the canvas instead.
func WithoutPlaceholders() Option { return func(c *compiler) { c.placeholders = false } }

// WithoutOverlay omits the vignette overlay.
func WithoutOverlay() Option { return func(c *compiler) { c.overlay = false } }

// Result is a compiled document and the placement of every image request,
// indexed as in the plan. Placements carry no path yet.
type Result struct {
	Document   *document.Document
	Placements []plan.GeneratedImage
}

// Compile lays out p on a fixed-size canvas.
func Compile(p *plan.Plan, opts ...Option) Result {
	c := compiler{opacityCap: 1, placeholders: true, overlay: true}
	for _, opt := range opts {
		opt(&c)
	}
	if p == nil {
		p = &plan.Plan{}
	}

	root := canvas(backgroundColor(p))

	placements := make([]plan.GeneratedImage, len(p.Images))
	for i, req := range p.Images {
		placements[i] = req.Generated(i, "")
		if c.placeholders {
			root.Append(document.Placeholder(i))
		}
	}

	for i, s := range p.Layout.Shapes {
		root.Append(c.shape(i, s))
	}
	for i, t := range p.Texts {
		root.Append(c.text(i, t))
	}
	if c.overlay {
		root.Append(overlay())
	}

	doc := document.New(root)
	doc.SetPlannedImages(len(p.Images))
	return Result{Document: doc, Placements: placements}
}

func canvas(background string) *document.Node {
	return document.Element(document.KindContainer, "div", document.Style{
		{Property: "width", Value: px(CanvasWidth)},
		{Property: "height", Value: px(CanvasHeight)},
		{Property: "border-radius", Value: "20px"},
		{Property: "overflow", Value: "hidden"},
		{Property: "position", Value: "relative"},
		{Property: "background", Value: background},
		{Property: "font-family", Value: plan.DefaultFontFamily},
	})
}

// backgroundColor picks the layout background, then the first palette
// colour, then white.
func backgroundColor(p *plan.Plan) string {
	if c := p.Layout.Background.Color.String(); c != "" {
		return c
	}
	for _, c := range p.Theme.Colors {
		if s := c.String(); s != "" {
			return s
		}
	}
	return plan.DefaultBackground
}

func overlay() *document.Node {
	n := document.Element(document.KindOverlay, "div", document.Style{
		{Property: "position", Value: "absolute"},
		{Property: "inset", Value: "0"},
		{Property: "pointer-events", Value: "none"},
		{Property: "user-select", Value: "none"},
		{Property: "background", Value: "radial-gradient(ellipse at center, rgba(0,0,0,0) 60%, rgba(0,0,0,0.18) 100%)"},
		{Property: "z-index", Value: itoa(ZOverlay)},
	})
	n.SetAttr("aria-hidden", "true")
	return n
}

// anchorStyle starts an absolutely positioned style at p.
func anchorStyle(p placement.Point) document.Style {
	return document.Style{
		{Property: "position", Value: "absolute"},
		{Property: "top", Value: placement.Percent(p.Y)},
		{Property: "left", Value: placement.Percent(p.X)},
	}
}
