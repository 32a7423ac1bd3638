package compile

import (
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/flyersmith/pkg/document"
	"github.com/matzehuels/flyersmith/pkg/placement"
	"github.com/matzehuels/flyersmith/pkg/plan"
)

const shapeShadow = "0 12px 30px rgba(0,0,0,0.15)"

// Wave paths in a 1440x320 box. The bottom wave fills below the curve,
// the top wave fills above it.
const (
	waveViewBox    = "0 0 1440 320"
	waveBottomPath = "M0,160 C360,260 1080,60 1440,160 L1440,320 L0,320 Z"
	waveTopPath    = "M0,0 L1440,0 L1440,160 C1080,60 360,260 0,160 Z"
)

func (c *compiler) shape(i int, s plan.Shape) *document.Node {
	kind := strings.ToLower(s.Kind.Or(plan.DefaultShapeKind))
	layer := placement.ParseLayer(s.Layer.String(), placement.LayerBackground)
	z := ZForeground
	limit := 1.0
	if layer == placement.LayerBackground {
		z = ZBackground
		limit = c.opacityCap
	}
	opacity := placement.ClampOpacity(placement.Float(s.Opacity.String(), plan.DefaultShapeOpacity), limit)
	color := s.Color.Or(plan.DefaultShapeColor)
	size := placement.SizeOr(s.Size.String(), plan.DefaultShapeSize)

	var n *document.Node
	if kind == "wave" {
		n = wave(s.Position.String(), size, color, opacity, z)
	} else {
		st := anchorStyle(placement.ResolvePosition(s.Position.Or(plan.DefaultPosition)))
		st.Set("width", size)
		st.Set("height", size)
		st.Set("background", color)
		st.Set("opacity", num(opacity))
		st.Set("border-radius", shapeRadius(kind))
		st.Set("box-shadow", shapeShadow)
		st.Set("transform", "translate(-50%,-50%)")
		st.Set("z-index", itoa(z))
		n = document.Element(document.KindShape, "div", st)
	}
	n.SetAttr("data-shape", kind)
	n.SetAttr("data-index", itoa(i))
	return n
}

func shapeRadius(kind string) string {
	switch kind {
	case "circle", "floral":
		return "50%"
	case "sticker":
		return "20px"
	default:
		return "15px"
	}
}

// wave spans the canvas width, hugging the top edge when the position
// mentions "top" and the bottom edge otherwise.
func wave(position, height, color string, opacity float64, z int) *document.Node {
	edge, path := "bottom", waveBottomPath
	if strings.Contains(strings.ToLower(position), "top") {
		edge, path = "top", waveTopPath
	}

	n := document.Element(document.KindShape, "div", document.Style{
		{Property: "position", Value: "absolute"},
		{Property: edge, Value: "0"},
		{Property: "left", Value: "0"},
		{Property: "width", Value: "100%"},
		{Property: "height", Value: height},
		{Property: "opacity", Value: num(opacity)},
		{Property: "z-index", Value: itoa(z)},
	})

	svg := document.SVG("svg")
	svg.SetAttr("viewBox", waveViewBox)
	svg.SetAttr("preserveAspectRatio", "none")
	svg.Style = document.Style{
		{Property: "width", Value: "100%"},
		{Property: "height", Value: "100%"},
		{Property: "display", Value: "block"},
	}
	p := document.SVG("path")
	p.SetAttr("d", path)
	p.SetAttr("fill", placement.SolidColor(color, plan.DefaultShapeColor))
	svg.Append(p)

	return n.Append(svg)
}

func px(v float64) string { return num(v) + "px" }

// num formats v rounded to two decimals without trailing zeros.
func num(v float64) string {
	return placement.FormatNumber(math.Round(v*100) / 100)
}

func itoa(i int) string { return strconv.Itoa(i) }
