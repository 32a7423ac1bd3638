package compile

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/flyersmith/pkg/document"
	"github.com/matzehuels/flyersmith/pkg/placement"
	"github.com/matzehuels/flyersmith/pkg/plan"
)

const (
	textShadow     = "2px 4px 12px rgba(0,0,0,0.35)"
	textGlow       = "0 0 12px rgba(255,255,255,0.35)"
	badgeShadow    = "0 8px 20px rgba(0,0,0,0.25)"
	gradientFill   = "linear-gradient(90deg, #388E3C, #A5D6A7)"
	defaultBadgeBg = "#FF7043"
)

// ctaVerbs start texts rendered as a badge even without a sticker flag.
var ctaVerbs = []string{"try", "book"}

// textStyle is the resolved typography of one text block.
type textStyle struct {
	anchor   placement.Point
	family   string
	size     string
	weight   string
	italic   string
	shadow   string
	color    string
	gradient string
	angle    string
}

func resolveText(t plan.Text) textStyle {
	ts := textStyle{
		anchor: placement.ResolvePosition(t.Position.Or(plan.DefaultPosition)),
		family: t.Family.Or(plan.DefaultFontFamily),
		size:   placement.SizeOr(t.Size.String(), plan.DefaultFontSize),
		weight: "400",
		italic: "normal",
		shadow: "none",
		color:  t.Color.Or(plan.DefaultTextColor),
		angle:  normalizeAngle(t.Angle.Or(plan.DefaultAngle)),
	}
	if t.Style.Has("bold") {
		ts.weight = "700"
	}
	if t.Style.Has("italic") {
		ts.italic = "italic"
	}

	var shadows []string
	if t.Style.Has("shadow") {
		shadows = append(shadows, textShadow)
	}
	if t.Style.Has("glow") {
		shadows = append(shadows, textGlow)
	}
	if len(shadows) > 0 {
		ts.shadow = strings.Join(shadows, ", ")
	}

	if t.Style.Has("gradient") || strings.Contains(strings.ToLower(ts.color), "gradient(") {
		ts.gradient = gradientFill
		if placement.IsGradient(ts.color) {
			ts.gradient = ts.color
		}
	}
	return ts
}

// normalizeAngle adds "deg" to a bare number and passes anything else
// through.
func normalizeAngle(a string) string {
	a = strings.TrimSpace(a)
	if _, err := strconv.ParseFloat(a, 64); err == nil {
		return a + "deg"
	}
	return a
}

func (c *compiler) text(i int, t plan.Text) *document.Node {
	ts := resolveText(t)
	content := t.Content.String()

	var n *document.Node
	switch {
	case strings.EqualFold(t.TextShape.String(), "curved"):
		n = curvedText(i, content, ts)
	case isBadge(t, content):
		n = badge(content, ts)
	default:
		n = plainText(content, ts)
	}
	n.SetAttr("data-index", itoa(i))
	return n
}

func isBadge(t plan.Text, content string) bool {
	if t.Style.Has("sticker") {
		return true
	}
	lower := strings.ToLower(content)
	for _, v := range ctaVerbs {
		if strings.HasPrefix(lower, v) {
			return true
		}
	}
	return false
}

func transform(angle string) string {
	return "translate(-50%,-50%) rotate(" + angle + ")"
}

func plainText(content string, ts textStyle) *document.Node {
	st := anchorStyle(ts.anchor)
	st.Set("transform", transform(ts.angle))
	st.Set("font-family", ts.family)
	st.Set("font-size", ts.size)
	st.Set("font-weight", ts.weight)
	st.Set("font-style", ts.italic)
	if ts.gradient != "" {
		st.Set("background", ts.gradient)
		st.Set("-webkit-background-clip", "text")
		st.Set("background-clip", "text")
		st.Set("color", "transparent")
	} else {
		st.Set("color", ts.color)
	}
	st.Set("text-shadow", ts.shadow)
	st.Set("z-index", itoa(ZText))
	st.Set("text-align", "center")
	st.Set("white-space", "nowrap")
	return document.Element(document.KindText, "div", st).Append(document.Text(content))
}

// badge renders a pill-shaped call to action. The pill takes the text
// colour as its fill and the label gets whichever ink contrasts with it.
func badge(content string, ts textStyle) *document.Node {
	bg := placement.SolidColor(ts.color, defaultBadgeBg)
	st := anchorStyle(ts.anchor)
	st.Set("transform", transform(ts.angle))
	st.Set("padding", "12px 28px")
	st.Set("border-radius", "999px")
	st.Set("background", bg)
	st.Set("color", contrastInk(bg))
	st.Set("font-family", ts.family)
	st.Set("font-size", ts.size)
	st.Set("font-weight", ts.weight)
	st.Set("font-style", ts.italic)
	st.Set("box-shadow", badgeShadow)
	st.Set("z-index", itoa(ZText))
	st.Set("text-align", "center")
	st.Set("white-space", "nowrap")

	n := document.Element(document.KindText, "div", st)
	n.SetAttr("data-variant", "sticker")
	return n.Append(document.Text(content))
}

// curvedText sets the content along a semicircular arc. The radius grows
// with the text length so the glyphs fit, but never drops below twice the
// font size.
func curvedText(i int, content string, ts textStyle) *document.Node {
	fs := placement.Float(ts.size, 40)
	if fs <= 0 {
		fs = 40
	}
	r := float64(utf8.RuneCountInString(content)) * fs * 0.6 / math.Pi
	r = math.Max(r, 2*fs)
	w, h := 2*r+2*fs, r+2*fs
	id := "arc-" + itoa(i)

	st := anchorStyle(ts.anchor)
	st.Set("transform", transform(ts.angle))
	st.Set("width", px(w))
	st.Set("height", px(h))
	st.Set("z-index", itoa(ZText))
	n := document.Element(document.KindText, "div", st)
	n.SetAttr("data-variant", "curved")

	svg := document.SVG("svg")
	svg.SetAttr("width", num(w))
	svg.SetAttr("height", num(h))
	svg.SetAttr("viewBox", "0 0 "+num(w)+" "+num(h))

	arc := document.SVG("path")
	arc.SetAttr("id", id)
	arc.SetAttr("d", "M "+num(fs)+","+num(r+fs)+" A "+num(r)+","+num(r)+" 0 0 1 "+num(2*r+fs)+","+num(r+fs))
	arc.SetAttr("fill", "none")

	label := document.SVG("text")
	label.SetAttr("fill", placement.SolidColor(ts.color, plan.DefaultTextColor))
	label.SetAttr("font-family", ts.family)
	label.SetAttr("font-size", num(fs))
	label.SetAttr("font-weight", ts.weight)
	label.SetAttr("font-style", ts.italic)
	label.SetAttr("text-anchor", "middle")
	if ts.shadow != "none" {
		label.Style = document.Style{{Property: "text-shadow", Value: ts.shadow}}
	}

	path := document.SVG("textPath")
	path.SetAttr("href", "#"+id)
	path.SetAttr("startOffset", "50%")
	path.Append(document.Text(content))

	svg.Append(document.SVG("defs").Append(arc), label.Append(path))
	return n.Append(svg)
}
