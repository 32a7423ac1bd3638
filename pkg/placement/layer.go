package placement

import (
	"math"
	"regexp"
	"strings"
)

// Layer is the coarse paint bucket an element belongs to. The numeric
// z-order is derived from the layer and the element kind by the compiler
// and the injector.
type Layer string

const (
	LayerBackground Layer = "background"
	LayerForeground Layer = "foreground"
	LayerOverlay    Layer = "overlay"
)

// InferLayer derives an image layer from its position text: anything that
// mentions "background" paints behind, "overlay" paints above the shapes,
// everything else is foreground.
func InferLayer(position any) Layer {
	s := strings.ToLower(Stringify(position))
	switch {
	case strings.Contains(s, "background"):
		return LayerBackground
	case strings.Contains(s, "overlay"):
		return LayerOverlay
	default:
		return LayerForeground
	}
}

// ParseLayer reads an explicit layer value, returning def for anything
// unrecognized.
func ParseLayer(s string, def Layer) Layer {
	switch Layer(strings.ToLower(strings.TrimSpace(s))) {
	case LayerBackground:
		return LayerBackground
	case LayerForeground:
		return LayerForeground
	case LayerOverlay:
		return LayerOverlay
	default:
		return def
	}
}

var hexColor = regexp.MustCompile(`#[0-9a-fA-F]{6}`)

// SolidColor returns a colour usable where gradients are not, such as SVG
// fills and badge backgrounds. Plain colours pass through. A gradient yields
// its first #RRGGBB stop, or def if it has none.
func SolidColor(color, def string) string {
	c := strings.TrimSpace(color)
	if c == "" {
		return def
	}
	if !strings.Contains(strings.ToLower(c), "gradient") {
		return c
	}
	if m := hexColor.FindString(c); m != "" {
		return m
	}
	return def
}

// IsGradient reports whether color is a CSS linear, radial or conic gradient.
func IsGradient(color string) bool {
	c := strings.ToLower(strings.TrimSpace(color))
	for _, fn := range []string{"linear-gradient(", "radial-gradient(", "conic-gradient(",
		"repeating-linear-gradient(", "repeating-radial-gradient(", "repeating-conic-gradient("} {
		if strings.HasPrefix(c, fn) {
			return true
		}
	}
	return false
}

// ClampOpacity bounds v to [0, max]. A max outside (0, 1] means 1.
func ClampOpacity(v, max float64) float64 {
	if max <= 0 || max > 1 {
		max = 1
	}
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
