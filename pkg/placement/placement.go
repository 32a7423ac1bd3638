// Package placement resolves the loose placement descriptors found in design
// plans into canvas coordinates, CSS length tokens and paint layers.
//
// Every function in this package is total: malformed input falls back to a
// documented default and never produces an error. Anything that can be
// printed with fmt is accepted, so numbers and nil are handled the same way
// as strings.
//
// # Positions
//
// [ResolvePosition] maps a descriptor to a [Point] in percent of the canvas:
//
//	placement.ResolvePosition("Top Left")        // {8 8}
//	placement.ResolvePosition("custom (15, 72)") // {15 72}
//	placement.ResolvePosition("somewhere nice")  // {50 50}
//
// # Sizes
//
// [NormalizeSize] maps a descriptor to a renderable length:
//
//	placement.NormalizeSize("40%") // "40%"
//	placement.NormalizeSize("3")   // "3.0px"
//	placement.NormalizeSize("")    // "auto"
package placement

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Point is an anchor on the canvas, both coordinates in percent [0, 100].
type Point struct {
	X float64
	Y float64
}

// Center is the fallback anchor for anything that cannot be resolved.
var Center = Point{X: 50, Y: 50}

// String formats the point the way it is written into styles.
func (p Point) String() string {
	return fmt.Sprintf("(%s, %s)", FormatNumber(p.X), FormatNumber(p.Y))
}

type anchor struct {
	key   string
	point Point
}

// anchors is the symbolic lookup table, longest key first so that
// "bottom center" wins over "center" and "top left" over "top".
var anchors = func() []anchor {
	table := []anchor{
		{"top left", Point{8, 8}},
		{"top center", Point{50, 8}},
		{"top right", Point{92, 8}},
		{"center", Point{50, 50}},
		{"bottom left", Point{8, 92}},
		{"bottom center", Point{50, 92}},
		{"bottom right", Point{92, 92}},
		{"left", Point{6, 50}},
		{"right", Point{94, 50}},
		{"top", Point{50, 6}},
		{"bottom", Point{50, 94}},
	}
	sort.SliceStable(table, func(i, j int) bool {
		return len(table[i].key) > len(table[j].key)
	})
	return table
}()

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?|-?\.\d+`)

// ResolvePosition maps a placement descriptor to a canvas anchor.
//
// A descriptor mentioning "custom" or containing a percent sign is scanned
// for its first two numbers, which become the anchor directly. Otherwise the
// descriptor is matched case-insensitively against the symbolic anchors
// (top left, bottom center, right, ...). Anything else resolves to [Center].
func ResolvePosition(descriptor any) Point {
	raw := strings.ToLower(strings.TrimSpace(Stringify(descriptor)))
	if raw == "" {
		return Center
	}

	if p, ok := customPoint(raw); ok {
		return p
	}
	if p, ok := symbolicPoint(raw); ok {
		return p
	}
	return Center
}

// IsSymbolic reports whether descriptor resolves through the symbolic table
// rather than explicit coordinates or the fallback.
func IsSymbolic(descriptor any) bool {
	raw := strings.ToLower(strings.TrimSpace(Stringify(descriptor)))
	if _, ok := customPoint(raw); ok {
		return false
	}
	_, ok := symbolicPoint(raw)
	return ok
}

func customPoint(raw string) (Point, bool) {
	if !strings.Contains(raw, "custom") && !strings.Contains(raw, "%") {
		return Point{}, false
	}
	return parseCoordinates(raw)
}

func symbolicPoint(raw string) (Point, bool) {
	s := foldSeparators(raw)
	for _, a := range anchors {
		if strings.Contains(s, a.key) {
			return a.point, true
		}
	}
	return Point{}, false
}

func parseCoordinates(s string) (Point, bool) {
	nums := numberPattern.FindAllString(s, 2)
	if len(nums) < 2 {
		return Point{}, false
	}
	x, errX := strconv.ParseFloat(nums[0], 64)
	y, errY := strconv.ParseFloat(nums[1], 64)
	if errX != nil || errY != nil {
		return Point{}, false
	}
	return Point{X: clampPercent(x), Y: clampPercent(y)}, true
}

func clampPercent(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}

// foldSeparators folds "top-left", "top_left" and "top   left" into "top left".
func foldSeparators(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// Stringify coerces any descriptor to its string form. Nil becomes "".
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

// FormatNumber formats v without trailing zeros ("8", "12.5").
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Percent formats v as a CSS percentage ("8%", "12.5%").
func Percent(v float64) string {
	return FormatNumber(v) + "%"
}
