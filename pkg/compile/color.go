package compile

import (
	"strconv"
	"strings"
)

// Badge text colours.
const (
	darkInk  = "#1A1A1A"
	lightInk = "#FFFFFF"
)

// contrastInk picks dark or light text for a solid background. Colours that
// are not #RGB or #RRGGBB get light text.
func contrastInk(background string) string {
	r, g, b, ok := parseHex(background)
	if !ok {
		return lightInk
	}
	if luminance(r, g, b) > 0.5 {
		return darkInk
	}
	return lightInk
}

func parseHex(s string) (r, g, b float64, ok bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return float64(v>>16&0xff) / 255, float64(v>>8&0xff) / 255, float64(v&0xff) / 255, true
}

// luminance is the Rec. 709 relative luminance of an sRGB colour.
func luminance(r, g, b float64) float64 {
	return 0.2126*r + 0.7152*g + 0.0722*b
}
