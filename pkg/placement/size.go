package placement

import (
	"math"
	"strconv"
	"strings"
)

// DefaultUnit is appended to bare numeric sizes.
const DefaultUnit = "px"

// Auto is the length token used when a size cannot be interpreted.
const Auto = "auto"

// units are the length suffixes passed through unchanged.
var units = []string{"vmin", "vmax", "rem", "em", "px", "vw", "vh", "pt", "%"}

// NormalizeSize maps a size descriptor to a renderable CSS length.
//
// Empty input yields [Auto]. A descriptor already ending in a percent sign or
// a known unit is returned trimmed. A bare number is formatted as a float and
// suffixed with [DefaultUnit], so "3" becomes "3.0px". Anything else,
// including NaN and infinities, yields [Auto].
func NormalizeSize(descriptor any) string {
	s := strings.TrimSpace(Stringify(descriptor))
	if s == "" {
		return Auto
	}

	lower := strings.ToLower(s)
	for _, u := range units {
		if strings.HasSuffix(lower, u) {
			return s
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Auto
	}
	return floatString(v) + DefaultUnit
}

// SizeOr normalizes descriptor and substitutes fallback when the result is
// [Auto].
func SizeOr(descriptor any, fallback string) string {
	if s := NormalizeSize(descriptor); s != Auto {
		return s
	}
	return fallback
}

// floatString formats v the way a float prints: integral values keep one
// decimal ("3.0"), others use the shortest exact form ("2.5").
func floatString(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// Float parses the leading number of a loose descriptor such as "0.8",
// "40%" or "12px". It returns def when no number can be read.
func Float(descriptor any, def float64) float64 {
	s := strings.TrimSpace(Stringify(descriptor))
	if s == "" {
		return def
	}
	s = strings.NewReplacer("%", "", "px", "", ",", "").Replace(strings.ToLower(s))
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return def
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}
