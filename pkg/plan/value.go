package plan

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode"
)

// Value is a JSON scalar read as text. Strings keep their content, numbers
// keep their literal spelling, booleans become "true"/"false" and null is
// the empty string. Objects and arrays are kept as compact JSON text so a
// malformed field never fails the whole plan.
type Value string

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Value(s)
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*v = Value(buf.String())
	default:
		*v = Value(data)
	}
	return nil
}

// String returns the trimmed text.
func (v Value) String() string { return strings.TrimSpace(string(v)) }

// Or returns the text, or def when empty.
func (v Value) Or(def string) string {
	if s := v.String(); s != "" {
		return s
	}
	return def
}

// Float parses the value as a number, returning def when it is empty or
// not numeric.
func (v Value) Float(def float64) float64 {
	f, err := strconv.ParseFloat(v.String(), 64)
	if err != nil {
		return def
	}
	return f
}

// Tokens is a set of style flags. The plan may give them as a JSON array
// or as one string ("bold, italic" or "bold italic").
type Tokens []string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tokens) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}
	if data[0] == '[' {
		var items []Value
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make(Tokens, 0, len(items))
		for _, it := range items {
			out = append(out, splitTokens(it.String())...)
		}
		*t = out
		return nil
	}
	var s Value
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = splitTokens(s.String())
	return nil
}

// Has reports whether the set contains tok, ignoring case.
func (t Tokens) Has(tok string) bool {
	for _, s := range t {
		if strings.EqualFold(s, tok) {
			return true
		}
	}
	return false
}

func splitTokens(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_'
	})
	return fields
}
