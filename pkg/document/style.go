package document

import "strings"

// Decl is one CSS declaration.
type Decl struct {
	Property string
	Value    string
}

// Style is an ordered list of inline CSS declarations. Property names are
// lower case; setting an existing property replaces it in place.
type Style []Decl

// ParseStyle reads an inline style attribute. Semicolons inside
// parentheses or quotes do not split declarations, so url(...) values and
// gradients survive intact. Malformed declarations are dropped.
func ParseStyle(s string) Style {
	var out Style
	for _, part := range splitDecls(s) {
		i := strings.IndexByte(part, ':')
		if i <= 0 {
			continue
		}
		prop := strings.ToLower(strings.TrimSpace(part[:i]))
		val := strings.Join(strings.Fields(part[i+1:]), " ")
		if prop == "" || val == "" {
			continue
		}
		out.Set(prop, val)
	}
	return out
}

func splitDecls(s string) []string {
	var parts []string
	depth := 0
	var quote rune
	start := 0
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case r == ';' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// Get returns the value of prop.
func (s Style) Get(prop string) (string, bool) {
	prop = strings.ToLower(prop)
	for _, d := range s {
		if d.Property == prop {
			return d.Value, true
		}
	}
	return "", false
}

// Value returns the value of prop, or "".
func (s Style) Value(prop string) string {
	v, _ := s.Get(prop)
	return v
}

// Set assigns prop, replacing an existing declaration in place.
func (s *Style) Set(prop, value string) {
	prop = strings.ToLower(prop)
	for i, d := range *s {
		if d.Property == prop {
			(*s)[i].Value = value
			return
		}
	}
	*s = append(*s, Decl{Property: prop, Value: value})
}

// Delete removes prop if present.
func (s *Style) Delete(prop string) {
	prop = strings.ToLower(prop)
	out := (*s)[:0]
	for _, d := range *s {
		if d.Property != prop {
			out = append(out, d)
		}
	}
	*s = out
}

// String renders the declarations as an inline style attribute.
func (s Style) String() string {
	var b strings.Builder
	for i, d := range s {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(d.Property)
		b.WriteByte(':')
		b.WriteString(d.Value)
	}
	return b.String()
}

// Clone returns an independent copy.
func (s Style) Clone() Style {
	if s == nil {
		return nil
	}
	return append(Style(nil), s...)
}
