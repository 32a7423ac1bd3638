package plan

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/matzehuels/flyersmith/pkg/errors"
)

// Sections are the required top-level keys, in reporting order.
var Sections = []string{"theme", "texts", "layout", "images"}

// MissingSectionsError lists the required sections absent from a plan.
type MissingSectionsError struct {
	Sections []string
}

func (e *MissingSectionsError) Error() string {
	return "plan is missing sections: " + strings.Join(e.Sections, ", ")
}

var fencePattern = regexp.MustCompile("(?m)^```(?:json)?|```$")

// StripFences removes markdown code fences from a model reply. If the
// remaining text is not a JSON object on its own, the span from the first
// '{' to the last '}' is returned instead.
func StripFences(reply string) string {
	s := strings.TrimSpace(fencePattern.ReplaceAllString(strings.TrimSpace(reply), ""))
	if json.Valid([]byte(s)) {
		return s
	}
	if obj, ok := ExtractObject(s); ok {
		return obj
	}
	return s
}

// ExtractObject returns the span of s from the first '{' to the last '}'.
func ExtractObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// Validate checks that raw names every required section. Only key
// presence matters. It returns nil or a [*MissingSectionsError] listing
// exactly the absent keys.
func Validate(raw map[string]json.RawMessage) error {
	var missing []string
	for _, key := range Sections {
		if _, ok := raw[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &MissingSectionsError{Sections: missing}
	}
	return nil
}

// Decode parses a planning model reply into a Plan.
//
// Undecodable text yields an error with code UNDECODABLE_PLAN. A JSON
// object lacking required sections yields MISSING_SECTIONS wrapping a
// [*MissingSectionsError]. Both are recoverable: the caller renders an
// error document rather than aborting. Inside the sections decoding is
// lenient: a single object where a list is expected becomes a one-element
// list, a bare string background or palette becomes one colour, and
// anything else of the wrong type is dropped.
func Decode(reply []byte, opts ...DecodeOption) (*Plan, error) {
	body := StripFences(string(reply))

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUndecodablePlan, err, "failed to decode plan JSON")
	}
	if err := Validate(raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMissingSections, err, "plan is incomplete")
	}

	p := newDecoder(opts...).plan(raw)
	return &p, nil
}

// Encode renders the plan as indented JSON, the form written next to
// compiled documents.
func Encode(p *Plan) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}
