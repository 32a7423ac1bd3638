// Package summary describes a design plan in one short paragraph.
package summary

import (
	"fmt"
	"strings"

	"github.com/matzehuels/flyersmith/pkg/plan"
)

// NoPlan is returned for a nil plan.
const NoPlan = "No flyer data available."

const standardLayout = "standard layout"

// Generate summarizes the title, tone, leading texts and shapes of p.
func Generate(p *plan.Plan) string {
	if p == nil {
		return NoPlan
	}

	subtitle := ""
	if len(p.Texts) > 1 {
		subtitle = p.Texts[1].Content.String()
	}

	var preview []string
	for i, t := range p.Texts {
		if i == 3 {
			break
		}
		preview = append(preview, t.Content.String())
	}

	var kinds []string
	for _, s := range p.Layout.Shapes {
		kinds = append(kinds, s.Kind.String())
	}
	shapes := strings.Join(kinds, ", ")
	if shapes == "" {
		shapes = standardLayout
	}

	return fmt.Sprintf("The flyer titled '%s' (%s) uses a %s tone. Key content includes: %s. Layout elements include: %s.",
		p.Title(), subtitle, p.Tone(), strings.Join(preview, ", "), shapes)
}
