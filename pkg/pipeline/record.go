package pipeline

import (
	"time"

	"github.com/matzehuels/flyersmith/pkg/document"
	"github.com/matzehuels/flyersmith/pkg/refine"
	"github.com/matzehuels/flyersmith/pkg/store"
)

// Record converts the result into an archive record. The preview is not
// part of the record; it is rebuilt from the stored document and images.
func (r *Result) Record(prompt string) *store.Record {
	rec := &store.Record{
		ID:        r.ID,
		Prompt:    prompt,
		CreatedAt: time.Now().UTC(),
		Plan:      r.Plan,
		Summary:   r.Summary,
		Assets:    r.Assets,
		Warnings:  r.Warnings,
		Failed:    r.Failed,
	}
	if r.Final != nil {
		rec.FinalHTML = published(r.Final)
	}
	if r.Refined() {
		rec.RefinedHTML = published(r.Document)
		rec.Iterations = r.Rounds[len(r.Rounds)-1].Iteration
		rec.Verdicts = make([]refine.Verdict, len(r.Rounds))
		for i, o := range r.Rounds {
			rec.Verdicts[i] = o.Verdict
		}
	}
	return rec
}

// published renders d without the placeholders of images that were never
// generated. d keeps them so a later injection can still fill them.
func published(d *document.Document) string {
	left := d.Placeholders()
	if len(left) == 0 {
		return document.Render(d)
	}
	c := d.Clone()
	for _, i := range left {
		c.RemovePlaceholder(i)
	}
	return document.Render(c)
}

// PreviewHTML renders the preview document, or "" if there is none.
func (r *Result) PreviewHTML() string {
	if r.Preview == nil {
		return ""
	}
	return published(r.Preview)
}
