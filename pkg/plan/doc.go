// Package plan defines the design plan produced by the planning model and
// the boundary that turns its loosely formatted reply into typed records.
//
// The planning model is an untrusted text generator. Its reply may be
// wrapped in code fences, may carry numbers where strings were asked for,
// may list styles as a sentence instead of an array, and may write a text
// block as a bare string. [Decode] accepts all of these and produces a
// [Plan] whose fields have documented defaults, so later stages never deal
// with raw JSON.
//
// # Validation
//
// A plan must name four top-level sections: theme, texts, layout and
// images. Only key presence is checked; an empty list or object is valid.
// [Validate] reports exactly the missing sections as a
// [*MissingSectionsError].
//
//	p, err := plan.Decode(reply)
//	if errors.Is(err, errors.ErrCodeMissingSections) {
//	    // render an error document instead
//	}
package plan
