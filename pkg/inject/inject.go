// Package inject merges generated images into a compiled flyer document.
//
// Images are paired with the plan's image requests by their explicit index,
// never by guessing. Each paired image is placed by the first strategy that
// applies:
//
//  1. replace the request's placeholder comment,
//  2. insert at the start of the canvas, keeping request order, so the image
//     precedes shapes and text in source order,
//  3. append after every top-level node when the document has no element to
//     insert into. This still succeeds but is reported as degraded.
//
// Paint order never depends on source order: every image node carries a
// z-index derived from its layer (background 0, overlay 1, foreground 2),
// below text at z=3.
//
// An image whose position names the background becomes the canvas
// background-image instead of a node. A second such image is drawn as a
// full-bleed node at z=0.
//
// Injection is idempotent. Placeholders are consumed on first use, and
// injected nodes are marked with data-asset-index so a later call, for
// instance after a refinement edit, only restores what is missing.
package inject

import (
	"io"
	"sort"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flyersmith/pkg/document"
	"github.com/matzehuels/flyersmith/pkg/errors"
	"github.com/matzehuels/flyersmith/pkg/placement"
	"github.com/matzehuels/flyersmith/pkg/plan"
)

// Z-index values for image nodes by layer.
const (
	ZBackground = 0
	ZOverlay    = 1
	ZForeground = 2
)

// DefaultBorderRadius rounds image corners when the request names none.
const DefaultBorderRadius = "10px"

// Report describes what an injection did. Index lists refer to image
// request indices, except Skipped which holds positions in the asset list.
type Report struct {
	Planned   int
	Generated int
	Mismatch  bool
	Injected  []int
	Present   []int
	Missing   []int
	Skipped   []int
	Degraded  bool
}

// Err returns a warning-class error summarizing the report, or nil when
// every planned image was placed normally.
func (r Report) Err() error {
	if r.Degraded {
		return errors.New(errors.ErrCodeDegradedInjection,
			"no canvas to insert into; %d image(s) appended at the end", len(r.Injected))
	}
	if r.Mismatch {
		return errors.New(errors.ErrCodeCountMismatch,
			"planned %d image(s) but %d were generated; missing %v", r.Planned, r.Generated, r.Missing)
	}
	return nil
}

// Option configures an injection.
type Option func(*injector)

type injector struct {
	logger *log.Logger
}

// WithLogger reports skipped images and degraded placement to l.
func WithLogger(l *log.Logger) Option { return func(i *injector) { i.logger = l } }

type pairing struct {
	index int
	asset plan.GeneratedImage
}

// Inject places assets into doc in place and reports the outcome.
func Inject(doc *document.Document, assets []plan.GeneratedImage, opts ...Option) Report {
	in := injector{}
	for _, opt := range opts {
		opt(&in)
	}
	if in.logger == nil {
		in.logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	rep := Report{Planned: plannedCount(doc, len(assets)), Generated: len(assets)}
	rep.Mismatch = rep.Generated != rep.Planned
	if rep.Mismatch {
		in.logger.Warn("image count mismatch", "planned", rep.Planned, "generated", rep.Generated)
	}

	pairs := in.pair(assets, &rep)
	present := presentIndices(doc, pairs)
	root := doc.Root()
	bgTaken := root != nil && hasAttr(root, document.AttrBackgroundAsset)

	paired := make(map[int]bool, len(pairs))
	var pending []*document.Node
	for _, p := range pairs {
		paired[p.index] = true
		if present[p.index] {
			rep.Present = append(rep.Present, p.index)
			doc.RemovePlaceholder(p.index)
			continue
		}

		layer := assetLayer(p.asset)
		if layer == placement.LayerBackground && root != nil && !bgTaken {
			setBackground(root, p)
			bgTaken = true
			doc.RemovePlaceholder(p.index)
			rep.Injected = append(rep.Injected, p.index)
			continue
		}

		var n *document.Node
		if layer == placement.LayerBackground {
			n = fullBleed(p)
		} else {
			n = imageNode(p, layer)
		}
		if !doc.ReplacePlaceholder(p.index, n) {
			pending = append(pending, n)
		}
		rep.Injected = append(rep.Injected, p.index)
	}

	if len(pending) > 0 {
		if root != nil {
			root.Prepend(pending...)
		} else {
			doc.Nodes = append(doc.Nodes, pending...)
			rep.Degraded = true
			in.logger.Warn("degraded image injection: no canvas found, appended at end", "images", len(pending))
		}
	}

	for i := 0; i < rep.Planned; i++ {
		if !paired[i] {
			rep.Missing = append(rep.Missing, i)
		}
	}
	return rep
}

// pair resolves each asset to a request index. Assets without an explicit
// index fall back to list position only when the counts agree.
func (in *injector) pair(assets []plan.GeneratedImage, rep *Report) []pairing {
	seen := make(map[int]bool, len(assets))
	var out []pairing
	for k, a := range assets {
		idx := a.Index
		if idx < 0 {
			if rep.Mismatch {
				in.logger.Warn("skipping unindexed image: counts differ", "position", k, "path", a.Path)
				rep.Skipped = append(rep.Skipped, k)
				continue
			}
			idx = k
		}
		if idx >= rep.Planned || seen[idx] || a.Path == "" {
			in.logger.Warn("skipping unpaired image", "position", k, "index", idx, "path", a.Path)
			rep.Skipped = append(rep.Skipped, k)
			continue
		}
		seen[idx] = true
		out = append(out, pairing{index: idx, asset: a})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out
}

// plannedCount is the document's planned image count, recovered from
// leftover placeholders when unknown, or the asset count as a last resort.
func plannedCount(doc *document.Document, generated int) int {
	if doc.PlannedImages > 0 {
		return doc.PlannedImages
	}
	n := 0
	for _, i := range doc.Placeholders() {
		if i+1 > n {
			n = i + 1
		}
	}
	if n > 0 {
		return n
	}
	return generated
}

// presentIndices finds images already in the document: nodes marked with
// an asset index, a canvas marked with a background asset, and unmarked
// nodes whose src is a paired asset's path. Unmarked matches are marked.
func presentIndices(doc *document.Document, pairs []pairing) map[int]bool {
	byPath := make(map[string]int, len(pairs))
	for _, p := range pairs {
		byPath[p.asset.Path] = p.index
	}

	out := make(map[int]bool)
	doc.Walk(func(n *document.Node) bool {
		if n.Type != document.ElementNode {
			return true
		}
		marked := false
		for _, key := range []string{document.AttrAssetIndex, document.AttrBackgroundAsset} {
			if v, ok := n.Attr(key); ok {
				if i, err := strconv.Atoi(v); err == nil {
					out[i] = true
					marked = true
				}
			}
		}
		if marked {
			return true
		}
		if src, ok := n.Attr("src"); ok {
			if i, ok := byPath[src]; ok {
				n.SetAttr(document.AttrAssetIndex, strconv.Itoa(i))
				out[i] = true
			}
		}
		return true
	})
	return out
}

func hasAttr(n *document.Node, key string) bool {
	_, ok := n.Attr(key)
	return ok
}

func assetLayer(a plan.GeneratedImage) placement.Layer {
	if a.Layer != "" {
		return placement.ParseLayer(string(a.Layer), placement.LayerForeground)
	}
	return placement.InferLayer(a.Position)
}

// ImageZ is the z-index an image node for a is drawn at.
func ImageZ(a plan.GeneratedImage) int { return layerZ(assetLayer(a)) }

func layerZ(l placement.Layer) int {
	switch l {
	case placement.LayerBackground:
		return ZBackground
	case placement.LayerOverlay:
		return ZOverlay
	default:
		return ZForeground
	}
}

func setBackground(root *document.Node, p pairing) {
	root.Style.Set("background-image", "url('"+p.asset.Path+"')")
	root.Style.Set("background-size", "cover")
	root.Style.Set("background-position", "center")
	root.SetAttr(document.AttrBackgroundAsset, strconv.Itoa(p.index))
}

func imageNode(p pairing, layer placement.Layer) *document.Node {
	pt := placement.ResolvePosition(p.asset.Position)
	size := placement.SizeOr(p.asset.Size, plan.DefaultImageSize)
	radius := p.asset.BorderRadius
	if radius == "" {
		radius = DefaultBorderRadius
	}
	return image(p, document.Style{
		{Property: "position", Value: "absolute"},
		{Property: "top", Value: placement.Percent(pt.Y)},
		{Property: "left", Value: placement.Percent(pt.X)},
		{Property: "width", Value: size},
		{Property: "height", Value: size},
		{Property: "transform", Value: "translate(-50%,-50%)"},
		{Property: "z-index", Value: strconv.Itoa(layerZ(layer))},
		{Property: "pointer-events", Value: "none"},
		{Property: "border-radius", Value: radius},
		{Property: "object-fit", Value: "cover"},
	})
}

func fullBleed(p pairing) *document.Node {
	return image(p, document.Style{
		{Property: "position", Value: "absolute"},
		{Property: "top", Value: "0"},
		{Property: "left", Value: "0"},
		{Property: "width", Value: "100%"},
		{Property: "height", Value: "100%"},
		{Property: "z-index", Value: strconv.Itoa(ZBackground)},
		{Property: "pointer-events", Value: "none"},
		{Property: "object-fit", Value: "cover"},
	})
}

func image(p pairing, st document.Style) *document.Node {
	n := document.Element(document.KindImage, "img", st)
	n.SetAttr("src", p.asset.Path)
	n.SetAttr("alt", p.asset.Description)
	n.SetAttr(document.AttrAssetIndex, strconv.Itoa(p.index))
	return n
}
