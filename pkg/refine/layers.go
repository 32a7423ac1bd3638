package refine

import (
	"strconv"

	"github.com/matzehuels/flyersmith/pkg/compile"
	"github.com/matzehuels/flyersmith/pkg/document"
	"github.com/matzehuels/flyersmith/pkg/inject"
	"github.com/matzehuels/flyersmith/pkg/plan"
)

// restoreLayers resets the z-index of every role-tagged element an edit
// moved out of its band and returns how many it changed. Shapes keep 0 or
// 1, images take the z of their asset layer, text sits between images and
// the overlay, and the overlay is on top and ignores pointer events.
func restoreLayers(doc *document.Document, assets []plan.GeneratedImage) int {
	byIndex := make(map[int]plan.GeneratedImage, len(assets))
	for k, a := range assets {
		idx := a.Index
		if idx < 0 {
			idx = k
		}
		if _, dup := byIndex[idx]; !dup {
			byIndex[idx] = a
		}
	}

	changed := 0
	fix := func(n *document.Node, want int) {
		if z, ok := n.Z(); ok && z == want {
			return
		}
		n.Style.Set("z-index", strconv.Itoa(want))
		changed++
	}

	for _, n := range doc.OfKind(document.KindShape) {
		z, ok := n.Z()
		switch {
		case ok && z <= compile.ZBackground:
			fix(n, compile.ZBackground)
		default:
			fix(n, compile.ZForeground)
		}
	}
	for _, n := range doc.OfKind(document.KindImage) {
		fix(n, imageZ(n, byIndex))
	}
	for _, n := range doc.OfKind(document.KindText) {
		if z, ok := n.Z(); !ok || z < compile.ZText || z >= compile.ZOverlay {
			fix(n, compile.ZText)
		}
	}
	for _, n := range doc.OfKind(document.KindOverlay) {
		fix(n, compile.ZOverlay)
		if n.Style.Value("pointer-events") != "none" {
			n.Style.Set("pointer-events", "none")
			changed++
		}
	}
	return changed
}

func imageZ(n *document.Node, byIndex map[int]plan.GeneratedImage) int {
	if v, ok := n.Attr(document.AttrAssetIndex); ok {
		if i, err := strconv.Atoi(v); err == nil {
			if a, ok := byIndex[i]; ok {
				return inject.ImageZ(a)
			}
		}
	}
	z, _ := n.Z()
	switch {
	case z <= inject.ZBackground:
		return inject.ZBackground
	case z >= inject.ZForeground:
		return inject.ZForeground
	default:
		return z
	}
}
