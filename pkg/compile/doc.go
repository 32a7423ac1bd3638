// Package compile turns a design plan into a layered flyer document.
//
// The compiler is deterministic and total: every plan, including an empty
// one, compiles to a canvas. Missing fields fall back to the defaults in
// package plan and unknown shape kinds or style tokens are ignored.
//
// # Paint order
//
// Every visual node declares an explicit z-index:
//
//	z=0   background shapes (and background images, added later)
//	z=1   foreground shapes, overlay images
//	z=2   foreground images
//	z=3   text, always above shapes and images
//	z=10  the vignette overlay, non-interactive
//
// Document order only decides ties between nodes at the same z-index.
//
// # Images
//
// The compiler never places images. It embeds one placeholder comment per
// image request immediately inside the canvas, in request order, and returns
// the placement metadata for each request. The injector later swaps the
// placeholders for image nodes.
package compile
