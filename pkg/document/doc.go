// Package document is the node-tree model of a compiled flyer.
//
// A [Document] is an ordered list of top-level [Node] values. A compiled
// flyer has exactly one top-level element, the canvas container, whose
// children are the positioned visual nodes. Each element carries a [Kind]
// naming its role (shape, text, image, overlay), an ordered [Style] and
// any other attributes.
//
// Documents move between pipeline stages as trees, never as strings. The
// only string boundary is [Render] and [Parse], used when a document is
// persisted or handed to the critique model and when an edited copy comes
// back. Both are built on golang.org/x/net/html, so an edited document is
// parsed with the same rules a browser would apply.
//
// # Placeholders
//
// Image placeholders are HTML comments of the form IMAGE_PLACEHOLDER_<i>.
// They survive a render/parse round trip and are consumed by
// [Document.ReplacePlaceholder].
//
// # Roles
//
// The role of an element is stored in its data-kind attribute, which lets
// a parsed document recover the kinds the compiler assigned:
//
//	<div data-kind="canvas" data-images="2" style="...">
//	  <!--IMAGE_PLACEHOLDER_0-->
//	  <div data-kind="shape" style="...;z-index:0"></div>
//	  <div data-kind="text" style="...;z-index:3">Hello</div>
//	  <div data-kind="overlay" aria-hidden="true" style="...;z-index:10"></div>
//	</div>
package document
