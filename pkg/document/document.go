package document

import "strconv"

// Document is an ordered list of top-level nodes.
type Document struct {
	Nodes []*Node

	// PlannedImages is the number of image requests in the plan the
	// document was compiled from. It is mirrored in the canvas
	// data-images attribute so it survives a render/parse round trip.
	PlannedImages int
}

// New returns a document holding the given top-level nodes.
func New(nodes ...*Node) *Document {
	return &Document{Nodes: nodes}
}

// Root returns the canvas container: the first top-level element marked as
// one, or failing that the first top-level element. It returns nil when
// the document has no element to anchor content in.
func (d *Document) Root() *Node {
	if d == nil {
		return nil
	}
	var first *Node
	for _, n := range d.Nodes {
		if n.Type != ElementNode {
			continue
		}
		if n.Kind == KindContainer {
			return n
		}
		if first == nil {
			first = n
		}
	}
	return first
}

// Walk visits every node in document order. Returning false from fn skips
// the node's children.
func (d *Document) Walk(fn func(*Node) bool) {
	for _, n := range d.Nodes {
		walk(n, fn)
	}
}

// Find returns every node for which match is true, in document order.
func (d *Document) Find(match func(*Node) bool) []*Node {
	var out []*Node
	d.Walk(func(n *Node) bool {
		if match(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// OfKind returns every element with the given role.
func (d *Document) OfKind(kind Kind) []*Node {
	return d.Find(func(n *Node) bool {
		return n.Type == ElementNode && n.Kind == kind
	})
}

// Placeholders returns the image indices whose placeholders are still
// present, in document order.
func (d *Document) Placeholders() []int {
	var out []int
	d.Walk(func(n *Node) bool {
		if i, ok := n.PlaceholderIndex(); ok {
			out = append(out, i)
		}
		return true
	})
	return out
}

// ReplacePlaceholder swaps the first placeholder for image i with
// replacement. It reports whether a placeholder was found.
func (d *Document) ReplacePlaceholder(i int, replacement *Node) bool {
	if replaceIn(d.Nodes, i, replacement) {
		return true
	}
	for _, n := range d.Nodes {
		if replaceBelow(n, i, replacement) {
			return true
		}
	}
	return false
}

// RemovePlaceholder deletes the first placeholder for image i. It reports
// whether a placeholder was found.
func (d *Document) RemovePlaceholder(i int) bool {
	if nodes, ok := removeIn(d.Nodes, i); ok {
		d.Nodes = nodes
		return true
	}
	for _, n := range d.Nodes {
		if removeBelow(n, i) {
			return true
		}
	}
	return false
}

func replaceIn(nodes []*Node, i int, replacement *Node) bool {
	for j, n := range nodes {
		if idx, ok := n.PlaceholderIndex(); ok && idx == i {
			nodes[j] = replacement
			return true
		}
	}
	return false
}

func replaceBelow(n *Node, i int, replacement *Node) bool {
	if replaceIn(n.Children, i, replacement) {
		return true
	}
	for _, c := range n.Children {
		if replaceBelow(c, i, replacement) {
			return true
		}
	}
	return false
}

func removeIn(nodes []*Node, i int) ([]*Node, bool) {
	for j, n := range nodes {
		if idx, ok := n.PlaceholderIndex(); ok && idx == i {
			return append(nodes[:j:j], nodes[j+1:]...), true
		}
	}
	return nodes, false
}

func removeBelow(n *Node, i int) bool {
	if children, ok := removeIn(n.Children, i); ok {
		n.Children = children
		return true
	}
	for _, c := range n.Children {
		if removeBelow(c, i) {
			return true
		}
	}
	return false
}

// SetPlannedImages records the planned image count on the document and on
// its canvas.
func (d *Document) SetPlannedImages(n int) {
	d.PlannedImages = n
	if root := d.Root(); root != nil {
		root.SetAttr(AttrImages, strconv.Itoa(n))
	}
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := &Document{PlannedImages: d.PlannedImages}
	for _, n := range d.Nodes {
		c.Nodes = append(c.Nodes, n.Clone())
	}
	return c
}
