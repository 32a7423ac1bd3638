package document

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/matzehuels/flyersmith/pkg/placement"
)

// Type distinguishes elements from character data.
type Type int

const (
	ElementNode Type = iota
	TextNode
	CommentNode
)

// Kind is the role of an element within a flyer.
type Kind string

const (
	KindNone      Kind = ""
	KindContainer Kind = "canvas"
	KindShape     Kind = "shape"
	KindText      Kind = "text"
	KindImage     Kind = "image"
	KindOverlay   Kind = "overlay"
)

// Attribute names with meaning to the pipeline.
const (
	AttrKind            = "data-kind"
	AttrImages          = "data-images"
	AttrAssetIndex      = "data-asset-index"
	AttrBackgroundAsset = "data-background-asset"
)

// PlaceholderPrefix starts the comment text of every image placeholder.
const PlaceholderPrefix = "IMAGE_PLACEHOLDER_"

// Node is one element, text run or comment.
type Node struct {
	Type      Type
	Kind      Kind
	Tag       string
	Namespace string
	Attrs     []html.Attribute
	Style     Style
	Data      string
	Children  []*Node
}

// Element creates an element node with the given role.
func Element(kind Kind, tag string, style Style) *Node {
	return &Node{Type: ElementNode, Kind: kind, Tag: tag, Style: style}
}

// SVG creates an element in the SVG namespace.
func SVG(tag string) *Node {
	return &Node{Type: ElementNode, Tag: tag, Namespace: "svg"}
}

// Text creates a character data node.
func Text(s string) *Node {
	return &Node{Type: TextNode, Data: s}
}

// Comment creates a comment node.
func Comment(s string) *Node {
	return &Node{Type: CommentNode, Data: s}
}

// Placeholder creates the marker for image request i.
func Placeholder(i int) *Node {
	return Comment(PlaceholderPrefix + strconv.Itoa(i))
}

// PlaceholderIndex reports the image index n marks, if n is a placeholder.
func (n *Node) PlaceholderIndex() (int, bool) {
	if n == nil || n.Type != CommentNode {
		return 0, false
	}
	s := strings.TrimSpace(n.Data)
	if !strings.HasPrefix(s, PlaceholderPrefix) {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimPrefix(s, PlaceholderPrefix))
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// Append adds children and returns n.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Prepend inserts children before the existing ones and returns n.
func (n *Node) Prepend(children ...*Node) *Node {
	n.Children = append(append([]*Node(nil), children...), n.Children...)
	return n
}

// Attr returns the value of a non-namespaced attribute.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr assigns a non-namespaced attribute, replacing it in place.
func (n *Node) SetAttr(key, val string) *Node {
	for i, a := range n.Attrs {
		if a.Namespace == "" && a.Key == key {
			n.Attrs[i].Val = val
			return n
		}
	}
	n.Attrs = append(n.Attrs, html.Attribute{Key: key, Val: val})
	return n
}

// DelAttr removes a non-namespaced attribute.
func (n *Node) DelAttr(key string) {
	out := n.Attrs[:0]
	for _, a := range n.Attrs {
		if a.Namespace != "" || a.Key != key {
			out = append(out, a)
		}
	}
	n.Attrs = out
}

// Z returns the node's z-index, if it declares a numeric one.
func (n *Node) Z() (int, bool) {
	v, ok := n.Style.Get("z-index")
	if !ok {
		return 0, false
	}
	z, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return z, true
}

// Anchor returns the percent anchor given by the node's left and top.
func (n *Node) Anchor() (placement.Point, bool) {
	left, okL := n.Style.Get("left")
	top, okT := n.Style.Get("top")
	if !okL || !okT || !strings.HasSuffix(left, "%") || !strings.HasSuffix(top, "%") {
		return placement.Point{}, false
	}
	x, errX := strconv.ParseFloat(strings.TrimSuffix(left, "%"), 64)
	y, errY := strconv.ParseFloat(strings.TrimSuffix(top, "%"), 64)
	if errX != nil || errY != nil {
		return placement.Point{}, false
	}
	return placement.Point{X: x, Y: y}, true
}

// TextContent concatenates all character data below n.
func (n *Node) TextContent() string {
	var b strings.Builder
	walk(n, func(c *Node) bool {
		if c.Type == TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return strings.TrimSpace(b.String())
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Attrs = append([]html.Attribute(nil), n.Attrs...)
	c.Style = n.Style.Clone()
	c.Children = nil
	for _, ch := range n.Children {
		c.Children = append(c.Children, ch.Clone())
	}
	return &c
}

func (n *Node) String() string {
	switch n.Type {
	case TextNode:
		return fmt.Sprintf("text(%q)", n.Data)
	case CommentNode:
		return fmt.Sprintf("comment(%q)", n.Data)
	}
	if n.Kind != KindNone {
		return fmt.Sprintf("<%s %s>", n.Tag, n.Kind)
	}
	return "<" + n.Tag + ">"
}

func walk(n *Node, fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		walk(c, fn)
	}
}
