package document

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Render serializes d as an HTML fragment.
func Render(d *Document) string {
	var b strings.Builder
	_ = RenderTo(&b, d)
	return b.String()
}

// RenderTo writes d to w as an HTML fragment. Top-level nodes and the
// children of the canvas are separated by newlines.
func RenderTo(w io.Writer, d *Document) error {
	if d == nil {
		return nil
	}
	for i, n := range d.Nodes {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := html.Render(w, toHTML(n)); err != nil {
			return err
		}
	}
	return nil
}

// RenderNode serializes a single node.
func RenderNode(n *Node) string {
	var b strings.Builder
	_ = html.Render(&b, toHTML(n))
	return b.String()
}

func toHTML(n *Node) *html.Node {
	switch n.Type {
	case TextNode:
		return &html.Node{Type: html.TextNode, Data: n.Data}
	case CommentNode:
		return &html.Node{Type: html.CommentNode, Data: n.Data}
	}

	h := &html.Node{
		Type:      html.ElementNode,
		Data:      n.Tag,
		DataAtom:  atom.Lookup([]byte(n.Tag)),
		Namespace: n.Namespace,
	}
	if n.Kind != KindNone {
		h.Attr = append(h.Attr, html.Attribute{Key: AttrKind, Val: string(n.Kind)})
	}
	h.Attr = append(h.Attr, n.Attrs...)
	if len(n.Style) > 0 {
		h.Attr = append(h.Attr, html.Attribute{Key: "style", Val: n.Style.String()})
	}

	spaced := n.Kind == KindContainer && len(n.Children) > 0
	for _, c := range n.Children {
		if spaced {
			h.AppendChild(&html.Node{Type: html.TextNode, Data: "\n"})
		}
		h.AppendChild(toHTML(c))
	}
	if spaced {
		h.AppendChild(&html.Node{Type: html.TextNode, Data: "\n"})
	}
	return h
}

// Parse reads an HTML fragment, typically one returned by the critique
// model, into a Document. Full documents are accepted; their html, head and
// body wrappers are dropped the way a browser drops them inside a body.
// Whitespace-only text between top-level nodes and between canvas children
// is discarded.
func Parse(s string) (*Document, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(s), ctx)
	if err != nil {
		return nil, err
	}

	d := &Document{}
	for _, h := range nodes {
		n := fromHTML(h)
		if n == nil || isBlank(n) {
			continue
		}
		d.Nodes = append(d.Nodes, n)
	}
	if root := d.Root(); root != nil {
		if v, ok := root.Attr(AttrImages); ok {
			if planned, err := strconv.Atoi(v); err == nil && planned >= 0 {
				d.PlannedImages = planned
			}
		}
	}
	return d, nil
}

func fromHTML(h *html.Node) *Node {
	switch h.Type {
	case html.TextNode:
		return Text(h.Data)
	case html.CommentNode:
		return Comment(h.Data)
	case html.ElementNode:
	default:
		return nil
	}

	n := &Node{Type: ElementNode, Tag: h.Data, Namespace: h.Namespace}
	for _, a := range h.Attr {
		switch {
		case a.Namespace == "" && a.Key == AttrKind:
			n.Kind = Kind(a.Val)
		case a.Namespace == "" && a.Key == "style":
			n.Style = ParseStyle(a.Val)
		default:
			n.Attrs = append(n.Attrs, a)
		}
	}
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		child := fromHTML(c)
		if child == nil || (n.Kind == KindContainer && isBlank(child)) {
			continue
		}
		n.Children = append(n.Children, child)
	}
	return n
}

func isBlank(n *Node) bool {
	return n.Type == TextNode && strings.TrimSpace(n.Data) == ""
}
