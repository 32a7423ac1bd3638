package compile

import "github.com/matzehuels/flyersmith/pkg/document"

// ErrorDocument is the minimal canvas shown when no usable plan exists. The
// message is rendered as the body so the caller always has something to
// display.
func ErrorDocument(message string) *document.Document {
	root := canvas(errorBackground)
	msg := document.Element(document.KindText, "div", document.Style{
		{Property: "position", Value: "absolute"},
		{Property: "top", Value: "50%"},
		{Property: "left", Value: "50%"},
		{Property: "transform", Value: "translate(-50%,-50%)"},
		{Property: "max-width", Value: "80%"},
		{Property: "color", Value: "#B71C1C"},
		{Property: "font-size", Value: "20px"},
		{Property: "text-align", Value: "center"},
		{Property: "z-index", Value: itoa(ZText)},
	})
	msg.SetAttr("role", "alert")
	root.Append(msg.Append(document.Text(message)))

	doc := document.New(root)
	doc.SetPlannedImages(0)
	return doc
}

const errorBackground = "#FFF8F6"
