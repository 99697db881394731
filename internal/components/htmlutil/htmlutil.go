package htmlutil

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// ScriptTexts returns the text content of every inline <script> in the
// document, in document order.
func ScriptTexts(doc *goquery.Document) []string {
	var out []string
	for _, script := range doc.Find("script").Nodes {
		text := GetText(script)
		if text == "" {
			continue
		}
		out = append(out, text)
	}
	return out
}
