// Package document parses the transformed markup of a project into a tree,
// lets the build pipelines inject elements into it, and serializes the
// result with its doctype and generator marker.
package document

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultDoctype is used when the parsed markup carries no doctype.
const DefaultDoctype = "<!DOCTYPE html>"

// Document is a parsed HTML document. The parser always synthesizes the
// html, head and body elements, so they are never nil.
type Document struct {
	root *html.Node
	html *html.Node
	head *html.Node
	body *html.Node
}

// Parse builds a document from markup. Like a browser, the parser accepts
// any input and repairs it into head/body structure.
func Parse(src string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}

	d := &Document{root: root}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Html {
			d.html = c
			break
		}
	}
	if d.html == nil {
		return nil, fmt.Errorf("parsing document: no root element")
	}
	for c := d.html.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Head:
			d.head = c
		case atom.Body:
			d.body = c
		}
	}
	if d.head == nil || d.body == nil {
		return nil, fmt.Errorf("parsing document: missing head or body")
	}
	return d, nil
}

// Head returns the head element.
func (d *Document) Head() *html.Node { return d.head }

// Body returns the body element.
func (d *Document) Body() *html.Node { return d.body }

// AppendHead adds n as the last child of head.
func (d *Document) AppendHead(n *html.Node) {
	d.head.AppendChild(n)
}

// PrependBody makes n the first child of body.
func (d *Document) PrependBody(n *html.Node) {
	if d.body.FirstChild != nil {
		d.body.InsertBefore(n, d.body.FirstChild)
		return
	}
	d.body.AppendChild(n)
}

// Title returns the text of the first title element with whitespace
// stripped and collapsed, or "" when there is none.
func (d *Document) Title() string {
	titles := d.FindAll(atom.Title)
	if len(titles) == 0 {
		return ""
	}
	var text strings.Builder
	for c := titles[0].FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			text.WriteString(c.Data)
		}
	}
	return strings.Join(strings.Fields(text.String()), " ")
}

// FindAll returns every element of the given kind in document order.
func (d *Document) FindAll(a atom.Atom) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == a {
			found = append(found, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return found
}

// Doctype returns the serialized doctype of the parsed markup, or
// DefaultDoctype.
func (d *Document) Doctype() string {
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.DoctypeNode {
			var buf bytes.Buffer
			if err := html.Render(&buf, c); err == nil {
				return buf.String()
			}
		}
	}
	return DefaultDoctype
}

// Render serializes the document as doctype, a newline, the marker comment
// (when marker is not empty) on its own line, then the root element.
func (d *Document) Render(marker string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(d.Doctype())
	buf.WriteString("\n")
	if marker != "" {
		if err := html.Render(&buf, Comment(marker)); err != nil {
			return "", fmt.Errorf("rendering marker: %w", err)
		}
		buf.WriteString("\n")
	}
	if err := html.Render(&buf, d.html); err != nil {
		return "", fmt.Errorf("rendering document: %w", err)
	}
	return buf.String(), nil
}

// RawElement creates a style or script element whose text content is
// content. The text is serialized as is, never entity-escaped.
func RawElement(a atom.Atom, content string, attrs ...html.Attribute) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
	if content != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: content})
	}
	return n
}

// ScriptSrc creates an external script reference loaded cross-origin.
func ScriptSrc(src string) *html.Node {
	return RawElement(atom.Script, "",
		html.Attribute{Key: "src", Val: src},
		html.Attribute{Key: "crossorigin", Val: "true"},
	)
}

// Comment creates a comment node.
func Comment(text string) *html.Node {
	return &html.Node{Type: html.CommentNode, Data: " " + text + " "}
}
