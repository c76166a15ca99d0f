// Package xmltree parses metadata XML files into a small element tree and
// writes them back in the canonical layout used for metadata files: an XML
// declaration, one element per line and a fixed indentation string.
//
// Mixed content and comments are not preserved; metadata files use neither.
package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Header is written at the top of every document.
const Header = `<?xml version="1.0" encoding="UTF-8"?>`

// Node is one XML element. Leaf elements carry Text; container elements carry
// Children. Attributes keep their document order.
type Node struct {
	Name     string
	Attrs    []xml.Attr
	Text     string
	Children []*Node
}

// NewElement returns a leaf element.
func NewElement(name, text string) *Node {
	return &Node{Name: name, Text: text}
}

// Child returns the first child element named name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildText returns the text of the first child named name.
func (n *Node) ChildText(name string) string {
	if c := n.Child(name); c != nil {
		return c.Text
	}
	return ""
}

// Elements returns every child element named name.
func (n *Node) Elements(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Append adds child elements.
func (n *Node) Append(children ...*Node) {
	n.Children = append(n.Children, children...)
}

// Attr returns the value of an attribute by local name.
func (n *Node) Attr(local string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == local && (a.Name.Space == "" || a.Name.Space == "xmlns") {
			return a.Value, true
		}
	}
	return "", false
}

// SetNamespace sets the default xmlns attribute, replacing any existing one.
func (n *Node) SetNamespace(ns string) {
	for i, a := range n.Attrs {
		if a.Name.Space == "" && a.Name.Local == "xmlns" {
			n.Attrs[i].Value = ns
			return
		}
	}
	n.Attrs = append([]xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: ns}}, n.Attrs...)
}

// Clone returns a deep copy.
func (n *Node) Clone() *Node {
	c := &Node{Name: n.Name, Text: n.Text}
	if len(n.Attrs) > 0 {
		c.Attrs = append([]xml.Attr(nil), n.Attrs...)
	}
	for _, child := range n.Children {
		c.Children = append(c.Children, child.Clone())
	}
	return c
}

// Parse reads a document and returns its root element.
func Parse(data []byte) (*Node, error) {
	return ParseReader(bytes.NewReader(data))
}

// ParseReader reads a document from r and returns its root element.
func ParseReader(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)

	var stack []*Node
	var root *Node
	var text strings.Builder
	prefixes := map[string]string{"http://www.w3.org/XML/1998/namespace": "xml"}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" {
					prefixes[a.Value] = a.Name.Local
				}
			}
			for _, a := range t.Attr {
				name := a.Name
				if name.Space != "" && name.Space != "xmlns" {
					// the decoder resolves prefixes to namespace urls
					name.Space = prefixes[name.Space]
				}
				n.Attrs = append(n.Attrs, xml.Attr{Name: name, Value: a.Value})
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)
			text.Reset()
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			n := stack[len(stack)-1]
			if len(n.Children) == 0 {
				n.Text = text.String()
			}
			stack = stack[:len(stack)-1]
			text.Reset()
		}
	}

	if root == nil {
		return nil, errors.New("document has no root element")
	}
	return root, nil
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// Marshal writes root as a complete document with the XML declaration and a
// trailing newline.
func Marshal(root *Node, indent string) []byte {
	var buf bytes.Buffer
	buf.WriteString(Header)
	buf.WriteByte('\n')
	writeNode(&buf, root, indent, 0)
	return buf.Bytes()
}

// WriteTo writes the document to w.
func WriteTo(w io.Writer, root *Node, indent string) error {
	if _, err := w.Write(Marshal(root, indent)); err != nil {
		return fmt.Errorf("failed to write xml: %w", err)
	}
	return nil
}

func writeNode(buf *bytes.Buffer, n *Node, indent string, depth int) {
	pad := strings.Repeat(indent, depth)
	buf.WriteString(pad)
	buf.WriteByte('<')
	buf.WriteString(n.Name)
	for _, a := range n.Attrs {
		buf.WriteByte(' ')
		if a.Name.Space != "" {
			buf.WriteString(a.Name.Space)
			buf.WriteByte(':')
		}
		buf.WriteString(a.Name.Local)
		buf.WriteString(`="`)
		attrEscaper.WriteString(buf, a.Value)
		buf.WriteByte('"')
	}

	if len(n.Children) == 0 {
		if n.Text == "" {
			buf.WriteString("/>\n")
			return
		}
		buf.WriteByte('>')
		textEscaper.WriteString(buf, n.Text)
		buf.WriteString("</")
		buf.WriteString(n.Name)
		buf.WriteString(">\n")
		return
	}

	buf.WriteString(">\n")
	for _, c := range n.Children {
		writeNode(buf, c, indent, depth+1)
	}
	buf.WriteString(pad)
	buf.WriteString("</")
	buf.WriteString(n.Name)
	buf.WriteString(">\n")
}
