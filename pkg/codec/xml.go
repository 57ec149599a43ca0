package codec

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// Document is a parsed XML response.
type Document struct {
	Root *Node
}

// Node is an element of a Document.
type Node struct {
	Name     xml.Name
	Attr     []xml.Attr
	Children []*Node
	Text     string
}

// DecodeXML reads a well-formed document with exactly one root element.
func DecodeXML(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	var (
		stack []*Node
		root  *Node
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name, Attr: append([]xml.Attr(nil), t.Attr...)}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			} else if strings.TrimSpace(string(t)) != "" {
				return nil, errors.New("text outside root element")
			}
		}
	}
	if root == nil {
		return nil, errors.New("no root element")
	}
	return &Document{Root: root}, nil
}

// Find returns the first element named local in document order.
func (d *Document) Find(local string) *Node {
	if d == nil {
		return nil
	}
	return d.Root.find(local)
}

func (n *Node) find(local string) *Node {
	if n.Name.Local == local {
		return n
	}
	for _, c := range n.Children {
		if m := c.find(local); m != nil {
			return m
		}
	}
	return nil
}

// Attribute returns the value of the attribute named local.
func (n *Node) Attribute(local string) (string, bool) {
	for _, a := range n.Attr {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// TextContent returns the concatenated character data of n and its descendants.
func (n *Node) TextContent() string {
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *Node) writeText(b *strings.Builder) {
	b.WriteString(n.Text)
	for _, c := range n.Children {
		c.writeText(b)
	}
}
