package page

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Frame is an <iframe> of a page.
type Frame struct {
	page     *Page
	name     string
	node     *html.Node
	doc      *Document
	attached bool
}

// Document is the content loaded into a frame.
type Document struct {
	URL         *url.URL
	Origin      string
	StatusCode  int
	ContentType string

	// Root is set for HTML documents.
	Root *html.Node

	text string
}

// TextContent returns the text of the document body, the way a browser
// reports body.textContent. Plain text documents return their body.
func (d *Document) TextContent() string {
	if d == nil {
		return ""
	}
	if d.Root == nil {
		return d.text
	}
	if el := htmlquery.FindOne(d.Root, "/html/body"); el != nil {
		return htmlquery.InnerText(el)
	}
	return htmlquery.InnerText(d.Root)
}

// CreateFrame appends a hidden, zero-sized frame named name to the body.
func (p *Page) CreateFrame(name string) *Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := element("iframe",
		"src", "about:blank",
		"name", name,
		"id", name,
		"width", "0",
		"height", "0",
		"frameborder", "0",
		"style", "display:none",
	)
	p.body.AppendChild(n)
	f := &Frame{page: p, name: name, node: n, attached: true}
	p.frames[n] = f
	return f
}

// Frame returns the attached frame named name, or nil.
func (p *Page) Frame(name string) *Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frameByName(name)
}

// Frames returns every attached frame.
func (p *Page) Frames() []*Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Frame, 0, len(p.frames))
	walk(p.root, func(n *html.Node) {
		if f, ok := p.frames[n]; ok {
			out = append(out, f)
		}
	})
	return out
}

func (p *Page) frameByName(name string) *Frame {
	if name == "" {
		return nil
	}
	for _, n := range htmlquery.Find(p.root, "//iframe") {
		if attr(n, "name") != name {
			continue
		}
		if f, ok := p.frames[n]; ok {
			return f
		}
	}
	return nil
}

// RemoveFrame detaches f. A navigation still in flight for f is discarded
// when it completes.
func (p *Page) RemoveFrame(f *Frame) {
	if f == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !f.attached {
		return
	}
	if f.node.Parent != nil {
		f.node.Parent.RemoveChild(f.node)
	}
	delete(p.frames, f.node)
	f.attached = false
	f.doc = nil
}

// Name returns the frame name.
func (f *Frame) Name() string { return f.name }

// Attached reports whether the frame is still part of the document.
func (f *Frame) Attached() bool {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	return f.attached
}

// Document returns the frame's current document. Documents of another origin
// than the page cannot be read and yield ErrCrossOrigin.
func (f *Frame) Document() (*Document, error) {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	doc := f.doc
	if doc == nil {
		return &Document{Origin: f.page.origin, ContentType: "text/html"}, nil
	}
	if doc.Origin != f.page.origin {
		return nil, fmt.Errorf("%w: frame with origin %s accessed from %s",
			ErrCrossOrigin, doc.Origin, f.page.origin)
	}
	return doc, nil
}

func (f *Frame) commit(doc *Document) bool {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	if !f.attached {
		return false
	}
	f.doc = doc
	return true
}

func newTextDocument(u *url.URL, status int, contentType, text string) *Document {
	return &Document{URL: u, Origin: OriginOf(u), StatusCode: status, ContentType: contentType, text: text}
}

func newHTMLDocument(u *url.URL, status int, contentType, markup string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	return &Document{URL: u, Origin: OriginOf(u), StatusCode: status, ContentType: contentType, Root: root}, nil
}
