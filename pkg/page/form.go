package page

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/bft-labs/formship/pkg/log"
)

// TagAttr marks hidden inputs injected on behalf of one submission.
const TagAttr = "data-uploadformid"

// Form is a <form> element of a page. A form must be driven by one owner at a
// time; two uploaders sharing a form corrupt each other's hidden fields.
type Form struct {
	page  *Page
	node  *html.Node
	files map[*html.Node][]File
}

// Form returns the form with the given id.
func (p *Page) Form(id string) (*Form, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range htmlquery.Find(p.root, "//form") {
		if attr(n, "id") == id {
			return p.formFor(n), nil
		}
	}
	return nil, fmt.Errorf("%w: form #%s", ErrNotFound, id)
}

// Forms returns every form of the document in document order.
func (p *Page) Forms() []*Form {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*Form
	for _, n := range htmlquery.Find(p.root, "//form") {
		out = append(out, p.formFor(n))
	}
	return out
}

// CreateForm appends an empty form with the given id to the body.
func (p *Page) CreateForm(id string) *Form {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := element("form", "id", id)
	p.body.AppendChild(n)
	return p.formFor(n)
}

func (p *Page) formFor(n *html.Node) *Form {
	if f, ok := p.forms[n]; ok {
		return f
	}
	f := &Form{page: p, node: n, files: make(map[*html.Node][]File)}
	p.forms[n] = f
	return f
}

// Page returns the page owning the form.
func (f *Form) Page() *Page { return f.page }

// ID returns the id attribute.
func (f *Form) ID() string { return f.Attr("id") }

// Attr returns the value of an attribute, or "" when it is absent.
func (f *Form) Attr(key string) string {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	return attr(f.node, key)
}

// HasAttr reports whether the attribute is present.
func (f *Form) HasAttr(key string) bool {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	return hasAttr(f.node, key)
}

// SetAttr sets an attribute.
func (f *Form) SetAttr(key, value string) {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	setAttr(f.node, key, value)
}

// RemoveAttr removes attributes.
func (f *Form) RemoveAttr(keys ...string) {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	for _, k := range keys {
		removeAttr(f.node, k)
	}
}

// AddInput appends an <input> control.
func (f *Form) AddInput(typ, name, value string) {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	f.node.AppendChild(element("input", "type", typ, "name", name, "value", value))
}

// AppendHidden appends a hidden input tagged with tag.
func (f *Form) AppendHidden(tag, name, value string) {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	f.node.AppendChild(element("input", "type", "hidden", TagAttr, tag, "name", name, "value", value))
}

// Tagged returns how many hidden inputs carry tag.
func (f *Form) Tagged(tag string) int {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	return len(f.tagged(tag))
}

// RemoveTagged detaches every hidden input carrying tag and returns how many
// were removed.
func (f *Form) RemoveTagged(tag string) int {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	nodes := f.tagged(tag)
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
	return len(nodes)
}

func (f *Form) tagged(tag string) []*html.Node {
	var out []*html.Node
	for _, n := range htmlquery.Find(f.node, ".//input[@type='hidden']") {
		if attr(n, TagAttr) == tag {
			out = append(out, n)
		}
	}
	return out
}

// SetFiles selects files in the file input named name, replacing the
// previous selection.
func (f *Form) SetFiles(name string, files ...File) error {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	for _, n := range htmlquery.Find(f.node, ".//input[@type='file']") {
		if attr(n, "name") == name {
			f.files[n] = append([]File(nil), files...)
			return nil
		}
	}
	return fmt.Errorf("%w: file input %q", ErrNotFound, name)
}

// Entries returns the form's successful controls in document order.
func (f *Form) Entries() []Entry {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	var out []Entry
	walk(f.node, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		name := attr(n, "name")
		if name == "" || hasAttr(n, "disabled") {
			return
		}
		switch n.Data {
		case "input":
			out = append(out, f.inputEntries(n, name)...)
		case "textarea":
			out = append(out, Entry{Name: name, Value: htmlquery.InnerText(n)})
		case "select":
			out = append(out, selectEntries(n, name)...)
		}
	})
	return out
}

func (f *Form) inputEntries(n *html.Node, name string) []Entry {
	typ := strings.ToLower(attr(n, "type"))
	switch typ {
	case "submit", "button", "reset", "image":
		return nil
	case "checkbox", "radio":
		if !hasAttr(n, "checked") {
			return nil
		}
		value := attr(n, "value")
		if !hasAttr(n, "value") {
			value = "on"
		}
		return []Entry{{Name: name, Value: value}}
	case "file":
		files := f.files[n]
		if len(files) == 0 {
			return []Entry{{Name: name, File: &File{}}}
		}
		out := make([]Entry, 0, len(files))
		for i := range files {
			file := files[i]
			out = append(out, Entry{Name: name, File: &file})
		}
		return out
	default:
		return []Entry{{Name: name, Value: attr(n, "value")}}
	}
}

func selectEntries(n *html.Node, name string) []Entry {
	options := htmlquery.Find(n, ".//option")
	var out []Entry
	for _, o := range options {
		if hasAttr(o, "selected") && !hasAttr(o, "disabled") {
			out = append(out, Entry{Name: name, Value: optionValue(o)})
		}
	}
	if len(out) == 0 && !hasAttr(n, "multiple") && len(options) > 0 {
		out = append(out, Entry{Name: name, Value: optionValue(options[0])})
	}
	return out
}

func optionValue(o *html.Node) string {
	if hasAttr(o, "value") {
		return attr(o, "value")
	}
	return strings.TrimSpace(htmlquery.InnerText(o))
}

// RequestSubmit fires the submit event. Unless a listener prevents the
// default action, the form is then submitted.
func (f *Form) RequestSubmit() error {
	ev := &Event{Type: EventSubmit, Target: f}
	f.page.events.Dispatch(ev)
	if ev.DefaultPrevented() {
		return nil
	}
	return f.Submit()
}

// Submit submits the form to its target frame without firing the submit
// event. The navigation runs in the background; the frame fires load once
// the response document is in place.
func (f *Form) Submit() error {
	f.page.mu.Lock()
	action := attr(f.node, "action")
	method := strings.ToUpper(attr(f.node, "method"))
	enctype := strings.ToLower(attr(f.node, "enctype"))
	target := attr(f.node, "target")
	frame := f.page.frameByName(target)
	f.page.mu.Unlock()

	if target == "" || frame == nil {
		return fmt.Errorf("%w: %q", ErrNoTarget, target)
	}
	u, err := f.page.Resolve(action)
	if err != nil {
		return fmt.Errorf("resolve action: %w", err)
	}

	data := NewFormData(f)
	var req *http.Request
	switch {
	case method != http.MethodPost:
		q := u.Query()
		for k, vs := range data.URLValues() {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		req, err = http.NewRequestWithContext(f.page.ctx, http.MethodGet, u.String(), nil)
	case enctype == "multipart/form-data":
		body, contentType := data.Multipart()
		req, err = http.NewRequestWithContext(f.page.ctx, http.MethodPost, u.String(), body)
		if err == nil {
			req.Header.Set("Content-Type", contentType)
		} else {
			body.Close()
		}
	default:
		req, err = http.NewRequestWithContext(f.page.ctx, http.MethodPost, u.String(),
			strings.NewReader(data.URLValues().Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return fmt.Errorf("build submission: %w", err)
	}
	req.Header.Set("Origin", f.page.origin)

	f.page.logger.Debug("form submitted",
		log.String("action", u.String()),
		log.String("target", target))
	f.page.navigate(frame, req)
	return nil
}
