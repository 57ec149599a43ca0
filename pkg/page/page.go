package page

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/bft-labs/formship/pkg/log"
)

// Page errors.
var (
	// ErrNotFound is returned when a form or control does not exist.
	ErrNotFound = errors.New("formship: element not found")

	// ErrCrossOrigin is returned when a frame document from another origin is read.
	ErrCrossOrigin = errors.New("formship: blocked access to a cross-origin frame")

	// ErrNoTarget is returned when a form submission has no frame to load into.
	ErrNoTarget = errors.New("formship: form has no frame target")
)

const blankPage = "<!DOCTYPE html><html><head></head><body></body></html>"

// HTTPClient executes navigations. *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures a Page.
type Option func(*Page)

// WithHTTPClient sets the client used for form navigations.
func WithHTTPClient(c HTTPClient) Option {
	return func(p *Page) { p.client = c }
}

// WithLogger sets the page logger.
func WithLogger(l log.Logger) Option {
	return func(p *Page) { p.logger = log.OrNoop(l) }
}

// WithScriptBudget bounds how long one frame script may run.
func WithScriptBudget(d time.Duration) Option {
	return func(p *Page) { p.scriptBudget = d }
}

// WithMaxDocumentBytes bounds how much of a navigation response is kept.
func WithMaxDocumentBytes(n int64) Option {
	return func(p *Page) { p.maxDocument = n }
}

// Page is a browsing context with one document.
type Page struct {
	// mu guards the node tree, frame documents and attached files.
	mu     sync.Mutex
	url    *url.URL
	origin string
	root   *html.Node
	body   *html.Node
	forms  map[*html.Node]*Form
	frames map[*html.Node]*Frame
	window *Window
	events *Registry

	client       HTTPClient
	logger       log.Logger
	scriptBudget time.Duration
	maxDocument  int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Window is the page's global object, the target of message events.
type Window struct {
	page *Page
}

// Page returns the page the window belongs to.
func (w *Window) Page() *Page { return w.page }

// New creates a page at rawURL with an empty document.
func New(rawURL string, opts ...Option) (*Page, error) {
	return Load(rawURL, strings.NewReader(blankPage), opts...)
}

// Load creates a page at rawURL whose document is parsed from r.
func Load(rawURL string, r io.Reader, opts ...Option) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("page url %q must be absolute", rawURL)
	}
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	body := htmlquery.FindOne(root, "//body")
	if body == nil {
		return nil, fmt.Errorf("document has no body")
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Page{
		url:          u,
		origin:       OriginOf(u),
		root:         root,
		body:         body,
		forms:        make(map[*html.Node]*Form),
		frames:       make(map[*html.Node]*Frame),
		events:       NewRegistry(),
		client:       http.DefaultClient,
		logger:       log.NewNoopLogger(),
		scriptBudget: time.Second,
		maxDocument:  16 << 20, // 16MB
		ctx:          ctx,
		cancel:       cancel,
	}
	p.window = &Window{page: p}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// URL returns the page location.
func (p *Page) URL() *url.URL {
	u := *p.url
	return &u
}

// Origin returns the serialized origin of the page.
func (p *Page) Origin() string { return p.origin }

// Window returns the page's global object.
func (p *Page) Window() *Window { return p.window }

// Events returns the listener registry.
func (p *Page) Events() *Registry { return p.events }

// Resolve resolves ref against the page URL.
func (p *Page) Resolve(ref string) (*url.URL, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, err
	}
	return p.url.ResolveReference(u), nil
}

// Close cancels in-flight navigations and waits for them to finish.
func (p *Page) Close() {
	p.cancel()
	p.wg.Wait()
}

// HTML renders the current document.
func (p *Page) HTML() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var b bytes.Buffer
	_ = html.Render(&b, p.root)
	return b.String()
}

// PostMessage delivers data to the page's message listeners as if a document
// of sourceOrigin had called postMessage(data, targetOrigin). Messages whose
// targetOrigin does not match the page are dropped, as browsers do.
func (p *Page) PostMessage(data any, targetOrigin, sourceOrigin string, source *Frame) bool {
	if targetOrigin != "*" && NormalizeOrigin(targetOrigin) != p.origin {
		p.logger.Debug("message dropped: target origin mismatch",
			log.String("target_origin", targetOrigin),
			log.String("page_origin", p.origin))
		return false
	}
	p.events.Dispatch(&Event{
		Type:   EventMessage,
		Target: p.window,
		Data:   data,
		Origin: sourceOrigin,
		Source: source,
	})
	return true
}

// OriginOf serializes the origin of u. URLs without scheme or host have the
// opaque origin "null".
func OriginOf(u *url.URL) string {
	if u == nil || u.Scheme == "" || u.Host == "" {
		return "null"
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host += ":" + port
	}
	return scheme + "://" + host
}

// NormalizeOrigin parses s as a URL and returns its origin, or s unchanged
// for "*" and "null".
func NormalizeOrigin(s string) string {
	if s == "*" || s == "null" {
		return s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "null"
	}
	return OriginOf(u)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}

func element(tag string, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

// walk visits n's descendants in document order.
func walk(n *html.Node, visit func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visit(c)
		walk(c, visit)
	}
}
