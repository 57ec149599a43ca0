package page

import (
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/bft-labs/formship/pkg/log"
)

// navigate loads the response to req into frame in the background.
func (p *Page) navigate(frame *Frame, req *http.Request) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		doc := p.fetch(req)
		if !frame.commit(doc) {
			p.logger.Debug("navigation discarded: frame detached", log.String("frame", frame.name))
			return
		}
		if doc.Root != nil {
			p.runScripts(frame, doc)
		}
		p.events.Dispatch(&Event{Type: EventLoad, Target: frame})
	}()
}

// fetch turns the outcome of req into a document. Failed navigations yield an
// error document with an opaque origin, which no page can read.
func (p *Page) fetch(req *http.Request) *Document {
	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("navigation failed", log.String("url", req.URL.String()), log.Err(err))
		return &Document{URL: req.URL, Origin: "null", ContentType: "text/html"}
	}
	defer resp.Body.Close()

	u := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		u = resp.Request.URL
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, p.maxDocument))
	if err != nil {
		p.logger.Debug("navigation body truncated", log.String("url", u.String()), log.Err(err))
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch {
	case isAttachment(resp.Header.Get("Content-Disposition")):
		return newTextDocument(u, resp.StatusCode, contentType, "")
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		doc, err := newHTMLDocument(u, resp.StatusCode, contentType, string(raw))
		if err != nil {
			return newTextDocument(u, resp.StatusCode, contentType, string(raw))
		}
		return doc
	case rendersInline(mediaType):
		return newTextDocument(u, resp.StatusCode, contentType, string(raw))
	default:
		// Browsers hand unknown types to the download manager; the frame
		// is left with an empty document.
		p.logger.Debug("navigation response not rendered inline",
			log.String("url", u.String()),
			log.String("content_type", contentType))
		return newTextDocument(u, resp.StatusCode, contentType, "")
	}
}

func rendersInline(mediaType string) bool {
	switch {
	case mediaType == "":
		return true
	case strings.HasPrefix(mediaType, "text/"):
		return true
	case mediaType == "application/json", mediaType == "application/xml":
		return true
	case strings.HasSuffix(mediaType, "+json"), strings.HasSuffix(mediaType, "+xml"):
		return true
	}
	return false
}

func isAttachment(disposition string) bool {
	d, _, err := mime.ParseMediaType(disposition)
	return err == nil && d == "attachment"
}
