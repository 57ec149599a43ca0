// Package formship uploads HTML forms, files included, from Go.
//
// Example usage:
//
//	p, err := formship.LoadPage("https://app.example.com/", strings.NewReader(markup))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	form, err := p.Form("upload")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = form.SetFiles("photo", page.FileFromBytes("a.png", data))
//	u, err := formship.New(form, "/upload", formship.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	u.On(events.Load, events.NewCallback(func(e events.Event) { fmt.Println(e.Body) }))
//	u.Send()
package formship

import (
	"io"

	"github.com/bft-labs/formship/pkg/page"
	"github.com/bft-labs/formship/pkg/uploadform"
)

// Config holds the upload settings.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = uploadform.Config

// Uploader submits one form, one upload at a time.
type Uploader = uploadform.Uploader

// Option configures the collaborators of an Uploader.
type Option = uploadform.Option

// Page is the browsing context forms live in.
type Page = page.Page

// Form is a form of a Page.
type Form = page.Form

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return uploadform.DefaultConfig()
}

// New creates an uploader for form that posts to url.
func New(form *Form, url string, cfg Config, opts ...Option) (*Uploader, error) {
	return uploadform.New(form, url, cfg, opts...)
}

// LoadPage parses the document read from markup as the page at pageURL.
func LoadPage(pageURL string, markup io.Reader, opts ...page.Option) (*Page, error) {
	return page.Load(pageURL, markup, opts...)
}
