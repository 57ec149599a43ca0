package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"slices"

	"github.com/go-git/go-billy/v5/osfs"

	"github.com/bft-labs/formship/internal/cliconfig"
	"github.com/bft-labs/formship/pkg/codec"
	"github.com/bft-labs/formship/pkg/events"
	"github.com/bft-labs/formship/pkg/log"
	"github.com/bft-labs/formship/pkg/page"
	"github.com/bft-labs/formship/pkg/transport"
	"github.com/bft-labs/formship/pkg/uploadform"
)

// errUpload marks uploads that completed with an error outcome.
var errUpload = errors.New("upload failed")

// uploadRunner performs one upload per call.
type uploadRunner struct {
	logger log.Logger
	out    io.Writer

	// client is used by the streaming transport. Nil forces frame uploads.
	client transport.HTTPClient
}

// run uploads files with cfg and writes the decoded response to r.out.
// Cancelling ctx aborts the upload.
func (r *uploadRunner) run(ctx context.Context, cfg cliconfig.Config, files []string) error {
	uploadCfg, err := cfg.UploadConfig()
	if err != nil {
		return err
	}

	var jar http.CookieJar
	if cfg.Credentials {
		if jar, err = cookiejar.New(nil); err != nil {
			return fmt.Errorf("create cookie jar: %w", err)
		}
	}

	p, form, err := r.buildForm(cfg, jar, files)
	if err != nil {
		return err
	}
	defer p.Close()

	opts := []uploadform.Option{
		uploadform.WithHTTPClient(r.client),
		uploadform.WithLogger(r.logger),
	}
	if jar != nil {
		opts = append(opts, uploadform.WithCookieJar(jar))
	}
	u, err := uploadform.New(form, cfg.UploadURL, uploadCfg, opts...)
	if err != nil {
		return err
	}
	defer u.Destruct()

	done := make(chan error, 1)
	u.On(events.Progress, events.NewCallback(func(e events.Event) {
		if pr, ok := e.Raw.(transport.Progress); ok {
			r.logger.Debug("progress",
				log.String("direction", e.Direction),
				log.Int64("loaded", pr.Loaded),
				log.Int64("total", pr.Total))
		}
	}))
	u.On(events.Load, events.NewCallback(func(e events.Event) {
		done <- r.print(e.Body)
	}))
	u.On(events.Error, events.NewCallback(func(e events.Event) {
		if e.RawBody != "" {
			r.logger.Debug("error response", log.String("body", e.RawBody))
		}
		done <- fmt.Errorf("%w: %s: %s", errUpload, e.Kind, e.Detail)
	}))

	u.Send()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		u.Abort()
		return <-done
	}
}

// buildForm loads the page holding the form, or creates one, and fills it.
func (r *uploadRunner) buildForm(cfg cliconfig.Config, jar http.CookieJar, files []string) (*page.Page, *page.Form, error) {
	pageOpts := []page.Option{
		page.WithLogger(r.logger),
		page.WithHTTPClient(&http.Client{Jar: jar}),
	}

	var (
		p   *page.Page
		err error
	)
	if cfg.PageFile != "" {
		f, openErr := os.Open(cfg.PageFile)
		if openErr != nil {
			return nil, nil, fmt.Errorf("open page: %w", openErr)
		}
		p, err = page.Load(cfg.PageURL, f, pageOpts...)
		f.Close()
	} else {
		p, err = page.New(cfg.PageURL, pageOpts...)
		if err == nil {
			p.CreateForm(cfg.FormID)
		}
	}
	if err != nil {
		return nil, nil, err
	}

	form, err := p.Form(cfg.FormID)
	if err != nil {
		p.Close()
		return nil, nil, err
	}
	for _, name := range slices.Sorted(maps.Keys(cfg.Fields)) {
		form.AddInput("text", name, cfg.Fields[name])
	}
	if len(files) > 0 {
		if err := attachFiles(form, cfg.FileField, files); err != nil {
			p.Close()
			return nil, nil, err
		}
	}
	return p, form, nil
}

// attachFiles selects files in the file input named field, adding the input
// when the form has none.
func attachFiles(form *page.Form, field string, files []string) error {
	selected := make([]page.File, 0, len(files))
	for _, name := range files {
		abs, err := filepath.Abs(name)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", name, err)
		}
		f, err := page.FileFromFS(osfs.New(filepath.Dir(abs)), filepath.Base(abs))
		if err != nil {
			return err
		}
		selected = append(selected, f)
	}

	err := form.SetFiles(field, selected...)
	if errors.Is(err, page.ErrNotFound) {
		form.AddInput("file", field, "")
		err = form.SetFiles(field, selected...)
	}
	return err
}

func (r *uploadRunner) print(body any) error {
	switch b := body.(type) {
	case nil:
		return nil
	case string:
		_, err := fmt.Fprintln(r.out, b)
		return err
	case *codec.Document:
		if b.Root == nil {
			return nil
		}
		_, err := fmt.Fprintln(r.out, b.Root.TextContent())
		return err
	default:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	}
}
