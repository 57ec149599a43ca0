package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/bft-labs/formship/pkg/codec"
	"github.com/bft-labs/formship/pkg/log"
	"github.com/bft-labs/formship/pkg/page"
)

var errDisposed = errors.New("formship: upload disposed")

// Streaming implements Transport with a multipart/form-data request.
type Streaming struct {
	client HTTPClient
	logger log.Logger
	settings

	mu        sync.Mutex
	cancel    context.CancelCauseFunc
	stop      context.CancelFunc
	payload   io.Closer
	body      io.Closer
	cancelled bool
	disposed  bool
}

// NewStreaming creates a streaming transport sending through client.
func NewStreaming(client HTTPClient, logger log.Logger, opts ...Option) *Streaming {
	return &Streaming{
		client:   client,
		logger:   log.OrNoop(logger).With(log.String("transport", KindStreaming.String())),
		settings: newSettings(opts),
	}
}

// Kind returns KindStreaming.
func (s *Streaming) Kind() Kind { return KindStreaming }

// Start builds the request, reports BeforeSend and transmits it in the
// background. Nothing is sent when the transport was disposed before Start;
// a Cancel that came first cancels the request right away.
func (s *Streaming) Start(req Request) {
	ctx, cancel := context.WithCancelCause(context.Background())
	stop := context.CancelFunc(func() {})
	if req.Options.Timeout > 0 {
		ctx, stop = context.WithTimeoutCause(ctx, req.Options.Timeout, ErrTimeout)
	}

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		cancel(errDisposed)
		stop()
		s.logger.Debug("start skipped: disposed")
		return
	}
	s.cancel, s.stop = cancel, stop
	if s.cancelled {
		cancel(ErrAborted)
	}
	s.mu.Unlock()

	data := page.NewFormData(req.Form)
	for _, e := range req.Data {
		data.Append(e.Name, e.Value)
	}
	payload, contentType := data.Multipart()

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		_ = payload.Close()
		return
	}
	s.payload = payload
	s.mu.Unlock()

	body := progressReadCloser{
		progressReader: newProgressReader(payload, func(n int64) {
			req.Sink.Progress(Progress{Direction: Upload, Loaded: n, Total: -1})
		}),
		c: payload,
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, body)
	if err != nil {
		req.Sink.Complete(Result{Kind: StatusError, Detail: fmt.Sprintf("build request: %v", err)})
		return
	}
	httpReq.Header.Set("Content-Type", contentType)
	s.applyHeaders(httpReq, req)
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", req.Options.ResponseType.Accept())
	}
	if req.Options.IncludeCredentials && s.jar != nil {
		for _, c := range s.jar.Cookies(httpReq.URL) {
			httpReq.AddCookie(c)
		}
	}

	if ctx.Err() != nil {
		req.Sink.Complete(failure(ctx, ctx.Err()))
		return
	}
	req.Sink.BeforeSend()
	go s.run(ctx, httpReq, req)
}

func (s *Streaming) applyHeaders(httpReq *http.Request, req Request) {
	for _, h := range req.Headers {
		if err := checkHeader(h.Name, h.Value); err != nil {
			s.logger.Warn("header rejected", log.String("header", h.Name), log.Err(err))
			continue
		}
		httpReq.Header.Set(h.Name, h.Value)
	}
}

func (s *Streaming) run(ctx context.Context, httpReq *http.Request, req Request) {
	resp, err := s.client.Do(httpReq)
	if err != nil {
		req.Sink.Complete(failure(ctx, err))
		return
	}
	defer resp.Body.Close()

	s.mu.Lock()
	s.body = resp.Body
	s.mu.Unlock()

	if req.Options.IncludeCredentials && s.jar != nil {
		if cookies := resp.Cookies(); len(cookies) > 0 {
			s.jar.SetCookies(httpReq.URL, cookies)
		}
	}

	total := resp.ContentLength
	raw, err := io.ReadAll(newProgressReader(resp.Body, func(n int64) {
		req.Sink.Progress(Progress{Direction: Download, Loaded: n, Total: total})
	}))
	if err != nil {
		req.Sink.Complete(failure(ctx, err))
		return
	}

	s.logger.Debug("response received",
		log.String("url", req.URL),
		log.Int("status", resp.StatusCode),
		log.Int("bytes", len(raw)))
	req.Sink.Complete(s.result(resp, string(raw), req.Options.ResponseType))
}

func (s *Streaming) result(resp *http.Response, raw string, t codec.ResponseType) Result {
	if resp.StatusCode != http.StatusOK {
		return Result{
			Kind:       StatusError,
			StatusCode: resp.StatusCode,
			Detail:     statusText(resp),
			RawBody:    raw,
			Raw:        resp,
		}
	}
	if t == codec.XML && isXMLMediaType(resp.Header.Get("Content-Type")) {
		if doc, err := codec.DecodeXML(strings.NewReader(raw)); err == nil {
			return Result{Kind: StatusSuccess, StatusCode: resp.StatusCode, Body: doc, RawBody: raw, Raw: resp}
		}
	}
	return decodeBody(s.parser, t, raw, resp.StatusCode, resp)
}

// failure classifies a failed round-trip by the cause of its context.
func failure(ctx context.Context, err error) Result {
	cause := context.Cause(ctx)
	switch {
	case errors.Is(cause, ErrAborted), errors.Is(cause, errDisposed):
		return Result{Kind: StatusAbort, Detail: "abort"}
	case errors.Is(cause, ErrTimeout):
		return Result{Kind: StatusTimeout, Detail: "timeout"}
	default:
		return Result{Kind: StatusError, Detail: err.Error()}
	}
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// Cancel aborts the request in flight, or the request Start is about to make.
func (s *Streaming) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel(ErrAborted)
	}
}

// Dispose cancels whatever is left of the request and closes its bodies.
func (s *Streaming) Dispose() {
	s.mu.Lock()
	s.disposed = true
	cancel, stop, payload, body := s.cancel, s.stop, s.payload, s.body
	s.cancel, s.stop, s.payload, s.body = nil, nil, nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel(errDisposed)
	}
	if stop != nil {
		stop()
	}
	if payload != nil {
		_ = payload.Close()
	}
	if body != nil {
		_ = body.Close()
	}
}
