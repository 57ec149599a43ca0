package transport

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/formship/pkg/log"
	"github.com/bft-labs/formship/pkg/page"
)

// FramePrefix starts the name of every upload frame.
const FramePrefix = "upload-frame-"

// submissionAttrs are set on the form for the duration of a frame upload.
var submissionAttrs = []string{"action", "method", "enctype", "encoding", "target"}

type listener struct {
	target any
	event  string
	token  page.Token
}

// Frame implements Transport by submitting the form into a hidden frame.
type Frame struct {
	logger log.Logger
	settings

	mu        sync.Mutex
	form      *page.Form
	frame     *page.Frame
	name      string
	listeners []listener
	timer     *time.Timer
	starting  bool
	disposed  bool
}

// NewFrame creates a frame transport.
func NewFrame(logger log.Logger, opts ...Option) *Frame {
	return &Frame{
		logger:   log.OrNoop(logger).With(log.String("transport", KindFrame.String())),
		settings: newSettings(opts),
	}
}

// Kind returns KindFrame.
func (f *Frame) Kind() Kind { return KindFrame }

// Name returns the name of the frame of the current submission.
func (f *Frame) Name() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.name
}

// Start prepares the form and its frame, reports BeforeSend and submits.
// Nothing is touched when the transport was disposed before Start.
func (f *Frame) Start(req Request) {
	form := req.Form
	if form == nil {
		req.Sink.Complete(Result{Kind: StatusError, Detail: "frame upload requires a form"})
		return
	}
	p := form.Page()
	name := FramePrefix + uuid.NewString()

	f.mu.Lock()
	if f.disposed {
		f.mu.Unlock()
		f.logger.Debug("start skipped: disposed")
		return
	}
	f.starting = true
	f.form, f.name = form, name
	f.mu.Unlock()

	frame := p.CreateFrame(name)
	f.mu.Lock()
	f.frame = frame
	f.mu.Unlock()

	form.SetAttr("action", req.URL)
	form.SetAttr("method", "POST")
	form.SetAttr("enctype", "multipart/form-data")
	form.SetAttr("encoding", "multipart/form-data")
	form.SetAttr("target", name)
	for _, h := range req.Headers {
		form.AppendHidden(name, h.Name, h.Value)
	}
	for _, d := range req.Data {
		form.AppendHidden(name, d.Name, d.Value)
	}

	if req.Options.CrossOrigin {
		f.listen(p, p.Window(), page.EventMessage, f.onMessage(req, frame, f.allowedOrigin(p, req)))
	} else {
		f.listen(p, frame, page.EventLoad, f.onLoad(req, frame))
	}

	// A Dispose that arrived during setup left the teardown to us.
	f.mu.Lock()
	f.starting = false
	disposed := f.disposed
	f.mu.Unlock()
	if disposed {
		f.release()
		return
	}

	req.Sink.BeforeSend()

	f.mu.Lock()
	disposed = f.disposed
	f.mu.Unlock()
	if disposed {
		return
	}
	if err := form.Submit(); err != nil {
		req.Sink.Complete(Result{Kind: StatusError, Detail: err.Error(), Raw: frame})
		return
	}
	f.logger.Debug("form submitted to frame", log.String("frame", name), log.String("url", req.URL))

	if req.Options.Timeout > 0 {
		f.mu.Lock()
		if !f.disposed {
			f.timer = time.AfterFunc(req.Options.Timeout, func() {
				req.Sink.Complete(Result{Kind: StatusTimeout, Detail: "timeout", Raw: frame})
			})
		}
		f.mu.Unlock()
	}
}

func (f *Frame) listen(p *page.Page, target any, event string, h page.Handler) {
	tok := p.Events().Register(target, event, h)
	f.mu.Lock()
	f.listeners = append(f.listeners, listener{target: target, event: event, token: tok})
	f.mu.Unlock()
}

func (f *Frame) allowedOrigin(p *page.Page, req Request) string {
	switch req.Options.AllowedOrigin {
	case "*":
		return "*"
	case "":
		u, err := p.Resolve(req.URL)
		if err != nil {
			return "null"
		}
		return page.OriginOf(u)
	default:
		return page.NormalizeOrigin(req.Options.AllowedOrigin)
	}
}

func (f *Frame) onLoad(req Request, frame *page.Frame) page.Handler {
	return func(*page.Event) {
		doc, err := frame.Document()
		if err != nil {
			req.Sink.Complete(Result{Kind: StatusError, Detail: err.Error(), Raw: frame})
			return
		}
		req.Sink.Complete(decodeBody(f.parser, req.Options.ResponseType, doc.TextContent(), doc.StatusCode, frame))
	}
}

func (f *Frame) onMessage(req Request, frame *page.Frame, allowed string) page.Handler {
	return func(ev *page.Event) {
		if ev.Source != nil && ev.Source != frame {
			return
		}
		if allowed != "*" && ev.Origin != allowed {
			f.logger.Warn("message rejected: origin not allowed",
				log.String("origin", ev.Origin),
				log.String("allowed", allowed))
			return
		}
		req.Sink.Complete(decodeBody(f.parser, req.Options.ResponseType, ev.Data, 0, frame))
	}
}

// Cancel does nothing on the network: a form submission cannot be recalled.
// Dispose detaches the frame, so a late response is never read.
func (f *Frame) Cancel() {
	f.logger.Debug("frame upload cancelled locally", log.String("frame", f.Name()))
}

// Dispose unregisters the completion listeners, stops the timer, removes the
// hidden fields and the frame, and clears the form's submission attributes.
// While Start is still preparing the form, Start does this once it is done.
func (f *Frame) Dispose() {
	f.mu.Lock()
	if f.disposed {
		f.mu.Unlock()
		return
	}
	f.disposed = true
	starting := f.starting
	f.mu.Unlock()

	if !starting {
		f.release()
	}
}

func (f *Frame) release() {
	f.mu.Lock()
	form, frame, name, listeners, timer := f.form, f.frame, f.name, f.listeners, f.timer
	f.form, f.frame, f.listeners, f.timer = nil, nil, nil, nil
	f.mu.Unlock()

	if form == nil {
		return
	}
	p := form.Page()
	for _, l := range listeners {
		p.Events().Unregister(l.target, l.event, l.token)
	}
	if timer != nil {
		timer.Stop()
	}
	removed := form.RemoveTagged(name)
	if frame != nil {
		p.RemoveFrame(frame)
	}
	form.RemoveAttr(submissionAttrs...)
	f.logger.Debug("frame upload disposed", log.String("frame", name), log.Int("fields_removed", removed))
}
