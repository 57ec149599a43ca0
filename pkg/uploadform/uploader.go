package uploadform

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bft-labs/formship/pkg/events"
	"github.com/bft-labs/formship/pkg/fields"
	"github.com/bft-labs/formship/pkg/lifecycle"
	"github.com/bft-labs/formship/pkg/log"
	"github.com/bft-labs/formship/pkg/page"
	"github.com/bft-labs/formship/pkg/transport"
)

// Construction errors.
var (
	ErrNoForm = errors.New("formship: uploader requires a form")
	ErrNoURL  = errors.New("formship: uploader requires an upload url")
)

// RequestedWithHeader identifies the transport to the server.
const RequestedWithHeader = "X-Requested-With"

// Uploader submits one form, one upload at a time.
type Uploader struct {
	form    *page.Form
	url     string
	opts    options
	logger  log.Logger
	machine *lifecycle.Machine
	bus     *events.Bus
	headers *fields.Registry
	data    *fields.Registry

	mu          sync.Mutex
	config      Config
	session     *session
	status      transport.StatusKind
	response    any
	submitToken page.Token
	submitBound bool
}

// New creates an uploader in the Idle state that posts form to url, resolved
// against the page the form belongs to. It
// intercepts the form's submit event, so submitting the form starts an
// upload; see UnbindFormSubmit.
func New(form *page.Form, url string, cfg Config, opts ...Option) (*Uploader, error) {
	if form == nil {
		return nil, ErrNoForm
	}
	if url == "" {
		return nil, ErrNoURL
	}
	target, err := form.Page().Resolve(url)
	if err != nil {
		return nil, fmt.Errorf("resolve upload url: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With(log.String("form", form.ID()))
	if o.newTransport == nil {
		o.newTransport = func(kind transport.Kind) transport.Transport {
			if kind == transport.KindStreaming {
				return transport.NewStreaming(o.httpClient, logger,
					transport.WithParser(o.parser), transport.WithCookieJar(o.jar))
			}
			return transport.NewFrame(logger, transport.WithParser(o.parser))
		}
	}

	u := &Uploader{
		form:    form,
		url:     target.String(),
		opts:    o,
		logger:  logger,
		machine: lifecycle.NewMachine(logger, o.observer),
		bus:     events.NewBus(logger),
		headers: fields.NewHeaders(),
		data:    fields.New(),
		config:  cfg.clone(),
	}

	requestedWith := "IFrame"
	if u.streamingCapable() {
		requestedWith = "XMLHttpRequest"
	}
	if err := u.headers.Set(RequestedWithHeader, requestedWith); err != nil {
		logger.Warn("header ignored", log.Err(err))
	}

	u.submitToken = form.Page().Events().Register(form, page.EventSubmit, u.onSubmit)
	u.submitBound = true
	return u, nil
}

func (u *Uploader) streamingCapable() bool {
	return u.opts.httpClient != nil
}

func (u *Uploader) onSubmit(ev *page.Event) {
	ev.PreventDefault()
	u.Send()
}

// Send starts an upload with the current configuration after applying
// overrides to it. It is ignored while an upload is running.
func (u *Uploader) Send(overrides ...ConfigOverride) *Uploader {
	u.mu.Lock()
	switch u.machine.State() {
	case lifecycle.StateDestroyed:
		u.mu.Unlock()
		u.logger.Warn("send ignored: uploader destroyed")
		return u
	case lifecycle.StateBusy:
		u.mu.Unlock()
		u.logger.Warn("send ignored: upload already in progress")
		return u
	}

	for _, override := range overrides {
		override(&u.config)
	}
	cfg := u.config.clone()
	if err := u.headers.Merge(cfg.Headers); err != nil {
		u.logger.Warn("config headers rejected", log.Err(err))
	}
	if err := u.data.Merge(cfg.Data); err != nil {
		u.logger.Warn("config data rejected", log.Err(err))
	}
	u.status, u.response = "", nil

	kind := transport.Select(u.streamingCapable(), cfg.ForceFrameTransport)
	s := &session{u: u, transport: u.opts.newTransport(kind)}
	if err := u.machine.TransitionTo(lifecycle.StateBusy, "send"); err != nil {
		u.mu.Unlock()
		u.logger.Warn("send ignored", log.Err(err))
		return u
	}
	u.session = s
	req := transport.Request{
		URL:     u.url,
		Form:    u.form,
		Headers: u.headers.Entries(),
		Data:    u.data.Entries(),
		Options: cfg.transportOptions(),
		Sink:    s,
	}
	u.mu.Unlock()

	u.logger.Info("upload started",
		log.String("url", u.url),
		log.String("transport", kind.String()),
		log.Duration("timeout", cfg.Timeout))
	s.transport.Start(req)
	return u
}

// Abort cancels the running upload and reports an abort error. For frame
// uploads the server is not informed; its response is discarded.
func (u *Uploader) Abort() *Uploader {
	u.mu.Lock()
	s := u.session
	u.mu.Unlock()
	if s == nil {
		u.logger.Warn("abort ignored: no upload in progress")
		return u
	}
	s.transport.Cancel()
	s.Complete(transport.Result{Kind: transport.StatusAbort, Detail: "abort"})
	return u
}

// finish tears s down, returns to Idle and dispatches r. Only the first
// outcome of a session gets here.
func (u *Uploader) finish(s *session, r transport.Result) {
	s.transport.Dispose()

	u.mu.Lock()
	if u.session == s {
		u.session = nil
	}
	u.status = r.Kind
	u.response = nil
	if r.Kind == transport.StatusSuccess {
		u.response = r.Body
	}
	if err := u.machine.TransitionTo(lifecycle.StateIdle, string(r.Kind)); err != nil {
		u.logger.Error("session finished outside busy state", log.Err(err))
	}
	u.mu.Unlock()

	if r.Kind == transport.StatusSuccess {
		u.logger.Info("upload finished", log.String("status", string(r.Kind)), log.Int("http_status", r.StatusCode))
		u.bus.Emit(events.Event{Category: events.Load, Status: string(r.Kind), Body: r.Body, Raw: r.Raw})
		return
	}
	u.logger.Warn("upload failed", log.String("kind", string(r.Kind)), log.String("detail", r.Detail))
	u.bus.Emit(events.Event{
		Category: events.Error,
		Kind:     string(r.Kind),
		Detail:   r.Detail,
		RawBody:  r.RawBody,
		Raw:      r.Raw,
	})
}

// SetData sets an auxiliary data entry sent with every upload.
func (u *Uploader) SetData(name string, value any) *Uploader {
	if u.destroyed("set data") {
		return u
	}
	if err := u.data.Set(name, value); err != nil {
		u.logger.Warn("data entry ignored", log.Err(err))
	}
	return u
}

// SetHeader sets a request header sent with every upload.
func (u *Uploader) SetHeader(name string, value any) {
	if u.destroyed("set header") {
		return
	}
	if err := u.headers.Set(name, value); err != nil {
		u.logger.Warn("header ignored", log.Err(err))
	}
}

// On appends cb to the listeners of c.
func (u *Uploader) On(c events.Category, cb *events.Callback) *Uploader {
	if u.destroyed("on") {
		return u
	}
	if err := u.bus.On(c, cb); err != nil {
		u.logger.Warn("listener ignored", log.Err(err))
	}
	return u
}

// Off removes the given listeners of c, or every listener of c when none
// is given.
func (u *Uploader) Off(c events.Category, cbs ...*events.Callback) *Uploader {
	if err := u.bus.Off(c, cbs...); err != nil {
		u.logger.Warn("off ignored", log.Err(err))
	}
	return u
}

// OffAll removes every listener of every category.
func (u *Uploader) OffAll() *Uploader {
	u.bus.OffAll()
	return u
}

// SetDefault sets the handler invoked before the listeners of c.
func (u *Uploader) SetDefault(c events.Category, fn func(events.Event)) *Uploader {
	if u.destroyed("set default") {
		return u
	}
	if err := u.bus.SetDefault(c, fn); err != nil {
		u.logger.Warn("default handler ignored", log.Err(err))
	}
	return u
}

// UnbindFormSubmit stops submitting the form from starting an upload.
func (u *Uploader) UnbindFormSubmit() *Uploader {
	u.mu.Lock()
	bound, tok := u.submitBound, u.submitToken
	u.submitBound = false
	u.mu.Unlock()
	if bound {
		u.form.Page().Events().Unregister(u.form, page.EventSubmit, tok)
	}
	return u
}

// Destruct releases the uploader. It is only allowed while Idle; afterwards
// every mutating call is ignored.
func (u *Uploader) Destruct() *Uploader {
	u.mu.Lock()
	if err := u.machine.TransitionTo(lifecycle.StateDestroyed, "destruct"); err != nil {
		state := u.machine.State()
		u.mu.Unlock()
		u.logger.Warn("destruct ignored", log.String("state", state.String()))
		return u
	}
	u.mu.Unlock()

	u.UnbindFormSubmit()
	u.bus.Reset()
	u.logger.Debug("uploader destroyed")
	return u
}

func (u *Uploader) destroyed(op string) bool {
	if u.machine.Is(lifecycle.StateDestroyed) {
		u.logger.Warn(op+" ignored: uploader destroyed")
		return true
	}
	return false
}

// State returns the session state.
func (u *Uploader) State() lifecycle.State {
	return u.machine.State()
}

// Status returns the kind of the last finished upload, or "" before the
// first one finishes.
func (u *Uploader) Status() transport.StatusKind {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.status
}

// Response returns the decoded body of the last successful upload.
func (u *Uploader) Response() any {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.response
}

// Config returns a copy of the live configuration.
func (u *Uploader) Config() Config {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.config.clone()
}

// UpdateConfig applies overrides to the live configuration. A running
// upload keeps the settings it started with.
func (u *Uploader) UpdateConfig(overrides ...ConfigOverride) *Uploader {
	if u.destroyed("update config") {
		return u
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, override := range overrides {
		override(&u.config)
	}
	return u
}

// Headers returns the header registry contents.
func (u *Uploader) Headers() map[string]string {
	return u.headers.Map()
}

// Data returns the data registry contents.
func (u *Uploader) Data() map[string]string {
	return u.data.Map()
}
