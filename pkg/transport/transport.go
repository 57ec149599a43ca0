package transport

import (
	"errors"
	"net/http"
	"time"

	"github.com/bft-labs/formship/pkg/codec"
	"github.com/bft-labs/formship/pkg/fields"
	"github.com/bft-labs/formship/pkg/page"
)

// Transport errors. Result.Err maps terminal outcomes onto them.
var (
	// ErrNetwork is a transport-level failure, including unreadable frame documents.
	ErrNetwork = errors.New("formship: upload failed")

	// ErrAborted is the cause of a cancelled upload.
	ErrAborted = errors.New("formship: upload aborted")

	// ErrTimeout is the cause of an upload that exceeded its timeout.
	ErrTimeout = errors.New("formship: upload timed out")
)

// Kind identifies a transport variant.
type Kind int

const (
	KindStreaming Kind = iota
	KindFrame
)

func (k Kind) String() string {
	switch k {
	case KindStreaming:
		return "streaming"
	case KindFrame:
		return "frame"
	default:
		return "unknown"
	}
}

// Select picks the transport for one submission. The frame transport is used
// when streaming is unavailable or explicitly forced.
func Select(capable, forceFrame bool) Kind {
	if !capable || forceFrame {
		return KindFrame
	}
	return KindStreaming
}

// Options is the per-submission snapshot of upload settings.
type Options struct {
	Timeout            time.Duration
	ResponseType       codec.ResponseType
	IncludeCredentials bool
	CrossOrigin        bool

	// AllowedOrigin filters cross-origin completion messages. Empty means the
	// origin of the upload URL; "*" accepts any origin.
	AllowedOrigin string
}

// Request describes one submission.
type Request struct {
	URL     string
	Form    *page.Form
	Headers []fields.Entry
	Data    []fields.Entry
	Options Options
	Sink    Sink
}

// Sink receives the lifecycle of a submission. Progress and Complete may be
// called from any goroutine; Complete may be called more than once when
// outcomes race, and only the first call counts.
type Sink interface {
	BeforeSend()
	Progress(p Progress)
	Complete(r Result)
}

// Transport runs one submission at a time.
type Transport interface {
	Kind() Kind

	// Start begins the submission. BeforeSend is called before any byte is
	// transmitted.
	Start(req Request)

	// Cancel stops the network side of the submission, where possible.
	Cancel()

	// Dispose releases every resource the submission holds.
	Dispose()
}

// Option configures a transport.
type Option func(*settings)

type settings struct {
	parser codec.Parser
	jar    http.CookieJar
}

// WithParser sets the parser used for JSON and XML bodies.
func WithParser(p codec.Parser) Option {
	return func(s *settings) {
		if p != nil {
			s.parser = p
		}
	}
}

// WithCookieJar sets the jar used by credentialed streaming uploads.
func WithCookieJar(jar http.CookieJar) Option {
	return func(s *settings) { s.jar = jar }
}

func newSettings(opts []Option) settings {
	s := settings{parser: codec.StandardParser{}}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
