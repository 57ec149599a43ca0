package uploadform

import (
	"net/http"

	"github.com/bft-labs/formship/pkg/codec"
	"github.com/bft-labs/formship/pkg/lifecycle"
	"github.com/bft-labs/formship/pkg/log"
	"github.com/bft-labs/formship/pkg/transport"
)

// Option configures the collaborators of an Uploader.
type Option func(*options)

// options holds the optional configuration for an Uploader instance.
type options struct {
	httpClient transport.HTTPClient
	logger     log.Logger
	parser     codec.Parser
	jar        http.CookieJar
	observer   lifecycle.Observer

	newTransport func(kind transport.Kind) transport.Transport
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		httpClient: &http.Client{},
		logger:     log.NewNoopLogger(),
		parser:     codec.StandardParser{},
	}
}

// WithHTTPClient sets the client streaming uploads are sent with. A nil
// client disables the streaming transport, so every upload uses a frame.
func WithHTTPClient(client transport.HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = log.OrNoop(logger)
	}
}

// WithParser replaces the JSON and XML parser used for response bodies.
func WithParser(p codec.Parser) Option {
	return func(o *options) {
		if p != nil {
			o.parser = p
		}
	}
}

// WithCookieJar sets the jar credentialed uploads read and store cookies in.
func WithCookieJar(jar http.CookieJar) Option {
	return func(o *options) {
		o.jar = jar
	}
}

// WithStateObserver registers an observer of Idle/Busy/Destroyed changes.
// It is called while the uploader is locked and must not call back into it.
func WithStateObserver(observer lifecycle.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}
