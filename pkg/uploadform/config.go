package uploadform

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/bft-labs/formship/pkg/codec"
	"github.com/bft-labs/formship/pkg/transport"
)

// Config holds the upload settings. A snapshot is taken at every Send, so
// changes made while an upload is running apply to the next one.
type Config struct {
	// Timeout bounds an upload. Zero means no timeout.
	Timeout time.Duration

	// ForceFrameTransport uses the frame transport even when streaming is
	// available.
	ForceFrameTransport bool

	// Headers are merged into the header registry at every Send.
	Headers map[string]string

	// Data entries are merged into the data registry at every Send.
	Data map[string]string

	ResponseType codec.ResponseType

	// IncludeCredentials sends and stores cookies on streaming uploads.
	IncludeCredentials bool

	// CrossOrigin makes frame uploads wait for a message from the response
	// document instead of reading it.
	CrossOrigin bool

	// AllowedOrigin is the origin cross-origin messages must come from.
	// Empty means the origin of the upload URL; "*" accepts any origin.
	AllowedOrigin string
}

// DefaultConfig returns a Config with no timeout, no extra fields and an
// undecoded response.
func DefaultConfig() Config {
	return Config{
		Headers:      map[string]string{},
		Data:         map[string]string{},
		ResponseType: codec.None,
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	var errs []error
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must be >= 0, got %s", c.Timeout))
	}
	if _, err := codec.ParseResponseType(string(c.ResponseType)); err != nil {
		errs = append(errs, err)
	}
	for name := range c.Headers {
		if name == "" {
			errs = append(errs, errors.New("header name must not be empty"))
		}
	}
	for name := range c.Data {
		if name == "" {
			errs = append(errs, errors.New("data name must not be empty"))
		}
	}
	return errors.Join(errs...)
}

func (c Config) clone() Config {
	c.Headers = maps.Clone(c.Headers)
	c.Data = maps.Clone(c.Data)
	return c
}

func (c Config) transportOptions() transport.Options {
	return transport.Options{
		Timeout:            c.Timeout,
		ResponseType:       c.ResponseType,
		IncludeCredentials: c.IncludeCredentials,
		CrossOrigin:        c.CrossOrigin,
		AllowedOrigin:      c.AllowedOrigin,
	}
}

// ConfigOverride changes the live configuration. Overrides are passed to
// Send or UpdateConfig.
type ConfigOverride func(*Config)

// WithTimeout sets the upload timeout. Negative values disable it.
func WithTimeout(d time.Duration) ConfigOverride {
	return func(c *Config) {
		c.Timeout = max(d, 0)
	}
}

// WithFrameTransport forces or releases the frame transport.
func WithFrameTransport(force bool) ConfigOverride {
	return func(c *Config) { c.ForceFrameTransport = force }
}

// WithHeaders adds headers to the configuration.
func WithHeaders(headers map[string]string) ConfigOverride {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(headers))
		}
		maps.Copy(c.Headers, headers)
	}
}

// WithData adds data entries to the configuration.
func WithData(data map[string]string) ConfigOverride {
	return func(c *Config) {
		if c.Data == nil {
			c.Data = make(map[string]string, len(data))
		}
		maps.Copy(c.Data, data)
	}
}

// WithResponseType sets how the response body is decoded.
func WithResponseType(t codec.ResponseType) ConfigOverride {
	return func(c *Config) { c.ResponseType = t }
}

// WithCredentials enables or disables credentialed streaming uploads.
func WithCredentials(include bool) ConfigOverride {
	return func(c *Config) { c.IncludeCredentials = include }
}

// WithCrossOrigin enables or disables message-based frame completion.
func WithCrossOrigin(crossOrigin bool) ConfigOverride {
	return func(c *Config) { c.CrossOrigin = crossOrigin }
}

// WithAllowedOrigin sets the origin cross-origin messages must come from.
func WithAllowedOrigin(origin string) ConfigOverride {
	return func(c *Config) { c.AllowedOrigin = origin }
}
