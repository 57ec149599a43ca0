package cliconfig

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/formship/pkg/codec"
	"github.com/bft-labs/formship/pkg/page"
	"github.com/bft-labs/formship/pkg/uploadform"
)

const (
	// DefaultFormID is the id of the form built when no page file is given.
	DefaultFormID = "upload"

	// DefaultFileField is the name files are attached under.
	DefaultFileField = "file"
)

// Config holds CLI configuration for formship.
type Config struct {
	UploadURL string

	// PageURL is where the page holding the form is considered to be
	// loaded from. It defaults to the root of the upload URL's origin.
	PageURL string

	// PageFile is an HTML document containing the form. Without one a page
	// with a single empty form is used.
	PageFile  string
	FormID    string
	FileField string

	Fields  map[string]string
	Headers map[string]string
	Data    map[string]string

	Timeout       time.Duration
	ForceFrame    bool
	ResponseType  string
	Credentials   bool
	CrossOrigin   bool
	AllowedOrigin string

	LogLevel string

	WatchDir string
	Debounce time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		FormID:       DefaultFormID,
		FileField:    DefaultFileField,
		Fields:       map[string]string{},
		Headers:      map[string]string{},
		Data:         map[string]string{},
		ResponseType: codec.Text.String(),
		LogLevel:     "info",
		Debounce:     200 * time.Millisecond,
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.UploadURL == "" {
		return fmt.Errorf("url is required")
	}
	if c.PageURL == "" {
		u, err := url.Parse(c.UploadURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("url must be absolute when page-url is not set")
		}
		c.PageURL = page.OriginOf(u) + "/"
	}
	if c.FormID == "" {
		c.FormID = DefaultFormID
	}
	if c.FileField == "" {
		c.FileField = DefaultFileField
	}
	if _, err := codec.ParseResponseType(c.ResponseType); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive")
	}
	return nil
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	c.Fields = maps.Clone(c.Fields)
	c.Headers = maps.Clone(c.Headers)
	c.Data = maps.Clone(c.Data)
	return c
}

// UploadConfig converts the CLI configuration into an uploader configuration.
func (c *Config) UploadConfig() (uploadform.Config, error) {
	rt, err := codec.ParseResponseType(c.ResponseType)
	if err != nil {
		return uploadform.Config{}, err
	}
	cfg := uploadform.DefaultConfig()
	cfg.Timeout = c.Timeout
	cfg.ForceFrameTransport = c.ForceFrame
	cfg.Headers = maps.Clone(c.Headers)
	cfg.Data = maps.Clone(c.Data)
	cfg.ResponseType = rt
	cfg.IncludeCredentials = c.Credentials
	cfg.CrossOrigin = c.CrossOrigin
	cfg.AllowedOrigin = c.AllowedOrigin
	return cfg, cfg.Validate()
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBoolFromString parses a string to bool and sets the destination.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = b
	return nil
}

// setMap merges value into dst if the flag has not been set.
func (s *configSetter) setMap(flag string, value map[string]string, dst *map[string]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	if *dst == nil {
		*dst = make(map[string]string, len(value))
	}
	maps.Copy(*dst, value)
}

// setMapFromString parses "k=v,k2=v2" and merges it into dst.
// Used for environment variables that come as strings.
func (s *configSetter) setMapFromString(flag, value string, dst *map[string]string) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	m, err := parsePairs(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	s.setMap(flag, m, dst)
	return nil
}

func parsePairs(value string) (map[string]string, error) {
	m := make(map[string]string)
	var errs []error
	for _, pair := range strings.Split(value, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			errs = append(errs, fmt.Errorf("invalid pair %q", pair))
			continue
		}
		m[strings.TrimSpace(k)] = v
	}
	return m, errors.Join(errs...)
}
