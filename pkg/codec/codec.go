// Package codec turns raw upload responses into values according to the
// response type the caller declared.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrParse is the sentinel wrapped by every ParseError.
var ErrParse = errors.New("formship: response did not match response type")

// ResponseType declares how a response body is interpreted.
type ResponseType string

const (
	None ResponseType = ""
	Text ResponseType = "text"
	JSON ResponseType = "json"
	XML  ResponseType = "xml"
)

// ParseResponseType parses a configured response type. "none" and "" are
// both accepted for None.
func ParseResponseType(s string) (ResponseType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "text":
		return Text, nil
	case "json":
		return JSON, nil
	case "xml":
		return XML, nil
	}
	return None, fmt.Errorf("unknown response type %q", s)
}

// String returns the configured name, "none" for None.
func (t ResponseType) String() string {
	if t == None {
		return "none"
	}
	return string(t)
}

// Accept returns the Accept header sent when none was set explicitly.
func (t ResponseType) Accept() string {
	switch t {
	case JSON:
		return "application/json, text/javascript, */*; q=0.01"
	case XML:
		return "application/xml, text/xml, */*; q=0.01"
	default:
		return "text/plain, */*; q=0.01"
	}
}

// ParseError reports a body that could not be decoded as Type.
type ParseError struct {
	Type ResponseType
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s response: %v", e.Type, e.Err)
}

// Unwrap lets errors.Is match both ErrParse and the decoder error.
func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

// Parser is the text parsing service responses are handed to.
type Parser interface {
	ParseXML(text string) (*Document, error)
	ParseJSON(text string) (any, error)
}

// StandardParser implements Parser with encoding/json and encoding/xml.
type StandardParser struct{}

// ParseJSON decodes a single JSON value.
func (StandardParser) ParseJSON(text string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, &ParseError{Type: JSON, Err: err}
	}
	return v, nil
}

// ParseXML decodes a well-formed XML document.
func (StandardParser) ParseXML(text string) (*Document, error) {
	doc, err := DecodeXML(strings.NewReader(text))
	if err != nil {
		return nil, &ParseError{Type: XML, Err: err}
	}
	return doc, nil
}

// Decode interprets raw according to t. Strings go through p; non-string
// values (structured message payloads) are returned unchanged for JSON and
// rejected for XML.
func Decode(p Parser, t ResponseType, raw any) (any, error) {
	if p == nil {
		p = StandardParser{}
	}
	text, isText := raw.(string)
	switch t {
	case JSON:
		if !isText {
			return raw, nil
		}
		return p.ParseJSON(text)
	case XML:
		if !isText {
			return nil, &ParseError{Type: XML, Err: fmt.Errorf("unexpected %T payload", raw)}
		}
		return p.ParseXML(text)
	default:
		return raw, nil
	}
}
