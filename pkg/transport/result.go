package transport

import (
	"fmt"
	"mime"
	"strings"

	"github.com/bft-labs/formship/pkg/codec"
)

// StatusKind is the normalized outcome of a submission.
type StatusKind string

const (
	StatusSuccess    StatusKind = "success"
	StatusError      StatusKind = "error"
	StatusAbort      StatusKind = "abort"
	StatusTimeout    StatusKind = "timeout"
	StatusParseError StatusKind = "parseerror"
)

// Result is the transport-independent outcome handed back through Sink.
type Result struct {
	Kind StatusKind

	// StatusCode is the HTTP status when it is known, 0 otherwise.
	StatusCode int

	// Body is the decoded response for StatusSuccess.
	Body any

	// RawBody is the undecoded response text, when there is one.
	RawBody string

	Detail string

	// Raw is the native handle: the *http.Response for streaming uploads,
	// the *page.Frame for frame uploads.
	Raw any
}

// Err maps the result onto the transport and codec sentinels. It is nil for
// StatusSuccess.
func (r Result) Err() error {
	switch r.Kind {
	case StatusSuccess:
		return nil
	case StatusAbort:
		return ErrAborted
	case StatusTimeout:
		return ErrTimeout
	case StatusParseError:
		return fmt.Errorf("%w: %s", codec.ErrParse, r.Detail)
	default:
		if r.Detail == "" {
			return ErrNetwork
		}
		return fmt.Errorf("%w: %s", ErrNetwork, r.Detail)
	}
}

// Direction tells upload progress from download progress.
type Direction string

const (
	Upload   Direction = "upload"
	Download Direction = "download"
)

// Progress reports bytes moved so far. Total is -1 when unknown.
type Progress struct {
	Direction Direction
	Loaded    int64
	Total     int64
}

// decodeBody turns a successful response into a Result, or a parseerror
// Result when the body does not match t.
func decodeBody(p codec.Parser, t codec.ResponseType, raw any, status int, handle any) Result {
	text, _ := raw.(string)
	body, err := codec.Decode(p, t, raw)
	if err != nil {
		return Result{Kind: StatusParseError, StatusCode: status, Detail: err.Error(), RawBody: text, Raw: handle}
	}
	return Result{Kind: StatusSuccess, StatusCode: status, Body: body, RawBody: text, Raw: handle}
}

func isXMLMediaType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/xml" || mediaType == "application/xml" || strings.HasSuffix(mediaType, "+xml")
}
