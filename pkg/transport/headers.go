package transport

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// forbiddenHeaders lists request headers a page may not set on its own
// requests, plus Content-Type, which carries the multipart boundary.
var forbiddenHeaders = map[string]bool{
	"Accept-Charset":                 true,
	"Accept-Encoding":                true,
	"Access-Control-Request-Headers": true,
	"Access-Control-Request-Method":  true,
	"Connection":                     true,
	"Content-Length":                 true,
	"Content-Type":                   true,
	"Cookie":                         true,
	"Cookie2":                        true,
	"Date":                           true,
	"Dnt":                            true,
	"Expect":                         true,
	"Host":                           true,
	"Keep-Alive":                     true,
	"Origin":                         true,
	"Referer":                        true,
	"Te":                             true,
	"Trailer":                        true,
	"Transfer-Encoding":              true,
	"Upgrade":                        true,
	"Via":                            true,
}

// checkHeader reports why a header cannot be set on a streaming request.
func checkHeader(name, value string) error {
	if !httpguts.ValidHeaderFieldName(name) {
		return fmt.Errorf("invalid header name %q", name)
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return fmt.Errorf("invalid value for header %q", name)
	}
	canonical := http.CanonicalHeaderKey(name)
	if forbiddenHeaders[canonical] ||
		strings.HasPrefix(canonical, "Proxy-") ||
		strings.HasPrefix(canonical, "Sec-") {
		return fmt.Errorf("header %q is forbidden", name)
	}
	return nil
}
