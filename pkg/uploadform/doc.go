// Package uploadform submits a file-bearing form to a remote endpoint
// asynchronously and reports the outcome through lifecycle events.
//
// An Uploader owns one form. Each Send picks a transport: a streaming
// multipart request when an HTTP client is available, or a hidden frame
// submission otherwise (or when forced). Whatever the transport, the caller
// sees the same events:
//
//	beforesend  fired once, right before the form is transmitted
//	progress    upload and download progress (streaming only)
//	load        the response, decoded according to ResponseType
//	error       kind error, abort, timeout or parseerror
//
// # Usage
//
//	p, _ := page.Load(pageURL, markup)
//	form, _ := p.Form("upload")
//	u, err := uploadform.New(form, "https://api.example.com/files", uploadform.DefaultConfig(),
//	    uploadform.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	u.On(events.Load, events.NewCallback(func(e events.Event) {
//	    fmt.Println(e.Body)
//	}))
//	u.Send(uploadform.WithResponseType(codec.JSON))
//
// Only one upload runs at a time: Send while busy is ignored with a warning.
// Usage errors never panic or return errors; they are logged at warn level.
// Event handlers run outside the uploader's lock and may call back into it.
//
// A form must not be shared between two uploaders.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package uploadform
