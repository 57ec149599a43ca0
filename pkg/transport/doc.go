// Package transport implements the two wire protocols an upload can travel
// over.
//
// The streaming transport sends the form as a multipart/form-data request
// through an HTTPClient. It supports real request headers, upload and download
// progress, cancellation and timeouts.
//
// The frame transport submits the form into a hidden, named frame of the page
// the form lives on. Headers and data travel as hidden form fields, timeouts
// are emulated with a timer and cancellation is local only. Completion is
// detected by reading the frame document, or, for cross-origin endpoints, by a
// message the response document posts back to the page.
//
// # Usage
//
// Pick a transport and start it with a Sink that receives the outcome:
//
//	kind := transport.Select(client != nil, forceFrame)
//	var t transport.Transport
//	if kind == transport.KindStreaming {
//	    t = transport.NewStreaming(client, logger)
//	} else {
//	    t = transport.NewFrame(logger)
//	}
//	t.Start(transport.Request{URL: url, Form: form, Sink: sink})
//
// Every terminal outcome is delivered as a Result. Callers must call Dispose
// once they have accepted an outcome.
//
// # Version
//
// Current version: 2.0.0
// Minimum compatible version: 2.0.0
//
// See version.go for version constants that can be used programmatically.
package transport
