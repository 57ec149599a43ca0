// Package page is a small browsing context for driving HTML forms from Go.
//
// A Page owns a DOM parsed with golang.org/x/net/html, a registry of event
// listeners and an HTTP client used for navigations. It supports what a form
// upload needs and nothing more:
//
//   - finding forms, reading their successful controls and attaching files to
//     file inputs
//   - injecting and removing hidden inputs
//   - creating hidden, named frames and loading form submissions into them
//   - the same-origin policy when a frame's document is read
//   - inline scripts in frame documents (run with goja) that signal the
//     embedding page through parent.postMessage
//
// Listeners are registered with Registry.Register and removed with the token it
// returns. Dispatch happens on the goroutine that produced the event: the
// caller for submit, the navigation goroutine for load and message.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package page
