// Package log provides the structured logging abstraction used across formship.
//
// Every component receives a Logger instead of reaching for a global. The
// zerolog adapter backs the CLI, the no-op logger is the library default and
// the Recorder captures entries so tests can assert on warnings, which are the
// only observable effect of usage violations such as sending twice.
//
// # Usage
//
//	logger := log.NewZerologAdapter(os.Stderr, "info")
//	uploads := logger.With(log.String("component", "uploadform"))
//	uploads.Warn("upload already in progress", log.String("form", "avatar"))
//
// # Version
//
// Current version: 1.1.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package log
