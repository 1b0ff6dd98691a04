// Package internal contains the implementation packages for cheatsheet.
//
// # Package Organization
//
//   - content: Markdown loading, the Section model, topic lookup and search
//   - renderer: Plain-text, HTML, JSON and YAML output
//   - config: Configuration loading and validation
//   - errors: Typed errors carrying codes and source locations
//   - logging: Structured logging on log/slog
//   - output: Terminal printer and tables for the CLI
//   - server: Preview server with live reload over WebSocket
//   - watcher: Debounced file watching
//   - version: Build information
//
// # Data Flow
//
// A Markdown source is parsed once by content into a Document. A Store
// answers topic and keyword queries against it, and a renderer Engine turns
// a Document, or a subset of its sections, into one of the output formats.
// The server and the watch command reload the Document whenever the watcher
// reports a change, and keep the previous Document when the new one fails
// to load.
//
// Rendering is done in full before anything is written, so a failed render
// never leaves partial output behind.
package internal
