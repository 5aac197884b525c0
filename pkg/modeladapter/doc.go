// Package modeladapter defines the interface and shared plumbing for model
// server adapters.
//
// It contains:
//   - [Generator] interface and embeddable [ModelAdapter] base struct with HTTP helpers, auth, and custom headers
//   - [Middleware] wrappers for logging and per-call timeouts
//   - [github.com/germanamz/ollamagen/pkg/modeladapter/usage] — thread-safe usage tracker
//
// This package contains no server-specific code; concrete adapters live in
// separate packages that import modeladapter.
package modeladapter
