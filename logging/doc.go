// Package logging provides a minimal logging interface and adapters for the
// webchat backend.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the orchestrator, dispatch queue and HTTP layer use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// The design intentionally keeps the interface minimal so callers can plug
// any structured logger without vendor lock-in.
package logging
