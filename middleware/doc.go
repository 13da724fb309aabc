// Package middleware provides composable middleware for the worker's
// job-processing pass.
//
// A [Middleware] is a function that wraps the pass. Middleware are
// composed into a chain using [Chain] and applied around each job's
// single execution. They are applied right-to-left: the first
// middleware in the slice is the outermost wrapper.
//
//	// logging → recover → handler
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging] — logs job id, duration, and outcome for each pass
//   - [Recover] — catches panics and converts them to errors
//   - [Timeout] — cancels the pass context after the execution budget
//   - [Tracing] — wraps the pass in an OpenTelemetry span
//   - [Metrics] — records per-pass duration and outcome counters
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting.
package middleware
