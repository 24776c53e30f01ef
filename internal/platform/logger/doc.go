// Package logger configures the process-wide structured logger and carries
// request-scoped loggers through context.Context.
//
// Output is JSON via log/slog. Request middleware stores a logger enriched with
// the trace id in the context; deeper layers fetch it with FromContext so every
// line of one request can be correlated.
package logger
