// Package logger builds the zap logger shared by the CLI, the HTTP server and
// the reconciliation engine.
//
// Level and Format come from the "logger" configuration section. The json
// format is meant for production; console adds colored levels and drops stack
// traces for local runs.
//
// Requests carry a ray id that the HTTP middleware stores in the Fiber locals.
// Handlers derive their logger with WithRayID so that every line of a request,
// including the reconciliation job it starts, can be correlated:
//
//	l := logger.WithRayID(log, c)
//	l.Warn("Reconciliation rejected", zap.Error(err))
package logger
