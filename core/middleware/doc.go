// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - Auth: Implements API key validation to protect endpoints.
//   - RayID: Generates a unique Request ID (RayID) for every incoming request,
//     injecting it into the context and response headers for tracing.
//
// Both are registered globally in the start command; RayID must come first so that
// every log line, including auth rejections, carries the id.
package middleware
