// Package http provides the HTTP client used by the story scenarios.
//
// It wraps the standard library's http package with additional features:
//   - A base URL that request paths are resolved against
//   - Default headers and a bearer token attached to every request
//   - JSON request bodies
//   - Optional request pacing and latency observation
//   - Response handling and body reading
package http
