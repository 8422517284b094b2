// Package assertions checks story API responses.
//
// Supported checks:
//   - status: exact status code
//   - body contains: substring of the raw body
//   - body not empty: non-blank body
//   - body length: number of elements in a JSON array body
//   - body schema: JSON schema validation of the body
//
// Each check returns a Result carrying expected and actual values so
// formatters can explain failures.
package assertions
