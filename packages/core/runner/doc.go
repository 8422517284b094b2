// Package runner executes the Story Spoiler scenarios against a live or fake
// service.
//
// It provides functionality for:
//   - Authenticating once and sharing the resulting Session
//   - Ordering scenarios by their declared dependencies
//   - Threading the created story id between scenarios through State
//   - Filtering, bailing, and cleaning up stories a run left behind
//
// Scenarios run sequentially on a single goroutine.
package runner
