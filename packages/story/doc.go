// Package story describes the Story Spoiler API surface exercised by the
// scenarios: endpoint paths, request payloads, the messages the service
// answers with, and decoding of the identifiers it returns.
package story
