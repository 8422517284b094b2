// Package cmd implements the storyspoiler CLI commands using Cobra.
//
// Available commands:
//   - run: Execute the Story Spoiler scenarios against a service
//   - list: Display the scenarios in execution order
//   - mock: Serve a fake Story Spoiler API locally
//   - history: Show recorded runs
//   - version: Show storyspoiler version information
//
// Settings come from a YAML config file, an optional .env file, and
// flags with STORYSPOILER_* environment fallbacks, in increasing order of
// precedence.
package cmd
