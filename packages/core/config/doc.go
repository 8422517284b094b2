// Package config handles configuration loading and management for storyspoiler.
//
// It provides functionality for:
//   - Loading configuration from .storyspoiler.yaml or storyspoiler.yaml files
//   - Default configuration values for the Story Spoiler exam service
//   - ${VAR} expansion of string values from the environment and a .env file
package config
