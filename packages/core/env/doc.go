// Package env handles dotenv files and ${VAR} expansion for storyspoiler
// configuration.
//
// It provides functionality for:
//   - Loading .env files (KEY=value, quoted values, export prefix, comments)
//   - Expanding ${VAR} and ${VAR:-default} references in config values
//   - Layering dotenv values under the process environment
package env
