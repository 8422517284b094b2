package env

import (
	"os"
	"regexp"
)

var variablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// LookupFunc resolves a variable name.
type LookupFunc func(name string) (string, bool)

// NewLookup returns a LookupFunc that prefers the process environment and
// falls back to the given dotenv values.
func NewLookup(dotenv map[string]string) LookupFunc {
	return func(name string) (string, bool) {
		if v, ok := os.LookupEnv(name); ok {
			return v, true
		}
		v, ok := dotenv[name]
		return v, ok
	}
}

// Expand replaces ${VAR} and ${VAR:-default} references in s. Unknown
// variables without a default expand to the empty string and are reported in
// the returned slice.
func Expand(s string, lookup LookupFunc) (string, []string) {
	var missing []string
	out := variablePattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := variablePattern.FindStringSubmatch(match)
		name := parts[1]
		if v, ok := lookup(name); ok && v != "" {
			return v
		}
		// parts[2] is empty both for "${X:-}" and "${X}"; distinguish by the match text
		if len(match) > len(name)+3 {
			return parts[2]
		}
		missing = append(missing, name)
		return ""
	})
	return out, missing
}
