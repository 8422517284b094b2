package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand(t *testing.T) {
	lookup := func(name string) (string, bool) {
		vals := map[string]string{
			"STORY_USER": "vasi456",
			"EMPTY":      "",
		}
		v, ok := vals[name]
		return v, ok
	}

	tests := []struct {
		name     string
		input    string
		expected string
		missing  []string
	}{
		{"plain text", "https://example.com", "https://example.com", nil},
		{"single var", "${STORY_USER}", "vasi456", nil},
		{"embedded", "user-${STORY_USER}-x", "user-vasi456-x", nil},
		{"default used", "${STORY_PASS:-fallback}", "fallback", nil},
		{"default ignored", "${STORY_USER:-other}", "vasi456", nil},
		{"empty default", "${STORY_PASS:-}", "", nil},
		{"empty value uses default", "${EMPTY:-d}", "d", nil},
		{"missing", "${STORY_PASS}", "", []string{"STORY_PASS"}},
		{"not a reference", "$STORY_USER", "$STORY_USER", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, missing := Expand(tt.input, lookup)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.missing, missing)
		})
	}
}

func TestNewLookup_PrefersProcessEnv(t *testing.T) {
	t.Setenv("STORYSPOILER_TEST_VAR", "from-env")
	lookup := NewLookup(map[string]string{
		"STORYSPOILER_TEST_VAR":  "from-file",
		"STORYSPOILER_ONLY_FILE": "file",
	})

	v, ok := lookup("STORYSPOILER_TEST_VAR")
	assert.True(t, ok)
	assert.Equal(t, "from-env", v)

	v, ok = lookup("STORYSPOILER_ONLY_FILE")
	assert.True(t, ok)
	assert.Equal(t, "file", v)

	_, ok = lookup("STORYSPOILER_NOPE")
	assert.False(t, ok)
}
