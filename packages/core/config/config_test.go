package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, "vasi456", cfg.Username)
	assert.Equal(t, "vasi456", cfg.Password)
	assert.Equal(t, 30*time.Second, cfg.TimeoutDuration())
	assert.True(t, cfg.GetValidateSSL())
	assert.True(t, cfg.GetCleanup())
	assert.False(t, cfg.GetBail())
	assert.True(t, cfg.IsDefault())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "storyspoiler.yaml")
	content := `baseUrl: http://localhost:5080
username: alice
timeout: 5000
rate: 2.5
cleanup: false
headers:
  X-Suite: exam
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5080", cfg.BaseURL)
	assert.Equal(t, "alice", cfg.Username)
	assert.Equal(t, DefaultPassword, cfg.Password, "unset fields keep defaults")
	assert.Equal(t, 5*time.Second, cfg.TimeoutDuration())
	assert.Equal(t, 2.5, cfg.Rate)
	assert.False(t, cfg.GetCleanup())
	assert.Equal(t, "exam", cfg.Headers["X-Suite"])
	assert.False(t, cfg.IsDefault())
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("baseUrl: [unclosed"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestFindAndLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.True(t, cfg.IsDefault())
	assert.Empty(t, FindConfigFile(dir))

	path := filepath.Join(dir, ".storyspoiler.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storyId: abc\n"), 0644))

	assert.Equal(t, path, FindConfigFile(dir))
	cfg, err = FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.StoryID)
}

func TestConfig_Expand(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Password = "${STORY_PASSWORD}"
	cfg.BaseURL = "${STORY_BASE_URL:-http://localhost:5080}"
	cfg.Headers = map[string]string{"X-Token": "${MISSING_TOKEN}"}

	lookup := func(name string) (string, bool) {
		if name == "STORY_PASSWORD" {
			return "s3cret", true
		}
		return "", false
	}

	missing := cfg.Expand(lookup)
	assert.Equal(t, "s3cret", cfg.Password)
	assert.Equal(t, "http://localhost:5080", cfg.BaseURL)
	assert.Equal(t, "", cfg.Headers["X-Token"])
	assert.Equal(t, []string{"MISSING_TOKEN"}, missing)
}

func TestConfig_Merge(t *testing.T) {
	base := DefaultConfig()
	base.Headers = map[string]string{"A": "1"}

	other := &Config{
		BaseURL: "http://localhost:5080",
		Bail:    BoolPtr(true),
		Headers: map[string]string{"B": "2"},
	}

	merged := base.Merge(other)
	assert.Equal(t, "http://localhost:5080", merged.BaseURL)
	assert.Equal(t, DefaultUsername, merged.Username)
	assert.True(t, merged.GetBail())
	assert.True(t, merged.GetCleanup())
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, merged.Headers)
	assert.Equal(t, map[string]string{"A": "1"}, base.Headers)

	assert.Same(t, base, base.Merge(nil))
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Password = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Rate = -1
	assert.Error(t, cfg.Validate())
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storyspoiler.yaml")
	cfg := DefaultConfig()
	cfg.StoryID = "xyz"
	require.NoError(t, cfg.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "xyz", loaded.StoryID)
	assert.Equal(t, cfg.BaseURL, loaded.BaseURL)
}
