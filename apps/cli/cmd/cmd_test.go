package cmd

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/storyspoiler/packages/core/config"
	"github.com/abdul-hamid-achik/storyspoiler/packages/core/runner"
	"github.com/abdul-hamid-achik/storyspoiler/packages/history"
	"github.com/abdul-hamid-achik/storyspoiler/packages/logging"
	"github.com/abdul-hamid-achik/storyspoiler/packages/mock"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestResolveSettings_ExpandsFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "storyspoiler.yaml")
	envPath := filepath.Join(dir, "test.env")

	writeFile(t, cfgPath, "baseUrl: ${STORY_TEST_URL}\npassword: ${STORY_TEST_PASSWORD:-fallback}\nstoryId: ${STORY_TEST_UNSET}\n")
	writeFile(t, envPath, "STORY_TEST_URL=http://localhost:5080\n")

	s, err := resolveSettings(cfgPath, envPath, &config.Config{Username: "someone"})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5080", s.Config.BaseURL)
	assert.Equal(t, "fallback", s.Config.Password)
	assert.Equal(t, "someone", s.Config.Username)
	assert.Equal(t, []string{"STORY_TEST_UNSET"}, s.Missing)
	assert.Equal(t, []string{cfgPath, envPath}, s.watchedFiles())
}

func TestResolveSettings_OverridesWin(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "storyspoiler.yaml")
	writeFile(t, cfgPath, "baseUrl: http://from-file\nbail: false\n")

	s, err := resolveSettings(cfgPath, "", &config.Config{
		BaseURL: "http://from-flag",
		Bail:    config.BoolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "http://from-flag", s.Config.BaseURL)
	assert.True(t, s.Config.GetBail())
}

func TestResolveSettings_MissingExplicitEnvFile(t *testing.T) {
	_, err := resolveSettings("", filepath.Join(t.TempDir(), "nope.env"), nil)
	assert.Error(t, err)
}

func TestResolveSettings_MissingConfigFile(t *testing.T) {
	_, err := resolveSettings(filepath.Join(t.TempDir(), "nope.yaml"), "", nil)
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, exitCode(nil))
	assert.Equal(t, ExitTestFailure, exitCode(exitWith(ExitTestFailure, nil)))
	assert.Equal(t, ExitConfigError, exitCode(exitWith(ExitConfigError, errors.New("bad config"))))
	assert.Equal(t, ExitUsageError, exitCode(errors.New("unknown flag")))
}

func newFakeService(t *testing.T) string {
	t.Helper()
	ts := httptest.NewServer(mock.NewServer(mock.WithUser(config.DefaultUsername, config.DefaultPassword)))
	t.Cleanup(ts.Close)
	return ts.URL
}

func TestRunSuite(t *testing.T) {
	baseURL := newFakeService(t)
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Output = "json"
	cfg.History = filepath.Join(dir, "history.db")

	var out bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&out)

	code, err := runSuite(context.Background(), c, cfg, logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out.String(), `"passed": 7`)

	store, err := history.Open(context.Background(), cfg.History)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 7, runs[0].Passed)
}

func TestRunSuite_AuthFailure(t *testing.T) {
	baseURL := newFakeService(t)

	cfg := config.DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Password = "wrong"
	cfg.NoColor = config.BoolPtr(true)

	var out bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&out)

	code, err := runSuite(context.Background(), c, cfg, logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, ExitNetworkError, code)
	assert.Contains(t, out.String(), "7 failed")
}

func TestRunSuite_UnknownOutput(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output = "html"

	code, err := runSuite(context.Background(), &cobra.Command{}, cfg, logging.Nop())
	assert.Error(t, err)
	assert.Equal(t, ExitUsageError, code)
}

func TestWritePlan(t *testing.T) {
	plan, err := runner.Plan(runner.Scenarios())
	require.NoError(t, err)

	var out bytes.Buffer
	writePlan(&out, plan, "create*")

	text := out.String()
	assert.Contains(t, text, "1. create-story")
	assert.Contains(t, text, "needs: edit-story, list-stories")
	assert.Contains(t, text, "(filtered out)")
}

func TestListCommand_Scenario(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	require.NoError(t, listCommand(cmd, []string{runner.EditStory}))
	text := out.String()
	assert.Contains(t, text, "2. edit-story")
	assert.Contains(t, text, "PUT /api/Story/Edit/{id}")
	assert.Contains(t, text, "needs: create-story")

	err := listCommand(cmd, []string{"nope"})
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
}
