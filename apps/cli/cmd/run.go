package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/storyspoiler/packages/auth"
	"github.com/abdul-hamid-achik/storyspoiler/packages/core/config"
	"github.com/abdul-hamid-achik/storyspoiler/packages/core/runner"
	"github.com/abdul-hamid-achik/storyspoiler/packages/history"
	"github.com/abdul-hamid-achik/storyspoiler/packages/logging"
	"github.com/abdul-hamid-achik/storyspoiler/packages/output"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the Story Spoiler scenarios",
	Long: `Authenticate once and run the ordered Story Spoiler scenarios.

Examples:
  storyspoiler run
  storyspoiler run --base-url http://localhost:5080
  storyspoiler run --name "edit-story" --story-id 3f2a...
  storyspoiler run --output junit --output-file report.xml
  storyspoiler run --watch`,
	Args: cobra.NoArgs,
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	configFlag     string
	envFileFlag    string
	baseURLFlag    string
	usernameFlag   string
	passwordFlag   string
	storyIDFlag    string
	nameFlag       string
	outputFlag     string
	outputFileFlag string
	timeoutFlag    string
	rateFlag       float64
	bailFlag       bool
	noCleanupFlag  bool
	insecureFlag   bool
	proxyFlag      string
	verboseFlag    bool
	noColorFlag    bool
	dryRunFlag     bool
	watchFlag      bool
	historyFlag    string
)

func init() {
	// Source flags
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("STORYSPOILER_CONFIG", ""), "Path to config file (env: STORYSPOILER_CONFIG)")
	runCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("STORYSPOILER_ENV_FILE", ""), "Path to .env file for ${VAR} expansion (env: STORYSPOILER_ENV_FILE)")

	// Target flags
	runCmd.Flags().StringVarP(&baseURLFlag, "base-url", "u", getEnvString("STORYSPOILER_BASE_URL", ""), "Service base URL (env: STORYSPOILER_BASE_URL)")
	runCmd.Flags().StringVar(&usernameFlag, "username", getEnvString("STORYSPOILER_USERNAME", ""), "Login username (env: STORYSPOILER_USERNAME)")
	runCmd.Flags().StringVar(&passwordFlag, "password", getEnvString("STORYSPOILER_PASSWORD", ""), "Login password (env: STORYSPOILER_PASSWORD)")
	runCmd.Flags().StringVar(&storyIDFlag, "story-id", getEnvString("STORYSPOILER_STORY_ID", ""), "Existing story id for edit/delete scenarios (env: STORYSPOILER_STORY_ID)")
	runCmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Run only scenarios matching name pattern (supports *)")

	// Output flags
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", getEnvBool("STORYSPOILER_VERBOSE", false), "Verbose output and debug logging (env: STORYSPOILER_VERBOSE)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("STORYSPOILER_NO_COLOR", false), "Disable colored output (env: STORYSPOILER_NO_COLOR)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("STORYSPOILER_OUTPUT", ""), "Output format: console, json, junit, tap (env: STORYSPOILER_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("STORYSPOILER_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: STORYSPOILER_OUTPUT_FILE)")
	runCmd.Flags().StringVar(&historyFlag, "history", getEnvString("STORYSPOILER_HISTORY", ""), "Record the run in this SQLite database (env: STORYSPOILER_HISTORY)")

	// Execution flags
	runCmd.Flags().BoolVar(&bailFlag, "bail", getEnvBool("STORYSPOILER_BAIL", false), "Stop on first failure (env: STORYSPOILER_BAIL)")
	runCmd.Flags().BoolVar(&noCleanupFlag, "no-cleanup", getEnvBool("STORYSPOILER_NO_CLEANUP", false), "Leave stories the run did not delete (env: STORYSPOILER_NO_CLEANUP)")
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("STORYSPOILER_TIMEOUT", ""), "Request timeout (e.g., 30s, 1m) (env: STORYSPOILER_TIMEOUT)")
	runCmd.Flags().Float64Var(&rateFlag, "rate", getEnvFloat("STORYSPOILER_RATE", 0), "Max requests per second, 0 for no limit (env: STORYSPOILER_RATE)")
	runCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Show the execution plan without sending requests")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch the config and env files and re-run on change")

	// Network flags
	runCmd.Flags().StringVar(&proxyFlag, "proxy", getEnvString("STORYSPOILER_PROXY", ""), "Proxy URL for HTTP requests (env: STORYSPOILER_PROXY)")
	runCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("STORYSPOILER_INSECURE", false), "Disable SSL certificate validation (env: STORYSPOILER_INSECURE)")
}

// flagOverrides collects the flags that were set on the command line or
// through their environment variable.
func flagOverrides(cmd *cobra.Command) (*config.Config, error) {
	o := &config.Config{
		BaseURL:    baseURLFlag,
		Username:   usernameFlag,
		Password:   passwordFlag,
		StoryID:    storyIDFlag,
		Proxy:      proxyFlag,
		Output:     strings.ToLower(outputFlag),
		OutputFile: outputFileFlag,
		History:    historyFlag,
		Rate:       rateFlag,
	}

	if timeoutFlag != "" {
		d, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout value %q: %w", timeoutFlag, err)
		}
		o.Timeout = int(d.Milliseconds())
	}

	set := func(name, envKey string) bool {
		return cmd.Flags().Changed(name) || os.Getenv(envKey) != ""
	}
	if set("bail", "STORYSPOILER_BAIL") {
		o.Bail = config.BoolPtr(bailFlag)
	}
	if set("no-cleanup", "STORYSPOILER_NO_CLEANUP") {
		o.Cleanup = config.BoolPtr(!noCleanupFlag)
	}
	if set("insecure", "STORYSPOILER_INSECURE") {
		o.ValidateSSL = config.BoolPtr(!insecureFlag)
	}
	if set("verbose", "STORYSPOILER_VERBOSE") {
		o.Verbose = config.BoolPtr(verboseFlag)
	}
	if set("no-color", "STORYSPOILER_NO_COLOR") {
		o.NoColor = config.BoolPtr(noColorFlag)
	}
	return o, nil
}

func loadRunSettings(cmd *cobra.Command) (*settings, error) {
	overrides, err := flagOverrides(cmd)
	if err != nil {
		return nil, err
	}

	s, err := resolveSettings(configFlag, envFileFlag, overrides)
	if err != nil {
		return nil, err
	}
	if err := s.Config.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// runnerConfig translates file and flag settings into runner settings.
func runnerConfig(cfg *config.Config, logger *zap.Logger) *runner.Config {
	return &runner.Config{
		BaseURL: cfg.BaseURL,
		Credentials: auth.Credentials{
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Timeout:    cfg.TimeoutDuration(),
		Rate:       cfg.Rate,
		Insecure:   !cfg.GetValidateSSL(),
		Proxy:      cfg.Proxy,
		Headers:    cfg.Headers,
		StoryID:    cfg.StoryID,
		Cleanup:    cfg.GetCleanup(),
		Bail:       cfg.GetBail(),
		NameFilter: nameFlag,
		Logger:     logger,
	}
}

func runCommand(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := loadRunSettings(cmd)
	if err != nil {
		return exitWith(ExitConfigError, err)
	}

	logger := logging.New(cmd.ErrOrStderr(), s.Config.GetVerbose())
	defer func() { _ = logger.Sync() }()

	for _, name := range s.Missing {
		logger.Warn("variable not set", zap.String("name", name))
	}

	if dryRunFlag {
		plan, err := runner.Plan(runner.Scenarios())
		if err != nil {
			return exitWith(ExitConfigError, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Would run against %s as %s:\n", s.Config.BaseURL, s.Config.Username)
		writePlan(cmd.OutOrStdout(), plan, nameFlag)
		return nil
	}

	code, err := runSuite(ctx, cmd, s.Config, logger)
	if !watchFlag {
		if err != nil || code != ExitSuccess {
			return exitWith(code, err)
		}
		return nil
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	}

	return watch(ctx, cmd, s, logger)
}

// runSuite runs the scenarios once and reports them. It returns the exit
// code the outcome maps to.
func runSuite(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *zap.Logger) (int, error) {
	var out io.Writer = cmd.OutOrStdout()
	if cfg.OutputFile != "" {
		f, err := os.Create(cfg.OutputFile)
		if err != nil {
			return ExitConfigError, fmt.Errorf("cannot create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	formatter, err := output.New(cfg.Output, out, cfg.GetVerbose(), cfg.GetNoColor())
	if err != nil {
		return ExitUsageError, err
	}
	formatter.FormatHeader(version)

	result, err := runner.NewRunner(runnerConfig(cfg, logger)).Run(ctx)
	if result == nil {
		formatter.FormatError(err)
		_ = flush(formatter, 0)
		return ExitConfigError, err
	}

	formatter.FormatResult(result)
	if err := flush(formatter, result.Duration); err != nil {
		return ExitConfigError, fmt.Errorf("error writing output: %w", err)
	}

	if cfg.History != "" {
		recordHistory(ctx, cfg.History, result, logger)
	}

	switch {
	case result.Error != nil:
		return ExitNetworkError, nil
	case result.Failed > 0:
		return ExitTestFailure, nil
	default:
		return ExitSuccess, nil
	}
}

func flush(formatter output.Formatter, d time.Duration) error {
	if flushable, ok := formatter.(output.Flushable); ok {
		return flushable.Flush(d)
	}
	return nil
}

// recordHistory stores the run; failures are logged and do not change the
// exit code.
func recordHistory(ctx context.Context, path string, result *runner.SuiteResult, logger *zap.Logger) {
	store, err := history.Open(ctx, path)
	if err != nil {
		logger.Warn("history unavailable", zap.String("path", path), zap.Error(err))
		return
	}
	defer store.Close()

	if err := store.Record(ctx, result); err != nil {
		logger.Warn("failed to record run", zap.Error(err))
		return
	}
	logger.Debug("run recorded", zap.String("runId", result.RunID.String()), zap.String("path", path))
}

// watch re-runs the suite whenever the config or env file changes, until
// ctx is cancelled.
func watch(ctx context.Context, cmd *cobra.Command, s *settings, logger *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return exitWith(ExitConfigError, fmt.Errorf("failed to create file watcher: %w", err))
	}
	defer watcher.Close()

	// Watch directories so editors that replace files are still seen.
	targets := make(map[string]bool)
	watchedDirs := make(map[string]bool)
	for _, file := range s.watchedFiles() {
		abs, err := filepath.Abs(file)
		if err != nil {
			continue
		}
		targets[abs] = true
		dir := filepath.Dir(abs)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				logger.Warn("failed to watch", zap.String("dir", dir), zap.Error(err))
			}
			watchedDirs[dir] = true
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	var debounce <-chan time.Time
	var changed string

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			abs, _ := filepath.Abs(event.Name)
			if !targets[abs] || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			changed = event.Name
			debounce = time.After(WatchDebounceDelay)

		case <-debounce:
			debounce = nil
			fmt.Fprintf(cmd.OutOrStdout(), "\n\nFile changed: %s\nRe-running scenarios...\n\n", changed)

			next, err := loadRunSettings(cmd)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			} else if _, err := runSuite(ctx, cmd, next.Config, logger); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		}
	}
}
