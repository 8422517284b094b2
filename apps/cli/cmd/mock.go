package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/storyspoiler/packages/core/config"
	"github.com/abdul-hamid-achik/storyspoiler/packages/logging"
	"github.com/abdul-hamid-achik/storyspoiler/packages/mock"
	"github.com/abdul-hamid-achik/storyspoiler/packages/story"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	mockPortFlag      int
	mockDelayFlag     string
	mockVerboseFlag   bool
	mockUserFlag      string
	mockPasswordFlag  string
	mockSecretFlag    string
	mockNestedIDsFlag bool
	mockSeedFlag      int
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Serve a fake Story Spoiler API",
	Long: `Start an HTTP server that behaves like the Story Spoiler API so the
scenarios can run offline.

The mock server:
- Issues signed bearer tokens from /api/User/Authentication
- Keeps stories in memory for create, edit, list and delete
- Can report created ids nested under "data" instead of at the top level
- Can add artificial delays to simulate network latency

Examples:
  storyspoiler mock
  storyspoiler mock --port 3000 --delay 100ms
  storyspoiler mock --nested-ids --seed 3 --verbose`,
	Args: cobra.NoArgs,
	RunE: mockCommand,
}

func init() {
	mockCmd.Flags().IntVarP(&mockPortFlag, "port", "p", mock.DefaultPort, "Port to run the mock server on")
	mockCmd.Flags().StringVarP(&mockDelayFlag, "delay", "d", "0", "Delay to add to all responses (e.g., 100ms, 1s)")
	mockCmd.Flags().BoolVarP(&mockVerboseFlag, "verbose", "v", false, "Log every request")
	mockCmd.Flags().StringVar(&mockUserFlag, "user", config.DefaultUsername, "Username accepted by the login endpoint")
	mockCmd.Flags().StringVar(&mockPasswordFlag, "password", config.DefaultPassword, "Password accepted by the login endpoint")
	mockCmd.Flags().StringVar(&mockSecretFlag, "secret", getEnvString("STORYSPOILER_MOCK_SECRET", ""), "HMAC key for signing tokens (env: STORYSPOILER_MOCK_SECRET)")
	mockCmd.Flags().BoolVar(&mockNestedIDsFlag, "nested-ids", false, `Return created ids as {"data":{"storyId":...}}`)
	mockCmd.Flags().IntVar(&mockSeedFlag, "seed", 0, "Number of stories to create at startup")
}

func mockCommand(cmd *cobra.Command, args []string) error {
	var delay time.Duration
	if mockDelayFlag != "0" {
		var err error
		delay, err = time.ParseDuration(mockDelayFlag)
		if err != nil {
			return exitWith(ExitUsageError, fmt.Errorf("invalid delay value %q: %w", mockDelayFlag, err))
		}
	}

	logger := logging.New(cmd.ErrOrStderr(), mockVerboseFlag)
	defer func() { _ = logger.Sync() }()

	opts := []mock.Option{
		mock.WithPort(mockPortFlag),
		mock.WithDelay(delay),
		mock.WithUser(mockUserFlag, mockPasswordFlag),
		mock.WithNestedIDs(mockNestedIDsFlag),
		mock.WithLogger(logger),
	}
	if mockSecretFlag != "" {
		opts = append(opts, mock.WithSecret([]byte(mockSecretFlag)))
	}
	server := mock.NewServer(opts...)

	for i := 1; i <= mockSeedFlag; i++ {
		server.Store().Create(story.Payload{
			Title:       fmt.Sprintf("Seeded story %d", i),
			Description: "Created at startup.",
		})
	}
	if mockSeedFlag > 0 {
		logger.Info("seeded stories", zap.Int("count", mockSeedFlag))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		return exitWith(ExitNetworkError, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "\nMock server stopped")
	return nil
}
