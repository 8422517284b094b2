package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/abdul-hamid-achik/storyspoiler/packages/history"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	historyConfigFlag string
	historyPathFlag   string
	historyLimitFlag  int
	historyPruneFlag  int
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recorded runs",
	Long: `Show runs recorded with "storyspoiler run --history <path>".

Without arguments the most recent runs are listed. With a run id, the
scenarios of that run are shown.

Examples:
  storyspoiler history
  storyspoiler history --limit 5
  storyspoiler history 6f1c2b1e-8a57-4c8e-9d0a-1b2c3d4e5f60
  storyspoiler history --prune 50`,
	Args: cobra.MaximumNArgs(1),
	RunE: historyCommand,
}

func init() {
	historyCmd.Flags().StringVar(&historyConfigFlag, "config", getEnvString("STORYSPOILER_CONFIG", ""), "Path to config file (env: STORYSPOILER_CONFIG)")
	historyCmd.Flags().StringVar(&historyPathFlag, "history", getEnvString("STORYSPOILER_HISTORY", ""), "History database path (env: STORYSPOILER_HISTORY)")
	historyCmd.Flags().IntVar(&historyLimitFlag, "limit", 20, "Number of runs to show")
	historyCmd.Flags().IntVar(&historyPruneFlag, "prune", 0, "Delete all but the newest N runs")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	path := historyPathFlag
	if path == "" {
		s, err := resolveSettings(historyConfigFlag, "", nil)
		if err != nil {
			return exitWith(ExitConfigError, err)
		}
		path = s.Config.History
	}
	if path == "" {
		path = history.DefaultPath
	}

	ctx := cmd.Context()
	store, err := history.Open(ctx, path)
	if err != nil {
		return exitWith(ExitConfigError, err)
	}
	defer store.Close()

	out := cmd.OutOrStdout()

	if historyPruneFlag > 0 {
		removed, err := store.Prune(ctx, historyPruneFlag)
		if err != nil {
			return exitWith(ExitConfigError, err)
		}
		fmt.Fprintf(out, "Removed %d runs\n", removed)
		return nil
	}

	if len(args) == 1 {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return exitWith(ExitUsageError, fmt.Errorf("invalid run id %q: %w", args[0], err))
		}
		run, err := store.Get(ctx, id)
		if errors.Is(err, history.ErrRunNotFound) {
			return exitWith(ExitUsageError, err)
		}
		if err != nil {
			return exitWith(ExitConfigError, err)
		}
		writeRun(out, run)
		return nil
	}

	runs, err := store.Recent(ctx, historyLimitFlag)
	if err != nil {
		return exitWith(ExitConfigError, err)
	}
	if len(runs) == 0 {
		fmt.Fprintf(out, "No runs recorded in %s\n", path)
		return nil
	}
	for _, run := range runs {
		fmt.Fprintf(out, "%s  %s  %3d passed %3d failed %3d skipped  %6dms  %s\n",
			run.ID, run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Passed, run.Failed, run.Skipped, run.Duration.Milliseconds(), run.BaseURL)
	}
	return nil
}

func writeRun(w io.Writer, run *history.Run) {
	fmt.Fprintf(w, "Run:      %s\n", run.ID)
	fmt.Fprintf(w, "Target:   %s\n", run.BaseURL)
	fmt.Fprintf(w, "Started:  %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Duration: %dms\n", run.Duration.Milliseconds())
	if run.Error != "" {
		fmt.Fprintf(w, "Error:    %s\n", run.Error)
	}
	fmt.Fprintln(w)
	for _, sc := range run.Scenarios {
		fmt.Fprintf(w, "  %d. %-22s %-8s", sc.Position, sc.Name, sc.Status)
		if sc.StatusCode != 0 {
			fmt.Fprintf(w, " %d", sc.StatusCode)
		}
		if sc.Message != "" {
			fmt.Fprintf(w, "  %s", sc.Message)
		}
		fmt.Fprintln(w)
	}
}
