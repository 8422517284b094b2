package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/abdul-hamid-achik/storyspoiler/packages/core/runner"
	"github.com/spf13/cobra"
)

var listNameFlag string

var listCmd = &cobra.Command{
	Use:   "list [scenario]",
	Short: "List the scenarios in execution order",
	Long: `List the scenarios in the order they run, with the scenarios each one
needs. With a scenario name, show that scenario in detail.

Examples:
  storyspoiler list
  storyspoiler list --name "*missing*"
  storyspoiler list edit-story`,
	Args: cobra.MaximumNArgs(1),
	RunE: listCommand,
}

func init() {
	listCmd.Flags().StringVarP(&listNameFlag, "name", "n", "", "Mark scenarios not matching name pattern as filtered")
}

func listCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		sc, err := runner.Lookup(runner.Scenarios(), args[0])
		if err != nil {
			return exitWith(ExitUsageError, err)
		}
		writeScenario(cmd.OutOrStdout(), sc)
		return nil
	}

	plan, err := runner.Plan(runner.Scenarios())
	if err != nil {
		return exitWith(ExitConfigError, err)
	}
	writePlan(cmd.OutOrStdout(), plan, listNameFlag)
	return nil
}

// writePlan prints one line per scenario in plan order.
func writePlan(w io.Writer, plan []*runner.Scenario, filter string) {
	for i, sc := range plan {
		fmt.Fprintf(w, "  %d. %-22s %-6s %s\n", i+1, sc.Name, sc.Method, sc.Endpoint)
		if len(sc.Needs) > 0 {
			fmt.Fprintf(w, "     needs: %s\n", strings.Join(sc.Needs, ", "))
		}
		if filter != "" && !runner.MatchesName(sc.Name, filter) {
			fmt.Fprintf(w, "     (filtered out)\n")
		}
	}
}

func writeScenario(w io.Writer, sc *runner.Scenario) {
	fmt.Fprintf(w, "%d. %s\n", sc.Order, sc.Name)
	fmt.Fprintf(w, "   %s %s\n", sc.Method, sc.Endpoint)
	if sc.Description != "" {
		fmt.Fprintf(w, "   %s\n", sc.Description)
	}
	if len(sc.Needs) > 0 {
		fmt.Fprintf(w, "   needs: %s\n", strings.Join(sc.Needs, ", "))
	}
}
