package output

import (
	"fmt"
	"io"
	"os"

	"github.com/abdul-hamid-achik/storyspoiler/packages/core/runner"
	"github.com/abdul-hamid-achik/storyspoiler/packages/latency"
	"github.com/fatih/color"
)

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatResult(result *runner.SuiteResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n", bold("Running: "+result.BaseURL))
	if f.verbose {
		fmt.Fprintf(f.writer, "Run:     %s\n", result.RunID)
	}
	fmt.Fprintf(f.writer, "\n")

	if result.Error != nil {
		fmt.Fprintf(f.writer, "  %s %s\n\n", red("x"), red(result.Error.Error()))
	}

	for _, r := range result.Results {
		if r.Skipped {
			fmt.Fprintf(f.writer, "  %s %s", yellow("-"), r.Name)
			if r.SkipReason != "" && r.SkipReason != runner.SkipFiltered {
				fmt.Fprintf(f.writer, " (%s)", r.SkipReason)
			}
			fmt.Fprintf(f.writer, "\n")
			continue
		}

		if r.Error != nil {
			fmt.Fprintf(f.writer, "  %s %s %s\n", red("x"), r.Name, red(fmt.Sprintf("(%v)", r.Error)))
			continue
		}

		symbol := green("✓")
		if !r.Passed {
			symbol = red("✗")
		}

		fmt.Fprintf(f.writer, "  %s %s %s\n", symbol, r.Name, cyan(fmt.Sprintf("(%dms)", r.Duration.Milliseconds())))

		if f.verbose && r.Response != nil {
			fmt.Fprintf(f.writer, "    %s %s -> %d\n", r.Method, r.Endpoint, r.Response.StatusCode)
		}

		if !r.Passed {
			for _, a := range r.Assertions {
				if a.Passed {
					continue
				}
				fmt.Fprintf(f.writer, "    %s %s %s\n", red("→"), a.Subject, a.Operator)
				fmt.Fprintf(f.writer, "      Expected: %s\n", formatValue(a.Expected, 100))
				fmt.Fprintf(f.writer, "      Actual:   %s\n", formatValue(a.Actual, 100))
				if a.Message != "" {
					fmt.Fprintf(f.writer, "      %s\n", a.Message)
				}
			}
		}
	}

	if len(result.Cleanup) > 0 {
		fmt.Fprintf(f.writer, "\n%s\n", bold("Cleanup:"))
		for _, c := range result.Cleanup {
			switch {
			case c.Deleted():
				fmt.Fprintf(f.writer, "  %s deleted %s\n", green("✓"), c.StoryID)
			case c.Error != nil:
				fmt.Fprintf(f.writer, "  %s %s (%v)\n", yellow("!"), c.StoryID, c.Error)
			default:
				fmt.Fprintf(f.writer, "  %s %s (status %d)\n", yellow("!"), c.StoryID, c.StatusCode)
			}
		}
	}

	if f.verbose && result.Latency != nil && result.Latency.Overall.Requests > 0 {
		f.formatLatency(result.Latency)
	}

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Tests: ")
	if result.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", result.Passed)))
	}
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", result.Failed)))
	}
	if result.Skipped > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d skipped", result.Skipped)))
	}
	total := result.Passed + result.Failed + result.Skipped
	fmt.Fprintf(f.writer, "%d total\n", total)
	fmt.Fprintf(f.writer, "Time:  %dms\n", result.Duration.Milliseconds())
	fmt.Fprintf(f.writer, "\n")
}

func (f *ConsoleFormatter) formatLatency(report *latency.Report) {
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n", bold("Latency:"))
	fmt.Fprintf(f.writer, "  %-32s %4s %8s %8s %8s\n", "endpoint", "n", "p50", "p95", "max")
	row := func(name string, s latency.Summary) {
		fmt.Fprintf(f.writer, "  %-32s %4d %7.1fms %7.1fms %7.1fms\n", name, s.Requests, ms(s.P50), ms(s.P95), ms(s.Max))
	}
	for _, key := range report.Endpoints() {
		row(key, report.ByEndpoint[key])
	}
	row("all", report.Overall)
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("storyspoiler"), version)
}
