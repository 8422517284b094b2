package output

import (
	"fmt"
	"io"
	"time"

	"github.com/abdul-hamid-achik/storyspoiler/packages/core/runner"
)

// Format names accepted by New.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
	FormatJUnit   = "junit"
	FormatTAP     = "tap"
)

// Formatter renders suite results.
type Formatter interface {
	FormatHeader(version string)
	FormatResult(result *runner.SuiteResult)
	FormatError(err error)
}

// Flushable is implemented by formatters that write everything at the end.
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// New returns the formatter for format writing to w.
func New(format string, w io.Writer, verbose, noColor bool) (Formatter, error) {
	switch format {
	case "", FormatConsole:
		return NewConsoleFormatter(WithWriter(w), WithVerbose(verbose), WithNoColor(noColor)), nil
	case FormatJSON:
		return NewJSONFormatter(JSONWithWriter(w)), nil
	case FormatJUnit:
		return NewJUnitFormatter(JUnitWithWriter(w)), nil
	case FormatTAP:
		return NewTAPFormatter(TAPWithWriter(w)), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want console, json, junit or tap)", format)
	}
}

// failureLines describes each failed assertion of r on one line.
func failureLines(r *runner.ScenarioResult) []string {
	var lines []string
	for _, a := range r.Assertions {
		if a.Passed {
			continue
		}
		line := fmt.Sprintf("%s %s: expected %v, got %v", a.Subject, a.Operator, a.Expected, formatValue(a.Actual, 100))
		lines = append(lines, line)
	}
	return lines
}

// formatValue formats a value for display, truncating long values
func formatValue(v any, maxLen int) string {
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
