package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/storyspoiler/packages/core/runner"
	"github.com/abdul-hamid-achik/storyspoiler/packages/latency"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	RunID    string          `json:"runId,omitempty"`
	BaseURL  string          `json:"baseUrl,omitempty"`
	Summary  JSONSummary     `json:"summary"`
	Error    string          `json:"error,omitempty"`
	Tests    []JSONTest      `json:"tests"`
	Cleanup  []JSONCleanup   `json:"cleanup,omitempty"`
	Latency  *latency.Report `json:"latency,omitempty"`
	Duration float64         `json:"duration"`
	Time     string          `json:"time"`
}

// JSONSummary represents the test summary
type JSONSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// JSONTest represents a single scenario result
type JSONTest struct {
	Order      int             `json:"order"`
	Name       string          `json:"name"`
	Method     string          `json:"method"`
	Endpoint   string          `json:"endpoint"`
	Passed     bool            `json:"passed"`
	Skipped    bool            `json:"skipped,omitempty"`
	SkipReason string          `json:"skipReason,omitempty"`
	Duration   float64         `json:"duration"`
	Error      string          `json:"error,omitempty"`
	Response   *JSONResponse   `json:"response,omitempty"`
	Assertions []JSONAssertion `json:"assertions,omitempty"`
}

// JSONResponse represents response details
type JSONResponse struct {
	StatusCode int     `json:"statusCode"`
	Status     string  `json:"status"`
	Body       string  `json:"body,omitempty"`
	Duration   float64 `json:"duration"`
}

// JSONAssertion represents an assertion result
type JSONAssertion struct {
	Subject  string `json:"subject"`
	Operator string `json:"operator"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message,omitempty"`
}

// JSONCleanup represents one leftover story deletion
type JSONCleanup struct {
	StoryID    string `json:"storyId"`
	StatusCode int    `json:"statusCode,omitempty"`
	Deleted    bool   `json:"deleted"`
	Error      string `json:"error,omitempty"`
}

// JSONFormatter formats suite results as JSON
type JSONFormatter struct {
	writer io.Writer
	output JSONOutput
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
		output: JSONOutput{Tests: make([]JSONTest, 0)},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResult(result *runner.SuiteResult) {
	f.output.RunID = result.RunID.String()
	f.output.BaseURL = result.BaseURL
	f.output.Latency = result.Latency
	if result.Error != nil {
		f.output.Error = result.Error.Error()
	}

	for _, r := range result.Results {
		test := JSONTest{
			Order:    r.Order,
			Name:     r.Name,
			Method:   r.Method,
			Endpoint: r.Endpoint,
			Passed:   r.Passed,
			Skipped:  r.Skipped,
			Duration: ms(r.Duration),
		}

		if r.SkipReason != "" && r.SkipReason != runner.SkipFiltered {
			test.SkipReason = r.SkipReason
		}

		if r.Error != nil {
			test.Error = r.Error.Error()
		}

		if r.Response != nil {
			test.Response = &JSONResponse{
				StatusCode: r.Response.StatusCode,
				Status:     r.Response.Status,
				Body:       formatValue(r.Response.BodyString(), 1000),
				Duration:   ms(r.Response.Duration),
			}
		}

		for _, a := range r.Assertions {
			test.Assertions = append(test.Assertions, JSONAssertion{
				Subject:  a.Subject,
				Operator: a.Operator,
				Expected: a.Expected,
				Actual:   a.Actual,
				Passed:   a.Passed,
				Message:  a.Message,
			})
		}

		f.output.Tests = append(f.output.Tests, test)
	}

	for _, c := range result.Cleanup {
		jc := JSONCleanup{
			StoryID:    c.StoryID,
			StatusCode: c.StatusCode,
			Deleted:    c.Deleted(),
		}
		if c.Error != nil {
			jc.Error = c.Error.Error()
		}
		f.output.Cleanup = append(f.output.Cleanup, jc)
	}
}

func (f *JSONFormatter) FormatError(err error) {
	f.output.Error = err.Error()
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var summary JSONSummary
	for _, t := range f.output.Tests {
		switch {
		case t.Skipped:
			summary.Skipped++
		case t.Passed:
			summary.Passed++
		default:
			summary.Failed++
		}
	}
	summary.Total = len(f.output.Tests)

	f.output.Summary = summary
	f.output.Duration = ms(totalDuration)
	f.output.Time = time.Now().Format(time.RFC3339)

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(f.output)
}
