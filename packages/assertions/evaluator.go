package assertions

import (
	"fmt"
	"net/http"
	"strings"

	storyhttp "github.com/abdul-hamid-achik/storyspoiler/packages/http"
	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

const (
	OpEquals   = "=="
	OpContains = "contains"
	OpNotEmpty = "not empty"
	OpMinLen   = "length >="
	OpSchema   = "schema"
)

type Result struct {
	Passed   bool
	Message  string
	Expected any
	Actual   any
	Subject  string
	Operator string
}

type Evaluator struct {
	response *storyhttp.Response
	bodyJSON gjson.Result
}

func NewEvaluator(resp *storyhttp.Response) *Evaluator {
	e := &Evaluator{
		response: resp,
	}
	if gjson.ValidBytes(resp.Body) {
		e.bodyJSON = gjson.ParseBytes(resp.Body)
	}
	return e
}

// Status checks the response status code.
func (e *Evaluator) Status(expected int) *Result {
	result := &Result{
		Subject:  "status",
		Operator: OpEquals,
		Expected: expected,
		Actual:   e.response.StatusCode,
	}
	if e.response.StatusCode == expected {
		result.Passed = true
		return result
	}
	result.Message = fmt.Sprintf("expected %d %s, got %d: %s",
		expected, http.StatusText(expected), e.response.StatusCode, truncate(e.response.BodyString(), 200))
	return result
}

// BodyContains checks that the raw body contains substr.
func (e *Evaluator) BodyContains(substr string) *Result {
	body := e.response.BodyString()
	result := &Result{
		Subject:  "body",
		Operator: OpContains,
		Expected: substr,
		Actual:   truncate(body, 200),
	}
	if strings.Contains(body, substr) {
		result.Passed = true
		return result
	}
	result.Message = fmt.Sprintf("expected '%s' to contain '%s'", truncate(body, 200), substr)
	return result
}

// BodyNotEmpty checks that the body has non-whitespace content.
func (e *Evaluator) BodyNotEmpty() *Result {
	result := &Result{
		Subject:  "body",
		Operator: OpNotEmpty,
		Expected: "non-empty body",
		Actual:   len(e.response.Body),
	}
	if !e.response.IsEmpty() {
		result.Passed = true
		return result
	}
	result.Message = "response body is empty"
	return result
}

// MinLength checks that the body is a JSON array with at least min elements.
func (e *Evaluator) MinLength(min int) *Result {
	result := &Result{
		Subject:  "body",
		Operator: OpMinLen,
		Expected: min,
	}
	if !e.bodyJSON.IsArray() {
		result.Actual = "not a JSON array"
		result.Message = "response body is not a JSON array"
		return result
	}
	n := len(e.bodyJSON.Array())
	result.Actual = n
	if n >= min {
		result.Passed = true
		return result
	}
	result.Message = fmt.Sprintf("expected at least %d items, got %d", min, n)
	return result
}

// Schema validates the body against a JSON schema document.
func (e *Evaluator) Schema(schema string) *Result {
	result := &Result{
		Subject:  "body",
		Operator: OpSchema,
		Expected: "valid against schema",
	}

	if !e.bodyJSON.Exists() {
		result.Actual = "not JSON"
		result.Message = "response body is not JSON"
		return result
	}

	validation, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(e.response.Body),
	)
	if err != nil {
		result.Actual = "error"
		result.Message = fmt.Sprintf("schema validation error: %v", err)
		return result
	}

	if validation.Valid() {
		result.Actual = "valid"
		result.Passed = true
		return result
	}

	var errs []string
	for _, desc := range validation.Errors() {
		errs = append(errs, desc.String())
	}
	result.Actual = "invalid"
	result.Message = fmt.Sprintf("schema validation failed: %s", strings.Join(errs, "; "))
	return result
}

// AllPassed reports whether every result passed.
func AllPassed(results []*Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// Failed returns the results that did not pass.
func Failed(results []*Result) []*Result {
	var failed []*Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
