package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/storyspoiler/packages/assertions"
	"github.com/abdul-hamid-achik/storyspoiler/packages/auth"
	"github.com/abdul-hamid-achik/storyspoiler/packages/http"
	"github.com/abdul-hamid-achik/storyspoiler/packages/latency"
	"github.com/abdul-hamid-achik/storyspoiler/packages/story"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Skip reasons reported on scenarios that did not run.
const (
	SkipFiltered = "filtered out"
	SkipBail     = "bail: an earlier scenario failed"
)

type Runner struct {
	config    *Config
	scenarios []*Scenario
	logger    *zap.Logger
}

type Config struct {
	BaseURL     string
	Credentials auth.Credentials
	Timeout     time.Duration
	// Rate caps requests per second; zero sends them as fast as they come.
	Rate     float64
	Insecure bool
	Proxy    string
	Headers  map[string]string
	// StoryID seeds State so edit and delete can run without create.
	StoryID string
	// Cleanup deletes stories the run created but did not delete.
	Cleanup    bool
	Bail       bool
	NameFilter string
	Logger     *zap.Logger
	Observers  []http.Observer
}

func NewRunner(cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Runner{
		config:    cfg,
		scenarios: Scenarios(),
		logger:    logger(cfg),
	}
}

// Scenarios returns the runner's scenarios in declaration order.
func (r *Runner) Scenarios() []*Scenario {
	return r.scenarios
}

type SuiteResult struct {
	RunID     uuid.UUID
	BaseURL   string
	StartedAt time.Time
	Duration  time.Duration
	Results   []*ScenarioResult
	Passed    int
	Failed    int
	Skipped   int
	// Error is set when the suite could not start, e.g. on failed login.
	Error   error
	Cleanup []*CleanupResult
	Latency *latency.Report
}

// Success reports whether the suite ran and no scenario failed.
func (s *SuiteResult) Success() bool {
	return s.Error == nil && s.Failed == 0
}

type ScenarioResult struct {
	Order      int
	Name       string
	Method     string
	Endpoint   string
	Passed     bool
	Skipped    bool
	SkipReason string
	Duration   time.Duration
	Response   *http.Response
	Assertions []*assertions.Result
	Error      error
}

// CleanupResult records one leftover story deletion.
type CleanupResult struct {
	StoryID    string
	StatusCode int
	Error      error
}

func (c *CleanupResult) Deleted() bool {
	return c.Error == nil && c.StatusCode >= 200 && c.StatusCode < 300
}

// Run authenticates, executes the planned scenarios in order and releases
// the session. A login failure fails every scenario and is also returned.
func (r *Runner) Run(ctx context.Context) (*SuiteResult, error) {
	result := &SuiteResult{
		RunID:     uuid.New(),
		BaseURL:   r.config.BaseURL,
		StartedAt: time.Now(),
	}
	defer func() { result.Duration = time.Since(result.StartedAt) }()

	plan, err := Plan(r.scenarios)
	if err != nil {
		return nil, err
	}

	recorder := latency.NewRecorder()
	cfg := *r.config
	cfg.Observers = append(append([]http.Observer{}, r.config.Observers...), recorder.Observe)

	r.logger.Info("starting run",
		zap.String("runId", result.RunID.String()),
		zap.String("baseUrl", cfg.BaseURL),
		zap.Int("scenarios", len(plan)))

	session, err := OpenSession(ctx, &cfg)
	if err != nil {
		r.logger.Error("authentication failed", zap.Error(err))
		result.Error = err
		for _, sc := range plan {
			res := newResult(sc)
			res.Error = err
			result.Results = append(result.Results, res)
			result.Failed++
		}
		result.Latency = recorder.Report()
		return result, err
	}
	defer session.Close()

	state := NewState(cfg.StoryID)
	bailed := false

	for _, sc := range plan {
		res := newResult(sc)

		switch {
		case !matchesPattern(sc.Name, cfg.NameFilter):
			res.Skipped = true
			res.SkipReason = SkipFiltered
		case bailed:
			res.Skipped = true
			res.SkipReason = SkipBail
		default:
			r.execute(ctx, sc, session, state, res)
		}

		result.Results = append(result.Results, res)
		switch {
		case res.Skipped:
			result.Skipped++
		case res.Passed:
			result.Passed++
		default:
			result.Failed++
			if cfg.Bail {
				bailed = true
			}
		}
	}

	if cfg.Cleanup {
		result.Cleanup = r.cleanup(ctx, session, state)
	}

	result.Latency = recorder.Report()
	r.logger.Info("run finished",
		zap.Int("passed", result.Passed),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

func (r *Runner) execute(ctx context.Context, sc *Scenario, session *Session, state *State, res *ScenarioResult) {
	r.logger.Debug("scenario started", zap.String("scenario", sc.Name))
	if session.Expired() {
		r.logger.Warn("session token has expired, the service may reject the request",
			zap.String("scenario", sc.Name),
			zap.Time("expiresAt", session.Token.ExpiresAt))
	}

	start := time.Now()
	resp, results, err := sc.Run(ctx, session, state)
	res.Duration = time.Since(start)
	res.Response = resp
	res.Assertions = results
	res.Error = err
	res.Passed = err == nil && assertions.AllPassed(results)

	// Report the endpoint actually hit once the id is known.
	if id, idErr := state.StoryID(); idErr == nil {
		res.Endpoint = strings.ReplaceAll(res.Endpoint, "{id}", id)
	}

	fields := []zap.Field{
		zap.String("scenario", sc.Name),
		zap.Bool("passed", res.Passed),
		zap.Duration("duration", res.Duration),
	}
	if resp != nil {
		fields = append(fields, zap.Int("status", resp.StatusCode))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	r.logger.Debug("scenario finished", fields...)
}

// cleanup issues one delete per leftover story. Failures are recorded and
// logged, never retried.
func (r *Runner) cleanup(ctx context.Context, session *Session, state *State) []*CleanupResult {
	var results []*CleanupResult
	for _, id := range state.Leftovers() {
		cr := &CleanupResult{StoryID: id}
		resp, err := session.Client.Delete(ctx, story.DeletePath(id))
		if err != nil {
			cr.Error = err
		} else {
			cr.StatusCode = resp.StatusCode
		}

		if cr.Deleted() {
			r.logger.Info("cleaned up story", zap.String("storyId", id))
		} else {
			r.logger.Warn("cleanup failed",
				zap.String("storyId", id),
				zap.Int("status", cr.StatusCode),
				zap.Error(cr.Error))
		}
		results = append(results, cr)
	}
	return results
}

func newResult(sc *Scenario) *ScenarioResult {
	return &ScenarioResult{
		Order:    sc.Order,
		Name:     sc.Name,
		Method:   sc.Method,
		Endpoint: sc.Endpoint,
	}
}

// Plan returns scenarios in an order that runs every scenario after the ones
// it needs. Among scenarios that are ready at the same time, declaration
// order wins, so the result is deterministic.
func Plan(scenarios []*Scenario) ([]*Scenario, error) {
	index := make(map[string]int, len(scenarios))
	for i, sc := range scenarios {
		if _, dup := index[sc.Name]; dup {
			return nil, fmt.Errorf("duplicate scenario %q", sc.Name)
		}
		index[sc.Name] = i
	}

	inDegree := make([]int, len(scenarios))
	dependents := make([][]int, len(scenarios))
	for i, sc := range scenarios {
		for _, dep := range sc.Needs {
			j, ok := index[dep]
			if !ok {
				return nil, fmt.Errorf("scenario %q needs unknown scenario %q", sc.Name, dep)
			}
			dependents[j] = append(dependents[j], i)
			inDegree[i]++
		}
	}

	done := make([]bool, len(scenarios))
	sorted := make([]*Scenario, 0, len(scenarios))
	for len(sorted) < len(scenarios) {
		next := -1
		for i := range scenarios {
			if !done[i] && inDegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, fmt.Errorf("circular dependency detected in scenarios")
		}

		done[next] = true
		sorted = append(sorted, scenarios[next])
		for _, d := range dependents[next] {
			inDegree[d]--
		}
	}

	return sorted, nil
}

func matchesPattern(name, pattern string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}

	if pattern[0] == '*' && pattern[len(pattern)-1] == '*' {
		return strings.Contains(name, pattern[1:len(pattern)-1])
	}

	if pattern[0] == '*' {
		return strings.HasSuffix(name, pattern[1:])
	}

	if pattern[len(pattern)-1] == '*' {
		return strings.HasPrefix(name, pattern[:len(pattern)-1])
	}

	return name == pattern
}

// MatchesName reports whether a scenario named name passes the filter
// pattern. Empty and "*" patterns match everything.
func MatchesName(name, pattern string) bool {
	return matchesPattern(name, pattern)
}
