// Package latency records request durations for a suite run and summarizes
// them as percentiles.
package latency

import (
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	storyhttp "github.com/abdul-hamid-achik/storyspoiler/packages/http"
)

const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
	sigFigs      = 3
)

// Summary holds latency statistics for a set of requests
type Summary struct {
	Requests int64         `json:"requests"`
	Errors   int64         `json:"errors"`
	Min      time.Duration `json:"min"`
	Max      time.Duration `json:"max"`
	Mean     time.Duration `json:"mean"`
	P50      time.Duration `json:"p50"`
	P95      time.Duration `json:"p95"`
	P99      time.Duration `json:"p99"`
}

// Report is the overall summary plus one summary per endpoint.
type Report struct {
	Overall     Summary            `json:"overall"`
	ByEndpoint  map[string]Summary `json:"byEndpoint"`
	endpointIDs []string
}

// Endpoints returns endpoint keys in sorted order.
func (r *Report) Endpoints() []string {
	return r.endpointIDs
}

type series struct {
	histogram *hdrhistogram.Histogram
	errors    int64
}

func newSeries() *series {
	// 1us to 60s range, 3 significant digits
	return &series{histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, sigFigs)}
}

func (s *series) record(d time.Duration, failed bool) {
	if failed {
		s.errors++
		return
	}
	us := d.Microseconds()
	if us < minLatencyUs {
		us = minLatencyUs
	}
	if us > maxLatencyUs {
		us = maxLatencyUs
	}
	_ = s.histogram.RecordValue(us)
}

func (s *series) summary() Summary {
	h := s.histogram
	sum := Summary{
		Requests: h.TotalCount() + s.errors,
		Errors:   s.errors,
	}
	if h.TotalCount() == 0 {
		return sum
	}
	sum.Min = time.Duration(h.Min()) * time.Microsecond
	sum.Max = time.Duration(h.Max()) * time.Microsecond
	sum.Mean = time.Duration(h.Mean()) * time.Microsecond
	sum.P50 = time.Duration(h.ValueAtQuantile(50)) * time.Microsecond
	sum.P95 = time.Duration(h.ValueAtQuantile(95)) * time.Microsecond
	sum.P99 = time.Duration(h.ValueAtQuantile(99)) * time.Microsecond
	return sum
}

// Recorder collects request durations. Its Observe method plugs into the
// HTTP client as an observer.
type Recorder struct {
	mu        sync.Mutex
	overall   *series
	endpoints map[string]*series
}

func NewRecorder() *Recorder {
	return &Recorder{
		overall:   newSeries(),
		endpoints: make(map[string]*series),
	}
}

// Observe records one request. Transport errors count as errors and carry no latency.
func (r *Recorder) Observe(req *storyhttp.Request, resp *storyhttp.Response, err error) {
	key := EndpointKey(req.Method, req.URL)
	failed := err != nil || resp == nil

	var d time.Duration
	if resp != nil {
		d = resp.Duration
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.overall.record(d, failed)
	s, ok := r.endpoints[key]
	if !ok {
		s = newSeries()
		r.endpoints[key] = s
	}
	s.record(d, failed)
}

// Report summarizes everything recorded so far.
func (r *Recorder) Report() *Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	report := &Report{
		Overall:    r.overall.summary(),
		ByEndpoint: make(map[string]Summary, len(r.endpoints)),
	}
	for key, s := range r.endpoints {
		report.ByEndpoint[key] = s.summary()
		report.endpointIDs = append(report.endpointIDs, key)
	}
	sort.Strings(report.endpointIDs)
	return report
}

// EndpointKey groups requests by method and path, replacing the story id
// segment of edit and delete paths with {id}.
func EndpointKey(method, rawURL string) string {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		path = u.Path
	}
	for _, prefix := range []string{"/api/Story/Edit/", "/api/Story/Delete/"} {
		if strings.HasPrefix(path, prefix) {
			path = prefix + "{id}"
			break
		}
	}
	return method + " " + path
}
