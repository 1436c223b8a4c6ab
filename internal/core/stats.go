package core

import (
	"context"
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var statsSeq atomic.Uint64

// OpStats aggregates the calls of one Browser operation.
type OpStats struct {
	Calls     int64   `json:"calls"`
	Failures  int64   `json:"failures"`
	TotalMS   float64 `json:"total_ms"`
	SlowestMS float64 `json:"slowest_ms"`
}

// BrowserStats is a point-in-time copy of a StatsRecorder.
type BrowserStats struct {
	Operations map[string]OpStats `json:"operations"`
	Since      time.Time          `json:"since"`
	TakenAt    time.Time          `json:"taken_at"`
}

// StatsRecorder keeps per-operation call counts and latencies and serves
// them as one expvar under /debug/vars.
type StatsRecorder struct {
	name  string
	since time.Time

	mu  sync.Mutex
	ops map[string]*OpStats
}

// NewStatsRecorder publishes a recorder as the expvar name. An empty name
// picks nsdb_browser_stats_<n>. expvar panics on a reused name.
func NewStatsRecorder(name string) *StatsRecorder {
	if name == "" {
		name = fmt.Sprintf("nsdb_browser_stats_%d", statsSeq.Add(1))
	}
	r := &StatsRecorder{name: name, since: time.Now().UTC(), ops: make(map[string]*OpStats)}
	expvar.Publish(name, expvar.Func(func() any { return r.Stats() }))
	return r
}

// Name is the expvar key.
func (r *StatsRecorder) Name() string { return r.name }

// Observe implements MetricsRecorder. Calls without an operation are dropped.
func (r *StatsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	ms := duration.Seconds() * 1000

	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.ops[operation]
	if !ok {
		st = &OpStats{}
		r.ops[operation] = st
	}
	st.Calls++
	if !success {
		st.Failures++
	}
	st.TotalMS += ms
	st.SlowestMS = max(st.SlowestMS, ms)
}

// Stats copies the current counters.
func (r *StatsRecorder) Stats() BrowserStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make(map[string]OpStats, len(r.ops))
	for op, st := range r.ops {
		ops[op] = *st
	}
	return BrowserStats{Operations: ops, Since: r.since, TakenAt: time.Now().UTC()}
}

// Recorders fans each observation out to every recorder in order.
type Recorders []MetricsRecorder

// Observe implements MetricsRecorder.
func (rs Recorders) Observe(ctx context.Context, operation string, success bool, duration time.Duration) {
	for _, r := range rs {
		r.Observe(ctx, operation, success, duration)
	}
}
