package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brunocuevas/nsdb/internal/blob"
	"github.com/brunocuevas/nsdb/internal/infra/catalog/memory"
	"github.com/brunocuevas/nsdb/internal/phylo"
	"github.com/brunocuevas/nsdb/internal/structure"
	"github.com/brunocuevas/nsdb/pkg/domain"
	"github.com/brunocuevas/nsdb/testutil/fixtures"
)

type metricsCall struct {
	op       string
	success  bool
	duration time.Duration
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, duration time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success, duration: duration})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type spanRecord struct {
	op  string
	err error
}

type captureTracer struct {
	started []string
	ended   []spanRecord
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	c.started = append(c.started, op)
	return ctx, &captureSpan{tracer: c, op: op}
}

func (c *captureTracer) has(op string, success bool) bool {
	for _, record := range c.ended {
		if record.op == op && (record.err == nil) == success {
			return true
		}
	}
	return false
}

type captureSpan struct {
	tracer *captureTracer
	op     string
}

func (s *captureSpan) End(err error) {
	s.tracer.ended = append(s.tracer.ended, spanRecord{op: s.op, err: err})
}

type logRecord struct {
	level string
	msg   string
	args  []any
}

type captureLogger struct {
	mu      sync.Mutex
	records []logRecord
}

func (l *captureLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, logRecord{level: level, msg: msg, args: args})
}

func (l *captureLogger) Debug(msg string, args ...any) { l.add("debug", msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.add("error", msg, args) }

func (l *captureLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, r := range l.records {
		if r.level == level {
			n++
		}
	}
	return n
}

// stubClock advances by step on every reading.
type stubClock struct {
	now  time.Time
	step time.Duration
}

func (c *stubClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

type presignStore struct {
	*blob.MemoryStore
	url string
	err error
}

func (s presignStore) PresignURL(_ context.Context, key string, _ blob.SignedURLOptions) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.url + key, nil
}

// headOnlyStore serves metadata but fails every download.
type headOnlyStore struct {
	*blob.MemoryStore
}

func (s headOnlyStore) Get(context.Context, string) (blob.Info, io.ReadCloser, error) {
	return blob.Info{}, nil, errors.New("download not expected")
}

func fixtureStore(t *testing.T) *blob.MemoryStore {
	t.Helper()
	store := blob.NewMemory()
	store.Add(fixtures.StructureFile, fixtures.Read(t, fixtures.StructureFile), "chemical/x-pdb")
	return store
}

func fixtureAnnotator(t *testing.T) *phylo.Annotator {
	t.Helper()
	tree, err := phylo.LoadReferenceTree(bytes.NewReader(fixtures.Read(t, fixtures.TreeFile)), fixtures.Outgroup)
	if err != nil {
		t.Fatalf("load tree: %v", err)
	}
	return phylo.NewAnnotator(tree, phylo.DefaultReferenceTips, phylo.DefaultReferenceNodes)
}

func newTestBrowser(t *testing.T, opts ...Option) *Browser {
	t.Helper()
	return newTestBrowserWithStore(t, fixtureStore(t), opts...)
}

func newTestBrowserWithStore(t *testing.T, store blob.Store, opts ...Option) *Browser {
	t.Helper()
	b := NewBrowser(memory.New(fixtures.Dataset()), structure.NewFetcher(store), fixtureAnnotator(t), opts...)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func ids(entries []domain.Entry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.ID
	}
	return strings.Join(parts, ",")
}
