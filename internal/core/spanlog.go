package core

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Span is one finished Browser operation as written by a SpanLog.
type Span struct {
	Op        string    `json:"op"`
	RequestID string    `json:"request_id,omitempty"`
	OK        bool      `json:"ok"`
	Err       string    `json:"err,omitempty"`
	Start     time.Time `json:"start"`
	ElapsedMS float64   `json:"elapsed_ms"`
}

// SpanLog is a Tracer that appends every finished span to an in-memory log
// and, when built with a writer, emits it as a JSON line.
type SpanLog struct {
	mu    sync.Mutex
	spans []Span
	out   *json.Encoder
}

// NewSpanLog writes spans to w. A nil w keeps them in memory only.
func NewSpanLog(w io.Writer) *SpanLog {
	l := &SpanLog{}
	if w != nil {
		l.out = json.NewEncoder(w)
	}
	return l
}

// Spans returns the finished spans, oldest first.
func (l *SpanLog) Spans() []Span {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Span(nil), l.spans...)
}

// Start implements Tracer. The span carries the request id found on ctx.
func (l *SpanLog) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &openSpan{log: l, span: Span{Op: operation, RequestID: RequestID(ctx), Start: time.Now().UTC()}}
}

func (l *SpanLog) add(s Span) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.spans = append(l.spans, s)
	if l.out != nil {
		_ = l.out.Encode(s)
	}
}

type openSpan struct {
	log  *SpanLog
	span Span
}

func (o *openSpan) End(err error) {
	s := o.span
	s.ElapsedMS = time.Since(s.Start).Seconds() * 1000
	s.OK = err == nil
	if err != nil {
		s.Err = err.Error()
	}
	o.log.add(s)
}
