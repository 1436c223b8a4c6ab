package core

import (
	"context"
	"time"
)

// Logger is the structured logging surface used by the Browser. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Clock supplies the current time for operation timing.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock. A nil ClockFunc reports UTC wall time.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time {
	if f == nil {
		return time.Now().UTC()
	}
	return f()
}

// MetricsRecorder observes the outcome and latency of Browser operations.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

// Tracer opens a span around each Browser operation.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is closed with the operation's error, nil on success.
type TraceSpan interface {
	End(err error)
}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// DefaultURLExpiry is the lifetime of presigned structure links in details.
const DefaultURLExpiry = 15 * time.Minute

// Option configures a Browser.
type Option func(*serviceOptions)

type serviceOptions struct {
	logger    Logger
	clock     Clock
	metrics   MetricsRecorder
	tracer    Tracer
	urlExpiry time.Duration
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		logger:    noopLogger{},
		clock:     ClockFunc(nil),
		metrics:   noopMetricsRecorder{},
		tracer:    noopTracer{},
		urlExpiry: DefaultURLExpiry,
	}
}

// WithLogger sets the operation logger. Nil keeps the no-op logger.
func WithLogger(l Logger) Option {
	return func(o *serviceOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the clock used to time operations.
func WithClock(c Clock) Option {
	return func(o *serviceOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithMetricsRecorder sets the recorder receiving per-operation outcomes.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(o *serviceOptions) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithTracer sets the span factory.
func WithTracer(t Tracer) Option {
	return func(o *serviceOptions) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithURLExpiry sets the lifetime of presigned structure links.
func WithURLExpiry(d time.Duration) Option {
	return func(o *serviceOptions) {
		if d > 0 {
			o.urlExpiry = d
		}
	}
}
