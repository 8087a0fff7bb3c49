// Package monitoring observes rpc frames as they are encoded, decoded and
// dispatched.
package monitoring

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Frame operations reported to hooks.
const (
	OpEncodeRequest  = "encode_request"
	OpDecodeRequest  = "decode_request"
	OpEncodeResponse = "encode_response"
	OpDecodeResponse = "decode_response"
	OpHandle         = "handle"
)

// Frame describes one rpc frame. Size is zero until the frame is encoded or
// known to have been read.
type Frame struct {
	Operation string
	Method    string
	Size      int
}

// Hook receives frame events.
type Hook interface {
	// Called before the frame is processed
	OnFrameStart(ctx context.Context, frame Frame)

	// Called after the frame is processed (success or failure)
	OnFrameComplete(ctx context.Context, frame Frame, duration time.Duration, err error)
}

// NoOpHook is a no-op implementation of Hook
type NoOpHook struct{}

func (NoOpHook) OnFrameStart(ctx context.Context, frame Frame) {}
func (NoOpHook) OnFrameComplete(ctx context.Context, frame Frame, duration time.Duration, err error) {
}

// LoggingHook logs frames with slog. Successful frames go to Debug and
// failures to Warn.
type LoggingHook struct {
	logger *slog.Logger
}

// NewLoggingHook creates a logging hook. A nil logger uses slog.Default().
func NewLoggingHook(logger *slog.Logger) *LoggingHook {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingHook{logger: logger}
}

func (l *LoggingHook) OnFrameStart(ctx context.Context, frame Frame) {
	l.logger.DebugContext(ctx, "frame started",
		slog.String("operation", frame.Operation),
		slog.String("method", frame.Method))
}

func (l *LoggingHook) OnFrameComplete(ctx context.Context, frame Frame, duration time.Duration, err error) {
	attrs := []any{
		slog.String("operation", frame.Operation),
		slog.String("method", frame.Method),
		slog.Int("size", frame.Size),
		slog.Duration("duration", duration),
	}
	if err != nil {
		l.logger.WarnContext(ctx, "frame rejected", append(attrs, slog.Any("error", err))...)
		return
	}
	l.logger.DebugContext(ctx, "frame completed", attrs...)
}

// MetricsHook turns frame events into counters, timings and size samples.
type MetricsHook struct {
	collector MetricsCollector
}

// NewMetricsHook creates a metrics hook. A nil collector discards everything.
func NewMetricsHook(collector MetricsCollector) *MetricsHook {
	if collector == nil {
		collector = NoOpMetricsCollector{}
	}
	return &MetricsHook{collector: collector}
}

func (m *MetricsHook) OnFrameStart(ctx context.Context, frame Frame) {
	m.collector.IncrementCounter("hprose.frames.started", map[string]string{"operation": frame.Operation})
}

func (m *MetricsHook) OnFrameComplete(ctx context.Context, frame Frame, duration time.Duration, err error) {
	tags := map[string]string{"operation": frame.Operation}
	if err != nil {
		m.collector.IncrementCounter("hprose.frames.failed", tags)
		m.collector.IncrementCounter("hprose.errors", map[string]string{
			"operation": frame.Operation,
			"error":     fmt.Sprintf("%T", err),
		})
	} else {
		m.collector.IncrementCounter("hprose.frames.succeeded", tags)
	}
	m.collector.RecordTiming("hprose.frames.duration", duration, tags)
	if frame.Size > 0 {
		m.collector.RecordValue("hprose.frames.bytes", float64(frame.Size), tags)
	}
}

// CompositeHook fans events out to several hooks in order.
type CompositeHook struct {
	hooks []Hook
}

// NewCompositeHook creates a new composite hook
func NewCompositeHook(hooks ...Hook) *CompositeHook {
	return &CompositeHook{hooks: hooks}
}

func (c *CompositeHook) OnFrameStart(ctx context.Context, frame Frame) {
	for _, hook := range c.hooks {
		hook.OnFrameStart(ctx, frame)
	}
}

func (c *CompositeHook) OnFrameComplete(ctx context.Context, frame Frame, duration time.Duration, err error) {
	for _, hook := range c.hooks {
		hook.OnFrameComplete(ctx, frame, duration, err)
	}
}

// Observe reports the start of frame to hook and returns a function that
// reports its completion. Size changes made through the returned pointer are
// included in the completion event.
func Observe(ctx context.Context, hook Hook, frame Frame) (*Frame, func(err error)) {
	start := time.Now()
	hook.OnFrameStart(ctx, frame)
	f := &frame
	return f, func(err error) {
		hook.OnFrameComplete(ctx, *f, time.Since(start), err)
	}
}
