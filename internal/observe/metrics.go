// Package observe 语音管线的 OpenTelemetry 指标，以及 Prometheus 暴露端点
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/liuscraft/luca-voice"

// Metrics 管线各阶段的指标。nil *Metrics 上的 Record 方法都是空操作
type Metrics struct {
	AudioFrames      metric.Int64Counter
	FramesDropped    metric.Int64Counter
	WakeDetections   metric.Int64Counter
	Utterances       metric.Int64Counter
	PhaseTimeouts    metric.Int64Counter
	RecognizerErrors metric.Int64Counter
	Intents          metric.Int64Counter
	FallbackRequests metric.Int64Counter
	FallbackDuration metric.Float64Histogram
}

var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8,
}

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.AudioFrames, err = m.Int64Counter("luca.audio.frames",
		metric.WithDescription("Frames consumed by the session, by gate verdict."),
	); err != nil {
		return nil, err
	}
	if met.FramesDropped, err = m.Int64Counter("luca.audio.frames_dropped",
		metric.WithDescription("Frames evicted from the capture queue."),
	); err != nil {
		return nil, err
	}
	if met.WakeDetections, err = m.Int64Counter("luca.wake.detections",
		metric.WithDescription("Wake phrase detections by language."),
	); err != nil {
		return nil, err
	}
	if met.Utterances, err = m.Int64Counter("luca.session.utterances",
		metric.WithDescription("Finished utterances by phase."),
	); err != nil {
		return nil, err
	}
	if met.PhaseTimeouts, err = m.Int64Counter("luca.session.phase_timeouts",
		metric.WithDescription("Listening phases that ended without an utterance."),
	); err != nil {
		return nil, err
	}
	if met.RecognizerErrors, err = m.Int64Counter("luca.asr.errors",
		metric.WithDescription("Errors returned by the streaming recognizer."),
	); err != nil {
		return nil, err
	}
	if met.Intents, err = m.Int64Counter("luca.intent.classified",
		metric.WithDescription("Classified intents by label, source and language."),
	); err != nil {
		return nil, err
	}
	if met.FallbackRequests, err = m.Int64Counter("luca.intent.fallback.requests",
		metric.WithDescription("Fallback classifier calls by provider and status."),
	); err != nil {
		return nil, err
	}
	if met.FallbackDuration, err = m.Float64Histogram("luca.intent.fallback.duration",
		metric.WithDescription("Latency of fallback classifier calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	return met, nil
}

func (m *Metrics) RecordFrame(ctx context.Context, speech bool) {
	if m == nil {
		return
	}
	m.AudioFrames.Add(ctx, 1, metric.WithAttributes(attribute.Bool("speech", speech)))
}

func (m *Metrics) RecordDropped(ctx context.Context, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.FramesDropped.Add(ctx, n)
}

func (m *Metrics) RecordWake(ctx context.Context, language string) {
	if m == nil {
		return
	}
	m.WakeDetections.Add(ctx, 1, metric.WithAttributes(attribute.String("language", language)))
}

func (m *Metrics) RecordUtterance(ctx context.Context, phase string) {
	if m == nil {
		return
	}
	m.Utterances.Add(ctx, 1, metric.WithAttributes(attribute.String("phase", phase)))
}

func (m *Metrics) RecordPhaseTimeout(ctx context.Context, phase string) {
	if m == nil {
		return
	}
	m.PhaseTimeouts.Add(ctx, 1, metric.WithAttributes(attribute.String("phase", phase)))
}

func (m *Metrics) RecordRecognizerError(ctx context.Context) {
	if m == nil {
		return
	}
	m.RecognizerErrors.Add(ctx, 1)
}

func (m *Metrics) RecordIntent(ctx context.Context, label, source, language string) {
	if m == nil {
		return
	}
	m.Intents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("label", label),
		attribute.String("source", source),
		attribute.String("language", language),
	))
}

// RecordFallback counts one fallback call and observes its latency.
func (m *Metrics) RecordFallback(ctx context.Context, provider, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("status", status),
	)
	m.FallbackRequests.Add(ctx, 1, attrs)
	m.FallbackDuration.Record(ctx, elapsed.Seconds(), attrs)
}
