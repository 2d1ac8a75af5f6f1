package intent

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/liuscraft/luca-voice/internal/logging"
	"github.com/liuscraft/luca-voice/internal/observe"
	"github.com/liuscraft/luca-voice/internal/resilience"
)

// Scoring 规则命中的置信度公式和兜底阈值
type Scoring struct {
	Base              float64
	Divisor           float64
	FallbackThreshold float64
}

func DefaultScoring() Scoring {
	return Scoring{Base: 0.8, Divisor: 100, FallbackThreshold: 0.6}
}

// score = min(1, base + length/divisor)
func (s Scoring) score(length int) float64 {
	if s.Divisor <= 0 {
		return clamp01(s.Base)
	}
	return clamp01(s.Base + float64(length)/s.Divisor)
}

const defaultFallbackTimeout = 4 * time.Second

type ClassifierConfig struct {
	Tables  map[string]*Table
	Scoring Scoring
	// Fallback is optional; nil disables the second stage.
	Fallback        Fallback
	FallbackTimeout time.Duration
	Breaker         *resilience.CircuitBreaker
	Metrics         *observe.Metrics
}

// Classifier 两级意图分类：规则表 + 可选 AI 兜底
type Classifier struct {
	tables   map[string]*Table
	scoring  Scoring
	fallback Fallback
	timeout  time.Duration
	breaker  *resilience.CircuitBreaker
	metrics  *observe.Metrics
}

func NewClassifier(cfg ClassifierConfig) *Classifier {
	if cfg.Scoring == (Scoring{}) {
		cfg.Scoring = DefaultScoring()
	}
	if cfg.FallbackTimeout <= 0 {
		cfg.FallbackTimeout = defaultFallbackTimeout
	}
	return &Classifier{
		tables:   cfg.Tables,
		scoring:  cfg.Scoring,
		fallback: cfg.Fallback,
		timeout:  cfg.FallbackTimeout,
		breaker:  cfg.Breaker,
		metrics:  cfg.Metrics,
	}
}

// Classify never fails: fallback problems are logged and the pattern result is kept.
func (c *Classifier) Classify(ctx context.Context, text, language string) Intent {
	table := c.tables[language]

	normalized := strings.ToLower(strings.TrimSpace(text))
	label, confidence := Unknown, 0.0
	if table != nil {
		normalized = table.Normalize(text)
		label, confidence = table.Match(normalized, c.scoring)
	} else {
		logging.Debugf("Classifier: no pattern table for language %q", language)
	}

	source := SourceNone
	if label != Unknown {
		source = SourcePattern
	}

	if label == Unknown || confidence < c.scoring.FallbackThreshold {
		if fbLabel, fbConf, ok := c.runFallback(ctx, text, language); ok && fbConf > confidence {
			logging.Infof("Classifier: fallback overrides %s(%.2f) with %s(%.2f)", label, confidence, fbLabel, fbConf)
			label, confidence, source = fbLabel, fbConf, SourceFallback
		}
	}

	entities := map[string]string{}
	if table != nil {
		entities = table.Entities(normalized)
	}

	result := Intent{
		Label:          label,
		Confidence:     clamp01(confidence),
		Entities:       entities,
		OriginalText:   text,
		NormalizedText: normalized,
		Language:       language,
		Source:         source,
	}
	c.metrics.RecordIntent(ctx, label.String(), string(source), language)
	logging.Infof("Classifier: %q -> %s (%.2f, %s)", text, result.Label, result.Confidence, result.Source)
	return result
}

func (c *Classifier) runFallback(ctx context.Context, text, language string) (Label, float64, bool) {
	if c.fallback == nil {
		return Unknown, 0, false
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		label      Label
		confidence float64
	)
	call := func() error {
		var err error
		label, confidence, err = c.fallback.Classify(callCtx, text, language)
		return err
	}

	start := time.Now()
	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(call)
	} else {
		err = call()
	}
	elapsed := time.Since(start)

	c.metrics.RecordFallback(ctx, c.fallback.Name(), fallbackStatus(err), elapsed)
	if err != nil {
		logging.Warnf("Classifier: fallback %s failed after %v: %v", c.fallback.Name(), elapsed.Round(time.Millisecond), err)
		return Unknown, 0, false
	}
	return label, clamp01(confidence), true
}

func fallbackStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrMalformedReply):
		return "malformed"
	default:
		return "error"
	}
}
