// Package app 把配置装配成一条完整的语音命令管线，并负责它的生命周期
//
// New builds every component from config. Tests and the offline CLI inject
// their own source, recognizer or fallback through options.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/sync/errgroup"

	"github.com/liuscraft/luca-voice/internal/asr"
	"github.com/liuscraft/luca-voice/internal/audio"
	"github.com/liuscraft/luca-voice/internal/audio/source"
	"github.com/liuscraft/luca-voice/internal/config"
	"github.com/liuscraft/luca-voice/internal/intent"
	"github.com/liuscraft/luca-voice/internal/logging"
	"github.com/liuscraft/luca-voice/internal/observe"
	"github.com/liuscraft/luca-voice/internal/resilience"
	"github.com/liuscraft/luca-voice/internal/tools"
	"github.com/liuscraft/luca-voice/internal/voicebot"
	"github.com/liuscraft/luca-voice/internal/wake"
)

const serviceName = "luca-voice"

// App owns the session, the action executor and the metrics endpoint.
type App struct {
	cfg      *config.AppConfig
	session  *voicebot.Session
	executor *tools.Executor
	out      io.Writer

	meterProvider *sdkmetric.MeterProvider
	metricsServer *http.Server

	stopOnce sync.Once
}

type options struct {
	source     audio.Source
	recognizer asr.StreamingRecognizer
	fallback   intent.Fallback
	out        io.Writer
}

// Option 注入替代组件（测试替身、文件音频源）
type Option func(*options)

func WithSource(src audio.Source) Option {
	return func(o *options) { o.source = src }
}

func WithRecognizer(rec asr.StreamingRecognizer) Option {
	return func(o *options) { o.recognizer = rec }
}

// WithFallback replaces the configured AI fallback classifier.
func WithFallback(fb intent.Fallback) Option {
	return func(o *options) { o.fallback = fb }
}

// WithOutput sets where recognized intents and replies are printed.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// New 按配置装配管线。识别模型不可用时直接返回 asr.ErrModelUnavailable
func New(ctx context.Context, cfg *config.AppConfig, opts ...Option) (*App, error) {
	o := &options{out: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{cfg: cfg, executor: tools.NewExecutor(), out: o.out}
	logging.SetLanguage(cfg.Language)

	var metrics *observe.Metrics
	if cfg.Metrics.Enabled {
		mp, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: serviceName})
		if err != nil {
			return nil, fmt.Errorf("init metrics: %w", err)
		}
		a.meterProvider = mp
		if metrics, err = observe.NewMetrics(mp); err != nil {
			return nil, a.abandon(ctx, fmt.Errorf("create instruments: %w", err), nil)
		}
		a.metricsServer = &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           observe.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	rec := o.recognizer
	if rec == nil {
		var err error
		rec, err = asr.New(asr.Config{
			Backend:    cfg.ASR.Backend,
			Language:   cfg.Language,
			SampleRate: cfg.Audio.SampleRate,
			ModelPaths: cfg.ASR.ModelPaths,
			DashScope: asr.DashScopeConfig{
				APIKey:   cfg.ASR.DashScope.APIKey,
				Endpoint: cfg.ASR.DashScope.Endpoint,
				Model:    cfg.ASR.DashScope.Model,
			},
		})
		if err != nil {
			return nil, a.abandon(ctx, err, nil)
		}
	}

	src := o.source
	if src == nil {
		mic, err := newMicrophone(cfg)
		if err != nil {
			return nil, a.abandon(ctx, err, rec)
		}
		src = mic
	}

	classifier, err := newClassifier(ctx, cfg, o.fallback, metrics)
	if err != nil {
		return nil, a.abandon(ctx, err, rec)
	}

	session, err := voicebot.New(voicebot.Config{
		Language:           cfg.Language,
		WakeTimeout:        ms(cfg.Session.WakeTimeoutMs),
		CommandTimeout:     ms(cfg.Session.CommandTimeoutMs),
		SilenceTimeout:     ms(cfg.Session.SilenceTimeoutMs),
		PollInterval:       ms(cfg.Session.PollIntervalMs),
		MinUtteranceLength: cfg.Session.MinUtteranceLength,
	}, voicebot.Deps{
		Source: src,
		Gate: audio.NewGate(audio.GateConfig{
			Mode:              cfg.Gate.Mode,
			SampleRate:        cfg.Audio.SampleRate,
			FrameMs:           cfg.Audio.FrameMs,
			VADAggressiveness: cfg.Gate.VADAggressiveness,
			NoiseThreshold:    cfg.Gate.NoiseThreshold,
			VariationFloor:    cfg.Gate.VariationFloor,
		}),
		Recognizer: rec,
		Wake: wake.NewDetector(wake.Config{
			Phrases:           cfg.Wake.Phrases,
			Fillers:           cfg.Wake.Fillers,
			Phonetic:          cfg.Wake.Phonetic,
			PhoneticThreshold: cfg.Wake.PhoneticThreshold,
		}),
		Classifier: classifier,
		Metrics:    metrics,
	})
	if err != nil {
		return nil, a.abandon(ctx, err, rec)
	}
	a.session = session
	a.subscribe()
	return a, nil
}

func newMicrophone(cfg *config.AppConfig) (*source.Microphone, error) {
	policy, err := audio.ParsePolicy(cfg.Audio.QueuePolicy)
	if err != nil {
		return nil, err
	}
	return source.NewMicrophone(source.MicrophoneConfig{
		SampleRate:  cfg.Audio.SampleRate,
		Channels:    cfg.Audio.Channels,
		FrameMs:     cfg.Audio.FrameMs,
		CaptureRate: cfg.Audio.CaptureRate,
		QueueSize:   cfg.Audio.QueueSize,
		Policy:      policy,
		Device:      cfg.Audio.InputDevice,
		HighLatency: cfg.Audio.HighLatency,
	})
}

func newClassifier(ctx context.Context, cfg *config.AppConfig, fb intent.Fallback, metrics *observe.Metrics) (*intent.Classifier, error) {
	tables, err := intent.DefaultTables()
	if err != nil {
		return nil, err
	}

	fbCfg := cfg.Intent.Fallback
	timeout := ms(fbCfg.TimeoutMs)
	if fb == nil && fbCfg.Enabled {
		llm, err := intent.NewFallback(ctx, intent.FallbackOptions{
			Provider: fbCfg.Provider,
			APIKey:   fbCfg.APIKey,
			BaseURL:  fbCfg.BaseURL,
			Model:    fbCfg.Model,
			Timeout:  timeout,
		}, tables)
		switch {
		case errors.Is(err, intent.ErrNoFallback):
			logging.Warnf("App: AI fallback disabled: %v", err)
		case err != nil:
			return nil, err
		default:
			fb = llm
		}
	}

	var breaker *resilience.CircuitBreaker
	if fb != nil {
		breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:         "fallback-" + fb.Name(),
			MaxFailures:  fbCfg.Breaker.MaxFailures,
			ResetTimeout: ms(fbCfg.Breaker.ResetTimeoutMs),
		})
		logging.Infof("App: AI fallback %s enabled (model=%s, timeout=%v)", fb.Name(), fbCfg.Model, timeout)
	}

	return intent.NewClassifier(intent.ClassifierConfig{
		Tables: tables,
		Scoring: intent.Scoring{
			Base:              cfg.Intent.BaseConfidence,
			Divisor:           cfg.Intent.LengthDivisor,
			FallbackThreshold: cfg.Intent.FallbackThreshold,
		},
		Fallback:        fb,
		FallbackTimeout: timeout,
		Breaker:         breaker,
		Metrics:         metrics,
	}), nil
}

func (a *App) subscribe() {
	bus := a.session.Events()
	bus.Subscribe(voicebot.EventTypeStateChanged, func(e voicebot.Event) {
		ev := e.(*voicebot.StateChangedEvent)
		logging.Debugf("App: state %s -> %s", ev.OldState, ev.NewState)
	})
	bus.Subscribe(voicebot.EventTypeWakeDetected, func(e voicebot.Event) {
		ev := e.(*voicebot.WakeDetectedEvent)
		if ev.Command != "" {
			logging.Infof("App: wake word with command %q", ev.Command)
			return
		}
		logging.Infof("App: wake word detected, listening for a command...")
	})
}

// Session exposes the underlying session.
func (a *App) Session() *voicebot.Session { return a.session }

// Run 启动会话并循环处理意图，直到 ctx 取消或会话出错
func (a *App) Run(ctx context.Context) error {
	return a.run(ctx, a.session.Listen, false)
}

// Transcribe 跳过唤醒词，逐句分类直到音频源结束（离线文件）
func (a *App) Transcribe(ctx context.Context) error {
	return a.run(ctx, func(ctx context.Context) (intent.Intent, error) {
		for {
			it, err := a.session.Command(ctx)
			if errors.Is(err, voicebot.ErrNoUtterance) {
				continue
			}
			return it, err
		}
	}, true)
}

// run drives next until it fails. When sourceEndOK is set, the source running
// dry ends the run normally.
func (a *App) run(ctx context.Context, next func(context.Context) (intent.Intent, error), sourceEndOK bool) error {
	if err := a.session.Start(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	if a.metricsServer != nil {
		srv := a.metricsServer
		g.Go(func() error {
			logging.Infof("App: metrics on http://%s/metrics", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer cancel()
		for {
			it, err := next(gctx)
			switch {
			case errors.Is(err, voicebot.ErrStopped), errors.Is(err, context.Canceled):
				return nil
			case errors.Is(err, voicebot.ErrSourceClosed) && sourceEndOK:
				logging.Infof("App: audio source finished")
				return nil
			case err != nil:
				return err
			}
			a.handle(gctx, it)
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.session.Stop()
	})

	return g.Wait()
}

func (a *App) handle(ctx context.Context, it intent.Intent) {
	fmt.Fprintf(a.out, "[%s %.2f %s] %q\n", it.Label, it.Confidence, it.Source, it.OriginalText)
	for name, value := range it.Entities {
		fmt.Fprintf(a.out, "  %s = %s\n", name, value)
	}

	res, err := a.executor.Execute(ctx, it)
	switch {
	case errors.Is(err, tools.ErrNotSupported), errors.Is(err, tools.ErrNotUnderstood):
		logging.Infof("App: %v", err)
	case err != nil:
		logging.Warnf("App: action %s failed: %v", it.Label, err)
	}
	if res.Reply != "" {
		fmt.Fprintf(a.out, "  -> %s\n", res.Reply)
	}
}

// Shutdown 停止会话并刷新指标
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	a.stopOnce.Do(func() {
		err = errors.Join(a.session.Stop(), a.shutdownMetrics(ctx))
	})
	return err
}

// abandon 释放 New 中途已创建的资源，清理失败也并入返回的错误
func (a *App) abandon(ctx context.Context, err error, rec asr.StreamingRecognizer) error {
	var closeErr error
	if rec != nil {
		closeErr = rec.Close()
	}
	return errors.Join(err, closeErr, a.shutdownMetrics(ctx))
}

func (a *App) shutdownMetrics(ctx context.Context) error {
	if a.meterProvider == nil {
		return nil
	}
	return a.meterProvider.Shutdown(ctx)
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
