package voicebot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/liuscraft/luca-voice/internal/asr"
	"github.com/liuscraft/luca-voice/internal/audio"
	"github.com/liuscraft/luca-voice/internal/intent"
	"github.com/liuscraft/luca-voice/internal/logging"
	"github.com/liuscraft/luca-voice/internal/observe"
)

var (
	// ErrStopped is returned by Listen once Stop has been called.
	ErrStopped = errors.New("session stopped")
	// ErrSourceClosed 帧通道在监听中关闭（设备拔出等）
	ErrSourceClosed = fmt.Errorf("audio source closed: %w", audio.ErrStreamFailure)
	ErrNotStarted   = errors.New("session not started")
	// ErrNoUtterance is returned by Command when the phase ends without speech.
	ErrNoUtterance = errors.New("no utterance")
)

// WakeDetector 唤醒词检测
type WakeDetector interface {
	Matches(text, language string) bool
	IsWakeOnly(text, language string) bool
	Strip(text, language string) string
}

// Classifier 意图分类
type Classifier interface {
	Classify(ctx context.Context, text, language string) intent.Intent
}

// droppedCounter is implemented by sources that evict frames under backpressure.
type droppedCounter interface {
	Dropped() int64
}

// Config 会话参数
type Config struct {
	Language           string
	WakeTimeout        time.Duration
	CommandTimeout     time.Duration
	SilenceTimeout     time.Duration
	PollInterval       time.Duration
	MinUtteranceLength int
}

func DefaultConfig() Config {
	return Config{
		Language:           "en",
		WakeTimeout:        2 * time.Second,
		CommandTimeout:     8 * time.Second,
		SilenceTimeout:     1500 * time.Millisecond,
		PollInterval:       100 * time.Millisecond,
		MinUtteranceLength: 2,
	}
}

// Deps 会话依赖，全部以接口注入
type Deps struct {
	Source     audio.Source
	Gate       audio.Gate
	Recognizer asr.StreamingRecognizer
	Wake       WakeDetector
	Classifier Classifier
	// Optional.
	Bus     EventBus
	Metrics *observe.Metrics
}

// Session 唤醒词 + 命令识别会话
//
// Listen must be called from a single goroutine. Stop may be called from any
// goroutine and makes Listen return ErrStopped within one poll interval.
type Session struct {
	cfg  Config
	deps Deps

	sm  *StateMachine
	acc *Accumulator
	bus EventBus

	stopped  atomic.Bool
	done     chan struct{}
	stopOnce sync.Once
	// stopCtx is cancelled by Stop; it aborts in-flight classification.
	stopCtx    context.Context
	stopCancel context.CancelFunc

	sourceClosed bool
	lastDropped  int64
}

func New(cfg Config, deps Deps) (*Session, error) {
	if deps.Source == nil || deps.Gate == nil || deps.Recognizer == nil || deps.Wake == nil || deps.Classifier == nil {
		return nil, errors.New("session: source, gate, recognizer, wake detector and classifier are required")
	}
	def := DefaultConfig()
	if cfg.Language == "" {
		cfg.Language = def.Language
	}
	if cfg.WakeTimeout <= 0 {
		cfg.WakeTimeout = def.WakeTimeout
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = def.CommandTimeout
	}
	if cfg.SilenceTimeout <= 0 {
		cfg.SilenceTimeout = def.SilenceTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.MinUtteranceLength < 0 {
		cfg.MinUtteranceLength = 0
	}

	bus := deps.Bus
	if bus == nil {
		bus = NewEventBus()
	}
	stopCtx, stopCancel := context.WithCancel(context.Background())
	return &Session{
		cfg:        cfg,
		deps:       deps,
		sm:         NewStateMachine(),
		acc:        NewAccumulator(cfg.SilenceTimeout),
		bus:        bus,
		done:       make(chan struct{}),
		stopCtx:    stopCtx,
		stopCancel: stopCancel,
	}, nil
}

// Events exposes the bus so observers can subscribe.
func (s *Session) Events() EventBus { return s.bus }

func (s *Session) State() State { return s.sm.GetCurrentState() }

// Start 打开音频源并进入 WAKE_LISTEN
func (s *Session) Start(ctx context.Context) error {
	if s.stopped.Load() {
		return ErrStopped
	}
	if s.State() != StateIdle {
		return fmt.Errorf("session: cannot start from %s", s.State())
	}
	if err := s.deps.Source.Open(ctx); err != nil {
		logging.Errorf("Session: failed to open audio source: %v", err)
		return err
	}
	logging.Infof("Session: started (language=%s)", s.cfg.Language)
	s.transitionTo(StateWakeListen)
	return nil
}

// Stop 任意状态进入 STOPPED，关闭音频源和识别器；可重复调用
func (s *Session) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		close(s.done)
		s.stopCancel()
		s.transitionTo(StateStopped)

		if closeErr := s.deps.Source.Close(); closeErr != nil {
			logging.Errorf("Session: error closing audio source: %v", closeErr)
			err = closeErr
		}
		if closeErr := s.deps.Recognizer.Close(); closeErr != nil {
			logging.Errorf("Session: error closing recognizer: %v", closeErr)
			err = errors.Join(err, closeErr)
		}
		logging.Infof("Session: stopped")
	})
	return err
}

// bindStop derives a context that Stop also cancels.
func (s *Session) bindStop(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	unbind := context.AfterFunc(s.stopCtx, cancel)
	return ctx, func() {
		unbind()
		cancel()
	}
}

// phaseErr reports ErrStopped for errors caused by Stop cancelling the phase.
func (s *Session) phaseErr(err error) error {
	if s.stopped.Load() {
		return ErrStopped
	}
	return err
}

// Listen 运行监听阶段直到产出一个意图
func (s *Session) Listen(ctx context.Context) (intent.Intent, error) {
	ctx, cancel := s.bindStop(ctx)
	defer cancel()
	for {
		if s.stopped.Load() {
			return intent.Intent{}, ErrStopped
		}
		if s.sourceClosed {
			return intent.Intent{}, ErrSourceClosed
		}
		if err := ctx.Err(); err != nil {
			return intent.Intent{}, err
		}

		var (
			result intent.Intent
			ok     bool
			err    error
		)
		switch state := s.State(); state {
		case StateWakeListen:
			result, ok, err = s.wakePhase(ctx)
		case StateCommandListen:
			result, ok, err = s.commandPhase(ctx)
		case StateIdle:
			return intent.Intent{}, ErrNotStarted
		default:
			return intent.Intent{}, ErrStopped
		}
		if err != nil {
			return intent.Intent{}, s.phaseErr(err)
		}
		if ok {
			return s.emit(result)
		}
	}
}

// Command 跳过唤醒词，直接跑一轮 COMMAND_LISTEN（离线转写、按键说话）
func (s *Session) Command(ctx context.Context) (intent.Intent, error) {
	if s.stopped.Load() {
		return intent.Intent{}, ErrStopped
	}
	if s.State() == StateWakeListen {
		s.transitionTo(StateCommandListen)
	}
	if s.State() != StateCommandListen {
		return intent.Intent{}, ErrNotStarted
	}
	ctx, cancel := s.bindStop(ctx)
	defer cancel()
	for {
		if s.sourceClosed {
			return intent.Intent{}, ErrSourceClosed
		}
		result, ok, err := s.commandPhase(ctx)
		if err != nil {
			return intent.Intent{}, s.phaseErr(err)
		}
		if ok {
			return s.emit(result)
		}
		if s.State() != StateCommandListen {
			if s.sourceClosed {
				return intent.Intent{}, ErrSourceClosed
			}
			return intent.Intent{}, ErrNoUtterance
		}
	}
}

func (s *Session) emit(result intent.Intent) (intent.Intent, error) {
	if s.stopped.Load() {
		return intent.Intent{}, ErrStopped
	}
	s.bus.Publish(NewIntentRecognizedEvent(result))
	return result, nil
}

func (s *Session) wakePhase(ctx context.Context) (intent.Intent, bool, error) {
	lang := s.cfg.Language
	logging.StartPhase("wake")

	text, err := s.collect(ctx, s.cfg.WakeTimeout, func(text string) bool {
		return s.deps.Wake.Matches(text, lang)
	})
	if err != nil {
		return intent.Intent{}, false, err
	}
	if text == "" {
		return intent.Intent{}, false, nil
	}
	s.finishedUtterance(ctx, StateWakeListen, text)
	if !s.deps.Wake.Matches(text, lang) {
		logging.Debugf("Session: %q is not a wake phrase", text)
		return intent.Intent{}, false, nil
	}

	command := s.deps.Wake.Strip(text, lang)
	// Strip returns the whole text when it cannot locate the phrase span
	stripped := !strings.EqualFold(command, strings.Join(strings.Fields(text), " "))
	direct := stripped && utf8.RuneCountInString(command) >= s.minLength()
	logging.Infof("Session: wake phrase detected in %q", text)
	s.deps.Metrics.RecordWake(ctx, lang)
	if direct {
		s.bus.Publish(NewWakeDetectedEvent(text, lang, command))
		return s.deps.Classifier.Classify(ctx, command, lang), true, nil
	}
	s.bus.Publish(NewWakeDetectedEvent(text, lang, ""))
	s.transitionTo(StateCommandListen)
	return intent.Intent{}, false, nil
}

func (s *Session) commandPhase(ctx context.Context) (intent.Intent, bool, error) {
	lang := s.cfg.Language
	logging.StartPhase("command")

	text, err := s.collect(ctx, s.cfg.CommandTimeout, nil)
	if err != nil {
		return intent.Intent{}, false, err
	}
	s.finishedUtterance(ctx, StateCommandListen, text)

	switch {
	case text == "":
		logging.Infof("Session: no command heard, back to wake listening")
		s.deps.Metrics.RecordPhaseTimeout(ctx, StateCommandListen.String())
		s.transitionTo(StateWakeListen)
		return intent.Intent{}, false, nil
	case s.deps.Wake.IsWakeOnly(text, lang):
		logging.Infof("Session: wake phrase only, still listening for a command")
		return intent.Intent{}, false, nil
	case utf8.RuneCountInString(text) < s.minLength():
		logging.Infof("Session: utterance %q too short, back to wake listening", text)
		s.transitionTo(StateWakeListen)
		return intent.Intent{}, false, nil
	}

	command := text
	if s.deps.Wake.Matches(text, lang) {
		if stripped := s.deps.Wake.Strip(text, lang); utf8.RuneCountInString(stripped) >= s.minLength() {
			command = stripped
		}
	}
	result := s.deps.Classifier.Classify(ctx, command, lang)
	s.transitionTo(StateWakeListen)
	return result, true, nil
}

// collect 跑一轮帧循环，直到累加器结束、done 返回 true、停止或 ctx 取消
func (s *Session) collect(ctx context.Context, hardTimeout time.Duration, done func(text string) bool) (string, error) {
	s.acc.Reset(time.Now(), hardTimeout)
	s.deps.Recognizer.Reset()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	frames := s.deps.Source.Frames()

	for {
		if s.stopped.Load() {
			return "", ErrStopped
		}
		select {
		case <-s.done:
			return "", ErrStopped
		case <-ctx.Done():
			return "", s.phaseErr(ctx.Err())
		case frame, ok := <-frames:
			if !ok {
				if s.stopped.Load() {
					return "", ErrStopped
				}
				logging.Warnf("Session: audio source closed while listening")
				s.sourceClosed = true
				return s.acc.Finish(), nil
			}
			if s.handleFrame(ctx, frame) && done != nil && done(s.acc.Text()) {
				return s.acc.Finish(), nil
			}
		case <-ticker.C:
			s.recordDropped(ctx)
		}
		if text, finished := s.acc.Tick(time.Now()); finished {
			return text, nil
		}
	}
}

// handleFrame feeds speech frames to the recognizer and reports whether a
// final fragment was added.
func (s *Session) handleFrame(ctx context.Context, frame audio.Frame) bool {
	speech := s.deps.Gate.IsSpeech(frame)
	s.deps.Metrics.RecordFrame(ctx, speech)
	if !speech {
		return false
	}

	now := time.Now()
	final, err := s.deps.Recognizer.AcceptFrame(frame.Data)
	if err != nil {
		logging.Warnf("Session: recognizer error: %v", err)
		s.deps.Metrics.RecordRecognizerError(ctx)
		return false
	}
	if final {
		text := s.deps.Recognizer.FinalResult()
		if text == "" {
			return false
		}
		logging.Debugf("Session: final fragment %q", text)
		s.acc.Add(text, now)
		return true
	}
	s.acc.Observe(s.deps.Recognizer.PartialResult(), now)
	return false
}

func (s *Session) recordDropped(ctx context.Context) {
	dc, ok := s.deps.Source.(droppedCounter)
	if !ok {
		return
	}
	total := dc.Dropped()
	if delta := total - s.lastDropped; delta > 0 {
		logging.Warnf("Session: %d frames dropped, consumer is falling behind", delta)
		s.deps.Metrics.RecordDropped(ctx, delta)
	}
	s.lastDropped = total
}

func (s *Session) finishedUtterance(ctx context.Context, phase State, text string) {
	if text != "" {
		logging.Infof("Session: utterance finished in %s: %q", phase, text)
		s.deps.Metrics.RecordUtterance(ctx, phase.String())
	}
	s.bus.Publish(NewUtteranceFinishedEvent(phase, text))
}

func (s *Session) minLength() int {
	if s.cfg.MinUtteranceLength <= 0 {
		return 1
	}
	return s.cfg.MinUtteranceLength
}

func (s *Session) transitionTo(to State) {
	if from, ok := s.sm.Transition(to); ok {
		logging.Debugf("Session: %s -> %s", from, to)
		s.bus.Publish(NewStateChangedEvent(from, to))
	}
}
