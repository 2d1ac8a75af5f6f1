package asr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrModelUnavailable 识别模型（或云端凭据）不可用，启动时致命
	ErrModelUnavailable = errors.New("recognition model unavailable")
	ErrClosed           = errors.New("recognizer closed")
)

// StreamingRecognizer 流式语音识别边界
type StreamingRecognizer interface {
	// AcceptFrame feeds PCM and reports whether a final result is ready.
	AcceptFrame(pcm []byte) (bool, error)
	FinalResult() string
	PartialResult() string
	Reset()
	Close() error
}

type Config struct {
	Backend    string
	Language   string
	SampleRate int
	ModelPaths map[string]string
	DashScope  DashScopeConfig
}

// ModelError wraps ErrModelUnavailable with the language and path involved.
type ModelError struct {
	Language string
	Path     string
	Err      error
}

func (e *ModelError) Error() string {
	msg := fmt.Sprintf("%s for language %q", ErrModelUnavailable, e.Language)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path %q)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ModelError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrModelUnavailable}
	}
	return []error{ErrModelUnavailable, e.Err}
}

// New 按 backend 创建识别器；没有按语言回退
func New(cfg Config) (StreamingRecognizer, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	switch strings.ToLower(cfg.Backend) {
	case "", "vosk":
		path := cfg.ModelPaths[cfg.Language]
		if path == "" {
			return nil, &ModelError{Language: cfg.Language, Err: errors.New("no model path configured")}
		}
		return NewVoskRecognizer(cfg.Language, path, cfg.SampleRate)
	case "dashscope":
		ds := cfg.DashScope
		ds.SampleRate = cfg.SampleRate
		if len(ds.LanguageHints) == 0 {
			ds.LanguageHints = languageHints(cfg.Language)
		}
		rec, err := NewDashScopeRecognizer(ds)
		if err != nil {
			return nil, &ModelError{Language: cfg.Language, Err: err}
		}
		return rec, nil
	default:
		return nil, fmt.Errorf("asr: unknown backend %q", cfg.Backend)
	}
}

// languageHints maps pipeline languages to DashScope hint codes. Tunisian
// Derja is recognized with the Arabic model.
func languageHints(language string) []string {
	switch language {
	case "tn", "ar":
		return []string{"ar"}
	case "":
		return nil
	default:
		return []string{language}
	}
}
