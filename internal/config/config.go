package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath    = "config/voicebot.json"
	DefaultEnvPath = ".env"
)

type AppConfig struct {
	Logging  LoggingConfig `json:"logging" yaml:"logging"`
	Language string        `json:"language" yaml:"language"`
	Audio    AudioConfig   `json:"audio" yaml:"audio"`
	Gate     GateConfig    `json:"gate" yaml:"gate"`
	ASR      ASRConfig     `json:"asr" yaml:"asr"`
	Session  SessionConfig `json:"session" yaml:"session"`
	Wake     WakeConfig    `json:"wake" yaml:"wake"`
	Intent   IntentConfig  `json:"intent" yaml:"intent"`
	Metrics  MetricsConfig `json:"metrics" yaml:"metrics"`
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// AudioConfig 麦克风采集配置
type AudioConfig struct {
	SampleRate  int    `json:"sample_rate" yaml:"sample_rate"`
	Channels    int    `json:"channels" yaml:"channels"`
	FrameMs     int    `json:"frame_ms" yaml:"frame_ms"`
	CaptureRate int    `json:"capture_rate" yaml:"capture_rate"`
	QueueSize   int    `json:"queue_size" yaml:"queue_size"`
	QueuePolicy string `json:"queue_policy" yaml:"queue_policy"`
	InputDevice string `json:"input_device" yaml:"input_device"`
	HighLatency bool   `json:"high_latency" yaml:"high_latency"`
}

// GateConfig 语音活动检测配置
type GateConfig struct {
	Mode              string  `json:"mode" yaml:"mode"`
	VADAggressiveness int     `json:"vad_aggressiveness" yaml:"vad_aggressiveness"`
	NoiseThreshold    float64 `json:"noise_threshold" yaml:"noise_threshold"`
	VariationFloor    float64 `json:"variation_floor" yaml:"variation_floor"`
}

type ASRConfig struct {
	Backend    string            `json:"backend" yaml:"backend"`
	ModelPaths map[string]string `json:"model_paths" yaml:"model_paths"`
	DashScope  DashScopeConfig   `json:"dashscope" yaml:"dashscope"`
}

type DashScopeConfig struct {
	APIKey   string `json:"api_key" yaml:"api_key"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	Model    string `json:"model" yaml:"model"`
}

// SessionConfig 会话状态机的各类超时
type SessionConfig struct {
	WakeTimeoutMs      int `json:"wake_timeout_ms" yaml:"wake_timeout_ms"`
	CommandTimeoutMs   int `json:"command_timeout_ms" yaml:"command_timeout_ms"`
	SilenceTimeoutMs   int `json:"silence_timeout_ms" yaml:"silence_timeout_ms"`
	PollIntervalMs     int `json:"poll_interval_ms" yaml:"poll_interval_ms"`
	MinUtteranceLength int `json:"min_utterance_length" yaml:"min_utterance_length"`
}

type WakeConfig struct {
	Phrases           map[string][]string `json:"phrases" yaml:"phrases"`
	Fillers           []string            `json:"fillers" yaml:"fillers"`
	Phonetic          bool                `json:"phonetic" yaml:"phonetic"`
	PhoneticThreshold float64             `json:"phonetic_threshold" yaml:"phonetic_threshold"`
}

type IntentConfig struct {
	BaseConfidence    float64        `json:"base_confidence" yaml:"base_confidence"`
	LengthDivisor     float64        `json:"length_divisor" yaml:"length_divisor"`
	FallbackThreshold float64        `json:"fallback_threshold" yaml:"fallback_threshold"`
	Fallback          FallbackConfig `json:"fallback" yaml:"fallback"`
}

// FallbackConfig AI 兜底分类器配置
type FallbackConfig struct {
	Enabled   bool          `json:"enabled" yaml:"enabled"`
	Provider  string        `json:"provider" yaml:"provider"`
	APIKey    string        `json:"api_key" yaml:"api_key"`
	BaseURL   string        `json:"base_url" yaml:"base_url"`
	Model     string        `json:"model" yaml:"model"`
	TimeoutMs int           `json:"timeout_ms" yaml:"timeout_ms"`
	Breaker   BreakerConfig `json:"breaker" yaml:"breaker"`
}

type BreakerConfig struct {
	MaxFailures    int `json:"max_failures" yaml:"max_failures"`
	ResetTimeoutMs int `json:"reset_timeout_ms" yaml:"reset_timeout_ms"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Listen  string `json:"listen" yaml:"listen"`
}

func DefaultConfig() *AppConfig {
	return &AppConfig{
		Language: "en",
		Audio: AudioConfig{
			SampleRate:  16000,
			Channels:    1,
			FrameMs:     30,
			QueueSize:   100,
			QueuePolicy: "drop_oldest",
		},
		Gate: GateConfig{
			Mode:              "auto",
			VADAggressiveness: 2,
			NoiseThreshold:    0.01,
			VariationFloor:    0.005,
		},
		ASR: ASRConfig{
			Backend: "vosk",
			ModelPaths: map[string]string{
				"en": "vosk-model-small-en-us-0.15",
				"ar": "vosk-models/vosk-model-ar-0.22",
				"tn": "vosk-models/vosk-model-tn-0.22",
			},
			DashScope: DashScopeConfig{
				Model: "fun-asr-realtime",
			},
		},
		Session: SessionConfig{
			WakeTimeoutMs:      2000,
			CommandTimeoutMs:   8000,
			SilenceTimeoutMs:   1500,
			PollIntervalMs:     100,
			MinUtteranceLength: 2,
		},
		Wake: WakeConfig{
			Fillers:           []string{"um", "uh", "ah"},
			PhoneticThreshold: 0.88,
		},
		Intent: IntentConfig{
			BaseConfidence:    0.8,
			LengthDivisor:     100,
			FallbackThreshold: 0.6,
			Fallback: FallbackConfig{
				Enabled:   true,
				Provider:  "eino",
				BaseURL:   "https://generativelanguage.googleapis.com/v1beta/openai/",
				Model:     "gemini-1.5-flash",
				TimeoutMs: 4000,
				Breaker: BreakerConfig{
					MaxFailures:    5,
					ResetTimeoutMs: 30000,
				},
			},
		},
		Metrics: MetricsConfig{
			Listen: ":9464",
		},
	}
}

// Load 读取配置文件并叠加默认值与环境变量；文件不存在时只使用默认值
func Load(path string) (*AppConfig, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultPath
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.ApplyEnv()
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.ApplyEnv()
	return cfg, cfg.Validate()
}

// LoadDotEnv 把 .env 文件中的变量导入进程环境，已存在的变量不会被覆盖
// 文件不存在时什么也不做
func LoadDotEnv(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultEnvPath
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func decode(path string, data []byte, cfg *AppConfig) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		return dec.Decode(cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

func (c *AppConfig) ApplyEnv() {
	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		c.Logging.Level = level
	}
	if format := strings.TrimSpace(os.Getenv("LOG_FORMAT")); format != "" {
		c.Logging.Format = format
	}
	if lang := strings.TrimSpace(os.Getenv("LUCA_LANGUAGE")); lang != "" {
		c.Language = lang
	}
	if device := strings.TrimSpace(os.Getenv("LUCA_INPUT_DEVICE")); device != "" {
		c.Audio.InputDevice = device
	}

	modelEnv := map[string]string{
		"en": "VOSK_MODEL_PATH",
		"ar": "ARABIC_MODEL_PATH",
		"tn": "TUNISIAN_MODEL_PATH",
	}
	for lang, key := range modelEnv {
		if path := strings.TrimSpace(os.Getenv(key)); path != "" {
			if c.ASR.ModelPaths == nil {
				c.ASR.ModelPaths = map[string]string{}
			}
			c.ASR.ModelPaths[lang] = path
		}
	}

	if dash := strings.TrimSpace(os.Getenv("DASHSCOPE_API_KEY")); dash != "" {
		c.ASR.DashScope.APIKey = dash
	}

	if gemini := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); gemini != "" && strings.TrimSpace(c.Intent.Fallback.APIKey) == "" {
		c.Intent.Fallback.APIKey = gemini
	}
	if openaiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); openaiKey != "" && c.Intent.Fallback.Provider == "openai" {
		c.Intent.Fallback.APIKey = openaiKey
	}
}

func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Language) == "" {
		return errors.New("language must not be empty")
	}
	if c.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	// VAD 和识别器都只接受单声道 PCM
	if c.Audio.Channels != 1 {
		return fmt.Errorf("audio.channels must be 1 (mono), got %d", c.Audio.Channels)
	}
	if c.Audio.FrameMs <= 0 {
		return errors.New("audio.frame_ms must be positive")
	}
	if c.Audio.CaptureRate < 0 {
		return errors.New("audio.capture_rate must be non-negative")
	}
	if c.Audio.QueueSize <= 0 {
		return errors.New("audio.queue_size must be positive")
	}
	switch strings.ToLower(c.Audio.QueuePolicy) {
	case "", "drop_oldest", "block":
	default:
		return fmt.Errorf("invalid audio.queue_policy: %s", c.Audio.QueuePolicy)
	}

	switch strings.ToLower(c.Gate.Mode) {
	case "", "auto", "vad", "energy":
	default:
		return fmt.Errorf("invalid gate.mode: %s", c.Gate.Mode)
	}
	if c.Gate.VADAggressiveness < 0 || c.Gate.VADAggressiveness > 3 {
		return fmt.Errorf("gate.vad_aggressiveness must be in [0,3], got %d", c.Gate.VADAggressiveness)
	}
	if c.Gate.NoiseThreshold < 0 || c.Gate.NoiseThreshold > 1 {
		return errors.New("gate.noise_threshold must be in [0,1]")
	}
	if c.Gate.VariationFloor < 0 || c.Gate.VariationFloor > 1 {
		return errors.New("gate.variation_floor must be in [0,1]")
	}

	switch strings.ToLower(c.ASR.Backend) {
	case "vosk", "dashscope":
	default:
		return fmt.Errorf("invalid asr.backend: %s", c.ASR.Backend)
	}

	if c.Session.WakeTimeoutMs <= 0 || c.Session.CommandTimeoutMs <= 0 {
		return errors.New("session listen timeouts must be positive")
	}
	if c.Session.SilenceTimeoutMs <= 0 {
		return errors.New("session.silence_timeout_ms must be positive")
	}
	if c.Session.PollIntervalMs <= 0 {
		return errors.New("session.poll_interval_ms must be positive")
	}
	if c.Session.MinUtteranceLength < 0 {
		return errors.New("session.min_utterance_length must be non-negative")
	}

	if c.Wake.PhoneticThreshold < 0 || c.Wake.PhoneticThreshold > 1 {
		return errors.New("wake.phonetic_threshold must be in [0,1]")
	}

	if c.Intent.LengthDivisor <= 0 {
		return errors.New("intent.length_divisor must be positive")
	}
	if c.Intent.BaseConfidence < 0 || c.Intent.BaseConfidence > 1 {
		return errors.New("intent.base_confidence must be in [0,1]")
	}
	if c.Intent.FallbackThreshold < 0 || c.Intent.FallbackThreshold > 1 {
		return errors.New("intent.fallback_threshold must be in [0,1]")
	}
	switch strings.ToLower(c.Intent.Fallback.Provider) {
	case "eino", "openai":
	default:
		return fmt.Errorf("invalid intent.fallback.provider: %s", c.Intent.Fallback.Provider)
	}
	if c.Intent.Fallback.TimeoutMs < 0 {
		return errors.New("intent.fallback.timeout_ms must be non-negative")
	}

	return nil
}

// ValidateKeys 检查选中后端所需的凭据
func (c *AppConfig) ValidateKeys(requireASR, requireFallback bool) error {
	if requireASR && c.ASR.Backend == "dashscope" && strings.TrimSpace(c.ASR.DashScope.APIKey) == "" {
		return errors.New("asr dashscope api_key is required")
	}
	if requireFallback && c.Intent.Fallback.Enabled && strings.TrimSpace(c.Intent.Fallback.APIKey) == "" {
		return errors.New("intent fallback api_key is required")
	}
	return nil
}
