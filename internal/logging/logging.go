package logging

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config 日志配置
type Config struct {
	Level  string
	Format string
}

var (
	baseLogger *zap.Logger
	sugar      *zap.SugaredLogger
	traceID    atomic.Value
	phaseID    uint64
	phaseName  atomic.Value
	language   atomic.Value
)

func init() {
	baseLogger = zap.NewNop()
	sugar = baseLogger.Sugar()
}

// Init 按配置构建全局 logger，format 支持 console / json
func Init(cfg Config) error {
	level := strings.ToLower(strings.TrimSpace(cfg.Level))
	if level == "" {
		level = "info"
	}

	format := strings.ToLower(strings.TrimSpace(cfg.Format))
	if format == "" {
		format = "console"
	}

	var zapCfg zap.Config
	switch format {
	case "json":
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "ts"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	default:
		return fmt.Errorf("invalid log format: %s", cfg.Format)
	}

	atomLevel := zap.NewAtomicLevel()
	if err := atomLevel.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}
	zapCfg.Level = atomLevel

	logger, err := zapCfg.Build(
		zap.AddCaller(),
		zap.AddCallerSkip(1),
	)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	baseLogger = logger
	sugar = logger.Sugar()
	return nil
}

func Sync() {
	if baseLogger != nil {
		_ = baseLogger.Sync()
	}
}

func SetTraceID(id string) {
	if strings.TrimSpace(id) == "" {
		return
	}
	traceID.Store(id)
}

func NewTraceID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "trace-unknown"
	}
	return hex.EncodeToString(buf)
}

// SetLanguage tags every following entry with the pipeline language.
func SetLanguage(lang string) {
	language.Store(strings.TrimSpace(lang))
}

// StartPhase 开始一个新的监听阶段（wake / command），后续日志都带上阶段编号
func StartPhase(name string) uint64 {
	phaseName.Store(name)
	return atomic.AddUint64(&phaseID, 1)
}

// CurrentPhase returns the id and name of the phase started last.
func CurrentPhase() (uint64, string) {
	name, _ := phaseName.Load().(string)
	return atomic.LoadUint64(&phaseID), name
}

func Debugf(format string, args ...interface{}) {
	withFields().Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	withFields().Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	withFields().Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	withFields().Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	withFields().Fatalf(format, args...)
}

func withFields() *zap.SugaredLogger {
	tid, _ := traceID.Load().(string)
	if tid == "" {
		tid = "trace-unknown"
	}
	id, name := CurrentPhase()
	fields := []interface{}{
		"trace_id", tid,
		"phase_id", id,
		"log_id", fmt.Sprintf("%s-%d", tid, id),
	}
	if name != "" {
		fields = append(fields, "phase", name)
	}
	if lang, _ := language.Load().(string); lang != "" {
		fields = append(fields, "lang", lang)
	}
	return sugar.With(fields...)
}
