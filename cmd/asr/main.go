// asr 离线识别一个 WAV / PCM 文件，逐句打印意图与回复
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/liuscraft/luca-voice/internal/app"
	"github.com/liuscraft/luca-voice/internal/audio"
	"github.com/liuscraft/luca-voice/internal/config"
	"github.com/liuscraft/luca-voice/internal/logging"
)

func main() {
	file := flag.String("file", "", "16-bit mono WAV or raw PCM file")
	configPath := flag.String("config", config.DefaultPath, "config file path")
	envPath := flag.String("env", config.DefaultEnvPath, "dotenv file with API keys and model paths")
	lang := flag.String("lang", "", "recognition language; overrides config")
	// 会话按墙钟判断静音，关闭 realtime 时相邻的句子会合并
	realtime := flag.Bool("realtime", true, "pace frames at their natural duration")
	wakeMode := flag.Bool("wake", false, "require the wake word before each command")
	flag.Parse()

	if strings.TrimSpace(*file) == "" {
		fmt.Fprintln(os.Stderr, "usage: asr -file input.wav [-lang en] [-wake]")
		os.Exit(2)
	}

	opts := options{file: *file, configPath: *configPath, envPath: *envPath, lang: *lang, realtime: *realtime, wake: *wakeMode}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "asr: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	file       string
	configPath string
	envPath    string
	lang       string
	realtime   bool
	wake       bool
}

func run(opts options) error {
	if err := config.LoadDotEnv(opts.envPath); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if v := strings.TrimSpace(opts.lang); v != "" {
		cfg.Language = v
	}
	// 离线识别不暴露指标端点
	cfg.Metrics.Enabled = false
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.ValidateKeys(true, false); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logging.Sync()
	logging.SetTraceID(logging.NewTraceID())

	f, err := os.Open(opts.file)
	if err != nil {
		return err
	}
	defer f.Close()

	src := audio.NewFileSource(f, audio.FileSourceConfig{
		SampleRate:      cfg.Audio.SampleRate,
		Channels:        cfg.Audio.Channels,
		FrameMs:         cfg.Audio.FrameMs,
		Realtime:        opts.realtime,
		TrailingSilence: time.Duration(cfg.Session.SilenceTimeoutMs)*time.Millisecond + time.Second,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	bot, err := app.New(ctx, cfg, app.WithSource(src))
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}
	defer bot.Shutdown(context.Background())

	logging.Infof("Transcribing %s (lang=%s, realtime=%v, wake=%v)", opts.file, cfg.Language, opts.realtime, opts.wake)
	if opts.wake {
		err = bot.Run(ctx)
	} else {
		err = bot.Transcribe(ctx)
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if srcErr := src.Err(); srcErr != nil {
		err = errors.Join(err, fmt.Errorf("read %s: %w", opts.file, srcErr))
	}
	return err
}
