package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/liuscraft/luca-voice/internal/app"
	"github.com/liuscraft/luca-voice/internal/config"
	"github.com/liuscraft/luca-voice/internal/logging"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "config file path (.json or .yaml)")
	envPath := flag.String("env", config.DefaultEnvPath, "dotenv file with API keys and model paths")
	lang := flag.String("lang", "", "recognition language (en, ar, tn); overrides config")
	device := flag.String("device", "", "input device name substring; overrides config")
	flag.Parse()

	// run 返回后 defer 都已执行，再以非零状态退出
	if err := run(*configPath, *envPath, *lang, *device); err != nil {
		fmt.Fprintf(os.Stderr, "voicebot: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envPath, lang, device string) error {
	if err := config.LoadDotEnv(envPath); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if v := strings.TrimSpace(lang); v != "" {
		cfg.Language = v
	}
	if v := strings.TrimSpace(device); v != "" {
		cfg.Audio.InputDevice = v
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.ValidateKeys(true, false); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logging.Sync()

	logging.SetTraceID(logging.NewTraceID())

	logging.Infof("========================================")
	logging.Infof("        VoiceBot Starting...           ")
	logging.Infof("========================================")
	logging.Infof("Language: %s, ASR backend: %s", cfg.Language, cfg.ASR.Backend)

	// PortAudio 只初始化一次，Terminate 放在 defer 中
	logging.Infof("Initializing PortAudio...")
	if err := portaudio.Initialize(); err != nil {
		logging.Errorf("Failed to initialize PortAudio: %v", err)
		return fmt.Errorf("initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bot, err := app.New(ctx, cfg)
	if err != nil {
		logging.Errorf("Failed to create VoiceBot: %v", err)
		return err
	}

	logging.Infof("========================================")
	logging.Infof("     VoiceBot is Running! 🎤          ")
	logging.Infof("     Say the wake word, Ctrl+C to stop ")
	logging.Infof("========================================")

	runErr := bot.Run(ctx)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	if runErr != nil {
		logging.Errorf("VoiceBot stopped with error: %v", runErr)
	}

	logging.Infof("========================================")
	logging.Infof("     VoiceBot Shutting Down...          ")
	logging.Infof("========================================")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := bot.Shutdown(shutdownCtx); err != nil {
		logging.Errorf("Error during shutdown: %v", err)
	}
	logging.Infof("VoiceBot stopped.")
	return runErr
}
