package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/liuscraft/luca-voice/internal/asr"
)

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func clearModelEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"VOSK_MODEL_PATH", "ARABIC_MODEL_PATH", "TUNISIAN_MODEL_PATH", "LUCA_LANGUAGE"} {
		t.Setenv(key, "")
	}
}

func TestRunReturnsStartupErrors(t *testing.T) {
	clearModelEnv(t)
	dir := t.TempDir()
	input := writeFile(t, dir, "input.pcm", string(make([]byte, 960)))

	missingModel := writeFile(t, dir, "missing-model.yaml", `
language: en
asr:
  backend: vosk
  model_paths:
    en: `+filepath.Join(dir, "no-such-model")+`
intent:
  fallback:
    enabled: false
`)
	broken := writeFile(t, dir, "broken.yaml", "language: [unterminated\n")

	tests := []struct {
		name string
		opts options
		want error
	}{
		{
			name: "model unavailable",
			opts: options{file: input, configPath: missingModel, envPath: filepath.Join(dir, "none.env")},
			want: asr.ErrModelUnavailable,
		},
		{
			name: "unparseable config",
			opts: options{file: input, configPath: broken, envPath: filepath.Join(dir, "none.env")},
		},
		{
			name: "missing input file",
			opts: options{file: filepath.Join(dir, "nope.wav"), configPath: missingModel, envPath: filepath.Join(dir, "none.env")},
			want: os.ErrNotExist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.opts)
			if err == nil {
				t.Fatal("run() error = nil, want startup failure")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("run() error = %v, want %v", err, tt.want)
			}
		})
	}
}
