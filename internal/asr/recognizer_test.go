package asr

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestNewMissingModelPath(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no path for language", Config{Backend: "vosk", Language: "tn", ModelPaths: map[string]string{"en": "x"}}},
		{"path does not exist", Config{Language: "en", ModelPaths: map[string]string{"en": filepath.Join(t.TempDir(), "missing")}}},
		{"dashscope without key", Config{Backend: "dashscope", Language: "ar"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if !errors.Is(err, ErrModelUnavailable) {
				t.Fatalf("New() error = %v, want ErrModelUnavailable", err)
			}
			var me *ModelError
			if !errors.As(err, &me) || me.Language != tt.cfg.Language {
				t.Fatalf("expected *ModelError for %q, got %#v", tt.cfg.Language, err)
			}
		})
	}
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(Config{Backend: "whisper", Language: "en"})
	if err == nil || errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestDecodeVoskJSON(t *testing.T) {
	text, err := decodeText(`{"text" : " what time is it "}`)
	if err != nil || text != "what time is it" {
		t.Fatalf("decodeText = %q, %v", text, err)
	}
	partial, err := decodePartial(`{"partial" : "hey lu"}`)
	if err != nil || partial != "hey lu" {
		t.Fatalf("decodePartial = %q, %v", partial, err)
	}
	if _, err := decodeText("not json"); err == nil {
		t.Fatal("expected error for malformed result")
	}
}

func TestLanguageHints(t *testing.T) {
	if got := languageHints("tn"); len(got) != 1 || got[0] != "ar" {
		t.Fatalf("tn hints = %v", got)
	}
	if got := languageHints("en"); len(got) != 1 || got[0] != "en" {
		t.Fatalf("en hints = %v", got)
	}
}
