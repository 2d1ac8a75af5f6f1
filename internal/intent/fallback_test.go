package intent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		wantLabel Label
		wantConf  float64
		wantErr   bool
	}{
		{"plain", "time: 0.9", Time, 0.9, false},
		{"leading chatter", "Sure!\nemail_inbox: 0.85", EmailInbox, 0.85, false},
		{"markdown", "**weather**: *0.7*", Weather, 0.7, false},
		{"spaces in label", "How are you: .6", HowAreYou, 0.6, false},
		{"trailing period", "joke: 0.8.", Joke, 0.8, false},
		{"clamped high", "date: 3", Date, 1, false},
		{"clamped low", "date: -2", Date, 0, false},
		{"label outside closed set", "dance: 0.9", Unknown, 0, true},
		{"bad number", "time: high", Unknown, 0, true},
		{"no colon", "time 0.9", Unknown, 0, true},
		{"empty", "", Unknown, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, conf, err := ParseReply(tt.reply)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedReply) {
					t.Fatalf("error = %v, want ErrMalformedReply", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if label != tt.wantLabel || conf != tt.wantConf {
				t.Fatalf("got %s/%v, want %s/%v", label, conf, tt.wantLabel, tt.wantConf)
			}
		})
	}
}

func TestBuildPromptListsEveryLabel(t *testing.T) {
	tables := mustTables(t)
	fb := NewLLMFallback("test", nil, tables)
	prompt := BuildPrompt("chandi wa9t", "tn", fb.examples)

	for _, label := range Labels() {
		if !strings.Contains(prompt, "- "+label.String()+": ") {
			t.Fatalf("prompt is missing label %s", label)
		}
	}
	for _, want := range []string{"Tunisian Arabic", `"chandi wa9t"`, `"chandi ta9s"`, "intent: confidence"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt is missing %q:\n%s", want, prompt)
		}
	}
}

type fakeChat struct {
	reply  string
	err    error
	system string
	user   string
}

func (c *fakeChat) Complete(ctx context.Context, system, user string) (string, error) {
	c.system, c.user = system, user
	return c.reply, c.err
}

func TestLLMFallbackClassify(t *testing.T) {
	chat := &fakeChat{reply: "weather: 0.75"}
	fb := NewLLMFallback("fake", chat, mustTables(t))
	label, conf, err := fb.Classify(context.Background(), "is it nice outside", "en")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if label != Weather || conf != 0.75 {
		t.Fatalf("got %s/%v", label, conf)
	}
	if chat.system == "" || !strings.Contains(chat.user, "is it nice outside") {
		t.Fatalf("unexpected prompt: %q / %q", chat.system, chat.user)
	}

	chat.err = errors.New("quota")
	if _, _, err := fb.Classify(context.Background(), "x", "en"); err == nil {
		t.Fatal("expected chat error to propagate")
	}
}

func TestNewFallbackRequiresKey(t *testing.T) {
	_, err := NewFallback(context.Background(), FallbackOptions{Provider: "eino"}, nil)
	if !errors.Is(err, ErrNoFallback) {
		t.Fatalf("error = %v, want ErrNoFallback", err)
	}
	_, err = NewFallback(context.Background(), FallbackOptions{Provider: "carrier-pigeon", APIKey: "k"}, nil)
	if !errors.Is(err, ErrNoFallback) {
		t.Fatalf("error = %v, want ErrNoFallback", err)
	}
}

// chatServer answers any chat completion request with reply.
func chatServer(t *testing.T, reply string) (*httptest.Server, *string) {
	t.Helper()
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Messages []json.RawMessage `json:"messages"`
		}
		if err := json.Unmarshal(body, &req); err != nil || len(req.Messages) != 2 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
			"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &auth
}

func TestFallbackBackends(t *testing.T) {
	for _, provider := range []string{"eino", "openai"} {
		t.Run(provider, func(t *testing.T) {
			srv, auth := chatServer(t, "email_send: 0.8")
			fb, err := NewFallback(context.Background(), FallbackOptions{
				Provider: provider,
				APIKey:   "secret",
				BaseURL:  srv.URL + "/v1/",
				Model:    "test-model",
				Timeout:  2 * time.Second,
			}, mustTables(t))
			if err != nil {
				t.Fatalf("NewFallback: %v", err)
			}
			if fb.Name() != provider {
				t.Fatalf("Name() = %q", fb.Name())
			}
			label, conf, err := fb.Classify(context.Background(), "ab3ath email", "tn")
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if label != EmailSend || conf != 0.8 {
				t.Fatalf("got %s/%v", label, conf)
			}
			if *auth != "Bearer secret" {
				t.Fatalf("Authorization = %q", *auth)
			}
		})
	}
}
