package tools

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/liuscraft/luca-voice/internal/intent"
)

func fixedExecutor() *Executor {
	e := NewExecutor()
	e.now = func() time.Time { return time.Date(2026, time.October, 19, 14, 30, 0, 0, time.UTC) }
	return e
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name      string
		intent    intent.Intent
		wantReply string
		wantErr   error
	}{
		{"time", intent.Intent{Label: intent.Time}, "It is 14:30.", nil},
		{"date", intent.Intent{Label: intent.Date}, "Today is Monday, October 19, 2026.", nil},
		{"calculate", intent.Intent{Label: intent.Calculate, Entities: map[string]string{intent.EntityMathExpression: "12 * 4"}}, "12 * 4 = 48", nil},
		{"calculate without expression", intent.Intent{Label: intent.Calculate}, "Tell me what to calculate", ErrNotUnderstood},
		{"greeting", intent.Intent{Label: intent.Greeting}, "Hello", nil},
		{"weather unsupported", intent.Intent{Label: intent.Weather}, "can't do that yet", ErrNotSupported},
		{"email unsupported", intent.Intent{Label: intent.EmailInbox}, "Email is not connected", ErrNotSupported},
		{"unknown", intent.Intent{Label: intent.Unknown}, "didn't understand", ErrNotUnderstood},
		{"label outside the set", intent.Intent{Label: intent.Label("dance")}, "", ErrNotUnderstood},
	}
	e := fixedExecutor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Execute(context.Background(), tt.intent)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if !strings.Contains(res.Reply, tt.wantReply) {
				t.Fatalf("reply = %q, want it to contain %q", res.Reply, tt.wantReply)
			}
		})
	}
}

func TestExecuteHandlesEveryLabel(t *testing.T) {
	e := fixedExecutor()
	for _, label := range intent.Labels() {
		res, err := e.Execute(context.Background(), intent.Intent{Label: label})
		if res.Reply == "" {
			t.Errorf("label %s produced no reply (err=%v)", label, err)
		}
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr    string
		want    float64
		wantErr bool
	}{
		{"12 + 30", 42, false},
		{"2 + 3 * 4", 14, false},
		{"(2 + 3) * 4", 20, false},
		{"7 x 6", 42, false},
		{"10 / 4", 2.5, false},
		{"-3 + 1.5", -1.5, false},
		{"1 / 0", 0, true},
		{"2 +", 0, true},
		{"(1 + 2", 0, true},
		{"3 apples", 0, true},
		{"sqrt(4)", 0, true},
		{"pi * 2", 0, true},
		{"--2", 2, false},
		{"((((1 + 1))))", 2, false},
		{strings.Repeat("-", 17) + "1", 0, true},
		{strings.Repeat("(", 17) + "1" + strings.Repeat(")", 17), 0, true},
		{strings.Repeat("-", 100000) + "1", 0, true},
		{strings.Repeat("1 + ", 40) + "1", 0, true},
	}
	for _, tt := range tests {
		name := tt.expr
		if len(name) > 32 {
			name = name[:32] + "..."
		}
		t.Run(name, func(t *testing.T) {
			got, err := Evaluate(tt.expr)
			if tt.wantErr {
				if !errors.Is(err, ErrBadExpression) {
					t.Fatalf("error = %v, want ErrBadExpression", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}
