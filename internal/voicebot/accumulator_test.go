package voicebot

import (
	"testing"
	"time"
)

func TestAccumulatorJoinsFragmentsInOrder(t *testing.T) {
	t0 := time.Unix(1000, 0)
	acc := NewAccumulator(1500 * time.Millisecond)
	acc.Reset(t0, 8*time.Second)

	acc.Add("read my", t0.Add(100*time.Millisecond))
	acc.Add("  ", t0.Add(200*time.Millisecond))
	acc.Add("last email ", t0.Add(300*time.Millisecond))

	if _, done := acc.Tick(t0.Add(1700 * time.Millisecond)); done {
		t.Fatal("finished before the silence timeout elapsed")
	}
	text, done := acc.Tick(t0.Add(1900 * time.Millisecond))
	if !done || text != "read my last email" {
		t.Fatalf("Tick() = %q, %v", text, done)
	}
	if acc.State() != Finished {
		t.Fatalf("state = %v, want Finished", acc.State())
	}

	acc.Add("ignored", t0.Add(2*time.Second))
	if text, _ := acc.Tick(t0.Add(3 * time.Second)); text != "read my last email" {
		t.Fatalf("finished accumulator changed: %q", text)
	}
}

func TestAccumulatorTimeouts(t *testing.T) {
	t0 := time.Unix(1000, 0)
	tests := []struct {
		name     string
		feed     func(a *Accumulator)
		tickAt   time.Duration
		wantDone bool
		wantText string
	}{
		{"silence alone never ends an empty buffer", func(*Accumulator) {}, 5 * time.Second, false, ""},
		{"hard timeout with nothing said", func(*Accumulator) {}, 8 * time.Second, true, ""},
		{"hard timeout keeps buffered text", func(a *Accumulator) {
			for i := 0; i < 80; i++ {
				a.Add("la", t0.Add(time.Duration(i)*100*time.Millisecond))
			}
		}, 8 * time.Second, true, ""},
		{"partial counts as activity", func(a *Accumulator) {
			a.Add("what", t0)
			a.Observe("what time", t0.Add(time.Second))
		}, 2 * time.Second, false, ""},
		{"pending partial appended on finish", func(a *Accumulator) {
			a.Add("hey", t0)
			a.Observe("what time", t0.Add(time.Second))
		}, 2600 * time.Millisecond, true, "hey what time"},
		{"final supersedes partial", func(a *Accumulator) {
			a.Observe("what tim", t0.Add(100*time.Millisecond))
			a.Add("what time", t0.Add(200*time.Millisecond))
		}, 2 * time.Second, true, "what time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := NewAccumulator(1500 * time.Millisecond)
			acc.Reset(t0, 8*time.Second)
			tt.feed(acc)
			text, done := acc.Tick(t0.Add(tt.tickAt))
			if done != tt.wantDone {
				t.Fatalf("done = %v, want %v", done, tt.wantDone)
			}
			if tt.wantText != "" && text != tt.wantText {
				t.Fatalf("text = %q, want %q", text, tt.wantText)
			}
		})
	}
}

func TestAccumulatorResetClears(t *testing.T) {
	t0 := time.Unix(1000, 0)
	acc := NewAccumulator(time.Second)
	acc.Reset(t0, time.Second)
	acc.Add("luca", t0)
	acc.Observe("hey", t0)
	acc.Finish()

	acc.Reset(t0.Add(time.Minute), time.Second)
	if acc.State() != Collecting || acc.Text() != "" {
		t.Fatalf("Reset left state=%v text=%q", acc.State(), acc.Text())
	}
	if text := acc.Finish(); text != "" {
		t.Fatalf("Finish after Reset = %q", text)
	}
}
