package voicebot

import (
	"sync"
	"testing"
	"time"

	"github.com/liuscraft/luca-voice/internal/intent"
)

func TestEventBus(t *testing.T) {
	eb := NewEventBus()

	tests := []struct {
		name      string
		eventType EventType
		event     Event
	}{
		{"StateChanged", EventTypeStateChanged, NewStateChangedEvent(StateIdle, StateWakeListen)},
		{"WakeDetected", EventTypeWakeDetected, NewWakeDetectedEvent("hey luca", "en", "")},
		{"UtteranceFinished", EventTypeUtteranceFinished, NewUtteranceFinishedEvent(StateCommandListen, "what time is it")},
		{"IntentRecognized", EventTypeIntentRecognized, NewIntentRecognizedEvent(intent.Intent{Label: intent.Time})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var wg sync.WaitGroup
			wg.Add(1)

			received := false
			handler := func(event Event) {
				defer wg.Done()
				if event.Type() == tt.eventType && !event.Timestamp().IsZero() {
					received = true
				}
			}

			unsubscribe := eb.Subscribe(tt.eventType, handler)
			defer unsubscribe()
			eb.Publish(tt.event)

			wg.Wait()

			if !received {
				t.Error("Event was not received by handler")
			}
		})
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	eb := NewEventBus()
	calls := make(chan string, 4)

	unsubA := eb.Subscribe(EventTypeWakeDetected, func(Event) { calls <- "a" })
	eb.Subscribe(EventTypeWakeDetected, func(Event) { calls <- "b" })
	unsubA()

	eb.Publish(NewWakeDetectedEvent("luca", "en", ""))
	select {
	case got := <-calls:
		if got != "b" {
			t.Fatalf("unsubscribed handler %q was called", got)
		}
	case <-time.After(time.Second):
		t.Fatal("remaining handler was not called")
	}
	select {
	case got := <-calls:
		t.Fatalf("unexpected extra call %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBusSlowHandlerDoesNotBlockPublish(t *testing.T) {
	eb := NewEventBus()
	release := make(chan struct{})
	defer close(release)
	eb.Subscribe(EventTypeStateChanged, func(Event) { <-release })

	done := make(chan struct{})
	go func() {
		eb.Publish(NewStateChangedEvent(StateIdle, StateWakeListen))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow handler")
	}
}
