package voicebot

import (
	"time"

	"github.com/liuscraft/luca-voice/internal/intent"
)

// EventType 事件类型
type EventType int

const (
	EventTypeStateChanged EventType = iota
	EventTypeWakeDetected
	EventTypeUtteranceFinished
	EventTypeIntentRecognized
)

// Event 事件接口
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent 事件公共字段
type BaseEvent struct {
	eventType EventType
	timestamp time.Time
}

func (e *BaseEvent) Type() EventType {
	return e.eventType
}

func (e *BaseEvent) Timestamp() time.Time {
	return e.timestamp
}

func newBase(t EventType) BaseEvent {
	return BaseEvent{eventType: t, timestamp: time.Now()}
}

// StateChangedEvent 状态变化事件
type StateChangedEvent struct {
	BaseEvent
	OldState State
	NewState State
}

func NewStateChangedEvent(oldState, newState State) *StateChangedEvent {
	return &StateChangedEvent{
		BaseEvent: newBase(EventTypeStateChanged),
		OldState:  oldState,
		NewState:  newState,
	}
}

// WakeDetectedEvent 唤醒词命中
type WakeDetectedEvent struct {
	BaseEvent
	Text     string
	Language string
	// Command is the text after the wake phrase, if it was classified directly.
	Command string
}

func NewWakeDetectedEvent(text, language, command string) *WakeDetectedEvent {
	return &WakeDetectedEvent{
		BaseEvent: newBase(EventTypeWakeDetected),
		Text:      text,
		Language:  language,
		Command:   command,
	}
}

// UtteranceFinishedEvent 一次听写阶段结束。Text 为空表示没听到内容
type UtteranceFinishedEvent struct {
	BaseEvent
	Phase State
	Text  string
}

func NewUtteranceFinishedEvent(phase State, text string) *UtteranceFinishedEvent {
	return &UtteranceFinishedEvent{
		BaseEvent: newBase(EventTypeUtteranceFinished),
		Phase:     phase,
		Text:      text,
	}
}

// IntentRecognizedEvent 分类结果
type IntentRecognizedEvent struct {
	BaseEvent
	Intent intent.Intent
}

func NewIntentRecognizedEvent(it intent.Intent) *IntentRecognizedEvent {
	return &IntentRecognizedEvent{
		BaseEvent: newBase(EventTypeIntentRecognized),
		Intent:    it,
	}
}
