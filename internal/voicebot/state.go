package voicebot

import (
	"slices"
	"sync"
)

// State 识别会话的状态
type State int

const (
	StateIdle State = iota
	StateWakeListen
	StateCommandListen
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateWakeListen:
		return "WAKE_LISTEN"
	case StateCommandListen:
		return "COMMAND_LISTEN"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

var validTransitions = map[State][]State{
	StateIdle:          {StateWakeListen, StateStopped},
	StateWakeListen:    {StateCommandListen, StateStopped},
	StateCommandListen: {StateWakeListen, StateStopped},
}

// StateMachine 状态机，Stop 与 Listen 在不同 goroutine 上，需要加锁
type StateMachine struct {
	mu           sync.Mutex
	currentState State
}

func NewStateMachine() *StateMachine {
	return &StateMachine{
		currentState: StateIdle,
	}
}

// CanTransition 检查是否可以转换
func (sm *StateMachine) CanTransition(to State) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return canTransition(sm.currentState, to)
}

func canTransition(from, to State) bool {
	return slices.Contains(validTransitions[from], to)
}

// Transition 状态转换，返回转换前的状态
func (sm *StateMachine) Transition(to State) (State, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	from := sm.currentState
	if !canTransition(from, to) {
		return from, false
	}
	sm.currentState = to
	return from, true
}

// GetCurrentState 获取当前状态
func (sm *StateMachine) GetCurrentState() State {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.currentState
}
