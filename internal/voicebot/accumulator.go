package voicebot

import (
	"strings"
	"time"
)

// AccumulatorState 累加器状态
type AccumulatorState int

const (
	Collecting AccumulatorState = iota
	Finished
)

// Accumulator 把识别器的最终片段拼成一句话，按静音超时或硬超时结束
//
// Partial hypotheses are cumulative in streaming engines, so only the latest
// one is kept as pending and appended when the utterance finishes without a
// final having replaced it.
type Accumulator struct {
	silenceTimeout time.Duration

	parts        []string
	pending      string
	lastActivity time.Time
	deadline     time.Time
	state        AccumulatorState
	text         string
}

func NewAccumulator(silenceTimeout time.Duration) *Accumulator {
	return &Accumulator{silenceTimeout: silenceTimeout}
}

// Reset 清空缓冲并开始新一轮收集，hardTimeout 之后无论如何结束
func (a *Accumulator) Reset(now time.Time, hardTimeout time.Duration) {
	a.parts = a.parts[:0]
	a.pending = ""
	a.lastActivity = now
	a.deadline = now.Add(hardTimeout)
	a.state = Collecting
	a.text = ""
}

// Add appends a non-empty final fragment.
func (a *Accumulator) Add(fragment string, now time.Time) {
	if a.state != Collecting {
		return
	}
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return
	}
	a.parts = append(a.parts, fragment)
	a.pending = ""
	a.lastActivity = now
}

// Observe records a partial hypothesis as activity.
func (a *Accumulator) Observe(partial string, now time.Time) {
	if a.state != Collecting {
		return
	}
	partial = strings.TrimSpace(partial)
	if partial == "" {
		return
	}
	a.pending = partial
	a.lastActivity = now
}

// Tick 检查超时：有内容且静音超过 silenceTimeout，或到达硬超时
func (a *Accumulator) Tick(now time.Time) (string, bool) {
	if a.state == Finished {
		return a.text, true
	}
	if !a.empty() && now.Sub(a.lastActivity) > a.silenceTimeout {
		return a.Finish(), true
	}
	if !now.Before(a.deadline) {
		return a.Finish(), true
	}
	return "", false
}

// Finish ends collection early and returns the trimmed utterance.
func (a *Accumulator) Finish() string {
	if a.state == Finished {
		return a.text
	}
	parts := a.parts
	if a.pending != "" {
		parts = append(parts, a.pending)
	}
	a.text = strings.TrimSpace(strings.Join(parts, " "))
	a.state = Finished
	return a.text
}

// Text 当前已提交的片段（不含 pending）
func (a *Accumulator) Text() string {
	return strings.Join(a.parts, " ")
}

func (a *Accumulator) State() AccumulatorState {
	return a.state
}

func (a *Accumulator) empty() bool {
	return len(a.parts) == 0 && a.pending == ""
}
