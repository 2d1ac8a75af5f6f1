package audio

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// Policy 队列满时的处理策略
type Policy int

const (
	// PolicyDropOldest evicts the oldest queued frame to make room.
	PolicyDropOldest Policy = iota
	// PolicyBlock makes Push wait for room. Not for realtime callbacks.
	PolicyBlock
)

func (p Policy) String() string {
	switch p {
	case PolicyDropOldest:
		return "drop_oldest"
	case PolicyBlock:
		return "block"
	default:
		return "unknown"
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop_oldest":
		return PolicyDropOldest, nil
	case "block":
		return PolicyBlock, nil
	default:
		return PolicyDropOldest, fmt.Errorf("unknown queue policy %q", s)
	}
}

// Queue 有界帧队列，生产者是音频回调，消费者是会话循环
type Queue struct {
	ch      chan Frame
	done    chan struct{}
	policy  Policy
	dropped atomic.Int64

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

func NewQueue(size int, policy Policy) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{
		ch:     make(chan Frame, size),
		done:   make(chan struct{}),
		policy: policy,
	}
}

// Push enqueues a frame and reports whether it was accepted. With
// PolicyDropOldest it never waits on the consumer.
func (q *Queue) Push(f Frame) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}

	if q.policy == PolicyBlock {
		select {
		case q.ch <- f:
			return true
		case <-q.done:
			return false
		}
	}

	for {
		select {
		case q.ch <- f:
			return true
		default:
		}
		select {
		case <-q.ch:
			q.dropped.Add(1)
		default:
		}
	}
}

func (q *Queue) Frames() <-chan Frame {
	return q.ch
}

// Dropped returns how many frames were evicted so far.
func (q *Queue) Dropped() int64 {
	return q.dropped.Load()
}

func (q *Queue) Policy() Policy {
	return q.policy
}

// Close wakes blocked producers and closes the frame channel. Frames already
// queued can still be received.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
		q.mu.Lock()
		q.closed = true
		close(q.ch)
		q.mu.Unlock()
	})
}
