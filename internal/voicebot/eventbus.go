package voicebot

import (
	"sync"
)

// EventBus 事件总线：会话循环只发布，观察者（日志、CLI 输出）异步处理
type EventBus interface {
	Publish(event Event)
	Subscribe(eventType EventType, handler EventHandler) (unsubscribe func())
}

// EventHandler 事件处理器
type EventHandler func(event Event)

type subscription struct {
	id      uint64
	handler EventHandler
}

// eventBus 事件总线实现
type eventBus struct {
	subscribers map[EventType][]subscription
	nextID      uint64
	mu          sync.RWMutex
}

func NewEventBus() EventBus {
	return &eventBus{
		subscribers: make(map[EventType][]subscription),
	}
}

// Publish 发布事件，每个处理器在自己的 goroutine 上运行
func (eb *eventBus) Publish(event Event) {
	eb.mu.RLock()
	subs := eb.subscribers[event.Type()]
	eb.mu.RUnlock()

	for _, sub := range subs {
		go sub.handler(event)
	}
}

// Subscribe 订阅事件，返回取消订阅函数
func (eb *eventBus) Subscribe(eventType EventType, handler EventHandler) func() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.nextID++
	id := eb.nextID
	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscription{id: id, handler: handler})

	return func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		subs := eb.subscribers[eventType]
		kept := make([]subscription, 0, len(subs))
		for _, sub := range subs {
			if sub.id != id {
				kept = append(kept, sub)
			}
		}
		eb.subscribers[eventType] = kept
	}
}
