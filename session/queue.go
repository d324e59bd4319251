package session

import (
	"sync"

	"github.com/wippyai/hle/kernel"
)

// MessageQueue is a FIFO of applet messages. Its event is signaled while the
// queue is non-empty.
type MessageQueue struct {
	event *kernel.Event
	items []Message
	mu    sync.Mutex
}

// NewMessageQueue creates an empty queue that signals event.
func NewMessageQueue(event *kernel.Event) *MessageQueue {
	return &MessageQueue{event: event}
}

// Push appends m and signals the event.
func (q *MessageQueue) Push(m Message) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, m)
	q.event.Signal()
}

// TryPop removes the oldest message. It never blocks; ok is false on an empty
// queue, which is left unchanged.
func (q *MessageQueue) TryPop() (m Message, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return 0, false
	}
	m = q.items[0]
	q.items[0] = 0
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
		q.event.Clear()
	}
	return m, true
}

// Len returns the number of pending messages.
func (q *MessageQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Event returns the message-ready event.
func (q *MessageQueue) Event() *kernel.Event {
	return q.event
}
