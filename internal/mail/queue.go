package mail

import (
	"errors"
	"fmt"
	"sync"
)

// Errors returned by Queue.Enqueue.
var (
	ErrQueueClosed = errors.New("mail queue is closed")
	ErrQueueFull   = errors.New("mail queue is full")
)

// Queue is a bounded, closable FIFO of messages.
type Queue struct {
	mu     sync.RWMutex
	items  chan Message
	closed bool
}

// NewQueue returns a queue buffering up to size messages.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{items: make(chan Message, size)}
}

// Enqueue adds msg without blocking.
func (q *Queue) Enqueue(msg Message) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.items <- msg:
		return nil
	default:
		return fmt.Errorf("%w: capacity %d reached", ErrQueueFull, cap(q.items))
	}
}

// Close stops accepting messages. Queued messages remain readable.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.items)
	}
}

// Channel is the consumer side of the queue.
func (q *Queue) Channel() <-chan Message {
	return q.items
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	return len(q.items)
}
