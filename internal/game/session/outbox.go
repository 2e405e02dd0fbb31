// Package session tracks players seated at the clash table and fans out
// announcements to them.
package session

import (
	"fmt"
	"sync"
)

// Outbox queues rendered message blocks for one player. A writer goroutine
// drains Messages onto the player's connection.
type Outbox struct {
	handle   string
	messages chan []string
	mu       sync.Mutex
	closed   bool
}

// NewOutbox creates an Outbox for handle. bufferSize <= 0 selects 64.
func NewOutbox(handle string, bufferSize int) *Outbox {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Outbox{
		handle:   handle,
		messages: make(chan []string, bufferSize),
	}
}

// Handle returns the owning player's handle.
func (o *Outbox) Handle() string {
	return o.handle
}

// Push enqueues a message block without blocking.
//
// Postcondition: Returns an error if the outbox is closed or full.
func (o *Outbox) Push(lines []string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return fmt.Errorf("outbox %s is closed", o.handle)
	}
	select {
	case o.messages <- lines:
		return nil
	default:
		return fmt.Errorf("outbox %s buffer full", o.handle)
	}
}

// Messages returns the read side of the queue. It closes with the outbox.
func (o *Outbox) Messages() <-chan []string {
	return o.messages
}

// Close closes the queue. It is idempotent.
func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.closed = true
		close(o.messages)
	}
}

// IsClosed reports whether Close has been called.
func (o *Outbox) IsClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}
