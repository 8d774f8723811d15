package gaze

import (
	"sync"
	"sync/atomic"
)

// Mailbox is a single-slot, latest-wins handoff between a producer
// goroutine (network receiver, websocket ingest, webcam loop) and the
// frame thread. Publish never blocks; an unread sample is overwritten.
type Mailbox struct {
	mu     sync.RWMutex
	sample Sample
	has    bool
	unread bool

	published   atomic.Int64
	overwritten atomic.Int64
}

// MailboxStats contains mailbox counters.
type MailboxStats struct {
	// Published is the total number of samples published.
	Published int64 `json:"published"`

	// Overwritten counts samples replaced before anyone read them.
	Overwritten int64 `json:"overwritten"`
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Publish stores s as the latest sample.
func (m *Mailbox) Publish(s Sample) {
	m.mu.Lock()
	if m.unread {
		m.overwritten.Add(1)
	}
	m.sample = s
	m.has = true
	m.unread = true
	m.mu.Unlock()

	m.published.Add(1)
}

// Load returns the latest sample and whether any sample was ever published.
func (m *Mailbox) Load() (Sample, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unread = false
	return m.sample, m.has
}

// Reset clears the slot.
func (m *Mailbox) Reset() {
	m.mu.Lock()
	m.sample = Sample{}
	m.has = false
	m.unread = false
	m.mu.Unlock()
}

// Stats returns a snapshot of the mailbox counters.
func (m *Mailbox) Stats() MailboxStats {
	return MailboxStats{
		Published:   m.published.Load(),
		Overwritten: m.overwritten.Load(),
	}
}
