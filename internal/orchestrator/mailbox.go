package orchestrator

import (
	"context"
	"sync"
)

// mailboxes hands out one mutex per session id so operations on the same
// session run one at a time while distinct sessions proceed in parallel.
// Entries are reference-counted and dropped when the last holder releases.
type mailboxes struct {
	mu    sync.Mutex
	boxes map[string]*mailbox
}

type mailbox struct {
	sem  chan struct{}
	refs int
}

func newMailboxes() *mailboxes {
	return &mailboxes{boxes: make(map[string]*mailbox)}
}

func (m *mailboxes) acquire(id string) *mailbox {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boxes[id]
	if !ok {
		b = &mailbox{sem: make(chan struct{}, 1)}
		m.boxes[id] = b
	}
	b.refs++
	return b
}

func (m *mailboxes) release(id string, b *mailbox) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.refs--
	if b.refs == 0 {
		delete(m.boxes, id)
	}
}

// do runs fn with the session's slot held. It respects ctx while waiting for
// the slot, so a canceled caller does not queue forever.
func (m *mailboxes) do(ctx context.Context, id string, fn func() error) error {
	b := m.acquire(id)
	defer m.release(id, b)

	select {
	case b.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-b.sem }()
	return fn()
}

func (m *mailboxes) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boxes = make(map[string]*mailbox)
}
