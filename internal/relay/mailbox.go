package relay

import "sync"

// mailbox holds the latest undelivered Update for one run. put never blocks,
// so it is safe to call from a session listener; a slow publisher only ever
// skips intermediate snapshots, never the last one.
type mailbox struct {
	mu      sync.Mutex
	pending *Update
	closed  bool
	signal  chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{signal: make(chan struct{}, 1)}
}

func (m *mailbox) put(u Update) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.pending = &u
	m.mu.Unlock()
	m.notify()
}

// close marks the mailbox finished. A pending Update is still delivered.
func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.notify()
}

func (m *mailbox) notify() {
	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// take returns the pending Update, if any, and whether the mailbox is closed.
func (m *mailbox) take() (*Update, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.pending
	m.pending = nil
	return u, m.closed
}

// drain calls fn for each delivered Update until the mailbox is closed and empty.
func (m *mailbox) drain(fn func(Update)) {
	for range m.signal {
		for {
			u, closed := m.take()
			if u != nil {
				fn(*u)
				continue
			}
			if closed {
				return
			}
			break
		}
	}
}
