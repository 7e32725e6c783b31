package main

import (
	"sync"

	"github.com/fleetlink/core/link"
)

// controlState holds the single upstream Link to the controller plus the
// most recently received copy of every control-facing notification this
// client has been pushed — a thin in-memory mirror an admin UI or CLI layer
// could read, in place of the real terminal UI the spec's Non-goals exclude.
type controlState struct {
	mu   sync.Mutex
	link *link.Link
	last map[string][]byte
}

func newControlState() *controlState {
	return &controlState{last: make(map[string][]byte)}
}

func (s *controlState) setLink(l *link.Link) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.link = l
}

func (s *controlState) record(name string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	s.last[name] = cp
}

// Link returns the currently connected upstream Link, or nil if this client
// is between reconnect attempts.
func (s *controlState) Link() *link.Link {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.link
}
