package session

import "sync"

// ReturnURL records where to send the diner after an interrupted
// authentication flow (e.g. a login screen in the middle of ordering).
type ReturnURL struct {
	TenantSlug string
	TableID    string
	Token      string
	Path       string
}

// ReturnURLStore holds at most one pending return destination. Consume
// clears it, so a stored destination is never replayed.
type ReturnURLStore struct {
	mu      sync.Mutex
	pending *ReturnURL
}

func NewReturnURLStore() *ReturnURLStore {
	return &ReturnURLStore{}
}

// Set replaces any pending return destination.
func (s *ReturnURLStore) Set(r ReturnURL) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &r
}

// Consume returns the pending destination and clears it.
func (s *ReturnURLStore) Consume() (ReturnURL, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return ReturnURL{}, false
	}

	r := *s.pending
	s.pending = nil
	return r, true
}
