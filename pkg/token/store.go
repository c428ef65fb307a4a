package token

import "sync"

// State is a point-in-time copy of the stored credential set. An empty
// field means the credential is absent.
type State struct {
	QRToken      string
	TableID      string
	SessionToken string
}

// Store holds the QR token, table identifier and session token for one
// ordering context. A session token is only meaningful together with the
// table that produced it and must not survive a change of QR token or
// table; session.Guard enforces that rule on ingestion.
//
// All operations complete without blocking and never fail. Nothing is
// persisted beyond the lifetime of the process; a caller that wants
// longer-lived credentials persists them separately.
type Store struct {
	mu    sync.RWMutex
	state State
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) SetQRToken(tok string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.QRToken = tok
}

func (s *Store) QRToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.QRToken, s.state.QRToken != ""
}

func (s *Store) SetTableID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.TableID = id
}

func (s *Store) TableID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.TableID, s.state.TableID != ""
}

func (s *Store) SetSessionToken(tok string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SessionToken = tok
}

func (s *Store) SessionToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.SessionToken, s.state.SessionToken != ""
}

// ClearSessionToken removes the session token while keeping the QR token
// and table identifier in place.
func (s *Store) ClearSessionToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SessionToken = ""
}

// Clear removes every stored credential.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{}
}

// Snapshot returns a copy of the current credential set.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}
