package domain

import (
	"errors"
	"sync"
	"time"
)

// ErrSessionState reports a lifecycle transition attempted from the
// wrong state.
var ErrSessionState = errors.New("invalid session state")

// SessionState is the lifecycle state of one realtime connection.
type SessionState int

const (
	// SessionConnecting: credential received, awaiting verification.
	SessionConnecting SessionState = iota
	// SessionAuthenticated: verified and registered; history replay pending or in progress.
	SessionAuthenticated
	// SessionActive: steady state, may exchange messages and typing signals.
	SessionActive
	// SessionClosed: terminal; cleanup and presence rebroadcast done.
	SessionClosed
)

func (s SessionState) String() string {
	switch s {
	case SessionConnecting:
		return "connecting"
	case SessionAuthenticated:
		return "authenticated"
	case SessionActive:
		return "active"
	case SessionClosed:
		return "closed"
	}
	return "unknown"
}

// Session represents one live realtime connection and its bound identity.
// The identity is set exactly once, at handshake, and never read from
// client payloads afterwards.
type Session struct {
	ID          string
	Identity    Identity
	ConnectedAt time.Time

	mu    sync.Mutex
	state SessionState
}

// NewSession creates a session in the Connecting state.
func NewSession(id string, identity Identity) *Session {
	return &Session{
		ID:          id,
		Identity:    identity,
		ConnectedAt: time.Now(),
		state:       SessionConnecting,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Authenticate moves Connecting -> Authenticated. Returns false if the
// session is not in the Connecting state.
func (s *Session) Authenticate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionConnecting {
		return false
	}
	s.state = SessionAuthenticated
	return true
}

// Activate moves Authenticated -> Active. Returns false otherwise.
func (s *Session) Activate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionAuthenticated {
		return false
	}
	s.state = SessionActive
	return true
}

// IsActive reports whether the session may exchange chat traffic.
func (s *Session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == SessionActive
}

// Close moves the session to Closed from any state. It returns true only
// for the caller that performed the transition, so disconnect cleanup runs
// exactly once even when multiple termination signals race.
func (s *Session) Close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionClosed {
		return false
	}
	s.state = SessionClosed
	return true
}
