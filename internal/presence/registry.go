package presence

import (
	"errors"
	"sync"
	"time"

	"github.com/aadrigaar/portal-productos/internal/domain"
)

// ErrDuplicateSession is returned when a session id is registered twice.
// The session manager treats this as an invariant violation: session ids
// are generated per connection and must never collide.
var ErrDuplicateSession = errors.New("session already registered")

type entry struct {
	identity    domain.Identity
	connectedAt time.Time
}

// Registry is the authoritative mapping of live session id to identity.
// All mutations and snapshot reads are linearized by the mutex: register
// and unregister race with concurrent connects/disconnects from
// independent clients, and no two mutations may interleave their effects.
type Registry struct {
	mu      sync.Mutex
	entries map[string]entry
}

// NewRegistry creates an empty presence registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]entry),
	}
}

// Register inserts a session. Fails only on a duplicate session id.
func (r *Registry) Register(sessionID string, identity domain.Identity, connectedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[sessionID]; ok {
		return ErrDuplicateSession
	}
	r.entries[sessionID] = entry{identity: identity, connectedAt: connectedAt}
	return nil
}

// Unregister removes a session if present. Removing an absent id is a
// no-op, not an error, so duplicate disconnect signals are tolerated.
func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, sessionID)
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Snapshot returns a consistent point-in-time view of who is online,
// used to build the roster broadcast. Entry order is not meaningful.
func (r *Registry) Snapshot() domain.PresenceSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]domain.PresenceEntry, 0, len(r.entries))
	for _, e := range r.entries {
		users = append(users, domain.PresenceEntry{
			Username:    e.identity.Username,
			Role:        e.identity.Role,
			ConnectedAt: e.connectedAt,
		})
	}

	return domain.PresenceSnapshot{
		Count: len(users),
		Users: users,
	}
}
