package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Default expiry parameters.
const (
	defaultIdleTimeout   = 30 * time.Minute
	defaultSweepInterval = 1 * time.Minute
)

// Manager owns the live session set. Sessions are created on demand, looked
// up by ID, and expired after a period of inactivity by [Manager.Sweep].
//
// All methods are safe for concurrent use.
type Manager struct {
	idleTimeout time.Duration
	now         func() time.Time
	onCount     func(delta int)

	mu       sync.Mutex
	sessions map[string]*Session
}

// ManagerConfig configures a [Manager].
type ManagerConfig struct {
	// IdleTimeout is how long a session may go without activity before the
	// sweeper removes it. Defaults to 30m if zero.
	IdleTimeout time.Duration

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time

	// OnCount, if non-nil, is called with +1/-1 as sessions are created and
	// expired. Used to drive the active-session gauge.
	OnCount func(delta int)
}

// NewManager creates a new [Manager] with the given configuration.
func NewManager(cfg ManagerConfig) *Manager {
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = defaultIdleTimeout
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		idleTimeout: idle,
		now:         now,
		onCount:     cfg.OnCount,
		sessions:    make(map[string]*Session),
	}
}

// Get returns the session with the given ID and refreshes its activity
// timestamp. The second return is false when no such session exists.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		s.Touch(m.now())
	}
	return s, ok
}

// GetOrCreate returns the session with the given ID, creating a fresh one
// when the ID is unknown or empty. The returned session's ID may therefore
// differ from the argument; callers must re-set the cookie from it.
func (m *Manager) GetOrCreate(id string) *Session {
	if id != "" {
		if s, ok := m.Get(id); ok {
			return s
		}
	}
	s := newSession(uuid.NewString(), m.now())

	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	if m.onCount != nil {
		m.onCount(1)
	}
	slog.Debug("session created", "session_id", s.ID, "active", n)
	return s
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than the configured timeout and
// returns how many were expired.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.idleTimeout)

	m.mu.Lock()
	var expired []string
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for range expired {
		if m.onCount != nil {
			m.onCount(-1)
		}
	}
	if len(expired) > 0 {
		slog.Info("expired idle sessions", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps on a fixed interval until ctx is cancelled. Intended to be run
// as a background goroutine alongside the HTTP server.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(defaultSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Sweep()
		}
	}
}
