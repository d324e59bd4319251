package session

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/hle/errors"
)

// DefaultMaxSessions bounds concurrent sessions when no limit is configured.
const DefaultMaxSessions = 8

// ErrSessionLimit matches Open failures caused by the session bound.
var ErrSessionLimit = &errors.Error{Phase: errors.PhaseSession, Kind: errors.KindLimit}

// Manager tracks live sessions and enforces the concurrent session bound.
type Manager struct {
	defaults Options
	sessions map[uuid.UUID]*State
	max      int
	mu       sync.RWMutex
}

// NewManager creates a manager. defaults seeds every session it opens.
func NewManager(limit int, defaults Options) *Manager {
	if limit <= 0 {
		limit = DefaultMaxSessions
	}
	return &Manager{
		defaults: defaults,
		sessions: make(map[uuid.UUID]*State),
		max:      limit,
	}
}

// Open creates a session for process pid.
func (m *Manager) Open(pid uint64) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.max {
		return nil, errors.New(errors.PhaseSession, errors.KindLimit).
			Op("open").
			Value(m.max).
			Detail("%d sessions already open", len(m.sessions)).
			Build()
	}

	opts := m.defaults
	opts.ProcessID = pid
	s := New(opts)
	s.onClose = m.remove
	m.sessions[s.id] = s

	Logger().Debug("session opened",
		zap.Stringer("session", s.id),
		zap.Uint64("pid", pid),
		zap.Int("open", len(m.sessions)))
	return s, nil
}

// Get returns the live session with id.
func (m *Manager) Get(id uuid.UUID) (*State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Max returns the session bound.
func (m *Manager) Max() int {
	return m.max
}

// Each calls fn for every live session until it returns false.
func (m *Manager) Each(fn func(*State) bool) {
	for _, s := range m.snapshot() {
		if !fn(s) {
			return
		}
	}
}

// NotifyOperationModeChanged forwards a dock change to every session.
func (m *Manager) NotifyOperationModeChanged() {
	for _, s := range m.snapshot() {
		s.NotifyOperationModeChanged()
	}
}

// Close closes every live session.
func (m *Manager) Close() error {
	var first error
	for _, s := range m.snapshot() {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *Manager) snapshot() []*State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*State, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

func (m *Manager) remove(s *State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, s.id)
}
