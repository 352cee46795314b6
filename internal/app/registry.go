package app

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/core"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/domain"
)

var (
	ErrServerFull     = errors.New("session limit reached")
	ErrAlreadyJoined  = errors.New("session already joined a room")
	ErrUnknownSession = errors.New("unknown session")
)

// sessionEntry binds one live connection to its session state. The
// Session fields are only written from the connection's own read loop,
// so they need no lock of their own.
type sessionEntry struct {
	Sess    *domain.Session
	Conn    core.SignalConnection
	Limiter *RateLimiter
}

// Registry tracks every connected session across all rooms.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[domain.SessionID]*sessionEntry
	maxSessions int
}

func NewRegistry(maxSessions int) *Registry {
	return &Registry{
		sessions:    make(map[domain.SessionID]*sessionEntry),
		maxSessions: maxSessions,
	}
}

// Bind mints a session id for a fresh connection and registers it.
func (r *Registry) Bind(conn core.SignalConnection, limiter *RateLimiter, connectedAt int64) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sessions) >= r.maxSessions {
		return nil, ErrServerFull
	}
	sess := &domain.Session{
		ID:          domain.NewSessionID(),
		Role:        domain.RoleParticipant,
		ConnectedAt: connectedAt,
	}
	r.sessions[sess.ID] = &sessionEntry{Sess: sess, Conn: conn, Limiter: limiter}
	log.Info().Str("module", "app.registry").Str("sid", string(sess.ID)).Int("sessions", len(r.sessions)).Msg("bound session")
	return sess, nil
}

func (r *Registry) Unbind(sid domain.SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sid]; !ok {
		return false
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Int("sessions", len(r.sessions)).Msg("unbound session")
	return true
}

func (r *Registry) entry(sid domain.SessionID) (*sessionEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	return e, ok
}

// SetProfile records the joining identity on the session.
func (r *Registry) SetProfile(sid domain.SessionID, name, role string) {
	if e, ok := r.entry(sid); ok {
		e.Sess.Name = name
		e.Sess.Role = role
	}
}

// SetRoom claims room membership for the session. A session joins at
// most once per connection, so a second claim fails even after the
// room side already dropped the member.
func (r *Registry) SetRoom(sid domain.SessionID, roomID domain.RoomID) error {
	e, ok := r.entry(sid)
	if !ok {
		return ErrUnknownSession
	}
	if e.Sess.RoomID != "" {
		return ErrAlreadyJoined
	}
	e.Sess.RoomID = roomID
	return nil
}

// ClearRoom rolls back a claim after a failed join.
func (r *Registry) ClearRoom(sid domain.SessionID) {
	if e, ok := r.entry(sid); ok {
		e.Sess.RoomID = ""
	}
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CanAccept reports whether a new connection would fit. Bind re-checks
// under the lock; this exists for cheap pre-upgrade rejection.
func (r *Registry) CanAccept() bool {
	return r.Count() < r.maxSessions
}

// ForEachConn visits every live connection, for server-wide notices.
func (r *Registry) ForEachConn(fn func(core.SignalConnection)) {
	r.mu.RLock()
	conns := make([]core.SignalConnection, 0, len(r.sessions))
	for _, e := range r.sessions {
		conns = append(conns, e.Conn)
	}
	r.mu.RUnlock()
	for _, c := range conns {
		fn(c)
	}
}
