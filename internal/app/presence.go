package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Ring/internal/core"
	"github.com/dkeye/Ring/internal/domain"
)

type presenceEntry struct {
	Conn core.SignalConnection
	User *domain.User
}

// Presence maps a user identity to its current live connection. At most one
// entry per user; re-registering replaces the previous handle (last writer
// wins, the prior handle is presumed stale).
type Presence struct {
	mu    sync.RWMutex
	conns map[domain.UserID]*presenceEntry
}

func NewPresence() *Presence {
	return &Presence{conns: make(map[domain.UserID]*presenceEntry)}
}

// Register binds conn as the live handle for user and returns the replaced
// connection, if any, so the caller can close it.
func (p *Presence) Register(user *domain.User, conn core.SignalConnection) core.SignalConnection {
	p.mu.Lock()
	defer p.mu.Unlock()
	var prev core.SignalConnection
	if e, ok := p.conns[user.ID]; ok && e.Conn.ID() != conn.ID() {
		prev = e.Conn
	}
	p.conns[user.ID] = &presenceEntry{Conn: conn, User: user}
	log.Info().Str("module", "app.presence").Str("user", string(user.ID)).Str("conn", string(conn.ID())).Msg("user registered")
	return prev
}

// Unregister removes the entry for user only if it still points at connID.
// A disconnect racing a fresh register must not evict the newer handle.
func (p *Presence) Unregister(user domain.UserID, connID domain.ConnID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.conns[user]
	if !ok || e.Conn.ID() != connID {
		return false
	}
	delete(p.conns, user)
	log.Info().Str("module", "app.presence").Str("user", string(user)).Msg("user unregistered")
	return true
}

func (p *Presence) Resolve(user domain.UserID) (core.SignalConnection, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if e, ok := p.conns[user]; ok {
		return e.Conn, true
	}
	return nil, false
}

func (p *Presence) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.conns)
}

// Snapshot returns a stable copy of the registry for sweeps.
func (p *Presence) Snapshot() map[domain.UserID]core.SignalConnection {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[domain.UserID]core.SignalConnection, len(p.conns))
	for u, e := range p.conns {
		out[u] = e.Conn
	}
	return out
}
