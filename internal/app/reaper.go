package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Ring/pkg/metrics"
)

// Reaper is the periodic backstop against leaked state from missed events:
// sessions older than a ceiling are force-expired and presence entries whose
// connection is gone are purged.
type Reaper struct {
	Hub      *Hub
	Interval time.Duration
	MaxAge   time.Duration
}

func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Sweep runs both passes once. Exported so tests and callers can trigger it
// without the ticker.
func (r *Reaper) Sweep() {
	r.Hub.ExpireStale(r.MaxAge)
	r.Hub.PurgeDeadConnections()
}

// ExpireStale terminates every session older than maxAge through the normal
// timeout path, never an ad hoc store delete. Iteration is over a snapshot;
// each termination takes the hub lock on its own.
func (h *Hub) ExpireStale(maxAge time.Duration) {
	now := time.Now()
	for _, sess := range h.Sessions.Snapshot() {
		if sess.Age(now) <= maxAge {
			continue
		}
		log.Info().Str("module", "app.reaper").Str("call", string(sess.ID)).Dur("age", sess.Age(now)).Msg("expiring stale session")
		h.onTimeout(sess.ID, "old_age")
		metrics.ReapedSessions.Inc()
	}
}

// PurgeDeadConnections drops presence entries whose transport closed without
// a disconnect event ever reaching the hub, and clears the busy flag of the
// affected user.
func (h *Hub) PurgeDeadConnections() {
	for user, conn := range h.Presence.Snapshot() {
		if conn.Alive() {
			continue
		}
		log.Info().Str("module", "app.reaper").Str("user", string(user)).Msg("purging dead presence entry")
		h.HandleDisconnect(user, conn)
	}
	h.updateGauges()
}
