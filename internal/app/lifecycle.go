package app

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Ring/internal/core"
	"github.com/dkeye/Ring/internal/domain"
)

// HandleDisconnect reacts to an abrupt connection loss. Presence and the busy
// flag for the user are cleared unconditionally to self-heal drift, then a
// terminal event is synthesized for every session the user is party to. The
// session set is snapshotted first so terminating one session cannot skip or
// duplicate another in the same pass.
func (h *Hub) HandleDisconnect(by domain.UserID, conn core.SignalConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for callID, room := range h.rooms {
		if _, ok := room[conn.ID()]; !ok {
			continue
		}
		delete(room, conn.ID())
		if sess, ok := h.Sessions.Get(callID); ok {
			delete(sess.Ready, conn.ID())
		}
	}

	if by == "" {
		return
	}
	h.Presence.Unregister(by, conn.ID())
	h.Busy.Clear(by)
	log.Info().Str("module", "app.hub").Str("user", string(by)).Str("conn", string(conn.ID())).Msg("user disconnected")

	for _, sess := range h.Sessions.Snapshot() {
		if !sess.IsParty(by) {
			continue
		}
		switch {
		case by == sess.CallerID:
			h.endLocked(sess, by, "participant_disconnected", by)
		case sess.State == domain.StateRinging:
			// An invitee dropping while ringing just leaves the call; only
			// a fully depleted invite list ends it.
			sess.RemoveParticipant(by)
			if len(sess.ParticipantIDs) == 0 {
				h.endLocked(sess, by, "no_participants", by)
			}
		default:
			h.endLocked(sess, by, "participant_disconnected", by)
		}
	}
	h.updateGauges()
}
