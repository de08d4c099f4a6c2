package app

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Ring/internal/core"
	"github.com/dkeye/Ring/internal/domain"
	"github.com/dkeye/Ring/pkg/metrics"
)

// JoinRoom subscribes a connection to a call's negotiation traffic. Once two
// or more connections have joined, the room is told to start WebRTC
// negotiation and the negotiation timer is retired: signaling has done its
// job and the session stays up until an explicit end or disconnect.
func (h *Hub) JoinRoom(by domain.UserID, conn core.SignalConnection, callID domain.CallID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.Sessions.Get(callID)
	if !ok {
		h.sendConn(conn, core.EvCallFailed, core.CallFailed{
			CallID: callID, Reason: "call_not_found", Message: "No such call",
		})
		return
	}

	room := h.rooms[callID]
	if room == nil {
		room = make(map[domain.ConnID]core.SignalConnection)
		h.rooms[callID] = room
	}
	room[conn.ID()] = conn
	sess.Ready[conn.ID()] = struct{}{}
	if by != "" {
		sess.Connected[by] = struct{}{}
	}
	log.Info().Str("module", "app.relay").Str("call", string(callID)).Str("user", string(by)).Int("joined", len(room)).Msg("joined call room")

	if len(room) >= 2 {
		if sess.State == domain.StateAccepted {
			sess.State = domain.StateActive
			h.Timers.Cancel(callID)
		}
		h.broadcastRoom(callID, "", core.EvStartNegotiation, core.StartNegotiation{
			CallID: callID, ParticipantCount: len(room),
		})
		log.Info().Str("module", "app.relay").Str("call", string(callID)).Int("participants", len(room)).Msg("negotiation started")
	}
}

// Relay forwards an offer, answer or ICE candidate verbatim to every other
// connection joined to the call room. It never inspects the payload and never
// creates a session as a side effect: unknown call ids are dropped.
func (h *Hub) Relay(kind string, from domain.UserID, conn core.SignalConnection, p core.RelayPayload) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.Sessions.Get(p.CallID); !ok {
		log.Warn().Str("module", "app.relay").Str("call", string(p.CallID)).Str("kind", kind).Msg("relay dropped, unknown call")
		metrics.RelayDropped.Inc()
		return
	}

	out := core.RelayedSignal{
		CallID:    p.CallID,
		From:      from,
		Offer:     p.Offer,
		Answer:    p.Answer,
		Candidate: p.Candidate,
	}
	h.broadcastRoom(p.CallID, conn.ID(), kind, out)
	metrics.RelayFrames.WithLabelValues(kind).Inc()
}

// broadcastRoom fans a frame out to the room, skipping except. Callers hold
// h.mu; sends are non-blocking.
func (h *Hub) broadcastRoom(callID domain.CallID, except domain.ConnID, event string, payload any) {
	room, ok := h.rooms[callID]
	if !ok {
		return
	}
	frame, err := core.NewFrame(event, payload)
	if err != nil {
		log.Error().Str("module", "app.relay").Err(err).Str("event", event).Msg("frame marshal failed")
		return
	}
	for id, c := range room {
		if id == except {
			continue
		}
		if err := c.TrySend(frame); err != nil {
			log.Warn().Str("module", "app.relay").Str("conn", string(id)).Str("event", event).Msg("room send dropped")
			metrics.SendFailures.Inc()
		}
	}
}
