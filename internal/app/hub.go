package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Ring/internal/core"
	"github.com/dkeye/Ring/internal/domain"
	"github.com/dkeye/Ring/pkg/metrics"
)

// Hub is the call state machine. All session, busy and timer mutations are
// serialized through h.mu, so accept/decline/timeout/disconnect races resolve
// through the guard checks below instead of event ordering.
type Hub struct {
	mu sync.Mutex

	Presence *Presence
	Busy     *BusyTracker
	Sessions *SessionStore
	Timers   *TimerManager

	// rooms holds the connections subscribed to a call id for negotiation
	// traffic. Membership mirrors Session.Ready but keeps the handles.
	rooms map[domain.CallID]map[domain.ConnID]core.SignalConnection

	ringTimeout        time.Duration
	negotiationTimeout time.Duration
}

func NewHub(ringTimeout, negotiationTimeout time.Duration) *Hub {
	return &Hub{
		Presence:           NewPresence(),
		Busy:               NewBusyTracker(),
		Sessions:           NewSessionStore(),
		Timers:             NewTimerManager(),
		rooms:              make(map[domain.CallID]map[domain.ConnID]core.SignalConnection),
		ringTimeout:        ringTimeout,
		negotiationTimeout: negotiationTimeout,
	}
}

// Register binds conn as the live connection for user. A previous connection
// for the same identity is closed; its delayed disconnect will not evict the
// new entry (see Presence.Unregister).
func (h *Hub) Register(user *domain.User, conn core.SignalConnection) {
	prev := h.Presence.Register(user, conn)
	if prev != nil {
		prev.Close()
	}
	metrics.ConnectedUsers.Set(float64(h.Presence.Count()))
}

// Initiate creates a call session and invites every participant.
func (h *Hub) Initiate(conn core.SignalConnection, req core.InitiateCall) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if req.CallID == "" || req.CallerID == "" || len(req.ParticipantIDs) == 0 {
		h.sendConn(conn, core.EvCallFailed, core.CallFailed{
			CallID: req.CallID, Reason: "invalid_request", Message: "missing call id, caller or participants",
		})
		return
	}
	if h.Busy.IsBusy(req.CallerID) {
		h.sendConn(conn, core.EvCallFailed, core.CallFailed{
			CallID: req.CallID, Reason: "caller_busy", Message: "You are already in a call",
		})
		return
	}
	if busy := h.Busy.Filter(req.ParticipantIDs); len(busy) > 0 {
		h.sendConn(conn, core.EvParticipantBusy, core.ParticipantBusy{
			CallID: req.CallID, BusyParticipants: busy, Message: "One or more participants are busy",
		})
		return
	}

	now := time.Now()
	sess := domain.NewSession(req.CallID, req.CallerID, req.CallerName, req.ParticipantIDs, req.IsVideo, req.IsGroup, now)
	if !h.Sessions.Put(sess) {
		h.sendConn(conn, core.EvCallFailed, core.CallFailed{
			CallID: req.CallID, Reason: "call_exists", Message: "A call with this id is already active",
		})
		return
	}

	h.Busy.Set(sess.Parties()...)
	sess.State = domain.StateRinging

	invite := core.IncomingCall{
		CallID:     sess.ID,
		CallerID:   sess.CallerID,
		CallerName: sess.CallerName,
		IsVideo:    sess.IsVideo,
		IsGroup:    sess.IsGroup,
		Timestamp:  now,
	}
	for _, p := range sess.ParticipantIDs {
		// Unreachable invitees are not fatal; the call proceeds for the
		// reachable subset and the ring timer covers the rest.
		h.sendTo(p, core.EvIncomingCall, invite)
	}

	h.Timers.Arm(sess.ID, h.ringTimeout, func() { h.onTimeout(sess.ID, "timeout") })

	metrics.CallsInitiated.Inc()
	h.updateGauges()
	log.Info().Str("module", "app.hub").Str("call", string(sess.ID)).Str("caller", string(sess.CallerID)).Bool("video", sess.IsVideo).Bool("group", sess.IsGroup).Msg("call initiated")
}

// Accept moves a ringing call to Accepted. A concurrent timeout wins or
// loses purely on which grabs the lock first; the loser's guard fails.
func (h *Hub) Accept(by domain.UserID, callID domain.CallID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.Sessions.Get(callID)
	if !ok || sess.State != domain.StateRinging {
		log.Warn().Str("module", "app.hub").Str("call", string(callID)).Str("by", string(by)).Msg("accept ignored, call not ringing")
		return
	}

	now := time.Now()
	sess.State = domain.StateAccepted
	sess.AcceptedAt = now
	if by != "" {
		sess.Connected[by] = struct{}{}
	}

	h.sendTo(sess.CallerID, core.EvCallAccepted, core.CallAccepted{
		CallID: callID, AcceptedBy: by, Timestamp: now,
	})

	// The ring timer is replaced, never stacked, by the shorter negotiation
	// timer.
	h.Timers.Arm(callID, h.negotiationTimeout, func() { h.onTimeout(callID, "webrtc_timeout") })

	log.Info().Str("module", "app.hub").Str("call", string(callID)).Str("by", string(by)).Msg("call accepted")
}

// Decline removes the declining leg. A group call with more than two invitees
// keeps ringing for the rest; a 1:1 call (or a depleted group) terminates.
func (h *Hub) Decline(by domain.UserID, callID domain.CallID, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.Sessions.Get(callID)
	if !ok {
		log.Warn().Str("module", "app.hub").Str("call", string(callID)).Msg("decline ignored, unknown call")
		return
	}
	if reason == "" {
		reason = "declined"
	}
	now := time.Now()

	// Partial decline only while more than two parties (caller included)
	// would remain in the call.
	if sess.IsGroup && len(sess.ParticipantIDs)+1 > 2 && sess.RemoveParticipant(by) {
		h.Busy.Clear(by)
		h.notifyParties(sess, by, core.EvParticipantDeclined, core.ParticipantDeclined{
			CallID: callID, DeclinedBy: by, Reason: reason, Timestamp: now,
		})
		h.updateGauges()
		log.Info().Str("module", "app.hub").Str("call", string(callID)).Str("by", string(by)).Msg("participant declined, call still ringing")
		return
	}

	h.notifyParties(sess, by, core.EvCallRejected, core.CallRejected{
		CallID: callID, RejectedBy: by, Reason: reason, Timestamp: now,
	})
	h.finish(sess, domain.StateRejected)
	log.Info().Str("module", "app.hub").Str("call", string(callID)).Str("by", string(by)).Str("reason", reason).Msg("call rejected")
}

// Cancel lets the caller withdraw an outgoing call.
func (h *Hub) Cancel(by domain.UserID, callID domain.CallID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.Sessions.Get(callID)
	if !ok {
		log.Warn().Str("module", "app.hub").Str("call", string(callID)).Msg("cancel ignored, unknown call")
		return
	}
	if by != sess.CallerID {
		h.sendTo(by, core.EvCallFailed, core.CallFailed{
			CallID: callID, Reason: "not_caller", Message: "Only the caller may cancel",
		})
		return
	}

	now := time.Now()
	for _, p := range sess.ParticipantIDs {
		h.sendTo(p, core.EvCallCancelled, core.CallCancelled{CallID: callID, Timestamp: now})
	}
	h.finish(sess, domain.StateCancelled)
	log.Info().Str("module", "app.hub").Str("call", string(callID)).Msg("call cancelled")
}

// End terminates an established call for everyone.
func (h *Hub) End(by domain.UserID, callID domain.CallID, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.Sessions.Get(callID)
	if !ok {
		log.Warn().Str("module", "app.hub").Str("call", string(callID)).Msg("end ignored, unknown call")
		return
	}
	if reason == "" {
		reason = "ended"
	}
	h.endLocked(sess, by, reason, "")
}

// Terminate is the administrative force-end. It routes through the same
// terminal path as an end-call event, never a direct store delete.
func (h *Hub) Terminate(callID domain.CallID, reason string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.Sessions.Get(callID)
	if !ok {
		return false
	}
	if reason == "" {
		reason = "terminated_by_admin"
	}
	h.endLocked(sess, "", reason, "")
	return true
}

// onTimeout is the timer callback for both timeout classes. The session is
// re-validated at fire time: a timer that lost the race to an accept or a
// terminal event finds no session and absorbs silently.
func (h *Hub) onTimeout(callID domain.CallID, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.Sessions.Get(callID)
	if !ok {
		return
	}
	// A ring timer that lost the race to an accept finds the session past
	// Ringing and must not kill it; same for a negotiation timer once the
	// room went active. Only the reaper's old_age expiry ignores state.
	switch reason {
	case "timeout":
		if sess.State != domain.StateRinging {
			return
		}
	case "webrtc_timeout":
		if sess.State != domain.StateAccepted {
			return
		}
	}
	h.notifyParties(sess, "", core.EvCallTimeout, core.CallTimeout{
		CallID: callID, Reason: reason, Timestamp: time.Now(),
	})
	h.finish(sess, domain.StateTimedOut)
	log.Info().Str("module", "app.hub").Str("call", string(callID)).Str("reason", reason).Msg("call timed out")
}

// endLocked is the shared Ended path for end-call, admin terminate and
// disconnect synthesis. Callers hold h.mu.
func (h *Hub) endLocked(sess *domain.Session, by domain.UserID, reason string, disconnected domain.UserID) {
	h.notifyParties(sess, by, core.EvCallEnded, core.CallEnded{
		CallID:           sess.ID,
		Reason:           reason,
		EndedBy:          by,
		DisconnectedUser: disconnected,
		Timestamp:        time.Now(),
	})
	h.finish(sess, domain.StateEnded)
	log.Info().Str("module", "app.hub").Str("call", string(sess.ID)).Str("by", string(by)).Str("reason", reason).Msg("call ended")
}

/// finish performs the terminal transition: busy flags cleared for exactly the
// users the session marked busy, timer cancelled, room dropped, session
// deleted. Callers hold h.mu.
func (h *Hub) finish(sess *domain.Session, state domain.CallState) {
	sess.State = state

	// Current parties plus already-connected users. Members who left earlier
	// (partial decline, ringing disconnect) had busy cleared at removal time.
	users := sess.Parties()
	for u := range sess.Connected {
		if !sess.IsParty(u) {
			users = append(users, u)
		}
	}
	h.Busy.Clear(users...)

	h.Timers.Cancel(sess.ID)
	delete(h.rooms, sess.ID)
	h.Sessions.Delete(sess.ID)

	metrics.CallsTerminated.WithLabelValues(state.String()).Inc()
	h.updateGauges()
}

// Stats is the counts snapshot served by the health endpoint.
type Stats struct {
	ActiveSessions int `json:"activeSessions"`
	ConnectedUsers int `json:"connectedUsers"`
	BusyUsers      int `json:"busyUsers"`
	PendingTimers  int `json:"pendingTimers"`
}

func (h *Hub) Stats() Stats {
	return Stats{
		ActiveSessions: h.Sessions.Count(),
		ConnectedUsers: h.Presence.Count(),
		BusyUsers:      h.Busy.Count(),
		PendingTimers:  h.Timers.Count(),
	}
}

func (h *Hub) updateGauges() {
	metrics.ActiveSessions.Set(float64(h.Sessions.Count()))
	metrics.ConnectedUsers.Set(float64(h.Presence.Count()))
	metrics.BusyUsers.Set(float64(h.Busy.Count()))
}

// ---- delivery helpers (fire-and-forget, callers hold h.mu) ----

func (h *Hub) sendTo(user domain.UserID, event string, payload any) {
	conn, ok := h.Presence.Resolve(user)
	if !ok {
		log.Warn().Str("module", "app.hub").Str("user", string(user)).Str("event", event).Msg("target not connected")
		metrics.SendFailures.Inc()
		return
	}
	h.sendConn(conn, event, payload)
}

func (h *Hub) sendConn(conn core.SignalConnection, event string, payload any) {
	frame, err := core.NewFrame(event, payload)
	if err != nil {
		log.Error().Str("module", "app.hub").Err(err).Str("event", event).Msg("frame marshal failed")
		return
	}
	if err := conn.TrySend(frame); err != nil {
		log.Warn().Str("module", "app.hub").Str("conn", string(conn.ID())).Str("event", event).Err(err).Msg("send dropped")
		metrics.SendFailures.Inc()
	}
}

func (h *Hub) notifyParties(sess *domain.Session, except domain.UserID, event string, payload any) {
	for _, u := range sess.Parties() {
		if u == except {
			continue
		}
		h.sendTo(u, event, payload)
	}
}
