package domain

import "time"

type CallID string

// CallState is the lifecycle position of a call session. Terminal states are
// final; a session entering one is removed from the store in the same step.
type CallState int

const (
	StatePending CallState = iota
	StateRinging
	StateAccepted
	StateActive
	StateEnded
	StateTimedOut
	StateCancelled
	StateRejected
)

var stateNames = map[CallState]string{
	StatePending:   "pending",
	StateRinging:   "ringing",
	StateAccepted:  "accepted",
	StateActive:    "active",
	StateEnded:     "ended",
	StateTimedOut:  "timed_out",
	StateCancelled: "cancelled",
	StateRejected:  "rejected",
}

func (s CallState) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s CallState) Terminal() bool {
	switch s {
	case StateEnded, StateTimedOut, StateCancelled, StateRejected:
		return true
	}
	return false
}

// Session is one call attempt, from invitation through termination.
// All mutation happens under the hub's lock; the struct itself carries no
// synchronization.
type Session struct {
	ID         CallID
	CallerID   UserID
	CallerName string

	// ParticipantIDs shrinks as group members decline or drop while ringing.
	// The caller is never in this list.
	ParticipantIDs []UserID

	// Connected holds users confirmed present in the negotiation room.
	// Ready holds connections that joined the call room; a user may accept
	// before its transport joins, so these sets advance independently.
	Connected map[UserID]struct{}
	Ready     map[ConnID]struct{}

	IsVideo bool
	IsGroup bool

	State      CallState
	CreatedAt  time.Time
	AcceptedAt time.Time
}

func NewSession(id CallID, caller UserID, callerName string, participants []UserID, isVideo, isGroup bool, now time.Time) *Session {
	s := &Session{
		ID:             id,
		CallerID:       caller,
		CallerName:     callerName,
		ParticipantIDs: append([]UserID(nil), participants...),
		Connected:      map[UserID]struct{}{caller: {}},
		Ready:          make(map[ConnID]struct{}),
		IsVideo:        isVideo,
		IsGroup:        isGroup,
		State:          StatePending,
		CreatedAt:      now,
	}
	return s
}

// Parties returns the caller plus every still-invited participant.
func (s *Session) Parties() []UserID {
	out := make([]UserID, 0, len(s.ParticipantIDs)+1)
	out = append(out, s.CallerID)
	out = append(out, s.ParticipantIDs...)
	return out
}

func (s *Session) IsParty(u UserID) bool {
	if u == s.CallerID {
		return true
	}
	for _, p := range s.ParticipantIDs {
		if p == u {
			return true
		}
	}
	return false
}

// RemoveParticipant drops u from the invited list and reports whether it was
// present. The caller cannot be removed this way.
func (s *Session) RemoveParticipant(u UserID) bool {
	for i, p := range s.ParticipantIDs {
		if p == u {
			s.ParticipantIDs = append(s.ParticipantIDs[:i], s.ParticipantIDs[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Session) Age(now time.Time) time.Duration {
	return now.Sub(s.CreatedAt)
}
