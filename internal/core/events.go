package core

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkeye/Ring/internal/domain"
)

// Inbound event names (connection -> core).
const (
	EvRegisterUser = "register-user"
	EvInitiateCall = "initiate-call"
	EvAcceptCall   = "accept-call"
	EvDeclineCall  = "decline-call"
	EvCancelCall   = "cancel-call"
	EvEndCall      = "end-call"
	EvJoinCallRoom = "join-call-room"
	EvOffer        = "webrtc-offer"
	EvAnswer       = "webrtc-answer"
	EvICECandidate = "webrtc-ice-candidate"
)

// Outbound event names (core -> connections).
const (
	EvIncomingCall        = "incoming-call"
	EvCallAccepted        = "call-accepted"
	EvCallRejected        = "call-rejected"
	EvParticipantDeclined = "participant-declined"
	EvCallCancelled       = "call-cancelled"
	EvCallEnded           = "call-ended"
	EvCallTimeout         = "call-timeout"
	EvCallFailed          = "call-failed"
	EvParticipantBusy     = "participant-busy"
	EvStartNegotiation    = "start-webrtc-negotiation"
)

// Envelope is the wire format in both directions: an event name plus a
// structured payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewFrame marshals an event into a transport frame.
func NewFrame(event string, data any) (Frame, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	b, err := json.Marshal(Envelope{Event: event, Data: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", event, err)
	}
	return Frame(b), nil
}

// ---- inbound payloads ----

type RegisterUser struct {
	UserID      domain.UserID `json:"userId"`
	DisplayName string        `json:"displayName,omitempty"`
}

type InitiateCall struct {
	CallID         domain.CallID   `json:"callId"`
	CallerID       domain.UserID   `json:"callerId"`
	CallerName     string          `json:"callerName,omitempty"`
	ParticipantIDs []domain.UserID `json:"participantIds"`
	IsVideo        bool            `json:"isVideo"`
	IsGroup        bool            `json:"isGroup"`
}

type CallRef struct {
	CallID domain.CallID `json:"callId"`
}

type DeclineCall struct {
	CallID domain.CallID `json:"callId"`
	Reason string        `json:"reason,omitempty"`
}

type EndCall struct {
	CallID domain.CallID `json:"callId"`
	Reason string        `json:"reason,omitempty"`
}

// RelayPayload carries a negotiation message. Offer, Answer and Candidate are
// kept raw: the relay is a dumb pipe and never inspects SDP or ICE content.
type RelayPayload struct {
	CallID    domain.CallID   `json:"callId"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// Body returns whichever negotiation body the payload carries.
func (p RelayPayload) Body() json.RawMessage {
	switch {
	case p.Offer != nil:
		return p.Offer
	case p.Answer != nil:
		return p.Answer
	default:
		return p.Candidate
	}
}

// ---- outbound payloads ----

type IncomingCall struct {
	CallID     domain.CallID `json:"callId"`
	CallerID   domain.UserID `json:"callerId"`
	CallerName string        `json:"callerName,omitempty"`
	IsVideo    bool          `json:"isVideo"`
	IsGroup    bool          `json:"isGroup"`
	Timestamp  time.Time     `json:"timestamp"`
}

type CallAccepted struct {
	CallID     domain.CallID `json:"callId"`
	AcceptedBy domain.UserID `json:"acceptedBy"`
	Timestamp  time.Time     `json:"timestamp"`
}

type CallRejected struct {
	CallID     domain.CallID `json:"callId"`
	RejectedBy domain.UserID `json:"rejectedBy"`
	Reason     string        `json:"reason"`
	Timestamp  time.Time     `json:"timestamp"`
}

type ParticipantDeclined struct {
	CallID     domain.CallID `json:"callId"`
	DeclinedBy domain.UserID `json:"declinedBy"`
	Reason     string        `json:"reason"`
	Timestamp  time.Time     `json:"timestamp"`
}

type CallCancelled struct {
	CallID    domain.CallID `json:"callId"`
	Timestamp time.Time     `json:"timestamp"`
}

type CallEnded struct {
	CallID           domain.CallID `json:"callId"`
	Reason           string        `json:"reason"`
	EndedBy          domain.UserID `json:"endedBy,omitempty"`
	DisconnectedUser domain.UserID `json:"disconnectedUser,omitempty"`
	Timestamp        time.Time     `json:"timestamp"`
}

type CallTimeout struct {
	CallID    domain.CallID `json:"callId"`
	Reason    string        `json:"reason"`
	Timestamp time.Time     `json:"timestamp"`
}

type CallFailed struct {
	CallID  domain.CallID `json:"callId"`
	Reason  string        `json:"reason"`
	Message string        `json:"message,omitempty"`
}

type ParticipantBusy struct {
	CallID           domain.CallID   `json:"callId"`
	BusyParticipants []domain.UserID `json:"busyParticipants"`
	Message          string          `json:"message,omitempty"`
}

type StartNegotiation struct {
	CallID           domain.CallID `json:"callId"`
	ParticipantCount int           `json:"participantCount"`
}

// RelayedSignal is a forwarded negotiation message annotated with its sender.
type RelayedSignal struct {
	CallID    domain.CallID   `json:"callId"`
	From      domain.UserID   `json:"from"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}
