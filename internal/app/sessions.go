package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Ring/internal/domain"
)

// SessionStore owns every live Session record. A session is present exactly
// while it is in a non-terminal state; terminal transitions delete it.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[domain.CallID]*domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[domain.CallID]*domain.Session)}
}

// Put stores a new session and reports false if the id is already taken.
func (s *SessionStore) Put(sess *domain.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		return false
	}
	s.sessions[sess.ID] = sess
	log.Info().Str("module", "app.sessions").Str("call", string(sess.ID)).Str("caller", string(sess.CallerID)).Int("participants", len(sess.ParticipantIDs)).Msg("session created")
	return true
}

func (s *SessionStore) Get(id domain.CallID) (*domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *SessionStore) Delete(id domain.CallID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Snapshot returns a stable copy of the session set. Disconnect handling and
// the reaper iterate over this, so terminating one session mid-pass cannot
// skip or duplicate another.
func (s *SessionStore) Snapshot() []*domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// SessionInfo is a read-only view for the debug API (no connection handles).
type SessionInfo struct {
	ID               domain.CallID `json:"id"`
	CallerID         domain.UserID `json:"callerId"`
	ParticipantCount int           `json:"participantCount"`
	ConnectedCount   int           `json:"connectedCount"`
	ReadyCount       int           `json:"readyCount"`
	State            string        `json:"state"`
	IsVideo          bool          `json:"isVideo"`
	IsGroup          bool          `json:"isGroup"`
	AgeSeconds       float64       `json:"ageSeconds"`
}

func (s *SessionStore) List(now time.Time) []SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SessionInfo, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, SessionInfo{
			ID:               sess.ID,
			CallerID:         sess.CallerID,
			ParticipantCount: len(sess.ParticipantIDs),
			ConnectedCount:   len(sess.Connected),
			ReadyCount:       len(sess.Ready),
			State:            sess.State.String(),
			IsVideo:          sess.IsVideo,
			IsGroup:          sess.IsGroup,
			AgeSeconds:       sess.Age(now).Seconds(),
		})
	}
	return out
}
