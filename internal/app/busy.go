package app

import (
	"sync"

	"github.com/dkeye/Ring/internal/domain"
)

// BusyTracker maps user identities to an in-call flag. Every path that marks
// a set of users busy has a matching clear on every exit of the call; the
// flag holds exactly while the user is party to a non-terminal session.
//
// The flag is advisory: it is only consulted when a call is initiated, so a
// user can still end up in two sessions through interleaved races. That gap
// is documented, not structurally enforced.
type BusyTracker struct {
	mu   sync.RWMutex
	busy map[domain.UserID]struct{}
}

func NewBusyTracker() *BusyTracker {
	return &BusyTracker{busy: make(map[domain.UserID]struct{})}
}

func (b *BusyTracker) Set(users ...domain.UserID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range users {
		b.busy[u] = struct{}{}
	}
}

func (b *BusyTracker) Clear(users ...domain.UserID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range users {
		delete(b.busy, u)
	}
}

func (b *BusyTracker) IsBusy(u domain.UserID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.busy[u]
	return ok
}

// Filter returns the subset of users that are currently busy.
func (b *BusyTracker) Filter(users []domain.UserID) []domain.UserID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []domain.UserID
	for _, u := range users {
		if _, ok := b.busy[u]; ok {
			out = append(out, u)
		}
	}
	return out
}

func (b *BusyTracker) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.busy)
}
