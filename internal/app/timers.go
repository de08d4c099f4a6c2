package app

import (
	"sync"
	"time"

	"github.com/dkeye/Ring/internal/domain"
)

// TimerManager owns at most one outstanding timeout per call id. Arm replaces
// any existing timer; Cancel is idempotent. A stopped timer may already have
// fired into its goroutine, so callbacks must re-check session state under
// the hub lock rather than trust the schedule.
type TimerManager struct {
	mu     sync.Mutex
	timers map[domain.CallID]*time.Timer
}

func NewTimerManager() *TimerManager {
	return &TimerManager{timers: make(map[domain.CallID]*time.Timer)}
}

func (t *TimerManager) Arm(id domain.CallID, d time.Duration, fire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.timers[id]; ok {
		prev.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		t.drop(id, timer)
		fire()
	})
	t.timers[id] = timer
}

func (t *TimerManager) Cancel(id domain.CallID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[id]; ok {
		timer.Stop()
		delete(t.timers, id)
	}
}

func (t *TimerManager) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}

// drop removes the entry for a fired timer unless it was already replaced.
func (t *TimerManager) drop(id domain.CallID, timer *time.Timer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.timers[id]; ok && cur == timer {
		delete(t.timers, id)
	}
}
