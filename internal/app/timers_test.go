package app

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerArmReplaces(t *testing.T) {
	tm := NewTimerManager()
	var first, second atomic.Int32

	tm.Arm("c1", time.Hour, func() { first.Add(1) })
	tm.Arm("c1", 10*time.Millisecond, func() { second.Add(1) })
	assert.Equal(t, 1, tm.Count(), "arming replaces, never stacks")

	require.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), first.Load(), "replaced timer must not fire")
	assert.Equal(t, 0, tm.Count(), "fired timer removes its entry")
}

func TestTimerCancelIdempotent(t *testing.T) {
	tm := NewTimerManager()
	var fired atomic.Int32

	tm.Arm("c1", 20*time.Millisecond, func() { fired.Add(1) })
	tm.Cancel("c1")
	tm.Cancel("c1")
	tm.Cancel("missing")

	assert.Equal(t, 0, tm.Count())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestTimerPerCallIsolation(t *testing.T) {
	tm := NewTimerManager()
	var c2fired atomic.Int32

	tm.Arm("c1", time.Hour, func() {})
	tm.Arm("c2", 10*time.Millisecond, func() { c2fired.Add(1) })
	assert.Equal(t, 2, tm.Count())

	require.Eventually(t, func() bool { return c2fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, tm.Count(), "c1 timer untouched by c2 firing")
	tm.Cancel("c1")
}
