package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTickerFires(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var count int32
	s.AddTicker("tick", 20*time.Millisecond, func() { atomic.AddInt32(&count, 1) })

	time.Sleep(120 * time.Millisecond)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&count), int32(3))
}

func TestTickerReplacedByName(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var first, second int32
	s.AddTicker("job", 20*time.Millisecond, func() { atomic.AddInt32(&first, 1) })
	time.Sleep(30 * time.Millisecond)
	s.AddTicker("job", 20*time.Millisecond, func() { atomic.AddInt32(&second, 1) })
	time.Sleep(80 * time.Millisecond)

	snap := atomic.LoadInt32(&first)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, snap, atomic.LoadInt32(&first), "replaced ticker must stop")
	assert.Positive(t, atomic.LoadInt32(&second))
}

func TestDelayFiresOnce(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var count int32
	s.AddDelay("once", 30*time.Millisecond, func() { atomic.AddInt32(&count, 1) })

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&count))
	assert.Empty(t, s.Names())
}

func TestRemoveCancels(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var ticks, delays int32
	s.AddTicker("t", 20*time.Millisecond, func() { atomic.AddInt32(&ticks, 1) })
	s.AddDelay("d", 50*time.Millisecond, func() { atomic.AddInt32(&delays, 1) })
	time.Sleep(30 * time.Millisecond)
	s.Remove("t")
	s.Remove("d")
	s.Remove("never-registered")

	snap := atomic.LoadInt32(&ticks)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, snap, atomic.LoadInt32(&ticks))
	assert.Equal(t, int32(0), atomic.LoadInt32(&delays))
}

func TestStopHaltsEverything(t *testing.T) {
	s := New(zap.NewNop())

	var count int32
	s.AddTicker("a", 20*time.Millisecond, func() { atomic.AddInt32(&count, 1) })
	s.AddTicker("b", 20*time.Millisecond, func() { atomic.AddInt32(&count, 1) })
	time.Sleep(50 * time.Millisecond)
	s.Stop()
	s.Stop()
	time.Sleep(30 * time.Millisecond)

	snap := atomic.LoadInt32(&count)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, snap, atomic.LoadInt32(&count))
}

func TestPanicDoesNotKillTicker(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var count int32
	s.AddTicker("flaky", 20*time.Millisecond, func() {
		atomic.AddInt32(&count, 1)
		panic("boom")
	})

	time.Sleep(100 * time.Millisecond)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&count), int32(2), "loop survives panics")
}

func TestNames(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	require.Empty(t, s.Names())
	s.AddTicker("alpha", time.Hour, func() {})
	s.AddTicker("beta", time.Hour, func() {})
	s.Remove("alpha")
	assert.Equal(t, []string{"beta"}, s.Names())
}
