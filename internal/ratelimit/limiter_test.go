package ratelimit

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 2, 25, 12, 0, 0, 0, time.UTC)

func TestAdmit_LimitWithinWindow(t *testing.T) {
	l := New(DefaultConfig())

	for i := 0; i < 5; i++ {
		require.True(t, l.Admit("10.0.0.1", base.Add(time.Duration(i)*40*time.Millisecond)), "call %d", i+1)
	}
	assert.False(t, l.Admit("10.0.0.1", base.Add(200*time.Millisecond)), "6th call inside the window")
}

func TestAdmit_ResumesAfterWindow(t *testing.T) {
	l := New(DefaultConfig())

	for i := 0; i < 5; i++ {
		require.True(t, l.Admit("10.0.0.1", base))
	}
	require.False(t, l.Admit("10.0.0.1", base.Add(999*time.Millisecond)))
	// Exactly one window later the first stamps are no longer inside (now-window, now].
	assert.True(t, l.Admit("10.0.0.1", base.Add(time.Second)))
}

func TestAdmit_SlidingNotBucketed(t *testing.T) {
	l := New(DefaultConfig())

	// Three early, two late: at t=1.1s only the two late stamps are still inside the window.
	for i := 0; i < 3; i++ {
		require.True(t, l.Admit("c", base))
	}
	for i := 0; i < 2; i++ {
		require.True(t, l.Admit("c", base.Add(900*time.Millisecond)))
	}
	require.False(t, l.Admit("c", base.Add(950*time.Millisecond)))

	now := base.Add(1100 * time.Millisecond)
	for i := 0; i < 3; i++ {
		assert.True(t, l.Admit("c", now), "slot %d freed by the sliding window", i)
	}
	assert.False(t, l.Admit("c", now))
}

func TestAdmit_RejectDoesNotRecord(t *testing.T) {
	l := New(Config{Limit: 1, Window: time.Second})

	require.True(t, l.Admit("c", base))
	for i := 1; i < 10; i++ {
		require.False(t, l.Admit("c", base.Add(time.Duration(i)*90*time.Millisecond)))
	}
	// Rejected calls at 0.09..0.81s must not extend the window past base+1s.
	assert.True(t, l.Admit("c", base.Add(time.Second)))
}

func TestAdmit_IndependentClients(t *testing.T) {
	l := New(DefaultConfig())

	for i := 0; i < 5; i++ {
		require.True(t, l.Admit("10.0.0.1", base))
	}
	require.False(t, l.Admit("10.0.0.1", base))

	for i := 0; i < 5; i++ {
		assert.True(t, l.Admit("10.0.0.2", base), "client B call %d", i+1)
	}
	assert.Equal(t, 2, l.Len())
}

func TestAdmit_BoundedClientTable(t *testing.T) {
	l := New(Config{Limit: 5, Window: time.Second, MaxClients: 3})

	for i := 0; i < 10; i++ {
		l.Admit(fmt.Sprintf("10.0.0.%d", i), base)
	}
	assert.Equal(t, 3, l.Len())
}

func TestAdmit_IdleClientsExpire(t *testing.T) {
	l := New(Config{Limit: 5, Window: 10 * time.Millisecond, MaxClients: 10, IdleTTL: 20 * time.Millisecond})

	l.Admit("10.0.0.1", base)
	l.Admit("10.0.0.2", base.Add(15*time.Millisecond))
	require.Equal(t, 2, l.Len())

	// The first client has been idle for the full TTL; the second has not.
	l.Admit("10.0.0.3", base.Add(20*time.Millisecond))
	assert.Equal(t, 2, l.Len())

	l.Admit("10.0.0.3", base.Add(time.Second))
	assert.Equal(t, 1, l.Len())
}

func TestNew_StartsNoGoroutines(t *testing.T) {
	before := runtime.NumGoroutine()
	for i := 0; i < 50; i++ {
		New(DefaultConfig()).Admit("10.0.0.1", base)
	}
	assert.LessOrEqual(t, runtime.NumGoroutine(), before+2)
}

func TestNew_Defaults(t *testing.T) {
	l := New(Config{})
	assert.Equal(t, DefaultLimit, l.Limit())
	assert.Equal(t, DefaultWindow, l.Window())
}

func TestAdmit_ConcurrentSameClient(t *testing.T) {
	l := New(Config{Limit: 5, Window: time.Hour})

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Admit("10.0.0.1", time.Now()) {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(5), admitted.Load())
}
