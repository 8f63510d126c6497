package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestFixedWindow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	limiter := newFixedWindow(Config{Capacity: 3, Window: time.Second}, clock.Now)

	for i := 0; i < 3; i++ {
		require.True(t, limiter.Allow(), "應該允許第 %d 次請求", i+1)
	}
	require.False(t, limiter.Allow(), "超過容量限制應該被拒絕")

	clock.Advance(time.Second)
	require.True(t, limiter.Allow(), "新的時間窗口應該允許請求")
}

func TestFixedWindowConcurrent(t *testing.T) {
	limiter := NewFixedWindow(Config{Capacity: 50, Window: time.Hour})

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Allow() {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(50), allowed.Load())
}

func TestNewFixedWindowDefaults(t *testing.T) {
	limiter := NewFixedWindow(Config{})
	require.Equal(t, DefaultConfig(), limiter.cfg)
}
