package ratelimit

import (
	"sync"
	"sync/atomic"
	"time"
)

type Limiter interface {
	Allow() bool
}

type Config struct {
	Capacity int
	Window   time.Duration
}

func DefaultConfig() Config {
	return Config{
		Capacity: 30,
		Window:   time.Minute,
	}
}

/*
FixedWindow 固定視窗計數
視窗交界處會有突刺問題，結帳節流可接受
*/
type FixedWindow struct {
	cfg       Config
	count     atomic.Int32
	startedAt time.Time
	mu        sync.RWMutex
	now       func() time.Time
}

func NewFixedWindow(cfg Config) *FixedWindow {
	d := DefaultConfig()
	if cfg.Capacity <= 0 {
		cfg.Capacity = d.Capacity
	}
	if cfg.Window <= 0 {
		cfg.Window = d.Window
	}
	return newFixedWindow(cfg, time.Now)
}

func newFixedWindow(cfg Config, now func() time.Time) *FixedWindow {
	return &FixedWindow{
		cfg:       cfg,
		startedAt: now(),
		now:       now,
	}
}

var _ Limiter = (*FixedWindow)(nil)

func (w *FixedWindow) Allow() bool {
	current := w.now()
	w.mu.RLock()
	needReset := current.Sub(w.startedAt) >= w.cfg.Window
	w.mu.RUnlock()

	if needReset {
		w.mu.Lock()
		if current.Sub(w.startedAt) >= w.cfg.Window {
			w.count.Store(0)
			w.startedAt = current
		}
		w.mu.Unlock()
	}

	for {
		n := w.count.Load()
		if n+1 > int32(w.cfg.Capacity) {
			return false
		}
		if w.count.CompareAndSwap(n, n+1) {
			return true
		}
	}
}
