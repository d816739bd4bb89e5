package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"p2p-lending/internal/domain/apperr"
)

type slot struct {
	ch   chan struct{}
	refs int
}

// Memory is an in-process Locker backed by one single-slot semaphore per key.
type Memory struct {
	mu    sync.Mutex
	slots map[string]*slot
	wait  time.Duration
}

func NewMemory(wait time.Duration) *Memory {
	return &Memory{slots: make(map[string]*slot), wait: wait}
}

func (m *Memory) ref(key string) *slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		m.slots[key] = s
	}
	s.refs++
	return s
}

func (m *Memory) unref(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.slots[key]; ok {
		s.refs--
		if s.refs == 0 {
			delete(m.slots, key)
		}
	}
}

func (m *Memory) Acquire(ctx context.Context, keys ...string) (Release, error) {
	keys = ordered(keys)
	if m.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.wait)
		defer cancel()
	}

	held := make([]*slot, 0, len(keys))
	unlock := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i].ch
			m.unref(keys[i])
		}
	}

	for _, k := range keys {
		s := m.ref(k)
		select {
		case s.ch <- struct{}{}:
			held = append(held, s)
		case <-ctx.Done():
			m.unref(k)
			unlock()
			return nil, fmt.Errorf("%w: waiting for %s", apperr.ErrOperationTimeout, k)
		}
	}

	var once sync.Once
	return func() { once.Do(unlock) }, nil
}
