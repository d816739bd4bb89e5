package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"p2p-lending/internal/domain/event"
)

const publishTimeout = 5 * time.Second

// Dispatcher hands events to a Publisher on a background goroutine so that
// emitting never blocks a funding or approval. A full buffer drops the event.
type Dispatcher struct {
	pub event.Publisher
	log *slog.Logger
	ch  chan event.Event

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
	done      chan struct{}
}

func NewDispatcher(pub event.Publisher, buffer int, log *slog.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	d := &Dispatcher{
		pub:  pub,
		log:  log,
		ch:   make(chan event.Event, buffer),
		done: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) Emit(e event.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.ch <- e:
	default:
		d.log.Warn("event dropped: dispatcher buffer full", "type", e.Type, "loan_id", e.LoanID)
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for e := range d.ch {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := d.pub.Publish(ctx, e); err != nil {
			d.log.Error("event publish failed", "type", e.Type, "loan_id", e.LoanID, "error", err)
		}
		cancel()
	}
}

// Close stops accepting events and waits until the buffer is drained or ctx ends.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.ch)
		d.mu.Unlock()
	})
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
