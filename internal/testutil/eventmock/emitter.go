package eventmock

import (
	"sync"

	"p2p-lending/internal/domain/event"
)

var _ event.Emitter = (*Recorder)(nil)

// Recorder keeps every emitted event for assertions.
type Recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *Recorder) Emit(e event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event(nil), r.events...)
}

// Count returns how many events of type t were emitted.
func (r *Recorder) Count(t event.Type) int {
	n := 0
	for _, e := range r.Events() {
		if e.Type == t {
			n++
		}
	}
	return n
}
