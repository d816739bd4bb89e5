package eventmock

import (
	"sync"
	"testing"

	"p2p-lending/internal/domain/event"
)

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Emit(event.Event{Type: event.TypeLoanFunded})
		}()
	}
	wg.Wait()
	r.Emit(event.Event{Type: event.TypeLoanFullyFunded})

	if r.Count(event.TypeLoanFunded) != 10 || r.Count(event.TypeLoanFullyFunded) != 1 {
		t.Fatalf("unexpected counts: %+v", r.Events())
	}
	evs := r.Events()
	evs[0].Type = "mutated"
	if r.Count("mutated") != 0 {
		t.Fatal("Events must return a copy")
	}
}
