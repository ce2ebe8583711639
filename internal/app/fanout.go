package app

import (
	"sync"

	"estimation-quiz-service/internal/domain"
)

// Emitter receives every event a session produces.
type Emitter interface {
	Emit(domain.Event)
}

const subscriberBuffer = 64

// fanout delivers session events to per-connection channels. Broadcasts go to
// every subscriber, private events only to the addressed connection.
type fanout struct {
	mu          sync.Mutex
	subscribers map[string]chan domain.Event
}

func newFanout() *fanout {
	return &fanout{subscribers: make(map[string]chan domain.Event)}
}

// subscribe registers connID. A second subscription for the same id replaces
// the first one and closes its channel.
func (f *fanout) subscribe(connID string) <-chan domain.Event {
	ch := make(chan domain.Event, subscriberBuffer)
	f.mu.Lock()
	if old, ok := f.subscribers[connID]; ok {
		close(old)
	}
	f.subscribers[connID] = ch
	f.mu.Unlock()
	return ch
}

func (f *fanout) unsubscribe(connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.subscribers[connID]; ok {
		delete(f.subscribers, connID)
		close(ch)
	}
}

func (f *fanout) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}

func (f *fanout) Emit(ev domain.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev.Private() {
		if ch, ok := f.subscribers[ev.To]; ok {
			f.deliverLocked(ev.To, ch, ev)
		}
		return
	}
	for id, ch := range f.subscribers {
		f.deliverLocked(id, ch, ev)
	}
}

// deliverLocked never blocks: a connection that cannot keep up is dropped.
func (f *fanout) deliverLocked(id string, ch chan domain.Event, ev domain.Event) {
	select {
	case ch <- ev:
	default:
		delete(f.subscribers, id)
		close(ch)
	}
}
