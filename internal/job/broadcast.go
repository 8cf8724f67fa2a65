package job

import (
	"context"
	"sync"
)

// broadcast is an ordered, append-only event log with multi-subscriber
// delivery. The full history is kept so a subscriber attaching late (or
// reconnecting) replays everything from the start before going live.
type broadcast struct {
	mu     sync.Mutex
	events []Event
	subs   map[*subscriber]struct{}
	closed bool
}

type subscriber struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []Event
	closed  bool
}

func newBroadcast() *broadcast {
	return &broadcast{subs: make(map[*subscriber]struct{})}
}

// publish appends an event and queues it for every subscriber. Publishing
// after close is a no-op.
func (b *broadcast) publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.events = append(b.events, e)
	for s := range b.subs {
		s.push(e)
	}
}

// close ends the stream for all current and future subscribers.
func (b *broadcast) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		s.finish()
	}
	b.subs = nil
}

// subscribe returns a channel replaying the full history and then delivering
// live events in publish order. The channel is closed after the last event
// once the broadcast itself closes, or when ctx is cancelled. Subscribing
// after close still replays the complete log.
func (b *broadcast) subscribe(ctx context.Context) <-chan Event {
	b.mu.Lock()
	s := &subscriber{pending: append([]Event(nil), b.events...)}
	s.cond = sync.NewCond(&s.mu)
	if b.closed {
		s.closed = true
	} else {
		b.subs[s] = struct{}{}
	}
	b.mu.Unlock()

	ch := make(chan Event, 16)
	go s.pump(ctx, ch, func() { b.drop(s) })

	// Wake the pump when the subscriber's context ends.
	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			s.finish()
		}()
	}

	return ch
}

func (b *broadcast) drop(s *subscriber) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
}

func (s *subscriber) push(e Event) {
	s.mu.Lock()
	s.pending = append(s.pending, e)
	s.cond.Signal()
	s.mu.Unlock()
}

func (s *subscriber) finish() {
	s.mu.Lock()
	s.closed = true
	s.cond.Signal()
	s.mu.Unlock()
}

// pump drains the pending queue into ch in order, never blocking the
// publisher. drop detaches the subscriber from the broadcast on exit.
func (s *subscriber) pump(ctx context.Context, ch chan<- Event, drop func()) {
	defer drop()
	defer close(ch)

	for {
		s.mu.Lock()
		for len(s.pending) == 0 && !s.closed {
			s.cond.Wait()
		}
		batch := s.pending
		s.pending = nil
		done := s.closed
		s.mu.Unlock()

		for _, e := range batch {
			select {
			case ch <- e:
			case <-ctx.Done():
				return
			}
		}
		if done {
			return
		}
	}
}
