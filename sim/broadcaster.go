package sim

import (
	"log/slog"
	"sync"
)

// subscriberBuffer is how many events a subscriber channel can fall behind
// before deliveries to it are dropped.
const subscriberBuffer = 64

// Broadcaster fans session events out to live subscribers. Publishing to a
// session with no subscribers is a silent no-op: sessions run fine with
// nobody watching. A subscriber that cannot keep up is skipped rather than
// blocking the publisher.
type Broadcaster struct {
	l    *slog.Logger
	mu   sync.RWMutex
	next int
	subs map[string]map[int]chan *Event
}

func NewBroadcaster(l *slog.Logger) *Broadcaster {
	return &Broadcaster{
		l:    l,
		subs: make(map[string]map[int]chan *Event),
	}
}

// Subscribe registers a listener for the session's events. The returned
// cancel function removes the subscription and closes the channel; it is
// safe to call more than once.
func (b *Broadcaster) Subscribe(sessionID string) (<-chan *Event, func()) {
	ch := make(chan *Event, subscriberBuffer)

	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[int]chan *Event)
	}
	id := b.next
	b.next++
	b.subs[sessionID][id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[sessionID][id]; !ok {
				// Already removed by CloseSession.
				return
			}
			delete(b.subs[sessionID], id)
			if len(b.subs[sessionID]) == 0 {
				delete(b.subs, sessionID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers the event to every current subscriber of its session.
func (b *Broadcaster) Publish(e *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs[e.SessionID] {
		select {
		case ch <- e:
		default:
			b.l.Warn("dropping event for slow subscriber",
				"session_id", e.SessionID,
				"subscriber", id,
				"event_type", string(e.Type),
				"seq", e.Seq)
		}
	}
}

// CloseSession removes every subscriber of the session and closes their
// channels, signalling end of stream.
func (b *Broadcaster) CloseSession(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[sessionID] {
		close(ch)
	}
	delete(b.subs, sessionID)
}

// SubscriberCount reports how many listeners the session currently has.
func (b *Broadcaster) SubscriberCount(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[sessionID])
}
