package eventbus

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Topic names what kind of change happened
type Topic string

const (
	// DataUpdated says derived views are stale and must recompute.
	DataUpdated Topic = "data.updated"
	// FetchFailed says a section could not be refreshed.
	FetchFailed Topic = "fetch.failed"
)

// Event is a change notification. It deliberately carries no entity data:
// subscribers reread the store.
type Event struct {
	ID     string
	Topic  Topic
	Source string
	At     time.Time
}

// Handler receives events
type Handler func(Event)

type subscriber struct {
	id      uint64
	handler Handler
}

// Bus delivers events synchronously to subscribers in subscription order
type Bus struct {
	log *logrus.Logger

	mu     sync.RWMutex
	nextID uint64
	subs   []subscriber
}

// New creates a bus; log may be nil
func New(log *logrus.Logger) *Bus {
	return &Bus{log: log}
}

// Subscribe registers h and returns a function that removes it
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish sends an event with a fresh ID and timestamp
func (b *Bus) Publish(topic Topic, source string) Event {
	ev := Event{
		ID:     uuid.NewString(),
		Topic:  topic,
		Source: source,
		At:     time.Now(),
	}
	b.Deliver(ev)
	return ev
}

// Deliver hands ev to every subscriber. A panicking handler is logged and
// skipped; the remaining handlers still run.
func (b *Bus) Deliver(ev Event) {
	b.mu.RLock()
	subs := append([]subscriber(nil), b.subs...)
	b.mu.RUnlock()

	for _, s := range subs {
		b.call(s.handler, ev)
	}
}

func (b *Bus) call(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil && b.log != nil {
			b.log.WithFields(logrus.Fields{
				"event_id": ev.ID,
				"topic":    ev.Topic,
				"source":   ev.Source,
			}).Errorf("eventbus: handler panicked: %v", r)
		}
	}()
	h(ev)
}

// SubscribersCount returns the number of registered handlers
func (b *Bus) SubscribersCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
