package history

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// EventType discriminates feed events.
type EventType string

const (
	EventAdded       EventType = "added"
	EventRemoved     EventType = "removed"
	EventCleared     EventType = "cleared"
	EventPersistence EventType = "persistence"
)

// Event is one history change delivered to feed subscribers.
type Event struct {
	Type EventType
	// Seq is a monotonic event number. A subscriber that sees a gap knows
	// it lagged and should re-list instead of trusting its replica.
	Seq     uint64
	Entry   *Entry // EventAdded
	ID      uint64 // EventRemoved
	Enabled bool   // EventPersistence
}

// Feed fans history events out to subscribers. Delivery is non-blocking:
// a subscriber that stops draining its channel loses events (and can
// detect that via Seq gaps) rather than stalling the capture path.
type Feed struct {
	mu   sync.Mutex
	seq  uint64
	subs map[string]chan Event
}

func newFeed() *Feed {
	return &Feed{subs: make(map[string]chan Event)}
}

// Subscribe registers a subscriber with the given channel buffer and
// returns its id and receive channel. The channel is closed on
// Unsubscribe.
func (f *Feed) Subscribe(buffer int) (string, <-chan Event) {
	if buffer <= 0 {
		buffer = 64
	}
	id := uuid.NewString()
	ch := make(chan Event, buffer)
	f.mu.Lock()
	f.subs[id] = ch
	f.mu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (f *Feed) Unsubscribe(id string) {
	f.mu.Lock()
	ch, ok := f.subs[id]
	if ok {
		delete(f.subs, id)
	}
	f.mu.Unlock()
	if ok {
		close(ch)
	}
}

func (f *Feed) added(e *Entry) { f.publish(Event{Type: EventAdded, Entry: e}) }

func (f *Feed) removed(id uint64) { f.publish(Event{Type: EventRemoved, ID: id}) }

func (f *Feed) cleared() { f.publish(Event{Type: EventCleared}) }

// PersistenceChanged announces a persistence on/off transition.
func (f *Feed) PersistenceChanged(enabled bool) {
	f.publish(Event{Type: EventPersistence, Enabled: enabled})
}

func (f *Feed) publish(ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	ev.Seq = f.seq
	for id, ch := range f.subs {
		select {
		case ch <- ev:
		default:
			slog.Warn("event subscriber lagging, dropping event",
				"subscriber", id, "type", ev.Type, "seq", ev.Seq)
		}
	}
}
