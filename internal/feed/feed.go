// Package feed is a read-only projection of vehicle positions for
// subscribers, fed by the notification bus at its own cadence.
package feed

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/nats-io/nats.go"

	"coach-fleet/internal/publisher"
)

// Feed tracks the latest published position per vehicle and fans updates
// out to watchers. It never blocks the delivery callback: a watcher whose
// buffer is full misses that update and catches up on the next one.
type Feed struct {
	sub *nats.Subscription

	mu      sync.Mutex
	latest  map[string]publisher.PositionMessage
	watches map[int]chan publisher.PositionMessage
	nextID  int
}

// Subscribe attaches a feed to the position subject space on the given
// connection.
func Subscribe(nc *nats.Conn) (*Feed, error) {
	f := &Feed{
		latest:  make(map[string]publisher.PositionMessage),
		watches: make(map[int]chan publisher.PositionMessage),
	}
	sub, err := nc.Subscribe(publisher.SubjectPrefix+".>", func(m *nats.Msg) {
		f.handle(m.Data)
	})
	if err != nil {
		return nil, err
	}
	f.sub = sub
	return f, nil
}

func (f *Feed) handle(data []byte) {
	var msg publisher.PositionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("feed: bad position message: %v", err)
		return
	}
	if msg.VehicleID == "" {
		return
	}
	f.mu.Lock()
	f.latest[msg.VehicleID] = msg
	for _, ch := range f.watches {
		select {
		case ch <- msg:
		default: // watcher is behind, skip this update
		}
	}
	f.mu.Unlock()
}

// Latest returns the most recent position seen for a vehicle.
func (f *Feed) Latest(vehicleID string) (publisher.PositionMessage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.latest[vehicleID]
	return msg, ok
}

// Snapshot returns a copy of the latest position of every known vehicle.
func (f *Feed) Snapshot() map[string]publisher.PositionMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]publisher.PositionMessage, len(f.latest))
	for id, msg := range f.latest {
		out[id] = msg
	}
	return out
}

// Watch registers a live update channel with the given buffer size. The
// returned stop function removes the watcher and closes the channel.
func (f *Feed) Watch(buf int) (<-chan publisher.PositionMessage, func()) {
	if buf < 1 {
		buf = 1
	}
	ch := make(chan publisher.PositionMessage, buf)
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.watches[id] = ch
	f.mu.Unlock()
	stop := func() {
		f.mu.Lock()
		if _, ok := f.watches[id]; ok {
			delete(f.watches, id)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, stop
}

// Close detaches the feed from the bus and closes all watchers.
func (f *Feed) Close() {
	if f.sub != nil {
		_ = f.sub.Unsubscribe()
	}
	f.mu.Lock()
	for id, ch := range f.watches {
		delete(f.watches, id)
		close(ch)
	}
	f.mu.Unlock()
}
