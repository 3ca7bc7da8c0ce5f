package feed

import (
	"encoding/json"
	"testing"
	"time"

	"coach-fleet/internal/publisher"
)

func newTestFeed() *Feed {
	return &Feed{
		latest:  make(map[string]publisher.PositionMessage),
		watches: make(map[int]chan publisher.PositionMessage),
	}
}

func encode(t *testing.T, msg publisher.PositionMessage) []byte {
	t.Helper()
	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestHandle_TracksLatestPerVehicle(t *testing.T) {
	f := newTestFeed()

	f.handle(encode(t, publisher.PositionMessage{VehicleID: "bus-001", RouteID: "route-001", Lon: 2}))
	f.handle(encode(t, publisher.PositionMessage{VehicleID: "bus-002", RouteID: "route-002", Lon: 5}))
	f.handle(encode(t, publisher.PositionMessage{VehicleID: "bus-001", RouteID: "route-001", Lon: 4}))

	msg, ok := f.Latest("bus-001")
	if !ok || msg.Lon != 4 {
		t.Fatalf("Latest(bus-001) = %+v ok=%v, want lon 4", msg, ok)
	}
	snap := f.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot size = %d, want 2", len(snap))
	}
	if _, ok := f.Latest("bus-404"); ok {
		t.Fatal("Latest for unknown vehicle should report not found")
	}
}

func TestHandle_IgnoresMalformedMessages(t *testing.T) {
	f := newTestFeed()
	f.handle([]byte("not json"))
	f.handle(encode(t, publisher.PositionMessage{})) // no vehicle id
	if len(f.Snapshot()) != 0 {
		t.Fatal("malformed messages should not enter the snapshot")
	}
}

func TestWatch_DeliversUpdates(t *testing.T) {
	f := newTestFeed()
	ch, stop := f.Watch(4)
	defer stop()

	f.handle(encode(t, publisher.PositionMessage{VehicleID: "bus-001", Lon: 2}))

	select {
	case msg := <-ch:
		if msg.VehicleID != "bus-001" || msg.Lon != 2 {
			t.Fatalf("watched message = %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no update delivered to watcher")
	}
}

func TestWatch_SlowWatcherDoesNotBlock(t *testing.T) {
	f := newTestFeed()
	_, stop := f.Watch(1)
	defer stop()

	// Second update overflows the buffer; handle must not block on it.
	done := make(chan struct{})
	go func() {
		f.handle(encode(t, publisher.PositionMessage{VehicleID: "bus-001", Lon: 2}))
		f.handle(encode(t, publisher.PositionMessage{VehicleID: "bus-001", Lon: 4}))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handle blocked on a slow watcher")
	}

	// The snapshot still carries the newest position.
	if msg, _ := f.Latest("bus-001"); msg.Lon != 4 {
		t.Fatalf("Latest lon = %v, want 4", msg.Lon)
	}
}

func TestWatch_StopClosesChannel(t *testing.T) {
	f := newTestFeed()
	ch, stop := f.Watch(1)
	stop()
	stop() // idempotent

	if _, open := <-ch; open {
		t.Fatal("channel still open after stop")
	}

	// Updates after stop go nowhere but must not panic.
	f.handle(encode(t, publisher.PositionMessage{VehicleID: "bus-001", Lon: 2}))
}
