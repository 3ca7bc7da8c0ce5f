// Package ledger is the authoritative per-trip record of which seats are
// taken. A trip is a vehicle on a specific travel date; seat allocation for
// one trip is serialized, different trips proceed independently.
package ledger

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// TripKey identifies the unit of seat inventory.
type TripKey struct {
	VehicleID string
	Date      string // travel date, 2006-01-02
}

// SeatConflictError names the requested seats that were already allocated.
type SeatConflictError struct {
	Key   TripKey
	Seats []int
}

func (e *SeatConflictError) Error() string {
	parts := make([]string, len(e.Seats))
	for i, s := range e.Seats {
		parts[i] = fmt.Sprintf("%d", s)
	}
	return fmt.Sprintf("seats already taken on %s/%s: %s", e.Key.VehicleID, e.Key.Date, strings.Join(parts, ","))
}

// Reservation is proof that seats were exclusively claimed. It is consumed
// by the booking service when constructing a durable booking.
type Reservation struct {
	VehicleID string
	Date      string
	Seats     []int
}

type entry struct {
	mu    sync.Mutex
	seats map[int]struct{}
}

// Ledger tracks allocated seats per (vehicle, date). The zero value is not
// usable; construct with New.
type Ledger struct {
	mu      sync.Mutex // guards entries map only
	entries map[TripKey]*entry
}

func New() *Ledger {
	return &Ledger{entries: make(map[TripKey]*entry)}
}

// lockEntry returns the entry for key with its mutex held. Entries are
// created on first use and never removed; a trip with no allocations left
// keeps an empty entry, which is cheap and keeps locking simple.
func (l *Ledger) lockEntry(key TripKey) *entry {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{seats: make(map[int]struct{})}
		l.entries[key] = e
	}
	l.mu.Unlock()
	e.mu.Lock()
	return e
}

// Reserve atomically claims the requested seats for (vehicleID, date).
// Every seat must be in [1, capacity] and unique within the request. Either
// all seats are allocated or none: on any conflict a *SeatConflictError
// naming the contested seats is returned and the ledger is unchanged.
func (l *Ledger) Reserve(vehicleID, date string, capacity int, seats []int) (Reservation, error) {
	if len(seats) == 0 {
		return Reservation{}, fmt.Errorf("no seats requested")
	}
	seen := make(map[int]struct{}, len(seats))
	for _, s := range seats {
		if s < 1 || s > capacity {
			return Reservation{}, fmt.Errorf("seat %d out of range [1,%d]", s, capacity)
		}
		if _, dup := seen[s]; dup {
			return Reservation{}, fmt.Errorf("duplicate seat %d in request", s)
		}
		seen[s] = struct{}{}
	}

	key := TripKey{VehicleID: vehicleID, Date: date}
	e := l.lockEntry(key)
	defer e.mu.Unlock()

	var taken []int
	for _, s := range seats {
		if _, held := e.seats[s]; held {
			taken = append(taken, s)
		}
	}
	if len(taken) > 0 {
		sort.Ints(taken)
		return Reservation{}, &SeatConflictError{Key: key, Seats: taken}
	}
	for _, s := range seats {
		e.seats[s] = struct{}{}
	}

	out := make([]int, len(seats))
	copy(out, seats)
	return Reservation{VehicleID: vehicleID, Date: date, Seats: out}, nil
}

// Release frees previously allocated seats. Seats not currently held are
// ignored, so releasing is idempotent.
func (l *Ledger) Release(vehicleID, date string, seats []int) {
	e := l.lockEntry(TripKey{VehicleID: vehicleID, Date: date})
	defer e.mu.Unlock()
	for _, s := range seats {
		delete(e.seats, s)
	}
}

// Allocated returns the currently held seat numbers for a trip, sorted.
func (l *Ledger) Allocated(vehicleID, date string) []int {
	e := l.lockEntry(TripKey{VehicleID: vehicleID, Date: date})
	defer e.mu.Unlock()
	out := make([]int, 0, len(e.seats))
	for s := range e.seats {
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

// Available returns how many seats remain free on a trip with the given
// capacity. Availability derives from real allocations, never estimated.
func (l *Ledger) Available(vehicleID, date string, capacity int) int {
	e := l.lockEntry(TripKey{VehicleID: vehicleID, Date: date})
	defer e.mu.Unlock()
	n := capacity - len(e.seats)
	if n < 0 {
		n = 0
	}
	return n
}

// AvailableSeatNumbers returns the free seat numbers in [1, capacity],
// sorted ascending. Intended for seat-grid consumers.
func (l *Ledger) AvailableSeatNumbers(vehicleID, date string, capacity int) []int {
	e := l.lockEntry(TripKey{VehicleID: vehicleID, Date: date})
	defer e.mu.Unlock()
	out := make([]int, 0, capacity)
	for s := 1; s <= capacity; s++ {
		if _, held := e.seats[s]; !held {
			out = append(out, s)
		}
	}
	return out
}
