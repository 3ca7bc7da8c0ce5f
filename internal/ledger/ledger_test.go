package ledger

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestReserve_Success(t *testing.T) {
	l := New()
	res, err := l.Reserve("bus-001", "2026-09-01", 40, []int{1, 2, 3})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if len(res.Seats) != 3 {
		t.Fatalf("reservation seats = %v, want 3 seats", res.Seats)
	}
	if got := l.Allocated("bus-001", "2026-09-01"); len(got) != 3 {
		t.Fatalf("allocated = %v, want [1 2 3]", got)
	}
}

func TestReserve_Conflict(t *testing.T) {
	l := New()
	if _, err := l.Reserve("bus-001", "2026-09-01", 4, []int{1, 2}); err != nil {
		t.Fatalf("first Reserve: %v", err)
	}

	_, err := l.Reserve("bus-001", "2026-09-01", 4, []int{2, 3})
	var conflict *SeatConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("second Reserve error = %v, want *SeatConflictError", err)
	}
	if len(conflict.Seats) != 1 || conflict.Seats[0] != 2 {
		t.Fatalf("conflict seats = %v, want [2]", conflict.Seats)
	}

	// No partial allocation: the failed request must not touch seat 3.
	got := l.Allocated("bus-001", "2026-09-01")
	want := []int{1, 2}
	if len(got) != len(want) {
		t.Fatalf("allocated = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("allocated = %v, want %v", got, want)
		}
	}
}

func TestReserve_Validation(t *testing.T) {
	l := New()
	tests := []struct {
		name  string
		seats []int
	}{
		{"empty request", nil},
		{"seat zero", []int{0}},
		{"seat beyond capacity", []int{41}},
		{"duplicate in request", []int{3, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := l.Reserve("bus-001", "2026-09-01", 40, tt.seats); err == nil {
				t.Fatalf("Reserve(%v) succeeded, want error", tt.seats)
			}
		})
	}
	if got := l.Allocated("bus-001", "2026-09-01"); len(got) != 0 {
		t.Fatalf("rejected requests mutated the ledger: %v", got)
	}
}

func TestReserve_IndependentTrips(t *testing.T) {
	l := New()
	if _, err := l.Reserve("bus-001", "2026-09-01", 40, []int{1}); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	// Same seat on a different date and a different vehicle both succeed.
	if _, err := l.Reserve("bus-001", "2026-09-02", 40, []int{1}); err != nil {
		t.Fatalf("Reserve other date: %v", err)
	}
	if _, err := l.Reserve("bus-002", "2026-09-01", 40, []int{1}); err != nil {
		t.Fatalf("Reserve other vehicle: %v", err)
	}
}

func TestRelease_MakesSeatsReservableAgain(t *testing.T) {
	l := New()
	res, err := l.Reserve("bus-001", "2026-09-01", 40, []int{7, 8})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	l.Release(res.VehicleID, res.Date, res.Seats)
	if _, err := l.Reserve("bus-001", "2026-09-01", 40, []int{7, 8}); err != nil {
		t.Fatalf("Reserve after Release: %v", err)
	}
	// Releasing seats that are not held is a no-op.
	l.Release("bus-001", "2026-09-01", []int{39, 40})
}

func TestReserve_ConcurrentContention(t *testing.T) {
	const capacity = 40
	const workers = 32
	l := New()

	// Every worker wants seat 1 plus a private seat; at most one can win.
	var wg sync.WaitGroup
	successes := make(chan []int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seats := []int{1, i + 2}
			if res, err := l.Reserve("bus-001", "2026-09-01", capacity, seats); err == nil {
				successes <- res.Seats
			}
		}(i)
	}
	wg.Wait()
	close(successes)

	var winners int
	for range successes {
		winners++
	}
	if winners != 1 {
		t.Fatalf("contested seat won by %d reservations, want exactly 1", winners)
	}

	got := l.Allocated("bus-001", "2026-09-01")
	if len(got) != 2 {
		t.Fatalf("allocated = %v, want the winner's 2 seats only", got)
	}
	seen := make(map[int]bool)
	for _, s := range got {
		if s < 1 || s > capacity {
			t.Fatalf("allocated seat %d out of range", s)
		}
		if seen[s] {
			t.Fatalf("seat %d allocated twice", s)
		}
		seen[s] = true
	}
}

func TestReserve_ConcurrentDisjointFillsCapacity(t *testing.T) {
	const capacity = 40
	l := New()

	var wg sync.WaitGroup
	errs := make(chan error, capacity)
	for s := 1; s <= capacity; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			if _, err := l.Reserve("bus-001", "2026-09-01", capacity, []int{s}); err != nil {
				errs <- fmt.Errorf("seat %d: %w", s, err)
			}
		}(s)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("disjoint Reserve failed: %v", err)
	}

	if got := l.Allocated("bus-001", "2026-09-01"); len(got) != capacity {
		t.Fatalf("allocated %d seats, want %d", len(got), capacity)
	}
	if got := l.Available("bus-001", "2026-09-01", capacity); got != 0 {
		t.Fatalf("available = %d, want 0", got)
	}
}

func TestAvailability(t *testing.T) {
	l := New()
	if got := l.Available("bus-001", "2026-09-01", 4); got != 4 {
		t.Fatalf("available on empty trip = %d, want 4", got)
	}
	if _, err := l.Reserve("bus-001", "2026-09-01", 4, []int{2, 4}); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if got := l.Available("bus-001", "2026-09-01", 4); got != 2 {
		t.Fatalf("available = %d, want 2", got)
	}
	free := l.AvailableSeatNumbers("bus-001", "2026-09-01", 4)
	want := []int{1, 3}
	if len(free) != len(want) {
		t.Fatalf("free seats = %v, want %v", free, want)
	}
	for i := range want {
		if free[i] != want[i] {
			t.Fatalf("free seats = %v, want %v", free, want)
		}
	}
}
