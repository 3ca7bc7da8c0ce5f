// Package sim advances every active vehicle's position along its assigned
// route on a fixed tick and publishes each change for subscribers.
package sim

import (
	"context"
	"log"
	"sync"
	"time"

	"coach-fleet/internal/catalog"
	mmetrics "coach-fleet/internal/metrics"
	"coach-fleet/internal/publisher"
	"coach-fleet/internal/store"
)

// Publisher delivers a position update to the notification collaborator.
// Publication is fire-and-forget from the simulator's perspective.
type Publisher interface {
	PublishPosition(msg publisher.PositionMessage) error
}

// PositionStore persists the latest position keyed by vehicle id.
type PositionStore interface {
	UpsertVehiclePosition(ctx context.Context, pos store.VehiclePosition) error
}

type Simulator struct {
	catalog   *catalog.Catalog
	pub       Publisher
	store     PositionStore
	interval  time.Duration
	stepCount int
	metrics   *mmetrics.Collector

	mu     sync.Mutex
	states map[string]*VehicleState
	active map[string]bool
	order  []string // registration order, for stable passes
}

func New(cat *catalog.Catalog, pub Publisher, st PositionStore, interval time.Duration, stepCount int, metrics *mmetrics.Collector) *Simulator {
	if stepCount < 1 {
		stepCount = 1
	}
	return &Simulator{
		catalog:   cat,
		pub:       pub,
		store:     st,
		interval:  interval,
		stepCount: stepCount,
		metrics:   metrics,
		states:    make(map[string]*VehicleState),
		active:    make(map[string]bool),
	}
}

// Register starts tracking a vehicle at the first waypoint of its route.
// Registering an already tracked vehicle is a no-op.
func (s *Simulator) Register(v *catalog.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.states[v.ID]; exists {
		return
	}
	s.states[v.ID] = &VehicleState{VehicleID: v.ID, RouteID: v.RouteID}
	s.active[v.ID] = true
	s.order = append(s.order, v.ID)
	if s.metrics != nil {
		s.metrics.ActiveVehicles.Set(float64(s.activeCountLocked()))
	}
	log.Printf("tracking vehicle %s on route %s", v.ID, v.RouteID)
}

// Deactivate excludes a vehicle from ticking. Its state is kept, not
// destroyed, so a later Activate resumes from the same position.
func (s *Simulator) Deactivate(vehicleID string) {
	s.setActive(vehicleID, false)
}

func (s *Simulator) Activate(vehicleID string) {
	s.setActive(vehicleID, true)
}

func (s *Simulator) setActive(vehicleID string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.states[vehicleID]; !exists {
		return
	}
	s.active[vehicleID] = active
	if s.metrics != nil {
		s.metrics.ActiveVehicles.Set(float64(s.activeCountLocked()))
	}
}

func (s *Simulator) activeCountLocked() int {
	n := 0
	for _, a := range s.active {
		if a {
			n++
		}
	}
	return n
}

// Snapshot returns copies of all tracked states. The live states stay owned
// by the simulator.
func (s *Simulator) Snapshot() []VehicleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]VehicleState, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.states[id])
	}
	return out
}

// Run drives one simulation pass per interval until ctx is cancelled.
// Passes never overlap: the loop body blocks until the previous pass has
// published every update. Shutdown is cooperative; a pass in flight
// finishes before Run returns.
func (s *Simulator) Run(ctx context.Context) error {
	tick := time.NewTicker(s.interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-tick.C:
			s.Pass(ctx, now)
		}
	}
}

// Pass advances every active vehicle once and publishes the results.
// Per-vehicle updates run in parallel; Pass returns only after all
// publications for this tick have completed.
func (s *Simulator) Pass(ctx context.Context, now time.Time) {
	start := time.Now()

	s.mu.Lock()
	batch := make([]*VehicleState, 0, len(s.order))
	for _, id := range s.order {
		if s.active[id] {
			batch = append(batch, s.states[id])
		}
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, st := range batch {
		route, ok := s.catalog.Route(st.RouteID)
		if !ok || !route.Simulatable() {
			log.Printf("warning: vehicle %s has unresolved or degenerate route %q, skipping tick", st.VehicleID, st.RouteID)
			if s.metrics != nil {
				s.metrics.TicksSkipped.Inc()
			}
			continue
		}
		wg.Add(1)
		go func(st *VehicleState, route *catalog.Route) {
			defer wg.Done()
			s.mu.Lock()
			pos := Tick(st, route, s.stepCount, now)
			snap := *st
			s.mu.Unlock()
			s.publish(ctx, &snap, pos, now)
		}(st, route)
	}
	wg.Wait()

	if s.metrics != nil {
		s.metrics.Passes.Inc()
		s.metrics.TickDuration.Observe(time.Since(start).Seconds())
	}
}

func (s *Simulator) publish(ctx context.Context, st *VehicleState, pos catalog.Waypoint, now time.Time) {
	msg := publisher.PositionMessage{
		VehicleID:     st.VehicleID,
		RouteID:       st.RouteID,
		Timestamp:     now,
		Lat:           pos.Lat,
		Lon:           pos.Lon,
		WaypointIndex: st.WaypointIndex,
		Progress:      st.Progress,
	}
	if s.pub != nil {
		if err := s.pub.PublishPosition(msg); err != nil {
			log.Printf("publish error for %s: %v", st.VehicleID, err)
		}
	}
	if s.store != nil {
		err := s.store.UpsertVehiclePosition(ctx, store.VehiclePosition{
			VehicleID:     st.VehicleID,
			RouteID:       st.RouteID,
			Lat:           pos.Lat,
			Lon:           pos.Lon,
			WaypointIndex: st.WaypointIndex,
			Progress:      st.Progress,
			UpdatedAt:     now,
		})
		if err != nil {
			log.Printf("store position upsert error for %s: %v", st.VehicleID, err)
		}
	}
}
