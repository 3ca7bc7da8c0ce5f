package sim

import (
	"math"
	"testing"
	"time"

	"coach-fleet/internal/catalog"
)

func twoPointRoute() *catalog.Route {
	return &catalog.Route{
		ID:        "r1",
		Waypoints: []catalog.Waypoint{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 10}},
	}
}

func TestTick_Interpolation(t *testing.T) {
	route := twoPointRoute()
	state := &VehicleState{VehicleID: "v1", RouteID: "r1"}
	now := time.Now()

	wantLon := []float64{2, 4, 6, 8}
	for i, want := range wantLon {
		pos := Tick(state, route, 5, now)
		if math.Abs(pos.Lon-want) > 1e-9 {
			t.Fatalf("tick %d: lon = %v, want %v", i+1, pos.Lon, want)
		}
		if state.WaypointIndex != 0 {
			t.Fatalf("tick %d: waypointIndex = %d, want 0", i+1, state.WaypointIndex)
		}
	}

	// Fifth tick snaps exactly onto the next waypoint.
	pos := Tick(state, route, 5, now)
	if pos.Lat != 0 || pos.Lon != 10 {
		t.Fatalf("snap position = (%v,%v), want (0,10)", pos.Lat, pos.Lon)
	}
	if state.WaypointIndex != 1 {
		t.Fatalf("waypointIndex after snap = %d, want 1", state.WaypointIndex)
	}
	if state.Progress != 0 || state.Step != 0 {
		t.Fatalf("progress/step after snap = %v/%d, want 0/0", state.Progress, state.Step)
	}
}

func TestTick_FullLoopReturnsToStart(t *testing.T) {
	tests := []struct {
		name      string
		waypoints []catalog.Waypoint
		stepCount int
	}{
		{
			name:      "two waypoints",
			waypoints: []catalog.Waypoint{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 10}},
			stepCount: 5,
		},
		{
			name: "six waypoints",
			waypoints: []catalog.Waypoint{
				{Lat: 28.6139, Lon: 77.2090}, {Lat: 28.4595, Lon: 77.0266}, {Lat: 28.3375, Lon: 76.9388},
				{Lat: 27.9157, Lon: 76.2890}, {Lat: 27.4646, Lon: 75.9555}, {Lat: 26.9124, Lon: 75.7873},
			},
			stepCount: 100,
		},
		{
			name:      "step count one",
			waypoints: []catalog.Waypoint{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}, {Lat: 3, Lon: 1}},
			stepCount: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route := &catalog.Route{ID: "r", Waypoints: tt.waypoints}
			state := &VehicleState{VehicleID: "v", RouteID: "r"}
			now := time.Now()
			total := len(tt.waypoints) * tt.stepCount
			for i := 0; i < total; i++ {
				Tick(state, route, tt.stepCount, now)
			}
			if state.WaypointIndex != 0 {
				t.Errorf("after %d ticks waypointIndex = %d, want 0", total, state.WaypointIndex)
			}
			if state.Progress != 0 {
				t.Errorf("after %d ticks progress = %v, want 0", total, state.Progress)
			}
		})
	}
}

func TestTick_PositionStaysWithinSegmentBounds(t *testing.T) {
	route := &catalog.Route{
		ID: "r",
		Waypoints: []catalog.Waypoint{
			{Lat: 26.9124, Lon: 75.7873}, {Lat: 26.4499, Lon: 74.6399},
			{Lat: 25.3468, Lon: 74.6358}, {Lat: 24.5854, Lon: 73.7125},
		},
	}
	state := &VehicleState{VehicleID: "v", RouteID: "r"}
	now := time.Now()
	n := len(route.Waypoints)
	for i := 0; i < 3*n*7; i++ {
		from := route.Waypoints[state.WaypointIndex]
		to := route.Waypoints[(state.WaypointIndex+1)%n]
		pos := Tick(state, route, 7, now)
		if pos.Lat < math.Min(from.Lat, to.Lat) || pos.Lat > math.Max(from.Lat, to.Lat) {
			t.Fatalf("tick %d: lat %v outside [%v,%v]", i, pos.Lat, math.Min(from.Lat, to.Lat), math.Max(from.Lat, to.Lat))
		}
		if pos.Lon < math.Min(from.Lon, to.Lon) || pos.Lon > math.Max(from.Lon, to.Lon) {
			t.Fatalf("tick %d: lon %v outside [%v,%v]", i, pos.Lon, math.Min(from.Lon, to.Lon), math.Max(from.Lon, to.Lon))
		}
	}
}

func TestTick_ForwardOnlyLooping(t *testing.T) {
	// A two-waypoint route keeps advancing circularly rather than reversing.
	route := twoPointRoute()
	state := &VehicleState{VehicleID: "v", RouteID: "r1"}
	now := time.Now()

	var indexes []int
	for i := 0; i < 4; i++ {
		Tick(state, route, 1, now)
		indexes = append(indexes, state.WaypointIndex)
	}
	want := []int{1, 0, 1, 0}
	for i := range want {
		if indexes[i] != want[i] {
			t.Fatalf("indexes = %v, want %v", indexes, want)
		}
	}
}
