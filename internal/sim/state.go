package sim

import (
	"time"

	"coach-fleet/internal/catalog"
)

// VehicleState is the per-vehicle mutable position record. It is owned by
// the Simulator; consumers only ever see copies published after a tick.
type VehicleState struct {
	VehicleID     string
	RouteID       string
	WaypointIndex int     // index of the waypoint most recently departed
	Step          int     // sub-step counter in [0, stepCount)
	Progress      float64 // Step/stepCount, reset to 0 when WaypointIndex advances
	LastTick      time.Time
}

// Tick advances the state by one sub-step along the route and returns the
// interpolated position. Looping is unconditional and forward-only: after
// the final waypoint the vehicle continues from waypoint 0, modeling an
// endlessly repeating service. stepCount is the number of sub-steps between
// two consecutive waypoints and must be >= 1; the route must have >= 2
// waypoints (callers gate on Route.Simulatable).
func Tick(s *VehicleState, route *catalog.Route, stepCount int, now time.Time) catalog.Waypoint {
	n := len(route.Waypoints)
	nextIndex := (s.WaypointIndex + 1) % n
	from := route.Waypoints[s.WaypointIndex]
	to := route.Waypoints[nextIndex]

	s.Step++
	s.LastTick = now
	if s.Step >= stepCount {
		// Snap exactly onto the next waypoint and advance.
		s.WaypointIndex = nextIndex
		s.Step = 0
		s.Progress = 0
		return to
	}
	s.Progress = float64(s.Step) / float64(stepCount)
	return catalog.Waypoint{
		Lat: from.Lat + (to.Lat-from.Lat)*s.Progress,
		Lon: from.Lon + (to.Lon-from.Lon)*s.Progress,
	}
}
