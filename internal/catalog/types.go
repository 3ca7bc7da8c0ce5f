package catalog

// Waypoint is one vertex of a route polyline.
type Waypoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Route is an ordered waypoint polyline a vehicle repeatedly traverses.
// Routes are immutable after load; simulation requires at least 2 waypoints.
type Route struct {
	ID          string
	Name        string
	Origin      string
	Destination string
	Stops       []string
	Waypoints   []Waypoint
}

// Simulatable reports whether the route has enough waypoints to interpolate.
func (r *Route) Simulatable() bool {
	return r != nil && len(r.Waypoints) >= 2
}

// Vehicle is a coach assigned to a route. RouteID is a lookup reference;
// the vehicle does not own the route.
type Vehicle struct {
	ID            string
	RouteID       string
	Operator      string
	Class         string // e.g. "AC Seater", "Non-AC Sleeper"
	Capacity      int
	BasePrice     float64
	DepartureTime string // display schedule, e.g. "08:00 AM"
	ArrivalTime   string
	Origin        string
	Destination   string
}
