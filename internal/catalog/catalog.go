package catalog

import "strings"

// Catalog holds the immutable route and vehicle records supplied by the
// catalog collaborator. The core never mutates them after construction.
type Catalog struct {
	routes   map[string]*Route
	vehicles map[string]*Vehicle
	order    []string // vehicle ids in load order, for stable iteration
}

func New(routes []Route, vehicles []Vehicle) *Catalog {
	c := &Catalog{
		routes:   make(map[string]*Route, len(routes)),
		vehicles: make(map[string]*Vehicle, len(vehicles)),
	}
	for i := range routes {
		c.routes[routes[i].ID] = &routes[i]
	}
	for i := range vehicles {
		c.vehicles[vehicles[i].ID] = &vehicles[i]
		c.order = append(c.order, vehicles[i].ID)
	}
	return c
}

func (c *Catalog) Route(id string) (*Route, bool) {
	r, ok := c.routes[id]
	return r, ok
}

func (c *Catalog) Vehicle(id string) (*Vehicle, bool) {
	v, ok := c.vehicles[id]
	return v, ok
}

// Vehicles returns all vehicles in load order.
func (c *Catalog) Vehicles() []*Vehicle {
	out := make([]*Vehicle, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.vehicles[id])
	}
	return out
}

// SearchTrips returns vehicles serving the given origin/destination pair,
// matched case-insensitively. Empty origin or destination matches anything.
func (c *Catalog) SearchTrips(origin, destination string) []*Vehicle {
	origin = strings.TrimSpace(origin)
	destination = strings.TrimSpace(destination)
	var out []*Vehicle
	for _, id := range c.order {
		v := c.vehicles[id]
		if origin != "" && !strings.EqualFold(v.Origin, origin) {
			continue
		}
		if destination != "" && !strings.EqualFold(v.Destination, destination) {
			continue
		}
		out = append(out, v)
	}
	return out
}
