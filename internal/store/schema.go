package store

import (
	"context"
	"database/sql"
	"fmt"

	"coach-fleet/internal/catalog"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS routes (
		route_id    TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		origin      TEXT NOT NULL,
		destination TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS route_stops (
		route_id  TEXT NOT NULL REFERENCES routes(route_id),
		seq       INT  NOT NULL,
		stop_name TEXT NOT NULL,
		PRIMARY KEY (route_id, seq)
	)`,
	`CREATE TABLE IF NOT EXISTS route_waypoints (
		route_id TEXT NOT NULL REFERENCES routes(route_id),
		seq      INT  NOT NULL,
		lat      DOUBLE PRECISION NOT NULL,
		lon      DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (route_id, seq)
	)`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		vehicle_id     TEXT PRIMARY KEY,
		route_id       TEXT NOT NULL REFERENCES routes(route_id),
		operator       TEXT NOT NULL,
		class          TEXT NOT NULL,
		capacity       INT  NOT NULL,
		base_price     DOUBLE PRECISION NOT NULL,
		departure_time TEXT NOT NULL,
		arrival_time   TEXT NOT NULL,
		origin         TEXT NOT NULL,
		destination    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS vehicle_positions (
		vehicle_id     TEXT PRIMARY KEY,
		route_id       TEXT NOT NULL,
		lat            DOUBLE PRECISION NOT NULL,
		lon            DOUBLE PRECISION NOT NULL,
		waypoint_index INT NOT NULL,
		progress       DOUBLE PRECISION NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		booking_id  TEXT PRIMARY KEY,
		owner_id    TEXT NOT NULL,
		vehicle_id  TEXT NOT NULL,
		route_id    TEXT NOT NULL,
		travel_date TEXT NOT NULL,
		seats       JSONB NOT NULL,
		passengers  JSONB NOT NULL,
		total_fare  DOUBLE PRECISION NOT NULL,
		status      TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS bookings_owner_idx ON bookings (owner_id)`,
	`CREATE INDEX IF NOT EXISTS bookings_trip_idx ON bookings (vehicle_id, travel_date)`,
}

// EnsureSchema creates the tables this service reads and writes.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// demoRoutes and demoVehicles mirror the catalog the hosted prototype
// seeded on first run.
var demoRoutes = []catalog.Route{
	{
		ID: "route-001", Name: "Delhi to Jaipur", Origin: "Delhi", Destination: "Jaipur",
		Stops: []string{"Gurgaon", "Manesar", "Behror", "Shahpura", "Jaipur"},
		Waypoints: []catalog.Waypoint{
			{Lat: 28.6139, Lon: 77.2090}, {Lat: 28.4595, Lon: 77.0266}, {Lat: 28.3375, Lon: 76.9388},
			{Lat: 27.9157, Lon: 76.2890}, {Lat: 27.4646, Lon: 75.9555}, {Lat: 26.9124, Lon: 75.7873},
		},
	},
	{
		ID: "route-002", Name: "Delhi to Agra", Origin: "Delhi", Destination: "Agra",
		Stops: []string{"Delhi", "Mathura", "Vrindavan", "Agra"},
		Waypoints: []catalog.Waypoint{
			{Lat: 28.6139, Lon: 77.2090}, {Lat: 27.4924, Lon: 77.6737},
			{Lat: 27.5700, Lon: 77.6500}, {Lat: 27.1767, Lon: 78.0078},
		},
	},
	{
		ID: "route-003", Name: "Jaipur to Udaipur", Origin: "Jaipur", Destination: "Udaipur",
		Stops: []string{"Jaipur", "Ajmer", "Bhilwara", "Udaipur"},
		Waypoints: []catalog.Waypoint{
			{Lat: 26.9124, Lon: 75.7873}, {Lat: 26.4499, Lon: 74.6399},
			{Lat: 25.3468, Lon: 74.6358}, {Lat: 24.5854, Lon: 73.7125},
		},
	},
}

var demoVehicles = []catalog.Vehicle{
	{
		ID: "bus-001", RouteID: "route-001", Operator: "Swift Travels", Class: "AC Seater",
		Capacity: 40, BasePrice: 750, DepartureTime: "08:00 AM", ArrivalTime: "01:00 PM",
		Origin: "Delhi", Destination: "Jaipur",
	},
	{
		ID: "bus-002", RouteID: "route-002", Operator: "Royal Express", Class: "Non-AC Sleeper",
		Capacity: 30, BasePrice: 900, DepartureTime: "10:00 AM", ArrivalTime: "04:00 PM",
		Origin: "Delhi", Destination: "Agra",
	},
	{
		ID: "bus-003", RouteID: "route-003", Operator: "Green Line", Class: "AC Sleeper",
		Capacity: 35, BasePrice: 1200, DepartureTime: "09:30 AM", ArrivalTime: "03:30 PM",
		Origin: "Jaipur", Destination: "Udaipur",
	},
}

// SeedDemoCatalog inserts the demo routes and vehicles. Existing rows are
// left untouched, so seeding is idempotent.
func SeedDemoCatalog(ctx context.Context, db *sql.DB) error {
	for _, r := range demoRoutes {
		_, err := db.ExecContext(ctx,
			`INSERT INTO routes (route_id, name, origin, destination) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (route_id) DO NOTHING`,
			r.ID, r.Name, r.Origin, r.Destination)
		if err != nil {
			return fmt.Errorf("seed route %s: %w", r.ID, err)
		}
		for i, stop := range r.Stops {
			_, err := db.ExecContext(ctx,
				`INSERT INTO route_stops (route_id, seq, stop_name) VALUES ($1, $2, $3)
				 ON CONFLICT (route_id, seq) DO NOTHING`,
				r.ID, i, stop)
			if err != nil {
				return fmt.Errorf("seed stops for %s: %w", r.ID, err)
			}
		}
		for i, wp := range r.Waypoints {
			_, err := db.ExecContext(ctx,
				`INSERT INTO route_waypoints (route_id, seq, lat, lon) VALUES ($1, $2, $3, $4)
				 ON CONFLICT (route_id, seq) DO NOTHING`,
				r.ID, i, wp.Lat, wp.Lon)
			if err != nil {
				return fmt.Errorf("seed waypoints for %s: %w", r.ID, err)
			}
		}
	}
	for _, v := range demoVehicles {
		_, err := db.ExecContext(ctx,
			`INSERT INTO vehicles (vehicle_id, route_id, operator, class, capacity, base_price,
			                       departure_time, arrival_time, origin, destination)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (vehicle_id) DO NOTHING`,
			v.ID, v.RouteID, v.Operator, v.Class, v.Capacity, v.BasePrice,
			v.DepartureTime, v.ArrivalTime, v.Origin, v.Destination)
		if err != nil {
			return fmt.Errorf("seed vehicle %s: %w", v.ID, err)
		}
	}
	return nil
}
