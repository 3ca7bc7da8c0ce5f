// Package store is the Postgres persistence collaborator: catalog reads,
// position upserts, and booking records.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coach-fleet/internal/booking"
	"coach-fleet/internal/catalog"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store { return &Store{db: db} }

// VehiclePosition is the upserted per-vehicle position record, keyed by
// vehicle id.
type VehiclePosition struct {
	VehicleID     string
	RouteID       string
	Lat           float64
	Lon           float64
	WaypointIndex int
	Progress      float64
	UpdatedAt     time.Time
}

// LoadCatalog reads the immutable route and vehicle records.
func (s *Store) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	routes, err := s.loadRoutes(ctx)
	if err != nil {
		return nil, err
	}
	vehicles, err := s.loadVehicles(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.New(routes, vehicles), nil
}

func (s *Store) loadRoutes(ctx context.Context) ([]catalog.Route, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT route_id, name, origin, destination FROM routes ORDER BY route_id`)
	if err != nil {
		return nil, fmt.Errorf("query routes: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*catalog.Route)
	var order []string
	for rows.Next() {
		var r catalog.Route
		if err := rows.Scan(&r.ID, &r.Name, &r.Origin, &r.Destination); err != nil {
			return nil, err
		}
		byID[r.ID] = &r
		order = append(order, r.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stopRows, err := s.db.QueryContext(ctx, `SELECT route_id, stop_name FROM route_stops ORDER BY route_id, seq`)
	if err != nil {
		return nil, fmt.Errorf("query route stops: %w", err)
	}
	defer stopRows.Close()
	for stopRows.Next() {
		var routeID, stop string
		if err := stopRows.Scan(&routeID, &stop); err != nil {
			return nil, err
		}
		if r, ok := byID[routeID]; ok {
			r.Stops = append(r.Stops, stop)
		}
	}
	if err := stopRows.Err(); err != nil {
		return nil, err
	}

	wpRows, err := s.db.QueryContext(ctx, `SELECT route_id, lat, lon FROM route_waypoints ORDER BY route_id, seq`)
	if err != nil {
		return nil, fmt.Errorf("query route waypoints: %w", err)
	}
	defer wpRows.Close()
	for wpRows.Next() {
		var routeID string
		var wp catalog.Waypoint
		if err := wpRows.Scan(&routeID, &wp.Lat, &wp.Lon); err != nil {
			return nil, err
		}
		if r, ok := byID[routeID]; ok {
			r.Waypoints = append(r.Waypoints, wp)
		}
	}
	if err := wpRows.Err(); err != nil {
		return nil, err
	}

	out := make([]catalog.Route, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

func (s *Store) loadVehicles(ctx context.Context) ([]catalog.Vehicle, error) {
	q := `SELECT vehicle_id, route_id, operator, class, capacity, base_price,
	             departure_time, arrival_time, origin, destination
	      FROM vehicles ORDER BY vehicle_id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query vehicles: %w", err)
	}
	defer rows.Close()
	var out []catalog.Vehicle
	for rows.Next() {
		var v catalog.Vehicle
		if err := rows.Scan(&v.ID, &v.RouteID, &v.Operator, &v.Class, &v.Capacity, &v.BasePrice,
			&v.DepartureTime, &v.ArrivalTime, &v.Origin, &v.Destination); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// UpsertVehiclePosition writes the latest simulated position, keyed by
// vehicle id, for subscribers of the store's change feed.
func (s *Store) UpsertVehiclePosition(ctx context.Context, pos VehiclePosition) error {
	q := `INSERT INTO vehicle_positions (vehicle_id, route_id, lat, lon, waypoint_index, progress, updated_at)
	      VALUES ($1, $2, $3, $4, $5, $6, $7)
	      ON CONFLICT (vehicle_id) DO UPDATE SET
	        route_id = EXCLUDED.route_id,
	        lat = EXCLUDED.lat,
	        lon = EXCLUDED.lon,
	        waypoint_index = EXCLUDED.waypoint_index,
	        progress = EXCLUDED.progress,
	        updated_at = EXCLUDED.updated_at`
	_, err := s.db.ExecContext(ctx, q,
		pos.VehicleID, pos.RouteID, pos.Lat, pos.Lon, pos.WaypointIndex, pos.Progress, pos.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert position %s: %w", pos.VehicleID, err)
	}
	return nil
}

// SaveBooking appends a booking record. Seats and passengers are stored as
// JSON documents.
func (s *Store) SaveBooking(ctx context.Context, b *booking.Booking) error {
	seats, err := json.Marshal(b.Seats)
	if err != nil {
		return err
	}
	passengers, err := json.Marshal(b.Passengers)
	if err != nil {
		return err
	}
	q := `INSERT INTO bookings (booking_id, owner_id, vehicle_id, route_id, travel_date,
	                            seats, passengers, total_fare, status, created_at)
	      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = s.db.ExecContext(ctx, q,
		b.BookingID, b.OwnerID, b.VehicleID, b.RouteID, b.Date,
		seats, passengers, b.TotalFare, b.Status, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert booking %s: %w", b.BookingID, err)
	}
	return nil
}

// GetBooking returns the stored booking, or (nil, nil) when none exists.
func (s *Store) GetBooking(ctx context.Context, bookingID string) (*booking.Booking, error) {
	q := `SELECT booking_id, owner_id, vehicle_id, route_id, travel_date,
	             seats, passengers, total_fare, status, created_at
	      FROM bookings WHERE booking_id = $1`
	b, err := scanBooking(s.db.QueryRowContext(ctx, q, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", bookingID, err)
	}
	return b, nil
}

func (s *Store) UpdateBookingStatus(ctx context.Context, bookingID, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE bookings SET status = $2 WHERE booking_id = $1`, bookingID, status)
	if err != nil {
		return fmt.Errorf("update booking %s: %w", bookingID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update booking %s: %w", bookingID, sql.ErrNoRows)
	}
	return nil
}

// BookingsByOwner returns all bookings for one owner, newest first.
func (s *Store) BookingsByOwner(ctx context.Context, ownerID string) ([]booking.Booking, error) {
	q := `SELECT booking_id, owner_id, vehicle_id, route_id, travel_date,
	             seats, passengers, total_fare, status, created_at
	      FROM bookings WHERE owner_id = $1 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query bookings for %s: %w", ownerID, err)
	}
	defer rows.Close()
	var out []booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// ConfirmedAllocations returns the seats held by confirmed bookings, per
// trip. Used to rebuild the seat ledger on startup.
func (s *Store) ConfirmedAllocations(ctx context.Context) (map[string]map[string][]int, error) {
	q := `SELECT vehicle_id, travel_date, seats FROM bookings WHERE status = $1`
	rows, err := s.db.QueryContext(ctx, q, booking.StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("query confirmed allocations: %w", err)
	}
	defer rows.Close()
	out := make(map[string]map[string][]int)
	for rows.Next() {
		var vehicleID, date string
		var seatsB []byte
		if err := rows.Scan(&vehicleID, &date, &seatsB); err != nil {
			return nil, err
		}
		var seats []int
		if err := json.Unmarshal(seatsB, &seats); err != nil {
			return nil, fmt.Errorf("decode seats for %s/%s: %w", vehicleID, date, err)
		}
		if out[vehicleID] == nil {
			out[vehicleID] = make(map[string][]int)
		}
		out[vehicleID][date] = append(out[vehicleID][date], seats...)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*booking.Booking, error) {
	var b booking.Booking
	var seatsB, passengersB []byte
	err := row.Scan(&b.BookingID, &b.OwnerID, &b.VehicleID, &b.RouteID, &b.Date,
		&seatsB, &passengersB, &b.TotalFare, &b.Status, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(seatsB, &b.Seats); err != nil {
		return nil, fmt.Errorf("decode seats: %w", err)
	}
	if err := json.Unmarshal(passengersB, &b.Passengers); err != nil {
		return nil, fmt.Errorf("decode passengers: %w", err)
	}
	return &b, nil
}
