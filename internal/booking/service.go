// Package booking orchestrates a seat request into a durable booking,
// guarded by the seat ledger.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"coach-fleet/internal/catalog"
	"coach-fleet/internal/ledger"
	mmetrics "coach-fleet/internal/metrics"
)

// Store is the persistence collaborator for bookings.
type Store interface {
	SaveBooking(ctx context.Context, b *Booking) error
	GetBooking(ctx context.Context, bookingID string) (*Booking, error)
	UpdateBookingStatus(ctx context.Context, bookingID, status string) error
}

// Request is one seat purchase attempt. Passengers carry their seat
// numbers, so seats and passenger records stay parallel by construction.
type Request struct {
	OwnerID    string
	VehicleID  string
	Date       string // travel date, 2006-01-02
	Passengers []Passenger
}

type Service struct {
	catalog  *catalog.Catalog
	ledger   *ledger.Ledger
	store    Store
	validate *validator.Validate
	metrics  *mmetrics.Collector
}

func NewService(cat *catalog.Catalog, led *ledger.Ledger, st Store, metrics *mmetrics.Collector) *Service {
	return &Service{
		catalog:  cat,
		ledger:   led,
		store:    st,
		validate: validator.New(),
		metrics:  metrics,
	}
}

// Book validates the request, reserves the seats atomically, and persists
// the resulting booking. If persistence fails after a successful
// reservation the seats are released again, so no seat is ever held
// without a corresponding durable booking.
func (s *Service) Book(ctx context.Context, req Request) (*Booking, error) {
	if req.OwnerID == "" {
		s.reject("unauthenticated")
		return nil, ErrUnauthenticated
	}
	if len(req.Passengers) == 0 {
		return nil, fmt.Errorf("%w: no seats selected", ErrInvalidRequest)
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return nil, fmt.Errorf("%w: bad travel date %q", ErrInvalidRequest, req.Date)
	}
	vehicle, ok := s.catalog.Vehicle(req.VehicleID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrVehicleNotFound, req.VehicleID)
	}

	seats := make([]int, len(req.Passengers))
	for i, p := range req.Passengers {
		if err := s.validate.Struct(p); err != nil {
			s.reject("invalid_passenger")
			return nil, fmt.Errorf("%w: seat %d: %v", ErrInvalidPassenger, p.SeatNumber, err)
		}
		seats[i] = p.SeatNumber
	}

	res, err := s.ledger.Reserve(req.VehicleID, req.Date, vehicle.Capacity, seats)
	if err != nil {
		var conflict *ledger.SeatConflictError
		if errors.As(err, &conflict) {
			if s.metrics != nil {
				s.metrics.BookingConflicts.Inc()
			}
			return nil, fmt.Errorf("%w: %v", ErrSeatsUnavailable, conflict)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	b := &Booking{
		BookingID:  uuid.NewString(),
		OwnerID:    req.OwnerID,
		VehicleID:  req.VehicleID,
		RouteID:    vehicle.RouteID,
		Date:       req.Date,
		Seats:      res.Seats,
		Passengers: req.Passengers,
		TotalFare:  float64(len(res.Seats)) * vehicle.BasePrice,
		Status:     StatusConfirmed,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.SaveBooking(ctx, b); err != nil {
		// Compensate: the reservation must not outlive a failed persist.
		s.ledger.Release(res.VehicleID, res.Date, res.Seats)
		s.reject("persistence")
		log.Printf("booking %s persist failed, seats released: %v", b.BookingID, err)
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	if s.metrics != nil {
		s.metrics.BookingsCreated.Inc()
		s.metrics.SeatsReserved.Add(float64(len(res.Seats)))
	}
	return b, nil
}

// Cancel marks a booking cancelled and releases its seats. Cancelling a
// booking that is already cancelled is a no-op.
func (s *Service) Cancel(ctx context.Context, ownerID, bookingID string) error {
	if ownerID == "" {
		return ErrUnauthenticated
	}
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b == nil || b.OwnerID != ownerID {
		return fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
	}
	if b.Status == StatusCancelled {
		return nil
	}
	if err := s.store.UpdateBookingStatus(ctx, bookingID, StatusCancelled); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	s.ledger.Release(b.VehicleID, b.Date, b.Seats)
	if s.metrics != nil {
		s.metrics.BookingsCancelled.Inc()
	}
	return nil
}

// Availability reports how many seats remain free for a trip, derived from
// the ledger, never estimated.
func (s *Service) Availability(vehicleID, date string) (int, error) {
	vehicle, ok := s.catalog.Vehicle(vehicleID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrVehicleNotFound, vehicleID)
	}
	return s.ledger.Available(vehicleID, date, vehicle.Capacity), nil
}

func (s *Service) reject(reason string) {
	if s.metrics != nil {
		s.metrics.BookingsRejected.WithLabelValues(reason).Inc()
	}
}
