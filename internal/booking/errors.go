package booking

import "errors"

var (
	ErrUnauthenticated   = errors.New("booking requires an authenticated owner")
	ErrSeatsUnavailable  = errors.New("requested seats are unavailable")
	ErrInvalidPassenger  = errors.New("invalid passenger data")
	ErrInvalidRequest    = errors.New("invalid booking request")
	ErrVehicleNotFound   = errors.New("vehicle not found")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrPersistenceFailed = errors.New("booking could not be persisted")
)
