package booking

import "time"

// Booking statuses. Cancellation keeps the record; bookings are never
// physically deleted by the core.
const (
	StatusConfirmed = "Confirmed"
	StatusCancelled = "Cancelled"
)

// Passenger occupies one seat of a booking. Validation tags follow the
// go-playground/validator syntax.
type Passenger struct {
	SeatNumber int    `json:"seatNumber" validate:"gte=1"`
	Name       string `json:"name" validate:"required"`
	Gender     string `json:"gender" validate:"required,oneof=male female other"`
	Age        int    `json:"age" validate:"gte=1,lte=120"`
}

// Booking is the durable record of a confirmed seat purchase. Immutable
// after creation except for Status; the external store is the system of
// record.
type Booking struct {
	BookingID  string      `json:"bookingId"`
	OwnerID    string      `json:"ownerId"`
	VehicleID  string      `json:"vehicleId"`
	RouteID    string      `json:"routeId"`
	Date       string      `json:"date"` // travel date, 2006-01-02
	Seats      []int       `json:"seats"`
	Passengers []Passenger `json:"passengers"`
	TotalFare  float64     `json:"totalFare"`
	Status     string      `json:"status"`
	CreatedAt  time.Time   `json:"createdAt"`
}
