package kafka

import "time"

// Event type discriminators carried in every payload.
const (
	EventTypeBookingSettled   = "booking.settled"
	EventTypeBookingCancelled = "booking.cancelled"
	EventTypePointsAwarded    = "points.awarded"
)

// BookingEvent is published after a booking transaction commits. It is
// denormalized so consumers can act without querying the booking store.
type BookingEvent struct {
	Type           string    `json:"type"`
	BookingRef     string    `json:"booking_ref"`
	UserID         string    `json:"user_id"`
	UserEmail      string    `json:"user_email"`
	FlightCode     string    `json:"flight_code"`
	FromAirport    string    `json:"from_airport"`
	ToAirport      string    `json:"to_airport"`
	DepartureTime  time.Time `json:"departure_time"`
	PricePaid      float64   `json:"price_paid"`
	PaymentMethod  string    `json:"payment_method"`
	PassengerCount int       `json:"passenger_count"`
	PassengerNames []string  `json:"passenger_names"`
	CreatedAt      time.Time `json:"created_at"`
}

// PointsAwardedEvent is published per booking by the settlement sweep.
type PointsAwardedEvent struct {
	Type         string    `json:"type"`
	BookingRef   string    `json:"booking_ref"`
	UserID       string    `json:"user_id"`
	UserEmail    string    `json:"user_email"`
	FlightCode   string    `json:"flight_code"`
	MemberNumber string    `json:"member_number"`
	Points       int       `json:"points"`
	Balance      int       `json:"balance"`
	Tier         string    `json:"tier"`
	CreatedAt    time.Time `json:"created_at"`
}
