package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

type PaymentMethod string

const (
	PaymentMethodCurrency PaymentMethod = "CURRENCY"
	PaymentMethodPoints   PaymentMethod = "POINTS"
)

type Booking struct {
	ID             int64         `json:"id"`
	Ref            string        `json:"ref"`
	FlightID       int64         `json:"flight_id"`
	UserID         string        `json:"user_id"`
	UserEmail      string        `json:"user_email"`
	Status         BookingStatus `json:"status"`
	PaymentMethod  PaymentMethod `json:"payment_method"`
	PricePaid      float64       `json:"price_paid"`
	PassengerCount int           `json:"passenger_count"`
	Passengers     []Passenger   `json:"passengers"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type Passenger struct {
	ID          int64      `json:"id"`
	BookingID   int64      `json:"booking_id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	PassportNo  string     `json:"passport_no"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Nationality string     `json:"nationality,omitempty"`
}

func (p Passenger) FullName() string {
	return p.FirstName + " " + p.LastName
}
