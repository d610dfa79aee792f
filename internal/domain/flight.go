package domain

import "time"

type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "SCHEDULED"
	FlightStatusBoarding  FlightStatus = "BOARDING"
	FlightStatusDeparted  FlightStatus = "DEPARTED"
	FlightStatusCompleted FlightStatus = "COMPLETED"
	FlightStatusCancelled FlightStatus = "CANCELLED"
	FlightStatusDelayed   FlightStatus = "DELAYED"
)

type Flight struct {
	ID            int64        `json:"id"`
	Code          string       `json:"code"`
	FromAirport   string       `json:"from_airport"`
	ToAirport     string       `json:"to_airport"`
	DepartureTime time.Time    `json:"departure_time"`
	ArrivalTime   time.Time    `json:"arrival_time"`
	Price         float64      `json:"price"`
	Capacity      int          `json:"capacity"`
	BookedSeats   int          `json:"booked_seats"`
	Status        FlightStatus `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// AvailableSeats is derived from capacity and the booked counter, never stored.
func (f *Flight) AvailableSeats() int {
	return f.Capacity - f.BookedSeats
}

func (f *Flight) HasAvailableSeats(required int) bool {
	return f.AvailableSeats() >= required
}

func (f *Flight) DurationMinutes() int64 {
	return int64(f.ArrivalTime.Sub(f.DepartureTime).Minutes())
}
