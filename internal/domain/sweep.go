package domain

import "time"

// SweepReport summarizes one settlement run. Failures are recorded, not
// thrown: a single flight or booking must never abort the sweep.
type SweepReport struct {
	StartedAt           time.Time `json:"started_at"`
	FinishedAt          time.Time `json:"finished_at"`
	FlightsProcessed    int       `json:"flights_processed"`
	PassengersProcessed int       `json:"passengers_processed"`
	PointsAwarded       int       `json:"points_awarded"`
	Failures            []string  `json:"failures,omitempty"`
}
