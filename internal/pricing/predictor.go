package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/akarpov91/milesbook/config"
	"github.com/akarpov91/milesbook/internal/domain"
)

// Fallback pricing parameters: duration surcharge per hour, weekend and
// high-occupancy multipliers.
const (
	durationFactor       = 0.50
	weekendMultiplier    = 1.20
	highDemandMultiplier = 1.10
	highDemandThreshold  = 0.80
)

// Predictor estimates a per-seat price for a flight. It never fails: any
// problem with the external prediction service degrades to the
// deterministic fallback price.
type Predictor struct {
	cfg    config.PricingConfig
	client *http.Client
}

func NewPredictor(cfg config.PricingConfig) *Predictor {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Predictor{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *Predictor) PredictPrice(ctx context.Context, flight *domain.Flight) float64 {
	if p.cfg.Enabled {
		price, err := p.predictRemote(ctx, flight)
		if err == nil && price > 0 {
			return price
		}
		if err != nil {
			log.Printf("WARNING: price prediction for flight %s failed, using fallback: %v", flight.Code, err)
		}
	}
	return FallbackPrice(flight)
}

type predictRequest struct {
	FlightCode    string  `json:"flight_code"`
	FromAirport   string  `json:"from_airport"`
	ToAirport     string  `json:"to_airport"`
	DurationHours float64 `json:"duration_hours"`
	DaysLeft      int     `json:"days_left"`
	DepartureHour int     `json:"departure_hour"`
}

type predictResponse struct {
	PredictedPrice float64 `json:"predicted_price"`
}

func (p *Predictor) predictRemote(ctx context.Context, flight *domain.Flight) (float64, error) {
	daysLeft := int(time.Until(flight.DepartureTime).Hours() / 24)
	if daysLeft < 1 {
		daysLeft = 1
	}

	body, err := json.Marshal(predictRequest{
		FlightCode:    flight.Code,
		FromAirport:   flight.FromAirport,
		ToAirport:     flight.ToAirport,
		DurationHours: float64(flight.DurationMinutes()) / 60.0,
		DaysLeft:      daysLeft,
		DepartureHour: flight.DepartureTime.Hour(),
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL+"/predict", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("prediction service returned %d", resp.StatusCode)
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	return out.PredictedPrice, nil
}

// FallbackPrice is the deterministic rule-based price: base fare plus a
// duration surcharge, bumped for weekend departures and nearly-full flights.
func FallbackPrice(flight *domain.Flight) float64 {
	price := flight.Price
	price += durationFactor * float64(flight.DurationMinutes()) / 60.0

	if isWeekend(flight.DepartureTime) {
		price *= weekendMultiplier
	}
	if flight.Capacity > 0 {
		occupancy := float64(flight.BookedSeats) / float64(flight.Capacity)
		if occupancy >= highDemandThreshold {
			price *= highDemandMultiplier
		}
	}
	return price
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
