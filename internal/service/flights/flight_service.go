package flights

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/akarpov91/milesbook/internal/domain"
	"github.com/akarpov91/milesbook/internal/repository"
)

type FlightUseCase interface {
	Create(ctx context.Context, input CreateFlightInput) (*domain.Flight, error)
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
}

type Cache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type FlightService struct {
	repo  repository.FlightRepository
	cache Cache
}

type CreateFlightInput struct {
	Code          string    `json:"code"`
	FromAirport   string    `json:"from_airport"`
	ToAirport     string    `json:"to_airport"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	Price         float64   `json:"price"`
	Capacity      int       `json:"capacity"`
}

func NewFlightService(repo repository.FlightRepository, cache Cache) *FlightService {
	return &FlightService{repo: repo, cache: cache}
}

// Create registers a new flight in SCHEDULED state with zero booked seats.
func (s *FlightService) Create(ctx context.Context, input CreateFlightInput) (*domain.Flight, error) {
	if input.Code == "" || input.FromAirport == "" || input.ToAirport == "" {
		return nil, fmt.Errorf("code and airports are required")
	}
	if input.Capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive")
	}
	if !input.ArrivalTime.After(input.DepartureTime) {
		return nil, fmt.Errorf("arrival time must be after departure time")
	}

	flight := &domain.Flight{
		Code:          input.Code,
		FromAirport:   input.FromAirport,
		ToAirport:     input.ToAirport,
		DepartureTime: input.DepartureTime,
		ArrivalTime:   input.ArrivalTime,
		Price:         input.Price,
		Capacity:      input.Capacity,
	}
	if err := s.repo.Create(ctx, flight); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateFlights(ctx); err != nil {
			log.Printf("WARNING: failed to invalidate flights cache: %v", err)
		}
	}
	return flight, nil
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetFlights(ctx, flights)
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

var _ FlightUseCase = (*FlightService)(nil)
