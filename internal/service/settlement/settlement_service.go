package settlement

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/akarpov91/milesbook/internal/domain"
	"github.com/akarpov91/milesbook/internal/kafka"
	"github.com/akarpov91/milesbook/internal/repository"
	"github.com/jackc/pgx/v5"
)

// One point per 10 price units, fractional points discarded.
const pointsPerPriceUnits = 10

// The sweep runs off the request path, so award events get a few
// publish attempts before being given up on.
const awardPublishRetries = 3

type SettlementUseCase interface {
	RunSweep(ctx context.Context, now time.Time) (*domain.SweepReport, error)
}

type Producer interface {
	PublishWithRetry(ctx context.Context, topic, key string, value interface{}, maxRetries int) error
}

// FlightCache is the slice of the read-side cache the sweep has to drop
// after flipping flight statuses.
type FlightCache interface {
	InvalidateFlights(ctx context.Context) error
}

// LoyaltyLedger is the accrual slice of the loyalty service. Each award
// runs in its own transaction so one failure cannot poison its siblings.
type LoyaltyLedger interface {
	Earn(ctx context.Context, userID string, amount int, reason, refID string) (*domain.LoyaltyAccount, error)
}

// SettlementService promotes flights past their arrival time to COMPLETED
// and awards loyalty points to every confirmed passenger. The sweep is
// idempotent: the SCHEDULED status guard means a flight is never
// reprocessed once its transition commits.
type SettlementService struct {
	flights            repository.FlightRepository
	bookings           repository.BookingRepository
	loyalty            LoyaltyLedger
	producer           Producer
	runner             repository.TxRunner
	notificationsTopic string
	cache              FlightCache
}

type SettlementServiceOption func(*SettlementService)

func WithFlightCache(cache FlightCache) SettlementServiceOption {
	return func(s *SettlementService) {
		s.cache = cache
	}
}

func NewSettlementService(
	flights repository.FlightRepository,
	bookings repository.BookingRepository,
	loyalty LoyaltyLedger,
	producer Producer,
	runner repository.TxRunner,
	notificationsTopic string,
	opts ...SettlementServiceOption,
) *SettlementService {
	service := &SettlementService{
		flights:            flights,
		bookings:           bookings,
		loyalty:            loyalty,
		producer:           producer,
		runner:             runner,
		notificationsTopic: notificationsTopic,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *SettlementService) RunSweep(ctx context.Context, now time.Time) (*domain.SweepReport, error) {
	report := &domain.SweepReport{StartedAt: now}

	flights, err := s.flights.ListArrivedScheduled(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list arrived flights: %w", err)
	}
	log.Printf("settlement sweep: %d flights to complete", len(flights))

	for _, flight := range flights {
		if err := s.settleFlight(ctx, flight, report); err != nil {
			log.Printf("ERROR: settlement of flight %s failed: %v", flight.Code, err)
			report.Failures = append(report.Failures, fmt.Sprintf("flight %s: %v", flight.Code, err))
		}
	}

	// Completed flights changed status, so the cached listing is stale.
	if report.FlightsProcessed > 0 && s.cache != nil {
		if err := s.cache.InvalidateFlights(ctx); err != nil {
			log.Printf("WARNING: failed to invalidate flights cache after sweep: %v", err)
		}
	}

	report.FinishedAt = time.Now()
	log.Printf("settlement sweep done: flights=%d passengers=%d points=%d failures=%d",
		report.FlightsProcessed, report.PassengersProcessed, report.PointsAwarded, len(report.Failures))
	return report, nil
}

func (s *SettlementService) settleFlight(ctx context.Context, flight domain.Flight, report *domain.SweepReport) error {
	// Commit the terminal transition first. If the guard reports the flight
	// was no longer SCHEDULED, another run already settled it.
	var completed bool
	err := s.runner.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		completed, err = s.flights.MarkCompleted(ctx, tx, flight.ID)
		return err
	})
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	if !completed {
		log.Printf("flight %s already settled, skipping", flight.Code)
		return nil
	}

	bookings, err := s.bookings.ListConfirmedByFlight(ctx, flight.ID)
	if err != nil {
		return fmt.Errorf("list confirmed bookings: %w", err)
	}

	for _, booking := range bookings {
		points := int(booking.PricePaid) / pointsPerPriceUnits * booking.PassengerCount
		report.PassengersProcessed += booking.PassengerCount
		if points <= 0 {
			continue
		}

		reason := fmt.Sprintf("Flight %s (%s -> %s)", flight.Code, flight.FromAirport, flight.ToAirport)
		account, err := s.loyalty.Earn(ctx, booking.UserID, points, reason, booking.Ref)
		if err != nil {
			log.Printf("ERROR: failed to award %d points for booking %s: %v", points, booking.Ref, err)
			report.Failures = append(report.Failures, fmt.Sprintf("booking %s: %v", booking.Ref, err))
			continue
		}
		report.PointsAwarded += points

		s.publishAward(ctx, booking, flight, account, points)
	}

	report.FlightsProcessed++
	return nil
}

func (s *SettlementService) publishAward(ctx context.Context, booking domain.Booking, flight domain.Flight, account *domain.LoyaltyAccount, points int) {
	if s.producer == nil || s.notificationsTopic == "" {
		return
	}

	event := kafka.PointsAwardedEvent{
		Type:         kafka.EventTypePointsAwarded,
		BookingRef:   booking.Ref,
		UserID:       booking.UserID,
		UserEmail:    booking.UserEmail,
		FlightCode:   flight.Code,
		MemberNumber: account.MemberNumber,
		Points:       points,
		Balance:      account.Balance,
		Tier:         string(account.Tier),
		CreatedAt:    time.Now(),
	}
	if err := s.producer.PublishWithRetry(ctx, s.notificationsTopic, booking.Ref, event, awardPublishRetries); err != nil {
		log.Printf("WARNING: failed to publish points awarded event for booking %s: %v", booking.Ref, err)
	}
}

var _ SettlementUseCase = (*SettlementService)(nil)
