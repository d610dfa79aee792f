package booking

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/akarpov91/milesbook/internal/domain"
	"github.com/akarpov91/milesbook/internal/kafka"
	"github.com/akarpov91/milesbook/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Points convert to currency at a fixed 1:1 rate on the truncated integer
// price.
const pointsPerPriceUnit = 1

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	CancelBooking(ctx context.Context, ref, userID string) (*domain.Booking, error)
	GetByRef(ctx context.Context, ref string) (*domain.Booking, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type Pricer interface {
	PredictPrice(ctx context.Context, flight *domain.Flight) float64
}

// LoyaltyLedger is the slice of the loyalty service the orchestrator needs:
// a debit that joins the booking transaction.
type LoyaltyLedger interface {
	BurnTx(ctx context.Context, tx pgx.Tx, userID string, amount int, reason, refID string) (*domain.LoyaltyAccount, error)
}

// BookingService is the transaction boundary of a purchase: seat
// reservation, optional points debit and the booking row commit or abort
// together. Event publication happens after commit and is best-effort.
type BookingService struct {
	bookings           repository.BookingRepository
	flights            repository.FlightRepository
	loyalty            LoyaltyLedger
	pricer             Pricer
	producer           Producer
	runner             repository.TxRunner
	bookingTopic       string
	notificationsTopic string
}

type CreateBookingInput struct {
	FlightID      int64
	UserID        string
	UserEmail     string
	PaymentMethod domain.PaymentMethod
	Passengers    []domain.Passenger
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	flights repository.FlightRepository,
	loyalty LoyaltyLedger,
	pricer Pricer,
	producer Producer,
	runner repository.TxRunner,
	bookingTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:     bookings,
		flights:      flights,
		loyalty:      loyalty,
		pricer:       pricer,
		producer:     producer,
		runner:       runner,
		bookingTopic: bookingTopic,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if len(input.Passengers) == 0 {
		return nil, fmt.Errorf("at least one passenger is required")
	}
	for _, p := range input.Passengers {
		if p.FirstName == "" || p.LastName == "" || p.PassportNo == "" {
			return nil, fmt.Errorf("passenger name and passport are required")
		}
	}
	method := input.PaymentMethod
	if method == "" {
		method = domain.PaymentMethodCurrency
	}
	if method != domain.PaymentMethodCurrency && method != domain.PaymentMethodPoints {
		return nil, fmt.Errorf("unknown payment method %q", input.PaymentMethod)
	}

	seats := len(input.Passengers)

	ref, err := s.generateRef(ctx)
	if err != nil {
		return nil, err
	}

	var (
		booking *domain.Booking
		flight  *domain.Flight
	)
	err = s.runner.InTx(ctx, func(tx pgx.Tx) error {
		// Lock first: the capacity check and the counter update must be one
		// critical section.
		flight, err = s.flights.GetForUpdate(ctx, tx, input.FlightID)
		if err != nil {
			return err
		}
		if !flight.HasAvailableSeats(seats) {
			return domain.ErrOutOfCapacity
		}

		unitPrice := s.pricer.PredictPrice(ctx, flight)
		totalPrice := unitPrice * float64(seats)

		// The points debit happens before the reservation; both commit or
		// abort together.
		if method == domain.PaymentMethodPoints {
			points := int(totalPrice) * pointsPerPriceUnit
			if _, err := s.loyalty.BurnTx(ctx, tx, input.UserID, points, "Flight booking "+flight.Code, ref); err != nil {
				return err
			}
		}

		flight, err = s.flights.Reserve(ctx, tx, flight.ID, seats)
		if err != nil {
			return err
		}

		booking = &domain.Booking{
			Ref:            ref,
			FlightID:       flight.ID,
			UserID:         input.UserID,
			UserEmail:      input.UserEmail,
			Status:         domain.BookingStatusConfirmed,
			PaymentMethod:  method,
			PricePaid:      totalPrice,
			PassengerCount: seats,
			Passengers:     input.Passengers,
		}
		return s.bookings.Insert(ctx, tx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventTypeBookingSettled, booking, flight)
	return booking, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, ref, userID string) (*domain.Booking, error) {
	var (
		booking *domain.Booking
		flight  *domain.Flight
	)
	err := s.runner.InTx(ctx, func(tx pgx.Tx) error {
		// Lock the booking row: a concurrent cancel of the same ref must
		// wait here and then fail the status check, not release twice.
		current, err := s.bookings.GetByRefForUpdate(ctx, tx, ref)
		if err != nil {
			return err
		}
		if current.UserID != userID {
			return domain.ErrNotOwner
		}
		switch current.Status {
		case domain.BookingStatusCancelled:
			return domain.ErrAlreadyCancelled
		case domain.BookingStatusCompleted:
			return domain.ErrAlreadyCompleted
		}

		flight, err = s.flights.Release(ctx, tx, current.FlightID, current.PassengerCount)
		if err != nil {
			return err
		}

		booking, err = s.bookings.UpdateStatus(ctx, tx, ref, domain.BookingStatusCancelled)
		if err != nil {
			return err
		}
		booking.Passengers = current.Passengers
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventTypeBookingCancelled, booking, flight)
	return booking, nil
}

func (s *BookingService) GetByRef(ctx context.Context, ref string) (*domain.Booking, error) {
	return s.bookings.GetByRef(ctx, ref)
}

func (s *BookingService) ListForUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

// generateRef allocates a short booking reference, re-rolling on collision.
// The unique index on bookings.ref is the final guard.
func (s *BookingService) generateRef(ctx context.Context) (string, error) {
	for {
		ref := "BK" + strings.ToUpper(uuid.NewString()[:6])
		exists, err := s.bookings.RefExists(ctx, ref)
		if err != nil {
			return "", err
		}
		if !exists {
			return ref, nil
		}
	}
}

// publish runs after the transaction has committed. A lost event never
// rolls back the booking; failures are logged and accepted.
func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking, flight *domain.Flight) {
	if s.producer == nil || booking == nil || flight == nil {
		return
	}

	names := make([]string, 0, len(booking.Passengers))
	for _, p := range booking.Passengers {
		names = append(names, p.FullName())
	}

	event := kafka.BookingEvent{
		Type:           eventType,
		BookingRef:     booking.Ref,
		UserID:         booking.UserID,
		UserEmail:      booking.UserEmail,
		FlightCode:     flight.Code,
		FromAirport:    flight.FromAirport,
		ToAirport:      flight.ToAirport,
		DepartureTime:  flight.DepartureTime,
		PricePaid:      booking.PricePaid,
		PaymentMethod:  string(booking.PaymentMethod),
		PassengerCount: booking.PassengerCount,
		PassengerNames: names,
		CreatedAt:      time.Now(),
	}

	if s.bookingTopic != "" {
		if err := s.producer.Publish(ctx, s.bookingTopic, booking.Ref, event); err != nil {
			log.Printf("WARNING: failed to publish %s event for booking %s: %v", eventType, booking.Ref, err)
		}
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, booking.Ref, event); err != nil {
			log.Printf("WARNING: failed to publish %s notification for booking %s: %v", eventType, booking.Ref, err)
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
