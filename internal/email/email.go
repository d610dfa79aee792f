package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/akarpov91/milesbook/internal/kafka"
)

// Sender renders notification emails for relay events. Failures here are
// logged and swallowed: notification delivery must never reach back into
// the purchase path.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

// Handle dispatches a raw notification message by its type field.
// Duplicate deliveries render a duplicate email, which is accepted.
func (s *Sender) Handle(ctx context.Context, payload []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		log.Printf("ERROR: undecodable notification event: %v", err)
		return nil
	}

	switch head.Type {
	case kafka.EventTypeBookingSettled, kafka.EventTypeBookingCancelled:
		var event kafka.BookingEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Printf("ERROR: undecodable booking event: %v", err)
			return nil
		}
		s.sendBookingEmail(event)
	case kafka.EventTypePointsAwarded:
		var event kafka.PointsAwardedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Printf("ERROR: undecodable points event: %v", err)
			return nil
		}
		s.sendPointsEmail(event)
	default:
		log.Printf("skipping notification with unknown type %q", head.Type)
	}
	return nil
}

func (s *Sender) sendBookingEmail(event kafka.BookingEvent) {
	subject := "Booking confirmed - " + event.BookingRef
	if event.Type == kafka.EventTypeBookingCancelled {
		subject = "Booking cancelled - " + event.BookingRef
	}

	body := fmt.Sprintf("Flight %s %s -> %s departing %s, %d passenger(s), total %.2f",
		event.FlightCode, event.FromAirport, event.ToAirport,
		event.DepartureTime.Format("02 Jan 2006 15:04"), event.PassengerCount, event.PricePaid)

	s.deliver(event.UserEmail, subject, body)
}

func (s *Sender) sendPointsEmail(event kafka.PointsAwardedEvent) {
	subject := "You earned points!"
	body := fmt.Sprintf("You earned %d points for flight %s. New balance: %d (%s tier), member %s",
		event.Points, event.FlightCode, event.Balance, event.Tier, event.MemberNumber)

	s.deliver(event.UserEmail, subject, body)
}

func (s *Sender) deliver(to, subject, body string) {
	if to == "" {
		log.Printf("WARNING: notification without recipient dropped: %s", subject)
		return
	}
	// Stand-in for an SMTP integration.
	log.Printf("send email to %s: %s | %s", to, subject, body)
}
