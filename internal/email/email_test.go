package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSender_Handle_NeverFails(t *testing.T) {
	sender := NewSender()
	ctx := context.Background()

	payloads := [][]byte{
		[]byte(`{"type": "booking.settled", "booking_ref": "BKABC123", "user_email": "ada@example.com"}`),
		[]byte(`{"type": "booking.cancelled", "booking_ref": "BKABC123", "user_email": "ada@example.com"}`),
		[]byte(`{"type": "points.awarded", "booking_ref": "BKABC123", "user_email": "ada@example.com", "points": 20}`),
		[]byte(`{"type": "something.else"}`),
		[]byte(`{"type": "booking.settled"}`), // no recipient
		[]byte(`not json at all`),
	}

	for _, payload := range payloads {
		assert.NoError(t, sender.Handle(ctx, payload))
	}
}
