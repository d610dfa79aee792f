package domain

import "errors"

// Expected, caller-recoverable outcomes.
var (
	ErrFlightNotFound      = errors.New("flight not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrAccountNotFound     = errors.New("loyalty account not found")
	ErrOutOfCapacity       = errors.New("not enough seats available")
	ErrInsufficientBalance = errors.New("insufficient points balance")
	ErrNotOwner            = errors.New("booking belongs to another user")
	ErrAlreadyCancelled    = errors.New("booking is already cancelled")
	ErrAlreadyCompleted    = errors.New("booking is already completed")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

// Internal-consistency violations. These indicate a bug elsewhere and must
// abort the operation loudly, never be clamped.
var (
	ErrNegativeSeats   = errors.New("booked seats counter would go negative")
	ErrNegativeBalance = errors.New("points balance would go negative")
)
