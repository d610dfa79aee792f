package repository

import (
	"context"
	"errors"

	"github.com/akarpov91/milesbook/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	Insert(ctx context.Context, tx pgx.Tx, booking *domain.Booking) error
	GetByRef(ctx context.Context, ref string) (*domain.Booking, error)
	GetByRefForUpdate(ctx context.Context, tx pgx.Tx, ref string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
	ListConfirmedByFlight(ctx context.Context, flightID int64) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, ref string, status domain.BookingStatus) (*domain.Booking, error)
	RefExists(ctx context.Context, ref string) (bool, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, ref, flight_id, user_id, user_email, status, payment_method, price_paid, passenger_count, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.Ref, &b.FlightID, &b.UserID, &b.UserEmail, &b.Status, &b.PaymentMethod, &b.PricePaid, &b.PassengerCount, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// Insert writes the booking and its passenger rows inside the caller's
// transaction, next to the seat reservation they belong to.
func (r *PGBookingRepository) Insert(ctx context.Context, tx pgx.Tx, booking *domain.Booking) error {
	if err := tx.QueryRow(ctx, `INSERT INTO bookings (ref, flight_id, user_id, user_email, status, payment_method, price_paid, passenger_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		booking.Ref, booking.FlightID, booking.UserID, booking.UserEmail, booking.Status, booking.PaymentMethod, booking.PricePaid, booking.PassengerCount).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return err
	}

	for i := range booking.Passengers {
		p := &booking.Passengers[i]
		p.BookingID = booking.ID
		if err := tx.QueryRow(ctx, `INSERT INTO passengers (booking_id, first_name, last_name, passport_no, date_of_birth, nationality)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			p.BookingID, p.FirstName, p.LastName, p.PassportNo, p.DateOfBirth, p.Nationality).
			Scan(&p.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *PGBookingRepository) GetByRef(ctx context.Context, ref string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE ref=$1`, ref))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadPassengers(ctx, r.db, b); err != nil {
		return nil, err
	}
	return b, nil
}

// GetByRefForUpdate locks the booking row so concurrent cancellations of
// the same booking serialize on the status check.
func (r *PGBookingRepository) GetByRefForUpdate(ctx context.Context, tx pgx.Tx, ref string) (*domain.Booking, error) {
	b, err := scanBooking(tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE ref=$1 FOR UPDATE`, ref))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadPassengers(ctx, tx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *PGBookingRepository) ListConfirmedByFlight(ctx context.Context, flightID int64) ([]domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE flight_id=$1 AND status=$2 ORDER BY id`, flightID, domain.BookingStatusConfirmed)
}

func (r *PGBookingRepository) list(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range bookings {
		if err := r.loadPassengers(ctx, r.db, &bookings[i]); err != nil {
			return nil, err
		}
	}
	return bookings, nil
}

// querier covers the pool and a transaction, so passenger loads can join
// whichever the booking row came from.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *PGBookingRepository) loadPassengers(ctx context.Context, q querier, b *domain.Booking) error {
	rows, err := q.Query(ctx, `SELECT id, booking_id, first_name, last_name, passport_no, date_of_birth, nationality FROM passengers WHERE booking_id=$1 ORDER BY id`, b.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	b.Passengers = b.Passengers[:0]
	for rows.Next() {
		var p domain.Passenger
		if err := rows.Scan(&p.ID, &p.BookingID, &p.FirstName, &p.LastName, &p.PassportNo, &p.DateOfBirth, &p.Nationality); err != nil {
			return err
		}
		b.Passengers = append(b.Passengers, p)
	}
	return rows.Err()
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, ref string, status domain.BookingStatus) (*domain.Booking, error) {
	b, err := scanBooking(tx.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE ref=$2 RETURNING `+bookingColumns, status, ref))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	return b, err
}

func (r *PGBookingRepository) RefExists(ctx context.Context, ref string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE ref=$1)`, ref).Scan(&exists)
	return exists, err
}

var _ BookingRepository = (*PGBookingRepository)(nil)
