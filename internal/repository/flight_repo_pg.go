package repository

import (
	"context"
	"errors"
	"time"

	"github.com/akarpov91/milesbook/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FlightRepository interface {
	Create(ctx context.Context, flight *domain.Flight) error
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Flight, error)
	Reserve(ctx context.Context, tx pgx.Tx, flightID int64, seats int) (*domain.Flight, error)
	Release(ctx context.Context, tx pgx.Tx, flightID int64, seats int) (*domain.Flight, error)
	ListArrivedScheduled(ctx context.Context, now time.Time) ([]domain.Flight, error)
	MarkCompleted(ctx context.Context, tx pgx.Tx, flightID int64) (bool, error)
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

const flightColumns = `id, code, from_airport, to_airport, departure_time, arrival_time, price, capacity, booked_seats, status, created_at, updated_at`

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.Code, &f.FromAirport, &f.ToAirport, &f.DepartureTime, &f.ArrivalTime, &f.Price, &f.Capacity, &f.BookedSeats, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *PGFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	flight.Status = domain.FlightStatusScheduled
	return r.db.QueryRow(ctx, `INSERT INTO flights (code, from_airport, to_airport, departure_time, arrival_time, price, capacity, booked_seats, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8)
		RETURNING id, booked_seats, created_at, updated_at`,
		flight.Code, flight.FromAirport, flight.ToAirport, flight.DepartureTime, flight.ArrivalTime, flight.Price, flight.Capacity, flight.Status).
		Scan(&flight.ID, &flight.BookedSeats, &flight.CreatedAt, &flight.UpdatedAt)
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY departure_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	f, err := scanFlight(r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrFlightNotFound
	}
	return f, err
}

// GetForUpdate takes the row-level exclusive lock that serializes every
// reserve/release against this flight for the rest of the transaction.
func (r *PGFlightRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Flight, error) {
	f, err := scanFlight(tx.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrFlightNotFound
	}
	return f, err
}

func (r *PGFlightRepository) Reserve(ctx context.Context, tx pgx.Tx, flightID int64, seats int) (*domain.Flight, error) {
	f, err := r.GetForUpdate(ctx, tx, flightID)
	if err != nil {
		return nil, err
	}
	if !f.HasAvailableSeats(seats) {
		return nil, domain.ErrOutOfCapacity
	}
	return scanFlight(tx.QueryRow(ctx, `UPDATE flights SET booked_seats = booked_seats + $2, updated_at = now() WHERE id=$1 RETURNING `+flightColumns, flightID, seats))
}

// Release trusts the caller's accounting but refuses to drive the counter
// negative: that is an internal-consistency bug, and the transaction must
// abort instead of clamping.
func (r *PGFlightRepository) Release(ctx context.Context, tx pgx.Tx, flightID int64, seats int) (*domain.Flight, error) {
	f, err := r.GetForUpdate(ctx, tx, flightID)
	if err != nil {
		return nil, err
	}
	if f.BookedSeats-seats < 0 {
		return nil, domain.ErrNegativeSeats
	}
	return scanFlight(tx.QueryRow(ctx, `UPDATE flights SET booked_seats = booked_seats - $2, updated_at = now() WHERE id=$1 RETURNING `+flightColumns, flightID, seats))
}

func (r *PGFlightRepository) ListArrivedScheduled(ctx context.Context, now time.Time) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights WHERE status=$1 AND arrival_time < $2 ORDER BY arrival_time`, domain.FlightStatusScheduled, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flights []domain.Flight
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

// MarkCompleted transitions SCHEDULED -> COMPLETED. The status guard makes
// the sweep idempotent: a flight another run already completed reports
// false and is skipped.
func (r *PGFlightRepository) MarkCompleted(ctx context.Context, tx pgx.Tx, flightID int64) (bool, error) {
	res, err := tx.Exec(ctx, `UPDATE flights SET status=$1, updated_at = now() WHERE id=$2 AND status=$3`,
		domain.FlightStatusCompleted, flightID, domain.FlightStatusScheduled)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
