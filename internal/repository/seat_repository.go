package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// SeatRepo provides methods to work with per-trip seats in the database.
// The is_booked column it manages is the single persistent source of
// truth for availability; every mutation that flips it runs inside a
// caller-supplied transaction.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// CreateForTripTx inserts one unbooked seat row per seat number 1..total
// for a freshly scheduled trip, in a single statement within the trip
// creation transaction.
func (r *SeatRepo) CreateForTripTx(ctx context.Context, tx *sql.Tx, tripID uint64, total uint32) error {
	if total == 0 {
		return nil
	}
	query := `INSERT INTO seats (trip_id, seat_number, is_booked) VALUES `
	args := make([]interface{}, 0, total*2)
	for n := uint32(1); n <= total; n++ {
		if n > 1 {
			query += ","
		}
		query += "(?, ?, FALSE)"
		args = append(args, tripID, n)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByTrip retrieves all seats of a trip ordered by seat number.
func (r *SeatRepo) GetByTrip(ctx context.Context, tripID uint64) ([]model.Seat, error) {
	const q = `SELECT id, trip_id, seat_number, is_booked
	           FROM seats
	           WHERE trip_id = ?
	           ORDER BY seat_number`
	rows, err := r.db.QueryContext(ctx, q, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.TripID, &s.SeatNumber, &s.IsBooked); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByTripAndNumbersTx resolves seat numbers to seat rows for a trip,
// locking the rows with FOR UPDATE. Two bookings racing on the same seat
// therefore serialize inside the database: the second transaction blocks
// until the first commits and then sees is_booked already set.  Seat
// numbers with no row for the trip are simply absent from the result;
// callers detect them by comparing lengths.
func (r *SeatRepo) GetByTripAndNumbersTx(ctx context.Context, tx *sql.Tx, tripID uint64, seatNumbers []uint32) ([]model.Seat, error) {
	if len(seatNumbers) == 0 {
		return []model.Seat{}, nil
	}
	query := `SELECT id, trip_id, seat_number, is_booked FROM seats WHERE trip_id = ? AND seat_number IN (`
	args := make([]interface{}, 0, len(seatNumbers)+1)
	args = append(args, tripID)
	for i, n := range seatNumbers {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, n)
	}
	query += ") ORDER BY seat_number FOR UPDATE"

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.TripID, &s.SeatNumber, &s.IsBooked); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkBookedTx flips is_booked for the given seat IDs within the booking
// transaction.
func (r *SeatRepo) MarkBookedTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `UPDATE seats SET is_booked = TRUE WHERE id IN (`
	args := make([]interface{}, 0, len(seatIDs))
	for i, id := range seatIDs {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += ")"
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}
