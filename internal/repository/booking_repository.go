package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// TicketGroup is one booking reference with all its seats, as shown on
// the "my tickets" screen.  A multi-seat purchase is a single group.
type TicketGroup struct {
	BookingNumber string     `json:"booking_number"`
	Trip          model.Trip `json:"trip"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	Seats         []uint32   `json:"seats"`
}

// TicketDetail is the full view of one booking reference, including the
// passenger contact details captured at commit time.
type TicketDetail struct {
	BookingNumber string     `json:"booking_number"`
	Trip          model.Trip `json:"trip"`
	Seats         []uint32   `json:"seats"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	PassengerName string     `json:"passenger_name"`
	Phone         *string    `json:"phone"`
}

// BookingRepo provides data access to the bookings table.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the provided database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateBulkTx inserts one booking row per seat within the provided
// transaction.  All rows carry the same booking number; the caller is
// responsible for committing or rolling back.  Passing an empty slice has
// no effect and returns nil.
func (r *BookingRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, bookings []model.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	query := `INSERT INTO bookings (booking_number, user_id, trip_id, seat_id, status) VALUES `
	args := make([]interface{}, 0, len(bookings)*5)
	for i, b := range bookings {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, b.BookingNumber, b.UserID, b.TripID, b.SeatID, b.Status)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ListByUser returns the user's bookings grouped by booking number, each
// group joined with its trip and carrying the booked seat numbers in one
// slice.  Groups come back newest first; rows within a group arrive
// adjacent because of the ordering, which is what the grouping loop
// relies on.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]TicketGroup, error) {
	const q = `SELECT bk.booking_number, bk.status, bk.created_at,
	                  t.id, t.bus_id, t.source, t.destination, t.departure_time, t.arrival_time, t.price,
	                  s.seat_number
	           FROM bookings bk
	           JOIN trips t ON t.id = bk.trip_id
	           JOIN seats s ON s.id = bk.seat_id
	           WHERE bk.user_id = ?
	           ORDER BY bk.created_at DESC, bk.booking_number, s.seat_number`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []TicketGroup{}
	index := map[string]int{}
	for rows.Next() {
		var (
			number    string
			status    string
			createdAt time.Time
			trip      model.Trip
			seatNo    uint32
		)
		if err := rows.Scan(
			&number, &status, &createdAt,
			&trip.ID, &trip.BusID, &trip.Source, &trip.Destination,
			&trip.DepartureTime, &trip.ArrivalTime, &trip.Price,
			&seatNo,
		); err != nil {
			return nil, err
		}
		i, ok := index[number]
		if !ok {
			groups = append(groups, TicketGroup{
				BookingNumber: number,
				Trip:          trip,
				Status:        status,
				CreatedAt:     createdAt,
			})
			i = len(groups) - 1
			index[number] = i
		}
		groups[i].Seats = append(groups[i].Seats, seatNo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}

// GetByNumberForUser returns the detail of one booking reference owned by
// the given user.  A reference that does not exist or belongs to someone
// else yields ErrBookingNotFound; ownership is enforced in the query so
// references cannot be probed across accounts.
func (r *BookingRepo) GetByNumberForUser(ctx context.Context, bookingNumber string, userID uint64) (*TicketDetail, error) {
	const q = `SELECT bk.status, bk.created_at,
	                  t.id, t.bus_id, t.source, t.destination, t.departure_time, t.arrival_time, t.price,
	                  s.seat_number,
	                  u.username, u.phone_number
	           FROM bookings bk
	           JOIN trips t ON t.id = bk.trip_id
	           JOIN seats s ON s.id = bk.seat_id
	           JOIN users u ON u.id = bk.user_id
	           WHERE bk.booking_number = ? AND bk.user_id = ?
	           ORDER BY s.seat_number`
	rows, err := r.db.QueryContext(ctx, q, bookingNumber, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var detail *TicketDetail
	for rows.Next() {
		var (
			status    string
			createdAt time.Time
			trip      model.Trip
			seatNo    uint32
			username  string
			phone     *string
		)
		if err := rows.Scan(
			&status, &createdAt,
			&trip.ID, &trip.BusID, &trip.Source, &trip.Destination,
			&trip.DepartureTime, &trip.ArrivalTime, &trip.Price,
			&seatNo, &username, &phone,
		); err != nil {
			return nil, err
		}
		if detail == nil {
			detail = &TicketDetail{
				BookingNumber: bookingNumber,
				Trip:          trip,
				Status:        status,
				CreatedAt:     createdAt,
				PassengerName: username,
				Phone:         phone,
			}
		}
		detail.Seats = append(detail.Seats, seatNo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, ErrBookingNotFound
	}
	return detail, nil
}

// Stats summarizes the ledger for the admin dashboard: how many seats
// were ever booked and the revenue implied by their trips' prices.
func (r *BookingRepo) Stats(ctx context.Context) (totalBookings uint64, totalRevenue uint64, err error) {
	const q = `SELECT COUNT(*), COALESCE(SUM(t.price), 0)
	           FROM bookings bk
	           JOIN trips t ON t.id = bk.trip_id`
	err = r.db.QueryRowContext(ctx, q).Scan(&totalBookings, &totalRevenue)
	if err != nil && errors.Is(err, sql.ErrNoRows) {
		return 0, 0, nil
	}
	return totalBookings, totalRevenue, err
}
