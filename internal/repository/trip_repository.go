package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// TripSearchResult is one row of a trip search: the trip joined with its
// bus details plus the number of seats still unbooked.
type TripSearchResult struct {
	TripID         uint64    `json:"trip_id"`
	BusName        string    `json:"bus_name"`
	BusType        string    `json:"bus_type"`
	Source         string    `json:"source"`
	Destination    string    `json:"destination"`
	DepartureTime  time.Time `json:"departure_time"`
	ArrivalTime    time.Time `json:"arrival_time"`
	Price          uint32    `json:"price"`
	AvailableSeats uint32    `json:"available_seats"`
}

// TripRepo provides data access to the buses and trips tables.  Buses and
// trips are managed together because a trip is always scheduled against a
// bus and the search surface joins the two.
type TripRepo struct {
	db *sql.DB
}

// NewTripRepo returns a new TripRepo bound to the provided database.
func NewTripRepo(db *sql.DB) *TripRepo { return &TripRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions that
// span repositories.
func (r *TripRepo) DB() *sql.DB { return r.db }

// CreateBus inserts a bus. On success the bus's ID is populated.
func (r *TripRepo) CreateBus(ctx context.Context, b *model.Bus) error {
	const q = `INSERT INTO buses (bus_name, bus_number, bus_type, total_seats) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, b.BusName, b.BusNumber, b.BusType, b.TotalSeats)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetBusByID retrieves a bus by primary key.
func (r *TripRepo) GetBusByID(ctx context.Context, id uint64) (*model.Bus, error) {
	const q = `SELECT id, bus_name, bus_number, bus_type, total_seats FROM buses WHERE id = ?`
	var b model.Bus
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&b.ID, &b.BusName, &b.BusNumber, &b.BusType, &b.TotalSeats)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBusNotFound
		}
		return nil, err
	}
	return &b, nil
}

// CreateTripTx inserts a trip within the provided transaction so that the
// trip and its seat rows appear together or not at all.  On success the
// trip's ID is populated.
func (r *TripRepo) CreateTripTx(ctx context.Context, tx *sql.Tx, t *model.Trip) error {
	const q = `INSERT INTO trips (bus_id, source, destination, departure_time, arrival_time, price)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		t.BusID, t.Source, t.Destination,
		t.DepartureTime.UTC(), t.ArrivalTime.UTC(), t.Price)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByID retrieves a trip by primary key.
func (r *TripRepo) GetByID(ctx context.Context, id uint64) (*model.Trip, error) {
	const q = `SELECT id, bus_id, source, destination, departure_time, arrival_time, price
	           FROM trips WHERE id = ?`
	var t model.Trip
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&t.ID, &t.BusID, &t.Source, &t.Destination, &t.DepartureTime, &t.ArrivalTime, &t.Price)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Search returns trips between source and destination departing on the
// given day, joined with bus details and the live unbooked seat count.
// Matching on source and destination is case-insensitive.  An empty
// result is not an error.
func (r *TripRepo) Search(ctx context.Context, source, destination string, dayStart, dayEnd time.Time) ([]TripSearchResult, error) {
	const q = `SELECT t.id, b.bus_name, b.bus_type, t.source, t.destination,
	                  t.departure_time, t.arrival_time, t.price,
	                  (SELECT COUNT(*) FROM seats s WHERE s.trip_id = t.id AND s.is_booked = FALSE)
	           FROM trips t
	           JOIN buses b ON b.id = t.bus_id
	           WHERE LOWER(t.source) = LOWER(?)
	             AND LOWER(t.destination) = LOWER(?)
	             AND t.departure_time BETWEEN ? AND ?
	           ORDER BY t.departure_time`
	rows, err := r.db.QueryContext(ctx, q, source, destination, dayStart.UTC(), dayEnd.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []TripSearchResult
	for rows.Next() {
		var res TripSearchResult
		if err := rows.Scan(
			&res.TripID, &res.BusName, &res.BusType, &res.Source, &res.Destination,
			&res.DepartureTime, &res.ArrivalTime, &res.Price, &res.AvailableSeats,
		); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
