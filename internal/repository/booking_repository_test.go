package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListByUserGroupsByBookingNumber(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	depA := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)
	depB := time.Date(2026, 9, 12, 14, 0, 0, 0, time.UTC)
	created := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	cols := []string{
		"booking_number", "status", "created_at",
		"id", "bus_id", "source", "destination", "departure_time", "arrival_time", "price",
		"seat_number",
	}
	mock.ExpectQuery(`FROM bookings bk JOIN trips t .+ WHERE bk.user_id = \?`).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("ABC-1A2B3C", "confirmed", created, 1, 1, "Tehran", "Shiraz", depA, depA.Add(10*time.Hour), 450, 5).
			AddRow("ABC-1A2B3C", "confirmed", created, 1, 1, "Tehran", "Shiraz", depA, depA.Add(10*time.Hour), 450, 6).
			AddRow("ABC-9F8E7D", "confirmed", created.Add(-time.Hour), 2, 1, "Tehran", "Mashhad", depB, depB.Add(12*time.Hour), 600, 1))

	groups, err := NewBookingRepo(db).ListByUser(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "ABC-1A2B3C", groups[0].BookingNumber)
	assert.Equal(t, []uint32{5, 6}, groups[0].Seats)
	assert.Equal(t, "Shiraz", groups[0].Trip.Destination)

	assert.Equal(t, "ABC-9F8E7D", groups[1].BookingNumber)
	assert.Equal(t, []uint32{1}, groups[1].Seats)
}

func TestListByUserEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM bookings bk JOIN trips t .+ WHERE bk.user_id = \?`).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{
			"booking_number", "status", "created_at",
			"id", "bus_id", "source", "destination", "departure_time", "arrival_time", "price",
			"seat_number",
		}))

	groups, err := NewBookingRepo(db).ListByUser(context.Background(), 9)
	require.NoError(t, err)
	assert.NotNil(t, groups, "no tickets serializes as [] rather than null")
	assert.Empty(t, groups)
}

func TestGetByNumberForUserNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`WHERE bk.booking_number = \? AND bk.user_id = \?`).
		WithArgs("ABC-000000", 9).
		WillReturnRows(sqlmock.NewRows([]string{
			"status", "created_at",
			"id", "bus_id", "source", "destination", "departure_time", "arrival_time", "price",
			"seat_number", "username", "phone_number",
		}))

	_, err = NewBookingRepo(db).GetByNumberForUser(context.Background(), "ABC-000000", 9)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestGetByNumberForUserCollectsSeats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dep := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)
	created := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	phone := "5550001"

	mock.ExpectQuery(`WHERE bk.booking_number = \? AND bk.user_id = \?`).
		WithArgs("ABC-1A2B3C", 9).
		WillReturnRows(sqlmock.NewRows([]string{
			"status", "created_at",
			"id", "bus_id", "source", "destination", "departure_time", "arrival_time", "price",
			"seat_number", "username", "phone_number",
		}).
			AddRow("confirmed", created, 1, 1, "Tehran", "Shiraz", dep, dep.Add(10*time.Hour), 450, 5, "sara", phone).
			AddRow("confirmed", created, 1, 1, "Tehran", "Shiraz", dep, dep.Add(10*time.Hour), 450, 6, "sara", phone))

	detail, err := NewBookingRepo(db).GetByNumberForUser(context.Background(), "ABC-1A2B3C", 9)
	require.NoError(t, err)
	assert.Equal(t, []uint32{5, 6}, detail.Seats)
	assert.Equal(t, "sara", detail.PassengerName)
	require.NotNil(t, detail.Phone)
	assert.Equal(t, phone, *detail.Phone)
}

func TestStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\), COALESCE\(SUM\(t.price\), 0\) FROM bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"count", "revenue"}).AddRow(12, 5400))

	bookings, revenue, err := NewBookingRepo(db).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(12), bookings)
	assert.Equal(t, uint64(5400), revenue)
}
