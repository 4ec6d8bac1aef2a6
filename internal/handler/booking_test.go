package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-seat-reservation/internal/lockstore"
	"github.com/iliyamo/bus-seat-reservation/internal/queue"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
	"github.com/iliyamo/bus-seat-reservation/internal/service"
	"github.com/iliyamo/bus-seat-reservation/internal/ws"
)

type nopHub struct{}

func (nopHub) Broadcast(uint64, ws.Event) {}

type nopPublisher struct{}

func (nopPublisher) PublishBookingNotify(context.Context, queue.BookingNotifyEvent) error {
	return nil
}

type bookingFixture struct {
	handler   *BookingHandler
	dbMock    sqlmock.Sqlmock
	redisMock redismock.ClientMock
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rdb, redisMock := redismock.NewClientMock()
	bookings := repository.NewBookingRepo(db)
	negotiation := service.NewNegotiation(
		lockstore.New(rdb, 300*time.Second),
		nopHub{},
		repository.NewTripRepo(db),
		repository.NewSeatRepo(db),
		bookings,
		repository.NewUserRepo(db),
		nopPublisher{},
	)
	return &bookingFixture{
		handler:   NewBookingHandler(negotiation, bookings),
		dbMock:    dbMock,
		redisMock: redisMock,
	}
}

// seatLockContext builds an authenticated request context for the seat
// lock endpoints, the way the JWT middleware leaves it.
func seatLockContext(e *echo.Echo, tripID, seatNo, userID string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("trip_id", "seat_no")
	c.SetParamValues(tripID, seatNo)
	c.Set("user_id", userID)
	return c, rec
}

func TestLockSeatEndpoint(t *testing.T) {
	f := newBookingFixture(t)
	e := echo.New()
	f.redisMock.Regexp().
		ExpectEvalSha(`.*`, []string{`lock:1:5`}, `9`, `\d+`).SetVal(int64(1))

	c, rec := seatLockContext(e, "1", "5", "9")
	require.NoError(t, f.handler.LockSeat(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"locked"`)
}

func TestLockSeatEndpointOccupied(t *testing.T) {
	f := newBookingFixture(t)
	e := echo.New()
	f.redisMock.Regexp().
		ExpectEvalSha(`.*`, []string{`lock:1:5`}, `7`, `\d+`).SetVal(int64(0))

	c, rec := seatLockContext(e, "1", "5", "7")
	require.NoError(t, f.handler.LockSeat(c))
	// Held by someone else: a client conflict, not a server fault.
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "seat occupied")
}

func TestLockSeatEndpointRejectsBadParams(t *testing.T) {
	f := newBookingFixture(t)
	e := echo.New()

	for _, params := range [][2]string{{"abc", "5"}, {"1", "abc"}, {"0", "5"}, {"1", "0"}} {
		c, rec := seatLockContext(e, params[0], params[1], "9")
		require.NoError(t, f.handler.LockSeat(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "params %v", params)
	}
}

func TestLockSeatEndpointUnauthenticated(t *testing.T) {
	f := newBookingFixture(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("trip_id", "seat_no")
	c.SetParamValues("1", "5")

	require.NoError(t, f.handler.LockSeat(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnlockSeatEndpointReportsRelease(t *testing.T) {
	f := newBookingFixture(t)
	e := echo.New()
	f.redisMock.Regexp().
		ExpectEvalSha(`.*`, []string{`lock:1:5`}, `9`).SetVal(int64(1))

	c, rec := seatLockContext(e, "1", "5", "9")
	require.NoError(t, f.handler.UnlockSeat(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"released":true`)
}

func TestUnlockSeatEndpointNoop(t *testing.T) {
	f := newBookingFixture(t)
	e := echo.New()
	f.redisMock.Regexp().
		ExpectEvalSha(`.*`, []string{`lock:1:5`}, `9`).SetVal(int64(0))

	c, rec := seatLockContext(e, "1", "5", "9")
	require.NoError(t, f.handler.UnlockSeat(c))
	// Unlocking a seat you do not hold still succeeds.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"released":false`)
}

func TestCreateBookingRejectsEmptyBody(t *testing.T) {
	f := newBookingFixture(t)
	e := echo.New()

	c, rec := postJSON(e, "/bookings", `{"trip_id":1,"seat_numbers":[]}`)
	c.Set("user_id", "9")
	require.NoError(t, f.handler.CreateBooking(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBookingUnknownTrip(t *testing.T) {
	f := newBookingFixture(t)
	e := echo.New()

	f.dbMock.ExpectQuery(`SELECT .+ FROM trips WHERE id = \?`).
		WithArgs(404).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "bus_id", "source", "destination", "departure_time", "arrival_time", "price",
		}))

	c, rec := postJSON(e, "/bookings", `{"trip_id":404,"seat_numbers":[5],"gender":"female","age":30,"phone_number":"5550001"}`)
	c.Set("user_id", "9")
	require.NoError(t, f.handler.CreateBooking(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "trip not found")
}

func TestCreateBookingSeatConflict(t *testing.T) {
	f := newBookingFixture(t)
	e := echo.New()

	dep := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)
	f.dbMock.ExpectQuery(`SELECT .+ FROM trips WHERE id = \?`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "bus_id", "source", "destination", "departure_time", "arrival_time", "price",
		}).AddRow(1, 1, "Tehran", "Shiraz", dep, dep.Add(10*time.Hour), 450))
	f.dbMock.ExpectQuery(`SELECT .+ FROM users WHERE id = \?`).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "email", "password", "gender", "age", "phone_number", "is_admin",
		}).AddRow(9, "sara", "sara@example.com", "$2a$10$hash", nil, nil, nil, false))
	f.dbMock.ExpectBegin()
	f.dbMock.ExpectExec(`UPDATE users SET`).
		WithArgs("female", 30, "5550001", 9).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.dbMock.ExpectQuery(`FROM seats WHERE trip_id = \? AND seat_number IN .+ FOR UPDATE`).
		WithArgs(1, 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "trip_id", "seat_number", "is_booked"}).
			AddRow(101, 1, 5, true))
	f.dbMock.ExpectRollback()

	c, rec := postJSON(e, "/bookings", `{"trip_id":1,"seat_numbers":[5],"gender":"female","age":30,"phone_number":"5550001"}`)
	c.Set("user_id", "9")
	require.NoError(t, f.handler.CreateBooking(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"seat_no":5`)
}
