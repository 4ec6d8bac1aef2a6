package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-reservation/internal/lockstore"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
	"github.com/iliyamo/bus-seat-reservation/internal/service"
)

// BookingHandler exposes the seat negotiation endpoints: temporary
// locking during seat selection and the final commit, plus retrieval of
// the caller's tickets.  All methods assume JWT authentication has
// already run; the holder identity comes from the token, never from the
// request body.
type BookingHandler struct {
	Negotiation *service.Negotiation
	Bookings    *repository.BookingRepo
}

// NewBookingHandler constructs a BookingHandler.  All dependencies must
// be non-nil.
func NewBookingHandler(negotiation *service.Negotiation, bookings *repository.BookingRepo) *BookingHandler {
	if negotiation == nil || bookings == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Negotiation: negotiation, Bookings: bookings}
}

// seatParams parses the trip and seat path parameters shared by the lock
// and unlock endpoints.
func seatParams(c echo.Context) (tripID uint64, seatNo uint32, ok bool) {
	tripID, ok = pathID(c, "trip_id")
	if !ok {
		return 0, 0, false
	}
	n, err := strconv.ParseUint(c.Param("seat_no"), 10, 32)
	if err != nil || n == 0 {
		return 0, 0, false
	}
	return tripID, uint32(n), true
}

// LockSeat handles POST /bookings/lock-seat/:trip_id/:seat_no.  It takes
// a temporary lock on the seat for the authenticated user and returns
// 200.  A seat locked by someone else yields 400, a user-facing
// conflict rather than a server error; locking a seat the caller already holds
// refreshes the lock.
func (h *BookingHandler) LockSeat(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tripID, seatNo, ok := seatParams(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip or seat number"})
	}
	if err := h.Negotiation.LockSeat(c.Request().Context(), tripID, seatNo, userID); err != nil {
		if errors.Is(err, lockstore.ErrOccupied) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat occupied"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lock service unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "locked"})
}

// UnlockSeat handles POST /bookings/unlock-seat/:trip_id/:seat_no.  It
// releases the caller's lock if one exists and always returns 200; the
// body reports whether a lock was actually released so clients can tell
// a real release from a no-op.
func (h *BookingHandler) UnlockSeat(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tripID, seatNo, ok := seatParams(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip or seat number"})
	}
	released, err := h.Negotiation.UnlockSeat(c.Request().Context(), tripID, seatNo, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lock service unavailable"})
	}
	if released {
		return c.JSON(http.StatusOK, echo.Map{"released": true, "message": "seat released"})
	}
	return c.JSON(http.StatusOK, echo.Map{"released": false, "message": "no action taken"})
}

// CreateBooking handles POST /bookings.  It finalizes the purchase of
// one or more seats in a single all-or-nothing transaction and returns
// 201 with the booking reference.  Unknown seat numbers yield 404;  a
// seat already sold yields 400 with the offending seat; a ledger failure
// rolls everything back and yields 500.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		TripID      uint64   `json:"trip_id"`
		SeatNumbers []uint32 `json:"seat_numbers"`
		Gender      string   `json:"gender"`
		Age         uint32   `json:"age"`
		PhoneNumber string   `json:"phone_number"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.TripID == 0 || len(body.SeatNumbers) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "trip_id and seat_numbers are required"})
	}

	reference, err := h.Negotiation.CommitBooking(c.Request().Context(), service.CommitRequest{
		TripID:      body.TripID,
		SeatNumbers: body.SeatNumbers,
		UserID:      userID,
		Gender:      body.Gender,
		Age:         body.Age,
		PhoneNumber: body.PhoneNumber,
	})
	if err != nil {
		var booked *service.AlreadyBookedError
		switch {
		case errors.As(err, &booked):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":   "seat already booked",
				"seat_no": booked.SeatNo,
			})
		case errors.Is(err, service.ErrUnknownSeats):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown seats"})
		case errors.Is(err, repository.ErrTripNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "booking_number": reference})
}

// MyTickets handles GET /bookings/my-tickets.  It returns the caller's
// bookings grouped by booking number, newest first.
func (h *BookingHandler) MyTickets(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	groups, err := h.Bookings.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": groups})
}

// GetBooking handles GET /bookings/:booking_number.  It returns the full
// detail of one booking reference belonging to the caller; references
// owned by other users are indistinguishable from missing ones.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	number := c.Param("booking_number")
	if number == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking number"})
	}
	detail, err := h.Bookings.GetByNumberForUser(c.Request().Context(), number, userID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": detail})
}
