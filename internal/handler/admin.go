package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
)

// AdminHandler manages the inventory that feeds the reservation core:
// buses, scheduled trips (with their per-trip seat rows) and a small
// ledger summary.  All routes require the ADMIN role.
type AdminHandler struct {
	Trips    *repository.TripRepo
	Seats    *repository.SeatRepo
	Bookings *repository.BookingRepo
}

// NewAdminHandler constructs an AdminHandler.  All dependencies must be
// non-nil.
func NewAdminHandler(trips *repository.TripRepo, seats *repository.SeatRepo, bookings *repository.BookingRepo) *AdminHandler {
	if trips == nil || seats == nil || bookings == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Trips: trips, Seats: seats, Bookings: bookings}
}

// CreateBus handles POST /admin/buses.  It registers a vehicle that
// trips can later be scheduled against.
func (h *AdminHandler) CreateBus(c echo.Context) error {
	var body struct {
		BusName    string `json:"bus_name"`
		BusNumber  string `json:"bus_number"`
		BusType    string `json:"bus_type"`
		TotalSeats uint32 `json:"total_seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.BusName == "" || body.BusNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bus_name and bus_number are required"})
	}
	if body.TotalSeats == 0 {
		body.TotalSeats = 40
	}
	bus := &model.Bus{
		BusName:    body.BusName,
		BusNumber:  body.BusNumber,
		BusType:    body.BusType,
		TotalSeats: body.TotalSeats,
	}
	if err := h.Trips.CreateBus(c.Request().Context(), bus); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create bus"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"bus": bus})
}

// CreateTrip handles POST /admin/trips.  It schedules a trip for a bus
// and creates one unbooked seat row per bus seat, all in one
// transaction, so a trip is never visible without its seats.
func (h *AdminHandler) CreateTrip(c echo.Context) error {
	var body struct {
		BusID         uint64    `json:"bus_id"`
		Source        string    `json:"source"`
		Destination   string    `json:"destination"`
		DepartureTime time.Time `json:"departure_time"`
		ArrivalTime   time.Time `json:"arrival_time"`
		Price         uint32    `json:"price"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.BusID == 0 || body.Source == "" || body.Destination == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bus_id, source and destination are required"})
	}
	if !body.ArrivalTime.After(body.DepartureTime) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "arrival_time must be after departure_time"})
	}

	ctx := c.Request().Context()
	bus, err := h.Trips.GetBusByID(ctx, body.BusID)
	if err != nil {
		if errors.Is(err, repository.ErrBusNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bus not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx, err := h.Trips.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	trip := &model.Trip{
		BusID:         bus.ID,
		Source:        body.Source,
		Destination:   body.Destination,
		DepartureTime: body.DepartureTime,
		ArrivalTime:   body.ArrivalTime,
		Price:         body.Price,
	}
	if err := h.Trips.CreateTripTx(ctx, tx, trip); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create trip"})
	}
	if err := h.Seats.CreateForTripTx(ctx, tx, trip.ID, bus.TotalSeats); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create seats"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	return c.JSON(http.StatusCreated, echo.Map{"trip": trip, "seats_created": bus.TotalSeats})
}

// Stats handles GET /admin/stats.  It returns the ledger summary for the
// dashboard: booked seat count and the revenue implied by trip prices.
func (h *AdminHandler) Stats(c echo.Context) error {
	bookings, revenue, err := h.Bookings.Stats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load stats"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total_bookings": bookings,
		"total_revenue":  revenue,
	})
}
