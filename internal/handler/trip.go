package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-reservation/internal/repository"
)

// TripHandler exposes the read-only trip browsing surface: searching
// departures and inspecting a trip's seat map before locking anything.
type TripHandler struct {
	Trips *repository.TripRepo
	Seats *repository.SeatRepo
}

// NewTripHandler constructs a TripHandler.  All dependencies must be
// non-nil.
func NewTripHandler(trips *repository.TripRepo, seats *repository.SeatRepo) *TripHandler {
	if trips == nil || seats == nil {
		panic("nil repository passed to NewTripHandler")
	}
	return &TripHandler{Trips: trips, Seats: seats}
}

// Search handles GET /trips/search?source=&destination=&travel_date=.
// It returns trips between the two stops departing on the given day
// (UTC), each with its bus details and the live unbooked seat count.
// travel_date uses the YYYY-MM-DD format.  No matches is an empty array,
// not an error.
func (h *TripHandler) Search(c echo.Context) error {
	source := c.QueryParam("source")
	destination := c.QueryParam("destination")
	dateStr := c.QueryParam("travel_date")
	if source == "" || destination == "" || dateStr == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "source, destination and travel_date are required"})
	}
	day, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid travel_date, expected YYYY-MM-DD"})
	}
	dayStart := day.UTC()
	dayEnd := dayStart.Add(24*time.Hour - time.Nanosecond)

	results, err := h.Trips.Search(c.Request().Context(), source, destination, dayStart, dayEnd)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to search trips"})
	}
	if results == nil {
		results = []repository.TripSearchResult{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": results})
}

// GetTrip handles GET /trips/:id.  It returns one trip by ID.
func (h *TripHandler) GetTrip(c echo.Context) error {
	tripID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	trip, err := h.Trips.GetByID(c.Request().Context(), tripID)
	if err != nil {
		if errors.Is(err, repository.ErrTripNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"trip": trip})
}

// GetTripSeats handles GET /trips/:id/seats.  It returns every seat of
// the trip with its persistent booking state, ordered by seat number.
// The temporary lock overlay arrives separately over the websocket
// channel; this endpoint only reflects the ledger.
func (h *TripHandler) GetTripSeats(c echo.Context) error {
	tripID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	seats, err := h.Seats.GetByTrip(c.Request().Context(), tripID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}
	if len(seats) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no seats found for this trip"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": seats})
}
