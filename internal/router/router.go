package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo is the web framework handling routing

	"github.com/iliyamo/bus-seat-reservation/internal/handler"
	"github.com/iliyamo/bus-seat-reservation/internal/middleware"
)

// RegisterPublic registers the routes that require no authentication:
// the health check, trip browsing and the real-time seat map channel.
// The websocket endpoint is public like the rest of the browse surface:
// watching a seat map requires no account, only locking seats does.
func RegisterPublic(e *echo.Echo, t *handler.TripHandler, w *handler.WSHandler) {
	// Health endpoint for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	// Trip browsing: search departures, inspect one trip, list its seats.
	e.GET("/trips/search", t.Search)
	e.GET("/trips/:id", t.GetTrip)
	e.GET("/trips/:id/seats", t.GetTripSeats)

	// Live seat updates, one subscription per trip.
	e.GET("/ws/seats/:trip_id", w.SeatUpdates)
}

// RegisterAuth registers signup and login under /auth, plus the
// token-protected current-user endpoint.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/auth")
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)

	me := e.Group("/user", middleware.JWTAuth(jwtSecret))
	me.GET("/me", a.Me)
}
