package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/bus-seat-reservation/internal/config"
	"github.com/iliyamo/bus-seat-reservation/internal/handler"
	"github.com/iliyamo/bus-seat-reservation/internal/middleware"
)

// RegisterBooking registers the seat negotiation endpoints under
// /bookings.  All routes require a valid JWT; both customers and admins
// may book.  The lock and unlock endpoints additionally go through the
// Redis token bucket, since they are the endpoints a misbehaving client
// can spam while fighting over seats.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group(
		"/bookings",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(handler.RoleCustomer, handler.RoleAdmin),
	)

	limited := middleware.NewTokenBucket(rlCfg, rdb)
	g.POST("/lock-seat/:trip_id/:seat_no", h.LockSeat, limited)
	g.POST("/unlock-seat/:trip_id/:seat_no", h.UnlockSeat, limited)

	g.POST("", h.CreateBooking)
	g.GET("/my-tickets", h.MyTickets)
	g.GET("/:booking_number", h.GetBooking)
}
