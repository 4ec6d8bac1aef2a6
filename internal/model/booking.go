package model

import "time"

// Booking links a user to one seat on a trip.  A multi-seat purchase
// creates several rows sharing the same BookingNumber, all inserted in
// one transaction.  The seat referenced by a booking always has
// is_booked=true and the seat→booking mapping is permanent.
type Booking struct {
	ID            uint64    `json:"id"`             // bookings.id
	BookingNumber string    `json:"booking_number"` // bookings.booking_number (group reference)
	UserID        uint64    `json:"user_id"`        // bookings.user_id -> users.id
	TripID        uint64    `json:"trip_id"`        // bookings.trip_id -> trips.id
	SeatID        uint64    `json:"seat_id"`        // bookings.seat_id -> seats.id
	Status        string    `json:"status"`         // bookings.status (confirmed)
	CreatedAt     time.Time `json:"created_at"`     // bookings.created_at
}
