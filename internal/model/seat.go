package model

// Seat tracks the persistent booking state of a single seat on a trip.
// IsBooked is the source of truth for availability: once true it never
// transitions back through the booking flow.  Temporary selection locks
// are not stored here; they live in Redis with a TTL and are purely
// advisory.
type Seat struct {
	ID         uint64 `json:"id"`          // seats.id
	TripID     uint64 `json:"trip_id"`     // seats.trip_id -> trips.id
	SeatNumber uint32 `json:"seat_number"` // seats.seat_number (1-based within the trip)
	IsBooked   bool   `json:"is_booked"`   // seats.is_booked
}
