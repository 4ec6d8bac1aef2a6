// Package queue defines message payloads exchanged over the message broker
// and the background worker that consumes them.
package queue

// BookingNotifyEvent is enqueued after a booking commit so the notification
// worker can email the ticket to the passenger.  The booking is already
// durable when this event is published; delivery is best-effort and
// at-least-once, and a failure here never affects the booking itself.
// The worker resolves the full booking by reference, so the payload stays
// small.
type BookingNotifyEvent struct {
	Recipient     string   `json:"recipient"`      // email address to notify
	BookingNumber string   `json:"booking_number"` // reference grouping the booked seats
	TripID        uint64   `json:"trip_id"`
	SeatNumbers   []uint32 `json:"seat_numbers"`
	BookedAt      string   `json:"booked_at"` // RFC3339 UTC commit time
}
