package model

import "time"

// Trip is one scheduled journey of a bus from a source to a destination.
// Seats are created per trip, not per bus, so availability is tracked
// independently for every departure.
type Trip struct {
	ID            uint64    `json:"id"`             // trips.id
	BusID         uint64    `json:"bus_id"`         // trips.bus_id -> buses.id
	Source        string    `json:"source"`         // trips.source
	Destination   string    `json:"destination"`    // trips.destination
	DepartureTime time.Time `json:"departure_time"` // trips.departure_time (UTC)
	ArrivalTime   time.Time `json:"arrival_time"`   // trips.arrival_time (UTC)
	Price         uint32    `json:"price"`          // trips.price (per seat)
}
