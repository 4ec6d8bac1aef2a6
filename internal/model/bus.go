package model

// Bus describes a physical vehicle in the fleet.  A bus is a template
// for trips: when a trip is scheduled for a bus, one seat row per
// TotalSeats is created for that trip.
type Bus struct {
	ID         uint64 `json:"id"`          // buses.id
	BusName    string `json:"bus_name"`    // buses.bus_name (unique)
	BusNumber  string `json:"bus_number"`  // buses.bus_number (unique registration plate)
	BusType    string `json:"bus_type"`    // buses.bus_type (AC, Non-AC, Sleeper)
	TotalSeats uint32 `json:"total_seats"` // buses.total_seats
}
