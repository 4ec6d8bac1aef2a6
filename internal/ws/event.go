// Package ws contains the real-time seat map channel: the closed set of
// subscription events and the hub that fans them out to every connection
// watching a trip.
package ws

// Event is a message deliverable to seat-map subscribers.  The set of
// implementations is closed; each carries a fixed "type" tag so clients
// can switch on it.  Construct events through the New* helpers so the tag
// is always consistent with the payload.
type Event interface {
	isEvent()
}

// LockedSeat is one entry of an initial-state snapshot.
type LockedSeat struct {
	SeatNo uint32 `json:"seat_no"` // seat number within the trip
	UserID uint64 `json:"user_id"` // holder of the lock
}

// InitialStateEvent is sent once to a subscriber right after it joins a
// trip room.  It reflects the live lock store contents at that moment;
// everything after it arrives as incremental events.
type InitialStateEvent struct {
	Type        string       `json:"type"` // always "INITIAL_STATE"
	LockedSeats []LockedSeat `json:"locked_seats"`
}

func (InitialStateEvent) isEvent() {}

// SeatLockedEvent announces that a user took a temporary lock on a seat.
type SeatLockedEvent struct {
	Type   string `json:"type"` // always "SEAT_LOCKED"
	SeatNo uint32 `json:"seat_no"`
	UserID uint64 `json:"user_id"`
}

func (SeatLockedEvent) isEvent() {}

// SeatUnlockedEvent announces that a seat lock went away.  UserID is set
// for explicit releases and absent for TTL expiries, where the holder is
// no longer known to the listener.
type SeatUnlockedEvent struct {
	Type   string  `json:"type"` // always "SEAT_UNLOCKED"
	SeatNo uint32  `json:"seat_no"`
	UserID *uint64 `json:"user_id,omitempty"`
}

func (SeatUnlockedEvent) isEvent() {}

// SeatBookedEvent announces that seats were permanently booked in one
// transaction and are no longer available to anyone.
type SeatBookedEvent struct {
	Type        string   `json:"type"` // always "SEAT_BOOKED"
	SeatNumbers []uint32 `json:"seat_numbers"`
}

func (SeatBookedEvent) isEvent() {}

// NewInitialState builds the snapshot event for a new subscriber.  A nil
// slice serializes as an empty array so clients always see locked_seats.
func NewInitialState(locked []LockedSeat) InitialStateEvent {
	if locked == nil {
		locked = []LockedSeat{}
	}
	return InitialStateEvent{Type: "INITIAL_STATE", LockedSeats: locked}
}

// NewSeatLocked builds a SEAT_LOCKED event.
func NewSeatLocked(seatNo uint32, userID uint64) SeatLockedEvent {
	return SeatLockedEvent{Type: "SEAT_LOCKED", SeatNo: seatNo, UserID: userID}
}

// NewSeatUnlocked builds a SEAT_UNLOCKED event for an explicit release by
// a known holder.
func NewSeatUnlocked(seatNo uint32, userID uint64) SeatUnlockedEvent {
	return SeatUnlockedEvent{Type: "SEAT_UNLOCKED", SeatNo: seatNo, UserID: &userID}
}

// NewSeatExpired builds a SEAT_UNLOCKED event for a TTL expiry, where no
// holder is attached.
func NewSeatExpired(seatNo uint32) SeatUnlockedEvent {
	return SeatUnlockedEvent{Type: "SEAT_UNLOCKED", SeatNo: seatNo}
}

// NewSeatBooked builds a SEAT_BOOKED event.
func NewSeatBooked(seatNumbers []uint32) SeatBookedEvent {
	return SeatBookedEvent{Type: "SEAT_BOOKED", SeatNumbers: seatNumbers}
}
