// Package service coordinates the seat negotiation flow: advisory lock
// acquisition and release, the atomic commit that turns locked seats into
// booked seats, and the fan-out of every state change to the trip's live
// subscribers.
package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/bus-seat-reservation/internal/lockstore"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/queue"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
	"github.com/iliyamo/bus-seat-reservation/internal/ws"
)

// ErrUnknownSeats is returned by CommitBooking when one or more requested
// seat numbers do not exist for the trip.
var ErrUnknownSeats = errors.New("unknown seats")

// AlreadyBookedError is returned by CommitBooking when a requested seat
// is already permanently booked.  The whole request is rejected; nothing
// is partially committed.
type AlreadyBookedError struct {
	SeatNo uint32
}

func (e *AlreadyBookedError) Error() string {
	return fmt.Sprintf("seat %d already booked", e.SeatNo)
}

// Broadcaster fans an event out to every subscriber of a trip.
type Broadcaster interface {
	Broadcast(tripID uint64, ev ws.Event)
}

// NotificationPublisher enqueues a post-commit notification job on the
// external work queue.
type NotificationPublisher interface {
	PublishBookingNotify(ctx context.Context, ev queue.BookingNotifyEvent) error
}

// CommitRequest carries everything needed to finalize a booking: the
// seats being purchased and the passenger details stored on the user row
// at commit time.
type CommitRequest struct {
	TripID      uint64
	SeatNumbers []uint32
	UserID      uint64
	Gender      string
	Age         uint32
	PhoneNumber string
}

// Negotiation implements the per-seat state machine Free -> SoftLocked ->
// Booked.  The first transition lives entirely in the lock store, the
// last entirely in the database; this service sequences the two and keeps
// the seat map subscribers informed.  The soft lock is advisory: nothing
// stops a commit for seats that were never locked, and correctness rests
// on the transactional is_booked check, not on the lock.
type Negotiation struct {
	Locks     *lockstore.Store
	Hub       Broadcaster
	Trips     *repository.TripRepo
	Seats     *repository.SeatRepo
	Bookings  *repository.BookingRepo
	Users     *repository.UserRepo
	Publisher NotificationPublisher
}

// NewNegotiation constructs a Negotiation.  All dependencies must be
// non-nil.
func NewNegotiation(locks *lockstore.Store, hub Broadcaster, trips *repository.TripRepo, seats *repository.SeatRepo, bookings *repository.BookingRepo, users *repository.UserRepo, publisher NotificationPublisher) *Negotiation {
	if locks == nil || hub == nil || trips == nil || seats == nil || bookings == nil || users == nil || publisher == nil {
		panic("nil dependency passed to NewNegotiation")
	}
	return &Negotiation{
		Locks:     locks,
		Hub:       hub,
		Trips:     trips,
		Seats:     seats,
		Bookings:  bookings,
		Users:     users,
		Publisher: publisher,
	}
}

// LockSeat places a temporary lock on a seat and announces it to the
// trip room.  It returns lockstore.ErrOccupied when the seat is locked
// by another user; re-locking a seat the holder already owns succeeds
// and refreshes the TTL.
func (s *Negotiation) LockSeat(ctx context.Context, tripID uint64, seatNo uint32, holderID uint64) error {
	if err := s.Locks.Acquire(ctx, tripID, seatNo, holderID); err != nil {
		return err
	}
	s.Hub.Broadcast(tripID, ws.NewSeatLocked(seatNo, holderID))
	return nil
}

// UnlockSeat releases the caller's lock on a seat, if any, and reports
// whether a lock was actually removed.  The operation is idempotent:
// releasing a seat that is unlocked, or locked by someone else, succeeds
// without broadcasting anything.
func (s *Negotiation) UnlockSeat(ctx context.Context, tripID uint64, seatNo uint32, holderID uint64) (bool, error) {
	released, err := s.Locks.Release(ctx, tripID, seatNo, holderID)
	if err != nil {
		return false, err
	}
	if released {
		s.Hub.Broadcast(tripID, ws.NewSeatUnlocked(seatNo, holderID))
	}
	return released, nil
}

// CommitBooking permanently books the requested seats in one all-or-
// nothing transaction and returns the booking reference.
//
// The sequence is: verify the trip, resolve the seat numbers to rows
// (ErrUnknownSeats on any miss), reject the whole request if any seat is
// already booked, then mark every seat booked and insert one booking row
// per seat under a fresh reference.  Only after the transaction commits
// are the seats' locks deleted (whoever held them, since the durable
// state supersedes the advisory one), the SEAT_BOOKED event broadcast, and the
// notification job enqueued.  Failures past the commit are logged and
// swallowed: the booking is already durable and must not be affected.
func (s *Negotiation) CommitBooking(ctx context.Context, req CommitRequest) (string, error) {
	// Seat numbering starts at 1, so a zero can never resolve to a row;
	// reject the whole request rather than booking the rest.
	for _, n := range req.SeatNumbers {
		if n == 0 {
			return "", ErrUnknownSeats
		}
	}
	seatNumbers := dedupe(req.SeatNumbers)
	if len(seatNumbers) == 0 {
		return "", ErrUnknownSeats
	}

	if _, err := s.Trips.GetByID(ctx, req.TripID); err != nil {
		return "", err
	}
	user, err := s.Users.GetByID(ctx, req.UserID)
	if err != nil {
		return "", err
	}

	tx, err := s.Trips.DB().BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := s.Users.UpdateContactTx(ctx, tx, req.UserID, req.Gender, req.Age, req.PhoneNumber); err != nil {
		return "", err
	}

	seats, err := s.Seats.GetByTripAndNumbersTx(ctx, tx, req.TripID, seatNumbers)
	if err != nil {
		return "", err
	}
	if len(seats) != len(seatNumbers) {
		return "", ErrUnknownSeats
	}
	for _, seat := range seats {
		if seat.IsBooked {
			return "", &AlreadyBookedError{SeatNo: seat.SeatNumber}
		}
	}

	seatIDs := make([]uint64, 0, len(seats))
	for _, seat := range seats {
		seatIDs = append(seatIDs, seat.ID)
	}
	if err := s.Seats.MarkBookedTx(ctx, tx, seatIDs); err != nil {
		return "", err
	}

	reference := newBookingReference()
	rows := make([]model.Booking, 0, len(seats))
	for _, seat := range seats {
		rows = append(rows, model.Booking{
			BookingNumber: reference,
			UserID:        req.UserID,
			TripID:        req.TripID,
			SeatID:        seat.ID,
			Status:        "confirmed",
		})
	}
	if err := s.Bookings.CreateBulkTx(ctx, tx, rows); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	committed = true

	// From here on the booking exists; everything below is best-effort.
	for _, seatNo := range seatNumbers {
		if err := s.Locks.Delete(ctx, req.TripID, seatNo); err != nil {
			log.Printf("negotiation: delete lock for trip %d seat %d: %v", req.TripID, seatNo, err)
		}
	}
	s.Hub.Broadcast(req.TripID, ws.NewSeatBooked(seatNumbers))

	ev := queue.BookingNotifyEvent{
		Recipient:     user.Email,
		BookingNumber: reference,
		TripID:        req.TripID,
		SeatNumbers:   seatNumbers,
		BookedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Publisher.PublishBookingNotify(ctx, ev); err != nil {
		log.Printf("negotiation: enqueue notification for %s: %v", reference, err)
	}

	return reference, nil
}

// newBookingReference generates the opaque group reference for one
// commit: a fixed prefix plus six uppercase hex characters of a random
// UUID.  References are not checked against the ledger for collisions.
func newBookingReference() string {
	id := uuid.New()
	return "ABC-" + strings.ToUpper(hex.EncodeToString(id[:])[:6])
}

// dedupe drops duplicate seat numbers while preserving order.
func dedupe(seatNumbers []uint32) []uint32 {
	unique := make([]uint32, 0, len(seatNumbers))
	seen := make(map[uint32]struct{}, len(seatNumbers))
	for _, n := range seatNumbers {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			unique = append(unique, n)
		}
	}
	return unique
}
