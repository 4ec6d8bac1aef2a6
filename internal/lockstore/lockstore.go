// Package lockstore implements the temporary seat lock store on Redis.
// A lock is an advisory, TTL-bounded claim on one seat of one trip: it
// drives the live seat map and reduces contention at booking time, but it
// is never the correctness mechanism; the persistent is_booked check at
// commit is.  Redis enforces expiry autonomously; this package only sets,
// inspects and removes keys.
package lockstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix is the namespace shared with the expiry listener, which parses
// expired keys of this exact shape: lock:<trip_id>:<seat_no>.
const KeyPrefix = "lock:"

// ErrOccupied is returned by Acquire when the seat is locked by a
// different holder.  Handlers translate it into a user-facing conflict.
var ErrOccupied = errors.New("seat occupied")

// SeatLock is one live lock as reported by Get and List.
type SeatLock struct {
	SeatNo   uint32 // seat number within the trip
	HolderID uint64 // user currently holding the lock
}

// acquireLock grants the lock when the key is absent or already owned by
// the requesting holder (re-acquiring extends the TTL).  Running it as a
// single script keeps check-and-set atomic across concurrent instances.
var acquireLock = redis.NewScript(`
    local v = redis.call('GET', KEYS[1])
    if v == false or v == ARGV[1] then
        redis.call('SET', KEYS[1], ARGV[1], 'EX', ARGV[2])
        return 1
    end
    return 0
`)

// releaseLock deletes the key only when it is owned by the requesting
// holder, so an expired-and-reacquired lock can never be released by the
// previous holder.
var releaseLock = redis.NewScript(`
    local v = redis.call('GET', KEYS[1])
    if v == ARGV[1] then
        redis.call('DEL', KEYS[1])
        return 1
    end
    return 0
`)

// Store provides seat lock operations backed by a shared Redis instance.
// All methods are safe for concurrent use; atomicity is provided by Redis
// itself, not by in-process synchronization, so multiple service instances
// can share one store.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// New returns a Store that grants locks with the given TTL.
func New(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// TTL reports the lock lifetime applied to every grant.
func (s *Store) TTL() time.Duration { return s.ttl }

// Key builds the Redis key for a seat lock.
func Key(tripID uint64, seatNo uint32) string {
	return fmt.Sprintf("%s%d:%d", KeyPrefix, tripID, seatNo)
}

// ParseKey splits a lock key back into its trip and seat identifiers.
// It reports false for keys outside the lock namespace or with malformed
// components.
func ParseKey(key string) (tripID uint64, seatNo uint32, ok bool) {
	rest, found := strings.CutPrefix(key, KeyPrefix)
	if !found {
		return 0, 0, false
	}
	parts := strings.Split(rest, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	tripID, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil || tripID == 0 {
		return 0, 0, false
	}
	seat64, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil || seat64 == 0 {
		return 0, 0, false
	}
	return tripID, uint32(seat64), true
}

// Acquire attempts to lock a seat for holderID with the store's TTL.
// Re-acquiring a lock the holder already owns succeeds and refreshes the
// TTL.  When the seat is locked by someone else it returns ErrOccupied;
// any other error indicates Redis was unreachable.
func (s *Store) Acquire(ctx context.Context, tripID uint64, seatNo uint32, holderID uint64) error {
	ttlSecs := int64(s.ttl / time.Second)
	if ttlSecs < 1 {
		ttlSecs = 1
	}
	granted, err := acquireLock.Run(ctx, s.rdb,
		[]string{Key(tripID, seatNo)},
		strconv.FormatUint(holderID, 10), ttlSecs,
	).Int64()
	if err != nil {
		return err
	}
	if granted != 1 {
		return ErrOccupied
	}
	return nil
}

// Release removes the lock if holderID owns it and reports whether a lock
// was actually removed.  Releasing a seat that is unlocked or held by a
// different user is a no-op, not an error.
func (s *Store) Release(ctx context.Context, tripID uint64, seatNo uint32, holderID uint64) (bool, error) {
	removed, err := releaseLock.Run(ctx, s.rdb,
		[]string{Key(tripID, seatNo)},
		strconv.FormatUint(holderID, 10),
	).Int64()
	if err != nil {
		return false, err
	}
	return removed == 1, nil
}

// Delete removes the lock unconditionally.  Used after a booking commit,
// where the durable state supersedes whoever happened to hold the lock.
func (s *Store) Delete(ctx context.Context, tripID uint64, seatNo uint32) error {
	return s.rdb.Del(ctx, Key(tripID, seatNo)).Err()
}

// Get returns the current holder of a seat lock.  The second return value
// reports whether a lock exists.
func (s *Store) Get(ctx context.Context, tripID uint64, seatNo uint32) (uint64, bool, error) {
	v, err := s.rdb.Get(ctx, Key(tripID, seatNo)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	holder, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("lockstore: corrupt holder value %q: %w", v, err)
	}
	return holder, true, nil
}

// List returns every live lock for a trip.  It scans the trip's key
// namespace and fetches each holder; keys that expire between the scan and
// the fetch are skipped.  The result feeds the INITIAL_STATE snapshot sent
// to new seat-map subscribers.
func (s *Store) List(ctx context.Context, tripID uint64) ([]SeatLock, error) {
	pattern := fmt.Sprintf("%s%d:*", KeyPrefix, tripID)
	var locks []SeatLock
	iter := s.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		_, seatNo, ok := ParseKey(key)
		if !ok {
			continue
		}
		v, err := s.rdb.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue // expired between scan and fetch
		}
		if err != nil {
			return nil, err
		}
		holder, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			continue
		}
		locks = append(locks, SeatLock{SeatNo: seatNo, HolderID: holder})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return locks, nil
}
