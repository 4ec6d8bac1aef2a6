// Package notifier turns Redis key expiries into seat-unlock broadcasts.
// When a lock key's TTL runs out Redis reclaims it on its own; the
// listener here only observes that fact and tells every watcher of the
// trip that the seat is free again.  This keeps lock lifetime independent
// of client presence: a browser that vanishes without releasing still has
// its seat reclaimed on schedule.
package notifier

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/bus-seat-reservation/internal/lockstore"
	"github.com/iliyamo/bus-seat-reservation/internal/ws"
)

// pollTimeout bounds each blocking read of the notification stream so the
// listener can notice cancellation promptly.
const pollTimeout = time.Second

// errorBackoff is how long the listener sleeps after a transport error
// before retrying, to avoid a tight error loop against a down Redis.
const errorBackoff = 5 * time.Second

// Broadcaster fans an event out to every subscriber of a trip.
type Broadcaster interface {
	Broadcast(tripID uint64, ev ws.Event)
}

// ExpiryListener consumes Redis keyspace notifications for expired keys
// and broadcasts SEAT_UNLOCKED for each expired seat lock.  It never
// mutates the lock store itself.
type ExpiryListener struct {
	rdb *redis.Client
	hub Broadcaster
}

// NewExpiryListener builds a listener on the given Redis client.  The
// client's configured database number selects which keyevent channel is
// subscribed, so the listener and the lock store must share a client
// configuration.
func NewExpiryListener(rdb *redis.Client, hub Broadcaster) *ExpiryListener {
	return &ExpiryListener{rdb: rdb, hub: hub}
}

// Run subscribes to expiry notifications and processes them until ctx is
// cancelled.  Malformed keys are skipped, broadcast problems never stop
// the loop, and read errors back off for a fixed interval before
// retrying indefinitely.  Run returns within one poll timeout of
// cancellation.
func (l *ExpiryListener) Run(ctx context.Context) {
	channel := fmt.Sprintf("__keyevent@%d__:expired", l.rdb.Options().DB)
	pubsub := l.rdb.PSubscribe(ctx, channel)
	defer func() { _ = pubsub.Close() }()

	log.Printf("notifier: listening for expired seat locks on %s", channel)

	for {
		if ctx.Err() != nil {
			return
		}
		msg, err := pubsub.ReceiveTimeout(ctx, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if isTimeout(err) {
				continue // nothing expired this interval
			}
			log.Printf("notifier: receive failed: %v; retrying in %s", err, errorBackoff)
			select {
			case <-time.After(errorBackoff):
			case <-ctx.Done():
				return
			}
			continue
		}
		m, ok := msg.(*redis.Message)
		if !ok {
			continue // subscription confirmations and pings
		}
		l.handleExpiredKey(m.Payload)
	}
}

// handleExpiredKey parses one expired key and broadcasts the unlock.
// Keys outside the lock namespace belong to other concerns (rate limiter
// buckets and the like) and are skipped silently; keys inside it that do
// not parse are logged, since they indicate someone wrote garbage into
// the lock namespace.
func (l *ExpiryListener) handleExpiredKey(key string) {
	if !strings.HasPrefix(key, lockstore.KeyPrefix) {
		return
	}
	tripID, seatNo, ok := lockstore.ParseKey(key)
	if !ok {
		log.Printf("notifier: ignoring malformed lock key %q", key)
		return
	}
	l.hub.Broadcast(tripID, ws.NewSeatExpired(seatNo))
}

// isTimeout reports whether err is a deadline-style error from the
// blocking read, which is the normal idle case rather than a failure.
func isTimeout(err error) bool {
	t, ok := err.(interface{ Timeout() bool })
	return ok && t.Timeout()
}
