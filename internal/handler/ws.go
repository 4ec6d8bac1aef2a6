package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/net/websocket"

	"github.com/iliyamo/bus-seat-reservation/internal/lockstore"
	"github.com/iliyamo/bus-seat-reservation/internal/ws"
)

// settleDelay is how long a fresh subscription waits before snapshotting
// the lock store, smoothing over races with a connection that is still
// being set up on the client side.
const settleDelay = 100 * time.Millisecond

// WSHandler serves the real-time seat map channel.  One connection
// watches one trip; the server pushes lock, unlock and booking events
// and echoes the client's heartbeat.
type WSHandler struct {
	Hub   *ws.Hub
	Locks *lockstore.Store
}

// NewWSHandler constructs a WSHandler.  All dependencies must be non-nil.
func NewWSHandler(hub *ws.Hub, locks *lockstore.Store) *WSHandler {
	if hub == nil || locks == nil {
		panic("nil dependency passed to NewWSHandler")
	}
	return &WSHandler{Hub: hub, Locks: locks}
}

// SeatUpdates handles GET /ws/seats/:trip_id.  After the upgrade the
// subscriber joins the trip room, receives an INITIAL_STATE snapshot of
// the live locks, and from then on gets every seat event for the trip in
// broadcast order.  The only inbound message honored is the "ping"
// heartbeat, answered with "pong"; everything else is ignored.  The
// subscription ends when the client goes away or a send fails.
func (h *WSHandler) SeatUpdates(c echo.Context) error {
	tripID, ok := pathID(c, "trip_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}

	websocket.Handler(func(conn *websocket.Conn) {
		sub := ws.NewConn(conn)
		h.Hub.Subscribe(tripID, sub)
		defer h.Hub.Unsubscribe(tripID, sub)

		h.sendInitialState(c.Request().Context(), tripID, sub)

		for {
			var msg string
			if err := websocket.Message.Receive(conn, &msg); err != nil {
				return // client disconnected
			}
			if msg == "ping" {
				if err := websocket.Message.Send(conn, "pong"); err != nil {
					return
				}
			}
		}
	}).ServeHTTP(c.Response(), c.Request())
	return nil
}

// sendInitialState snapshots the lock store for the trip and delivers it
// to one subscriber.  The snapshot is advisory like everything else on
// this channel, so a failure is logged and the subscription continues;
// the client will converge through subsequent events.
func (h *WSHandler) sendInitialState(ctx context.Context, tripID uint64, sub ws.Conn) {
	time.Sleep(settleDelay)

	locks, err := h.Locks.List(ctx, tripID)
	if err != nil {
		log.Printf("ws: snapshot for trip %d failed: %v", tripID, err)
		return
	}
	locked := make([]ws.LockedSeat, 0, len(locks))
	for _, l := range locks {
		locked = append(locked, ws.LockedSeat{SeatNo: l.SeatNo, UserID: l.HolderID})
	}
	if err := sub.SendJSON(ws.NewInitialState(locked)); err != nil {
		log.Printf("ws: initial state for trip %d failed: %v", tripID, err)
	}
}
