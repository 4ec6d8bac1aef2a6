package handler

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/iliyamo/bus-seat-reservation/internal/lockstore"
	"github.com/iliyamo/bus-seat-reservation/internal/ws"
)

func TestSeatUpdatesChannel(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	hub := ws.NewHub()
	h := NewWSHandler(hub, lockstore.New(rdb, 300*time.Second))

	// Seat 5 is locked when the subscriber joins; it must appear in the
	// snapshot.
	redisMock.ExpectScan(0, "lock:1:*", 100).SetVal([]string{"lock:1:5"}, 0)
	redisMock.ExpectGet("lock:1:5").SetVal("9")

	e := echo.New()
	e.GET("/ws/seats/:trip_id", h.SeatUpdates)
	srv := httptest.NewServer(e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/seats/1"
	conn, err := websocket.Dial(wsURL, "", srv.URL)
	require.NoError(t, err)
	defer conn.Close()

	var initial struct {
		Type        string `json:"type"`
		LockedSeats []struct {
			SeatNo uint32 `json:"seat_no"`
			UserID uint64 `json:"user_id"`
		} `json:"locked_seats"`
	}
	require.NoError(t, websocket.JSON.Receive(conn, &initial))
	assert.Equal(t, "INITIAL_STATE", initial.Type)
	require.Len(t, initial.LockedSeats, 1)
	assert.Equal(t, uint32(5), initial.LockedSeats[0].SeatNo)
	assert.Equal(t, uint64(9), initial.LockedSeats[0].UserID)

	// Heartbeat.
	require.NoError(t, websocket.Message.Send(conn, "ping"))
	var pong string
	require.NoError(t, websocket.Message.Receive(conn, &pong))
	assert.Equal(t, "pong", pong)

	// A live event reaches the subscriber through the hub.
	hub.Broadcast(1, ws.NewSeatLocked(6, 7))
	var ev struct {
		Type   string `json:"type"`
		SeatNo uint32 `json:"seat_no"`
		UserID uint64 `json:"user_id"`
	}
	require.NoError(t, websocket.JSON.Receive(conn, &ev))
	assert.Equal(t, "SEAT_LOCKED", ev.Type)
	assert.Equal(t, uint32(6), ev.SeatNo)
	assert.Equal(t, uint64(7), ev.UserID)
}

func TestSeatUpdatesRejectsBadTripID(t *testing.T) {
	rdb, _ := redismock.NewClientMock()
	h := NewWSHandler(ws.NewHub(), lockstore.New(rdb, 300*time.Second))

	e := echo.New()
	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("trip_id")
	c.SetParamValues("abc")

	require.NoError(t, h.SeatUpdates(c))
	assert.Equal(t, 400, rec.Code)
}
