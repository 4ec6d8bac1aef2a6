package ws

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records every event it receives; failSend makes SendJSON return
// an error so the hub treats the connection as dead.
type fakeConn struct {
	events   []Event
	failSend bool
	closed   bool
}

func (f *fakeConn) SendJSON(v any) error {
	if f.failSend {
		return errors.New("broken pipe")
	}
	f.events = append(f.events, v.(Event))
	return nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func TestBroadcastReachesOnlyTheTripRoom(t *testing.T) {
	hub := NewHub()
	a := &fakeConn{}
	b := &fakeConn{}
	other := &fakeConn{}
	hub.Subscribe(1, a)
	hub.Subscribe(1, b)
	hub.Subscribe(2, other)

	hub.Broadcast(1, NewSeatLocked(5, 9))

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	assert.Empty(t, other.events)

	ev, ok := a.events[0].(SeatLockedEvent)
	require.True(t, ok)
	assert.Equal(t, uint32(5), ev.SeatNo)
	assert.Equal(t, uint64(9), ev.UserID)
}

func TestBroadcastToEmptyRoomIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Broadcast(99, NewSeatExpired(1)) // must not panic
	assert.Equal(t, 0, hub.RoomSize(99))
}

func TestBroadcastDropsDeadConnections(t *testing.T) {
	hub := NewHub()
	healthy := &fakeConn{}
	dead := &fakeConn{failSend: true}
	hub.Subscribe(1, healthy)
	hub.Subscribe(1, dead)

	hub.Broadcast(1, NewSeatLocked(5, 9))

	// The failing connection is removed and closed; the healthy one still
	// receives this and later events.
	assert.Equal(t, 1, hub.RoomSize(1))
	assert.True(t, dead.closed)

	hub.Broadcast(1, NewSeatUnlocked(5, 9))
	assert.Len(t, healthy.events, 2)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}
	hub.Subscribe(1, conn)

	hub.Unsubscribe(1, conn)
	assert.Equal(t, 0, hub.RoomSize(1))

	hub.Unsubscribe(1, conn) // already gone
	hub.Unsubscribe(7, conn) // never subscribed
	assert.Equal(t, 0, hub.RoomSize(1))
}

func TestEventWireFormat(t *testing.T) {
	t.Run("initial state never emits null seats", func(t *testing.T) {
		data, err := json.Marshal(NewInitialState(nil))
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"INITIAL_STATE","locked_seats":[]}`, string(data))
	})

	t.Run("unlock by holder carries the user", func(t *testing.T) {
		data, err := json.Marshal(NewSeatUnlocked(5, 9))
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"SEAT_UNLOCKED","seat_no":5,"user_id":9}`, string(data))
	})

	t.Run("unlock by expiry omits the user", func(t *testing.T) {
		data, err := json.Marshal(NewSeatExpired(5))
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"SEAT_UNLOCKED","seat_no":5}`, string(data))
	})

	t.Run("booked seats keep request order", func(t *testing.T) {
		data, err := json.Marshal(NewSeatBooked([]uint32{3, 1, 2}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"SEAT_BOOKED","seat_numbers":[3,1,2]}`, string(data))
	})
}
