package lockstore

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyRoundTrip(t *testing.T) {
	key := Key(42, 7)
	assert.Equal(t, "lock:42:7", key)

	tripID, seatNo, ok := ParseKey(key)
	require.True(t, ok)
	assert.Equal(t, uint64(42), tripID)
	assert.Equal(t, uint32(7), seatNo)
}

func TestParseKeyRejectsGarbage(t *testing.T) {
	cases := []string{
		"",
		"lock:",
		"lock:42",
		"lock:42:7:9",
		"lock:abc:7",
		"lock:42:abc",
		"lock:0:7",
		"lock:42:0",
		"rl:ip:127.0.0.1", // rate limiter namespace
		"cache:42:7",
	}
	for _, key := range cases {
		_, _, ok := ParseKey(key)
		assert.False(t, ok, "key %q should not parse", key)
	}
}

func TestAcquireGranted(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := New(rdb, 300*time.Second)

	mock.ExpectEvalSha(acquireLock.Hash(), []string{"lock:1:5"}, "9", int64(300)).SetVal(int64(1))

	err := store.Acquire(context.Background(), 1, 5, 9)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquireOccupied(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := New(rdb, 300*time.Second)

	mock.ExpectEvalSha(acquireLock.Hash(), []string{"lock:1:5"}, "9", int64(300)).SetVal(int64(0))

	err := store.Acquire(context.Background(), 1, 5, 9)
	assert.ErrorIs(t, err, ErrOccupied)
}

func TestReleaseReportsRemoval(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := New(rdb, 300*time.Second)

	mock.ExpectEvalSha(releaseLock.Hash(), []string{"lock:1:5"}, "9").SetVal(int64(1))
	released, err := store.Release(context.Background(), 1, 5, 9)
	require.NoError(t, err)
	assert.True(t, released)

	// A second release is a no-op, not an error.
	mock.ExpectEvalSha(releaseLock.Hash(), []string{"lock:1:5"}, "9").SetVal(int64(0))
	released, err = store.Release(context.Background(), 1, 5, 9)
	require.NoError(t, err)
	assert.False(t, released)
}

func TestGet(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := New(rdb, 300*time.Second)

	mock.ExpectGet("lock:1:5").SetVal("9")
	holder, found, err := store.Get(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint64(9), holder)

	mock.ExpectGet("lock:1:6").RedisNil()
	_, found, err = store.Get(context.Background(), 1, 6)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestListSkipsExpiredAndForeignKeys(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := New(rdb, 300*time.Second)

	mock.ExpectScan(0, "lock:1:*", 100).SetVal([]string{"lock:1:5", "lock:1:6"}, 0)
	mock.ExpectGet("lock:1:5").SetVal("9")
	mock.ExpectGet("lock:1:6").RedisNil() // expired between scan and fetch

	locks, err := store.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, locks, 1)
	assert.Equal(t, SeatLock{SeatNo: 5, HolderID: 9}, locks[0])
}
