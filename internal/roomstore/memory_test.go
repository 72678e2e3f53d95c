package roomstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/squadbid/gavel/internal/events"
	"github.com/squadbid/gavel/internal/room"
)

// seed creates a room at version 1.
func seed(t *testing.T, s *MemoryStore, r room.Room) room.Room {
	t.Helper()
	saved, err := s.CompareAndSet(context.Background(), 0, r)
	require.NoError(t, err)
	return saved
}

func TestMemoryStoreCompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	// Creation is a CAS against version 0.
	saved, err := s.CompareAndSet(ctx, 0, room.Room{ID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Version)

	_, err = s.CompareAndSet(ctx, 0, room.Room{ID: "r1"})
	assert.ErrorIs(t, err, room.ErrConflict)

	saved, err = s.CompareAndSet(ctx, 1, room.Room{ID: "r1", Name: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), saved.Version)

	// A stale writer loses.
	_, err = s.CompareAndSet(ctx, 1, room.Room{ID: "r1", Name: "stale"})
	assert.ErrorIs(t, err, room.ErrConflict)

	got, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, int64(2), got.Version)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, room.ErrNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	seed(t, s, room.Room{ID: "r1"})
	require.NoError(t, s.Delete(ctx, "r1"))
	assert.ErrorIs(t, s.Delete(ctx, "r1"), room.ErrNotFound)
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	seed(t, s, room.Room{
		ID:      "r1",
		Members: map[string]room.GamePlayer{"a": {ID: "a", Budget: 100}},
	})

	got, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	m := got.Members["a"]
	m.Budget = 0
	got.Members["a"] = m

	again, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 100, again.Members["a"].Budget, "mutating a read must not touch the store")
}

func TestMemoryStoreSubscribeFiltersByRoom(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var r1Events, allEvents []events.Envelope
	unsub1, err := s.Subscribe(ctx, "r1", func(env events.Envelope) {
		r1Events = append(r1Events, env)
	})
	require.NoError(t, err)
	defer unsub1()

	unsubAll, err := s.SubscribeAll(ctx, func(env events.Envelope) {
		allEvents = append(allEvents, env)
	})
	require.NoError(t, err)
	defer unsubAll()

	seed(t, s, room.Room{ID: "r1"})
	seed(t, s, room.Room{ID: "r2"})
	require.NoError(t, s.Delete(ctx, "r1"))

	require.Len(t, r1Events, 2)
	assert.Equal(t, events.TypeRoomUpdated, r1Events[0].Type)
	require.NotNil(t, r1Events[0].Room)
	assert.Equal(t, int64(1), r1Events[0].Room.Version)
	assert.Equal(t, events.TypeRoomDeleted, r1Events[1].Type)

	assert.Len(t, allEvents, 3)
}

func TestMemoryStoreUnsubscribeStopsDelivery(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	count := 0
	unsub, err := s.SubscribeAll(ctx, func(events.Envelope) { count++ })
	require.NoError(t, err)

	seed(t, s, room.Room{ID: "r1"})
	unsub()
	_, err = s.CompareAndSet(ctx, 1, room.Room{ID: "r1"})
	require.NoError(t, err)

	assert.Equal(t, 1, count)
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	seed(t, s, room.Room{ID: "r1"})
	seed(t, s, room.Room{ID: "r2"})

	rooms, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
}
