package roomstore

import (
	"context"
	"sync"
	"time"

	"github.com/squadbid/gavel/internal/events"
	"github.com/squadbid/gavel/internal/room"
)

// MemoryStore is an in-process Store with the same versioning and fan-out
// semantics as the Redis store. Used in tests and for single-node runs
// without external infrastructure.
type MemoryStore struct {
	mu     sync.Mutex
	rooms  map[string]room.Room
	subs   map[int]*memorySub
	nextID int
}

type memorySub struct {
	roomID string // empty for all rooms
	h      Handler
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms: make(map[string]room.Room),
		subs:  make(map[int]*memorySub),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Get(ctx context.Context, roomID string) (room.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return room.Room{}, room.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *MemoryStore) CompareAndSet(ctx context.Context, expectedVersion int64, r room.Room) (room.Room, error) {
	s.mu.Lock()
	cur, ok := s.rooms[r.ID]
	var curVersion int64
	if ok {
		curVersion = cur.Version
	}
	if curVersion != expectedVersion {
		s.mu.Unlock()
		return room.Room{}, room.ErrConflict
	}
	r.Version = expectedVersion + 1
	s.rooms[r.ID] = r.Clone()
	s.mu.Unlock()

	s.fanOut(events.TypeRoomUpdated, &r)
	return r, nil
}

func (s *MemoryStore) Delete(ctx context.Context, roomID string) error {
	s.mu.Lock()
	_, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return room.ErrNotFound
	}
	delete(s.rooms, roomID)
	s.mu.Unlock()

	s.fanOut(events.TypeRoomDeleted, &room.Room{ID: roomID})
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]room.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]room.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r.Clone())
	}
	return out, nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, roomID string, h Handler) (func(), error) {
	return s.addSub(roomID, h), nil
}

func (s *MemoryStore) SubscribeAll(ctx context.Context, h Handler) (func(), error) {
	return s.addSub("", h), nil
}

func (s *MemoryStore) addSub(roomID string, h Handler) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = &memorySub{roomID: roomID, h: h}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *MemoryStore) fanOut(typ events.Type, r *room.Room) {
	env := events.Envelope{Type: typ, RoomID: r.ID, At: time.Now().UTC()}
	if typ == events.TypeRoomUpdated {
		snapshot := r.Clone()
		env.Room = &snapshot
	}

	s.mu.Lock()
	handlers := make([]Handler, 0, len(s.subs))
	for _, sub := range s.subs {
		if sub.roomID == "" || sub.roomID == r.ID {
			handlers = append(handlers, sub.h)
		}
	}
	s.mu.Unlock()

	// Deliver synchronously, outside the lock, matching the push fan-out of
	// the real store closely enough for tests.
	for _, h := range handlers {
		h(env)
	}
}
