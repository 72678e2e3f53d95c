package roomstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/squadbid/gavel/internal/events"
	"github.com/squadbid/gavel/internal/room"
)

// RedisStore keeps each room as a Redis hash ({doc, ver}) and publishes every
// write to NATS. The ver field is the optimistic-concurrency authority; the
// version embedded in the JSON document mirrors it for readers.
type RedisStore struct {
	rdb *redis.Client
	nc  *nats.Conn
}

const keyPrefix = "room:"

// casScript writes only when the stored version matches ARGV[1].
var casScript = redis.NewScript(`
local ver = tonumber(redis.call('HGET', KEYS[1], 'ver') or '0')
if ver ~= tonumber(ARGV[1]) then
	return -1
end
redis.call('HSET', KEYS[1], 'doc', ARGV[2], 'ver', ver + 1)
return ver + 1
`)

// NewRedisStore creates a store backed by the given Redis client and NATS
// connection.
func NewRedisStore(rdb *redis.Client, nc *nats.Conn) *RedisStore {
	return &RedisStore{rdb: rdb, nc: nc}
}

var _ Store = (*RedisStore)(nil)

func key(roomID string) string {
	return keyPrefix + roomID
}

func (s *RedisStore) Get(ctx context.Context, roomID string) (room.Room, error) {
	vals, err := s.rdb.HMGet(ctx, key(roomID), "doc", "ver").Result()
	if err != nil {
		return room.Room{}, fmt.Errorf("redis get room %s: %w", roomID, err)
	}
	doc, ok := vals[0].(string)
	if !ok || doc == "" {
		return room.Room{}, room.ErrNotFound
	}

	var r room.Room
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return room.Room{}, fmt.Errorf("decode room %s: %w", roomID, err)
	}
	verStr, ok := vals[1].(string)
	if !ok {
		return room.Room{}, fmt.Errorf("room %s: missing version field", roomID)
	}
	ver, err := parseVersion(verStr)
	if err != nil {
		return room.Room{}, fmt.Errorf("room %s: %w", roomID, err)
	}
	r.Version = ver
	return r, nil
}

// parseVersion decodes the ver hash field. A corrupt field is an error, never
// a silent version 0: treating it as 0 would let a stale CAS through.
func parseVersion(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad version %q: %w", s, err)
	}
	return v, nil
}

func (s *RedisStore) CompareAndSet(ctx context.Context, expectedVersion int64, r room.Room) (room.Room, error) {
	r.Version = expectedVersion + 1
	data, err := json.Marshal(&r)
	if err != nil {
		return room.Room{}, fmt.Errorf("encode room %s: %w", r.ID, err)
	}

	ver, err := casScript.Run(ctx, s.rdb, []string{key(r.ID)}, expectedVersion, data).Int64()
	if err != nil {
		return room.Room{}, fmt.Errorf("redis cas room %s: %w", r.ID, err)
	}
	if ver < 0 {
		return room.Room{}, room.ErrConflict
	}
	r.Version = ver
	s.publish(events.TypeRoomUpdated, &r)
	return r, nil
}

func (s *RedisStore) Delete(ctx context.Context, roomID string) error {
	n, err := s.rdb.Del(ctx, key(roomID)).Result()
	if err != nil {
		return fmt.Errorf("redis delete room %s: %w", roomID, err)
	}
	if n == 0 {
		return room.ErrNotFound
	}
	s.publish(events.TypeRoomDeleted, &room.Room{ID: roomID})
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]room.Room, error) {
	var rooms []room.Room
	iter := s.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		id := iter.Val()[len(keyPrefix):]
		r, err := s.Get(ctx, id)
		if err == room.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan rooms: %w", err)
	}
	return rooms, nil
}

func (s *RedisStore) Subscribe(ctx context.Context, roomID string, h Handler) (func(), error) {
	return s.subscribe(events.Subject(roomID), h)
}

func (s *RedisStore) SubscribeAll(ctx context.Context, h Handler) (func(), error) {
	return s.subscribe(events.SubjectAll, h)
}

func (s *RedisStore) subscribe(subject string, h Handler) (func(), error) {
	sub, err := s.nc.Subscribe(subject, func(msg *nats.Msg) {
		var env events.Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			log.Error().Err(err).Str("subject", msg.Subject).Msg("bad room event payload")
			return
		}
		h(env)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return func() {
		if err := sub.Unsubscribe(); err != nil {
			log.Warn().Err(err).Str("subject", subject).Msg("unsubscribe failed")
		}
	}, nil
}

// publish fans the write out to subscribers. Best-effort: a missed event is
// repaired by the next full-document snapshot.
func (s *RedisStore) publish(typ events.Type, r *room.Room) {
	env := events.Envelope{Type: typ, RoomID: r.ID, At: time.Now().UTC()}
	if typ == events.TypeRoomUpdated {
		env.Room = r
	}
	data, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("room_id", r.ID).Msg("encode room event")
		return
	}
	if err := s.nc.Publish(events.Subject(r.ID), data); err != nil {
		log.Error().Err(err).Str("room_id", r.ID).Msg("publish room event")
	}
}
