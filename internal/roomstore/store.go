// Package roomstore persists room documents in an external key-value store
// and fans every write out to subscribers. The store is the single
// serialization point for a room: every write compare-and-swaps on the
// document version, so a stale writer can never overwrite a committed
// transition.
package roomstore

import (
	"context"

	"github.com/squadbid/gavel/internal/events"
	"github.com/squadbid/gavel/internal/room"
)

// Handler receives room events from a subscription.
type Handler func(events.Envelope)

// Store is the room document store contract.
type Store interface {
	// Get reads the current room document. Returns room.ErrNotFound when the
	// room does not exist.
	Get(ctx context.Context, roomID string) (room.Room, error)

	// CompareAndSet writes the document only if the stored version still
	// equals expectedVersion. Returns room.ErrConflict when it does not.
	// Creation is expectedVersion == 0.
	CompareAndSet(ctx context.Context, expectedVersion int64, r room.Room) (room.Room, error)

	// Delete removes the room document.
	Delete(ctx context.Context, roomID string) error

	// List returns every stored room document.
	List(ctx context.Context) ([]room.Room, error)

	// Subscribe registers a handler for one room's events. The returned
	// function cancels the subscription.
	Subscribe(ctx context.Context, roomID string, h Handler) (func(), error)

	// SubscribeAll registers a handler for every room's events.
	SubscribeAll(ctx context.Context, h Handler) (func(), error)
}
