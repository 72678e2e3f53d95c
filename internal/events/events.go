// Package events defines the payloads fanned out to room subscribers on
// every store write.
package events

import (
	"time"

	"github.com/squadbid/gavel/internal/room"
)

// Type discriminates room event envelopes.
type Type string

const (
	TypeRoomUpdated Type = "RoomUpdated"
	TypeRoomDeleted Type = "RoomDeleted"
)

// Envelope carries one room event. Updates always embed the full room
// document: snapshots are idempotent, so subscribers that miss an event
// converge on the next one.
type Envelope struct {
	Type   Type       `json:"type"`
	RoomID string     `json:"room_id"`
	Room   *room.Room `json:"room,omitempty"`
	At     time.Time  `json:"at"`
}

// SubjectPrefix is the NATS subject namespace for room events.
const SubjectPrefix = "room.events."

// SubjectAll matches every room's event subject.
const SubjectAll = SubjectPrefix + ">"

// Subject returns the per-room event subject.
func Subject(roomID string) string {
	return SubjectPrefix + roomID
}
