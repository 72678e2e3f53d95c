package auction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/squadbid/gavel/internal/catalog"
	"github.com/squadbid/gavel/internal/room"
)

// Room membership operations. These follow the same read-modify-CAS contract
// as the auction transitions.

// CreateRoom creates a room with the caller as host and first member.
func (a *App) CreateRoom(ctx context.Context, name, hostID, hostName string) (room.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" || hostID == "" {
		return room.Room{}, room.ErrInvalidState
	}

	now := time.Now().UTC()
	r := room.Room{
		ID:         uuid.NewString(),
		Name:       name,
		HostID:     hostID,
		MaxMembers: room.DefaultMaxMembers,
		Status:     room.StatusWaiting,
		Mode:       room.ModeTraditional,
		Members: map[string]room.GamePlayer{
			hostID: newMember(hostID, hostName, room.DefaultAllowance, now),
		},
		BidWindowSeconds: room.DefaultBidWindowSeconds,
		InitialAllowance: room.DefaultAllowance,
		CreatedAt:        now,
	}

	saved, err := a.store.CompareAndSet(ctx, 0, r)
	if err != nil {
		return room.Room{}, fmt.Errorf("create room: %w", err)
	}
	log.Info().Str("room_id", saved.ID).Str("host_id", hostID).Msg("room created")
	return saved, nil
}

// JoinRoom adds a member to a room that has not started its auction yet.
func (a *App) JoinRoom(ctx context.Context, roomID, memberID, memberName string) (room.Room, error) {
	saved, err := a.mutate(ctx, roomID, func(r room.Room) (room.Room, error) {
		if r.Status != room.StatusWaiting && r.Status != room.StatusTeamSelection {
			return r, room.ErrInvalidState
		}
		if _, exists := r.Members[memberID]; exists {
			return r, room.ErrInvalidState
		}
		if len(r.Members) >= r.MaxMembers {
			return r, room.ErrInvalidState
		}
		next := r.Clone()
		next.Members[memberID] = newMember(memberID, memberName, r.InitialAllowance, time.Now().UTC())
		return next, nil
	})
	if err != nil {
		return room.Room{}, fmt.Errorf("join room: %w", err)
	}
	log.Info().Str("room_id", roomID).Str("member_id", memberID).Msg("member joined")
	return saved, nil
}

// LeaveRoom removes a member. An emptied room is deleted outright.
func (a *App) LeaveRoom(ctx context.Context, roomID, memberID string) error {
	saved, err := a.mutate(ctx, roomID, func(r room.Room) (room.Room, error) {
		if _, exists := r.Members[memberID]; !exists {
			return r, room.ErrNotFound
		}
		next := r.Clone()
		delete(next.Members, memberID)
		return next, nil
	})
	if err != nil {
		return fmt.Errorf("leave room: %w", err)
	}
	log.Info().Str("room_id", roomID).Str("member_id", memberID).Msg("member left")

	if len(saved.Members) == 0 {
		if err := a.store.Delete(ctx, roomID); err != nil && err != room.ErrNotFound {
			return fmt.Errorf("delete emptied room: %w", err)
		}
	}
	return nil
}

// BeginTeamSelection moves the room from Waiting to TeamSelection. Host only.
func (a *App) BeginTeamSelection(ctx context.Context, roomID, callerID string) (room.Room, error) {
	saved, err := a.mutate(ctx, roomID, func(r room.Room) (room.Room, error) {
		if callerID != r.HostID {
			return r, room.ErrUnauthorized
		}
		if r.Status != room.StatusWaiting {
			return r, room.ErrInvalidState
		}
		next := r.Clone()
		next.Status = room.StatusTeamSelection
		return next, nil
	})
	if err != nil {
		return room.Room{}, fmt.Errorf("begin team selection: %w", err)
	}
	return saved, nil
}

// SelectFranchise assigns an unclaimed franchise to the member and marks them
// ready.
func (a *App) SelectFranchise(ctx context.Context, roomID, memberID, franchiseID string) (room.Room, error) {
	saved, err := a.mutate(ctx, roomID, func(r room.Room) (room.Room, error) {
		if r.Status != room.StatusWaiting && r.Status != room.StatusTeamSelection {
			return r, room.ErrInvalidState
		}
		member, ok := r.Members[memberID]
		if !ok {
			return r, room.ErrNotFound
		}
		if _, ok := catalog.FranchiseByID(franchiseID); !ok {
			return r, room.ErrNotFound
		}
		for id, other := range r.Members {
			if id != memberID && other.FranchiseID == franchiseID {
				return r, room.ErrInvalidState
			}
		}
		next := r.Clone()
		member.FranchiseID = franchiseID
		member.Ready = true
		next.Members[memberID] = member
		return next, nil
	})
	if err != nil {
		return room.Room{}, fmt.Errorf("select franchise: %w", err)
	}
	log.Info().
		Str("room_id", roomID).
		Str("member_id", memberID).
		Str("franchise_id", franchiseID).
		Msg("franchise selected")
	return saved, nil
}

// DeleteRoom removes the room entirely. Host only.
func (a *App) DeleteRoom(ctx context.Context, roomID, callerID string) error {
	r, err := a.store.Get(ctx, roomID)
	if err != nil {
		return err
	}
	if callerID != r.HostID {
		return room.ErrUnauthorized
	}
	if err := a.store.Delete(ctx, roomID); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	log.Info().Str("room_id", roomID).Msg("room deleted")
	return nil
}

// ClearCompletedRoomData deletes a room once its auction has completed. Host
// only.
func (a *App) ClearCompletedRoomData(ctx context.Context, roomID, callerID string) error {
	r, err := a.store.Get(ctx, roomID)
	if err != nil {
		return err
	}
	if callerID != r.HostID {
		return room.ErrUnauthorized
	}
	if r.Status != room.StatusCompleted {
		return room.ErrInvalidState
	}
	if err := a.store.Delete(ctx, roomID); err != nil {
		return fmt.Errorf("clear room data: %w", err)
	}
	log.Info().Str("room_id", roomID).Msg("completed room data cleared")
	return nil
}

func newMember(id, name string, allowance int, joinedAt time.Time) room.GamePlayer {
	return room.GamePlayer{
		ID:       id,
		Name:     name,
		Budget:   allowance,
		Acquired: make(map[string]room.Purchase),
		JoinedAt: joinedAt,
	}
}
