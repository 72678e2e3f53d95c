package auction

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/squadbid/gavel/internal/room"
)

// RoomStore defines what the auction app needs from the room store.
type RoomStore interface {
	Get(ctx context.Context, roomID string) (room.Room, error)
	CompareAndSet(ctx context.Context, expectedVersion int64, r room.Room) (room.Room, error)
	Delete(ctx context.Context, roomID string) error
	List(ctx context.Context) ([]room.Room, error)
}

// App applies auction transitions to stored rooms. Each operation is one
// read, one pure transition and one conditional write; nothing is retried
// here. Callers that receive room.ErrConflict may re-read and retry once.
type App struct {
	store  RoomStore
	engine *Engine
}

// NewApp creates the auction application layer.
func NewApp(store RoomStore, engine *Engine) *App {
	return &App{store: store, engine: engine}
}

// mutate runs one read-modify-write cycle guarded by the document version.
func (a *App) mutate(ctx context.Context, roomID string, fn func(room.Room) (room.Room, error)) (room.Room, error) {
	cur, err := a.store.Get(ctx, roomID)
	if err != nil {
		return room.Room{}, err
	}
	next, err := fn(cur)
	if err != nil {
		return room.Room{}, err
	}
	saved, err := a.store.CompareAndSet(ctx, cur.Version, next)
	if err != nil {
		return room.Room{}, err
	}
	return saved, nil
}

// GetRoom reads the current room document.
func (a *App) GetRoom(ctx context.Context, roomID string) (room.Room, error) {
	return a.store.Get(ctx, roomID)
}

// ListRooms returns every stored room.
func (a *App) ListRooms(ctx context.Context) ([]room.Room, error) {
	return a.store.List(ctx)
}

// StartAuction begins the auction. Host only; all members must be ready with
// a franchise selected.
func (a *App) StartAuction(ctx context.Context, roomID, callerID string) (room.Room, error) {
	saved, err := a.mutate(ctx, roomID, func(r room.Room) (room.Room, error) {
		return a.engine.StartAuction(r, callerID)
	})
	if err != nil {
		return room.Room{}, fmt.Errorf("start auction: %w", err)
	}
	log.Info().
		Str("room_id", roomID).
		Str("phase", string(saved.Phase)).
		Str("lot_id", saved.CurrentLotID).
		Msg("auction started")
	return saved, nil
}

// PlaceBid accepts a bid on the current lot. A bid that lost a concurrent
// race fails the conditional write with room.ErrConflict; after a re-read its
// amount no longer matches and it fails with room.ErrInvalidBid.
func (a *App) PlaceBid(ctx context.Context, roomID, memberID string, amount int) (room.Room, error) {
	saved, err := a.mutate(ctx, roomID, func(r room.Room) (room.Room, error) {
		return a.engine.PlaceBid(r, memberID, amount)
	})
	if err != nil {
		return room.Room{}, fmt.Errorf("place bid: %w", err)
	}
	log.Info().
		Str("room_id", roomID).
		Str("member_id", memberID).
		Str("lot_id", saved.CurrentLotID).
		Int("amount", amount).
		Msg("bid accepted")
	return saved, nil
}

// ResolveTimeout settles the current lot at the zero-crossing. Exactly-once:
// the conditional write lets only the first invocation through, late
// duplicates are no-ops.
func (a *App) ResolveTimeout(ctx context.Context, roomID string) (room.Room, error) {
	cur, err := a.store.Get(ctx, roomID)
	if err != nil {
		return room.Room{}, err
	}
	next, applied, err := a.engine.ResolveTimeout(cur)
	if err != nil {
		return room.Room{}, fmt.Errorf("resolve timeout: %w", err)
	}
	if !applied {
		return cur, nil
	}
	saved, err := a.store.CompareAndSet(ctx, cur.Version, next)
	if err != nil {
		return room.Room{}, fmt.Errorf("resolve timeout: %w", err)
	}
	log.Info().
		Str("room_id", roomID).
		Str("status", string(saved.Status)).
		Str("lot_id", saved.CurrentLotID).
		Msg("lot timeout resolved")
	return saved, nil
}

// ConcedeBid sells the current lot to the highest bidder immediately. The
// caller is the member yielding; the leader cannot concede to themselves.
func (a *App) ConcedeBid(ctx context.Context, roomID, callerID string) (room.Room, error) {
	saved, err := a.mutate(ctx, roomID, func(r room.Room) (room.Room, error) {
		return a.engine.ConcedeBid(r, callerID)
	})
	if err != nil {
		return room.Room{}, fmt.Errorf("concede bid: %w", err)
	}
	log.Info().Str("room_id", roomID).Str("member_id", callerID).Msg("bid conceded, lot sold")
	return saved, nil
}

// MarkUnsold retires the current lot with no buyer. Host only; the timeout
// path resolves no-bid lots on its own.
func (a *App) MarkUnsold(ctx context.Context, roomID, callerID string) (room.Room, error) {
	saved, err := a.mutate(ctx, roomID, func(r room.Room) (room.Room, error) {
		if callerID != r.HostID {
			return r, room.ErrUnauthorized
		}
		return a.engine.MarkUnsold(r)
	})
	if err != nil {
		return room.Room{}, fmt.Errorf("mark unsold: %w", err)
	}
	return saved, nil
}

// SkipLot steps past the current lot without resolving it. Host only.
func (a *App) SkipLot(ctx context.Context, roomID, callerID string) (room.Room, error) {
	saved, err := a.mutate(ctx, roomID, func(r room.Room) (room.Room, error) {
		return a.engine.SkipLot(r, callerID)
	})
	if err != nil {
		return room.Room{}, fmt.Errorf("skip lot: %w", err)
	}
	return saved, nil
}

// ChangePhase jumps to another phase with a fresh shuffle. Host only.
func (a *App) ChangePhase(ctx context.Context, roomID, callerID string, phase room.Phase) (room.Room, error) {
	saved, err := a.mutate(ctx, roomID, func(r room.Room) (room.Room, error) {
		return a.engine.ChangePhase(r, callerID, phase)
	})
	if err != nil {
		return room.Room{}, fmt.Errorf("change phase: %w", err)
	}
	log.Info().Str("room_id", roomID).Str("phase", string(phase)).Msg("phase changed")
	return saved, nil
}

// TogglePause freezes or resumes the countdown. Host only.
func (a *App) TogglePause(ctx context.Context, roomID, callerID string, paused bool) (room.Room, error) {
	saved, err := a.mutate(ctx, roomID, func(r room.Room) (room.Room, error) {
		return a.engine.TogglePause(r, callerID, paused)
	})
	if err != nil {
		return room.Room{}, fmt.Errorf("toggle pause: %w", err)
	}
	log.Info().Str("room_id", roomID).Bool("paused", paused).Msg("pause toggled")
	return saved, nil
}

// SetBidWindow changes the countdown length for subsequent lots. Host only.
func (a *App) SetBidWindow(ctx context.Context, roomID, callerID string, seconds int) (room.Room, error) {
	saved, err := a.mutate(ctx, roomID, func(r room.Room) (room.Room, error) {
		return a.engine.SetBidWindow(r, callerID, seconds)
	})
	if err != nil {
		return room.Room{}, fmt.Errorf("set bid window: %w", err)
	}
	return saved, nil
}

// SetMode switches between traditional and fast progression. Host only.
func (a *App) SetMode(ctx context.Context, roomID, callerID string, mode room.Mode) (room.Room, error) {
	saved, err := a.mutate(ctx, roomID, func(r room.Room) (room.Room, error) {
		return a.engine.SetMode(r, callerID, mode)
	})
	if err != nil {
		return room.Room{}, fmt.Errorf("set mode: %w", err)
	}
	return saved, nil
}

// EndAuction force-completes the auction. Host only.
func (a *App) EndAuction(ctx context.Context, roomID, callerID string) (room.Room, error) {
	saved, err := a.mutate(ctx, roomID, func(r room.Room) (room.Room, error) {
		return a.engine.EndAuction(r, callerID)
	})
	if err != nil {
		return room.Room{}, fmt.Errorf("end auction: %w", err)
	}
	log.Info().Str("room_id", roomID).Msg("auction ended by host")
	return saved, nil
}

// MarkPhaseIntroShown records that a phase's intro banner was displayed.
func (a *App) MarkPhaseIntroShown(ctx context.Context, roomID string, phase room.Phase) (room.Room, error) {
	saved, err := a.mutate(ctx, roomID, func(r room.Room) (room.Room, error) {
		return a.engine.MarkPhaseIntroShown(r, phase)
	})
	if err != nil {
		return room.Room{}, fmt.Errorf("mark phase intro: %w", err)
	}
	return saved, nil
}

// TickTimer applies one advisory countdown decrement. The write is guarded by
// the document version like every other transition; a tick that loses the
// race to a real transition is dropped, never retried. The next tick reads
// the fresh document.
func (a *App) TickTimer(ctx context.Context, roomID string) (room.Room, error) {
	cur, err := a.store.Get(ctx, roomID)
	if err != nil {
		return room.Room{}, err
	}
	next, changed := a.engine.TickTimer(cur)
	if !changed {
		return cur, nil
	}
	saved, err := a.store.CompareAndSet(ctx, cur.Version, next)
	if err != nil {
		if errors.Is(err, room.ErrConflict) {
			return cur, nil
		}
		return room.Room{}, fmt.Errorf("tick timer: %w", err)
	}
	return saved, nil
}
