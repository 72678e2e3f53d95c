// Package timerd runs the cooperative per-client countdown. Every connected
// client drives its own ticker against the shared room document, so ticks are
// advisory: a tick that loses its conditional write to a real transition is
// simply dropped. Only the zero-crossing resolution needs exactly-once
// semantics, which the same conditional write provides: the first client to
// observe zero wins, all others lose and re-read.
package timerd

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/squadbid/gavel/internal/room"
)

// Intents is what the driver needs from the auction app.
type Intents interface {
	TickTimer(ctx context.Context, roomID string) (room.Room, error)
	ResolveTimeout(ctx context.Context, roomID string) (room.Room, error)
	MarkPhaseIntroShown(ctx context.Context, roomID string, phase room.Phase) (room.Room, error)
}

// DefaultOverlayDuration is how long sale/no-sale and phase banners suppress
// the countdown on this client.
const DefaultOverlayDuration = 3 * time.Second

// Driver is one client's countdown loop. Feed it room snapshots with Observe
// and run it with Run; it decrements the shared countdown once per second and
// fires timeout resolution at zero, unless a client-local suppression state
// (pause, overlay, phase banner, completion) is active.
type Driver struct {
	roomID  string
	app     Intents
	clock   clockwork.Clock
	overlay time.Duration

	mu              sync.Mutex
	latest          room.Room
	haveDoc         bool
	holdUntil       time.Time
	introDeadline   time.Time
	resolvedVersion int64

	seenSold   int
	seenUnsold int
	seenPhase  room.Phase
}

// New creates a driver for one room subscription.
func New(roomID string, app Intents, clock clockwork.Clock, overlay time.Duration) *Driver {
	if overlay <= 0 {
		overlay = DefaultOverlayDuration
	}
	return &Driver{roomID: roomID, app: app, clock: clock, overlay: overlay}
}

// Observe ingests the latest room snapshot. Transitions that the UI covers
// with an overlay (a lot resolving, a phase starting) open a local
// suppression window; these are client-local states, never persisted fields.
func (d *Driver) Observe(r room.Room) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.haveDoc {
		if len(r.SoldLots) > d.seenSold || len(r.UnsoldLotIDs) > d.seenUnsold {
			d.holdUntil = d.clock.Now().Add(d.overlay)
		}
		if r.Phase != d.seenPhase && r.Status == room.StatusAuction {
			d.holdUntil = d.clock.Now().Add(d.overlay)
		}
	}

	// An unacknowledged phase intro means this client is showing the "round
	// starting" banner; schedule its acknowledgement.
	if r.Status == room.StatusAuction && r.Phase != "" && !r.PhaseIntroShown[r.Phase] {
		if !d.haveDoc || r.Phase != d.seenPhase || d.introDeadline.IsZero() {
			d.introDeadline = d.clock.Now().Add(d.overlay)
		}
	} else {
		d.introDeadline = time.Time{}
	}

	d.latest = r
	d.haveDoc = true
	d.seenSold = len(r.SoldLots)
	d.seenUnsold = len(r.UnsoldLotIDs)
	d.seenPhase = r.Phase
}

// Run ticks once per second until the context is done or the room completes.
func (d *Driver) Run(ctx context.Context) {
	ticker := d.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if done := d.step(ctx); done {
				return
			}
		}
	}
}

// step evaluates one tick. Returns true when the driver has nothing left to
// do for this room.
func (d *Driver) step(ctx context.Context) bool {
	d.mu.Lock()
	if !d.haveDoc {
		d.mu.Unlock()
		return false
	}
	r := d.latest
	suppressed := d.suppressedLocked()
	alreadyResolved := d.resolvedVersion == r.Version
	introDue := !d.introDeadline.IsZero() && !d.clock.Now().Before(d.introDeadline)
	d.mu.Unlock()

	if r.Status == room.StatusCompleted || r.Status == room.StatusClosed {
		return true
	}
	if introDue {
		// Banner has run its course on this client; acknowledge it. Losing
		// the write race to another client is fine, the map entry is the
		// same either way.
		if _, err := d.app.MarkPhaseIntroShown(ctx, d.roomID, r.Phase); err != nil && !errors.Is(err, room.ErrConflict) {
			log.Warn().Err(err).Str("room_id", d.roomID).Msg("phase intro ack failed")
		}
		d.mu.Lock()
		d.introDeadline = time.Time{}
		d.mu.Unlock()
		return false
	}
	if r.Status != room.StatusAuction || r.CurrentLotID == "" || suppressed {
		return false
	}

	if r.TimeRemaining > 0 {
		if _, err := d.app.TickTimer(ctx, d.roomID); err != nil {
			log.Warn().Err(err).Str("room_id", d.roomID).Msg("timer tick failed")
		}
		return false
	}

	if alreadyResolved {
		// This driver already fired for this document revision; wait for the
		// store to fan out the post-resolution state.
		return false
	}
	d.mu.Lock()
	d.resolvedVersion = r.Version
	d.mu.Unlock()

	if _, err := d.app.ResolveTimeout(ctx, d.roomID); err != nil {
		if errors.Is(err, room.ErrConflict) {
			// Another client won the zero-crossing. Expected.
			log.Debug().Str("room_id", d.roomID).Msg("timeout already resolved elsewhere")
			return false
		}
		log.Warn().Err(err).Str("room_id", d.roomID).Msg("timeout resolution failed")
	}
	return false
}

// suppressedLocked reports whether the countdown must not advance right now:
// room paused, or an overlay/banner window is open on this client.
func (d *Driver) suppressedLocked() bool {
	if d.latest.Paused {
		return true
	}
	if d.clock.Now().Before(d.holdUntil) {
		return true
	}
	// A phase whose intro banner has not been acknowledged yet is still
	// showing its "round starting" transition.
	if d.latest.Status == room.StatusAuction && d.latest.Phase != "" &&
		!d.latest.PhaseIntroShown[d.latest.Phase] {
		return true
	}
	return false
}
