// Package auction owns the room lifecycle: lot progression, bid acceptance,
// timeout resolution, phase transitions and final standings. Every transition
// is a pure function (Room in, Room out) so the application layer can apply
// it with a compare-and-swap against the room store.
package auction

import (
	"math/rand/v2"

	"github.com/squadbid/gavel/internal/catalog"
	"github.com/squadbid/gavel/internal/room"
	"github.com/squadbid/gavel/internal/schedule"
)

// Engine evaluates auction transitions against a fixed catalog and phase
// plan. The RNG is injected so lot ordering is reproducible in tests.
type Engine struct {
	plan schedule.Plan
	lots []catalog.Lot
	rng  *rand.Rand
}

// NewEngine creates an engine for the given phase plan and catalog.
func NewEngine(plan schedule.Plan, lots []catalog.Lot, rng *rand.Rand) *Engine {
	return &Engine{plan: plan, lots: lots, rng: rng}
}

// StartAuction transitions the room into the Auction status: shuffles every
// phase's lot order, opens the first available lot and arms the countdown.
// Host only; every member must be ready with a franchise selected.
func (e *Engine) StartAuction(r room.Room, callerID string) (room.Room, error) {
	if callerID != r.HostID {
		return r, room.ErrUnauthorized
	}
	if r.Status != room.StatusWaiting && r.Status != room.StatusTeamSelection {
		return r, room.ErrInvalidState
	}
	if len(r.Members) == 0 {
		return r, room.ErrInvalidState
	}
	for _, m := range r.Members {
		if !m.Ready || m.FranchiseID == "" {
			return r, room.ErrInvalidState
		}
	}

	next := r.Clone()
	next.Status = room.StatusAuction
	if next.Mode == "" {
		next.Mode = room.ModeTraditional
	}
	if next.BidWindowSeconds <= 0 {
		next.BidWindowSeconds = room.DefaultBidWindowSeconds
	}
	next.PhaseOrder = schedule.BuildOrder(e.lots, e.plan, e.rng)
	next.SoldLots = make(map[string]room.Sale)
	next.UnsoldLotIDs = make(map[string]bool)
	next.PhaseIntroShown = make(map[room.Phase]bool)
	next.HighestBidderID = ""
	next.BiddingWar = nil

	first, ok := e.plan.First()
	if !ok {
		return r, room.ErrInvalidState
	}
	next.Phase = first
	next.LotCursor = 0
	if !e.openLotAt(&next, first, 0) {
		// Opening phase may be empty; walk forward to the first phase with
		// material, completing immediately if the whole plan is empty.
		e.advancePhase(&next)
	}
	return next, nil
}

// increment is the banded bid step: bids below 100 move in 5s, below 200 in
// 10s, below 500 in 20s, and 25s from 500 up. Band bounds are strict lower
// bounds, so increment(500) is 25.
func increment(currentBid int) int {
	switch {
	case currentBid < 100:
		return 5
	case currentBid < 200:
		return 10
	case currentBid < 500:
		return 20
	default:
		return 25
	}
}

// ExpectedBid returns the only amount the engine will accept next: the base
// price when the lot is uncontested, otherwise the current bid plus its band
// increment.
func ExpectedBid(r *room.Room) (int, bool) {
	lot, ok := r.CurrentLot()
	if !ok {
		return 0, false
	}
	if r.HighestBidderID == "" {
		return lot.BasePrice, true
	}
	return r.CurrentBid + increment(r.CurrentBid), true
}

// PlaceBid validates and accepts a bid on the current lot. The highest bidder
// cannot raise against themselves; the offered amount must match ExpectedBid
// exactly, which also rejects bids that lost a race (their expectation is
// stale by the time they are applied).
func (e *Engine) PlaceBid(r room.Room, memberID string, amount int) (room.Room, error) {
	if r.Status != room.StatusAuction || r.Paused {
		return r, room.ErrInvalidState
	}
	lot, ok := r.CurrentLot()
	if !ok {
		return r, room.ErrInvalidState
	}
	member, ok := r.Member(memberID)
	if !ok {
		return r, room.ErrNotFound
	}
	if memberID == r.HighestBidderID {
		return r, room.ErrConsecutiveBid
	}
	expected, _ := ExpectedBid(&r)
	if amount != expected {
		return r, room.ErrInvalidBid
	}
	if member.Budget < amount {
		return r, room.ErrInsufficientBudget
	}

	next := r.Clone()
	previousLeader := next.HighestBidderID
	next.CurrentBid = amount
	next.HighestBidderID = memberID
	next.TimeRemaining = next.BidWindowSeconds
	next.BiddingWar = nil
	if previousLeader != "" {
		prev, okPrev := next.Member(previousLeader)
		if okPrev {
			next.BiddingWar = &room.BiddingWar{
				Leader:     member.Name,
				Challenger: prev.Name,
				LotName:    lot.Name,
			}
		}
	}
	return next, nil
}

// ResolveTimeout settles the current lot when the countdown hits zero: a sale
// to the highest bidder if there is one, unsold otherwise. Returns applied ==
// false when the room is not actually at a zero-crossing (a late duplicate
// invocation after the lot already advanced); concurrent duplicates are
// instead rejected by the store's conditional write.
func (e *Engine) ResolveTimeout(r room.Room) (room.Room, bool, error) {
	if r.Status != room.StatusAuction || r.Paused || r.CurrentLotID == "" {
		return r, false, nil
	}
	if r.TimeRemaining != 0 {
		return r, false, nil
	}
	if r.HighestBidderID != "" {
		next, err := e.SellCurrentLot(r, r.HighestBidderID, r.CurrentBid)
		return next, err == nil, err
	}
	next, err := e.MarkUnsold(r)
	return next, err == nil, err
}

// SellCurrentLot commits the sale of the current lot to buyer at price, then
// advances to the next lot (or phase, or completion). Budget is re-validated
// here: time may have passed since the bid was accepted.
func (e *Engine) SellCurrentLot(r room.Room, buyerID string, price int) (room.Room, error) {
	if r.Status != room.StatusAuction {
		return r, room.ErrInvalidState
	}
	lot, ok := r.CurrentLot()
	if !ok {
		return r, room.ErrInvalidState
	}
	buyer, ok := r.Member(buyerID)
	if !ok {
		return r, room.ErrNotFound
	}
	if buyer.FranchiseID == "" {
		return r, room.ErrInvalidState
	}
	if buyer.Budget < price {
		return r, room.ErrInsufficientBudget
	}

	next := r.Clone()
	member := next.Members[buyerID]
	member.Budget -= price
	if member.Acquired == nil {
		member.Acquired = make(map[string]room.Purchase)
	}
	member.Acquired[lot.ID] = room.Purchase{LotID: lot.ID, Price: price}
	next.Members[buyerID] = member
	next.SoldLots[lot.ID] = room.Sale{
		LotID:       lot.ID,
		Price:       price,
		BuyerID:     buyerID,
		FranchiseID: member.FranchiseID,
	}

	e.advance(&next)
	return next, nil
}

// ConcedeBid short-circuits the countdown: a trailing member yields and the
// lot sells immediately to the current highest bidder. The leader cannot
// concede their own winning bid into an instant purchase.
func (e *Engine) ConcedeBid(r room.Room, callerID string) (room.Room, error) {
	if r.Status != room.StatusAuction || r.HighestBidderID == "" {
		return r, room.ErrInvalidState
	}
	if _, ok := r.Member(callerID); !ok {
		return r, room.ErrNotFound
	}
	if callerID == r.HighestBidderID {
		return r, room.ErrInvalidState
	}
	return e.SellCurrentLot(r, r.HighestBidderID, r.CurrentBid)
}

// MarkUnsold retires the current lot with no buyer and advances. Only an
// uncontested lot can go unsold; a lot with a leading bid resolves as a sale.
func (e *Engine) MarkUnsold(r room.Room) (room.Room, error) {
	if r.Status != room.StatusAuction || r.CurrentLotID == "" {
		return r, room.ErrInvalidState
	}
	if r.HighestBidderID != "" {
		return r, room.ErrInvalidState
	}

	next := r.Clone()
	next.UnsoldLotIDs[next.CurrentLotID] = true
	e.advance(&next)
	return next, nil
}

// SkipLot moves past the current lot without resolving it; the lot stays in
// the pool and comes around again on a later pass of the phase. Host only.
func (e *Engine) SkipLot(r room.Room, callerID string) (room.Room, error) {
	if callerID != r.HostID {
		return r, room.ErrUnauthorized
	}
	if r.Status != room.StatusAuction || r.CurrentLotID == "" {
		return r, room.ErrInvalidState
	}

	next := r.Clone()
	if next.Mode == room.ModeFast {
		if id, ok := schedule.RandomAvailable(&next, e.rng); ok {
			next.LotCursor++
			e.openLot(&next, id)
		}
		return next, nil
	}

	// The skipped lot is still "available", so it sits at the current cursor;
	// step over it.
	if e.openLotAt(&next, next.Phase, next.LotCursor+1) {
		next.LotCursor++
		return next, nil
	}
	// Cursor ran off the end: reshuffle the remaining pool (skipped lot
	// included) and start a fresh pass.
	next.PhaseOrder[next.Phase] = schedule.ReshuffleAvailable(&next, next.Phase, e.rng)
	next.LotCursor = 0
	e.openLotAt(&next, next.Phase, 0)
	return next, nil
}

// ChangePhase jumps the auction to the given phase, reshuffling that phase's
// still-available lots so order cannot be predicted from an earlier pass.
// Host only.
func (e *Engine) ChangePhase(r room.Room, callerID string, phase room.Phase) (room.Room, error) {
	if callerID != r.HostID {
		return r, room.ErrUnauthorized
	}
	if r.Status != room.StatusAuction {
		return r, room.ErrInvalidState
	}
	if !e.plan.Contains(phase) {
		return r, room.ErrNotFound
	}

	next := r.Clone()
	reshuffled := schedule.ReshuffleAvailable(&next, phase, e.rng)
	if len(reshuffled) == 0 {
		return r, room.ErrInvalidState
	}
	next.PhaseOrder[phase] = reshuffled
	next.Phase = phase
	next.LotCursor = 0
	e.openLotAt(&next, phase, 0)
	return next, nil
}

// TogglePause freezes or resumes the countdown. Host only. Bids and timeout
// resolution both check the paused flag on the post-transition document, so a
// racing tick cannot bypass the pause.
func (e *Engine) TogglePause(r room.Room, callerID string, paused bool) (room.Room, error) {
	if callerID != r.HostID {
		return r, room.ErrUnauthorized
	}
	if r.Status != room.StatusAuction {
		return r, room.ErrInvalidState
	}
	next := r.Clone()
	next.Paused = paused
	return next, nil
}

// SetBidWindow changes the countdown length for subsequent lots. The
// in-flight countdown is left untouched. Host only.
func (e *Engine) SetBidWindow(r room.Room, callerID string, seconds int) (room.Room, error) {
	if callerID != r.HostID {
		return r, room.ErrUnauthorized
	}
	if seconds < room.MinBidWindowSeconds || seconds > room.MaxBidWindowSeconds {
		return r, room.ErrInvalidState
	}
	next := r.Clone()
	next.BidWindowSeconds = seconds
	return next, nil
}

// SetMode switches between traditional and fast progression. Host only.
func (e *Engine) SetMode(r room.Room, callerID string, mode room.Mode) (room.Room, error) {
	if callerID != r.HostID {
		return r, room.ErrUnauthorized
	}
	if mode != room.ModeTraditional && mode != room.ModeFast {
		return r, room.ErrInvalidState
	}
	if r.Status == room.StatusCompleted || r.Status == room.StatusClosed {
		return r, room.ErrInvalidState
	}
	next := r.Clone()
	next.Mode = mode
	return next, nil
}

// EndAuction force-completes the auction from current member state, remaining
// lots notwithstanding. Host only.
func (e *Engine) EndAuction(r room.Room, callerID string) (room.Room, error) {
	if callerID != r.HostID {
		return r, room.ErrUnauthorized
	}
	if r.Status != room.StatusAuction {
		return r, room.ErrInvalidState
	}
	next := r.Clone()
	e.complete(&next)
	return next, nil
}

// MarkPhaseIntroShown records that the one-time "round starting" banner for a
// phase has been displayed.
func (e *Engine) MarkPhaseIntroShown(r room.Room, phase room.Phase) (room.Room, error) {
	if r.Status != room.StatusAuction {
		return r, room.ErrInvalidState
	}
	next := r.Clone()
	if next.PhaseIntroShown == nil {
		next.PhaseIntroShown = make(map[room.Phase]bool)
	}
	next.PhaseIntroShown[phase] = true
	return next, nil
}

// TickTimer decrements the countdown by one second. Advisory only: a tick
// whose write loses to a concurrent transition is dropped by the caller, and
// the zero value is never crossed here. Resolution is ResolveTimeout's job.
func (e *Engine) TickTimer(r room.Room) (room.Room, bool) {
	if r.Status != room.StatusAuction || r.Paused || r.CurrentLotID == "" {
		return r, false
	}
	if r.TimeRemaining <= 0 {
		return r, false
	}
	next := r.Clone()
	next.TimeRemaining--
	return next, true
}

// advance moves the room to the next lot after a sale or no-sale, crossing
// into the next phase when the current one is exhausted and completing the
// auction when the whole plan is.
func (e *Engine) advance(r *room.Room) {
	if r.Mode == room.ModeFast {
		if id, ok := schedule.RandomAvailable(r, e.rng); ok {
			r.LotCursor++
			e.openLot(r, id)
			return
		}
		e.complete(r)
		return
	}

	// The resolved lot just left the filtered view, so the same cursor now
	// points at what used to be the next lot.
	if e.openLotAt(r, r.Phase, r.LotCursor) {
		return
	}
	// Cursor ran off the end of the pass. Skipped lots may still be pending;
	// they get a fresh shuffled pass before the phase is considered done.
	if remaining := schedule.ReshuffleAvailable(r, r.Phase, e.rng); len(remaining) > 0 {
		r.PhaseOrder[r.Phase] = remaining
		r.LotCursor = 0
		e.openLotAt(r, r.Phase, 0)
		return
	}
	e.advancePhase(r)
}

// advancePhase walks the plan forward from the room's phase until it finds a
// phase with available lots, completing the auction if none remains.
func (e *Engine) advancePhase(r *room.Room) {
	phase := r.Phase
	for {
		nextPhase, ok := e.plan.Next(phase)
		if !ok {
			e.complete(r)
			return
		}
		phase = nextPhase
		if e.openLotAt(r, phase, 0) {
			r.Phase = phase
			r.LotCursor = 0
			return
		}
	}
}

// openLotAt opens the lot at cursor within the phase's filtered order.
func (e *Engine) openLotAt(r *room.Room, phase room.Phase, cursor int) bool {
	id, ok := schedule.NextAvailable(r, phase, cursor)
	if !ok {
		return false
	}
	e.openLot(r, id)
	return true
}

// openLot resets per-lot bid state and arms the countdown for a fresh lot.
func (e *Engine) openLot(r *room.Room, lotID string) {
	lot, _ := catalog.LotByID(lotID)
	r.CurrentLotID = lotID
	r.CurrentBid = lot.BasePrice
	r.HighestBidderID = ""
	r.TimeRemaining = r.BidWindowSeconds
	r.BiddingWar = nil
}

// complete moves the room to Completed and freezes the leaderboard.
func (e *Engine) complete(r *room.Room) {
	r.Status = room.StatusCompleted
	r.CurrentLotID = ""
	r.CurrentBid = 0
	r.HighestBidderID = ""
	r.TimeRemaining = 0
	r.BiddingWar = nil
	r.FinalStandings = ComputeFinalStandings(r)
}
