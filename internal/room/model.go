package room

import (
	"time"

	"github.com/squadbid/gavel/internal/catalog"
)

// Room defaults and bounds.
const (
	DefaultAllowance        = 12000 // lakhs, per member
	DefaultBidWindowSeconds = 15
	DefaultMaxMembers       = 15
	MinBidWindowSeconds     = 5
	MaxBidWindowSeconds     = 120
)

// Status is the room lifecycle. The lifecycle is linear: terminal states are
// Completed and Closed, and there are no cycles back to earlier states.
type Status string

const (
	StatusWaiting       Status = "WAITING"
	StatusTeamSelection Status = "TEAM_SELECTION"
	StatusAuction       Status = "AUCTION"
	StatusCompleted     Status = "COMPLETED"
	StatusClosed        Status = "CLOSED"
)

// Mode selects lot progression. Traditional walks the phase plan in order;
// fast ignores phase ordering and draws the next lot at random from whatever
// is still available.
type Mode string

const (
	ModeTraditional Mode = "TRADITIONAL"
	ModeFast        Mode = "FAST"
)

// Phase names one ordered grouping of lots. The default plan keys phases by
// role; a plan may also include a category-keyed phase (e.g. an overseas
// round). Phase values come from the room's phase plan.
type Phase string

const (
	PhaseBatter       Phase = "BATTER"
	PhaseBowler       Phase = "BOWLER"
	PhaseAllRounder   Phase = "ALL_ROUNDER"
	PhaseWicketKeeper Phase = "WICKET_KEEPER"
	PhaseOverseas     Phase = "OVERSEAS"
)

// Purchase is one lot acquired by a member.
type Purchase struct {
	LotID string `json:"lot_id"`
	Price int    `json:"price"`
}

// Sale records a resolved lot: who bought it, for which franchise, at what
// price.
type Sale struct {
	LotID       string `json:"lot_id"`
	Price       int    `json:"price"`
	BuyerID     string `json:"buyer_id"`
	FranchiseID string `json:"franchise_id"`
}

// GamePlayer is one human participant's membership in a room.
type GamePlayer struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	FranchiseID string              `json:"franchise_id,omitempty"`
	Budget      int                 `json:"budget"`
	Acquired    map[string]Purchase `json:"acquired,omitempty"` // keyed by lot id
	Ready       bool                `json:"ready"`
	JoinedAt    time.Time           `json:"joined_at"`
}

// BiddingWar is advisory display state set when two members trade bids on the
// same lot. It carries no auction semantics.
type BiddingWar struct {
	Leader     string `json:"leader"`
	Challenger string `json:"challenger"`
	LotName    string `json:"lot_name"`
}

// Standing is one row of the final leaderboard.
type Standing struct {
	FranchiseName string `json:"franchise_name"`
	TotalPoints   int    `json:"total_points"`
	LotCount      int    `json:"lot_count"`
	TotalSpent    int    `json:"total_spent"`
}

// Room is the shared document for one auction instance. It is the sole shared
// mutable resource: every operation reads the full current value, computes a
// replacement, and writes it back guarded by Version.
type Room struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	HostID     string `json:"host_id"`
	MaxMembers int    `json:"max_members"`
	Status     Status `json:"status"`
	Mode       Mode   `json:"mode"`

	Members map[string]GamePlayer `json:"members"`

	// Auction progression. PhaseOrder holds a shuffled permutation of catalog
	// lot ids per phase, generated when the auction starts and re-generated on
	// explicit phase changes. LotCursor indexes into the filtered (sold and
	// unsold removed) view of the current phase's order.
	Phase           Phase              `json:"phase,omitempty"`
	PhaseOrder      map[Phase][]string `json:"phase_order,omitempty"`
	LotCursor       int                `json:"lot_cursor"`
	CurrentLotID    string             `json:"current_lot_id,omitempty"`
	CurrentBid      int                `json:"current_bid"`
	HighestBidderID string             `json:"highest_bidder_id,omitempty"`

	TimeRemaining    int  `json:"time_remaining"`
	BidWindowSeconds int  `json:"bid_window_seconds"`
	Paused           bool `json:"paused"`

	SoldLots        map[string]Sale `json:"sold_lots,omitempty"`
	UnsoldLotIDs    map[string]bool `json:"unsold_lot_ids,omitempty"`
	PhaseIntroShown map[Phase]bool  `json:"phase_intro_shown,omitempty"`
	BiddingWar      *BiddingWar     `json:"bidding_war,omitempty"`

	FinalStandings []Standing `json:"final_standings,omitempty"`

	InitialAllowance int       `json:"initial_allowance"`
	CreatedAt        time.Time `json:"created_at"`

	// Version is the optimistic-concurrency revision, bumped by the store on
	// every successful write.
	Version int64 `json:"version"`
}

// CurrentLot resolves the room's current lot against the catalog. This is the
// single derivation point: presentation must never recompute it.
func (r *Room) CurrentLot() (catalog.Lot, bool) {
	if r.CurrentLotID == "" {
		return catalog.Lot{}, false
	}
	return catalog.LotByID(r.CurrentLotID)
}

// Member returns the membership record for id.
func (r *Room) Member(id string) (GamePlayer, bool) {
	m, ok := r.Members[id]
	return m, ok
}

// Clone deep-copies the room so pure transitions never alias the caller's
// maps.
func (r *Room) Clone() Room {
	out := *r

	out.Members = make(map[string]GamePlayer, len(r.Members))
	for id, m := range r.Members {
		if m.Acquired != nil {
			acquired := make(map[string]Purchase, len(m.Acquired))
			for k, v := range m.Acquired {
				acquired[k] = v
			}
			m.Acquired = acquired
		}
		out.Members[id] = m
	}

	if r.PhaseOrder != nil {
		out.PhaseOrder = make(map[Phase][]string, len(r.PhaseOrder))
		for p, ids := range r.PhaseOrder {
			out.PhaseOrder[p] = append([]string(nil), ids...)
		}
	}
	if r.SoldLots != nil {
		out.SoldLots = make(map[string]Sale, len(r.SoldLots))
		for k, v := range r.SoldLots {
			out.SoldLots[k] = v
		}
	}
	if r.UnsoldLotIDs != nil {
		out.UnsoldLotIDs = make(map[string]bool, len(r.UnsoldLotIDs))
		for k, v := range r.UnsoldLotIDs {
			out.UnsoldLotIDs[k] = v
		}
	}
	if r.PhaseIntroShown != nil {
		out.PhaseIntroShown = make(map[Phase]bool, len(r.PhaseIntroShown))
		for k, v := range r.PhaseIntroShown {
			out.PhaseIntroShown[k] = v
		}
	}
	if r.BiddingWar != nil {
		war := *r.BiddingWar
		out.BiddingWar = &war
	}
	out.FinalStandings = append([]Standing(nil), r.FinalStandings...)

	return out
}
