// Package schedule partitions the lot catalog into ordered auction phases and
// produces the randomized per-room visitation order within each phase.
package schedule

import (
	"math/rand/v2"

	"github.com/squadbid/gavel/internal/catalog"
	"github.com/squadbid/gavel/internal/room"
)

// PhaseDef keys one phase by either role or category. Exactly one of Role and
// Category is set.
type PhaseDef struct {
	Phase    room.Phase       `yaml:"phase"`
	Role     catalog.Role     `yaml:"role,omitempty"`
	Category catalog.Category `yaml:"category,omitempty"`
}

// Plan is the ordered sequence of phases a traditional auction walks through.
type Plan []PhaseDef

// DefaultPlan is the standard role-keyed phase sequence.
func DefaultPlan() Plan {
	return Plan{
		{Phase: room.PhaseBatter, Role: catalog.RoleBatter},
		{Phase: room.PhaseBowler, Role: catalog.RoleBowler},
		{Phase: room.PhaseAllRounder, Role: catalog.RoleAllRounder},
		{Phase: room.PhaseWicketKeeper, Role: catalog.RoleWicketKeeper},
	}
}

// WithOverseasRound appends a category-keyed overseas phase to the plan.
// Lots already covered by a role phase appear again only if still unresolved
// when the phase is entered, since ordering always filters sold/unsold ids.
func (p Plan) WithOverseasRound() Plan {
	return append(append(Plan(nil), p...), PhaseDef{
		Phase:    room.PhaseOverseas,
		Category: catalog.CategoryOverseas,
	})
}

// Phases returns the plan's phase names in order.
func (p Plan) Phases() []room.Phase {
	out := make([]room.Phase, len(p))
	for i, def := range p {
		out[i] = def.Phase
	}
	return out
}

// First returns the opening phase of the plan.
func (p Plan) First() (room.Phase, bool) {
	if len(p) == 0 {
		return "", false
	}
	return p[0].Phase, true
}

// Next returns the phase that follows current, or false when current is the
// last phase (or unknown).
func (p Plan) Next(current room.Phase) (room.Phase, bool) {
	for i, def := range p {
		if def.Phase == current && i+1 < len(p) {
			return p[i+1].Phase, true
		}
	}
	return "", false
}

// Contains reports whether the plan includes the given phase.
func (p Plan) Contains(phase room.Phase) bool {
	for _, def := range p {
		if def.Phase == phase {
			return true
		}
	}
	return false
}

func (def PhaseDef) matches(lot catalog.Lot) bool {
	if def.Role != "" {
		return lot.Role == def.Role
	}
	return lot.Category == def.Category
}

// Partition groups catalog lot ids by phase, in catalog order.
func Partition(lots []catalog.Lot, plan Plan) map[room.Phase][]string {
	out := make(map[room.Phase][]string, len(plan))
	for _, def := range plan {
		var ids []string
		for _, lot := range lots {
			if def.matches(lot) {
				ids = append(ids, lot.ID)
			}
		}
		out[def.Phase] = ids
	}
	return out
}

// Shuffle returns a uniform random permutation of ids using an iterative
// Fisher-Yates walk, one swap per element.
func Shuffle(ids []string, rng *rand.Rand) []string {
	out := append([]string(nil), ids...)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// BuildOrder partitions the catalog and shuffles every phase's lot order.
// Called once per room at auction start.
func BuildOrder(lots []catalog.Lot, plan Plan, rng *rand.Rand) map[room.Phase][]string {
	order := Partition(lots, plan)
	for phase, ids := range order {
		order[phase] = Shuffle(ids, rng)
	}
	return order
}

// Available filters the room's shuffled order for a phase down to the lot ids
// that are neither sold nor unsold.
func Available(r *room.Room, phase room.Phase) []string {
	var out []string
	for _, id := range r.PhaseOrder[phase] {
		if _, sold := r.SoldLots[id]; sold {
			continue
		}
		if r.UnsoldLotIDs[id] {
			continue
		}
		out = append(out, id)
	}
	return out
}

// NextAvailable indexes the filtered view of the phase's order by cursor.
// Returns false when the cursor runs past the remaining lots.
func NextAvailable(r *room.Room, phase room.Phase, cursor int) (string, bool) {
	avail := Available(r, phase)
	if cursor < 0 || cursor >= len(avail) {
		return "", false
	}
	return avail[cursor], true
}

// ReshuffleAvailable produces a fresh permutation of a phase's still-available
// lots. Used on explicit phase changes so no player can predict lot order
// from a previous pass.
func ReshuffleAvailable(r *room.Room, phase room.Phase, rng *rand.Rand) []string {
	return Shuffle(Available(r, phase), rng)
}

// RandomAvailable draws a random unresolved lot from any phase, excluding the
// room's current lot. Fast-mode progression.
func RandomAvailable(r *room.Room, rng *rand.Rand) (string, bool) {
	seen := make(map[string]bool)
	var pool []string
	for phase := range r.PhaseOrder {
		for _, id := range Available(r, phase) {
			if id == r.CurrentLotID || seen[id] {
				continue
			}
			seen[id] = true
			pool = append(pool, id)
		}
	}
	if len(pool) == 0 {
		return "", false
	}
	return pool[rng.IntN(len(pool))], true
}
