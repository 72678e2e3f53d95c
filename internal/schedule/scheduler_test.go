package schedule

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/squadbid/gavel/internal/catalog"
	"github.com/squadbid/gavel/internal/room"
)

func testRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

func TestPartitionCoversCatalogByRole(t *testing.T) {
	lots := catalog.Lots()
	parts := Partition(lots, DefaultPlan())

	total := 0
	for _, ids := range parts {
		total += len(ids)
	}
	// Role phases are disjoint and exhaustive over the catalog.
	assert.Equal(t, len(lots), total)

	for _, id := range parts[room.PhaseBowler] {
		lot, ok := catalog.LotByID(id)
		require.True(t, ok)
		assert.Equal(t, catalog.RoleBowler, lot.Role)
	}
}

func TestOverseasRoundIsCategoryKeyed(t *testing.T) {
	plan := DefaultPlan().WithOverseasRound()
	parts := Partition(catalog.Lots(), plan)

	require.NotEmpty(t, parts[room.PhaseOverseas])
	for _, id := range parts[room.PhaseOverseas] {
		lot, _ := catalog.LotByID(id)
		assert.Equal(t, catalog.CategoryOverseas, lot.Category)
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f", "g"}
	got := Shuffle(ids, testRNG(7))

	assert.ElementsMatch(t, ids, got)
	// Input order untouched.
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g"}, ids)
}

func TestShuffleUniformity(t *testing.T) {
	// Coarse unbiasedness check: over many shuffles of [a b c], every element
	// should land in every slot roughly a third of the time.
	rng := testRNG(99)
	counts := make(map[string][3]int)
	const iters = 9000
	for i := 0; i < iters; i++ {
		got := Shuffle([]string{"a", "b", "c"}, rng)
		for pos, id := range got {
			c := counts[id]
			c[pos]++
			counts[id] = c
		}
	}
	for id, c := range counts {
		for pos, n := range c {
			assert.InDelta(t, iters/3, n, iters/10, "element %s position %d", id, pos)
		}
	}
}

func TestNextAvailableSkipsResolvedLots(t *testing.T) {
	r := &room.Room{
		PhaseOrder: map[room.Phase][]string{
			room.PhaseBatter: {"l1", "l2", "l3", "l4"},
		},
		SoldLots:     map[string]room.Sale{"l2": {LotID: "l2"}},
		UnsoldLotIDs: map[string]bool{"l3": true},
	}

	id, ok := NextAvailable(r, room.PhaseBatter, 0)
	require.True(t, ok)
	assert.Equal(t, "l1", id)

	id, ok = NextAvailable(r, room.PhaseBatter, 1)
	require.True(t, ok)
	assert.Equal(t, "l4", id)

	_, ok = NextAvailable(r, room.PhaseBatter, 2)
	assert.False(t, ok)
}

func TestReshuffleAvailableDropsResolved(t *testing.T) {
	r := &room.Room{
		PhaseOrder: map[room.Phase][]string{
			room.PhaseBowler: {"l1", "l2", "l3", "l4", "l5"},
		},
		SoldLots:     map[string]room.Sale{"l1": {LotID: "l1"}},
		UnsoldLotIDs: map[string]bool{"l5": true},
	}

	got := ReshuffleAvailable(r, room.PhaseBowler, testRNG(3))
	assert.ElementsMatch(t, []string{"l2", "l3", "l4"}, got)
}

func TestRandomAvailableExcludesCurrentLot(t *testing.T) {
	r := &room.Room{
		CurrentLotID: "l1",
		PhaseOrder: map[room.Phase][]string{
			room.PhaseBatter: {"l1", "l2"},
		},
	}

	rng := testRNG(1)
	for i := 0; i < 20; i++ {
		id, ok := RandomAvailable(r, rng)
		require.True(t, ok)
		assert.Equal(t, "l2", id)
	}

	// Nothing left once l2 is sold.
	r.SoldLots = map[string]room.Sale{"l2": {LotID: "l2"}}
	_, ok := RandomAvailable(r, rng)
	assert.False(t, ok)
}

func TestPlanNext(t *testing.T) {
	plan := DefaultPlan()

	next, ok := plan.Next(room.PhaseBatter)
	require.True(t, ok)
	assert.Equal(t, room.PhaseBowler, next)

	_, ok = plan.Next(room.PhaseWicketKeeper)
	assert.False(t, ok)

	first, ok := plan.First()
	require.True(t, ok)
	assert.Equal(t, room.PhaseBatter, first)
}
