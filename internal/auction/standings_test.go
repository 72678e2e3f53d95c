package auction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/squadbid/gavel/internal/room"
)

func standingsRoom(members map[string]room.GamePlayer) *room.Room {
	return &room.Room{
		Members:          members,
		InitialAllowance: room.DefaultAllowance,
	}
}

func TestStandingsRankByPoints(t *testing.T) {
	// lot-001 Kohli: 80 points. lot-012 Markram: 85 points.
	r := standingsRoom(map[string]room.GamePlayer{
		"a": {
			ID: "a", FranchiseID: "csk", Budget: room.DefaultAllowance - 210,
			Acquired: map[string]room.Purchase{"lot-001": {LotID: "lot-001", Price: 210}},
		},
		"b": {
			ID: "b", FranchiseID: "mi", Budget: room.DefaultAllowance - 260,
			Acquired: map[string]room.Purchase{"lot-012": {LotID: "lot-012", Price: 260}},
		},
	})

	standings := ComputeFinalStandings(r)
	require.Len(t, standings, 2)
	assert.Equal(t, "Mumbai Indians", standings[0].FranchiseName)
	assert.Equal(t, 85, standings[0].TotalPoints)
	assert.Equal(t, 260, standings[0].TotalSpent)
	assert.Equal(t, "Chennai Super Kings", standings[1].FranchiseName)
	assert.Equal(t, 80, standings[1].TotalPoints)
}

func TestStandingsTieBreakCheaperSquadWins(t *testing.T) {
	// lot-001 (Kohli) and lot-025 (Hardik) are both worth 80 points; the
	// cheaper acquisition ranks first.
	r := standingsRoom(map[string]room.GamePlayer{
		"a": {
			ID: "a", FranchiseID: "csk", Budget: room.DefaultAllowance - 300,
			Acquired: map[string]room.Purchase{"lot-001": {LotID: "lot-001", Price: 300}},
		},
		"b": {
			ID: "b", FranchiseID: "mi", Budget: room.DefaultAllowance - 150,
			Acquired: map[string]room.Purchase{"lot-025": {LotID: "lot-025", Price: 150}},
		},
	})

	standings := ComputeFinalStandings(r)
	require.Len(t, standings, 2)
	assert.Equal(t, standings[0].TotalPoints, standings[1].TotalPoints)
	assert.Equal(t, "Mumbai Indians", standings[0].FranchiseName)
}

func TestStandingsTieBreakFranchiseName(t *testing.T) {
	r := standingsRoom(map[string]room.GamePlayer{
		"a": {ID: "a", FranchiseID: "mi", Budget: room.DefaultAllowance},
		"b": {ID: "b", FranchiseID: "csk", Budget: room.DefaultAllowance},
	})

	standings := ComputeFinalStandings(r)
	require.Len(t, standings, 2)
	assert.Equal(t, "Chennai Super Kings", standings[0].FranchiseName)
	assert.Equal(t, "Mumbai Indians", standings[1].FranchiseName)
}

func TestStandingsSkipMembersWithoutFranchise(t *testing.T) {
	r := standingsRoom(map[string]room.GamePlayer{
		"a": {ID: "a", FranchiseID: "csk", Budget: room.DefaultAllowance},
		"b": {ID: "b", Budget: room.DefaultAllowance}, // spectator, no franchise
	})

	standings := ComputeFinalStandings(r)
	require.Len(t, standings, 1)
	assert.Equal(t, "Chennai Super Kings", standings[0].FranchiseName)
}
