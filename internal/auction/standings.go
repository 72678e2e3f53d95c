package auction

import (
	"sort"

	"github.com/squadbid/gavel/internal/catalog"
	"github.com/squadbid/gavel/internal/room"
)

// ComputeFinalStandings ranks every franchise-holding member by the total
// catalog points of their acquired lots. Ties break by total spent ascending
// (cheaper squad wins), then franchise name, so the order is deterministic.
func ComputeFinalStandings(r *room.Room) []room.Standing {
	standings := make([]room.Standing, 0, len(r.Members))
	for _, m := range r.Members {
		if m.FranchiseID == "" {
			continue
		}
		name := m.Name
		if f, ok := catalog.FranchiseByID(m.FranchiseID); ok {
			name = f.Name
		}

		points := 0
		for lotID := range m.Acquired {
			if lot, ok := catalog.LotByID(lotID); ok {
				points += lot.Points
			}
		}

		standings = append(standings, room.Standing{
			FranchiseName: name,
			TotalPoints:   points,
			LotCount:      len(m.Acquired),
			TotalSpent:    r.InitialAllowance - m.Budget,
		})
	}

	sort.Slice(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if a.TotalSpent != b.TotalSpent {
			return a.TotalSpent < b.TotalSpent
		}
		return a.FranchiseName < b.FranchiseName
	})
	return standings
}
