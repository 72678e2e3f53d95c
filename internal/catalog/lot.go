package catalog

// Role is the playing role a lot is auctioned under. Roles double as the
// default auction phases.
type Role string

const (
	RoleBatter       Role = "BATTER"
	RoleBowler       Role = "BOWLER"
	RoleAllRounder   Role = "ALL_ROUNDER"
	RoleWicketKeeper Role = "WICKET_KEEPER"
)

// Category splits the catalog by origin. Domestic covers India-based lots,
// everything else is Overseas.
type Category string

const (
	CategoryDomestic Category = "DOMESTIC"
	CategoryOverseas Category = "OVERSEAS"
)

// Lot is one auctionable athlete record. Lots are immutable: the catalog is
// parsed once at process start and never mutated afterwards.
type Lot struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Role        Role     `json:"role"`
	Category    Category `json:"category"`
	BasePrice   int      `json:"base_price"` // currency minor units (lakhs)
	Nationality string   `json:"nationality"`
	Points      int      `json:"points"` // deterministic, [0,100]
}

// lotPoints is the deterministic score formula: a 30-point floor plus price,
// role and category bonuses, capped at 100. No randomness.
func lotPoints(basePrice int, role Role, category Category) int {
	pts := 30

	switch {
	case basePrice >= 200:
		pts += 40
	case basePrice >= 150:
		pts += 30
	case basePrice >= 100:
		pts += 20
	case basePrice >= 75:
		pts += 15
	case basePrice >= 50:
		pts += 10
	}

	switch role {
	case RoleAllRounder:
		pts += 15
	case RoleWicketKeeper:
		pts += 10
	case RoleBowler:
		pts += 8
	default:
		pts += 5
	}

	if category == CategoryOverseas {
		pts += 10
	} else {
		pts += 5
	}

	if pts > 100 {
		pts = 100
	}
	return pts
}
