package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// rawLotData is the seed catalog, one lot per line:
// name,role,price,nationality. Prices are either "<n> Cr" (crores) or
// "<n> L" (lakhs); everything is normalized to lakhs at parse time.
const rawLotData = `
Virat Kohli,Batter,2.1 Cr,India
Rohit Sharma,Batter,1.6 Cr,India
Ruturaj Gaikwad,Batter,1.8 Cr,India
Shubman Gill,Batter,1.7 Cr,India
David Warner,Batter,1.25 Cr,Australia
Faf du Plessis,Batter,70 L,South Africa
Rahul Tripathi,Batter,85 L,India
Shreyas Iyer,Batter,1.2 Cr,India
Devon Conway,Batter,1 Cr,New Zealand
Yashasvi Jaiswal,Batter,40 L,India
Tilak Varma,Batter,35 L,India
Aiden Markram,Batter,2.6 Cr,South Africa
Jasprit Bumrah,Bowler,1.8 Cr,India
Mohammed Shami,Bowler,1.1 Cr,India
Trent Boult,Bowler,80 L,New Zealand
Rashid Khan,Bowler,1.5 Cr,Afghanistan
Yuzvendra Chahal,Bowler,65 L,India
Kagiso Rabada,Bowler,92 L,South Africa
Umran Malik,Bowler,4 Cr,India
Fazalhaq Farooqi,Bowler,50 L,Afghanistan
Kartik Tyagi,Bowler,4 Cr,India
Mitchell Starc,Bowler,2.5 Cr,Australia
Arshdeep Singh,Bowler,45 L,India
Kuldeep Yadav,Bowler,55 L,India
Hardik Pandya,All-Rounder,1.5 Cr,India
Ravindra Jadeja,All-Rounder,1.6 Cr,India
Ben Stokes,All-Rounder,1.65 Cr,England
Glenn Maxwell,All-Rounder,1.1 Cr,Australia
Andre Russell,All-Rounder,1.2 Cr,West Indies
Sunil Narine,All-Rounder,60 L,West Indies
Axar Patel,All-Rounder,90 L,India
Marcus Stoinis,All-Rounder,95 L,Australia
Sam Curran,All-Rounder,1.85 Cr,England
Washington Sundar,All-Rounder,87 L,India
Rishabh Pant,Wicket-Keeper,1.6 Cr,India
MS Dhoni,Wicket-Keeper,1.2 Cr,India
Jos Buttler,Wicket-Keeper,1 Cr,England
Quinton de Kock,Wicket-Keeper,67 L,South Africa
Sanju Samson,Wicket-Keeper,1.4 Cr,India
Ishan Kishan,Wicket-Keeper,1.5 Cr,India
Glenn Phillips,Wicket-Keeper,1.5 Cr,New Zealand
Heinrich Klaasen,Wicket-Keeper,52 L,South Africa
`

var (
	lots    []Lot
	lotByID map[string]Lot
)

func init() {
	parsed, err := parseLots(rawLotData)
	if err != nil {
		panic(fmt.Sprintf("catalog: bad seed data: %v", err))
	}
	lots = parsed
	lotByID = make(map[string]Lot, len(lots))
	for _, l := range lots {
		lotByID[l.ID] = l
	}
}

// Lots returns the full catalog. Callers must treat the returned slice as
// read-only.
func Lots() []Lot {
	return lots
}

// LotByID looks a lot up by its catalog id.
func LotByID(id string) (Lot, bool) {
	l, ok := lotByID[id]
	return l, ok
}

func parseLots(raw string) ([]Lot, error) {
	var out []Lot
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		fields := strings.Split(line, ",")
		if len(fields) != 4 {
			return nil, fmt.Errorf("line %q: want 4 fields, got %d", line, len(fields))
		}

		name := strings.TrimSpace(fields[0])
		role, err := parseRole(fields[1])
		if err != nil {
			return nil, fmt.Errorf("lot %s: %w", name, err)
		}
		price, err := parsePrice(fields[2])
		if err != nil {
			return nil, fmt.Errorf("lot %s: %w", name, err)
		}

		nationality := strings.TrimSpace(fields[3])
		category := CategoryOverseas
		if nationality == "India" {
			category = CategoryDomestic
		}

		out = append(out, Lot{
			ID:          fmt.Sprintf("lot-%03d", len(out)+1),
			Name:        name,
			Role:        role,
			Category:    category,
			BasePrice:   price,
			Nationality: nationality,
			Points:      lotPoints(price, role, category),
		})
	}
	return out, nil
}

func parseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "batter", "batsman":
		return RoleBatter, nil
	case "bowler":
		return RoleBowler, nil
	case "all-rounder", "allrounder":
		return RoleAllRounder, nil
	case "wicket-keeper", "wk-batter", "wicketkeeper":
		return RoleWicketKeeper, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// parsePrice normalizes "2.6 Cr" / "50 L" style price strings to lakhs.
func parsePrice(s string) (int, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)

	mult := 0.0
	switch {
	case strings.HasSuffix(lower, "cr"):
		mult = 100
		s = s[:len(s)-2]
	case strings.HasSuffix(lower, "l"):
		mult = 1
		s = s[:len(s)-1]
	default:
		return 0, fmt.Errorf("price %q: missing Cr/L unit", s)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("price %q: %w", s, err)
	}
	return int(v * mult), nil
}
