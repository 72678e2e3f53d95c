package catalog

// Franchise is one of the fixed team identities a room member can control.
type Franchise struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Franchises is the fixed franchise set. One franchise per member per room.
var Franchises = []Franchise{
	{ID: "mi", Name: "Mumbai Indians", Color: "blue"},
	{ID: "csk", Name: "Chennai Super Kings", Color: "yellow"},
	{ID: "rcb", Name: "Royal Challengers Bengaluru", Color: "red"},
	{ID: "kkr", Name: "Kolkata Knight Riders", Color: "purple"},
	{ID: "dc", Name: "Delhi Capitals", Color: "navy"},
	{ID: "rr", Name: "Rajasthan Royals", Color: "pink"},
	{ID: "srh", Name: "Sunrisers Hyderabad", Color: "orange"},
	{ID: "pbks", Name: "Punjab Kings", Color: "crimson"},
	{ID: "gt", Name: "Gujarat Titans", Color: "steel"},
	{ID: "lsg", Name: "Lucknow Super Giants", Color: "cyan"},
}

// FranchiseByID looks a franchise up by id.
func FranchiseByID(id string) (Franchise, bool) {
	for _, f := range Franchises {
		if f.ID == id {
			return f, true
		}
	}
	return Franchise{}, false
}
