package gateway

import "github.com/squadbid/gavel/internal/room"

// IntentType enumerates the client intents accepted over the websocket.
type IntentType string

const (
	IntentStartAuction       IntentType = "StartAuction"
	IntentPlaceBid           IntentType = "PlaceBid"
	IntentConcedeBid         IntentType = "ConcedeBid"
	IntentMarkUnsold         IntentType = "MarkUnsold"
	IntentSkipLot            IntentType = "SkipLot"
	IntentChangePhase        IntentType = "ChangePhase"
	IntentTogglePause        IntentType = "TogglePause"
	IntentSetBidWindow       IntentType = "SetBidWindow"
	IntentSetMode            IntentType = "SetMode"
	IntentEndAuction         IntentType = "EndAuction"
	IntentBeginTeamSelection IntentType = "BeginTeamSelection"
	IntentSelectFranchise    IntentType = "SelectFranchise"
	IntentLeaveRoom          IntentType = "LeaveRoom"
)

// ClientMessage is one intent from a connected client. MemberID comes from
// the connection, not the payload.
type ClientMessage struct {
	Type        IntentType `json:"type"`
	Amount      int        `json:"amount,omitempty"`
	Phase       room.Phase `json:"phase,omitempty"`
	Seconds     int        `json:"seconds,omitempty"`
	Paused      bool       `json:"paused,omitempty"`
	Mode        room.Mode  `json:"mode,omitempty"`
	FranchiseID string     `json:"franchise_id,omitempty"`
}

// ServerMessage is what the gateway pushes to clients: either a full room
// snapshot or an error for a rejected intent.
type ServerMessage struct {
	Type   string     `json:"type"` // "RoomSnapshot" | "RoomDeleted" | "Error"
	Room   *room.Room `json:"room,omitempty"`
	Intent IntentType `json:"intent,omitempty"`
	Error  string     `json:"error,omitempty"`
}
