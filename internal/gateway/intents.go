package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/squadbid/gavel/internal/room"
)

const intentTimeout = 5 * time.Second

// handleIntent decodes one client message and applies it. Successful intents
// need no reply: the store fan-out delivers the new snapshot to everyone,
// sender included. Rejections go back to the sender only.
func (s *Service) handleIntent(conn *Connection, data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", "malformed message")
		return
	}

	ctx, cancel := context.WithTimeout(conn.Context(), intentTimeout)
	defer cancel()

	err := s.applyIntent(ctx, conn, msg)
	if err != nil {
		log.Debug().
			Err(err).
			Str("room_id", conn.RoomID).
			Str("member_id", conn.MemberID).
			Str("intent", string(msg.Type)).
			Msg("intent rejected")
		s.sendError(conn, msg.Type, err.Error())
	}
}

func (s *Service) applyIntent(ctx context.Context, conn *Connection, msg ClientMessage) error {
	roomID, memberID := conn.RoomID, conn.MemberID

	var err error
	switch msg.Type {
	case IntentStartAuction:
		_, err = s.app.StartAuction(ctx, roomID, memberID)
	case IntentPlaceBid:
		_, err = s.app.PlaceBid(ctx, roomID, memberID, msg.Amount)
	case IntentConcedeBid:
		_, err = s.app.ConcedeBid(ctx, roomID, memberID)
	case IntentMarkUnsold:
		_, err = s.app.MarkUnsold(ctx, roomID, memberID)
	case IntentSkipLot:
		_, err = s.app.SkipLot(ctx, roomID, memberID)
	case IntentChangePhase:
		_, err = s.app.ChangePhase(ctx, roomID, memberID, msg.Phase)
	case IntentTogglePause:
		_, err = s.app.TogglePause(ctx, roomID, memberID, msg.Paused)
	case IntentSetBidWindow:
		_, err = s.app.SetBidWindow(ctx, roomID, memberID, msg.Seconds)
	case IntentSetMode:
		_, err = s.app.SetMode(ctx, roomID, memberID, msg.Mode)
	case IntentEndAuction:
		_, err = s.app.EndAuction(ctx, roomID, memberID)
	case IntentBeginTeamSelection:
		_, err = s.app.BeginTeamSelection(ctx, roomID, memberID)
	case IntentSelectFranchise:
		_, err = s.app.SelectFranchise(ctx, roomID, memberID, msg.FranchiseID)
	case IntentLeaveRoom:
		err = s.app.LeaveRoom(ctx, roomID, memberID)
	default:
		return room.ErrInvalidState
	}
	return err
}

func (s *Service) sendError(conn *Connection, intent IntentType, message string) {
	data, err := json.Marshal(ServerMessage{Type: "Error", Intent: intent, Error: message})
	if err != nil {
		return
	}
	s.cm.SendToConnection(conn, data)
}
