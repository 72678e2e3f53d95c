package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/squadbid/gavel/internal/catalog"
	"github.com/squadbid/gavel/internal/room"
)

// Handler exposes the HTTP surface: the websocket upgrade endpoint and the
// REST routes used before a client has a live connection (creating, listing
// and joining rooms).
type Handler struct {
	service *Service
}

// NewHandler creates the HTTP handler for the gateway.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires all routes into the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/room", h.handleRoomConnection)
	mux.HandleFunc("GET /ws/stats", h.handleStats)

	mux.HandleFunc("POST /api/rooms", h.handleCreateRoom)
	mux.HandleFunc("GET /api/rooms", h.handleListRooms)
	mux.HandleFunc("GET /api/rooms/{id}", h.handleGetRoom)
	mux.HandleFunc("POST /api/rooms/{id}/join", h.handleJoinRoom)
	mux.HandleFunc("DELETE /api/rooms/{id}", h.handleDeleteRoom)
	mux.HandleFunc("POST /api/rooms/{id}/clear", h.handleClearRoom)

	mux.HandleFunc("GET /api/catalog/lots", h.handleListLots)
	mux.HandleFunc("GET /api/catalog/franchises", h.handleListFranchises)

	mux.HandleFunc("GET /health", h.handleHealth)
}

// handleRoomConnection upgrades a client into a room's websocket pool. The
// member must already belong to the room; joining happens over REST first.
func (h *Handler) handleRoomConnection(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room_id")
	memberID := r.URL.Query().Get("member_id")
	if roomID == "" || memberID == "" {
		http.Error(w, "room_id and member_id are required", http.StatusBadRequest)
		return
	}

	doc, err := h.service.app.GetRoom(r.Context(), roomID)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, ok := doc.Members[memberID]; !ok {
		writeError(w, room.ErrUnauthorized)
		return
	}

	if _, err := h.service.cm.UpgradeConnection(w, r, memberID, roomID); err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("websocket upgrade failed")
	}
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Stats())
}

type createRoomRequest struct {
	Name     string `json:"name"`
	HostID   string `json:"host_id"`
	HostName string `json:"host_name"`
}

func (h *Handler) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	doc, err := h.service.app.CreateRoom(r.Context(), req.Name, req.HostID, req.HostName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *Handler) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.service.app.ListRooms(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *Handler) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.app.GetRoom(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type joinRoomRequest struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
}

func (h *Handler) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var req joinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	doc, err := h.service.app.JoinRoom(r.Context(), r.PathValue("id"), req.MemberID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	callerID := r.URL.Query().Get("caller_id")
	if err := h.service.app.DeleteRoom(r.Context(), r.PathValue("id"), callerID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClearRoom(w http.ResponseWriter, r *http.Request) {
	callerID := r.URL.Query().Get("caller_id")
	if err := h.service.app.ClearCompletedRoomData(r.Context(), r.PathValue("id"), callerID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListLots(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Lots())
}

func (h *Handler) handleListFranchises(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Franchises)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, room.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, room.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, room.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, room.ErrInvalidState),
		errors.Is(err, room.ErrInvalidBid),
		errors.Is(err, room.ErrConsecutiveBid),
		errors.Is(err, room.ErrInsufficientBudget):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
