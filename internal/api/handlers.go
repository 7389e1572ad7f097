package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rdab4510/collaborative-canvas/internal/canvas"
	"github.com/rdab4510/collaborative-canvas/internal/db"
	"github.com/rdab4510/collaborative-canvas/internal/registry"
	"github.com/rdab4510/collaborative-canvas/internal/ws"
)

type API struct {
	hub      *ws.Hub
	registry *registry.Registry
	history  *canvas.Store
	database *db.Database
}

func New(hub *ws.Hub, reg *registry.Registry, history *canvas.Store, database *db.Database) *API {
	return &API{
		hub:      hub,
		registry: reg,
		history:  history,
		database: database,
	}
}

func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"active_rooms":   a.hub.GetRoomCount(),
		"active_clients": a.hub.GetClientCount(),
		"tracked_rooms":  len(a.registry.AllRooms()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	}

	if a.database != nil {
		dbStats, err := a.database.GetStats()
		if err == nil {
			stats["archived_rooms"] = dbStats["room_count"]
			stats["archived_operations"] = dbStats["operation_count"]
		}
	}

	jsonResponse(w, http.StatusOK, stats)
}

// Room handlers

type RoomResponse struct {
	ID          string            `json:"id"`
	Members     []registry.Member `json:"members"`
	MemberCount int               `json:"member_count"`
	Connections int               `json:"connections"`
	History     canvas.Stats      `json:"history"`
}

type RoomDetailResponse struct {
	RoomResponse
	RecentOperations []canvas.Operation `json:"recent_operations"`
}

func (a *API) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	activeRooms := a.hub.GetActiveRooms()

	roomIDs := a.registry.AllRooms()
	response := make([]RoomResponse, len(roomIDs))
	for i, id := range roomIDs {
		response[i] = RoomResponse{
			ID:          id,
			Members:     a.registry.MembersOf(id),
			MemberCount: a.registry.CountOf(id),
			Connections: activeRooms[id],
			History:     a.history.StatsOf(id),
		}
	}

	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"rooms": response,
		"count": len(response),
	})
}

func (a *API) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	// Extract room ID from path: /api/rooms/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/rooms/")
	roomID := strings.TrimSuffix(path, "/")

	if roomID == "" {
		errorResponse(w, http.StatusBadRequest, "Room ID is required")
		return
	}

	if a.registry.CountOf(roomID) == 0 {
		found := false
		for _, id := range a.registry.AllRooms() {
			if id == roomID {
				found = true
				break
			}
		}
		if !found {
			errorResponse(w, http.StatusNotFound, "Room not found")
			return
		}
	}

	jsonResponse(w, http.StatusOK, RoomDetailResponse{
		RoomResponse: RoomResponse{
			ID:          roomID,
			Members:     a.registry.MembersOf(roomID),
			MemberCount: a.registry.CountOf(roomID),
			Connections: a.hub.GetActiveRooms()[roomID],
			History:     a.history.StatsOf(roomID),
		},
		RecentOperations: a.history.RecentOperations(roomID),
	})
}

func (a *API) RoomsRouter(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/rooms")

	// /api/rooms or /api/rooms/
	if path == "" || path == "/" {
		a.ListRoomsHandler(w, r)
		return
	}

	// /api/rooms/{id}
	a.GetRoomHandler(w, r)
}

// Archived operations

func (a *API) OperationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if a.database == nil {
		errorResponse(w, http.StatusServiceUnavailable, "Operation archive is not configured")
		return
	}

	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		errorResponse(w, http.StatusBadRequest, "room is required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	ops, err := a.database.ListOperations(roomID, limit, offset)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to list operations")
		return
	}
	if ops == nil {
		ops = []db.Operation{}
	}

	total, _ := a.database.CountOperations(roomID)

	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"operations": ops,
		"total":      total,
		"limit":      limit,
		"offset":     offset,
	})
}
