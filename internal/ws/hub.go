package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/rdab4510/collaborative-canvas/internal/canvas"
	"github.com/rdab4510/collaborative-canvas/internal/db"
	"github.com/rdab4510/collaborative-canvas/internal/protocol"
	"github.com/rdab4510/collaborative-canvas/internal/registry"
	"github.com/rdab4510/collaborative-canvas/internal/session"
)

// Hub routes every inbound client event. All room-state mutation happens
// on the Run goroutine, one event at a time in arrival order, which is
// what serializes concurrent clients of the same room without locking
// around individual mutations.
type Hub struct {
	registry *registry.Registry
	history  *canvas.Store
	sessions *session.Assigner
	archive  *db.Database // optional; nil disables archiving

	// Connected clients by room.
	rooms map[string]map[*Client]bool

	events     chan *clientEvent
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex
}

type clientEvent struct {
	client *Client
	event  *protocol.Inbound
}

func NewHub(reg *registry.Registry, history *canvas.Store, archive *db.Database) *Hub {
	return &Hub{
		registry:   reg,
		history:    history,
		sessions:   session.NewAssigner(),
		archive:    archive,
		rooms:      make(map[string]map[*Client]bool),
		events:     make(chan *clientEvent),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.handleJoin(client)
		case client := <-h.unregister:
			h.handleLeave(client)
		case ev := <-h.events:
			h.handleEvent(ev.client, ev.event)
		}
	}
}

func (h *Hub) handleJoin(c *Client) {
	h.mu.Lock()
	if _, ok := h.rooms[c.roomID]; !ok {
		h.rooms[c.roomID] = make(map[*Client]bool)
	}
	h.rooms[c.roomID][c] = true
	clientCount := len(h.rooms[c.roomID])
	h.mu.Unlock()

	h.registry.Join(c.roomID, registry.Member{
		ID:       c.identity.ID,
		Username: c.identity.Username,
		Color:    c.identity.Color,
	})

	h.send(c, protocol.Init{
		Type:        protocol.TypeInit,
		UserID:      c.identity.ID,
		Username:    c.identity.Username,
		Color:       c.identity.Color,
		CanvasState: string(h.history.CurrentSnapshot(c.roomID)),
	})
	h.broadcast(c.roomID, protocol.UserJoined{
		Type:     protocol.TypeUserJoined,
		ID:       c.identity.ID,
		Username: c.identity.Username,
		Color:    c.identity.Color,
	}, c)
	h.broadcast(c.roomID, h.roster(c.roomID), nil)

	if h.archive != nil {
		if err := h.archive.TouchRoom(c.roomID); err != nil {
			log.Printf("Failed to archive room %s: %v", c.roomID, err)
		}
	}

	log.Printf("Client %s joined room %s (total: %d)", c.identity.ID, c.roomID, clientCount)
}

func (h *Hub) handleLeave(c *Client) {
	h.mu.Lock()
	removed := false
	if clients, ok := h.rooms[c.roomID]; ok {
		if _, ok := clients[c]; ok {
			delete(clients, c)
			close(c.send)
			removed = true
			if len(clients) == 0 {
				delete(h.rooms, c.roomID)
			}
		}
	}
	h.mu.Unlock()

	if !removed {
		return
	}

	h.registry.Leave(c.roomID, c.identity.ID)
	h.broadcast(c.roomID, protocol.UserLeft{
		Type:   protocol.TypeUserLeft,
		UserID: c.identity.ID,
	}, nil)
	h.broadcast(c.roomID, h.roster(c.roomID), nil)

	log.Printf("Client %s left room %s (remaining: %d)",
		c.identity.ID, c.roomID, h.registry.CountOf(c.roomID))
}

func (h *Hub) handleEvent(c *Client, ev *protocol.Inbound) {
	now := time.Now().UnixMilli()

	switch ev.Type {
	case protocol.TypeDrawStart:
		h.broadcast(c.roomID, protocol.StrokeEvent{
			Type: ev.Type, UserID: c.identity.ID, Point: ev.Point, Timestamp: now,
		}, c)

	case protocol.TypeDrawMove:
		h.broadcast(c.roomID, protocol.StrokeEvent{
			Type: ev.Type, UserID: c.identity.ID, Points: ev.Points, Timestamp: now,
		}, c)

	case protocol.TypeDrawEnd:
		path, err := json.Marshal(ev.Path)
		if err != nil {
			return
		}
		h.history.RecordOperation(c.roomID, c.identity.ID, path)
		if h.archive != nil {
			if err := h.archive.SaveOperation(c.roomID, c.identity.ID, path); err != nil {
				log.Printf("Failed to archive stroke for room %s: %v", c.roomID, err)
			}
		}
		h.broadcast(c.roomID, protocol.StrokeEvent{
			Type: ev.Type, UserID: c.identity.ID, Path: ev.Path, Timestamp: now,
		}, c)

	case protocol.TypeCursorMove:
		h.broadcast(c.roomID, protocol.CursorEvent{
			Type: ev.Type, UserID: c.identity.ID, X: ev.X, Y: ev.Y,
		}, c)

	case protocol.TypeUndo, protocol.TypeRedo:
		snapshot, ok := h.applyHistory(c.roomID, ev)
		if !ok {
			return
		}
		// Echoed to the sender too: the authoritative snapshot silently
		// overwrites whatever the sender rendered optimistically.
		h.broadcast(c.roomID, protocol.HistoryEvent{
			Type: ev.Type, UserID: c.identity.ID, CanvasState: string(snapshot),
		}, nil)

	case protocol.TypeClearCanvas:
		h.history.ClearCanvas(c.roomID)
		h.broadcast(c.roomID, protocol.ClearEvent{Type: protocol.TypeClearCanvas}, nil)
	}
}

// applyHistory covers both undo paths the protocol allows: a client that
// computed its own post-undo snapshot commits it (last write wins, no
// server-side verification), a client that sent none walks the
// server-side cursor instead.
func (h *Hub) applyHistory(roomID string, ev *protocol.Inbound) ([]byte, bool) {
	if ev.CanvasState != "" {
		snapshot := []byte(ev.CanvasState)
		h.history.CommitSnapshot(roomID, snapshot)
		return snapshot, true
	}
	if ev.Type == protocol.TypeUndo {
		return h.history.Undo(roomID)
	}
	return h.history.Redo(roomID)
}

func (h *Hub) roster(roomID string) protocol.Roster {
	members := h.registry.MembersOf(roomID)
	users := make([]protocol.UserInfo, 0, len(members))
	for _, m := range members {
		users = append(users, protocol.UserInfo{ID: m.ID, Username: m.Username, Color: m.Color})
	}
	return protocol.Roster{Type: protocol.TypeUsers, Users: users}
}

// broadcast queues the event to every client in the room except skip.
// Delivery is per-recipient fire-and-forget: a client whose send buffer
// is full misses the message, and the rest still get theirs.
func (h *Hub) broadcast(roomID string, event any, skip *Client) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to encode %T: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[roomID] {
		if client == skip {
			continue
		}
		select {
		case client.send <- data:
		default:
		}
	}
}

func (h *Hub) send(c *Client, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to encode %T: %v", event, err)
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// GetRoomCount returns the number of rooms with at least one connection.
func (h *Hub) GetRoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, clients := range h.rooms {
		count += len(clients)
	}
	return count
}

// GetActiveRooms maps room IDs to their connection counts.
func (h *Hub) GetActiveRooms() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	active := make(map[string]int, len(h.rooms))
	for roomID, clients := range h.rooms {
		active[roomID] = len(clients)
	}
	return active
}
