package registry

import (
	"sync"
	"time"
)

// Member is a user currently present in a room.
type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Color    string `json:"color"`
}

type room struct {
	members   map[string]Member
	createdAt time.Time
}

// Registry tracks which users belong to which room. Rooms are created
// lazily on first join and are only ever removed by the idle sweep, so a
// brief all-disconnect window (page refresh) does not destroy the room.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
	now   func() time.Time
}

func New() *Registry {
	return &Registry{
		rooms: make(map[string]*room),
		now:   time.Now,
	}
}

// Join upserts the member into the room, creating the room if absent.
func (r *Registry) Join(roomID string, m Member) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		rm = &room{
			members:   make(map[string]Member),
			createdAt: r.now(),
		}
		r.rooms[roomID] = rm
	}
	rm.members[m.ID] = m
}

// Leave removes the member if present and reports whether a removal
// actually happened. Unknown rooms and users are a no-op.
func (r *Registry) Leave(roomID, userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	if _, ok := rm.members[userID]; !ok {
		return false
	}
	delete(rm.members, userID)
	return true
}

// MembersOf returns a copy of the room's member list. Ordering is not
// stable between calls.
func (r *Registry) MembersOf(roomID string) []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return []Member{}
	}
	members := make([]Member, 0, len(rm.members))
	for _, m := range rm.members {
		members = append(members, m)
	}
	return members
}

func (r *Registry) CountOf(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return 0
	}
	return len(rm.members)
}

// AllRooms returns the IDs of every tracked room, members or not.
func (r *Registry) AllRooms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	return ids
}

// SweepIdleEmptyRooms removes rooms that have no members and are older
// than maxAge, returning how many were removed. A room with members
// survives regardless of age; membership is re-checked under the lock so
// the sweep can never race a concurrent join.
func (r *Registry) SweepIdleEmptyRooms(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxAge)
	removed := 0
	for id, rm := range r.rooms {
		if len(rm.members) == 0 && rm.createdAt.Before(cutoff) {
			delete(r.rooms, id)
			removed++
		}
	}
	return removed
}
