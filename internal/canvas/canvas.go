// Package canvas holds the canonical drawing state for every room: a
// bounded undo/redo stack of opaque snapshots plus a bounded log of raw
// stroke operations. Snapshots are encoded bitmaps produced by clients;
// the store never decodes them.
package canvas

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	// MaxHistory bounds each room's undo stack.
	MaxHistory = 100

	// maxOperations bounds the raw stroke log.
	maxOperations = 2 * MaxHistory
)

// HistoryEntry is one committed canvas state. A nil Snapshot marks a
// cleared canvas.
type HistoryEntry struct {
	Snapshot  []byte
	Timestamp time.Time
}

// Operation is a completed stroke as reported by a client. The path is
// kept opaque; the log is diagnostic only and is never consulted to
// rebuild canvas state, so it may diverge from the snapshot history
// after undo/redo.
type Operation struct {
	UserID    string          `json:"userId"`
	Path      json.RawMessage `json:"path"`
	Timestamp time.Time       `json:"timestamp"`
}

// Stats is a read-only view of one room's state.
type Stats struct {
	HistoryLen  int  `json:"history_len"`
	Cursor      int  `json:"cursor"`
	Operations  int  `json:"operations"`
	HasSnapshot bool `json:"has_snapshot"`
	CanUndo     bool `json:"can_undo"`
	CanRedo     bool `json:"can_redo"`
}

type roomState struct {
	current []byte
	history []HistoryEntry
	cursor  int
	ops     []Operation
}

// Store maps room IDs to their drawing state. State auto-vivifies on
// first touch and is mutated in event-arrival order; the most recent
// commit unconditionally wins, with no merging.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*roomState
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{
		rooms: make(map[string]*roomState),
		now:   time.Now,
	}
}

// state must be called with s.mu held.
func (s *Store) state(roomID string) *roomState {
	st, ok := s.rooms[roomID]
	if !ok {
		st = &roomState{cursor: -1}
		s.rooms[roomID] = st
	}
	return st
}

// CurrentSnapshot returns the room's snapshot at the history cursor, or
// nil if the room has no history or sits on a clear marker.
func (s *Store) CurrentSnapshot(roomID string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.rooms[roomID]; ok {
		return st.current
	}
	return nil
}

// CommitSnapshot pushes a new canvas state onto the room's undo stack:
// any redo branch beyond the cursor is pruned, the oldest entry is
// evicted once the stack is full, and the cursor lands on the new entry.
func (s *Store) CommitSnapshot(roomID string, snapshot []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state(roomID).commit(snapshot, s.now())
}

func (st *roomState) commit(snapshot []byte, now time.Time) {
	if st.cursor < len(st.history)-1 {
		st.history = st.history[:st.cursor+1]
	}
	st.history = append(st.history, HistoryEntry{Snapshot: snapshot, Timestamp: now})
	if len(st.history) > MaxHistory {
		st.history = st.history[1:]
	}
	st.cursor = len(st.history) - 1
	st.current = snapshot
}

// RecordOperation appends a completed stroke to the room's operation
// log, trimming the oldest entries past the cap. It never touches the
// snapshot history: clients decide independently when to commit.
func (s *Store) RecordOperation(roomID, userID string, path json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(roomID)
	st.ops = append(st.ops, Operation{UserID: userID, Path: path, Timestamp: s.now()})
	if len(st.ops) > maxOperations {
		st.ops = st.ops[len(st.ops)-maxOperations:]
	}
}

// Undo steps the cursor back one entry and returns the snapshot now at
// the cursor. The second value is false when there is nothing to undo;
// a true result with a nil snapshot means the cursor landed on a clear
// marker.
func (s *Store) Undo(roomID string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(roomID)
	if st.cursor <= 0 {
		return nil, false
	}
	st.cursor--
	st.current = st.history[st.cursor].Snapshot
	return st.current, true
}

// Redo mirrors Undo, stepping the cursor forward.
func (s *Store) Redo(roomID string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(roomID)
	if st.cursor < 0 || st.cursor >= len(st.history)-1 {
		return nil, false
	}
	st.cursor++
	st.current = st.history[st.cursor].Snapshot
	return st.current, true
}

// ClearCanvas wipes the room: the operation log is emptied and a clear
// marker is committed through the normal undo-stack path, so the clear
// itself can be undone.
func (s *Store) ClearCanvas(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(roomID)
	st.ops = nil
	st.commit(nil, s.now())
}

// RecentOperations returns a copy of the room's operation log, newest
// last.
func (s *Store) RecentOperations(roomID string) []Operation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.rooms[roomID]
	if !ok {
		return []Operation{}
	}
	ops := make([]Operation, len(st.ops))
	copy(ops, st.ops)
	return ops
}

// StatsOf is a read-only diagnostic view; it does not vivify the room.
func (s *Store) StatsOf(roomID string) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.rooms[roomID]
	if !ok {
		return Stats{Cursor: -1}
	}
	return Stats{
		HistoryLen:  len(st.history),
		Cursor:      st.cursor,
		Operations:  len(st.ops),
		HasSnapshot: st.current != nil,
		CanUndo:     st.cursor > 0,
		CanRedo:     st.cursor >= 0 && st.cursor < len(st.history)-1,
	}
}
