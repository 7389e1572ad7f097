package canvas

import (
	"bytes"
	"fmt"
	"testing"
)

func snap(s string) []byte { return []byte(s) }

func TestCommitAndCurrentSnapshot(t *testing.T) {
	s := NewStore()

	if got := s.CurrentSnapshot("r1"); got != nil {
		t.Errorf("Empty room should have nil snapshot, got %q", got)
	}

	s.CommitSnapshot("r1", snap("A"))
	if got := s.CurrentSnapshot("r1"); !bytes.Equal(got, snap("A")) {
		t.Errorf("Expected snapshot A, got %q", got)
	}

	stats := s.StatsOf("r1")
	if stats.HistoryLen != 1 || stats.Cursor != 0 {
		t.Errorf("Expected history [A] cursor 0, got len=%d cursor=%d", stats.HistoryLen, stats.Cursor)
	}
}

func TestUndoRedoWalk(t *testing.T) {
	s := NewStore()
	s.CommitSnapshot("r1", snap("A"))
	s.CommitSnapshot("r1", snap("B"))

	got, ok := s.Undo("r1")
	if !ok || !bytes.Equal(got, snap("A")) {
		t.Fatalf("Undo should return A, got %q ok=%v", got, ok)
	}

	got, ok = s.Redo("r1")
	if !ok || !bytes.Equal(got, snap("B")) {
		t.Fatalf("Redo should return B, got %q ok=%v", got, ok)
	}
}

func TestUndoAtFloorIsNoop(t *testing.T) {
	s := NewStore()

	if _, ok := s.Undo("r1"); ok {
		t.Error("Undo on empty room should be a no-op")
	}

	s.CommitSnapshot("r1", snap("A"))
	if _, ok := s.Undo("r1"); ok {
		t.Error("Undo at cursor 0 should be a no-op")
	}
	if got := s.CurrentSnapshot("r1"); !bytes.Equal(got, snap("A")) {
		t.Errorf("No-op undo must not change current snapshot, got %q", got)
	}
}

func TestRedoAtTailIsNoop(t *testing.T) {
	s := NewStore()

	if _, ok := s.Redo("r1"); ok {
		t.Error("Redo on empty room should be a no-op")
	}

	s.CommitSnapshot("r1", snap("A"))
	if _, ok := s.Redo("r1"); ok {
		t.Error("Redo at the tail should be a no-op")
	}
}

// Committing after an undo prunes the redo branch: the discarded future
// entries must be unreachable by any later redo.
func TestCommitPrunesRedoBranch(t *testing.T) {
	s := NewStore()
	s.CommitSnapshot("r1", snap("A"))
	s.CommitSnapshot("r1", snap("B"))

	got, ok := s.Undo("r1")
	if !ok || !bytes.Equal(got, snap("A")) {
		t.Fatalf("Undo should return A, got %q", got)
	}

	s.CommitSnapshot("r1", snap("C"))

	if _, ok := s.Redo("r1"); ok {
		t.Error("Redo after a fresh commit should be a no-op (B was pruned)")
	}

	stats := s.StatsOf("r1")
	if stats.HistoryLen != 2 || stats.Cursor != 1 {
		t.Errorf("Expected history [A C] cursor 1, got len=%d cursor=%d", stats.HistoryLen, stats.Cursor)
	}
	if got := s.CurrentSnapshot("r1"); !bytes.Equal(got, snap("C")) {
		t.Errorf("Expected current snapshot C, got %q", got)
	}

	got, ok = s.Undo("r1")
	if !ok || !bytes.Equal(got, snap("A")) {
		t.Errorf("Undo from C should return A, got %q", got)
	}
}

func TestBoundedHistoryEvictsOldest(t *testing.T) {
	s := NewStore()

	for i := 0; i <= MaxHistory; i++ {
		s.CommitSnapshot("r1", snap(fmt.Sprintf("s%d", i)))
	}

	stats := s.StatsOf("r1")
	if stats.HistoryLen != MaxHistory {
		t.Errorf("Expected history capped at %d, got %d", MaxHistory, stats.HistoryLen)
	}
	if stats.Cursor != MaxHistory-1 {
		t.Errorf("Expected cursor %d, got %d", MaxHistory-1, stats.Cursor)
	}
	if got := s.CurrentSnapshot("r1"); !bytes.Equal(got, snap(fmt.Sprintf("s%d", MaxHistory))) {
		t.Errorf("Newest snapshot should be current, got %q", got)
	}

	// Walk all the way back: the floor must be s1, not the evicted s0.
	var last []byte
	for {
		got, ok := s.Undo("r1")
		if !ok {
			break
		}
		last = got
	}
	if !bytes.Equal(last, snap("s1")) {
		t.Errorf("Oldest reachable snapshot should be s1, got %q", last)
	}
}

func TestCursorBoundsInvariant(t *testing.T) {
	s := NewStore()

	check := func(step string) {
		t.Helper()
		stats := s.StatsOf("r1")
		if stats.HistoryLen == 0 && stats.Cursor != -1 {
			t.Fatalf("%s: empty history must have cursor -1, got %d", step, stats.Cursor)
		}
		if stats.HistoryLen > 0 && (stats.Cursor < 0 || stats.Cursor >= stats.HistoryLen) {
			t.Fatalf("%s: cursor %d out of bounds for history len %d", step, stats.Cursor, stats.HistoryLen)
		}
	}

	check("initial")
	for i := 0; i < 5; i++ {
		s.CommitSnapshot("r1", snap(fmt.Sprintf("s%d", i)))
		check("commit")
	}
	for i := 0; i < 10; i++ {
		s.Undo("r1")
		check("undo")
	}
	for i := 0; i < 10; i++ {
		s.Redo("r1")
		check("redo")
	}
	s.ClearCanvas("r1")
	check("clear")
}

func TestClearCanvas(t *testing.T) {
	s := NewStore()
	s.CommitSnapshot("r1", snap("A"))
	s.RecordOperation("r1", "u1", []byte(`[]`))

	s.ClearCanvas("r1")

	if got := s.CurrentSnapshot("r1"); got != nil {
		t.Errorf("Cleared canvas should have nil snapshot, got %q", got)
	}

	stats := s.StatsOf("r1")
	if stats.Operations != 0 {
		t.Errorf("Clear should empty the operation log, got %d entries", stats.Operations)
	}
	if stats.HistoryLen != 2 {
		t.Errorf("Clear marker should be a history entry, got len %d", stats.HistoryLen)
	}

	// The clear itself is undoable.
	got, ok := s.Undo("r1")
	if !ok || !bytes.Equal(got, snap("A")) {
		t.Errorf("Undo of clear should return A, got %q ok=%v", got, ok)
	}

	// And redo lands back on the clear marker: success, nil snapshot.
	got, ok = s.Redo("r1")
	if !ok {
		t.Error("Redo onto clear marker should succeed")
	}
	if got != nil {
		t.Errorf("Clear marker snapshot should be nil, got %q", got)
	}
}

func TestOperationLogBounded(t *testing.T) {
	s := NewStore()

	for i := 0; i < maxOperations+50; i++ {
		s.RecordOperation("r1", "u1", []byte(fmt.Sprintf(`[{"x":%d}]`, i)))
	}

	ops := s.RecentOperations("r1")
	if len(ops) != maxOperations {
		t.Fatalf("Expected operation log capped at %d, got %d", maxOperations, len(ops))
	}
	// Oldest entries were trimmed.
	if string(ops[0].Path) != fmt.Sprintf(`[{"x":%d}]`, 50) {
		t.Errorf("Expected oldest surviving op to be #50, got %s", ops[0].Path)
	}
	if string(ops[len(ops)-1].Path) != fmt.Sprintf(`[{"x":%d}]`, maxOperations+49) {
		t.Errorf("Newest op missing, got %s", ops[len(ops)-1].Path)
	}
}

func TestOperationsDoNotTouchHistory(t *testing.T) {
	s := NewStore()
	s.RecordOperation("r1", "u1", []byte(`[]`))

	stats := s.StatsOf("r1")
	if stats.HistoryLen != 0 || stats.Cursor != -1 {
		t.Errorf("Recording an operation must not feed the undo stack, got len=%d cursor=%d",
			stats.HistoryLen, stats.Cursor)
	}
}

func TestRoomsAreIsolated(t *testing.T) {
	s := NewStore()
	s.CommitSnapshot("r1", snap("A"))
	s.CommitSnapshot("r2", snap("B"))

	if got := s.CurrentSnapshot("r1"); !bytes.Equal(got, snap("A")) {
		t.Errorf("Room r1: expected A, got %q", got)
	}
	if got := s.CurrentSnapshot("r2"); !bytes.Equal(got, snap("B")) {
		t.Errorf("Room r2: expected B, got %q", got)
	}
}

func TestStatsOfUnknownRoom(t *testing.T) {
	s := NewStore()

	stats := s.StatsOf("nope")
	if stats.Cursor != -1 || stats.HistoryLen != 0 {
		t.Errorf("Unknown room stats should be empty, got %+v", stats)
	}
}
