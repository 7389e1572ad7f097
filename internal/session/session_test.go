package session

import (
	"strings"
	"testing"
)

func TestNextAssignsUniqueIDs(t *testing.T) {
	a := NewAssigner()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := a.Next().ID
		if id == "" {
			t.Fatal("Identity ID should not be empty")
		}
		if seen[id] {
			t.Fatalf("Duplicate ID assigned: %s", id)
		}
		seen[id] = true
	}
}

func TestColorRoundRobin(t *testing.T) {
	a := NewAssigner()

	first := make([]string, len(palette))
	for i := range first {
		first[i] = a.Next().Color
		if first[i] != palette[i] {
			t.Errorf("User %d: expected color %s, got %s", i, palette[i], first[i])
		}
	}

	// The palette cycles: user N+1 reuses palette[0].
	if got := a.Next().Color; got != palette[0] {
		t.Errorf("Expected palette to wrap to %s, got %s", palette[0], got)
	}
}

func TestUsernameShape(t *testing.T) {
	a := NewAssigner()

	for i := 0; i < 20; i++ {
		name := a.Next().Username
		parts := strings.Split(name, "-")
		if len(parts) != 3 {
			t.Fatalf("Expected adjective-noun-number, got %q", name)
		}
		if parts[0] == "" || parts[1] == "" || parts[2] == "" {
			t.Errorf("Username has empty segment: %q", name)
		}
	}
}
