package session

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
)

// Colors cycled through as users connect.
var palette = []string{
	"#e74c3c", "#3498db", "#2ecc71", "#f39c12",
	"#9b59b6", "#1abc9c", "#e67e22", "#34495e",
}

var adjectives = []string{
	"brave", "calm", "clever", "eager", "gentle", "happy", "jolly", "keen",
	"lively", "merry", "nimble", "proud", "quick", "quiet", "sunny", "witty",
}

var nouns = []string{
	"otter", "falcon", "badger", "heron", "lynx", "marmot", "osprey", "puffin",
	"raven", "stoat", "tapir", "vole", "walrus", "wombat", "ibex", "gecko",
}

// Identity is what a connection is known as for its lifetime. A refreshed
// connection gets a brand new identity; there is no re-identification.
type Identity struct {
	ID       string
	Username string
	Color    string
}

// Assigner hands out identities for new connections.
type Assigner struct {
	mu         sync.Mutex
	colorIndex int
}

func NewAssigner() *Assigner {
	return &Assigner{}
}

// Next returns the identity for a new connection. Usernames are display
// only and may collide; the ID is the unique handle.
func (a *Assigner) Next() Identity {
	a.mu.Lock()
	color := palette[a.colorIndex%len(palette)]
	a.colorIndex++
	a.mu.Unlock()

	return Identity{
		ID:       uuid.NewString(),
		Username: generateUsername(),
		Color:    color,
	}
}

func generateUsername() string {
	return fmt.Sprintf("%s-%s-%d",
		adjectives[rand.Intn(len(adjectives))],
		nouns[rand.Intn(len(nouns))],
		rand.Intn(100))
}
