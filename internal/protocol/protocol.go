package protocol

import (
	"encoding/json"
	"fmt"
)

// Event type tags. Inbound and outbound events share the same envelope:
// a JSON object whose "type" field selects the variant.
const (
	TypeDrawStart   = "draw-start"
	TypeDrawMove    = "draw-move"
	TypeDrawEnd     = "draw-end"
	TypeCursorMove  = "cursor-move"
	TypeUndo        = "undo"
	TypeRedo        = "redo"
	TypeClearCanvas = "clear-canvas"

	TypeInit       = "init"
	TypeUsers      = "users"
	TypeUserJoined = "user-joined"
	TypeUserLeft   = "user-left"
)

// Logical canvas space. Clients map display pixels into these units
// before sending; the server never validates coordinates against them.
const (
	CanvasWidth  = 1200
	CanvasHeight = 700
)

// Point is a bare canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// StrokePoint carries the brush attributes alongside the coordinate.
type StrokePoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color"`
	Width float64 `json:"width"`
	Tool  string  `json:"tool"`
}

// UserInfo describes one connected user in roster messages.
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Color    string `json:"color"`
}

type envelope struct {
	Type        string        `json:"type"`
	Point       *StrokePoint  `json:"point"`
	Points      []Point       `json:"points"`
	Path        []StrokePoint `json:"path"`
	X           *float64      `json:"x"`
	Y           *float64      `json:"y"`
	CanvasState string        `json:"canvasState"`
}

// Inbound is a validated client event. Only the fields relevant to Type
// are populated.
type Inbound struct {
	Type        string
	Point       *StrokePoint  // draw-start
	Points      []Point       // draw-move
	Path        []StrokePoint // draw-end
	X, Y        float64       // cursor-move
	CanvasState string        // undo, redo (optional)
}

// ParseInbound decodes and validates a raw client message. Anything that
// does not match a known variant shape comes back as an error; callers
// drop such events without side effects.
func ParseInbound(data []byte) (*Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed event: %w", err)
	}

	switch env.Type {
	case TypeDrawStart:
		if env.Point == nil {
			return nil, fmt.Errorf("draw-start: missing point")
		}
		return &Inbound{Type: env.Type, Point: env.Point}, nil
	case TypeDrawMove:
		if len(env.Points) == 0 {
			return nil, fmt.Errorf("draw-move: missing points")
		}
		return &Inbound{Type: env.Type, Points: env.Points}, nil
	case TypeDrawEnd:
		if len(env.Path) == 0 {
			return nil, fmt.Errorf("draw-end: empty path")
		}
		return &Inbound{Type: env.Type, Path: env.Path}, nil
	case TypeCursorMove:
		if env.X == nil || env.Y == nil {
			return nil, fmt.Errorf("cursor-move: missing coordinates")
		}
		return &Inbound{Type: env.Type, X: *env.X, Y: *env.Y}, nil
	case TypeUndo, TypeRedo:
		// canvasState is optional: without it the server walks its own
		// history cursor instead of committing a client-computed state.
		return &Inbound{Type: env.Type, CanvasState: env.CanvasState}, nil
	case TypeClearCanvas:
		return &Inbound{Type: env.Type}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
}

// Outbound events. Each carries its own type tag so it can be handed
// straight to json.Marshal.

// Init is the first message a new connection receives.
type Init struct {
	Type        string `json:"type"`
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	Color       string `json:"color"`
	CanvasState string `json:"canvasState,omitempty"`
}

// Roster is the full member list of a room, sent after joins and leaves.
type Roster struct {
	Type  string     `json:"type"`
	Users []UserInfo `json:"users"`
}

type UserJoined struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	Username string `json:"username"`
	Color    string `json:"color"`
}

type UserLeft struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// StrokeEvent relays draw-start, draw-move and draw-end; the type tag
// decides which of the payload fields is set.
type StrokeEvent struct {
	Type      string        `json:"type"`
	UserID    string        `json:"userId"`
	Point     *StrokePoint  `json:"point,omitempty"`
	Points    []Point       `json:"points,omitempty"`
	Path      []StrokePoint `json:"path,omitempty"`
	Timestamp int64         `json:"timestamp"`
}

type CursorEvent struct {
	Type   string  `json:"type"`
	UserID string  `json:"userId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// HistoryEvent echoes an undo or redo, including to its sender, so every
// client converges on the authoritative snapshot.
type HistoryEvent struct {
	Type        string `json:"type"`
	UserID      string `json:"userId"`
	CanvasState string `json:"canvasState,omitempty"`
}

type ClearEvent struct {
	Type string `json:"type"`
}
