package protocol

import (
	"encoding/json"
	"testing"
)

func TestParseDrawStart(t *testing.T) {
	data := []byte(`{"type":"draw-start","point":{"x":10,"y":20,"color":"#000000","width":3,"tool":"pen"}}`)

	ev, err := ParseInbound(data)
	if err != nil {
		t.Fatalf("Failed to parse draw-start: %v", err)
	}
	if ev.Type != TypeDrawStart {
		t.Errorf("Expected type draw-start, got %s", ev.Type)
	}
	if ev.Point == nil {
		t.Fatal("Point should be set")
	}
	if ev.Point.X != 10 || ev.Point.Y != 20 {
		t.Errorf("Point mismatch: got (%v, %v)", ev.Point.X, ev.Point.Y)
	}
	if ev.Point.Tool != "pen" {
		t.Errorf("Expected tool 'pen', got '%s'", ev.Point.Tool)
	}
}

func TestParseDrawMove(t *testing.T) {
	data := []byte(`{"type":"draw-move","points":[{"x":1,"y":2},{"x":3,"y":4}]}`)

	ev, err := ParseInbound(data)
	if err != nil {
		t.Fatalf("Failed to parse draw-move: %v", err)
	}
	if len(ev.Points) != 2 {
		t.Errorf("Expected 2 points, got %d", len(ev.Points))
	}
}

func TestParseCursorMove(t *testing.T) {
	ev, err := ParseInbound([]byte(`{"type":"cursor-move","x":0,"y":0}`))
	if err != nil {
		t.Fatalf("Failed to parse cursor-move: %v", err)
	}
	if ev.X != 0 || ev.Y != 0 {
		t.Errorf("Coordinate mismatch: got (%v, %v)", ev.X, ev.Y)
	}
}

func TestParseUndoWithoutSnapshot(t *testing.T) {
	ev, err := ParseInbound([]byte(`{"type":"undo"}`))
	if err != nil {
		t.Fatalf("undo without canvasState should be valid: %v", err)
	}
	if ev.CanvasState != "" {
		t.Errorf("Expected empty canvasState, got %q", ev.CanvasState)
	}
}

func TestParseUndoWithSnapshot(t *testing.T) {
	ev, err := ParseInbound([]byte(`{"type":"undo","canvasState":"data:image/png;base64,AAAA"}`))
	if err != nil {
		t.Fatalf("Failed to parse undo: %v", err)
	}
	if ev.CanvasState != "data:image/png;base64,AAAA" {
		t.Errorf("canvasState mismatch: %q", ev.CanvasState)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{{{`},
		{"unknown type", `{"type":"teleport"}`},
		{"empty type", `{}`},
		{"draw-start without point", `{"type":"draw-start"}`},
		{"draw-move without points", `{"type":"draw-move"}`},
		{"draw-move empty points", `{"type":"draw-move","points":[]}`},
		{"draw-end without path", `{"type":"draw-end"}`},
		{"draw-end empty path", `{"type":"draw-end","path":[]}`},
		{"cursor-move missing x", `{"type":"cursor-move","y":5}`},
		{"cursor-move missing y", `{"type":"cursor-move","x":5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseInbound([]byte(tt.data)); err == nil {
				t.Errorf("Expected error for %s", tt.name)
			}
		})
	}
}

func TestOutboundRoundTrip(t *testing.T) {
	out := StrokeEvent{
		Type:      TypeDrawEnd,
		UserID:    "u1",
		Path:      []StrokePoint{{X: 1, Y: 2, Color: "#fff", Width: 2, Tool: "pen"}},
		Timestamp: 1234,
	}

	data, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if decoded["type"] != TypeDrawEnd {
		t.Errorf("Expected type draw-end, got %v", decoded["type"])
	}
	if decoded["userId"] != "u1" {
		t.Errorf("Expected userId u1, got %v", decoded["userId"])
	}
	if _, ok := decoded["point"]; ok {
		t.Error("Unset point should be omitted")
	}
}
