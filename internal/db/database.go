// Package db archives completed stroke operations to sqlite for
// diagnostics. The archive is write-mostly: the server never reads it
// back to reconstruct canvas state, and a restarted process starts with
// empty rooms regardless of what the archive holds.
package db

import (
	"database/sql"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Keep at most this many archived strokes per room.
const maxArchivedOperations = 500

type Database struct {
	db *sql.DB
}

type Room struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// Operation is an archived completed stroke.
type Operation struct {
	ID        int64           `json:"id"`
	RoomID    string          `json:"room_id"`
	UserID    string          `json:"user_id"`
	Path      json.RawMessage `json:"path"`
	CreatedAt time.Time       `json:"created_at"`
}

func New(dbPath string) (*Database, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	log.Printf("Archive database initialized at %s", dbPath)
	return &Database{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_active DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS stroke_operations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		room_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		path TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_stroke_operations_room_id ON stroke_operations(room_id);
	`

	_, err := db.Exec(schema)
	return err
}

func (d *Database) Close() error {
	return d.db.Close()
}

// TouchRoom records the room and bumps its last-active timestamp.
func (d *Database) TouchRoom(id string) error {
	if _, err := d.db.Exec("INSERT OR IGNORE INTO rooms (id) VALUES (?)", id); err != nil {
		return err
	}
	_, err := d.db.Exec(
		"UPDATE rooms SET last_active = CURRENT_TIMESTAMP WHERE id = ?",
		id,
	)
	return err
}

func (d *Database) GetRoom(id string) (*Room, error) {
	row := d.db.QueryRow(
		"SELECT id, created_at, last_active FROM rooms WHERE id = ?",
		id,
	)

	var room Room
	err := row.Scan(&room.ID, &room.CreatedAt, &room.LastActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (d *Database) ListRooms(limit, offset int) ([]Room, error) {
	rows, err := d.db.Query(
		"SELECT id, created_at, last_active FROM rooms ORDER BY last_active DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		var room Room
		if err := rows.Scan(&room.ID, &room.CreatedAt, &room.LastActive); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// SaveOperation archives one completed stroke and trims the room's
// oldest entries past the retention cap.
func (d *Database) SaveOperation(roomID, userID string, path []byte) error {
	if err := d.TouchRoom(roomID); err != nil {
		return err
	}

	_, err := d.db.Exec(
		"INSERT INTO stroke_operations (room_id, user_id, path) VALUES (?, ?, ?)",
		roomID, userID, string(path),
	)
	if err != nil {
		return err
	}

	return d.trimOperations(roomID, maxArchivedOperations)
}

func (d *Database) trimOperations(roomID string, keepCount int) error {
	_, err := d.db.Exec(`
		DELETE FROM stroke_operations
		WHERE room_id = ? AND id NOT IN (
			SELECT id FROM stroke_operations
			WHERE room_id = ?
			ORDER BY id DESC
			LIMIT ?
		)
	`, roomID, roomID, keepCount)
	return err
}

// ListOperations returns archived strokes for a room, newest first.
func (d *Database) ListOperations(roomID string, limit, offset int) ([]Operation, error) {
	rows, err := d.db.Query(`
		SELECT id, room_id, user_id, path, created_at
		FROM stroke_operations
		WHERE room_id = ?
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`, roomID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ops []Operation
	for rows.Next() {
		var op Operation
		var path string
		if err := rows.Scan(&op.ID, &op.RoomID, &op.UserID, &path, &op.CreatedAt); err != nil {
			return nil, err
		}
		op.Path = json.RawMessage(path)
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

func (d *Database) CountOperations(roomID string) (int, error) {
	var count int
	err := d.db.QueryRow(
		"SELECT COUNT(*) FROM stroke_operations WHERE room_id = ?",
		roomID,
	).Scan(&count)
	return count, err
}

// Stats

func (d *Database) GetStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var roomCount int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM rooms").Scan(&roomCount); err != nil {
		return nil, err
	}
	stats["room_count"] = roomCount

	var operationCount int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM stroke_operations").Scan(&operationCount); err != nil {
		return nil, err
	}
	stats["operation_count"] = operationCount

	return stats, nil
}
