// Package database is the SQLite-backed event log: the concrete
// implementation behind the SQL binder handler's "execute templated
// statement on event X" contract (spec §1, §4.6), plus persistence for the
// config registry's runtime overrides.
package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Database wraps the SQLite connection shared by the SQL binder handler
// across every camera. The connection is serialized internally by
// database/sql's pool; callers do not need their own mutex (spec §5:
// "the SQL connection is serialized by an internal mutex").
type Database struct {
	db *sql.DB
}

// EventLogRecord is one row written by the SQL binder handler when a
// dispatched EventCall matches the camera's sql_mask (spec §4.6).
type EventLogRecord struct {
	ID            string
	CameraID      string
	Kind          string
	EventID       uint64
	FilePath      string
	FileType      int
	ChangedPixels uint32
	Timestamp     time.Time
}

// ConfigRecord is one persisted config override, keyed by parameter name.
type ConfigRecord struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// New opens dbPath, enabling WAL mode and foreign keys as the teacher's
// connection setup does.
func New(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", dbPath, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("database: enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("database: enable foreign keys: %w", err)
	}
	return &Database{db: db}, nil
}

// Close closes the underlying connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Migrate is idempotent: CREATE TABLE IF NOT EXISTS plus ALTER TABLE ADD
// COLUMN migrations that tolerate "duplicate column" on repeat runs,
// matching the teacher's migration style.
func (d *Database) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS event_log (
			id TEXT PRIMARY KEY,
			camera_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			event_id INTEGER NOT NULL,
			file_path TEXT,
			file_type INTEGER DEFAULT 0,
			changed_pixels INTEGER DEFAULT 0,
			timestamp DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_event_log_camera_time ON event_log(camera_id, timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_event_log_event_id ON event_log(camera_id, event_id)`,
		`ALTER TABLE event_log ADD COLUMN changed_pixels INTEGER DEFAULT 0`,
		`CREATE TABLE IF NOT EXISTS config_values (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, migration := range migrations {
		if _, err := d.db.Exec(migration); err != nil {
			if strings.Contains(err.Error(), "duplicate column") {
				continue
			}
			return fmt.Errorf("database: migration failed: %w", err)
		}
	}
	return nil
}

// InsertEvent writes an event_log audit row and returns its SQLite rowid;
// the %{dbeventid} value comes from ExecTemplate instead (spec §6). Per the open
// question in spec §9, callers must treat the returned id as best-effort:
// nothing else in dispatch depends on it being non-zero.
func (d *Database) InsertEvent(rec EventLogRecord) (int64, error) {
	res, err := d.db.Exec(
		`INSERT INTO event_log (id, camera_id, kind, event_id, file_path, file_type, changed_pixels, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CameraID, rec.Kind, rec.EventID, rec.FilePath, rec.FileType, rec.ChangedPixels, rec.Timestamp,
	)
	if err != nil {
		return 0, fmt.Errorf("database: insert event: %w", err)
	}
	return res.LastInsertId()
}

// ListEvents returns event_log rows for a camera, most recent first,
// bounded by limit (0 = unbounded).
func (d *Database) ListEvents(cameraID string, limit int) ([]EventLogRecord, error) {
	query := `SELECT id, camera_id, kind, event_id, file_path, file_type, changed_pixels, timestamp
		FROM event_log WHERE camera_id = ? ORDER BY timestamp DESC`
	args := []any{cameraID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("database: list events: %w", err)
	}
	defer rows.Close()

	var out []EventLogRecord
	for rows.Next() {
		var r EventLogRecord
		if err := rows.Scan(&r.ID, &r.CameraID, &r.Kind, &r.EventID, &r.FilePath, &r.FileType, &r.ChangedPixels, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("database: scan event: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

// DeleteOldEvents removes rows older than before, for retention cleanup.
func (d *Database) DeleteOldEvents(before time.Time) (int64, error) {
	res, err := d.db.Exec("DELETE FROM event_log WHERE timestamp < ?", before)
	if err != nil {
		return 0, fmt.Errorf("database: delete old events: %w", err)
	}
	return res.RowsAffected()
}

// SaveConfig upserts a config override into config_values. The config
// registry's EditSet does not call it.
func (d *Database) SaveConfig(key, value string) error {
	_, err := d.db.Exec(
		`INSERT INTO config_values (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("database: save config %s: %w", key, err)
	}
	return nil
}

// ListConfigs returns every persisted config override.
func (d *Database) ListConfigs() (map[string]string, error) {
	rows, err := d.db.Query("SELECT key, value FROM config_values")
	if err != nil {
		return nil, fmt.Errorf("database: list configs: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("database: scan config: %w", err)
		}
		out[k] = v
	}
	return out, nil
}

// ExecTemplate runs a strftime_plus-expanded SQL statement (sql_query,
// sql_query_start, sql_query_stop) and, when it was an INSERT, returns the
// inserted rowid for %{dbeventid}. On a connection-lost class error
// (SQLite reports these as plain driver errors, so this implementation
// treats any error as potentially transient) the caller is responsible for
// the single-retry policy in spec §7; ExecTemplate itself runs the statement
// once and returns the error without retrying.
func (d *Database) ExecTemplate(query string) (int64, error) {
	res, err := d.db.Exec(query)
	if err != nil {
		return 0, fmt.Errorf("database: exec template: %w", err)
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// Reconnect closes and reopens the connection against the same DSN, used
// by the SQL binder handler's one-retry-then-drop policy (spec §7).
func (d *Database) Reconnect(dbPath string) error {
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("database: close before reconnect: %w", err)
	}
	fresh, err := New(dbPath)
	if err != nil {
		return err
	}
	d.db = fresh.db
	return nil
}
