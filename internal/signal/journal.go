package signal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

// Journal persists the latest signal per session in SQLite so the
// dashboard can show last-known states across a server restart. A file
// lock guards against two servers journaling into the same database.
type Journal struct {
	db   *sql.DB
	lock *flock.Flock
}

const journalSchema = `
CREATE TABLE IF NOT EXISTS signals (
	session     TEXT PRIMARY KEY,
	id          TEXT NOT NULL,
	type        TEXT NOT NULL,
	timestamp   TEXT NOT NULL,
	data        TEXT,
	received_at TEXT NOT NULL
);
`

// OpenJournal opens (creating if needed) the signal journal at path.
func OpenJournal(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking journal: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("journal %s is locked by another process", path)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL")
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	if _, err := db.Exec(journalSchema); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("initializing journal schema: %w", err)
	}

	return &Journal{db: db, lock: lock}, nil
}

// Save upserts the latest record for the signal's session.
func (j *Journal) Save(rec Record) error {
	var data []byte
	if rec.Signal.Data != nil {
		var err error
		data, err = json.Marshal(rec.Signal.Data)
		if err != nil {
			return fmt.Errorf("encoding signal data: %w", err)
		}
	}

	_, err := j.db.Exec(`
		INSERT INTO signals (session, id, type, timestamp, data, received_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session) DO UPDATE SET
			id = excluded.id,
			type = excluded.type,
			timestamp = excluded.timestamp,
			data = excluded.data,
			received_at = excluded.received_at`,
		rec.Signal.Session, rec.Signal.ID, rec.Signal.Type, rec.Signal.Timestamp,
		string(data), rec.ReceivedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("journaling signal for %s: %w", rec.Signal.Session, err)
	}
	return nil
}

// LoadAll returns every journaled record. Rows with undecodable payloads
// are returned with a nil Data map rather than dropped.
func (j *Journal) LoadAll() ([]Record, error) {
	rows, err := j.db.Query(`SELECT session, id, type, timestamp, data, received_at FROM signals`)
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var data, receivedAt string
		if err := rows.Scan(&rec.Signal.Session, &rec.Signal.ID, &rec.Signal.Type,
			&rec.Signal.Timestamp, &data, &receivedAt); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		if data != "" {
			_ = json.Unmarshal([]byte(data), &rec.Signal.Data)
		}
		if t, err := time.Parse(time.RFC3339Nano, receivedAt); err == nil {
			rec.ReceivedAt = t
			rec.Signal.ReceivedAt = t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes the journaled record for a session.
func (j *Journal) Delete(session string) error {
	_, err := j.db.Exec(`DELETE FROM signals WHERE session = ?`, session)
	return err
}

// Close releases the database and the file lock.
func (j *Journal) Close() error {
	err := j.db.Close()
	if unlockErr := j.lock.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}
