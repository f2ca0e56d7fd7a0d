// Package sqlite implements core.Store on an embedded SQLite database so
// cooperating processes can share coordination messages and context entries
// through a single file. The schema carries the processed flag and
// processed_at column the polling bridge uses for cross-process dedup.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hupe1980/crosstalk/core"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS coordination_messages (
	id           TEXT PRIMARY KEY,
	from_agent   TEXT NOT NULL,
	to_agent     TEXT,
	kind         TEXT NOT NULL,
	payload      TEXT NOT NULL,
	created_at   INTEGER NOT NULL,
	processed    INTEGER NOT NULL DEFAULT 0,
	processed_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_messages_unprocessed
	ON coordination_messages(processed, to_agent, created_at);

CREATE TABLE IF NOT EXISTS shared_context (
	context_type TEXT NOT NULL,
	context_key  TEXT NOT NULL,
	data         TEXT NOT NULL,
	updated_by   TEXT NOT NULL,
	created_at   INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL,
	expires_at   INTEGER,
	PRIMARY KEY (context_type, context_key)
);
CREATE INDEX IF NOT EXISTS idx_context_expiry ON shared_context(expires_at);
`

// Store is a durable core.Store backed by SQLite. A single write connection
// with WAL journaling keeps concurrent cooperating processes from tripping
// over SQLITE_BUSY under normal load.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// Open initializes the SQLite database at the given path, creating the
// directory and schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// SendCoordinationMessage mirrors a message and returns its id.
func (s *Store) SendCoordinationMessage(from, to string, payload core.Payload) (string, error) {
	raw, err := core.MarshalPayload(payload)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := core.NewID()
	_, err = s.db.Exec(
		`INSERT INTO coordination_messages (id, from_agent, to_agent, kind, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, from, nullable(to), string(payload.Kind()), string(raw), s.now().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("insert coordination message: %w", err)
	}
	return id, nil
}

// UnprocessedCoordinationMessages returns unprocessed messages addressed to
// the agent or broadcast, authored by someone else, oldest first.
func (s *Store) UnprocessedCoordinationMessages(agentID string) ([]core.StoredMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(
		`SELECT id, from_agent, to_agent, kind, payload, created_at, processed, processed_at
		 FROM coordination_messages
		 WHERE processed = 0 AND from_agent != ? AND (to_agent IS NULL OR to_agent = ?)
		 ORDER BY created_at ASC`,
		agentID, agentID,
	)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed messages: %w", err)
	}
	defer rows.Close()

	var out []core.StoredMessage
	for rows.Next() {
		var (
			msg         core.StoredMessage
			to          sql.NullString
			kind        string
			payload     string
			createdAt   int64
			processed   int
			processedAt sql.NullInt64
		)
		if err := rows.Scan(&msg.ID, &msg.From, &to, &kind, &payload, &createdAt, &processed, &processedAt); err != nil {
			return nil, fmt.Errorf("scan coordination message: %w", err)
		}
		msg.To = to.String
		msg.Kind = core.PayloadKind(kind)
		msg.Payload = []byte(payload)
		msg.CreatedAt = time.UnixMilli(createdAt).UTC()
		msg.Processed = processed != 0
		if processedAt.Valid {
			t := time.UnixMilli(processedAt.Int64).UTC()
			msg.ProcessedAt = &t
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// MarkCoordinationMessageProcessed flags a durable message as consumed.
func (s *Store) MarkCoordinationMessageProcessed(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`UPDATE coordination_messages SET processed = 1, processed_at = ? WHERE id = ?`,
		s.now().UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("mark message processed: %w", err)
	}
	return nil
}

// CleanOldCoordinationMessages deletes messages older than maxAge.
func (s *Store) CleanOldCoordinationMessages(maxAge time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(
		`DELETE FROM coordination_messages WHERE created_at < ?`,
		s.now().Add(-maxAge).UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("clean old messages: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// SetSharedContext upserts an entry, unique on (context_type, context_key).
// created_at is preserved across updates.
func (s *Store) SetSharedContext(entry core.ContextEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UnixMilli()
	var expires any
	if entry.ExpiresAt != nil {
		expires = entry.ExpiresAt.UnixMilli()
	}
	_, err := s.db.Exec(
		`INSERT INTO shared_context (context_type, context_key, data, updated_by, created_at, updated_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(context_type, context_key) DO UPDATE SET
		   data = excluded.data,
		   updated_by = excluded.updated_by,
		   updated_at = excluded.updated_at,
		   expires_at = excluded.expires_at`,
		entry.Type, entry.Key, string(entry.Data), entry.UpdatedBy, now, now, expires,
	)
	if err != nil {
		return fmt.Errorf("upsert shared context: %w", err)
	}
	return nil
}

// GetSharedContext returns entries for the type; key == "" returns all
// entries of the type, most recently updated first.
func (s *Store) GetSharedContext(ctxType, key string) ([]core.ContextEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	query := `SELECT context_type, context_key, data, updated_by, created_at, updated_at, expires_at
		 FROM shared_context WHERE context_type = ?`
	args := []any{ctxType}
	if key != "" {
		query += ` AND context_key = ?`
		args = append(args, key)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query shared context: %w", err)
	}
	defer rows.Close()

	var out []core.ContextEntry
	for rows.Next() {
		var (
			entry     core.ContextEntry
			data      string
			createdAt int64
			updatedAt int64
			expiresAt sql.NullInt64
		)
		if err := rows.Scan(&entry.Type, &entry.Key, &data, &entry.UpdatedBy, &createdAt, &updatedAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan shared context: %w", err)
		}
		entry.Data = []byte(data)
		entry.CreatedAt = time.UnixMilli(createdAt).UTC()
		entry.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		if expiresAt.Valid {
			t := time.UnixMilli(expiresAt.Int64).UTC()
			entry.ExpiresAt = &t
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// CleanExpiredSharedContext deletes entries whose TTL has passed.
func (s *Store) CleanExpiredSharedContext() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(
		`DELETE FROM shared_context WHERE expires_at IS NOT NULL AND expires_at < ?`,
		s.now().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("clean expired context: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// nullable maps an empty recipient to NULL so broadcasts are distinguishable
// from empty-string ids.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
