// Package sqlite implements store.Store on a local SQLite file via
// modernc.org/sqlite (pure Go, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/spherelog/spherelog/internal/model"
	"github.com/spherelog/spherelog/internal/store"
)

const (
	envHome    = "SPHERELOG_HOME" // override for tests
	dirName    = ".spherelog"     // default under $HOME
	dbFilename = "reminders.db"

	keyTemplates     = "templates"
	keyAssignments   = "assignments"
	keyRescheduleKey = "reschedule_key"
)

// DataDir returns the directory where local state is stored (~/.spherelog).
// It creates the directory with 0700 permissions if it does not exist.
func DataDir() (string, error) {
	if custom := os.Getenv(envHome); custom != "" {
		if err := os.MkdirAll(custom, 0o700); err != nil {
			return "", err
		}
		return custom, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user home: %w", err)
	}
	dir := filepath.Join(home, dirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// DefaultPath returns the absolute path to the SQLite database file.
func DefaultPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dbFilename), nil
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists. An empty path resolves to DefaultPath.
func Open(path string) (store.Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS ReminderState (
        Key TEXT PRIMARY KEY,
        Value TEXT NOT NULL,
        UpdateTime TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    );`)
	return err
}

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) get(ctx context.Context, key string) ([]byte, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT Value FROM ReminderState WHERE Key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(raw), true, nil
}

func (s *sqliteStore) put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO ReminderState (Key, Value, UpdateTime) VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(Key) DO UPDATE SET Value = excluded.Value, UpdateTime = CURRENT_TIMESTAMP
    `, key, string(value))
	return err
}

func (s *sqliteStore) LoadTemplates(ctx context.Context) ([]model.Template, error) {
	raw, ok, err := s.get(ctx, keyTemplates)
	if err != nil || !ok {
		return nil, err
	}
	var out []model.Template
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode templates blob: %w", err)
	}
	return out, nil
}

func (s *sqliteStore) SaveTemplates(ctx context.Context, templates []model.Template) error {
	if templates == nil {
		templates = []model.Template{}
	}
	raw, err := json.Marshal(templates)
	if err != nil {
		return err
	}
	return s.put(ctx, keyTemplates, raw)
}

func (s *sqliteStore) LoadAssignments(ctx context.Context) (model.AssignmentMap, error) {
	raw, ok, err := s.get(ctx, keyAssignments)
	if err != nil || !ok {
		return nil, err
	}
	var out model.AssignmentMap
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode assignments blob: %w", err)
	}
	return out, nil
}

func (s *sqliteStore) SaveAssignments(ctx context.Context, assignments model.AssignmentMap) error {
	if assignments == nil {
		assignments = model.AssignmentMap{}
	}
	raw, err := json.Marshal(assignments)
	if err != nil {
		return err
	}
	return s.put(ctx, keyAssignments, raw)
}

func (s *sqliteStore) LoadRescheduleKey(ctx context.Context) (string, error) {
	raw, ok, err := s.get(ctx, keyRescheduleKey)
	if err != nil || !ok {
		return "", err
	}
	return string(raw), nil
}

func (s *sqliteStore) SaveRescheduleKey(ctx context.Context, key string) error {
	return s.put(ctx, keyRescheduleKey, []byte(key))
}

func (s *sqliteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqliteStore) Close() error { return s.db.Close() }
