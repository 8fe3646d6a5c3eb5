// Package postgres implements store.Store on PostgreSQL via the pgx
// stdlib driver. Used when several devices sync through one backend.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/spherelog/spherelog/internal/model"
	"github.com/spherelog/spherelog/internal/store"
)

const (
	keyTemplates     = "templates"
	keyAssignments   = "assignments"
	keyRescheduleKey = "reschedule_key"
)

// Open opens a PostgreSQL connection, verifies connectivity and ensures
// the state table exists.
func Open(ctx context.Context, dsn string) (store.Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS reminder_state (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL,
        update_time TIMESTAMPTZ NOT NULL DEFAULT now()
    )`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &pgStore{db: db}, nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) get(ctx context.Context, key string) ([]byte, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM reminder_state WHERE key=$1`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(raw), true, nil
}

func (s *pgStore) put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO reminder_state (key, value, update_time) VALUES ($1, $2, now())
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, update_time = now()
    `, key, string(value))
	return err
}

func (s *pgStore) LoadTemplates(ctx context.Context) ([]model.Template, error) {
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

func (s *pgStore) SaveTemplates(ctx context.Context, templates []model.Template) error {
	if templates == nil {
		templates = []model.Template{}
	}
	raw, err := json.Marshal(templates)
	if err != nil {
		return err
	}
	return s.put(ctx, keyTemplates, raw)
}

func (s *pgStore) LoadAssignments(ctx context.Context) (model.AssignmentMap, error) {
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

func (s *pgStore) SaveAssignments(ctx context.Context, assignments model.AssignmentMap) error {
	if assignments == nil {
		assignments = model.AssignmentMap{}
	}
	raw, err := json.Marshal(assignments)
	if err != nil {
		return err
	}
	return s.put(ctx, keyAssignments, raw)
}

func (s *pgStore) LoadRescheduleKey(ctx context.Context) (string, error) {
	raw, ok, err := s.get(ctx, keyRescheduleKey)
	if err != nil || !ok {
		return "", err
	}
	return string(raw), nil
}

func (s *pgStore) SaveRescheduleKey(ctx context.Context, key string) error {
	return s.put(ctx, keyRescheduleKey, []byte(key))
}

func (s *pgStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *pgStore) Close() error { return s.db.Close() }
