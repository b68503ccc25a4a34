package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps each session as a single jsonb row, upserted
// wholesale on every save.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates the backing table if it does not exist.
func NewPostgresStore(ctx context.Context, db *pgxpool.Pool) (*PostgresStore, error) {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS deck_sessions (
			session_id TEXT PRIMARY KEY,
			state JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create deck_sessions table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Load implements Store.
func (s *PostgresStore) Load(ctx context.Context, sessionID string) (*State, bool, error) {
	var raw []byte
	err := s.db.QueryRow(ctx,
		"SELECT state FROM deck_sessions WHERE session_id = $1",
		sessionID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, false, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	return &state, true, nil
}

// Save implements Store.
func (s *PostgresStore) Save(ctx context.Context, sessionID string, state *State) error {
	saved := cloneState(state)
	saved.UpdatedAt = time.Now().UTC()

	raw, err := json.Marshal(saved)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", sessionID, err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO deck_sessions (session_id, state, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id)
		DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
		sessionID, raw, saved.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}
	return nil
}

// Stats implements Store.
func (s *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	var count int
	err := s.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM deck_sessions WHERE jsonb_array_length(state->'slides') > 0",
	).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	return &Stats{DecksCreated: count}, nil
}
