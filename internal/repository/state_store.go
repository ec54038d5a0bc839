package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leadfinder/internal/model"
	"leadfinder/internal/ratelimit"
)

// StateStore keeps rate limiter state in the rate_limiter_state table, one row per identity
type StateStore struct {
	repo     *Repository
	identity string
}

// StateStore returns a ratelimit.StateStore for identity
func (r *Repository) StateStore(identity string) *StateStore {
	if identity == "" {
		identity = "default"
	}
	return &StateStore{repo: r, identity: identity}
}

// Load reads the identity's state
func (s *StateStore) Load(ctx context.Context) (*model.RateLimiterState, error) {
	var raw string
	query := s.repo.db.Rebind(`SELECT state FROM rate_limiter_state WHERE identity = ?`)
	if err := s.repo.db.GetContext(ctx, &raw, query, s.identity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ratelimit.ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to load rate limiter state: %w", err)
	}

	var state model.RateLimiterState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("failed to decode rate limiter state: %w", err)
	}
	return &state, nil
}

// Save upserts the identity's state
func (s *StateStore) Save(ctx context.Context, state *model.RateLimiterState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode rate limiter state: %w", err)
	}

	query := s.repo.db.Rebind(`
		INSERT INTO rate_limiter_state (identity, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (identity) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at
	`)
	if _, err := s.repo.db.ExecContext(ctx, query, s.identity, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save rate limiter state: %w", err)
	}
	return nil
}
