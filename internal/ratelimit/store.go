package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"leadfinder/internal/model"
)

// ErrStateNotFound is returned by a store that has never been saved to
var ErrStateNotFound = errors.New("rate limiter state not found")

// StateStore persists the limiter document for one account identity
type StateStore interface {
	Load(ctx context.Context) (*model.RateLimiterState, error)
	Save(ctx context.Context, state *model.RateLimiterState) error
}

// FileStore keeps the state as an indented JSON document on disk
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed state store
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the state document
func (s *FileStore) Load(_ context.Context) (*model.RateLimiterState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to read rate limiter state: %w", err)
	}

	var state model.RateLimiterState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode rate limiter state %s: %w", s.path, err)
	}
	return &state, nil
}

// Save writes the state document through a temp file and rename
func (s *FileStore) Save(_ context.Context, state *model.RateLimiterState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode rate limiter state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write rate limiter state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write rate limiter state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace rate limiter state: %w", err)
	}
	return nil
}

// MemoryStore keeps the state in process memory
type MemoryStore struct {
	mu    sync.Mutex
	state *model.RateLimiterState
	saves int
	err   error
}

// NewMemoryStore creates an in-memory store, optionally seeded
func NewMemoryStore(seed *model.RateLimiterState) *MemoryStore {
	s := &MemoryStore{}
	if seed != nil {
		cp := *seed
		s.state = &cp
	}
	return s
}

// Load returns a copy of the stored state
func (s *MemoryStore) Load(_ context.Context) (*model.RateLimiterState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, ErrStateNotFound
	}
	cp := *s.state
	return &cp, nil
}

// Save stores a copy of the state
func (s *MemoryStore) Save(_ context.Context, state *model.RateLimiterState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	cp := *state
	s.state = &cp
	s.saves++
	return nil
}

// Saves reports how many successful saves the store has seen
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// FailWith makes subsequent saves return err (nil restores normal behaviour)
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
