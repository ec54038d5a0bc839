package ratelimit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadfinder/internal/model"
)

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linkedin_rate_limit.json")
	store := NewFileStore(path)
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrStateNotFound)

	state := &model.RateLimiterState{
		DailySearches: 2,
		LastResetDate: "2026-10-19",
		LastHourReset: 23,
		BlockedUntil:  1760871600,
	}
	require.NoError(t, store.Save(ctx, state))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, *state, *loaded)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, field := range []string{
		"daily_searches", "daily_profiles", "daily_connections", "hourly_searches", "hourly_profiles",
		"last_search_time", "last_profile_time", "last_reset_date", "last_hour_reset",
		"consecutive_failures", "total_failures_today", "last_break_time", "continuous_searches", "blocked_until",
	} {
		assert.Contains(t, string(data), `"`+field+`"`)
	}

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_ReadsExistingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	doc := `{
  "daily_searches": 4,
  "daily_profiles": 1,
  "daily_connections": 0,
  "hourly_searches": 1,
  "hourly_profiles": 0,
  "last_search_time": 1760868000.5,
  "last_profile_time": 0,
  "last_reset_date": "2026-10-19",
  "last_hour_reset": 10,
  "consecutive_failures": 1,
  "total_failures_today": 2,
  "last_break_time": 0,
  "continuous_searches": 4,
  "blocked_until": 0
}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	loaded, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.DailySearches)
	assert.Equal(t, 1760868000.5, loaded.LastSearchTime)
	assert.Equal(t, 2, loaded.TotalFailuresToday)
}

func TestFileStore_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrStateNotFound)
}
