package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"leadfinder/internal/model"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS search_logs (
		search_id    TEXT PRIMARY KEY,
		query        TEXT NOT NULL,
		search_type  TEXT NOT NULL,
		keywords     TEXT NOT NULL DEFAULT '',
		intent       TEXT NOT NULL DEFAULT '{}',
		state        TEXT NOT NULL,
		level        INTEGER NOT NULL DEFAULT 0,
		result_count INTEGER NOT NULL DEFAULT 0,
		duration_ms  BIGINT NOT NULL DEFAULT 0,
		error        TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_search_logs_created_at ON search_logs (created_at)`,
	`CREATE TABLE IF NOT EXISTS profile_views (
		view_id     TEXT PRIMARY KEY,
		profile_url TEXT NOT NULL,
		success     BOOLEAN NOT NULL,
		created_at  TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS rate_limiter_state (
		identity   TEXT PRIMARY KEY,
		state      TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
}

// Repository handles database operations on PostgreSQL or SQLite
type Repository struct {
	db     *sqlx.DB
	driver string
}

// NewRepository connects to the database and applies the schema
func NewRepository(driver, dsn string, maxConn, maxIdleConn int) (*Repository, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		// single writer
		maxConn, maxIdleConn = 1, 1
	}
	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	r := &Repository{db: db, driver: driver}
	if err := r.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping checks the connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Migrate creates the tables if they do not exist
func (r *Repository) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

// LogSearch logs a ladder run
func (r *Repository) LogSearch(ctx context.Context, entry *model.SearchLog) error {
	if entry.SearchID == "" {
		entry.SearchID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO search_logs (search_id, query, search_type, keywords, intent, state, level, result_count, duration_ms, error, created_at)
		VALUES (:search_id, :query, :search_type, :keywords, :intent, :state, :level, :result_count, :duration_ms, :error, :created_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("failed to log search: %w", err)
	}
	return nil
}

// RecentSearches returns the latest logged runs, newest first
func (r *Repository) RecentSearches(ctx context.Context, limit int) ([]model.SearchLog, error) {
	query := r.db.Rebind(`
		SELECT search_id, query, search_type, keywords, intent, state, level, result_count, duration_ms, error, created_at
		FROM search_logs
		ORDER BY created_at DESC
		LIMIT ?
	`)

	logs := []model.SearchLog{}
	if err := r.db.SelectContext(ctx, &logs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to fetch search logs: %w", err)
	}
	return logs, nil
}

// GetSearch retrieves one logged run, or nil when it does not exist
func (r *Repository) GetSearch(ctx context.Context, searchID string) (*model.SearchLog, error) {
	query := r.db.Rebind(`
		SELECT search_id, query, search_type, keywords, intent, state, level, result_count, duration_ms, error, created_at
		FROM search_logs
		WHERE search_id = ?
	`)

	var entry model.SearchLog
	if err := r.db.GetContext(ctx, &entry, query, searchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get search log: %w", err)
	}
	return &entry, nil
}

// LogProfileView records a profile visit reported by an external agent
func (r *Repository) LogProfileView(ctx context.Context, profileURL string, success bool) error {
	query := r.db.Rebind(`INSERT INTO profile_views (view_id, profile_url, success, created_at) VALUES (?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), profileURL, success, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to log profile view: %w", err)
	}
	return nil
}

// CountProfileViews counts recorded views of one profile
func (r *Repository) CountProfileViews(ctx context.Context, profileURL string) (int, error) {
	var n int
	query := r.db.Rebind(`SELECT COUNT(*) FROM profile_views WHERE profile_url = ?`)
	if err := r.db.GetContext(ctx, &n, query, profileURL); err != nil {
		return 0, fmt.Errorf("failed to count profile views: %w", err)
	}
	return n, nil
}
