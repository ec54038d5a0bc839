package model

import "time"

// SearchLog is one ladder run as stored in the search log table
type SearchLog struct {
	SearchID    string    `db:"search_id" json:"search_id"`
	Query       string    `db:"query" json:"query"`
	SearchType  string    `db:"search_type" json:"search_type"`
	Keywords    string    `db:"keywords" json:"keywords"`
	IntentJSON  string    `db:"intent" json:"intent"`
	State       string    `db:"state" json:"state"`
	Level       int       `db:"level" json:"level"`
	ResultCount int       `db:"result_count" json:"result_count"`
	DurationMs  int64     `db:"duration_ms" json:"duration_ms"`
	Error       string    `db:"error" json:"error,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
