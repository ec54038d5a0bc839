package model

// RateLimiterState is the durable quota document. Field names are the on-disk format.
type RateLimiterState struct {
	DailySearches       int     `json:"daily_searches"`
	DailyProfiles       int     `json:"daily_profiles"`
	DailyConnections    int     `json:"daily_connections"`
	HourlySearches      int     `json:"hourly_searches"`
	HourlyProfiles      int     `json:"hourly_profiles"`
	LastSearchTime      float64 `json:"last_search_time"`  // epoch seconds
	LastProfileTime     float64 `json:"last_profile_time"` // epoch seconds
	LastResetDate       string  `json:"last_reset_date"`   // YYYY-MM-DD
	LastHourReset       int     `json:"last_hour_reset"`   // 0-23
	ConsecutiveFailures int     `json:"consecutive_failures"`
	TotalFailuresToday  int     `json:"total_failures_today"`
	LastBreakTime       float64 `json:"last_break_time"` // epoch seconds
	ContinuousSearches  int     `json:"continuous_searches"`
	BlockedUntil        float64 `json:"blocked_until"` // epoch seconds, 0 = not blocked
}

// RateLimiterStatus is a read-only snapshot of usage against limits
type RateLimiterStatus struct {
	Daily struct {
		Searches          string `json:"searches"`
		Profiles          string `json:"profiles"`
		RemainingSearches int    `json:"remaining_searches"`
		RemainingProfiles int    `json:"remaining_profiles"`
	} `json:"daily"`
	Hourly struct {
		Searches string `json:"searches"`
		Profiles string `json:"profiles"`
	} `json:"hourly"`
	Failures struct {
		Consecutive int `json:"consecutive"`
		TotalToday  int `json:"total_today"`
	} `json:"failures"`
	Blocked            bool    `json:"blocked"`
	BlockedFor         float64 `json:"blocked_for_seconds,omitempty"`
	ContinuousSearches int     `json:"continuous_searches"`
	ShouldBreak        bool    `json:"should_break"`
	PersistError       string  `json:"persist_error,omitempty"`
}
