package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/kataras/golog"

	"leadfinder/internal/config"
	"leadfinder/internal/model"
)

// ActionType selects the delay bounds used by GetDelay
type ActionType string

const (
	ActionSearch  ActionType = "search"
	ActionProfile ActionType = "profile"
)

const (
	// consecutive failures that trigger a temporary block
	blockAfterFailures = 3
	persistTimeout     = 5 * time.Second
	dateLayout         = "2006-01-02"
)

// Limits holds quota, pacing and backoff configuration
type Limits struct {
	SearchesPerDay    int
	ProfilesPerDay    int
	ConnectionsPerDay int
	SearchesPerHour   int
	ProfilesPerHour   int

	MinSearchDelay  time.Duration
	MaxSearchDelay  time.Duration
	MinProfileDelay time.Duration
	MaxProfileDelay time.Duration

	BackoffMultiplier float64
	MaxBackoff        time.Duration
	JitterRange       float64

	MaxContinuousSearches int
	BreakMin              time.Duration
	BreakMax              time.Duration

	BaseBlock         time.Duration
	MaxBlock          time.Duration
	MaxFailuresPerDay int

	EmergencyBlock    time.Duration
	EmergencyFailures int
}

// DefaultLimits returns conservative limits for a Sales Navigator account
func DefaultLimits() Limits {
	return Limits{
		SearchesPerDay:        15,
		ProfilesPerDay:        30,
		ConnectionsPerDay:     20,
		SearchesPerHour:       3,
		ProfilesPerHour:       10,
		MinSearchDelay:        45 * time.Second,
		MaxSearchDelay:        180 * time.Second,
		MinProfileDelay:       5 * time.Second,
		MaxProfileDelay:       30 * time.Second,
		BackoffMultiplier:     2.0,
		MaxBackoff:            time.Hour,
		JitterRange:           0.2,
		MaxContinuousSearches: 5,
		BreakMin:              5 * time.Minute,
		BreakMax:              15 * time.Minute,
		BaseBlock:             5 * time.Minute,
		MaxBlock:              time.Hour,
		MaxFailuresPerDay:     10,
		EmergencyBlock:        time.Hour,
		EmergencyFailures:     5,
	}
}

// LimitsFromConfig converts the env configuration
func LimitsFromConfig(cfg config.RateLimitConfig) Limits {
	sec := func(n int) time.Duration { return time.Duration(n) * time.Second }
	return Limits{
		SearchesPerDay:        cfg.SearchesPerDay,
		ProfilesPerDay:        cfg.ProfilesPerDay,
		ConnectionsPerDay:     cfg.ConnectionsPerDay,
		SearchesPerHour:       cfg.SearchesPerHour,
		ProfilesPerHour:       cfg.ProfilesPerHour,
		MinSearchDelay:        sec(cfg.MinSearchDelay),
		MaxSearchDelay:        sec(cfg.MaxSearchDelay),
		MinProfileDelay:       sec(cfg.MinProfileDelay),
		MaxProfileDelay:       sec(cfg.MaxProfileDelay),
		BackoffMultiplier:     cfg.BackoffMultiplier,
		MaxBackoff:            sec(cfg.MaxBackoff),
		JitterRange:           cfg.JitterRange,
		MaxContinuousSearches: cfg.MaxContinuous,
		BreakMin:              sec(cfg.BreakMin),
		BreakMax:              sec(cfg.BreakMax),
		BaseBlock:             sec(cfg.BaseBlock),
		MaxBlock:              sec(cfg.MaxBlock),
		MaxFailuresPerDay:     cfg.MaxFailuresPerDay,
		EmergencyBlock:        sec(cfg.EmergencyBlock),
		EmergencyFailures:     cfg.EmergencyFailureSet,
	}
}

// RateLimiter gates searches and profile views against durable quotas.
// Every mutation is written through to the StateStore; a failed write is
// logged and the in-memory state keeps gating for the rest of the process.
//
// One RateLimiter should own an identity at a time. It serialises callers
// inside the process but does not lock across processes.
type RateLimiter struct {
	mu         sync.Mutex
	limits     Limits
	store      StateStore
	state      model.RateLimiterState
	now        func() time.Time
	rng        *rand.Rand
	delay      DelayPolicy
	persistErr error
}

// Option configures a RateLimiter
type Option func(*RateLimiter)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(l *RateLimiter) { l.now = now }
}

// WithRand sets the random source used for breaks and the default delay policy
func WithRand(rng *rand.Rand) Option {
	return func(l *RateLimiter) { l.rng = rng }
}

// WithDelayPolicy replaces the human-like delay draw
func WithDelayPolicy(p DelayPolicy) Option {
	return func(l *RateLimiter) { l.delay = p }
}

// New creates a limiter and loads its state from the store.
// Missing or unreadable state starts from zero counters.
func New(ctx context.Context, limits Limits, store StateStore, opts ...Option) *RateLimiter {
	l := &RateLimiter{
		limits: limits,
		store:  store,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.rng == nil {
		l.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if l.delay == nil {
		l.delay = HumanDelay(l.rng, limits.JitterRange)
	}

	l.state = l.defaultState(l.now())
	state, err := store.Load(ctx)
	switch {
	case err == nil:
		l.state = *state
		golog.Infof("Loaded rate limiter state: %d searches today", l.state.DailySearches)
	case errors.Is(err, ErrStateNotFound):
		golog.Debugf("No rate limiter state stored yet, starting fresh")
	default:
		golog.Errorf("Error loading rate limiter state: %v", err)
	}

	return l
}

func (l *RateLimiter) defaultState(now time.Time) model.RateLimiterState {
	return model.RateLimiterState{
		LastResetDate: now.Format(dateLayout),
		LastHourReset: now.Hour(),
	}
}

// State returns a copy of the current state
func (l *RateLimiter) State() model.RateLimiterState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Limits returns the configured limits
func (l *RateLimiter) Limits() Limits {
	return l.limits
}

// ResetIfNeeded applies day and hour rollovers. It reports whether anything changed.
func (l *RateLimiter) ResetIfNeeded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resetIfNeeded(l.now())
}

func (l *RateLimiter) resetIfNeeded(now time.Time) bool {
	s := &l.state
	changed := false

	today := now.Format(dateLayout)
	if s.LastResetDate != today {
		golog.Infof("Daily limit reset - new day started")
		s.DailySearches = 0
		s.DailyProfiles = 0
		s.DailyConnections = 0
		s.TotalFailuresToday = 0
		s.LastResetDate = today
		if s.ConsecutiveFailures > 0 {
			s.ConsecutiveFailures--
		}
		s.ContinuousSearches = 0
		// the same clock hour on a later day is a new hourly window too
		s.HourlySearches = 0
		s.HourlyProfiles = 0
		changed = true
	}

	if s.LastHourReset != now.Hour() {
		golog.Debugf("Hourly limit reset")
		s.HourlySearches = 0
		s.HourlyProfiles = 0
		s.LastHourReset = now.Hour()
		changed = true
	}

	if changed {
		l.persist()
	}
	return changed
}

// CanSearch reports whether a search may run now and why not
func (l *RateLimiter) CanSearch() (bool, string) {
	d := l.CheckSearch()
	return d.Allowed, d.Reason
}

// CheckSearch is CanSearch with the refusal kind and wait time
func (l *RateLimiter) CheckSearch() Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.resetIfNeeded(now)
	s := &l.state
	nowSec := epoch(now)

	if s.BlockedUntil > nowSec {
		wait := s.BlockedUntil - nowSec
		return refuse(KindBlocked,
			fmt.Sprintf("Temporarily blocked for %.0f seconds due to failures", wait), seconds(wait))
	}

	if s.DailySearches >= l.limits.SearchesPerDay {
		return refuse(KindDailyLimit,
			fmt.Sprintf("Daily search limit reached (%d searches)", l.limits.SearchesPerDay), untilNextDay(now))
	}

	if s.HourlySearches >= l.limits.SearchesPerHour {
		return refuse(KindHourlyLimit,
			fmt.Sprintf("Hourly search limit reached (%d searches)", l.limits.SearchesPerHour), untilNextHour(now))
	}

	if s.ContinuousSearches >= l.limits.MaxContinuousSearches {
		sinceBreak := nowSec - s.LastBreakTime
		required := l.uniform(l.limits.BreakMin, l.limits.BreakMax).Seconds()
		if sinceBreak < required {
			wait := required - sinceBreak
			return refuse(KindBreak, fmt.Sprintf("Break required. Please wait %.0f seconds", wait), seconds(wait))
		}
		// break completed
		s.ContinuousSearches = 0
		s.LastBreakTime = nowSec
		l.persist()
	}

	minDelay := l.backoff(l.limits.MinSearchDelay).Seconds()
	sinceLast := nowSec - s.LastSearchTime
	if sinceLast < minDelay {
		wait := minDelay - sinceLast
		return refuse(KindDelay, fmt.Sprintf("Please wait %.0f seconds before next search", wait), seconds(wait))
	}

	if s.TotalFailuresToday >= l.limits.MaxFailuresPerDay {
		return refuse(KindFailureCeiling, "Too many failures today. Please try again tomorrow", untilNextDay(now))
	}

	return allow()
}

// CanViewProfile reports whether a profile may be opened now and why not
func (l *RateLimiter) CanViewProfile() (bool, string) {
	d := l.CheckProfileView()
	return d.Allowed, d.Reason
}

// CheckProfileView is CanViewProfile with the refusal kind and wait time
func (l *RateLimiter) CheckProfileView() Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.resetIfNeeded(now)
	s := &l.state

	if s.DailyProfiles >= l.limits.ProfilesPerDay {
		return refuse(KindDailyLimit,
			fmt.Sprintf("Daily profile view limit reached (%d profiles)", l.limits.ProfilesPerDay), untilNextDay(now))
	}

	if s.HourlyProfiles >= l.limits.ProfilesPerHour {
		return refuse(KindHourlyLimit,
			fmt.Sprintf("Hourly profile view limit reached (%d profiles)", l.limits.ProfilesPerHour), untilNextHour(now))
	}

	sinceLast := epoch(now) - s.LastProfileTime
	minDelay := l.limits.MinProfileDelay.Seconds()
	if sinceLast < minDelay {
		wait := minDelay - sinceLast
		return refuse(KindDelay, fmt.Sprintf("Please wait %.0f seconds before next profile view", wait), seconds(wait))
	}

	return allow()
}

// RecordSearch counts a search attempt. Failures feed the backoff and, from the
// third consecutive one, impose a block of BaseBlock·2^(n-3) capped at MaxBlock.
func (l *RateLimiter) RecordSearch(success bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.resetIfNeeded(now)
	s := &l.state
	nowSec := epoch(now)

	s.DailySearches++
	s.HourlySearches++
	s.LastSearchTime = nowSec
	s.ContinuousSearches++

	if success {
		s.ConsecutiveFailures = 0
		golog.Infof("Search recorded: %d/%d daily", s.DailySearches, l.limits.SearchesPerDay)
	} else {
		s.ConsecutiveFailures++
		s.TotalFailuresToday++

		if s.ConsecutiveFailures >= blockAfterFailures {
			block := l.blockDuration(s.ConsecutiveFailures)
			until := nowSec + block.Seconds()
			if until > s.BlockedUntil {
				s.BlockedUntil = until
			}
			golog.Warnf("Too many failures. Blocking for %.0f seconds", block.Seconds())
		}
	}

	l.persist()
}

// RecordProfileView counts a profile view
func (l *RateLimiter) RecordProfileView(success bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.resetIfNeeded(now)
	s := &l.state

	s.DailyProfiles++
	s.HourlyProfiles++
	s.LastProfileTime = epoch(now)
	if !success {
		s.TotalFailuresToday++
	}

	golog.Debugf("Profile view recorded: %d/%d daily", s.DailyProfiles, l.limits.ProfilesPerDay)
	l.persist()
}

// GetDelay returns a randomised wait before the next action of the given type
func (l *RateLimiter) GetDelay(action ActionType) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	min, max := l.limits.MinSearchDelay, l.limits.MaxSearchDelay
	if action == ActionProfile {
		min, max = l.limits.MinProfileDelay, l.limits.MaxProfileDelay
	}

	base, jitter := l.delay(min, max)
	final := l.backoff(base) + jitter
	if final < min {
		final = min
	}

	golog.Debugf("Calculated delay: %.1f seconds (failures: %d)", final.Seconds(), l.state.ConsecutiveFailures)
	return final
}

// ShouldTakeBreak recommends a pause: always after MaxContinuousSearches,
// otherwise at random, more often once 70% of the daily quota is used
func (l *RateLimiter) ShouldTakeBreak() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.shouldTakeBreak()
}

func (l *RateLimiter) shouldTakeBreak() bool {
	if l.state.ContinuousSearches >= l.limits.MaxContinuousSearches {
		return true
	}
	if l.rng.Float64() < 0.1 {
		return true
	}
	if l.limits.SearchesPerDay > 0 {
		usage := float64(l.state.DailySearches) / float64(l.limits.SearchesPerDay)
		if usage > 0.7 && l.rng.Float64() < 0.3 {
			return true
		}
	}
	return false
}

// GetBreakDuration returns a break length, longer while failures persist
func (l *RateLimiter) GetBreakDuration() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	d := l.uniform(l.limits.BreakMin, l.limits.BreakMax)
	if cf := l.state.ConsecutiveFailures; cf > 0 {
		d = time.Duration(float64(d) * (1 + 0.5*float64(cf)))
	}
	return d
}

// GetStatus returns usage against limits
func (l *RateLimiter) GetStatus() *model.RateLimiterStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.resetIfNeeded(now)
	s := l.state

	status := &model.RateLimiterStatus{}
	status.Daily.Searches = fmt.Sprintf("%d/%d", s.DailySearches, l.limits.SearchesPerDay)
	status.Daily.Profiles = fmt.Sprintf("%d/%d", s.DailyProfiles, l.limits.ProfilesPerDay)
	status.Daily.RemainingSearches = l.limits.SearchesPerDay - s.DailySearches
	status.Daily.RemainingProfiles = l.limits.ProfilesPerDay - s.DailyProfiles
	status.Hourly.Searches = fmt.Sprintf("%d/%d", s.HourlySearches, l.limits.SearchesPerHour)
	status.Hourly.Profiles = fmt.Sprintf("%d/%d", s.HourlyProfiles, l.limits.ProfilesPerHour)
	status.Failures.Consecutive = s.ConsecutiveFailures
	status.Failures.TotalToday = s.TotalFailuresToday
	if wait := s.BlockedUntil - epoch(now); wait > 0 {
		status.Blocked = true
		status.BlockedFor = wait
	}
	status.ContinuousSearches = s.ContinuousSearches
	status.ShouldBreak = l.shouldTakeBreak()
	if l.persistErr != nil {
		status.PersistError = l.persistErr.Error()
	}
	return status
}

// ResetSession clears the continuous-search counter and starts a new break window
func (l *RateLimiter) ResetSession() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state.ContinuousSearches = 0
	l.state.LastBreakTime = epoch(l.now())
	l.persist()
	golog.Infof("Session counters reset")
}

// EmergencyStop blocks all searches for EmergencyBlock and raises the failure count
func (l *RateLimiter) EmergencyStop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	until := epoch(l.now()) + l.limits.EmergencyBlock.Seconds()
	if until > l.state.BlockedUntil {
		l.state.BlockedUntil = until
	}
	l.state.ConsecutiveFailures = l.limits.EmergencyFailures
	l.persist()
	golog.Warnf("Emergency stop activated - blocking for %.0f seconds", l.limits.EmergencyBlock.Seconds())
}

// PersistError returns the last persistence failure, or nil after a good save
func (l *RateLimiter) PersistError() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.persistErr
}

// backoff scales d by multiplier^consecutive_failures, capped at MaxBackoff
func (l *RateLimiter) backoff(d time.Duration) time.Duration {
	cf := l.state.ConsecutiveFailures
	if cf <= 0 {
		return d
	}
	factor := math.Pow(l.limits.BackoffMultiplier, float64(cf))
	scaled := time.Duration(float64(d) * factor)
	if scaled > l.limits.MaxBackoff {
		return l.limits.MaxBackoff
	}
	return scaled
}

func (l *RateLimiter) blockDuration(failures int) time.Duration {
	d := time.Duration(float64(l.limits.BaseBlock) * math.Pow(2, float64(failures-blockAfterFailures)))
	if d > l.limits.MaxBlock {
		return l.limits.MaxBlock
	}
	return d
}

func (l *RateLimiter) uniform(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(l.rng.Float64()*float64(max-min))
}

// persist must be called with mu held
func (l *RateLimiter) persist() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	state := l.state
	if err := l.store.Save(ctx, &state); err != nil {
		if l.persistErr == nil {
			golog.Warnf("Error saving rate limiter state (quota will not survive a restart): %v", err)
		}
		l.persistErr = err
		return
	}
	l.persistErr = nil
	golog.Debugf("Rate limiter state saved")
}

func epoch(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func untilNextDay(now time.Time) time.Duration {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location()).Sub(now)
}

func untilNextHour(now time.Time) time.Duration {
	return now.Truncate(time.Hour).Add(time.Hour).Sub(now)
}
