package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kataras/golog"

	"leadfinder/internal/model"
	"leadfinder/internal/ratelimit"
)

// PageFetcher loads a search results page
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*model.Page, error)
}

// ResultExtractor reads up to max records of the given type from a fetched page.
// A page without matching elements yields an empty slice and no error.
type ResultExtractor interface {
	Extract(ctx context.Context, page *model.Page, searchType model.SearchType, max int) ([]model.Result, error)
}

// SearchGate admits and records search attempts. *ratelimit.RateLimiter implements it.
type SearchGate interface {
	CheckSearch() ratelimit.Decision
	RecordSearch(success bool)
}

// LadderState is the controller's position in the strategy ladder
type LadderState string

const (
	StateIdle      LadderState = "idle"
	StateTrying    LadderState = "trying"
	StateSuccess   LadderState = "success"
	StateExhausted LadderState = "exhausted"
)

// Progress event types
const (
	EventLevelStart = "level_start"
	EventLevelEmpty = "level_empty"
	EventLevelError = "level_error"
	EventSuccess    = "success"
	EventExhausted  = "exhausted"
)

// ProgressEvent reports a ladder transition
type ProgressEvent struct {
	Type     string `json:"type"`
	Level    int    `json:"level,omitempty"`
	Strategy string `json:"strategy,omitempty"`
	URL      string `json:"url,omitempty"`
	Count    int    `json:"count,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ProgressFunc receives ladder events. It must not block for long.
type ProgressFunc func(event ProgressEvent)

// LadderResult is the terminal outcome of one ladder run
type LadderResult struct {
	State     LadderState     `json:"state"`
	Level     int             `json:"level,omitempty"`
	Strategy  *model.Strategy `json:"strategy,omitempty"`
	Results   []model.Result  `json:"results"`
	Attempted []int           `json:"attempted_levels"`
}

// ControllerConfig configures a ProgressiveSearchController
type ControllerConfig struct {
	BaseURL         string
	InterLevelDelay time.Duration
	Ladder          []LadderStep // defaults to DefaultLadder
}

// ProgressiveSearchController runs the strategy ladder: each level is tried in order until one
// returns results. Runs are serialized so one identity never has two attempts in flight.
type ProgressiveSearchController struct {
	fetcher         PageFetcher
	extractor       ResultExtractor
	gate            SearchGate
	ladder          []LadderStep
	baseURL         string
	interLevelDelay time.Duration
	sem             chan struct{}
	sleep           func(ctx context.Context, d time.Duration) error
}

// NewProgressiveSearchController creates a new controller
func NewProgressiveSearchController(
	fetcher PageFetcher,
	extractor ResultExtractor,
	gate SearchGate,
	cfg ControllerConfig,
) *ProgressiveSearchController {
	ladder := cfg.Ladder
	if ladder == nil {
		ladder = DefaultLadder
	}
	return &ProgressiveSearchController{
		fetcher:         fetcher,
		extractor:       extractor,
		gate:            gate,
		ladder:          ladder,
		baseURL:         cfg.BaseURL,
		interLevelDelay: cfg.InterLevelDelay,
		sem:             make(chan struct{}, 1),
		sleep:           sleepContext,
	}
}

// Run admits the search with the gate once, then walks the ladder. A refusal is returned as a
// *ratelimit.RefusalError before any page is fetched. The first non-empty level wins; if no
// level returns results the result is Exhausted with an empty set. When every attempted level
// failed with an error, the Exhausted result is returned together with ErrLadderFailed.
func (c *ProgressiveSearchController) Run(
	ctx context.Context,
	base *model.SearchFilters,
	searchType model.SearchType,
	maxResults int,
	progress ProgressFunc,
) (*LadderResult, error) {
	if progress == nil {
		progress = func(ProgressEvent) {}
	}

	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	decision := c.gate.CheckSearch()
	if !decision.Allowed {
		golog.Warnf("🚫 Search refused: %s", decision.Reason)
		return nil, decision.Err()
	}

	result := &LadderResult{State: StateIdle, Results: []model.Result{}, Attempted: []int{}}
	plan := Plan(c.ladder, base)

	var lastErr error
	allFailed := true

	for i := range plan {
		strategy := &plan[i]

		if i > 0 {
			if err := c.sleep(ctx, c.interLevelDelay); err != nil {
				return nil, err
			}
		}

		result.State = StateTrying
		result.Attempted = append(result.Attempted, strategy.Level)

		url := BuildSearchURL(c.baseURL, searchType, strategy.Filters)
		golog.Infof("[level %d] Trying %s search: %s", strategy.Level, strategy.Name, url)
		progress(ProgressEvent{Type: EventLevelStart, Level: strategy.Level, Strategy: strategy.Name, URL: url})

		records, err := c.attempt(ctx, url, searchType, maxResults*strategy.Multiplier)
		if ctxErr := ctx.Err(); ctxErr != nil {
			// The page was requested, so the attempt counts against the quota
			c.gate.RecordSearch(false)
			return nil, ctxErr
		}
		c.gate.RecordSearch(err == nil)

		if err != nil {
			lastErr = &FetchError{Level: strategy.Level, Strategy: strategy.Name, URL: url, Err: err}
			golog.Errorf("[level %d] %s search failed: %v", strategy.Level, strategy.Name, err)
			progress(ProgressEvent{Type: EventLevelError, Level: strategy.Level, Strategy: strategy.Name, Error: err.Error()})
			continue
		}
		allFailed = false

		if len(records) == 0 {
			golog.Warnf("[level %d] %s search returned 0 results", strategy.Level, strategy.Name)
			progress(ProgressEvent{Type: EventLevelEmpty, Level: strategy.Level, Strategy: strategy.Name})
			continue
		}

		tagResults(records, strategy)
		result.State = StateSuccess
		result.Level = strategy.Level
		result.Strategy = strategy
		result.Results = records

		golog.Infof("✅ [level %d] %s search successful: %d results", strategy.Level, strategy.Name, len(records))
		progress(ProgressEvent{Type: EventSuccess, Level: strategy.Level, Strategy: strategy.Name, Count: len(records)})
		return result, nil
	}

	result.State = StateExhausted
	golog.Errorf("🚨 All progressive search strategies returned nothing (%d attempted)", len(result.Attempted))
	progress(ProgressEvent{Type: EventExhausted})

	if allFailed && lastErr != nil {
		return result, fmt.Errorf("%w: %w", ErrLadderFailed, lastErr)
	}
	return result, nil
}

func (c *ProgressiveSearchController) attempt(
	ctx context.Context,
	url string,
	searchType model.SearchType,
	max int,
) ([]model.Result, error) {
	page, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	records, err := c.extractor.Extract(ctx, page, searchType, max)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	if max > 0 && len(records) > max {
		records = records[:max]
	}
	return records, nil
}

// tagResults marks records from broad levels for downstream re-ranking
func tagResults(records []model.Result, strategy *model.Strategy) {
	if !strategy.NeedsAIFilter {
		return
	}

	var criteria *model.Criteria
	if strategy.Filters.Intent != nil {
		criteria = strategy.Filters.Intent.Criteria()
	}

	for i := range records {
		records[i].AIFilterNeeded = true
		records[i].OriginalCriteria = criteria
		if strategy.SearchStrategy != "" {
			records[i].SearchStrategy = strategy.SearchStrategy
		}
	}
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRefusal reports whether err is a rate limiter refusal
func IsRefusal(err error) bool {
	var refusal *ratelimit.RefusalError
	return errors.As(err, &refusal)
}
