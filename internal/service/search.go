package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kataras/golog"

	"leadfinder/internal/config"
	"leadfinder/internal/model"
	"leadfinder/internal/ratelimit"
	"leadfinder/internal/utils"
)

// ErrInvalidRequest wraps request validation failures
var ErrInvalidRequest = errors.New("invalid request")

var companySearchTerms = []string{"company", "companies", "startup", "стартап", "компанії"}

// SearchLogger persists ladder runs
type SearchLogger interface {
	LogSearch(ctx context.Context, entry *model.SearchLog) error
}

// Pacer suggests how long to wait before the next action
type Pacer interface {
	GetDelay(action ratelimit.ActionType) time.Duration
}

// SearchService handles search business logic
type SearchService struct {
	controller *ProgressiveSearchController
	intent     *IntentParser
	keywords   *KeywordOptimizer
	filters    *FilterBuilder
	ranker     *Ranker
	logger     SearchLogger
	pacer      Pacer
	cfg        config.SearchConfig
}

// NewSearchService creates a new search service. logger and pacer may be nil.
func NewSearchService(
	controller *ProgressiveSearchController,
	ranker *Ranker,
	logger SearchLogger,
	pacer Pacer,
	cfg config.SearchConfig,
) *SearchService {
	return &SearchService{
		controller: controller,
		intent:     NewIntentParser(),
		keywords:   NewKeywordOptimizer(),
		filters:    NewFilterBuilder(),
		ranker:     ranker,
		logger:     logger,
		pacer:      pacer,
		cfg:        cfg,
	}
}

// SearchEventCallback is called for streaming search events
type SearchEventCallback func(event string, data any) error

// DetectSearchType picks companies when the query talks about companies, people otherwise
func DetectSearchType(query string) model.SearchType {
	if utils.ContainsAny(utils.Normalize(query), companySearchTerms) {
		return model.SearchTypeCompanies
	}
	return model.SearchTypePeople
}

// Optimize parses the query and builds the level-one search
func (s *SearchService) Optimize(query string) *model.SearchFilters {
	intent := s.intent.Parse(query)
	return &model.SearchFilters{
		Keywords:      s.keywords.Optimize(intent),
		NativeFilters: s.filters.Build(intent),
		Intent:        intent,
	}
}

// Search runs the progressive search ladder for a free-text query
func (s *SearchService) Search(ctx context.Context, req *model.SearchRequest) (*model.SearchResponse, error) {
	return s.search(ctx, req, nil)
}

// SearchStream runs the ladder and reports intent and ladder progress through callback
func (s *SearchService) SearchStream(ctx context.Context, req *model.SearchRequest, callback SearchEventCallback) (*model.SearchResponse, error) {
	return s.search(ctx, req, callback)
}

func (s *SearchService) search(ctx context.Context, req *model.SearchRequest, callback SearchEventCallback) (*model.SearchResponse, error) {
	startTime := time.Now()

	searchType, err := model.ParseSearchType(req.SearchType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if searchType == "" {
		searchType = DetectSearchType(req.Query)
	}
	limit := s.limit(req.MaxResults)

	filters := s.Optimize(req.Query)
	searchID := uuid.NewString()
	golog.Infof("🔍 [%s] %s search: %q -> keywords %q", searchID, searchType, req.Query, filters.Keywords)

	var progress ProgressFunc
	if callback != nil {
		if err := callback("intent", map[string]any{
			"search_id":   searchID,
			"search_type": searchType,
			"intent":      filters.Intent,
			"keywords":    filters.Keywords,
			"filters":     filters.NativeFilters,
		}); err != nil {
			return nil, err
		}
		progress = func(e ProgressEvent) {
			if err := callback(e.Type, e); err != nil {
				golog.Debugf("[%s] progress event dropped: %v", searchID, err)
			}
		}
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	result, runErr := s.controller.Run(ctx, filters, searchType, limit, progress)
	took := time.Since(startTime).Milliseconds()

	s.logRun(searchID, req.Query, searchType, filters, result, runErr, took)

	if runErr != nil {
		return nil, runErr
	}

	if s.ranker != nil {
		s.ranker.Annotate(result.Results)
	}

	resp := &model.SearchResponse{
		SearchID:        searchID,
		SearchType:      searchType,
		State:           string(result.State),
		Level:           result.Level,
		Keywords:        filters.Keywords,
		Intent:          filters.Intent,
		Results:         result.Results,
		Total:           len(result.Results),
		AttemptedLevels: result.Attempted,
		Took:            took,
	}
	if result.Strategy != nil {
		resp.Strategy = result.Strategy.Name
	}
	if req.Documents {
		resp.Documents = FormatDocuments(result.Results, searchType)
	}
	if s.pacer != nil {
		resp.NextDelaySecs = s.pacer.GetDelay(ratelimit.ActionSearch).Seconds()
	}

	return resp, nil
}

func (s *SearchService) limit(requested int) int {
	if requested <= 0 {
		return s.cfg.DefaultLimit
	}
	if s.cfg.MaxLimit > 0 && requested > s.cfg.MaxLimit {
		return s.cfg.MaxLimit
	}
	return requested
}

// logRun stores the run in the background
func (s *SearchService) logRun(
	searchID, query string,
	searchType model.SearchType,
	filters *model.SearchFilters,
	result *LadderResult,
	runErr error,
	took int64,
) {
	if s.logger == nil {
		return
	}

	intentJSON, _ := json.Marshal(filters.Intent)
	entry := &model.SearchLog{
		SearchID:   searchID,
		Query:      query,
		SearchType: string(searchType),
		Keywords:   filters.Keywords,
		IntentJSON: string(intentJSON),
		DurationMs: took,
		CreatedAt:  time.Now().UTC(),
	}
	switch {
	case IsRefusal(runErr):
		entry.State = "refused"
	case result != nil:
		entry.State = string(result.State)
		entry.Level = result.Level
		entry.ResultCount = len(result.Results)
	default:
		entry.State = "aborted"
	}
	if runErr != nil {
		entry.Error = runErr.Error()
	}

	// Log search (non-blocking)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.logger.LogSearch(ctx, entry); err != nil {
			golog.Warnf("⚠️  Failed to log search %s: %v", entry.SearchID, err)
		}
	}()
}
