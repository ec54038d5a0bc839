package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadfinder/internal/model"
	"leadfinder/internal/ratelimit"
)

// stubFetcher returns a page per call and remembers the URLs it was asked for
type stubFetcher struct {
	mu    sync.Mutex
	urls  []string
	errAt map[int]error // call number (1-based) -> error
	hook  func(call int)
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (*model.Page, error) {
	f.mu.Lock()
	f.urls = append(f.urls, url)
	call := len(f.urls)
	f.mu.Unlock()

	if f.hook != nil {
		f.hook(call)
	}
	if err := f.errAt[call]; err != nil {
		return nil, err
	}
	return &model.Page{URL: url, HTML: fmt.Sprintf("call-%d", call)}, nil
}

func (f *stubFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.urls)
}

// stubExtractor returns records only on the given fetch call
type stubExtractor struct {
	successAt int
	maxSeen   []int
}

func (e *stubExtractor) Extract(_ context.Context, page *model.Page, _ model.SearchType, max int) ([]model.Result, error) {
	e.maxSeen = append(e.maxSeen, max)
	if page.HTML != fmt.Sprintf("call-%d", e.successAt) {
		return []model.Result{}, nil
	}
	return []model.Result{
		{Name: "Ana Garcia", Title: "CTO", Company: "Acme", Location: "Madrid", Source: model.SourceSalesNavigator},
		{Name: "Luis Perez", Title: "Developer", Company: "Beta", Location: "Madrid", Source: model.SourceSalesNavigator},
	}, nil
}

// stubGate admits every search unless refusal is set
type stubGate struct {
	refusal  *ratelimit.Decision
	recorded []bool
	checks   int
}

func (g *stubGate) CheckSearch() ratelimit.Decision {
	g.checks++
	if g.refusal != nil {
		return *g.refusal
	}
	return ratelimit.Decision{Allowed: true, Reason: "OK"}
}

func (g *stubGate) RecordSearch(success bool) {
	g.recorded = append(g.recorded, success)
}

func newTestController(fetcher PageFetcher, extractor ResultExtractor, gate SearchGate) (*ProgressiveSearchController, *[]time.Duration) {
	c := NewProgressiveSearchController(fetcher, extractor, gate, ControllerConfig{
		BaseURL:         "https://sales.example.test",
		InterLevelDelay: 15 * time.Second,
	})
	slept := &[]time.Duration{}
	c.sleep = func(ctx context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return ctx.Err()
	}
	return c, slept
}

func baseFilters(query string) *model.SearchFilters {
	intent := NewIntentParser().Parse(query)
	return &model.SearchFilters{
		Keywords:      NewKeywordOptimizer().Optimize(intent),
		NativeFilters: NewFilterBuilder().Build(intent),
		Intent:        intent,
	}
}

// query with roles, tokens and a location so every level applies
const fullLadderQuery = "React developers in Madrid"

func TestController_SucceedsAtLevelK(t *testing.T) {
	for k := 1; k <= 5; k++ {
		t.Run(fmt.Sprintf("level %d", k), func(t *testing.T) {
			fetcher := &stubFetcher{}
			extractor := &stubExtractor{successAt: k}
			gate := &stubGate{}
			c, slept := newTestController(fetcher, extractor, gate)

			res, err := c.Run(context.Background(), baseFilters(fullLadderQuery), model.SearchTypePeople, 10, nil)
			require.NoError(t, err)

			assert.Equal(t, StateSuccess, res.State)
			assert.Equal(t, k, res.Level)
			assert.Len(t, res.Results, 2)
			assert.Equal(t, k, fetcher.calls())
			assert.Len(t, *slept, k-1)
			assert.Len(t, gate.recorded, k)
			assert.Equal(t, 1, gate.checks)

			levels := make([]int, k)
			for i := range levels {
				levels[i] = i + 1
			}
			assert.Equal(t, levels, res.Attempted)

			for _, r := range res.Results {
				assert.Equal(t, k >= 4, r.AIFilterNeeded)
				if k >= 4 {
					require.NotNil(t, r.OriginalCriteria)
					assert.Equal(t, []string{"Madrid"}, r.OriginalCriteria.Locations)
				} else {
					assert.Nil(t, r.OriginalCriteria)
				}
				if k == 5 {
					assert.Equal(t, model.SearchStrategyUltraBroad, r.SearchStrategy)
				} else {
					assert.Empty(t, r.SearchStrategy)
				}
			}
		})
	}
}

func TestController_AllEmptyExhaustsLadder(t *testing.T) {
	fetcher := &stubFetcher{}
	extractor := &stubExtractor{successAt: -1}

	store := ratelimit.NewMemoryStore(nil)
	limiter := ratelimit.New(context.Background(), ratelimit.DefaultLimits(), store,
		ratelimit.WithDelayPolicy(ratelimit.MinimumDelay()))

	c, slept := newTestController(fetcher, extractor, limiter)

	events := []string{}
	res, err := c.Run(context.Background(), baseFilters(fullLadderQuery), model.SearchTypePeople, 10,
		func(e ProgressEvent) { events = append(events, e.Type) })
	require.NoError(t, err)

	assert.Equal(t, StateExhausted, res.State)
	assert.Empty(t, res.Results)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, res.Attempted)
	assert.Equal(t, 5, fetcher.calls())
	assert.Equal(t, []time.Duration{15 * time.Second, 15 * time.Second, 15 * time.Second, 15 * time.Second}, *slept)

	state := limiter.State()
	assert.Equal(t, 5, state.DailySearches)
	assert.Equal(t, 0, state.ConsecutiveFailures)

	assert.Equal(t, EventLevelStart, events[0])
	assert.Equal(t, EventExhausted, events[len(events)-1])
}

func TestController_ResultMultiplier(t *testing.T) {
	fetcher := &stubFetcher{}
	extractor := &stubExtractor{successAt: -1}
	c, _ := newTestController(fetcher, extractor, &stubGate{})

	_, err := c.Run(context.Background(), baseFilters(fullLadderQuery), model.SearchTypePeople, 10, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{10, 10, 10, 20, 30}, extractor.maxSeen)
}

func TestController_SkipsLevelsThatDoNotApply(t *testing.T) {
	fetcher := &stubFetcher{}
	gate := &stubGate{}
	c, _ := newTestController(fetcher, &stubExtractor{successAt: -1}, gate)

	// no tokens longer than two runes and no location: simplified and ultra-broad are skipped
	res, err := c.Run(context.Background(), baseFilters("AI"), model.SearchTypePeople, 5, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3, 4}, res.Attempted)
	assert.Len(t, gate.recorded, 3)
	assert.Contains(t, fetcher.urls[1], "keywords=developer")
}

func TestController_RefusalShortCircuits(t *testing.T) {
	fetcher := &stubFetcher{}
	gate := &stubGate{refusal: &ratelimit.Decision{
		Reason:     "Daily search limit reached (2 searches)",
		Kind:       ratelimit.KindDailyLimit,
		RetryAfter: time.Hour,
	}}
	c, _ := newTestController(fetcher, &stubExtractor{successAt: 1}, gate)

	res, err := c.Run(context.Background(), baseFilters(fullLadderQuery), model.SearchTypePeople, 10, nil)
	require.Error(t, err)
	assert.Nil(t, res)

	assert.True(t, IsRefusal(err))
	assert.ErrorIs(t, err, ratelimit.ErrQuotaExceeded)
	assert.Equal(t, "Daily search limit reached (2 searches)", err.Error())

	var refusal *ratelimit.RefusalError
	require.ErrorAs(t, err, &refusal)
	assert.Equal(t, time.Hour, refusal.RetryAfter)

	assert.Zero(t, fetcher.calls())
	assert.Empty(t, gate.recorded)
}

func TestController_FetchErrorsAdvanceLadder(t *testing.T) {
	fetcher := &stubFetcher{errAt: map[int]error{1: errors.New("navigation timeout")}}
	gate := &stubGate{}
	c, _ := newTestController(fetcher, &stubExtractor{successAt: 2}, gate)

	res, err := c.Run(context.Background(), baseFilters(fullLadderQuery), model.SearchTypePeople, 10, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Level)
	assert.Equal(t, []bool{false, true}, gate.recorded)
}

func TestController_AllLevelsFailing(t *testing.T) {
	boom := errors.New("browser crashed")
	fetcher := &stubFetcher{errAt: map[int]error{1: boom, 2: boom, 3: boom, 4: boom, 5: boom}}
	gate := &stubGate{}
	c, _ := newTestController(fetcher, &stubExtractor{successAt: 1}, gate)

	res, err := c.Run(context.Background(), baseFilters(fullLadderQuery), model.SearchTypePeople, 10, nil)
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrLadderFailed)
	assert.ErrorIs(t, err, boom)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 5, fetchErr.Level)
	assert.Equal(t, StrategyUltraBroad, fetchErr.Strategy)

	require.NotNil(t, res)
	assert.Equal(t, StateExhausted, res.State)
	assert.Equal(t, []bool{false, false, false, false, false}, gate.recorded)
}

func TestController_MixedFailureAndEmptyIsExhausted(t *testing.T) {
	boom := errors.New("net::ERR_CONNECTION_RESET")
	fetcher := &stubFetcher{errAt: map[int]error{1: boom, 3: boom, 4: boom, 5: boom}}
	c, _ := newTestController(fetcher, &stubExtractor{successAt: -1}, &stubGate{})

	res, err := c.Run(context.Background(), baseFilters(fullLadderQuery), model.SearchTypePeople, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, StateExhausted, res.State)
	assert.Empty(t, res.Results)
}

func TestController_CancelDuringFetchRecordsFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := &stubFetcher{
		errAt: map[int]error{2: context.Canceled},
		hook: func(call int) {
			if call == 2 {
				cancel()
			}
		},
	}
	gate := &stubGate{}
	c, _ := newTestController(fetcher, &stubExtractor{successAt: -1}, gate)

	res, err := c.Run(ctx, baseFilters(fullLadderQuery), model.SearchTypePeople, 10, nil)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []bool{true, false}, gate.recorded)
	assert.Equal(t, 2, fetcher.calls())
}

func TestController_SerializesRuns(t *testing.T) {
	c, _ := newTestController(&stubFetcher{}, &stubExtractor{successAt: 1}, &stubGate{})

	// hold the slot as a concurrent run would
	c.sem <- struct{}{}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Run(ctx, baseFilters(fullLadderQuery), model.SearchTypePeople, 10, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	<-c.sem
	res, err := c.Run(context.Background(), baseFilters(fullLadderQuery), model.SearchTypePeople, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, res.State)
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))
	assert.NoError(t, sleepContext(context.Background(), 0))
}
