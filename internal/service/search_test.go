package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadfinder/internal/config"
	"leadfinder/internal/model"
	"leadfinder/internal/ratelimit"
)

type chanLogger struct {
	entries chan *model.SearchLog
}

func (l *chanLogger) LogSearch(_ context.Context, entry *model.SearchLog) error {
	l.entries <- entry
	return nil
}

func (l *chanLogger) next(t *testing.T) *model.SearchLog {
	t.Helper()
	select {
	case e := <-l.entries:
		return e
	case <-time.After(time.Second):
		t.Fatal("search was not logged")
		return nil
	}
}

type fixedPacer time.Duration

func (p fixedPacer) GetDelay(ratelimit.ActionType) time.Duration { return time.Duration(p) }

func newTestService(successAt int, gate SearchGate) (*SearchService, *stubFetcher, *chanLogger) {
	fetcher := &stubFetcher{}
	controller, _ := newTestController(fetcher, &stubExtractor{successAt: successAt}, gate)
	logger := &chanLogger{entries: make(chan *model.SearchLog, 4)}
	svc := NewSearchService(controller, NewDefaultRanker(), logger, fixedPacer(90*time.Second), config.SearchConfig{
		DefaultLimit: 10,
		MaxLimit:     50,
		Timeout:      time.Minute,
	})
	return svc, fetcher, logger
}

func TestDetectSearchType(t *testing.T) {
	tests := []struct {
		query string
		want  model.SearchType
	}{
		{"CTOs in Madrid", model.SearchTypePeople},
		{"Startups in Valencia", model.SearchTypeCompanies},
		{"IT компанії в Барселоні", model.SearchTypeCompanies},
		{"companies hiring React developers", model.SearchTypeCompanies},
		{"розробники JavaScript у Валенсії", model.SearchTypePeople},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectSearchType(tt.query), tt.query)
	}
}

func TestSearchService_Search(t *testing.T) {
	svc, fetcher, logger := newTestService(1, &stubGate{})

	resp, err := svc.Search(context.Background(), &model.SearchRequest{
		Query:      fullLadderQuery,
		MaxResults: 500,
		Documents:  true,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.SearchID)
	assert.Equal(t, model.SearchTypePeople, resp.SearchType)
	assert.Equal(t, string(StateSuccess), resp.State)
	assert.Equal(t, 1, resp.Level)
	assert.Equal(t, StrategyFull, resp.Strategy)
	assert.Equal(t, `("developer") AND (JavaScript)`, resp.Keywords)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, []int{1}, resp.AttemptedLevels)
	assert.Equal(t, 90.0, resp.NextDelaySecs)
	require.Len(t, resp.Documents, 2)
	assert.True(t, strings.HasPrefix(resp.Documents[0].Body, "Name: Ana Garcia\nTitle: CTO\n"))
	assert.Contains(t, fetcher.urls[0], "/sales/search/people?")

	// level one results are not pre-scored
	assert.Zero(t, resp.Results[0].MatchScore)

	entry := logger.next(t)
	assert.Equal(t, resp.SearchID, entry.SearchID)
	assert.Equal(t, "success", entry.State)
	assert.Equal(t, 2, entry.ResultCount)
	assert.Contains(t, entry.IntentJSON, `"locations":["Madrid"]`)
}

func TestSearchService_BroadLevelsArePreScored(t *testing.T) {
	svc, _, _ := newTestService(4, &stubGate{})

	resp, err := svc.Search(context.Background(), &model.SearchRequest{Query: fullLadderQuery})
	require.NoError(t, err)
	require.Equal(t, 4, resp.Level)

	// Luis Perez, Developer in Madrid: role and location but no skill
	luis := resp.Results[1]
	assert.True(t, luis.AIFilterNeeded)
	assert.InDelta(t, 0.7/0.9, luis.MatchScore, 1e-9)
	assert.Equal(t, []string{ReasonRoleMatch, ReasonLocationMatch}, luis.MatchedReasons)
}

func TestSearchService_InvalidSearchType(t *testing.T) {
	svc, fetcher, _ := newTestService(1, &stubGate{})

	_, err := svc.Search(context.Background(), &model.SearchRequest{Query: "ctos", SearchType: "groups"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Zero(t, fetcher.calls())
}

func TestSearchService_RefusalIsLogged(t *testing.T) {
	gate := &stubGate{refusal: &ratelimit.Decision{
		Reason: "Temporarily blocked for 300 seconds due to failures",
		Kind:   ratelimit.KindBlocked,
	}}
	svc, _, logger := newTestService(1, gate)

	_, err := svc.Search(context.Background(), &model.SearchRequest{Query: "startups in Madrid"})
	assert.ErrorIs(t, err, ratelimit.ErrTemporaryBlock)

	entry := logger.next(t)
	assert.Equal(t, "refused", entry.State)
	assert.Equal(t, "companies", entry.SearchType)
	assert.Equal(t, err.Error(), entry.Error)
}

func TestSearchService_SearchStream(t *testing.T) {
	svc, _, _ := newTestService(2, &stubGate{})

	events := []string{}
	resp, err := svc.SearchStream(context.Background(), &model.SearchRequest{Query: fullLadderQuery},
		func(event string, _ any) error {
			events = append(events, event)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Level)

	assert.Equal(t, []string{
		"intent",
		EventLevelStart, EventLevelEmpty,
		EventLevelStart, EventSuccess,
	}, events)
}

func TestSearchService_Limit(t *testing.T) {
	svc, _, _ := newTestService(1, &stubGate{})

	assert.Equal(t, 10, svc.limit(0))
	assert.Equal(t, 7, svc.limit(7))
	assert.Equal(t, 50, svc.limit(80))
}
