package service

import (
	"leadfinder/internal/model"
	"leadfinder/internal/utils"
)

// Ladder level names
const (
	StrategyFull         = "full"
	StrategySimplified   = "simplified"
	StrategyMinimal      = "minimal"
	StrategyORBroadening = "or_broadening"
	StrategyUltraBroad   = "ultra_broad"
)

const (
	defaultMinimalKeyword = "developer"
	broadFallbackKeywords = "developer OR engineer OR founder OR manager"
	ultraBroadKeywords    = "developer OR manager OR founder"
	fundingGroup          = "(startup OR funded OR investment)"
	maxBroadTerms         = 3
	maxBroadGroups        = 3
)

var broadSeniorityTerms = []string{"founder", "CEO", "CTO", "director", "manager"}

// LadderStep declares one ladder level. Build returns false when the level does not apply.
type LadderStep struct {
	Name           string
	Multiplier     int
	NeedsAIFilter  bool
	SearchStrategy string
	Build          func(base *model.SearchFilters) (*model.SearchFilters, bool)
}

// DefaultLadder is the ordered list of progressively broader searches
var DefaultLadder = []LadderStep{
	{Name: StrategyFull, Multiplier: 1, Build: buildFull},
	{Name: StrategySimplified, Multiplier: 1, Build: buildSimplified},
	{Name: StrategyMinimal, Multiplier: 1, Build: buildMinimal},
	{Name: StrategyORBroadening, Multiplier: 2, NeedsAIFilter: true, Build: buildORBroadening},
	{Name: StrategyUltraBroad, Multiplier: 3, NeedsAIFilter: true, SearchStrategy: model.SearchStrategyUltraBroad, Build: buildUltraBroad},
}

// Plan materializes the applicable ladder levels for a base search, numbered from 1
func Plan(ladder []LadderStep, base *model.SearchFilters) []model.Strategy {
	plan := make([]model.Strategy, 0, len(ladder))
	for i, step := range ladder {
		filters, ok := step.Build(base)
		if !ok {
			continue
		}
		if filters.Intent == nil {
			filters.Intent = base.Intent
		}
		plan = append(plan, model.Strategy{
			Level:          i + 1,
			Name:           step.Name,
			Filters:        filters,
			Multiplier:     step.Multiplier,
			NeedsAIFilter:  step.NeedsAIFilter,
			SearchStrategy: step.SearchStrategy,
		})
	}
	return plan
}

func buildFull(base *model.SearchFilters) (*model.SearchFilters, bool) {
	native := make(map[string]string, len(base.NativeFilters))
	for k, v := range base.NativeFilters {
		native[k] = v
	}
	return &model.SearchFilters{Keywords: base.Keywords, NativeFilters: native}, true
}

func buildSimplified(base *model.SearchFilters) (*model.SearchFilters, bool) {
	tokens := SimpleKeywords(base.Intent.KeywordsRaw)
	if len(tokens) == 0 {
		return nil, false
	}
	return &model.SearchFilters{
		Keywords:      orJoin(utils.First(tokens, maxSimpleTokens)),
		NativeFilters: geoFilters(base, true),
	}, true
}

func buildMinimal(base *model.SearchFilters) (*model.SearchFilters, bool) {
	keyword := defaultMinimalKeyword
	if tokens := SimpleKeywords(base.Intent.KeywordsRaw); len(tokens) > 0 {
		keyword = tokens[0]
	}
	return &model.SearchFilters{
		Keywords:      keyword,
		NativeFilters: geoFilters(base, false),
	}, true
}

func buildORBroadening(base *model.SearchFilters) (*model.SearchFilters, bool) {
	return &model.SearchFilters{
		Keywords:      broadeningKeywords(base.Intent),
		NativeFilters: geoFilters(base, true),
	}, true
}

func buildUltraBroad(base *model.SearchFilters) (*model.SearchFilters, bool) {
	if len(base.Intent.Locations) == 0 {
		return nil, false
	}
	return &model.SearchFilters{
		Keywords:      ultraBroadKeywords,
		NativeFilters: geoFilters(base, true),
	}, true
}

// broadeningKeywords ORs together at most three parenthesized groups, never ANDs them
func broadeningKeywords(intent *model.Intent) string {
	groups := []string{}

	if len(intent.Roles) > 0 {
		groups = append(groups, "("+orJoin(quoteAll(utils.First(intent.Roles, maxBroadTerms)))+")")
	}
	if len(intent.Skills) > 0 {
		groups = append(groups, "("+orJoin(utils.First(intent.Skills, maxBroadTerms))+")")
	}
	if len(intent.Seniority) > 0 {
		groups = append(groups, "("+orJoin(broadSeniorityTerms[:maxBroadTerms])+")")
	}
	if intent.CompanyCriteria.Funding != "" {
		groups = append(groups, fundingGroup)
	}

	if len(groups) == 0 {
		return broadFallbackKeywords
	}
	return orJoin(utils.First(groups, maxBroadGroups))
}

// geoFilters keeps the location filter of the base search, optionally with currentJobTitle
func geoFilters(base *model.SearchFilters, currentJob bool) map[string]string {
	filters := map[string]string{}
	if geo := base.NativeFilters[model.FilterGeo]; geo != "" {
		filters[model.FilterGeo] = geo
	}
	if currentJob {
		filters[model.FilterCurrentJobOnly] = "true"
	}
	return filters
}
