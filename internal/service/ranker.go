package service

import (
	"strings"

	"leadfinder/internal/model"
	"leadfinder/internal/utils"
)

// Match reason constants
const (
	ReasonRoleMatch      = "Role match"
	ReasonLocationMatch  = "Location match"
	ReasonSkillMatch     = "Skill match"
	ReasonSeniorityMatch = "Seniority match"
	ReasonGeneralMatch   = "General match"
)

var seniorityTitleTerms = []string{
	"owner", "partner", "founder", "co-founder", "ceo", "cto", "cxo", "chief", "vp", "vice president", "director", "head of",
}

// Ranker pre-scores broad-level results against the criteria they were searched with.
// It annotates match_score and matched_reasons and never reorders results.
type Ranker struct {
	weightRole      float64
	weightLocation  float64
	weightSkill     float64
	weightSeniority float64
}

// NewRanker creates a new ranker with specified weights
func NewRanker(weightRole, weightLocation, weightSkill, weightSeniority float64) *Ranker {
	return &Ranker{
		weightRole:      weightRole,
		weightLocation:  weightLocation,
		weightSkill:     weightSkill,
		weightSeniority: weightSeniority,
	}
}

// NewDefaultRanker weighs role and location above skill and seniority
func NewDefaultRanker() *Ranker {
	return NewRanker(0.4, 0.3, 0.2, 0.1)
}

// Annotate scores every result tagged ai_filter_needed in place
func (r *Ranker) Annotate(results []model.Result) {
	for i := range results {
		if !results[i].AIFilterNeeded || results[i].OriginalCriteria == nil {
			continue
		}
		results[i].MatchScore, results[i].MatchedReasons = r.score(&results[i], results[i].OriginalCriteria)
	}
}

// score is the weighted share of criteria categories the record's text satisfies.
// Categories absent from the criteria do not count against the record.
func (r *Ranker) score(result *model.Result, criteria *model.Criteria) (float64, []string) {
	text := strings.ToLower(strings.Join([]string{
		result.Name, result.Title, result.Company, result.Industry, result.Location,
	}, " "))

	var total, matched float64
	reasons := []string{}

	check := func(weight float64, present, hit bool, reason string) {
		if !present {
			return
		}
		total += weight
		if hit {
			matched += weight
			reasons = append(reasons, reason)
		}
	}

	check(r.weightRole, len(criteria.Roles) > 0, matchesAny(text, criteria.Roles, rolePatterns), ReasonRoleMatch)
	check(r.weightLocation, len(criteria.Locations) > 0, matchesAny(text, criteria.Locations, locationPatterns), ReasonLocationMatch)
	check(r.weightSkill, len(criteria.Skills) > 0, matchesAny(text, criteria.Skills, skillPatterns), ReasonSkillMatch)
	check(r.weightSeniority, len(criteria.Seniority) > 0, utils.ContainsAny(text, seniorityTitleTerms), ReasonSeniorityMatch)

	if len(reasons) == 0 {
		reasons = append(reasons, ReasonGeneralMatch)
	}
	if total == 0 {
		return 0, reasons
	}
	return matched / total, reasons
}

// matchesAny checks each term and the multilingual patterns registered for it
func matchesAny(text string, terms []string, table utils.PatternTable) bool {
	for _, term := range terms {
		if strings.Contains(text, strings.ToLower(term)) {
			return true
		}
		if utils.ContainsAny(text, table.Patterns(term)) {
			return true
		}
	}
	return false
}
