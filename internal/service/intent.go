package service

import (
	"leadfinder/internal/model"
	"leadfinder/internal/utils"
)

// Pattern tables. Matches are reported in table order.
var (
	rolePatterns = utils.PatternTable{
		{Term: "javascript developer", Patterns: []string{"javascript", "js", "frontend", "backend", "fullstack", "розробник"}},
		{Term: "cto", Patterns: []string{"cto", "chief technology", "tech lead", "технічний директор"}},
		{Term: "ceo", Patterns: []string{"ceo", "chief executive", "founder", "засновник", "директор"}},
		{Term: "developer", Patterns: []string{"developer", "engineer", "programmer", "розробник", "програміст"}},
		{Term: "manager", Patterns: []string{"manager", "менеджер", "керівник"}},
	}

	skillPatterns = utils.PatternTable{
		{Term: "JavaScript", Patterns: []string{"javascript", "js", "node", "react", "vue", "angular"}},
		{Term: "Python", Patterns: []string{"python", "django", "flask"}},
		{Term: "Java", Patterns: []string{"java", "spring"}},
		{Term: "TypeScript", Patterns: []string{"typescript", "ts"}},
	}

	locationPatterns = utils.PatternTable{
		{Term: "Valencia", Patterns: []string{"valencia", "валенсії", "валенсія"}},
		{Term: "Barcelona", Patterns: []string{"barcelona", "барселоні", "барселона"}},
		{Term: "Madrid", Patterns: []string{"madrid", "мадрид"}},
		{Term: "Spain", Patterns: []string{"spain", "іспанії", "іспанія"}},
	}

	// Checked in order, first hit wins
	companySizePatterns = utils.PatternTable{
		{Term: "1-100", Patterns: []string{"100", "співробітників", "employees"}},
		{Term: "1-50", Patterns: []string{"startup", "стартап"}},
	}

	fundingPatterns   = []string{"funded", "investment", "інвестиції"}
	decisionPatterns  = []string{"лпр", "decision maker", "ceo", "cto", "founder"}
	decisionSeniority = []string{"owner", "partner", "cxo", "vp", "director"}
)

// FundingFunded is the company funding criterion set when funding terms are found
const FundingFunded = "funded"

// IntentParser extracts structured search intent from free text.
// It is a pure function of the query: no network, no state.
type IntentParser struct{}

// NewIntentParser creates a new intent parser
func NewIntentParser() *IntentParser {
	return &IntentParser{}
}

// Parse classifies the query into roles, skills, locations, seniority and company criteria
func (p *IntentParser) Parse(query string) *model.Intent {
	intent := model.NewIntent(query)
	text := utils.Normalize(query)
	if text == "" {
		return intent
	}

	intent.Roles = rolePatterns.Match(text)
	intent.Skills = skillPatterns.Match(text)
	intent.Locations = locationPatterns.Match(text)

	if sizes := companySizePatterns.Match(text); len(sizes) > 0 {
		intent.CompanyCriteria.Size = sizes[0]
	}
	if utils.ContainsAny(text, fundingPatterns) {
		intent.CompanyCriteria.Funding = FundingFunded
	}
	if utils.ContainsAny(text, decisionPatterns) {
		intent.Seniority = utils.AppendUnique(intent.Seniority, decisionSeniority...)
	}

	return intent
}
