package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"leadfinder/internal/model"
)

func TestRanker_Annotate(t *testing.T) {
	criteria := &model.Criteria{
		Roles:     []string{"cto"},
		Locations: []string{"Valencia"},
		Skills:    []string{"Python"},
		Seniority: []string{"owner", "cxo"},
	}

	results := []model.Result{
		{Name: "Marta", Title: "CTO & Co-founder", Company: "Django Shop", Location: "Valencia, Spain", AIFilterNeeded: true, OriginalCriteria: criteria},
		{Name: "Pablo", Title: "Designer", Company: "Studio", Location: "Lisbon", AIFilterNeeded: true, OriginalCriteria: criteria},
		{Name: "Irene", Title: "CTO", Location: "Valencia"},
	}

	NewDefaultRanker().Annotate(results)

	assert.InDelta(t, 1.0, results[0].MatchScore, 1e-9)
	assert.Equal(t, []string{ReasonRoleMatch, ReasonLocationMatch, ReasonSkillMatch, ReasonSeniorityMatch}, results[0].MatchedReasons)

	assert.Zero(t, results[1].MatchScore)
	assert.Equal(t, []string{ReasonGeneralMatch}, results[1].MatchedReasons)

	// untagged results are left alone and order is kept
	assert.Zero(t, results[2].MatchScore)
	assert.Nil(t, results[2].MatchedReasons)
	assert.Equal(t, "Irene", results[2].Name)
}

func TestRanker_MultilingualLocation(t *testing.T) {
	criteria := &model.Criteria{Locations: []string{"Valencia"}}
	results := []model.Result{{Name: "Олег", Location: "Валенсія", AIFilterNeeded: true, OriginalCriteria: criteria}}

	NewDefaultRanker().Annotate(results)

	assert.InDelta(t, 1.0, results[0].MatchScore, 1e-9)
}

func TestFormatDocuments(t *testing.T) {
	people := []model.Result{
		{Name: "Ana", Title: "CTO", Company: "Acme", Location: "Madrid", ProfileURL: "https://www.linkedin.com/sales/lead/1"},
		{Name: "Luis", ProfileURL: "https://www.linkedin.com/sales/lead/2", AIFilterNeeded: true,
			OriginalCriteria: &model.Criteria{Roles: []string{"cto"}, Locations: []string{"Madrid"}}},
	}

	docs := FormatDocuments(people, model.SearchTypePeople)

	assert.Equal(t, model.Document{
		Href: "https://www.linkedin.com/sales/lead/1",
		Body: "Name: Ana\nTitle: CTO\nCompany: Acme\nLocation: Madrid\n",
	}, docs[0])

	assert.True(t, strings.HasPrefix(docs[1].Body, "Name: Luis\nTitle: N/A\nCompany: N/A\nLocation: N/A\n\n[AI FILTER NEEDED]\n"))
	assert.Contains(t, docs[1].Body, `Original Criteria: {"roles":["cto"],"locations":["Madrid"]`)
	assert.True(t, strings.HasSuffix(docs[1].Body, "Please evaluate if this profile matches the original search criteria.\n"))

	companies := FormatDocuments([]model.Result{
		{Name: "Acme", Industry: "Software", Size: "11-50", Location: "Valencia", CompanyURL: "https://www.linkedin.com/sales/company/9"},
	}, model.SearchTypeCompanies)

	assert.Equal(t, "https://www.linkedin.com/sales/company/9", companies[0].Href)
	assert.Equal(t, "Company: Acme\nIndustry: Software\nSize: 11-50\nLocation: Valencia\n", companies[0].Body)
}
