package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntentParser_Parse(t *testing.T) {
	parser := NewIntentParser()

	tests := []struct {
		name      string
		query     string
		roles     []string
		skills    []string
		locations []string
		seniority []string
		size      string
		funding   string
	}{
		{
			name:      "Empty query",
			query:     "",
			roles:     []string{},
			skills:    []string{},
			locations: []string{},
			seniority: []string{},
		},
		{
			name:      "English CTO in Valencia",
			query:     "CTO of funded startups in Valencia",
			roles:     []string{"cto"},
			skills:    []string{},
			locations: []string{"Valencia"},
			seniority: []string{"owner", "partner", "cxo", "vp", "director"},
			size:      "1-50",
			funding:   "funded",
		},
		{
			name:      "Ukrainian query",
			query:     "Склади список JavaScript розробників у Валенсії, компанії до 100 співробітників",
			roles:     []string{"javascript developer", "developer"},
			skills:    []string{"JavaScript", "Java"}, // substring match, "java" is inside "javascript"
			locations: []string{"Valencia"},
			seniority: []string{},
			size:      "1-100",
		},
		{
			name:      "Skills and several locations in table order",
			query:     "python and react engineers in Spain or Madrid",
			roles:     []string{"developer"},
			skills:    []string{"JavaScript", "Python"},
			locations: []string{"Madrid", "Spain"},
			seniority: []string{},
		},
		{
			name:      "Decision makers",
			query:     "ЛПР in Barcelona",
			roles:     []string{},
			skills:    []string{},
			locations: []string{"Barcelona"},
			seniority: []string{"owner", "partner", "cxo", "vp", "director"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := parser.Parse(tt.query)

			assert.Equal(t, tt.roles, intent.Roles)
			assert.Equal(t, tt.skills, intent.Skills)
			assert.Equal(t, tt.locations, intent.Locations)
			assert.Equal(t, tt.seniority, intent.Seniority)
			assert.Equal(t, tt.size, intent.CompanyCriteria.Size)
			assert.Equal(t, tt.funding, intent.CompanyCriteria.Funding)
			assert.Equal(t, tt.query, intent.KeywordsRaw)
		})
	}
}

func TestIntentParser_IsPure(t *testing.T) {
	parser := NewIntentParser()
	query := "React developers in Madrid, startups"

	first := parser.Parse(query)
	second := parser.Parse(query)

	assert.Equal(t, first, second)
}
