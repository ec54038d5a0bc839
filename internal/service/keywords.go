package service

import (
	"fmt"
	"strings"

	"leadfinder/internal/model"
	"leadfinder/internal/utils"
)

const (
	maxKeywordRoles  = 2
	maxKeywordSkills = 2
	maxSimpleTokens  = 2
	minTokenLength   = 2 // tokens must be longer than this
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"склади": {}, "будь": {}, "ласка": {}, "список": {}, "які": {}, "мають": {}, "шукають": {},
}

// KeywordOptimizer turns an intent into a bounded boolean keyword string
type KeywordOptimizer struct{}

// NewKeywordOptimizer creates a new keyword optimizer
func NewKeywordOptimizer() *KeywordOptimizer {
	return &KeywordOptimizer{}
}

// Optimize builds `("role" OR "role") AND (skill OR skill)`, falling back to simple tokens
// from the raw query when no role or skill matched
func (o *KeywordOptimizer) Optimize(intent *model.Intent) string {
	parts := []string{}

	if len(intent.Roles) > 0 {
		parts = append(parts, "("+orJoin(quoteAll(utils.First(intent.Roles, maxKeywordRoles)))+")")
	}

	if len(intent.Skills) > 0 {
		skills := orJoin(utils.First(intent.Skills, maxKeywordSkills))
		if len(parts) > 0 {
			parts = append(parts, fmt.Sprintf("AND (%s)", skills))
		} else {
			parts = append(parts, skills)
		}
	}

	if len(parts) == 0 {
		return orJoin(utils.First(SimpleKeywords(intent.KeywordsRaw), maxSimpleTokens))
	}

	return strings.Join(parts, " ")
}

// SimpleKeywords extracts the meaningful tokens of a raw query
func SimpleKeywords(raw string) []string {
	return utils.SimpleTokens(raw, minTokenLength, stopWords)
}

func orJoin(terms []string) string {
	return strings.Join(terms, " OR ")
}

func quoteAll(terms []string) []string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + t + `"`
	}
	return quoted
}
