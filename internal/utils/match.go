package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// PatternGroup maps a canonical term to the substrings that signal it
type PatternGroup struct {
	Term     string
	Patterns []string
}

// PatternTable is an ordered list of pattern groups. Order is the order matches are reported in.
type PatternTable []PatternGroup

// Match returns every term whose patterns occur in text, in table order.
// text is expected to be lowercased already.
func (t PatternTable) Match(text string) []string {
	matched := []string{}
	for _, group := range t {
		if ContainsAny(text, group.Patterns) {
			matched = append(matched, group.Term)
		}
	}
	return matched
}

// ContainsAny reports whether any pattern is a substring of text
func ContainsAny(text string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// Normalize lowercases and trims a query
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// CleanToken keeps only the letters and digits of a word
func CleanToken(word string) string {
	var b strings.Builder
	for _, r := range word {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SimpleTokens splits text on whitespace and returns the cleaned tokens longer than
// minLen runes that are not stop words, in order of appearance
func SimpleTokens(text string, minLen int, stopWords map[string]struct{}) []string {
	tokens := []string{}
	for _, word := range strings.Fields(strings.ToLower(text)) {
		clean := CleanToken(word)
		if utf8.RuneCountInString(clean) <= minLen {
			continue
		}
		if _, stop := stopWords[clean]; stop {
			continue
		}
		tokens = append(tokens, clean)
	}
	return tokens
}

// First returns at most n leading items of s
func First(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// AppendUnique appends the values not already present in s
func AppendUnique(s []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, existing := range s {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			s = append(s, v)
		}
	}
	return s
}

// Patterns returns the patterns registered for term, or nil
func (t PatternTable) Patterns(term string) []string {
	for _, group := range t {
		if group.Term == term {
			return group.Patterns
		}
	}
	return nil
}
