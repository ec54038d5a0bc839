package model

import "fmt"

// SearchType discriminates between people and company searches
type SearchType string

const (
	SearchTypePeople    SearchType = "people"
	SearchTypeCompanies SearchType = "companies"
)

// ParseSearchType validates a search type string. An empty string yields "" and no error.
func ParseSearchType(s string) (SearchType, error) {
	switch SearchType(s) {
	case "", SearchTypePeople, SearchTypeCompanies:
		return SearchType(s), nil
	}
	return "", fmt.Errorf("invalid search type %q: must be %q or %q", s, SearchTypePeople, SearchTypeCompanies)
}

// Native filter keys understood by the search page
const (
	FilterGeo            = "geoIncluded"
	FilterCompanySize    = "companySize"
	FilterSeniority      = "seniorityIncluded"
	FilterFunction       = "functionIncluded"
	FilterCurrentJobOnly = "currentJobTitle"
)

// FilterOrder is the order filters are emitted in search URLs
var FilterOrder = []string{
	FilterGeo,
	FilterCompanySize,
	FilterSeniority,
	FilterFunction,
	FilterCurrentJobOnly,
}

// SearchFilters is the optimized form of an intent
type SearchFilters struct {
	Keywords      string            `json:"keywords"`
	NativeFilters map[string]string `json:"native_filters"`
	Intent        *Intent           `json:"intent"` // kept for the broader ladder levels
}

// Strategy is one rung of the progressive search ladder
type Strategy struct {
	Level          int            `json:"level"`
	Name           string         `json:"name"`
	Filters        *SearchFilters `json:"filters"`
	Multiplier     int            `json:"multiplier"`
	NeedsAIFilter  bool           `json:"needs_ai_filter"`
	SearchStrategy string         `json:"search_strategy,omitempty"`
}

// SearchRequest represents a search query request
type SearchRequest struct {
	Query      string `json:"query" binding:"required"`
	SearchType string `json:"search_type,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
	Documents  bool   `json:"documents,omitempty"` // also render research documents
}

// SearchResponse represents a search result response
type SearchResponse struct {
	SearchID        string     `json:"search_id"`
	SearchType      SearchType `json:"search_type"`
	State           string     `json:"state"`
	Level           int        `json:"level,omitempty"`
	Strategy        string     `json:"strategy,omitempty"`
	Keywords        string     `json:"keywords"`
	Intent          *Intent    `json:"intent"`
	Results         []Result   `json:"results"`
	Total           int        `json:"total"`
	Documents       []Document `json:"documents,omitempty"`
	NextDelaySecs   float64    `json:"next_search_delay_seconds"`
	AttemptedLevels []int      `json:"attempted_levels"`
	Took            int64      `json:"took_ms"` // Response time in milliseconds
}

// Document is a result rendered as text for a research pipeline
type Document struct {
	Href string `json:"href"`
	Body string `json:"body"`
}

// ProfileViewRequest records a profile visit made by an external agent
type ProfileViewRequest struct {
	ProfileURL string `json:"profile_url" binding:"required"`
	Success    *bool  `json:"success"`
}

// ProfileViewPermit answers whether a profile may be visited now
type ProfileViewPermit struct {
	Allowed      bool    `json:"allowed"`
	Reason       string  `json:"reason"`
	DelaySeconds float64 `json:"delay_seconds,omitempty"`
}
