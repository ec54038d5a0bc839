package model

// SourceSalesNavigator is the source tag set on every extracted record
const SourceSalesNavigator = "LinkedIn Sales Navigator"

// SearchStrategyUltraBroad tags results produced by the last ladder level
const SearchStrategyUltraBroad = "ultra_broad"

// Result is one raw record extracted from a search results page.
// People searches fill Title/Company/ProfileURL, company searches fill Industry/Size/CompanyURL.
type Result struct {
	Name       string `json:"name"`
	Title      string `json:"title,omitempty"`
	Company    string `json:"company,omitempty"`
	Industry   string `json:"industry,omitempty"`
	Size       string `json:"size,omitempty"`
	Location   string `json:"location"`
	ProfileURL string `json:"profile_url,omitempty"`
	CompanyURL string `json:"company_url,omitempty"`
	Source     string `json:"source"`

	AIFilterNeeded   bool      `json:"ai_filter_needed,omitempty"`
	OriginalCriteria *Criteria `json:"original_criteria,omitempty"`
	SearchStrategy   string    `json:"search_strategy,omitempty"`
	MatchScore       float64   `json:"match_score,omitempty"`
	MatchedReasons   []string  `json:"matched_reasons,omitempty"`
}

// Href returns the record's canonical link
func (r *Result) Href() string {
	if r.ProfileURL != "" {
		return r.ProfileURL
	}
	return r.CompanyURL
}

// Page is the handle a page fetcher hands to a result extractor
type Page struct {
	URL  string
	HTML string
}
