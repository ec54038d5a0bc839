package model

// Intent represents the structured categories extracted from a free-text query
type Intent struct {
	Roles           []string        `json:"roles"`
	Skills          []string        `json:"skills"`
	Locations       []string        `json:"locations"`
	Seniority       []string        `json:"seniority"`
	CompanyCriteria CompanyCriteria `json:"company_criteria"`
	KeywordsRaw     string          `json:"keywords_raw"`
}

// CompanyCriteria holds company-level criteria detected in the query
type CompanyCriteria struct {
	Size    string `json:"size,omitempty"`    // employee bucket, e.g. "1-50"
	Funding string `json:"funding,omitempty"` // "funded" when funding terms were found
}

// NewIntent returns an intent with every category present and empty
func NewIntent(raw string) *Intent {
	return &Intent{
		Roles:       []string{},
		Skills:      []string{},
		Locations:   []string{},
		Seniority:   []string{},
		KeywordsRaw: raw,
	}
}

// Criteria is the subset of an intent echoed on results that need re-ranking
type Criteria struct {
	Roles           []string        `json:"roles"`
	Locations       []string        `json:"locations"`
	CompanyCriteria CompanyCriteria `json:"company_criteria"`
	Seniority       []string        `json:"seniority"`
	Skills          []string        `json:"skills"`
}

// Criteria returns a copy of the intent's matchable categories
func (i *Intent) Criteria() *Criteria {
	return &Criteria{
		Roles:           append([]string{}, i.Roles...),
		Locations:       append([]string{}, i.Locations...),
		CompanyCriteria: i.CompanyCriteria,
		Seniority:       append([]string{}, i.Seniority...),
		Skills:          append([]string{}, i.Skills...),
	}
}
