package service

import (
	"net/url"
	"sort"
	"strings"

	"leadfinder/internal/model"
)

// DefaultBaseURL is the Sales Navigator origin
const DefaultBaseURL = "https://www.linkedin.com"

// BuildSearchURL renders a search page URL. Keywords come first, then the native filters
// in model.FilterOrder followed by any unknown keys in sorted order. Empty values are skipped.
func BuildSearchURL(baseURL string, searchType model.SearchType, filters *model.SearchFilters) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if searchType == "" {
		searchType = model.SearchTypePeople
	}
	base := strings.TrimRight(baseURL, "/") + "/sales/search/" + string(searchType)

	params := []string{}
	if filters.Keywords != "" {
		params = append(params, "keywords="+url.QueryEscape(filters.Keywords))
	}

	for _, key := range filterKeys(filters.NativeFilters) {
		value := filters.NativeFilters[key]
		if value == "" {
			continue
		}
		if key == model.FilterCurrentJobOnly && value == "true" {
			params = append(params, "currentJobTitle=true")
			continue
		}
		params = append(params, key+"="+url.QueryEscape(value))
	}

	if len(params) == 0 {
		return base
	}
	return base + "?" + strings.Join(params, "&")
}

func filterKeys(filters map[string]string) []string {
	keys := make([]string, 0, len(filters))
	known := map[string]bool{}
	for _, k := range model.FilterOrder {
		known[k] = true
		if _, ok := filters[k]; ok {
			keys = append(keys, k)
		}
	}

	extra := []string{}
	for k := range filters {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)

	return append(keys, extra...)
}
