package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"leadfinder/internal/model"
)

// FormatDocuments renders results as {href, body} documents for a research pipeline
func FormatDocuments(results []model.Result, searchType model.SearchType) []model.Document {
	docs := make([]model.Document, 0, len(results))
	for i := range results {
		r := &results[i]

		var b strings.Builder
		if searchType == model.SearchTypeCompanies {
			fmt.Fprintf(&b, "Company: %s\n", orNA(r.Name))
			fmt.Fprintf(&b, "Industry: %s\n", orNA(r.Industry))
			fmt.Fprintf(&b, "Size: %s\n", orNA(r.Size))
			fmt.Fprintf(&b, "Location: %s\n", orNA(r.Location))
		} else {
			fmt.Fprintf(&b, "Name: %s\n", orNA(r.Name))
			fmt.Fprintf(&b, "Title: %s\n", orNA(r.Title))
			fmt.Fprintf(&b, "Company: %s\n", orNA(r.Company))
			fmt.Fprintf(&b, "Location: %s\n", orNA(r.Location))
		}

		if r.AIFilterNeeded {
			criteria, _ := json.Marshal(r.OriginalCriteria)
			b.WriteString("\n[AI FILTER NEEDED]\n")
			fmt.Fprintf(&b, "Original Criteria: %s\n", criteria)
			b.WriteString("Please evaluate if this profile matches the original search criteria.\n")
		}

		docs = append(docs, model.Document{Href: r.Href(), Body: b.String()})
	}
	return docs
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
