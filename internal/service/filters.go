package service

import (
	"strings"

	"leadfinder/internal/model"
)

// FunctionEngineering is the function filter value for technical roles
const FunctionEngineering = "engineering"

// companySizeCodes maps employee buckets to the search page's size codes
var companySizeCodes = map[string]string{
	"1-50":    "B",
	"1-100":   "C", // closest bucket is 51-200
	"51-200":  "D",
	"201-500": "E",
}

var technicalRoles = []string{"javascript developer", "developer"}

// FilterBuilder maps an intent to native search filters
type FilterBuilder struct{}

// NewFilterBuilder creates a new filter builder
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{}
}

// Build emits only the filters the intent supports, plus currentJobTitle=true
func (b *FilterBuilder) Build(intent *model.Intent) map[string]string {
	filters := map[string]string{}

	if len(intent.Locations) > 0 {
		filters[model.FilterGeo] = strings.Join(intent.Locations, ",")
	}

	if code, ok := companySizeCodes[intent.CompanyCriteria.Size]; ok {
		filters[model.FilterCompanySize] = code
	}

	if len(intent.Seniority) > 0 {
		filters[model.FilterSeniority] = strings.Join(intent.Seniority, ",")
	}

	if hasAny(intent.Roles, technicalRoles) {
		filters[model.FilterFunction] = FunctionEngineering
	}

	filters[model.FilterCurrentJobOnly] = "true"

	return filters
}

func hasAny(values, wanted []string) bool {
	for _, v := range values {
		for _, w := range wanted {
			if v == w {
				return true
			}
		}
	}
	return false
}
