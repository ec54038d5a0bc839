package navigator

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kataras/golog"

	"leadfinder/internal/model"
)

const notAvailable = "N/A"

// Result page selectors
const (
	selPersonName  = "[data-anonymize='person-name']"
	selTitle       = "[data-anonymize='title']"
	selCompanyName = "[data-anonymize='company-name']"
	selIndustry    = "[data-anonymize='industry']"
	selCompanySize = "[data-anonymize='company-size']"
	selLocation    = "[data-anonymize='location']"
	selLeadLink    = "a[href*='/sales/lead/']"
	selCompanyLink = "a[href*='/sales/company/']"
	selContainer   = "li"
)

// HTMLExtractor reads result records out of a search results page
type HTMLExtractor struct {
	base *url.URL
}

// NewHTMLExtractor creates an extractor that resolves relative links against baseURL
func NewHTMLExtractor(baseURL string) (*HTMLExtractor, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	return &HTMLExtractor{base: base}, nil
}

// Extract returns up to max records in page order. A page without result
// elements is not an error.
func (e *HTMLExtractor) Extract(ctx context.Context, page *model.Page, searchType model.SearchType, max int) ([]model.Result, error) {
	if page == nil {
		return nil, fmt.Errorf("no page to extract from")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	if searchType == model.SearchTypeCompanies {
		return e.extract(ctx, doc, selCompanyName, max, e.company), nil
	}
	return e.extract(ctx, doc, selPersonName, max, e.person), nil
}

func (e *HTMLExtractor) extract(
	ctx context.Context,
	doc *goquery.Document,
	anchor string,
	max int,
	build func(name string, container *goquery.Selection) model.Result,
) []model.Result {
	results := []model.Result{}

	doc.Find(anchor).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if ctx.Err() != nil || (max > 0 && len(results) >= max) {
			return false
		}

		container := s.Closest(selContainer)
		if container.Length() == 0 {
			golog.Debugf("Skipping result without container: %q", cleanText(s.Text()))
			return true
		}

		results = append(results, build(textOr(s), container))
		return true
	})

	return results
}

func (e *HTMLExtractor) person(name string, container *goquery.Selection) model.Result {
	return model.Result{
		Name:       name,
		Title:      textOr(container.Find(selTitle).First()),
		Company:    textOr(container.Find(selCompanyName).First()),
		Location:   textOr(container.Find(selLocation).First()),
		ProfileURL: e.link(container.Find(selLeadLink).First()),
		Source:     model.SourceSalesNavigator,
	}
}

func (e *HTMLExtractor) company(name string, container *goquery.Selection) model.Result {
	return model.Result{
		Name:       name,
		Industry:   textOr(container.Find(selIndustry).First()),
		Size:       textOr(container.Find(selCompanySize).First()),
		Location:   textOr(container.Find(selLocation).First()),
		CompanyURL: e.link(container.Find(selCompanyLink).First()),
		Source:     model.SourceSalesNavigator,
	}
}

// link resolves the selection's href, or returns "" when there is none
func (e *HTMLExtractor) link(s *goquery.Selection) string {
	href, ok := s.Attr("href")
	if !ok || href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return e.base.ResolveReference(ref).String()
}

func textOr(s *goquery.Selection) string {
	if s.Length() == 0 {
		return notAvailable
	}
	if text := cleanText(s.Text()); text != "" {
		return text
	}
	return notAvailable
}

// cleanText collapses runs of whitespace
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
