// Package provider abstracts the external search, extraction, and synthesis
// services behind capability interfaces so the pipeline can mix vendors.
package provider

import (
	"context"

	"github.com/leadlab/enrich-cli/internal/model"
)

// SearchHit is one ranked result from a SearchProvider.
type SearchHit struct {
	Title   string
	URL     string
	Snippet string
}

// SearchProvider runs domain-scoped web searches for candidate URLs.
type SearchProvider interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchHit, error)
}

// ExtractionProvider pulls raw facts from a company's candidate pages.
// Output strings are untrusted and must be validated downstream.
type ExtractionProvider interface {
	Extract(ctx context.Context, in model.CompanyInput, urls []string) (model.ExtractedFields, error)
}

// Draft is an unvalidated synthesized record. Validation and repair happen
// in the pipeline, never here.
type Draft struct {
	Name                   string   `json:"name"`
	NameLegal              string   `json:"name_legal"`
	Industry               string   `json:"industry"`
	HQAddressRaw           string   `json:"hq_address_raw"`
	PrefectureName         string   `json:"prefecture_name"`
	OverviewText           string   `json:"overview_text"`
	ServicesText           string   `json:"services_text"`
	ProductsText           string   `json:"products_text"`
	PainHypotheses         []string `json:"pain_hypotheses"`
	PersonalizationNotes   string   `json:"personalization_notes"`
	EmployeeCount          *int     `json:"employee_count"`
	EmployeeCountSourceURL string   `json:"employee_count_source_url"`
}

// SynthesisProvider turns extracted facts into a Draft record.
type SynthesisProvider interface {
	Synthesize(ctx context.Context, in model.CompanyInput, fields model.ExtractedFields) (*Draft, error)
}
