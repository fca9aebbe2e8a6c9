package fetcher

import (
	"strings"

	"github.com/leadlab/enrich-cli/internal/model"
)

// columnIndex maps lead fields to their column positions; -1 means absent.
type columnIndex struct {
	website    int
	name       int
	industry   int
	prefecture int
	inquiry    int
}

// Header aliases accepted per field. Japanese CRM exports and hand-kept
// spreadsheets name these columns inconsistently.
var headerAliases = map[string][]string{
	"website":    {"website", "url", "homepage", "サイト", "ホームページ", "企業url"},
	"name":       {"name", "company", "company_name", "企業名", "会社名", "社名"},
	"industry":   {"industry", "業種", "業界"},
	"prefecture": {"prefecture", "pref", "都道府県", "所在地"},
	"inquiry":    {"inquiry", "inquiry_url", "contact", "問い合わせ", "お問い合わせ"},
}

// mapHeader resolves column positions from a header row. Matching is
// case-insensitive and ignores surrounding whitespace.
func mapHeader(header []string) columnIndex {
	idx := columnIndex{website: -1, name: -1, industry: -1, prefecture: -1, inquiry: -1}
	for i, cell := range header {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		switch {
		case idx.website < 0 && matchesAlias("website", normalized):
			idx.website = i
		case idx.name < 0 && matchesAlias("name", normalized):
			idx.name = i
		case idx.industry < 0 && matchesAlias("industry", normalized):
			idx.industry = i
		case idx.prefecture < 0 && matchesAlias("prefecture", normalized):
			idx.prefecture = i
		case idx.inquiry < 0 && matchesAlias("inquiry", normalized):
			idx.inquiry = i
		}
	}
	return idx
}

func matchesAlias(field, cell string) bool {
	for _, alias := range headerAliases[field] {
		if cell == alias {
			return true
		}
	}
	return false
}

// valid reports whether the header carried the two required columns.
func (c columnIndex) valid() bool {
	return c.website >= 0 && c.name >= 0
}

// rowToInput builds a CompanyInput from one data row. Returns false when the
// row has no website.
func (c columnIndex) rowToInput(row []string) (model.CompanyInput, bool) {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	in := model.CompanyInput{
		Website:        cell(c.website),
		Name:           cell(c.name),
		Industry:       cell(c.industry),
		PrefectureHint: cell(c.prefecture),
		InquiryURL:     cell(c.inquiry),
	}
	if in.Website == "" {
		return model.CompanyInput{}, false
	}
	return in, true
}
