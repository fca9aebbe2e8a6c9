package model

import "time"

// Status is the persisted outcome of an enrichment attempt for one company.
type Status string

const (
	StatusOK         Status = "ok"
	StatusParseError Status = "parse_error"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped_already_ok"
)

// Valid reports whether s is one of the four persisted statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOK, StatusParseError, StatusFailed, StatusSkipped:
		return true
	}
	return false
}

// Stage tracks pipeline progress for a single company. Transitions are
// strictly forward: Pending → Searched → Extracted → Synthesized → Stored,
// with Failed reachable from any stage.
type Stage string

const (
	StagePending     Stage = "pending"
	StageSearched    Stage = "searched"
	StageExtracted   Stage = "extracted"
	StageSynthesized Stage = "synthesized"
	StageStored      Stage = "stored"
	StageFailed      Stage = "failed"
)

// CompanyInput identifies a company queued for enrichment. The website URL is
// the unique key; inputs are immutable once dispatched.
type CompanyInput struct {
	Website        string `json:"website"`
	Name           string `json:"name"`
	Industry       string `json:"industry"`
	PrefectureHint string `json:"prefecture_hint,omitempty"`
	InquiryURL     string `json:"inquiry_url,omitempty"`
}

// URLCategory names a bucket in a CandidateURLSet.
type URLCategory string

const (
	CategoryAbout    URLCategory = "about"
	CategoryBusiness URLCategory = "business"
	CategoryProduct  URLCategory = "product"
	CategoryNews     URLCategory = "news"
	CategoryLegal    URLCategory = "legal"
)

// Categories lists all URL categories in partition order.
var Categories = []URLCategory{CategoryAbout, CategoryBusiness, CategoryProduct, CategoryNews, CategoryLegal}

// CandidateURLSet is the Phase A output: candidate URLs partitioned by page
// intent. Each URL lands in exactly one category (first matching rule wins);
// empty categories are fine.
type CandidateURLSet struct {
	About    []string `json:"about"`
	Business []string `json:"business"`
	Product  []string `json:"product"`
	News     []string `json:"news"`
	Legal    []string `json:"legal"`
}

// All returns every candidate URL across categories, in category order.
func (c CandidateURLSet) All() []string {
	var urls []string
	urls = append(urls, c.About...)
	urls = append(urls, c.Business...)
	urls = append(urls, c.Product...)
	urls = append(urls, c.News...)
	urls = append(urls, c.Legal...)
	return urls
}

// Total returns the number of candidate URLs across all categories.
func (c CandidateURLSet) Total() int {
	return len(c.About) + len(c.Business) + len(c.Product) + len(c.News) + len(c.Legal)
}

// ExtractedFields is the Phase B output: raw, unvalidated strings pulled from
// candidate pages. Phase C must not trust any of it.
type ExtractedFields struct {
	AddressLines       []string `json:"address_lines"`
	EmployeeMentions   []string `json:"employee_mentions"`
	ServiceHeads       []string `json:"service_heads"`
	ProductHeads       []string `json:"product_heads"`
	NewsHeadlines      []string `json:"news_headlines"`
	BusinessDetails    []string `json:"business_details"`
	CompanyFeatures    []string `json:"company_features"`
	TechStack          []string `json:"tech_stack"`
	CompanyDescription string   `json:"company_description"`
}

// Empty reports whether no field holds any content.
func (f ExtractedFields) Empty() bool {
	return len(f.AddressLines) == 0 &&
		len(f.EmployeeMentions) == 0 &&
		len(f.ServiceHeads) == 0 &&
		len(f.ProductHeads) == 0 &&
		len(f.NewsHeadlines) == 0 &&
		len(f.BusinessDetails) == 0 &&
		len(f.CompanyFeatures) == 0 &&
		len(f.TechStack) == 0 &&
		f.CompanyDescription == ""
}

// ElementCount returns the number of extracted list elements, used for the
// signals payload.
func (f ExtractedFields) ElementCount() int {
	return len(f.AddressLines) + len(f.EmployeeMentions) + len(f.ServiceHeads) +
		len(f.ProductHeads) + len(f.NewsHeadlines) + len(f.BusinessDetails) +
		len(f.CompanyFeatures) + len(f.TechStack)
}

// EnrichedRecord is the canonical persisted entity, keyed by website.
// Re-running the pipeline for the same website overwrites the prior record.
type EnrichedRecord struct {
	Website   string `json:"website"`
	Name      string `json:"name"`
	NameLegal string `json:"name_legal,omitempty"`
	Industry  string `json:"industry"`
	Status    Status `json:"status"`

	HQAddressRaw   string `json:"hq_address_raw"`
	PrefectureName string `json:"prefecture_name"`

	OverviewText string `json:"overview_text"`
	ServicesText string `json:"services_text"`
	ProductsText string `json:"products_text"`

	PainHypotheses       []string `json:"pain_hypotheses"`
	PersonalizationNotes string   `json:"personalization_notes"`

	EmployeeCount          *int   `json:"employee_count"`
	EmployeeCountSourceURL string `json:"employee_count_source_url"`

	LastCrawledAt time.Time `json:"last_crawled_at"`

	// Signals is an opaque diagnostic payload (error detail, provenance).
	// Never used for business logic.
	Signals map[string]any `json:"signals,omitempty"`
}

// Outcome is the per-company result reported by the dispatcher.
type Outcome struct {
	Website string `json:"website"`
	Status  Status `json:"status"`
	Error   string `json:"error,omitempty"`
}
