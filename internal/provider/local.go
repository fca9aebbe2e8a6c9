package provider

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/leadlab/enrich-cli/internal/jptext"
	"github.com/leadlab/enrich-cli/internal/model"
	"github.com/leadlab/enrich-cli/internal/ratelimit"
	"github.com/leadlab/enrich-cli/pkg/firecrawl"
	"github.com/leadlab/enrich-cli/pkg/jina"
)

// Local implements ExtractionProvider by reading candidate pages directly
// (Jina reader, Firecrawl as fallback) and running pattern extraction over
// the markdown. No LLM involved, so it is the cheap deterministic path.
type Local struct {
	reader  jina.Client
	scraper firecrawl.Client
	guard   *Guard
}

// NewLocal wires a Local extraction provider. scraper may be nil when no
// Firecrawl key is configured; the fallback is then skipped.
func NewLocal(reader jina.Client, scraper firecrawl.Client, guard *Guard) *Local {
	return &Local{reader: reader, scraper: scraper, guard: guard}
}

func (l *Local) Extract(ctx context.Context, in model.CompanyInput, urls []string) (model.ExtractedFields, error) {
	var fields model.ExtractedFields

	for _, u := range urls {
		content, err := l.fetch(ctx, u)
		if err != nil {
			zap.L().Warn("page fetch failed, skipping",
				zap.String("url", u),
				zap.Error(err),
			)
			continue
		}
		mergePageFacts(&fields, content)
	}
	return fields, nil
}

// fetch reads one page, preferring the Jina reader and falling back to
// Firecrawl when the reader fails and a scraper is configured.
func (l *Local) fetch(ctx context.Context, pageURL string) (string, error) {
	domain := ratelimit.ApexDomain(pageURL)

	content, err := call(ctx, l.guard, jinaName, "read", domain,
		func(ctx context.Context) (string, error) {
			resp, err := l.reader.Read(ctx, pageURL)
			if err != nil {
				return "", err
			}
			return resp.Data.Content, nil
		})
	if err == nil || l.scraper == nil {
		return content, err
	}

	return call(ctx, l.guard, "firecrawl", "scrape", domain,
		func(ctx context.Context) (string, error) {
			resp, err := l.scraper.Scrape(ctx, firecrawl.ScrapeRequest{
				URL:     pageURL,
				Formats: []string{"markdown"},
			})
			if err != nil {
				return "", err
			}
			return resp.Data.Markdown, nil
		})
}

// mergePageFacts appends whatever patterns recognize in one page's markdown.
func mergePageFacts(fields *model.ExtractedFields, content string) {
	content = jptext.CleanText(content)
	if content == "" {
		return
	}

	if addr := jptext.ExtractAddress(content); addr != "" {
		fields.AddressLines = append(fields.AddressLines, addr)
	}
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		switch {
		case strings.Contains(trimmed, "従業員数") || strings.Contains(trimmed, "社員数"):
			fields.EmployeeMentions = append(fields.EmployeeMentions, trimmed)
		case strings.Contains(trimmed, "サービス") && len([]rune(trimmed)) < 60:
			fields.ServiceHeads = append(fields.ServiceHeads, trimmed)
		case strings.Contains(trimmed, "製品") && len([]rune(trimmed)) < 60:
			fields.ProductHeads = append(fields.ProductHeads, trimmed)
		case strings.Contains(trimmed, "事業内容"):
			fields.BusinessDetails = append(fields.BusinessDetails, trimmed)
		}
	}
	if legal := jptext.ExtractLegalName(content); legal != "" {
		fields.CompanyFeatures = append(fields.CompanyFeatures, legal)
	}
	if fields.CompanyDescription == "" {
		fields.CompanyDescription = firstParagraph(content)
	}
}

// firstParagraph returns the first reasonably sized text block of a page.
func firstParagraph(content string) string {
	for _, block := range strings.Split(content, "\n") {
		block = strings.TrimSpace(block)
		if strings.HasPrefix(block, "#") {
			continue
		}
		if n := len([]rune(block)); n >= 40 {
			return block
		}
	}
	return ""
}
