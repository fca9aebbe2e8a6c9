package provider

import (
	"context"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadlab/enrich-cli/internal/model"
	"github.com/leadlab/enrich-cli/internal/ratelimit"
	"github.com/leadlab/enrich-cli/pkg/perplexity"
)

const perplexityName = "perplexity"

// Perplexity implements SearchProvider and ExtractionProvider on top of the
// Perplexity search and sonar chat APIs.
type Perplexity struct {
	client perplexity.Client
	guard  *Guard
	model  string
}

// NewPerplexity wires a Perplexity provider through the shared guard.
func NewPerplexity(client perplexity.Client, guard *Guard, extractModel string) *Perplexity {
	if extractModel == "" {
		extractModel = "sonar"
	}
	return &Perplexity{client: client, guard: guard, model: extractModel}
}

func (p *Perplexity) Search(ctx context.Context, query string, maxResults int) ([]SearchHit, error) {
	resp, err := call(ctx, p.guard, perplexityName, "search", "api.perplexity.ai",
		func(ctx context.Context) (*perplexity.SearchResponse, error) {
			return p.client.Search(ctx, perplexity.SearchRequest{
				Query:      query,
				MaxResults: maxResults,
			})
		})
	if err != nil {
		return nil, eris.Wrap(err, "provider: perplexity search")
	}

	hits := make([]SearchHit, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.URL == "" {
			continue
		}
		hits = append(hits, SearchHit{Title: r.Title, URL: r.URL, Snippet: r.Snippet})
	}
	return hits, nil
}

func (p *Perplexity) Extract(ctx context.Context, in model.CompanyInput, urls []string) (model.ExtractedFields, error) {
	resp, err := call(ctx, p.guard, perplexityName, "extract", ratelimit.ApexDomain(in.Website),
		func(ctx context.Context) (*perplexity.ChatCompletionResponse, error) {
			return p.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
				Model: p.model,
				Messages: []perplexity.Message{
					{Role: "system", Content: extractionSystemPrompt},
					{Role: "user", Content: extractionPrompt(in.Name, urls)},
				},
			})
		})
	if err != nil {
		return model.ExtractedFields{}, eris.Wrap(err, "provider: perplexity extract")
	}
	if len(resp.Choices) == 0 {
		return model.ExtractedFields{}, &SchemaError{Provider: perplexityName, Err: eris.New("empty choices")}
	}

	content := resp.Choices[0].Message.Content
	var fields model.ExtractedFields
	if err := decodeJSONBlock(content, &fields); err != nil {
		zap.L().Warn("extraction response not JSON, using pattern fallback",
			zap.String("website", in.Website),
			zap.Error(err),
		)
		return fallbackExtract(content), nil
	}
	return fields, nil
}

var (
	fallbackAddressPattern = regexp.MustCompile(`(〒\s*\d{3}-?\d{4}\s*)?[^\n\r]{6,120}?[都道府県][^\n\r]*`)
	fallbackServicePattern = regexp.MustCompile(`サービス[：:]\s*(.*)`)
	fallbackProductPattern = regexp.MustCompile(`製品[：:]\s*(.*)`)
	fallbackNewsPattern    = regexp.MustCompile(`ニュース[：:]\s*(.*)`)
)

// fallbackExtract recovers what it can from a free-text extraction reply.
func fallbackExtract(content string) model.ExtractedFields {
	fields := model.ExtractedFields{
		AddressLines: fallbackAddressPattern.FindAllString(content, -1),
	}
	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, "従業員数") || strings.Contains(line, "社員数") {
			fields.EmployeeMentions = append(fields.EmployeeMentions, strings.TrimSpace(line))
		}
		if m := fallbackServicePattern.FindStringSubmatch(line); m != nil {
			fields.ServiceHeads = append(fields.ServiceHeads, strings.TrimSpace(m[1]))
		}
		if m := fallbackProductPattern.FindStringSubmatch(line); m != nil {
			fields.ProductHeads = append(fields.ProductHeads, strings.TrimSpace(m[1]))
		}
		if m := fallbackNewsPattern.FindStringSubmatch(line); m != nil {
			fields.NewsHeadlines = append(fields.NewsHeadlines, strings.TrimSpace(m[1]))
		}
	}
	return fields
}
