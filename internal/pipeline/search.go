package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/leadlab/enrich-cli/internal/jptext"
	"github.com/leadlab/enrich-cli/internal/model"
	"github.com/leadlab/enrich-cli/internal/provider"
	"github.com/leadlab/enrich-cli/internal/ratelimit"
)

// searchTopics covers the page types the later phases know how to use.
const searchTopics = "(会社概要 OR 会社情報 OR 事業内容 OR サービス OR 製品 OR プロダクト OR 特定商取引 OR 採用 OR news OR press OR ir OR 会社案内 OR corporate OR about OR business OR services OR products)"

// searchQuery builds the site-scoped discovery query for one company.
func searchQuery(in model.CompanyInput) string {
	domain := ratelimit.ApexDomain(in.Website)
	if domain == "" {
		domain = ratelimit.Host(in.Website)
	}
	pref := in.PrefectureHint
	if pref == "" {
		pref = jptext.PrefectureUnknown
	}
	return fmt.Sprintf("site:%s %s 企業名: %s Pref: %s", domain, searchTopics, in.Name, pref)
}

// categoryRule assigns a URL to the first category whose keyword matches the
// lowercased URL or title.
type categoryRule struct {
	category model.URLCategory
	keywords []string
}

var categoryRules = []categoryRule{
	{model.CategoryAbout, []string{"about", "company", "会社概要", "会社情報"}},
	{model.CategoryBusiness, []string{"business", "service", "事業", "サービス"}},
	{model.CategoryProduct, []string{"product", "製品", "プロダクト"}},
	{model.CategoryNews, []string{"news", "press", "ir", "ニュース", "プレス"}},
	{model.CategoryLegal, []string{"legal", "特定商取引", "privacy", "terms"}},
}

// categorize partitions search hits into the candidate URL set, keeping at
// most limit URLs per category. Hits matching no rule count as about pages.
func categorize(hits []provider.SearchHit, limit int) model.CandidateURLSet {
	var set model.CandidateURLSet
	for _, hit := range hits {
		bucket := bucketFor(&set, classifyHit(hit))
		if len(*bucket) < limit {
			*bucket = append(*bucket, hit.URL)
		}
	}
	return set
}

func classifyHit(hit provider.SearchHit) model.URLCategory {
	haystack := strings.ToLower(hit.URL) + " " + strings.ToLower(hit.Title)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(haystack, kw) {
				return rule.category
			}
		}
	}
	return model.CategoryAbout
}

func bucketFor(set *model.CandidateURLSet, cat model.URLCategory) *[]string {
	switch cat {
	case model.CategoryBusiness:
		return &set.Business
	case model.CategoryProduct:
		return &set.Product
	case model.CategoryNews:
		return &set.News
	case model.CategoryLegal:
		return &set.Legal
	default:
		return &set.About
	}
}

// runSearch executes Phase A. A provider failure degrades to an empty set so
// the later phases can still produce a record.
func (p *Pipeline) runSearch(ctx context.Context, in model.CompanyInput) model.CandidateURLSet {
	hits, err := p.search.Search(ctx, searchQuery(in), p.cfg.SearchMaxResults)
	if err != nil {
		zap.L().Warn("search failed, continuing with no candidates",
			zap.String("website", in.Website),
			zap.Error(err),
		)
		return model.CandidateURLSet{}
	}
	return categorize(hits, p.cfg.CategoryLimit)
}
