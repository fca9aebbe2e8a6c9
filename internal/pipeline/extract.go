package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/leadlab/enrich-cli/internal/model"
	"github.com/leadlab/enrich-cli/internal/provider"
)

// selectURLs flattens the candidate set in category order, dropping
// duplicates and capping at limit.
func selectURLs(set model.CandidateURLSet, limit int) []string {
	seen := make(map[string]struct{})
	var urls []string
	for _, u := range set.All() {
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
		if len(urls) >= limit {
			break
		}
	}
	return urls
}

// runExtract executes Phase B. No candidates or a malformed provider reply
// degrade to empty fields; synthesis then works from the input row alone.
func (p *Pipeline) runExtract(ctx context.Context, in model.CompanyInput, set model.CandidateURLSet) model.ExtractedFields {
	urls := selectURLs(set, p.cfg.ExtractURLLimit)
	if len(urls) == 0 {
		zap.L().Info("no candidate urls, skipping extraction", zap.String("website", in.Website))
		return model.ExtractedFields{}
	}

	fields, err := p.extract.Extract(ctx, in, urls)
	if err != nil {
		zap.L().Warn("extraction failed, continuing with empty fields",
			zap.String("website", in.Website),
			zap.Bool("schema_mismatch", provider.IsSchemaError(err)),
			zap.Error(err),
		)
		return model.ExtractedFields{}
	}
	return fields
}
