package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/leadlab/enrich-cli/internal/jptext"
	"github.com/leadlab/enrich-cli/internal/model"
	"github.com/leadlab/enrich-cli/internal/provider"
)

// runSynthesize executes Phase C: synthesis call, normalization against the
// extracted facts, validation, and deterministic repair. It always returns a
// record; a synthesis failure yields the fully templated fallback.
func (p *Pipeline) runSynthesize(ctx context.Context, in model.CompanyInput, urls model.CandidateURLSet, fields model.ExtractedFields) *model.EnrichedRecord {
	draft, err := p.synthesis.Synthesize(ctx, in, fields)
	if err != nil {
		zap.L().Warn("synthesis failed, storing fallback record",
			zap.String("website", in.Website),
			zap.Bool("schema_mismatch", provider.IsSchemaError(err)),
			zap.Error(err),
		)
		return p.fallbackRecord(in, err)
	}
	return p.finalize(in, draft, urls, fields)
}

// finalize normalizes a draft into the persisted record shape, repairing
// anything the validation rules reject. Any applied repair downgrades the
// status to parse_error.
func (p *Pipeline) finalize(in model.CompanyInput, draft *provider.Draft, urls model.CandidateURLSet, fields model.ExtractedFields) *model.EnrichedRecord {
	var repairs []string

	rec := &model.EnrichedRecord{
		Website:  in.Website,
		Name:     firstOf(draft.Name, in.Name),
		Industry: firstOf(draft.Industry, in.Industry),
		Status:   model.StatusOK,
	}

	rec.NameLegal = firstOf(draft.NameLegal, extractedLegalName(fields))

	p.resolveAddress(rec, in, draft, fields, &repairs)
	p.resolveEmployeeCount(rec, draft, fields)
	p.resolveOverview(rec, in, draft, &repairs)

	rec.ServicesText = firstOf(normalizeBullets(draft.ServicesText), formatBullets(fields.ServiceHeads))
	rec.ProductsText = firstOf(normalizeBullets(draft.ProductsText), formatBullets(fields.ProductHeads))

	rec.PainHypotheses = draft.PainHypotheses
	if len(rec.PainHypotheses) < minHypotheses || len(rec.PainHypotheses) > maxHypotheses {
		rec.PainHypotheses = p.rules.Hypotheses(rec.Industry, jptext.SizeBucket(employeeCountOf(rec)), fields.NewsHeadlines)
	}

	rec.PersonalizationNotes = jptext.CleanText(draft.PersonalizationNotes)
	if rec.PersonalizationNotes == "" {
		rec.PersonalizationNotes = personalizationNote(
			rec.Name, rec.PrefectureName, rec.Industry,
			topLine(rec.ServicesText), topItem(rec.PainHypotheses),
		)
	}

	if len(repairs) > 0 {
		rec.Status = model.StatusParseError
	}

	now := p.nowFunc().UTC()
	rec.LastCrawledAt = now
	rec.Signals = map[string]any{
		"phase_a_urls_found":     urls.Total(),
		"phase_b_elements_found": fields.ElementCount(),
		"processing_timestamp":   now.Format(time.RFC3339),
	}
	if fields.ElementCount() == 0 {
		rec.Signals["low_confidence"] = true
	}
	if len(repairs) > 0 {
		rec.Signals["repairs_applied"] = repairs
	}
	return rec
}

// resolveAddress fills hq_address_raw and prefecture_name, preferring real
// extracted addresses over anything the draft synthesized.
func (p *Pipeline) resolveAddress(rec *model.EnrichedRecord, in model.CompanyInput, draft *provider.Draft, fields model.ExtractedFields, repairs *[]string) {
	addr := draft.HQAddressRaw
	if isPlaceholderAddress(addr) {
		addr = jptext.BestAddress(fields.AddressLines)
	}

	prefecture := draft.PrefectureName
	if !jptext.IsPrefecture(prefecture) {
		prefecture = derivePrefecture(addr, in, p.cfg.DefaultPrefecture)
	}
	rec.PrefectureName = prefecture

	if isPlaceholderAddress(addr) {
		addr = fallbackAddress(rec.Name, prefecture)
		*repairs = append(*repairs, "address_synthesized")
	}
	rec.HQAddressRaw = jptext.CleanText(addr)
}

// resolveEmployeeCount takes the draft's count when plausible, otherwise
// re-derives it from the extracted mentions.
func (p *Pipeline) resolveEmployeeCount(rec *model.EnrichedRecord, draft *provider.Draft, fields model.ExtractedFields) {
	if draft.EmployeeCount != nil && *draft.EmployeeCount > 0 {
		rec.EmployeeCount = draft.EmployeeCount
		rec.EmployeeCountSourceURL = draft.EmployeeCountSourceURL
		return
	}
	if n, ok := jptext.ExtractEmployeeCount(strings.Join(fields.EmployeeMentions, "\n")); ok {
		rec.EmployeeCount = &n
		rec.EmployeeCountSourceURL = draft.EmployeeCountSourceURL
	}
}

// resolveOverview enforces the 300 to 500 character window on the overview.
func (p *Pipeline) resolveOverview(rec *model.EnrichedRecord, in model.CompanyInput, draft *provider.Draft, repairs *[]string) {
	overview := jptext.CleanText(draft.OverviewText)
	switch n := len([]rune(overview)); {
	case n < overviewMinRunes:
		// A near-floor draft plus the expansion can overshoot the ceiling.
		overview = truncateRunes(expandOverview(overview, in), overviewMaxRunes)
		*repairs = append(*repairs, "overview_expanded")
	case n > overviewMaxRunes:
		overview = truncateRunes(overview, overviewMaxRunes)
		*repairs = append(*repairs, "overview_truncated")
	}
	rec.OverviewText = overview
}

// fallbackRecord is the fully templated record stored when synthesis itself
// fails. Everything derives from the input row; status is failed.
func (p *Pipeline) fallbackRecord(in model.CompanyInput, cause error) *model.EnrichedRecord {
	prefecture := derivePrefecture("", in, p.cfg.DefaultPrefecture)
	name := firstOf(in.Name, "企業")

	now := p.nowFunc().UTC()
	return &model.EnrichedRecord{
		Website:        in.Website,
		Name:           in.Name,
		Industry:       in.Industry,
		Status:         model.StatusFailed,
		HQAddressRaw:   fallbackAddress(name, prefecture),
		PrefectureName: prefecture,
		OverviewText:   expandOverview("", in),
		PainHypotheses: p.rules.Hypotheses(in.Industry, "", nil),
		PersonalizationNotes: personalizationNote(
			name, prefecture, in.Industry, "", "",
		),
		LastCrawledAt: now,
		Signals: map[string]any{
			"error":                truncateRunes(cause.Error(), 500),
			"processing_timestamp": now.Format(time.RFC3339),
		},
	}
}

func extractedLegalName(fields model.ExtractedFields) string {
	for _, candidate := range fields.CompanyFeatures {
		if legal := jptext.ExtractLegalName(candidate); legal != "" {
			return legal
		}
	}
	return jptext.ExtractLegalName(fields.CompanyDescription)
}

func employeeCountOf(rec *model.EnrichedRecord) int {
	if rec.EmployeeCount == nil {
		return 0
	}
	return *rec.EmployeeCount
}

func topLine(bullets string) string {
	line, _, _ := strings.Cut(bullets, "\n")
	return strings.TrimPrefix(line, "・")
}

func topItem(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[0]
}
