package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadlab/enrich-cli/internal/model"
	"github.com/leadlab/enrich-cli/internal/provider"
)

type stubSearch struct {
	hits   []provider.SearchHit
	err    error
	called bool
	query  string
}

func (s *stubSearch) Search(_ context.Context, query string, _ int) ([]provider.SearchHit, error) {
	s.called = true
	s.query = query
	return s.hits, s.err
}

type stubExtract struct {
	fields model.ExtractedFields
	err    error
	called bool
	urls   []string
}

func (s *stubExtract) Extract(_ context.Context, _ model.CompanyInput, urls []string) (model.ExtractedFields, error) {
	s.called = true
	s.urls = urls
	return s.fields, s.err
}

type stubSynth struct {
	draft *provider.Draft
	err   error
	in    model.CompanyInput
}

func (s *stubSynth) Synthesize(_ context.Context, in model.CompanyInput, _ model.ExtractedFields) (*provider.Draft, error) {
	s.in = in
	return s.draft, s.err
}

var pipelineInput = model.CompanyInput{
	Website:  "https://www.example.co.jp",
	Name:     "サンプル株式会社",
	Industry: "IT・web",
}

func longOverview() string {
	return strings.Repeat("クラウドサービスの開発と運用を手がける企業です。", 18)
}

func goodDraft() *provider.Draft {
	count := 120
	return &provider.Draft{
		Name:                   "サンプル株式会社",
		NameLegal:              "サンプル株式会社",
		Industry:               "IT・web",
		HQAddressRaw:           "東京都千代田区丸の内1-1-1",
		PrefectureName:         "東京都",
		OverviewText:           longOverview(),
		ServicesText:           "・クラウド導入支援\n・受託開発",
		ProductsText:           "",
		PainHypotheses:         []string{"技術人材不足", "セキュリティ強化", "業務効率化"},
		PersonalizationNotes:   "クラウド移行に注力。",
		EmployeeCount:          &count,
		EmployeeCountSourceURL: "https://example.co.jp/about",
	}
}

func TestSearchQuery(t *testing.T) {
	q := searchQuery(pipelineInput)

	assert.True(t, strings.HasPrefix(q, "site:example.co.jp "))
	assert.Contains(t, q, "会社概要 OR 会社情報")
	assert.Contains(t, q, "企業名: サンプル株式会社")
	assert.Contains(t, q, "Pref: unknown")

	withHint := pipelineInput
	withHint.PrefectureHint = "大阪府"
	assert.Contains(t, searchQuery(withHint), "Pref: 大阪府")
}

func TestCategorize(t *testing.T) {
	hits := []provider.SearchHit{
		{URL: "https://example.co.jp/about", Title: "会社案内"},
		{URL: "https://example.co.jp/x", Title: "会社概要"},
		{URL: "https://example.co.jp/service", Title: "サービス"},
		{URL: "https://example.co.jp/products/a", Title: "製品A"},
		{URL: "https://example.co.jp/news/2026", Title: "プレスリリース"},
		{URL: "https://example.co.jp/privacy", Title: "個人情報保護方針"},
		{URL: "https://example.co.jp/misc", Title: "その他"},
	}

	set := categorize(hits, 5)

	assert.Equal(t, []string{
		"https://example.co.jp/about",
		"https://example.co.jp/x",
		"https://example.co.jp/misc",
	}, set.About)
	assert.Equal(t, []string{"https://example.co.jp/service"}, set.Business)
	assert.Equal(t, []string{"https://example.co.jp/products/a"}, set.Product)
	assert.Equal(t, []string{"https://example.co.jp/news/2026"}, set.News)
	assert.Equal(t, []string{"https://example.co.jp/privacy"}, set.Legal)
}

func TestCategorize_FirstRuleWins(t *testing.T) {
	// Matches both about and business keywords; about is checked first.
	hits := []provider.SearchHit{
		{URL: "https://example.co.jp/company/service", Title: ""},
	}

	set := categorize(hits, 5)

	assert.Len(t, set.About, 1)
	assert.Empty(t, set.Business)
}

func TestCategorize_CategoryLimit(t *testing.T) {
	var hits []provider.SearchHit
	for i := 0; i < 8; i++ {
		hits = append(hits, provider.SearchHit{URL: "https://example.co.jp/about", Title: "会社概要"})
	}

	set := categorize(hits, 5)

	assert.Len(t, set.About, 5)
}

func TestSelectURLs(t *testing.T) {
	set := model.CandidateURLSet{
		About:    []string{"https://a", "https://b", "https://a"},
		Business: []string{"https://b", "https://c", "https://d", "https://e", "https://f"},
	}

	urls := selectURLs(set, 5)

	assert.Equal(t, []string{"https://a", "https://b", "https://c", "https://d", "https://e"}, urls)
}

func TestRulesHypotheses(t *testing.T) {
	rules := DefaultRules()

	got := rules.Hypotheses("IT・web", "medium", []string{"AI活用の新サービスを発表"})

	assert.Equal(t, []string{"技術人材不足", "セキュリティ強化", "組織拡大", "AI活用"}, got)
}

func TestRulesHypotheses_PadsWithGeneric(t *testing.T) {
	rules := DefaultRules()

	got := rules.Hypotheses("未知の業界", "", nil)

	assert.Equal(t, []string{"業務効率化", "コスト削減", "顧客満足度向上"}, got)
}

func TestRulesHypotheses_CapsAtFive(t *testing.T) {
	rules := DefaultRules()

	got := rules.Hypotheses("製造業界", "large", []string{"AIとDXと環境の取り組み"})

	assert.Len(t, got, 5)
	assert.Equal(t, []string{"品質管理", "コスト削減", "イノベーション", "AI活用", "デジタル化"}, got)
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generic_pains:\n  - 独自課題A\n  - 独自課題B\n  - 独自課題C\n"), 0o644))

	rules, err := LoadRules(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"独自課題A", "独自課題B", "独自課題C"}, rules.GenericPains)
	// Unspecified sections keep the defaults.
	assert.NotEmpty(t, rules.IndustryPains["IT・web"])
}

func TestLoadRules_MissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestFormatBullets(t *testing.T) {
	items := []string{"導入支援", "・受託開発", "", "運用保守", "a", "b", "c", "d", "e"}

	got := formatBullets(items)

	lines := strings.Split(got, "\n")
	assert.Len(t, lines, 7)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "・"), line)
	}
}

func TestDerivePrefecture(t *testing.T) {
	in := model.CompanyInput{Name: "近畿サンプル", Website: "https://osaka-sample.jp"}

	assert.Equal(t, "神奈川県", derivePrefecture("神奈川県横浜市西区1-1", in, "東京都"))
	assert.Equal(t, "大阪府", derivePrefecture("", in, "東京都"))

	hinted := model.CompanyInput{Name: "サンプル", Website: "https://sample.jp", PrefectureHint: "福岡県"}
	assert.Equal(t, "福岡県", derivePrefecture("", hinted, "東京都"))

	domainOnly := model.CompanyInput{Name: "サンプル", Website: "https://shibuya-sample.jp"}
	assert.Equal(t, "東京都", derivePrefecture("", domainOnly, "北海道"))

	blank := model.CompanyInput{Name: "サンプル", Website: "https://sample.jp"}
	assert.Equal(t, "東京都", derivePrefecture("", blank, "東京都"))
}

func TestPipelineRun_OK(t *testing.T) {
	search := &stubSearch{hits: []provider.SearchHit{
		{URL: "https://example.co.jp/about", Title: "会社概要"},
		{URL: "https://example.co.jp/service", Title: "サービス"},
	}}
	extract := &stubExtract{fields: model.ExtractedFields{
		ServiceHeads: []string{"クラウド導入支援"},
	}}
	synth := &stubSynth{draft: goodDraft()}

	p := New(search, extract, synth, Config{}, Rules{})
	rec, err := p.Run(context.Background(), pipelineInput)

	require.NoError(t, err)
	assert.Equal(t, model.StatusOK, rec.Status)
	assert.Equal(t, "東京都千代田区丸の内1-1-1", rec.HQAddressRaw)
	assert.Equal(t, "東京都", rec.PrefectureName)
	require.NotNil(t, rec.EmployeeCount)
	assert.Equal(t, 120, *rec.EmployeeCount)
	assert.Equal(t, 2, rec.Signals["phase_a_urls_found"])
	assert.Equal(t, 1, rec.Signals["phase_b_elements_found"])
	assert.NotContains(t, rec.Signals, "low_confidence")
	assert.NotEmpty(t, rec.Signals["processing_timestamp"])
	assert.Equal(t, []string{"https://example.co.jp/about", "https://example.co.jp/service"}, extract.urls)
	assert.False(t, rec.LastCrawledAt.IsZero())
}

func TestPipelineRun_RepairsShortOverview(t *testing.T) {
	draft := goodDraft()
	draft.OverviewText = "短い概要。"
	synth := &stubSynth{draft: draft}

	p := New(&stubSearch{}, &stubExtract{}, synth, Config{}, Rules{})
	rec, err := p.Run(context.Background(), pipelineInput)

	require.NoError(t, err)
	assert.Equal(t, model.StatusParseError, rec.Status)
	assert.GreaterOrEqual(t, len([]rune(rec.OverviewText)), overviewMinRunes)
	assert.Contains(t, rec.OverviewText, "短い概要。")
	assert.Contains(t, rec.Signals["repairs_applied"], "overview_expanded")
}

func TestExpandOverview_MeetsFloorForSparseInputs(t *testing.T) {
	cases := []model.CompanyInput{
		{},
		{Website: "https://a.jp"},
		{Website: "https://gmo.jp", Name: "GMO", Industry: "IT"},
		pipelineInput,
	}
	for _, in := range cases {
		got := expandOverview("", in)
		assert.GreaterOrEqual(t, len([]rune(got)), overviewMinRunes, "input %+v", in)
	}
}

func TestPipelineRun_ExpandedOverviewStaysWithinCeiling(t *testing.T) {
	draft := goodDraft()
	draft.OverviewText = strings.Repeat("あ", overviewMinRunes-1)
	synth := &stubSynth{draft: draft}

	p := New(&stubSearch{}, &stubExtract{}, synth, Config{}, Rules{})
	rec, err := p.Run(context.Background(), pipelineInput)

	require.NoError(t, err)
	n := len([]rune(rec.OverviewText))
	assert.GreaterOrEqual(t, n, overviewMinRunes)
	assert.LessOrEqual(t, n, overviewMaxRunes)
}

func TestPipelineRun_TruncatesLongOverview(t *testing.T) {
	draft := goodDraft()
	draft.OverviewText = strings.Repeat("あ", 600)
	synth := &stubSynth{draft: draft}

	p := New(&stubSearch{}, &stubExtract{}, synth, Config{}, Rules{})
	rec, err := p.Run(context.Background(), pipelineInput)

	require.NoError(t, err)
	assert.Equal(t, model.StatusParseError, rec.Status)
	assert.Len(t, []rune(rec.OverviewText), overviewMaxRunes)
}

func TestPipelineRun_SearchFailureDegrades(t *testing.T) {
	search := &stubSearch{err: eris.New("search down")}
	extract := &stubExtract{}
	synth := &stubSynth{draft: goodDraft()}

	p := New(search, extract, synth, Config{}, Rules{})
	rec, err := p.Run(context.Background(), pipelineInput)

	require.NoError(t, err)
	assert.False(t, extract.called)
	assert.Equal(t, model.StatusOK, rec.Status)
	assert.Equal(t, 0, rec.Signals["phase_a_urls_found"])
	assert.Equal(t, true, rec.Signals["low_confidence"])
}

func TestPipelineRun_ExtractionFailureDegrades(t *testing.T) {
	search := &stubSearch{hits: []provider.SearchHit{{URL: "https://example.co.jp/about", Title: "会社概要"}}}
	extract := &stubExtract{err: eris.New("boom")}
	synth := &stubSynth{draft: goodDraft()}

	p := New(search, extract, synth, Config{}, Rules{})
	rec, err := p.Run(context.Background(), pipelineInput)

	require.NoError(t, err)
	assert.Equal(t, model.StatusOK, rec.Status)
	assert.Equal(t, 0, rec.Signals["phase_b_elements_found"])
	assert.Equal(t, true, rec.Signals["low_confidence"])
}

func TestPipelineRun_SynthesisFailureStoresFallback(t *testing.T) {
	synth := &stubSynth{err: eris.New("model unavailable")}

	p := New(&stubSearch{}, &stubExtract{}, synth, Config{}, Rules{})
	rec, err := p.Run(context.Background(), pipelineInput)

	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, rec.Status)
	assert.Equal(t, pipelineInput.Website, rec.Website)
	assert.Contains(t, rec.HQAddressRaw, "本社所在地")
	assert.Equal(t, "東京都", rec.PrefectureName)
	assert.GreaterOrEqual(t, len(rec.PainHypotheses), 3)
	assert.GreaterOrEqual(t, len([]rune(rec.OverviewText)), overviewMinRunes)
	assert.Contains(t, rec.Signals["error"], "model unavailable")
}

func TestPipelineRun_RegeneratesPainsAndNotes(t *testing.T) {
	draft := goodDraft()
	draft.PainHypotheses = []string{"一つだけ"}
	draft.PersonalizationNotes = ""
	count := 30
	draft.EmployeeCount = &count
	synth := &stubSynth{draft: draft}

	p := New(&stubSearch{}, &stubExtract{}, synth, Config{}, Rules{})
	rec, err := p.Run(context.Background(), pipelineInput)

	require.NoError(t, err)
	assert.Equal(t, []string{"技術人材不足", "セキュリティ強化", "資金調達"}, rec.PainHypotheses)
	assert.Contains(t, rec.PersonalizationNotes, "サンプル株式会社")
	assert.Contains(t, rec.PersonalizationNotes, "注力")
	assert.Contains(t, rec.PersonalizationNotes, "技術人材不足の検討余地")
}

func TestPipelineRun_PlaceholderAddressReplaced(t *testing.T) {
	draft := goodDraft()
	draft.HQAddressRaw = "東京都（要確認）"
	draft.PrefectureName = ""
	synth := &stubSynth{draft: draft}
	extract := &stubExtract{fields: model.ExtractedFields{
		AddressLines: []string{"大阪府大阪市北区梅田2-2-2"},
	}}
	search := &stubSearch{hits: []provider.SearchHit{{URL: "https://example.co.jp/about", Title: "会社概要"}}}

	p := New(search, extract, synth, Config{}, Rules{})
	rec, err := p.Run(context.Background(), pipelineInput)

	require.NoError(t, err)
	assert.Equal(t, "大阪府大阪市北区梅田2-2-2", rec.HQAddressRaw)
	assert.Equal(t, "大阪府", rec.PrefectureName)
	assert.Equal(t, model.StatusOK, rec.Status)
}

func TestPipelineRun_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(&stubSearch{}, &stubExtract{}, &stubSynth{draft: goodDraft()}, Config{}, Rules{})
	_, err := p.Run(ctx, pipelineInput)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
