package pipeline

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Rules are the lookup tables behind pain-hypothesis generation. They ship
// with built-in defaults and can be overridden from a YAML file.
type Rules struct {
	// IndustryPains lists candidate hypotheses per industry label; the first
	// two are used.
	IndustryPains map[string][]string `yaml:"industry_pains"`

	// SizePains keys on the small/medium/large employee-count bucket; the
	// first entry is used.
	SizePains map[string][]string `yaml:"size_pains"`

	// KeywordPains keys on topic keywords matched against news headlines;
	// the first entry per matched keyword is used.
	KeywordPains map[string][]string `yaml:"keyword_pains"`

	// GenericPains pad the hypothesis list up to the minimum of three.
	GenericPains []string `yaml:"generic_pains"`
}

const (
	minHypotheses = 3
	maxHypotheses = 5
)

// DefaultRules returns the built-in rule tables.
func DefaultRules() Rules {
	return Rules{
		IndustryPains: map[string][]string{
			"IT・web":    {"技術人材不足", "セキュリティ強化", "DX推進", "クラウド移行"},
			"製造業界":      {"品質管理", "コスト削減", "自動化推進", "サプライチェーン最適化"},
			"小売・卸売業界":   {"EC化対応", "在庫管理", "顧客満足度向上", "物流効率化"},
			"金融業界":      {"コンプライアンス強化", "デジタル化", "リスク管理", "顧客体験向上"},
			"医療・福祉業界":   {"人手不足", "デジタル化", "コスト削減", "サービス品質向上"},
			"教育・学習業界":   {"オンライン化", "個別最適化", "学習効果向上", "運営効率化"},
			"建設・建築":     {"人手不足", "安全対策", "工期短縮", "コスト管理"},
			"運輸・物流業界":   {"ドライバー不足", "燃料費高騰", "配送効率化", "環境対応"},
			"飲食業界":      {"人手不足", "食材コスト", "衛生管理", "顧客獲得"},
			"不動産業界":     {"デジタル化", "顧客獲得", "物件管理", "法規制対応"},
		},
		SizePains: map[string][]string{
			"small":  {"資金調達", "人材確保", "ブランド認知", "業務効率化"},
			"medium": {"組織拡大", "システム統合", "品質管理", "競合対策"},
			"large":  {"イノベーション", "グローバル展開", "コンプライアンス", "持続的成長"},
		},
		KeywordPains: map[string][]string{
			"AI":  {"AI活用", "データ活用", "自動化", "競合優位性"},
			"DX":  {"デジタル化", "業務効率化", "顧客体験向上", "競合対策"},
			"環境":  {"環境対応", "ESG", "持続可能性", "コスト削減"},
			"人材":  {"人材確保", "育成", "定着率向上", "働き方改革"},
			"コスト": {"コスト削減", "効率化", "収益性向上", "競争力強化"},
		},
		GenericPains: []string{"業務効率化", "コスト削減", "顧客満足度向上", "競合優位性確保", "成長戦略"},
	}
}

// LoadRules reads rule tables from a YAML file; missing sections fall back to
// the defaults.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, eris.Wrap(err, "pipeline: read rules file")
	}
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, eris.Wrap(err, "pipeline: parse rules file")
	}
	return rules.withDefaults(), nil
}

func (r Rules) withDefaults() Rules {
	def := DefaultRules()
	if len(r.IndustryPains) == 0 {
		r.IndustryPains = def.IndustryPains
	}
	if len(r.SizePains) == 0 {
		r.SizePains = def.SizePains
	}
	if len(r.KeywordPains) == 0 {
		r.KeywordPains = def.KeywordPains
	}
	if len(r.GenericPains) == 0 {
		r.GenericPains = def.GenericPains
	}
	return r
}

// keywordOrder fixes iteration order for keyword matching so output is
// deterministic across runs.
var keywordOrder = []string{"AI", "DX", "環境", "人材", "コスト"}

// Hypotheses derives 3 to 5 pain hypotheses from the industry, the
// employee-count size bucket, and keywords spotted in news headlines.
func (r Rules) Hypotheses(industry, sizeBucket string, headlines []string) []string {
	var out []string

	if pains, ok := r.IndustryPains[industry]; ok {
		out = append(out, firstN(pains, 2)...)
	}
	if pains, ok := r.SizePains[sizeBucket]; ok {
		out = append(out, firstN(pains, 1)...)
	}
	for _, kw := range r.matchedKeywords(headlines) {
		out = append(out, firstN(r.KeywordPains[kw], 1)...)
	}

	out = dedupe(out)
	if len(out) > maxHypotheses {
		out = out[:maxHypotheses]
	}
	for len(out) < minHypotheses {
		added := false
		for _, pain := range r.GenericPains {
			if !contains(out, pain) {
				out = append(out, pain)
				added = true
				break
			}
		}
		if !added {
			break
		}
	}
	return out
}

func (r Rules) matchedKeywords(headlines []string) []string {
	var matched []string
	for _, kw := range keywordOrder {
		if _, ok := r.KeywordPains[kw]; !ok {
			continue
		}
		for _, h := range headlines {
			if strings.Contains(h, kw) {
				matched = append(matched, kw)
				break
			}
		}
	}
	return matched
}

func firstN(items []string, n int) []string {
	if len(items) < n {
		n = len(items)
	}
	return items[:n]
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, it := range items {
		if _, dup := seen[it]; dup {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

func contains(items []string, s string) bool {
	for _, it := range items {
		if it == s {
			return true
		}
	}
	return false
}
