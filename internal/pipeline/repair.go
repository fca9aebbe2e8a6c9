package pipeline

import (
	"fmt"
	"strings"

	"github.com/leadlab/enrich-cli/internal/jptext"
	"github.com/leadlab/enrich-cli/internal/model"
	"github.com/leadlab/enrich-cli/internal/ratelimit"
)

const (
	overviewMinRunes = 300
	overviewMaxRunes = 500
	maxBulletLines   = 7
)

// addressPlaceholders are synthesized address markers that must never be
// treated as a real address when a draft echoes one back.
var addressPlaceholders = []string{"要確認", "本社所在地", "不明"}

func isPlaceholderAddress(addr string) bool {
	if addr == "" {
		return true
	}
	for _, marker := range addressPlaceholders {
		if strings.Contains(addr, marker) {
			return true
		}
	}
	return false
}

// derivePrefecture walks the derivation chain: address text, explicit hint,
// region keywords in the company name, romanized place names in the domain,
// then the configured default. Never returns "".
func derivePrefecture(address string, in model.CompanyInput, fallback string) string {
	if p := jptext.PrefectureIn(address); p != "" {
		return p
	}
	if jptext.IsPrefecture(in.PrefectureHint) {
		return in.PrefectureHint
	}
	if p := jptext.PrefectureFromCompanyName(in.Name); p != "" {
		return p
	}
	if p := jptext.PrefectureFromDomain(ratelimit.Host(in.Website)); p != "" {
		return p
	}
	return fallback
}

// fallbackAddress synthesizes a placeholder address when no real one was
// found. The marker text is recognized by isPlaceholderAddress on re-runs.
func fallbackAddress(name, prefecture string) string {
	if name == "" {
		name = "企業"
	}
	if prefecture != "" {
		return fmt.Sprintf("%s（%sの本社所在地）", prefecture, name)
	}
	return fmt.Sprintf("%sの本社所在地（要確認）", name)
}

// overviewFiller pads expansions that still fall short of the floor when the
// input row carries almost no text of its own.
var overviewFiller = []string{
	"今後も市場環境の変化に対応しながら、提供価値の拡大に取り組む方針です。",
	"社内体制の強化と人材育成にも注力し、安定したサービス提供基盤を整えています。",
	"地域社会や取引先との連携を重視し、持続的な事業成長を目指しています。",
}

// expandOverview pads a too-short overview with a templated continuation.
// The result is always at least overviewMinRunes long.
func expandOverview(current string, in model.CompanyInput) string {
	name := in.Name
	if name == "" {
		name = "企業"
	}
	industry := in.Industry
	if industry == "" {
		industry = "業界"
	}

	var b strings.Builder
	if current != "" {
		b.WriteString(current)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%sは、%s分野における専門的なサービス提供を行っており、豊富な経験とノウハウを活用して顧客の課題解決に取り組んでいます。", name, industry)
	b.WriteString("同社は、業界の特性を深く理解し、顧客のニーズに応じた最適なソリューションを提供することで、中小企業から大企業まで多様なクライアントから信頼を得ています。")
	b.WriteString("事業運営では、品質の向上と顧客満足度の最大化を重視し、継続的な改善とイノベーションを通じて市場での競争優位性を確保しています。")
	b.WriteString("また、長期的なパートナーシップの構築を目指し、顧客の成長と成功に貢献することを使命としています。")
	if in.Website != "" {
		fmt.Fprintf(&b, "詳細な事業内容や実績については、公式ウェブサイト（%s）をご確認ください。", in.Website)
	}

	out := b.String()
	for i := 0; len([]rune(out)) < overviewMinRunes; i++ {
		out += overviewFiller[i%len(overviewFiller)]
	}
	return out
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// formatBullets renders items as ・-prefixed lines, at most maxBulletLines.
func formatBullets(items []string) string {
	var lines []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if !strings.HasPrefix(item, "・") {
			item = "・" + item
		}
		lines = append(lines, item)
		if len(lines) >= maxBulletLines {
			break
		}
	}
	return strings.Join(lines, "\n")
}

// normalizeBullets re-formats free-form bullet text into the canonical shape.
func normalizeBullets(text string) string {
	if text == "" {
		return ""
	}
	return formatBullets(strings.Split(text, "\n"))
}

// personalizationNote builds the outreach memo from the record highlights.
func personalizationNote(name, prefecture, industry, topService, topPain string) string {
	if topService == "" {
		topService = "サービス提供"
	}
	if industry == "" {
		industry = "事業"
	}

	var parts []string
	if prefecture != "" {
		parts = append(parts, fmt.Sprintf("%s（%s）は%s領域で「%s」に注力", name, prefecture, industry, topService))
	} else {
		parts = append(parts, fmt.Sprintf("%sは%s領域で「%s」に注力", name, industry, topService))
	}
	if topPain != "" {
		parts = append(parts, fmt.Sprintf("直近トピックから、%sの検討余地", topPain))
	}
	parts = append(parts, fmt.Sprintf("初回は%s向けに具体的なソリューション提案を検討", industry))
	return strings.Join(parts, "。") + "。"
}

// firstOf returns the first non-blank candidate, or "".
func firstOf(candidates ...string) string {
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return ""
}
