// Package jptext extracts Japanese company facts (addresses, prefectures,
// employee counts, legal names) from unstructured text.
package jptext

import "strings"

// Prefectures is the canonical list of the 47 Japanese prefecture names.
var Prefectures = []string{
	"北海道", "青森県", "岩手県", "宮城県", "秋田県", "山形県", "福島県",
	"茨城県", "栃木県", "群馬県", "埼玉県", "千葉県", "東京都", "神奈川県",
	"新潟県", "富山県", "石川県", "福井県", "山梨県", "長野県", "岐阜県",
	"静岡県", "愛知県", "三重県", "滋賀県", "京都府", "大阪府", "兵庫県",
	"奈良県", "和歌山県", "鳥取県", "島根県", "岡山県", "広島県", "山口県",
	"徳島県", "香川県", "愛媛県", "高知県", "福岡県", "佐賀県", "長崎県",
	"熊本県", "大分県", "宮崎県", "鹿児島県", "沖縄県",
}

// PrefectureUnknown is the placeholder used where a prefecture is required
// but no hint is available, e.g. in search query construction.
const PrefectureUnknown = "unknown"

// romajiPrefectures maps common romanized prefecture names to canonical names.
// Used when addresses or domains carry English spellings.
var romajiPrefectures = map[string]string{
	"tokyo":    "東京都",
	"osaka":    "大阪府",
	"kyoto":    "京都府",
	"hokkaido": "北海道",
	"aichi":    "愛知県",
	"nagoya":   "愛知県",
	"kanagawa": "神奈川県",
	"yokohama": "神奈川県",
	"saitama":  "埼玉県",
	"chiba":    "千葉県",
	"hyogo":    "兵庫県",
	"kobe":     "兵庫県",
	"fukuoka":  "福岡県",
	"sendai":   "宮城県",
	"sapporo":  "北海道",
	"shibuya":  "東京都",
	"shinjuku": "東京都",
}

// regionPrefectures maps region/city keywords that appear in company names to
// the prefecture of the region's principal city.
var regionPrefectures = map[string]string{
	"東京":  "東京都",
	"近畿":  "大阪府",
	"関西":  "大阪府",
	"大阪":  "大阪府",
	"名古屋": "愛知県",
	"愛知":  "愛知県",
	"福岡":  "福岡県",
	"札幌":  "北海道",
	"北海道": "北海道",
	"横浜":  "神奈川県",
	"京都":  "京都府",
	"神戸":  "兵庫県",
	"仙台":  "宮城県",
}

// IsPrefecture reports whether s is one of the 47 canonical prefecture names.
func IsPrefecture(s string) bool {
	for _, p := range Prefectures {
		if s == p {
			return true
		}
	}
	return false
}

// PrefectureIn returns the first canonical prefecture name contained in text,
// or "" if none. Romanized names are resolved case-insensitively.
func PrefectureIn(text string) string {
	if text == "" {
		return ""
	}
	for _, p := range Prefectures {
		if strings.Contains(text, p) {
			return p
		}
	}
	lower := strings.ToLower(text)
	for romaji, p := range romajiPrefectures {
		if strings.Contains(lower, romaji) {
			return p
		}
	}
	return ""
}

// PrefectureFromCompanyName guesses a prefecture from region keywords embedded
// in a company name ("近畿オービス" → 大阪府). Returns "" when no keyword hits.
func PrefectureFromCompanyName(name string) string {
	if name == "" {
		return ""
	}
	for kw, p := range regionPrefectures {
		if strings.Contains(name, kw) {
			return p
		}
	}
	return ""
}

// PrefectureFromDomain guesses a prefecture from romanized place names in a
// domain or URL ("shibuya-web.co.jp" → 東京都).
func PrefectureFromDomain(domain string) string {
	if domain == "" {
		return ""
	}
	lower := strings.ToLower(domain)
	for romaji, p := range romajiPrefectures {
		if strings.Contains(lower, romaji) {
			return p
		}
	}
	return ""
}
