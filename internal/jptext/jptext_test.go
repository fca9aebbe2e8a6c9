package jptext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefectureIn(t *testing.T) {
	assert.Equal(t, "東京都", PrefectureIn("〒150-0002 東京都渋谷区渋谷2-21-1"))
	assert.Equal(t, "大阪府", PrefectureIn("本社は大阪府大阪市北区にあります"))
	assert.Equal(t, "東京都", PrefectureIn("Shibuya, Tokyo, Japan"))
	assert.Equal(t, "", PrefectureIn("どこにも所在地の記載がない文章"))
	assert.Equal(t, "", PrefectureIn(""))
}

func TestIsPrefecture(t *testing.T) {
	assert.True(t, IsPrefecture("北海道"))
	assert.True(t, IsPrefecture("沖縄県"))
	assert.False(t, IsPrefecture("東京"))
	assert.False(t, IsPrefecture("unknown"))
}

func TestPrefectureFromCompanyName(t *testing.T) {
	assert.Equal(t, "大阪府", PrefectureFromCompanyName("近畿オービス株式会社"))
	assert.Equal(t, "東京都", PrefectureFromCompanyName("東京電設サービス"))
	assert.Equal(t, "愛知県", PrefectureFromCompanyName("名古屋精機"))
	assert.Equal(t, "", PrefectureFromCompanyName("グローバルテック"))
}

func TestPrefectureFromDomain(t *testing.T) {
	assert.Equal(t, "東京都", PrefectureFromDomain("shibuya-web.co.jp"))
	assert.Equal(t, "神奈川県", PrefectureFromDomain("https://yokohama-trading.jp"))
	assert.Equal(t, "", PrefectureFromDomain("example.com"))
}

func TestExtractAddress(t *testing.T) {
	text := "会社概要\n〒530-0001 大阪府大阪市北区梅田1-1-1 梅田ビル10F\nTEL: 06-0000-0000"
	got := ExtractAddress(text)
	assert.Contains(t, got, "大阪府大阪市北区梅田1-1-1")

	// No prefecture marker means no address.
	assert.Equal(t, "", ExtractAddress("〒100-0001 某所1-2-3"))
	assert.Equal(t, "", ExtractAddress(""))
}

func TestExtractAddress_ShortPrefix(t *testing.T) {
	// A short label before the prefecture still qualifies.
	got := ExtractAddress("本社 大阪府大阪市北区梅田2-2-2")
	assert.Contains(t, got, "大阪府大阪市北区梅田2-2-2")

	got = ExtractAddress("所在地\n東京都渋谷区渋谷2-21-1 渋谷ヒカリエ")
	assert.Contains(t, got, "東京都渋谷区渋谷2-21-1")
}

func TestBestAddress(t *testing.T) {
	lines := []string{
		"本社",
		"渋谷2-21-1",
		"〒150-0002 東京都渋谷区渋谷2-21-1 渋谷ヒカリエ",
	}
	got := BestAddress(lines)
	assert.Contains(t, got, "東京都渋谷区")

	// No qualifying candidate: first non-empty line wins.
	assert.Equal(t, "本社", BestAddress([]string{"", "本社", "渋谷2-21-1"}))
	assert.Equal(t, "", BestAddress(nil))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "会社概要 アクセス", CleanText("<p>会社概要</p>　 <a>アクセス</a>"))
	assert.Equal(t, "a\nb", CleanText("a\n\n\nb"))
	assert.Equal(t, "", CleanText(""))
}

func TestExtractLegalName(t *testing.T) {
	assert.Equal(t, "株式会社サンプル商事", ExtractLegalName("社名 株式会社サンプル商事 設立 2001年"))
	assert.Equal(t, "一般社団法人全国協会", ExtractLegalName("運営 一般社団法人全国協会 所在地 東京都"))
	assert.Equal(t, "", ExtractLegalName("サンプル商事"))
}

func TestExtractEmployeeCount(t *testing.T) {
	n, ok := ExtractEmployeeCount("従業員数：1,234名（連結）")
	assert.True(t, ok)
	assert.Equal(t, 1234, n)

	// Full-width digits normalize before matching.
	n, ok = ExtractEmployeeCount("従業員数　１２０名")
	assert.True(t, ok)
	assert.Equal(t, 120, n)

	// Largest figure wins when both standalone and consolidated appear.
	n, ok = ExtractEmployeeCount("社員数 50名 従業員数 320名")
	assert.True(t, ok)
	assert.Equal(t, 320, n)

	_, ok = ExtractEmployeeCount("設立 1999年")
	assert.False(t, ok)
	_, ok = ExtractEmployeeCount("")
	assert.False(t, ok)
}

func TestSizeBucket(t *testing.T) {
	assert.Equal(t, "", SizeBucket(0))
	assert.Equal(t, "small", SizeBucket(10))
	assert.Equal(t, "medium", SizeBucket(120))
	assert.Equal(t, "large", SizeBucket(5000))
}
