package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leadlab/enrich-cli/internal/model"
)

const extractionSystemPrompt = "あなたは企業情報抽出の専門家です。与えられたURLから正確で詳細な企業情報を抽出し、指定されたJSON形式で出力します。情報が見つからない場合は空の配列を返してください。"

// extractionPrompt asks for the raw fact lists of a company, in the JSON
// shape of model.ExtractedFields.
func extractionPrompt(companyName string, urls []string) string {
	return fmt.Sprintf(`以下のURL群から、企業「%s」に関する詳細な情報を抽出してください：

URL群: %s

抽出すべき情報：
1. 本社住所（必須）：都道府県名、市区町村名、番地・建物名、郵便番号。会社概要、アクセス、所在地、本社などのページから探す
2. 従業員数（数値と単位）
3. 主要なサービスまたは製品のリスト（具体的なサービス名、製品名）
4. 事業内容の詳細
5. 使用技術・手法・ノウハウ
6. 企業の特徴や強み（技術的特徴、事業領域、設立年、資本金など）
7. 直近12〜18ヶ月の重要なニュース見出しまたはプレスリリース（3つまで）
8. 会社概要ページの詳細な事業説明

抽出した情報は以下のJSON形式で出力してください：
{
  "address_lines": ["住所情報1", "住所情報2"],
  "employee_mentions": ["従業員数情報1"],
  "service_heads": ["サービス1", "サービス2"],
  "product_heads": ["製品1", "製品2"],
  "news_headlines": ["ニュース1", "ニュース2"],
  "business_details": ["事業詳細1"],
  "company_features": ["特徴1", "特徴2"],
  "tech_stack": ["技術・手法1"],
  "company_description": "会社概要ページの詳細な事業説明文"
}`, companyName, strings.Join(urls, ", "))
}

const synthesisSystemPrompt = `企業情報抽出の整形エージェント。与えられた箇条書き/短文を日本語で整え、厳格JSONのみを返す。文字数制約厳守。事実は与えられた根拠内に限定。

出力スキーマ（必ずこの形式で返してください）:
{
  "name": "企業名",
  "name_legal": "正式商号",
  "industry": "業界",
  "hq_address_raw": "本社住所（生のまま）",
  "prefecture_name": "都道府県名",
  "overview_text": "企業概要（300-500文字）",
  "services_text": "サービス一覧（・で始まる短文、1-7行）",
  "products_text": "製品一覧（・で始まる短文、0-7行）",
  "pain_hypotheses": ["課題仮説1", "課題仮説2", "課題仮説3"],
  "personalization_notes": "パーソナライゼーション用メモ（1-3行）",
  "employee_count": 数値,
  "employee_count_source_url": "従業員数出典URL"
}

重要ルール:
1. 必ず有効なJSON形式で返してください。他のテキストは含めないでください。
2. overview_textでは「与えられた抽出結果では」「公式情報の確認を推奨します」などの汎用的な表現は使用しないでください。
3. 情報が限定的な場合は、企業名と業界から推測できる具体的な事業内容を記載してください。
4. hq_address_rawでは「（要確認）」などの汎用的な表現は避け、具体的な住所情報があれば記載してください。
5. prefecture_nameは住所から正確に抽出し、不明な場合は「不明」と記載してください。`

// synthesisPrompt serializes the company identity and extracted facts for
// the formatting model.
func synthesisPrompt(in model.CompanyInput, fields model.ExtractedFields) string {
	extracted, _ := json.MarshalIndent(fields, "", "  ")
	return fmt.Sprintf(`以下の企業情報を整形してください：

企業基本情報:
- 企業名: %s
- ウェブサイト: %s
- 業界: %s
- 都道府県ヒント: %s

抽出済み情報:
%s`, in.Name, in.Website, in.Industry, in.PrefectureHint, string(extracted))
}

// decodeJSONBlock parses the first JSON object embedded in an LLM reply,
// tolerating markdown fences and surrounding prose.
func decodeJSONBlock(raw string, out any) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in response")
	}
	return json.Unmarshal([]byte(raw[start:end+1]), out)
}
