package jptext

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// employeePatterns match employee-count mentions in Japanese and English.
var employeePatterns = []*regexp.Regexp{
	regexp.MustCompile(`従業員数\s*[:：]?\s*([\d,]+)\s*名?`),
	regexp.MustCompile(`社員数\s*[:：]?\s*([\d,]+)\s*名?`),
	regexp.MustCompile(`スタッフ数\s*[:：]?\s*([\d,]+)\s*名?`),
	regexp.MustCompile(`従業者数\s*[:：]?\s*([\d,]+)\s*名?`),
	regexp.MustCompile(`(?i)employees?\s*[:：]?\s*([\d,]+)`),
}

// maxPlausibleEmployees guards against picking up phone numbers or revenue
// figures that slip past the patterns.
const maxPlausibleEmployees = 100_000_000

// ExtractEmployeeCount scans text for an employee-count mention and returns
// the largest matched value (consolidated figures are usually listed alongside
// standalone ones). Full-width digits are normalized before matching. Returns
// (0, false) when nothing plausible is found.
func ExtractEmployeeCount(text string) (int, bool) {
	if text == "" {
		return 0, false
	}

	// 従業員数：１２３名 → 従業員数：123名
	text = width.Narrow.String(text)

	best := 0
	for _, p := range employeePatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			raw := strings.ReplaceAll(m[1], ",", "")
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > maxPlausibleEmployees {
				continue
			}
			if n > best {
				best = n
			}
		}
	}
	if best == 0 {
		return 0, false
	}
	return best, true
}

// SizeBucket classifies an employee count into small/medium/large, matching
// the pain-hypothesis rule table keys. Zero or unknown counts map to "".
func SizeBucket(employeeCount int) string {
	switch {
	case employeeCount <= 0:
		return ""
	case employeeCount < 50:
		return "small"
	case employeeCount < 500:
		return "medium"
	default:
		return "large"
	}
}
