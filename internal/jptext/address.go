package jptext

import (
	"regexp"
	"strings"
)

// postalAddressPattern matches an optional postal code followed by an address
// line containing a prefecture marker. The prefix can be as short as one rune
// ("本社 大阪府..."); minAddressRunes rejects candidates that are too short.
var postalAddressPattern = regexp.MustCompile(`(〒\s*\d{3}-?\d{4}\s*)?([^\n\r]{1,120}?[都道府県][^\n\r]*)`)

// minAddressRunes is the minimum plausible length for an address candidate.
const minAddressRunes = 8

// ExtractAddress returns the first address-like substring in text, or "".
// Candidates must contain one of the 47 prefecture names and be at least
// minAddressRunes long; the first qualifying candidate wins.
func ExtractAddress(text string) string {
	if text == "" {
		return ""
	}

	for _, line := range strings.Split(text, "\n") {
		m := postalAddressPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		candidate := strings.TrimSpace(m[2])
		if len([]rune(candidate)) < minAddressRunes {
			continue
		}
		if PrefectureIn(candidate) != "" {
			return candidate
		}
	}
	return ""
}

// BestAddress picks the winning address from raw candidate lines. The first
// candidate containing a canonical prefecture and meeting the minimum length
// wins; otherwise the first non-empty line is returned as-is.
func BestAddress(lines []string) string {
	var fallback string
	for _, line := range lines {
		line = CleanText(line)
		if line == "" {
			continue
		}
		if fallback == "" {
			fallback = line
		}
		if len([]rune(line)) >= minAddressRunes && PrefectureIn(line) != "" {
			return line
		}
	}
	return fallback
}

var (
	htmlTagPattern     = regexp.MustCompile(`<[^>]+>`)
	controlPattern     = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")
	whitespacePattern  = regexp.MustCompile(`[ \t\x{3000}]+`)
	blankLinesPattern  = regexp.MustCompile(`\n{2,}`)
)

// CleanText strips HTML tags and control characters and collapses runs of
// whitespace. Newlines are preserved but deduplicated.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = htmlTagPattern.ReplaceAllString(text, "")
	text = controlPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	text = blankLinesPattern.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}

// legalNamePatterns match Japanese corporate designators, longest-prefix first.
var legalNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(特定非営利活動法人\S+)`),
	regexp.MustCompile(`(一般社団法人\S+)`),
	regexp.MustCompile(`(一般財団法人\S+)`),
	regexp.MustCompile(`(公益社団法人\S+)`),
	regexp.MustCompile(`(公益財団法人\S+)`),
	regexp.MustCompile(`(株式会社\S+)`),
	regexp.MustCompile(`(有限会社\S+)`),
	regexp.MustCompile(`(合同会社\S+)`),
	regexp.MustCompile(`(合資会社\S+)`),
	regexp.MustCompile(`(合名会社\S+)`),
	regexp.MustCompile(`(NPO法人\S+)`),
}

// ExtractLegalName returns the first corporate legal name found in text, or "".
func ExtractLegalName(text string) string {
	if text == "" {
		return ""
	}
	for _, p := range legalNamePatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
