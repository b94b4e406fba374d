package submission

import (
	"regexp"
	"strings"
)

// Parsing human-readable failure strings is brittle, so the pattern table is
// a versioned artifact: new remote phrasings get a new entry here with a
// matching test case, and anything no pattern matches stays a plain
// validation failure rather than being guessed at.
var reasonPatternsV1 = []*regexp.Regexp{
	// "Zorunlu kategori özellik bilgisi eksiktir. Eksik alan: Yaş Grubu"
	regexp.MustCompile(`Zorunlu kategori özellik bilgisi eksiktir\.?\s*Eksik alan:\s*(.+)`),
	// "Zorunlu özellik eksik: Renk"
	regexp.MustCompile(`(?i)zorunlu özellik eksik:?\s*(.+)`),
	// English phrasing seen on some endpoints.
	regexp.MustCompile(`(?i)missing mandatory attribute:?\s*(.+)`),
	regexp.MustCompile(`(?i)required attribute is missing:?\s*(.+)`),
}

// ExtractMissingAttributes pulls attribute names out of remote failure
// reasons. Returns nil when no reason matches any known pattern, which the
// engine treats as a non-retryable validation failure.
func ExtractMissingAttributes(reasons []string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, reason := range reasons {
		for _, pattern := range reasonPatternsV1 {
			m := pattern.FindStringSubmatch(reason)
			if m == nil {
				continue
			}
			name := strings.TrimSpace(strings.Trim(m[1], ".,;"))
			if name == "" {
				continue
			}
			key := strings.ToLower(name)
			if !seen[key] {
				seen[key] = true
				names = append(names, name)
			}
			break
		}
	}
	return names
}
