package extraction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"trendsync/product"
)

// Extractor turns free-text product titles and descriptions into a set of
// normalized candidate facts. It is stateless and safe for concurrent use;
// all regexps are compiled once at construction.
type Extractor struct {
	tagRe      *regexp.Regexp
	keyRe      *regexp.Regexp
	fabricRe   *regexp.Regexp
	ageRangeRe *regexp.Regexp
	setRe      *regexp.Regexp
	sizeWordRe *regexp.Regexp
}

// NewExtractor compiles the extraction patterns.
func NewExtractor() *Extractor {
	return &Extractor{
		tagRe: regexp.MustCompile(`<[^>]*>`),
		// A key is a short run of letters/digits followed by ':' or '=',
		// or a spaced dash ("renk - lacivert"). A bare dash stays out of
		// the separator set so size ranges like "5-6 yas" survive.
		keyRe: regexp.MustCompile(`([a-z][a-z0-9 \-]{1,29}?)(?:\s*[:=]| - )`),
		// "%100 pamuk" and "100% pamuk" both occur in scraped text.
		fabricRe:   regexp.MustCompile(`(?:%\s*(\d{1,3})|(\d{1,3})\s*%)\s*([a-z]+)`),
		ageRangeRe: regexp.MustCompile(`(\d{1,2})\s*-\s*(\d{1,2})\s*(yas|ay)\b`),
		// "2'li", "3 lu" style multi-piece markers (folded text).
		setRe:      regexp.MustCompile(`\b\d+\s*'?\s*l[iu]\b`),
		sizeWordRe: regexp.MustCompile(`\b(?:beden|\d{2,3}\s*cm|x?[sml]|x{1,3}l|\d+-\d+\s*(?:yas|ay))\b`),
	}
}

// Extract runs the staged pipeline over one descriptor. Later stages may
// overwrite a lower-confidence guess for the same fact key; keys with no
// confident signal stay absent; defaulting is the assembler's job.
func (e *Extractor) Extract(d product.Descriptor) *Facts {
	facts := NewFacts()

	// Stage 1: strip markup, fold and collapse.
	desc := e.cleanText(d.Description)
	title := fold(d.Title)

	// Stage 2: structured key:value pairs, keys kept as scanned.
	facts.Pairs = e.scanKeyValues(desc)

	// Structured scrape fields outrank anything read out of prose.
	if d.Color != "" {
		facts.Set(FactColor, canonicalColor(fold(d.Color)), 1.0)
	}
	if len(d.Variants) == 1 && d.Variants[0].Size != "" {
		facts.Set(FactSize, strings.ToUpper(d.Variants[0].Size), 1.0)
	}

	// Stage 3: domain extractors over the description, confidence 1.0.
	e.extractColor(facts, desc, 1.0)
	e.extractGender(facts, desc, 1.0)
	e.extractAgeGroup(facts, desc, 1.0)
	e.extractFabric(facts, desc)
	e.extractSet(facts, desc, 1.0)

	// Stage 4: the title, at a lower base confidence. A classifier word
	// co-occurring with a fabric or size word ("çocuk ... pamuklu 5-6 yaş")
	// is a strong signal that this is a children's listing rather than an
	// adult one of the same garment type, so the boost closes the gap.
	titleConf := 0.9
	if e.hasClassifierContext(title) {
		titleConf = 1.0
	}
	e.extractGender(facts, title, titleConf)
	e.extractAgeGroup(facts, title, titleConf)
	e.extractColor(facts, title, 0.9)
	e.extractSet(facts, title, 0.9)

	return facts
}

// cleanText strips markup, folds Turkish letters to ASCII, lowercases and
// collapses whitespace, keeping line breaks for the key:value scanner.
func (e *Extractor) cleanText(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "<br>", "\n")
	text = strings.ReplaceAll(text, "<br/>", "\n")
	text = strings.ReplaceAll(text, "<br />", "\n")
	text = strings.ReplaceAll(text, "</p>", "\n")
	text = strings.ReplaceAll(text, "</li>", "\n")
	text = e.tagRe.ReplaceAllString(text, " ")
	text = strings.NewReplacer("&amp;", "&", "&nbsp;", " ", "&lt;", "<", "&gt;", ">", "&quot;", `"`).Replace(text)
	text = fold(text)

	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// scanKeyValues pulls key:value pairs out of the cleaned text. A value runs
// until the next key on the same line or the end of the line, so
// "kumas: %100 pamuk, renk: lacivert" yields two pairs.
func (e *Extractor) scanKeyValues(text string) []KeyValue {
	var pairs []KeyValue
	for _, line := range strings.Split(text, "\n") {
		matches := e.keyRe.FindAllStringSubmatchIndex(line, -1)
		for i, m := range matches {
			key := strings.TrimSpace(line[m[2]:m[3]])
			valStart := m[1]
			valEnd := len(line)
			if i+1 < len(matches) {
				valEnd = matches[i+1][0]
			}
			value := strings.TrimSpace(strings.Trim(line[valStart:valEnd], " ,;.\t"))
			if key == "" || value == "" {
				continue
			}
			pairs = append(pairs, KeyValue{Key: key, Value: value})
		}
	}
	return pairs
}

// extractColor picks the color mentioned earliest in the text, so
// "siyah ve beyaz" always reads as siyah.
func (e *Extractor) extractColor(facts *Facts, text string, confidence float64) {
	if text == "" {
		return
	}
	best, bestIdx := "", -1
	for _, entry := range colorNames {
		if i := tokenIndex(text, entry.variant); i >= 0 && (bestIdx < 0 || i < bestIdx) {
			best, bestIdx = entry.canonical, i
		}
	}
	if bestIdx >= 0 {
		facts.Set(FactColor, best, confidence)
	}
}

func (e *Extractor) extractGender(facts *Facts, text string, confidence float64) {
	if text == "" {
		return
	}
	for _, entry := range genderPhrases {
		if containsToken(text, entry.phrase) {
			facts.Set(FactGender, entry.value, confidence)
			return
		}
	}
}

func (e *Extractor) extractAgeGroup(facts *Facts, text string, confidence float64) {
	if text == "" {
		return
	}
	for _, entry := range agePhrases {
		if containsToken(text, entry.phrase) {
			facts.Set(FactAge, entry.value, confidence)
			return
		}
	}
	// Numeric ranges: "0-24 ay" is a baby size, "2-14 yaş" a child size.
	if m := e.ageRangeRe.FindStringSubmatch(text); m != nil {
		if m[3] == "ay" {
			facts.Set(FactAge, "Bebek", confidence)
		} else {
			facts.Set(FactAge, "Çocuk", confidence)
		}
	}
}

// extractFabric concatenates every "<percentage> <fiber>" group into one
// composition string: "%100 pamuk" becomes "100% Pamuk".
func (e *Extractor) extractFabric(facts *Facts, text string) {
	if text == "" {
		return
	}
	var parts []string
	for _, m := range e.fabricRe.FindAllStringSubmatch(text, -1) {
		pctText := m[1]
		if pctText == "" {
			pctText = m[2]
		}
		pct, err := strconv.Atoi(pctText)
		if err != nil || pct == 0 || pct > 100 {
			continue
		}
		fiber, ok := fiberNames[m[3]]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%d%% %s", pct, fiber))
	}
	if len(parts) > 0 {
		facts.Set(FactFabric, strings.Join(parts, ", "), 1.0)
	}
}

func (e *Extractor) extractSet(facts *Facts, text string, confidence float64) {
	if text == "" {
		return
	}
	for _, kw := range setKeywords {
		if containsToken(text, kw) {
			facts.Set(FactIsSet, "true", confidence)
			return
		}
	}
	if e.setRe.MatchString(text) {
		facts.Set(FactIsSet, "true", confidence)
	}
}

// hasClassifierContext reports whether an age/gender classifier word
// co-occurs with a fabric or size word in the same text.
func (e *Extractor) hasClassifierContext(text string) bool {
	hasClassifier := false
	for _, entry := range agePhrases {
		if containsToken(text, entry.phrase) {
			hasClassifier = true
			break
		}
	}
	if !hasClassifier {
		for _, entry := range genderPhrases {
			if containsToken(text, entry.phrase) {
				hasClassifier = true
				break
			}
		}
	}
	if !hasClassifier {
		return false
	}
	if e.sizeWordRe.MatchString(text) {
		return true
	}
	for fiber := range fiberNames {
		if containsToken(text, fiber) {
			return true
		}
	}
	return false
}

// canonicalColor maps a folded color word to its canonical name, falling
// back to the input.
func canonicalColor(word string) string {
	word = strings.TrimSpace(word)
	for _, entry := range colorNames {
		if entry.variant == word {
			return entry.canonical
		}
	}
	for _, entry := range colorNames {
		if containsToken(word, entry.variant) {
			return entry.canonical
		}
	}
	return word
}

// fold lowercases and maps Turkish-specific letters to ASCII.
var foldReplacer = strings.NewReplacer(
	"ç", "c", "Ç", "c",
	"ğ", "g", "Ğ", "g",
	"ı", "i", "I", "i",
	"İ", "i",
	"ö", "o", "Ö", "o",
	"ş", "s", "Ş", "s",
	"ü", "u", "Ü", "u",
)

func fold(text string) string {
	return strings.ToLower(foldReplacer.Replace(text))
}

// containsToken reports whether text contains phrase bounded by non-letter
// characters, so "erkek" does not fire inside "erkekli" but does inside
// "erkek cocuk" and "(erkek)".
func containsToken(text, phrase string) bool {
	return tokenIndex(text, phrase) >= 0
}

// tokenIndex returns the index of the first occurrence of phrase bounded by
// non-letter characters, or -1.
func tokenIndex(text, phrase string) int {
	idx := 0
	for {
		i := strings.Index(text[idx:], phrase)
		if i < 0 {
			return -1
		}
		start := idx + i
		end := start + len(phrase)
		leftOK := start == 0 || !isLetter(text[start-1])
		rightOK := end == len(text) || !isLetter(text[end])
		if leftOK && rightOK {
			return start
		}
		idx = start + 1
		if idx >= len(text) {
			return -1
		}
	}
}

func isLetter(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
