package taxonomy

import "strings"

// turkishFold maps Turkish-specific letters onto their ASCII neighbours so
// that "Tişört", "TİŞÖRT" and "tisort" all normalize to the same string.
var turkishFold = strings.NewReplacer(
	"ç", "c", "Ç", "c",
	"ğ", "g", "Ğ", "g",
	"ı", "i", "I", "i",
	"İ", "i",
	"ö", "o", "Ö", "o",
	"ş", "s", "Ş", "s",
	"ü", "u", "Ü", "u",
	"â", "a", "Â", "a",
	"î", "i", "Î", "i",
	"û", "u", "Û", "u",
)

// NormalizeText lowercases, folds Turkish letters and collapses whitespace.
// All matching in this package happens on normalized text.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	text = turkishFold.Replace(text)
	text = strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(text))
	lastSpace := false
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// containsWord reports whether haystack contains needle as a whole word.
func containsWord(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	idx := 0
	for {
		i := strings.Index(haystack[idx:], needle)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(needle)
		leftOK := start == 0 || haystack[start-1] == ' ' || haystack[start-1] == '-'
		rightOK := end == len(haystack) || haystack[end] == ' ' || haystack[end] == '-'
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
		if idx >= len(haystack) {
			return false
		}
	}
}

// stopWords are filler words stripped before the retry pass of the substring
// strategy. Kept short on purpose: over-stripping turns distinct category
// names into the same query.
var stopWords = map[string]bool{
	"ve":   true,
	"veya": true,
	"ile":  true,
	"icin": true,
	"the":  true,
	"and":  true,
	"for":  true,
	"with": true,
	"set":  true,
	"yeni": true,
	"new":  true,
}

// strongClassifiers are gender, age and product-type words that separate
// otherwise near-identical category names ("Erkek Tişört" vs "Kadın Tişört").
// Word matches on these get a score boost in the per-word strategy.
var strongClassifiers = map[string]bool{
	"erkek":    true,
	"kadin":    true,
	"kiz":      true,
	"bebek":    true,
	"cocuk":    true,
	"genc":     true,
	"unisex":   true,
	"tisort":   true,
	"t-shirt":  true,
	"tshirt":   true,
	"gomlek":   true,
	"pantolon": true,
	"elbise":   true,
	"etek":     true,
	"ceket":    true,
	"mont":     true,
	"sort":     true,
	"bluz":     true,
	"kazak":    true,
	"hirka":    true,
	"esofman":  true,
	"pijama":   true,
	"ayakkabi": true,
	"canta":    true,
}

// StripStopWords removes stop words from a normalized query. Returns the
// original query when stripping would leave nothing.
func StripStopWords(query string) string {
	words := strings.Fields(query)
	kept := words[:0]
	for _, w := range words {
		if !stopWords[w] {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return query
	}
	return strings.Join(kept, " ")
}

// IsStrongClassifier reports whether a normalized word is in the curated
// gender/age/product-type list.
func IsStrongClassifier(word string) bool {
	return strongClassifiers[word]
}
