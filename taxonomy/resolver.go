package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
)

// ErrNoMatch is returned when no strategy, including the catch-all fallback,
// produced a candidate. Callers decide whether to fall back to a hard-coded
// last-resort category id.
var ErrNoMatch = errors.New("taxonomy: no category match")

// MatchType names the strategy that produced a candidate's score.
type MatchType string

const (
	MatchExact      MatchType = "exact"
	MatchSimilarity MatchType = "similarity"
	MatchSubstring  MatchType = "substring"
	MatchWord       MatchType = "word"
	MatchStripped   MatchType = "stripped"
	MatchPartial    MatchType = "partial"
	MatchFallback   MatchType = "fallback"
	MatchReranked   MatchType = "reranked"
)

// strategy rank for tie-breaking: when two strategies give a category the
// same score, the earlier-listed strategy wins.
var strategyRank = map[MatchType]int{
	MatchExact:      0,
	MatchSimilarity: 1,
	MatchSubstring:  2,
	MatchWord:       3,
	MatchStripped:   4,
	MatchPartial:    5,
	MatchFallback:   6,
	MatchReranked:   7,
}

// Candidate is one scored leaf category.
type Candidate struct {
	Node  *CategoryNode
	Score float64
	Match MatchType
}

// Reranker reorders a candidate list, typically with a semantic similarity
// model. A reranker may reorder and rescore but never invents candidates;
// the resolver works identically without one.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []Candidate) []Candidate
}

const (
	// minContainmentNameLen guards the substring strategy against trivial
	// 1-3 character category names matching everything.
	minContainmentNameLen = 4

	// DefaultMaxCandidates caps the ranked list before optional reranking.
	DefaultMaxCandidates = 60

	scoreQueryInName   = 0.85
	scoreNameInQuery   = 0.80
	scoreStrippedRetry = 0.75
	scorePrefixWindow  = 0.60
	scoreSuffixWindow  = 0.55
	scoreFallback      = 0.30

	// fallbackTerm is the generic catch-all for the product's broad class,
	// used only when every strategy came up empty.
	fallbackTerm = "giyim"
)

// Resolver ranks taxonomy leaves against a free-text query. No single
// strategy is reliable across thousands of inconsistently named leaves, so
// several independent strategies run and the best score per category wins.
type Resolver struct {
	cache         *Cache
	reranker      Reranker
	maxCandidates int
}

// NewResolver creates a resolver over the given cache. The reranker is
// optional and may be nil.
func NewResolver(cache *Cache, reranker Reranker) *Resolver {
	return &Resolver{
		cache:         cache,
		reranker:      reranker,
		maxCandidates: DefaultMaxCandidates,
	}
}

// Resolve returns leaf categories ranked by match score for the scraped
// source category label, using the product title to break ties between
// gender/age variants of the same garment type.
func (r *Resolver) Resolve(ctx context.Context, sourceLabel, title string) ([]Candidate, error) {
	snap, err := r.cache.Categories(ctx)
	if err != nil {
		return nil, err
	}
	leaves := snap.Leaves()
	if len(leaves) == 0 {
		return nil, ErrEmptyTaxonomy
	}

	query := NormalizeText(sourceLabel)
	if query == "" {
		query = NormalizeText(title)
	}
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrNoMatch)
	}
	normTitle := NormalizeText(title)

	// Exact name equality short-circuits everything else.
	for _, leaf := range leaves {
		if NormalizeText(leaf.Name) == query {
			return []Candidate{{Node: leaf, Score: 1.0, Match: MatchExact}}, nil
		}
	}

	best := make(map[int]Candidate, len(leaves))
	merge := func(c Candidate) {
		prev, ok := best[c.Node.ID]
		if !ok || c.Score > prev.Score ||
			(c.Score == prev.Score && strategyRank[c.Match] < strategyRank[prev.Match]) {
			best[c.Node.ID] = c
		}
	}

	for _, leaf := range leaves {
		name := NormalizeText(leaf.Name)
		if name == "" {
			continue
		}

		if score := similarityScore(query, name); score > 0 {
			merge(Candidate{Node: leaf, Score: score, Match: MatchSimilarity})
		}
		if score := containmentScore(query, name); score > 0 {
			merge(Candidate{Node: leaf, Score: score, Match: MatchSubstring})
		}
		if score := wordMatchScore(query, name, normTitle); score > 0 {
			merge(Candidate{Node: leaf, Score: score, Match: MatchWord})
		}
	}

	// Retry the substring strategy on the stop-word-stripped query.
	if stripped := StripStopWords(query); stripped != query {
		for _, leaf := range leaves {
			name := NormalizeText(leaf.Name)
			if containmentScore(stripped, name) > 0 {
				merge(Candidate{Node: leaf, Score: scoreStrippedRetry, Match: MatchStripped})
			}
		}
	}

	// Prefix/suffix partial-phrase windows for multi-word queries.
	for _, window := range phraseWindows(query) {
		for _, leaf := range leaves {
			name := NormalizeText(leaf.Name)
			if containmentScore(window.phrase, name) == 0 {
				continue
			}
			score := scoreSuffixWindow
			if window.prefix {
				score = scorePrefixWindow
			}
			merge(Candidate{Node: leaf, Score: score, Match: MatchPartial})
		}
	}

	candidates := make([]Candidate, 0, len(best))
	for _, c := range best {
		candidates = append(candidates, c)
	}

	if len(candidates) == 0 {
		candidates = r.fallbackCandidates(leaves)
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrNoMatch, sourceLabel)
		}
		log.Printf("No category match for %q, using catch-all %q candidates", sourceLabel, fallbackTerm)
	}

	sortCandidates(candidates)
	if len(candidates) > r.maxCandidates {
		candidates = candidates[:r.maxCandidates]
	}

	if r.reranker != nil {
		reranked := r.reranker.Rerank(ctx, query, candidates)
		// A reranker reorders; it must not grow the list.
		if len(reranked) > 0 && len(reranked) <= len(candidates) {
			candidates = reranked
		}
	}

	return candidates, nil
}

// BestMatch returns the top-ranked leaf for the query.
func (r *Resolver) BestMatch(ctx context.Context, sourceLabel, title string) (*CategoryNode, error) {
	candidates, err := r.Resolve(ctx, sourceLabel, title)
	if err != nil {
		return nil, err
	}
	top := candidates[0]
	log.Printf("Resolved %q to category %q (id %d, score %.2f, %s)",
		sourceLabel, top.Node.Name, top.Node.ID, top.Score, top.Match)
	return top.Node, nil
}

// fallbackCandidates collects leaves whose name contains the generic
// catch-all term for the broad product class.
func (r *Resolver) fallbackCandidates(leaves []*CategoryNode) []Candidate {
	var out []Candidate
	for _, leaf := range leaves {
		if strings.Contains(NormalizeText(leaf.Name), fallbackTerm) {
			out = append(out, Candidate{Node: leaf, Score: scoreFallback, Match: MatchFallback})
		}
	}
	return out
}

// sortCandidates orders by score, then strategy rank, then id, so the
// ranking is fully deterministic.
func sortCandidates(candidates []Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if strategyRank[a.Match] != strategyRank[b.Match] {
			return strategyRank[a.Match] < strategyRank[b.Match]
		}
		return a.Node.ID < b.Node.ID
	})
}

// similarityScore combines character-set Jaccard similarity with a length
// ratio, weighted 0.7/0.3. Cheap, order-insensitive, and good at catching
// misspellings and reordered words.
func similarityScore(query, name string) float64 {
	jaccard := charSetJaccard(query, name)
	if jaccard == 0 {
		return 0
	}
	shorter, longer := len(query), len(name)
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	lengthRatio := float64(shorter) / float64(longer)
	score := 0.7*jaccard + 0.3*lengthRatio
	// Below this the strategy is pure noise.
	if score < 0.35 {
		return 0
	}
	return score
}

func charSetJaccard(a, b string) float64 {
	setA := make(map[rune]bool)
	for _, r := range a {
		if r != ' ' {
			setA[r] = true
		}
	}
	setB := make(map[rune]bool)
	for _, r := range b {
		if r != ' ' {
			setB[r] = true
		}
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for r := range setA {
		if setB[r] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// containmentScore checks substring containment in either direction with a
// minimum name length guard.
func containmentScore(query, name string) float64 {
	if len(name) < minContainmentNameLen || len(query) < minContainmentNameLen {
		return 0
	}
	if strings.Contains(name, query) {
		return scoreQueryInName
	}
	if strings.Contains(query, name) {
		return scoreNameInQuery
	}
	return 0
}

// wordMatchScore scores the fraction of query words contained in the leaf
// name. Words that also occur in the product title weigh more, and curated
// strong classifier words (gender/age/product type) boost the total up to
// +50%, which is what separates "Erkek Tişört" from "Kadın Tişört" for a
// men's shirt.
func wordMatchScore(query, name, title string) float64 {
	queryWords := strings.Fields(query)
	if len(queryWords) == 0 {
		return 0
	}

	nameWords := strings.Fields(name)
	nameSet := make(map[string]bool, len(nameWords))
	for _, w := range nameWords {
		nameSet[w] = true
	}

	matched := 0
	boost := 1.0
	for _, w := range queryWords {
		if !nameSet[w] {
			continue
		}
		matched++
		if title != "" && containsWord(title, w) {
			boost += 0.10
		}
		if IsStrongClassifier(w) {
			boost += 0.15
		}
	}
	if matched == 0 {
		return 0
	}
	if boost > 1.5 {
		boost = 1.5
	}

	// Title words that independently match the leaf name pull in the
	// gender/age variant the source label alone cannot distinguish.
	if title != "" {
		for _, w := range nameWords {
			if !containsWord(query, w) && containsWord(title, w) && IsStrongClassifier(w) {
				boost += 0.15
				if boost > 1.5 {
					boost = 1.5
				}
				break
			}
		}
	}

	base := 0.50 * float64(matched) / float64(len(queryWords))
	score := base * boost
	if score > scoreQueryInName-0.01 {
		// The word strategy must not outrank a full substring containment.
		score = scoreQueryInName - 0.01
	}
	return score
}

type window struct {
	phrase string
	prefix bool
}

// phraseWindows yields decreasing-length word windows from both ends of a
// multi-word query: for "a b c" that is "a b" (prefix), "b c" (suffix).
func phraseWindows(query string) []window {
	words := strings.Fields(query)
	if len(words) < 2 {
		return nil
	}
	var out []window
	for size := len(words) - 1; size >= 1; size-- {
		out = append(out, window{phrase: strings.Join(words[:size], " "), prefix: true})
		out = append(out, window{phrase: strings.Join(words[len(words)-size:], " "), prefix: false})
	}
	return out
}
