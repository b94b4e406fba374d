package taxonomy

import (
	"context"
	"errors"
	"testing"
)

func newTestResolver(t *testing.T, roots []*CategoryNode) *Resolver {
	t.Helper()
	cache := NewCache(&fakeFetcher{roots: roots}, 0)
	if _, err := cache.Categories(context.Background()); err != nil {
		t.Fatalf("load taxonomy: %v", err)
	}
	return NewResolver(cache, nil)
}

func TestResolveExactNameScoresOne(t *testing.T) {
	r := newTestResolver(t, testTree())
	snap := r.cache.Snapshot()

	// Every leaf's own name must resolve to itself with score 1.0.
	for _, leaf := range snap.Leaves() {
		candidates, err := r.Resolve(context.Background(), leaf.Name, "")
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", leaf.Name, err)
		}
		top := candidates[0]
		if top.Node.ID != leaf.ID || top.Score != 1.0 || top.Match != MatchExact {
			t.Errorf("Resolve(%q) top = %d score %.2f %s, want %d score 1.00 exact",
				leaf.Name, top.Node.ID, top.Score, top.Match, leaf.ID)
		}
	}
}

func TestResolveGenderVariantViaTitle(t *testing.T) {
	roots := []*CategoryNode{
		{ID: 101, Name: "Erkek Tişört"},
		{ID: 111, Name: "Kadın Elbise"},
	}
	r := newTestResolver(t, roots)

	node, err := r.BestMatch(context.Background(), "tişört", "Erkek Slim Fit Tişört")
	if err != nil {
		t.Fatalf("BestMatch() error = %v", err)
	}
	if node.ID != 101 {
		t.Errorf("BestMatch() = %q (id %d), want Erkek Tişört", node.Name, node.ID)
	}
}

func TestResolveFallsBackToCatchAll(t *testing.T) {
	roots := []*CategoryNode{
		{ID: 1, Name: "İç Giyim"},
		{ID: 2, Name: "Elektronik"},
	}
	r := newTestResolver(t, roots)

	candidates, err := r.Resolve(context.Background(), "xyzzy", "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if candidates[0].Node.ID != 1 || candidates[0].Match != MatchFallback {
		t.Errorf("fallback candidate = %+v, want the giyim leaf", candidates[0])
	}
}

func TestResolveNoMatchAtAll(t *testing.T) {
	roots := []*CategoryNode{{ID: 2, Name: "Elektronik"}}
	r := newTestResolver(t, roots)

	_, err := r.Resolve(context.Background(), "xyzzy", "")
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("Resolve() error = %v, want ErrNoMatch", err)
	}
}

func TestResolveEmptyQueryFallsBackToTitle(t *testing.T) {
	roots := []*CategoryNode{
		{ID: 101, Name: "Erkek Tişört"},
		{ID: 111, Name: "Kadın Elbise"},
	}
	r := newTestResolver(t, roots)

	node, err := r.BestMatch(context.Background(), "", "Erkek Tişört")
	if err != nil {
		t.Fatalf("BestMatch() error = %v", err)
	}
	if node.ID != 101 {
		t.Errorf("BestMatch() = id %d, want 101", node.ID)
	}
}

func TestResolveDeterministicOrder(t *testing.T) {
	roots := []*CategoryNode{
		{ID: 3, Name: "Çocuk Tişört"},
		{ID: 1, Name: "Erkek Tişört"},
		{ID: 2, Name: "Kadın Tişört"},
	}
	r := newTestResolver(t, roots)

	first, err := r.Resolve(context.Background(), "tişört çeşitleri", "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := r.Resolve(context.Background(), "tişört çeşitleri", "")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("candidate count changed: %d vs %d", len(again), len(first))
		}
		for j := range again {
			if again[j].Node.ID != first[j].Node.ID || again[j].Score != first[j].Score {
				t.Fatalf("ordering changed at %d: %+v vs %+v", j, again[j], first[j])
			}
		}
	}
}

type reverseReranker struct{}

func (reverseReranker) Rerank(ctx context.Context, query string, candidates []Candidate) []Candidate {
	out := make([]Candidate, len(candidates))
	for i, c := range candidates {
		out[len(candidates)-1-i] = c
	}
	return out
}

func TestResolveAppliesReranker(t *testing.T) {
	roots := []*CategoryNode{
		{ID: 1, Name: "Erkek Tişört"},
		{ID: 2, Name: "Kadın Tişört"},
	}
	cache := NewCache(&fakeFetcher{roots: roots}, 0)
	if _, err := cache.Categories(context.Background()); err != nil {
		t.Fatalf("load taxonomy: %v", err)
	}
	r := NewResolver(cache, reverseReranker{})

	base := newTestResolver(t, []*CategoryNode{
		{ID: 1, Name: "Erkek Tişört"},
		{ID: 2, Name: "Kadın Tişört"},
	})
	plain, err := base.Resolve(context.Background(), "tişört modelleri", "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	reranked, err := r.Resolve(context.Background(), "tişört modelleri", "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(plain) != len(reranked) {
		t.Fatalf("candidate counts differ: %d vs %d", len(plain), len(reranked))
	}
	if plain[0].Node.ID == reranked[0].Node.ID && len(plain) > 1 {
		t.Error("reranker output was ignored")
	}
}
