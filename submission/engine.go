package submission

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"trendsync/assembly"
	"trendsync/extraction"
	"trendsync/product"
	"trendsync/taxonomy"
	"trendsync/trendyol"
)

// ErrInFlight is returned when a submission for the same product key is
// already running. At most one outstanding submission per key.
var ErrInFlight = errors.New("submission: product already in flight")

// Submitter posts one batch of items. Implemented by trendyol.Client.
type Submitter interface {
	SubmitProducts(ctx context.Context, items []trendyol.Item) (string, error)
}

// Poller reports a batch's processing outcome. Implemented by
// trendyol.StatusPoller.
type Poller interface {
	Poll(ctx context.Context, batchID string) (trendyol.BatchResult, error)
}

// BrandResolver maps a scraped brand name to a marketplace brand id.
type BrandResolver interface {
	BrandIDByName(ctx context.Context, name string) int
}

// Options bound the retry and polling behavior of the engine.
type Options struct {
	// MaxAttempts caps submission attempts per record. A record that
	// exhausts it without a terminal outcome ends in RetryExhausted.
	MaxAttempts int

	// PollInterval is how long to wait between status polls while the
	// remote reports the batch as still processing.
	PollInterval time.Duration

	// MaxPolls bounds status polls per attempt. A batch still unresolved
	// after that many polls fails the record.
	MaxPolls int
}

func (o *Options) fillDefaults() {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 5 * time.Second
	}
	if o.MaxPolls <= 0 {
		o.MaxPolls = 10
	}
}

// Engine drives one product through resolve, assemble, submit, poll and the
// attribute-patching retry loop. Safe for concurrent use across distinct
// product keys.
type Engine struct {
	cache     *taxonomy.Cache
	resolver  *taxonomy.Resolver
	extractor *extraction.Extractor
	assembler *assembly.Assembler
	submitter Submitter
	poller    Poller
	brands    BrandResolver
	opts      Options

	mu       sync.Mutex
	inflight map[string]bool
}

// NewEngine wires the engine's collaborators.
func NewEngine(cache *taxonomy.Cache, resolver *taxonomy.Resolver, submitter Submitter, poller Poller, brands BrandResolver, opts Options) *Engine {
	opts.fillDefaults()
	return &Engine{
		cache:     cache,
		resolver:  resolver,
		extractor: extraction.NewExtractor(),
		assembler: assembly.NewAssembler(),
		submitter: submitter,
		poller:    poller,
		brands:    brands,
		opts:      opts,
		inflight:  make(map[string]bool),
	}
}

// ResolveCategory ranks and picks the leaf category for a scraped label.
func (e *Engine) ResolveCategory(ctx context.Context, label, title string) (*taxonomy.CategoryNode, error) {
	return e.resolver.BestMatch(ctx, label, title)
}

// BuildAttributes assembles the per-listing attribute list a fresh submission
// of the descriptor to the given category would carry. Variant-specific size
// attributes are added per item at payload build time. forceInclude may be
// nil.
func (e *Engine) BuildAttributes(ctx context.Context, categoryID int, d product.Descriptor, forceInclude map[int]bool) ([]assembly.Assignment, error) {
	schemas, err := e.cache.AttributesFor(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	facts := e.extractor.Extract(d)
	return e.assembler.Assemble(schemas, facts, nil, forceInclude), nil
}

// PollOnce fetches one normalized batch status, for callers that schedule
// polling themselves.
func (e *Engine) PollOnce(ctx context.Context, batchID string) (trendyol.BatchResult, error) {
	return e.poller.Poll(ctx, batchID)
}

// RunSubmission drives one product to a terminal state and returns its
// record. The returned record is always non-nil unless the key is already
// in flight or the taxonomy is unavailable.
func (e *Engine) RunSubmission(ctx context.Context, productKey string, d product.Descriptor) (*Record, error) {
	if !e.acquire(productKey) {
		return nil, fmt.Errorf("%w: %s", ErrInFlight, productKey)
	}
	defer e.release(productKey)

	rec := NewRecord(productKey)

	if err := d.Validate(); err != nil {
		rec.fail(err.Error())
		return rec, nil
	}

	// Category is resolved once and reused by every retry attempt.
	node, err := e.resolver.BestMatch(ctx, d.SourceCategory, d.Title)
	if err != nil {
		if errors.Is(err, taxonomy.ErrNoMatch) {
			rec.fail(err.Error())
			return rec, nil
		}
		return nil, err
	}
	rec.CategoryID = node.ID
	rec.BrandID = e.brands.BrandIDByName(ctx, d.Brand)

	facts := e.extractor.Extract(d)
	forceInclude := make(map[int]bool)
	var previous []assembly.Assignment

	for {
		if rec.AttemptCount >= e.opts.MaxAttempts {
			rec.exhaust(fmt.Sprintf("no success after %d attempts, still missing: %s",
				rec.AttemptCount, strings.Join(rec.LastMissing, ", ")))
			return rec, nil
		}
		rec.AttemptCount++
		rec.transition(StateSubmitting)

		schemas, err := e.cache.AttributesFor(ctx, rec.CategoryID)
		if err != nil {
			// An incomplete schema is logged and tolerated, total
			// unavailability is not.
			log.Printf("[%s] Attribute schema unavailable for category %d: %v", productKey, rec.CategoryID, err)
			rec.fail(fmt.Sprintf("attribute schema unavailable: %v", err))
			return rec, nil
		}

		assignments := e.assembler.Assemble(schemas, facts, previous, forceInclude)
		items := trendyol.BuildItems(d, rec.CategoryID, rec.BrandID, schemas, assignments)

		batchID, err := e.submitter.SubmitProducts(ctx, items)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Transport retries already ran below this layer; what is left
			// is terminal for this record.
			rec.fail(fmt.Sprintf("submit failed: %v", err))
			return rec, nil
		}
		rec.BatchID = batchID
		rec.transition(StateAwaitingStatus)

		result, err := e.awaitBatch(ctx, batchID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			rec.fail(fmt.Sprintf("batch %s status unresolved: %v", batchID, err))
			return rec, nil
		}

		switch result.Status {
		case trendyol.StatusSucceeded:
			rec.transition(StateSucceeded)
			log.Printf("[%s] Succeeded in attempt %d (batch %s)", productKey, rec.AttemptCount, batchID)
			return rec, nil

		case trendyol.StatusFailed:
			reasons := collectFailureReasons(result)
			missing := ExtractMissingAttributes(reasons)
			if len(missing) == 0 {
				// A genuine data rejection, resubmitting the same payload
				// cannot fix it.
				rec.fail(fmt.Sprintf("remote validation failure: %s", strings.Join(reasons, "; ")))
				return rec, nil
			}
			rec.LastMissing = mergeNames(rec.LastMissing, missing)
			for _, id := range attributeIDsByName(schemas, missing) {
				forceInclude[id] = true
			}
			previous = assignments
			rec.transition(StatePatchingAttributes)
			log.Printf("[%s] Attempt %d missing attributes %v, patching and resubmitting", productKey, rec.AttemptCount, missing)

		default:
			rec.fail(fmt.Sprintf("batch %s finished in state %s: %s", batchID, result.Status, truncateRaw(result.Raw)))
			return rec, nil
		}
	}
}

// awaitBatch polls until the batch leaves Processing or the poll budget runs
// out. Unknown responses count against the budget and are retried, since
// they are as likely a transient remote hiccup as a real malformation.
func (e *Engine) awaitBatch(ctx context.Context, batchID string) (trendyol.BatchResult, error) {
	var last trendyol.BatchResult
	for poll := 0; poll < e.opts.MaxPolls; poll++ {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-time.After(e.opts.PollInterval):
		}

		result, err := e.poller.Poll(ctx, batchID)
		if err != nil {
			return result, err
		}
		last = result
		if result.Status != trendyol.StatusProcessing && result.Status != trendyol.StatusUnknown {
			return result, nil
		}
	}
	if last.Status == trendyol.StatusUnknown {
		return last, fmt.Errorf("status still unknown after %d polls", e.opts.MaxPolls)
	}
	return last, fmt.Errorf("still processing after %d polls", e.opts.MaxPolls)
}

func (e *Engine) acquire(productKey string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inflight[productKey] {
		return false
	}
	e.inflight[productKey] = true
	return true
}

func (e *Engine) release(productKey string) {
	e.mu.Lock()
	delete(e.inflight, productKey)
	e.mu.Unlock()
}

func collectFailureReasons(result trendyol.BatchResult) []string {
	var reasons []string
	for _, item := range result.Items {
		if !item.Succeeded {
			reasons = append(reasons, item.FailureReasons...)
		}
	}
	if len(reasons) == 0 && len(result.Raw) > 0 {
		reasons = append(reasons, truncateRaw(result.Raw))
	}
	return reasons
}

// attributeIDsByName maps remote-reported attribute names back onto schema
// ids, by normalized equality first and containment second.
func attributeIDsByName(schemas []taxonomy.AttributeSchema, names []string) []int {
	var ids []int
	for _, name := range names {
		want := taxonomy.NormalizeText(name)
		if want == "" {
			continue
		}
		found := false
		for _, s := range schemas {
			if taxonomy.NormalizeText(s.Name) == want {
				ids = append(ids, s.AttributeID)
				found = true
				break
			}
		}
		if found {
			continue
		}
		for _, s := range schemas {
			have := taxonomy.NormalizeText(s.Name)
			if strings.Contains(have, want) || strings.Contains(want, have) {
				ids = append(ids, s.AttributeID)
				break
			}
		}
	}
	return ids
}

func mergeNames(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, n := range existing {
		seen[strings.ToLower(n)] = true
	}
	for _, n := range incoming {
		if !seen[strings.ToLower(n)] {
			seen[strings.ToLower(n)] = true
			existing = append(existing, n)
		}
	}
	return existing
}

func truncateRaw(raw []byte) string {
	const limit = 200
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}
	return string(raw)
}
