package submission

import (
	"context"
	"errors"
	"log"

	"golang.org/x/sync/errgroup"

	"trendsync/product"
)

// Job pairs a stable product key with its descriptor.
type Job struct {
	Key        string
	Descriptor product.Descriptor
}

// Pool runs many submissions concurrently over one engine. Products are
// independent, so there is no ordering between them; each record's own
// transitions stay sequential inside RunSubmission.
type Pool struct {
	engine      *Engine
	concurrency int
}

// NewPool creates a pool with the given worker limit.
func NewPool(engine *Engine, concurrency int) *Pool {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Pool{engine: engine, concurrency: concurrency}
}

// Run processes all jobs and returns their terminal records in job order.
// A job whose key is already in flight is skipped with a nil record slot;
// infrastructure errors (cancellation, taxonomy cold-start failure) cancel
// the remaining jobs and are returned.
func (p *Pool) Run(ctx context.Context, jobs []Job) ([]*Record, error) {
	records := make([]*Record, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			rec, err := p.engine.RunSubmission(ctx, job.Key, job.Descriptor)
			if err != nil {
				if errors.Is(err, ErrInFlight) {
					log.Printf("Skipping duplicate job for %s", job.Key)
					return nil
				}
				return err
			}
			records[i] = rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return records, err
	}
	return records, nil
}
