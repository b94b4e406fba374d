package submission

import (
	"context"
	"testing"

	"trendsync/taxonomy"
	"trendsync/trendyol"
)

func TestPoolRunsAllJobs(t *testing.T) {
	attrs := map[int][]taxonomy.AttributeSchema{
		101: {{
			AttributeID: 47, Name: "Renk", Required: true,
			Values: []taxonomy.AttributeValue{{ID: 1002, Name: "Lacivert"}},
		}},
	}
	submitter := &stubSubmitter{}
	poller := &stubPoller{results: []trendyol.BatchResult{succeededResult()}}
	engine := newTestEngine(t, attrs, submitter, poller, 3)
	pool := NewPool(engine, 2)

	jobs := make([]Job, 0, 4)
	for _, key := range []string{"p1", "p2", "p3", "p4"} {
		d := testDescriptor()
		d.Barcode = key
		jobs = append(jobs, Job{Key: key, Descriptor: d})
	}

	records, err := pool.Run(context.Background(), jobs)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(records) != len(jobs) {
		t.Fatalf("got %d records, want %d", len(records), len(jobs))
	}
	for i, rec := range records {
		if rec == nil {
			t.Fatalf("record %d is nil", i)
		}
		if rec.ProductKey != jobs[i].Key {
			t.Errorf("record %d key = %s, want %s (job order preserved)", i, rec.ProductKey, jobs[i].Key)
		}
		if rec.State != StateSucceeded {
			t.Errorf("record %s state = %s (%s)", rec.ProductKey, rec.State, rec.TerminalReason)
		}
	}
}
