package database

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"trendsync/submission"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"), Config{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndLoadRecord(t *testing.T) {
	store := testStore(t)

	rec := submission.NewRecord("p1")
	rec.State = submission.StateRetryExhausted
	rec.CategoryID = 101
	rec.BrandID = 7651
	rec.BatchID = "batch-3"
	rec.AttemptCount = 3
	rec.LastMissing = []string{"Yaş Grubu", "Renk"}
	rec.TerminalReason = "no success after 3 attempts"

	if err := store.SaveRecord(rec); err != nil {
		t.Fatalf("SaveRecord() error = %v", err)
	}

	got, err := store.RecordByKey("p1")
	if err != nil {
		t.Fatalf("RecordByKey() error = %v", err)
	}
	if got.State != submission.StateRetryExhausted || got.AttemptCount != 3 {
		t.Errorf("loaded record = %+v", got)
	}
	if len(got.LastMissing) != 2 || got.LastMissing[0] != "Yaş Grubu" {
		t.Errorf("LastMissing = %v, want [Yaş Grubu Renk]", got.LastMissing)
	}
}

func TestSaveRecordUpserts(t *testing.T) {
	store := testStore(t)

	rec := submission.NewRecord("p1")
	rec.State = submission.StateFailed
	if err := store.SaveRecord(rec); err != nil {
		t.Fatalf("SaveRecord() error = %v", err)
	}

	rec.State = submission.StateSucceeded
	rec.AttemptCount = 2
	if err := store.SaveRecord(rec); err != nil {
		t.Fatalf("second SaveRecord() error = %v", err)
	}

	got, err := store.RecordByKey("p1")
	if err != nil {
		t.Fatalf("RecordByKey() error = %v", err)
	}
	if got.State != submission.StateSucceeded || got.AttemptCount != 2 {
		t.Errorf("record after upsert = %+v", got)
	}
}

func TestRecordSnapshot(t *testing.T) {
	store := testStore(t)

	if err := store.RecordSnapshot(5400, 3200, time.Now()); err != nil {
		t.Fatalf("RecordSnapshot() error = %v", err)
	}
	if err := store.RecordSnapshot(5410, 3205, time.Now()); err != nil {
		t.Fatalf("second RecordSnapshot() error = %v", err)
	}

	var count int
	if err := store.conn.QueryRow("SELECT COUNT(*) FROM taxonomy_snapshots").Scan(&count); err != nil {
		t.Fatalf("count query error = %v", err)
	}
	if count != 2 {
		t.Errorf("got %d snapshot rows, want 2", count)
	}
}

func TestRecordByKeyMissing(t *testing.T) {
	store := testStore(t)

	_, err := store.RecordByKey("missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("error = %v, want sql.ErrNoRows", err)
	}
}

func TestRecordsByStateAndStats(t *testing.T) {
	store := testStore(t)

	for i, state := range []submission.State{
		submission.StateSucceeded, submission.StateSucceeded, submission.StateFailed,
	} {
		rec := submission.NewRecord(string(rune('a' + i)))
		rec.State = state
		if err := store.SaveRecord(rec); err != nil {
			t.Fatalf("SaveRecord() error = %v", err)
		}
	}

	succeeded, err := store.RecordsByState(submission.StateSucceeded)
	if err != nil {
		t.Fatalf("RecordsByState() error = %v", err)
	}
	if len(succeeded) != 2 {
		t.Errorf("got %d succeeded records, want 2", len(succeeded))
	}

	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats[string(submission.StateSucceeded)] != 2 || stats[string(submission.StateFailed)] != 1 {
		t.Errorf("stats = %v", stats)
	}
}
