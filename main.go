package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"trendsync/config"
	"trendsync/database"
	"trendsync/product"
	"trendsync/submission"
	"trendsync/taxonomy"
	"trendsync/trendyol"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := run(); err != nil {
		log.Fatalf("Fatal: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := database.Open(cfg.DatabasePath, database.Config{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	client := trendyol.NewClient(trendyol.Options{
		BaseURL:        cfg.APIBaseURL,
		APIKey:         cfg.APIKey,
		APISecret:      cfg.APISecret,
		SellerID:       cfg.SellerID,
		DefaultBrandID: cfg.DefaultBrandID,
		Timeout:        cfg.RequestTimeout,
	})

	cache := taxonomy.NewCache(client, cfg.AttributeTTL)
	resolver := taxonomy.NewResolver(cache, nil)
	poller := trendyol.NewStatusPoller(client)
	engine := submission.NewEngine(cache, resolver, client, poller, client, submission.Options{
		MaxAttempts:  cfg.MaxAttempts,
		PollInterval: cfg.PollInterval,
		MaxPolls:     cfg.MaxPolls,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Fail fast on a dead or empty taxonomy before touching the feed.
	if err := cache.Refresh(ctx, false); err != nil {
		return fmt.Errorf("taxonomy cold start: %w", err)
	}
	if snap := cache.Snapshot(); snap != nil {
		if err := store.RecordSnapshot(snap.Len(), len(snap.Leaves()), time.Now()); err != nil {
			log.Printf("Failed to record taxonomy snapshot: %v", err)
		}
	}

	jobs, err := loadFeed(cfg.FeedPath)
	if err != nil {
		return err
	}
	jobs = skipCompleted(store, jobs)
	if len(jobs) == 0 {
		log.Println("Nothing to submit")
		return nil
	}
	log.Printf("Submitting %d product(s) with %d worker(s)", len(jobs), cfg.MaxWorkers)

	pool := submission.NewPool(engine, cfg.MaxWorkers)
	records, runErr := pool.Run(ctx, jobs)

	succeeded, failed, exhausted := 0, 0, 0
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if err := store.SaveRecord(rec); err != nil {
			log.Printf("Failed to persist record for %s: %v", rec.ProductKey, err)
		}
		switch rec.State {
		case submission.StateSucceeded:
			succeeded++
		case submission.StateFailed:
			failed++
			log.Printf("Failed %s: %s", rec.ProductKey, rec.TerminalReason)
		case submission.StateRetryExhausted:
			exhausted++
			log.Printf("Exhausted %s after %d attempts, missing: %v", rec.ProductKey, rec.AttemptCount, rec.LastMissing)
		}
	}
	log.Printf("Done: %d succeeded, %d failed, %d exhausted", succeeded, failed, exhausted)

	return runErr
}

// feedItem mirrors product.Descriptor with the JSON names the scraper emits.
type feedItem struct {
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	SourceCategory string          `json:"category"`
	Brand          string          `json:"brand"`
	Barcode        string          `json:"barcode"`
	ProductMainID  string          `json:"product_main_id"`
	StockCode      string          `json:"stock_code"`
	Color          string          `json:"color"`
	Price          decimal.Decimal `json:"price"`
	ListPrice      decimal.Decimal `json:"list_price"`
	Currency       string          `json:"currency"`
	VatRate        int             `json:"vat_rate"`
	Quantity       int             `json:"quantity"`
	ImageURLs      []string        `json:"images"`
	Variants       []struct {
		Size     string `json:"size"`
		Barcode  string `json:"barcode"`
		Quantity int    `json:"quantity"`
	} `json:"variants"`
}

func loadFeed(path string) ([]submission.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feed %s: %w", path, err)
	}

	var items []feedItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode feed %s: %w", path, err)
	}

	jobs := make([]submission.Job, 0, len(items))
	for _, item := range items {
		d := product.Descriptor{
			Title:          item.Title,
			Description:    item.Description,
			SourceCategory: item.SourceCategory,
			Brand:          item.Brand,
			Barcode:        item.Barcode,
			ProductMainID:  item.ProductMainID,
			StockCode:      item.StockCode,
			Color:          item.Color,
			Price:          item.Price,
			ListPrice:      item.ListPrice,
			Currency:       item.Currency,
			VatRate:        item.VatRate,
			Quantity:       item.Quantity,
			ImageURLs:      item.ImageURLs,
		}
		for _, v := range item.Variants {
			d.Variants = append(d.Variants, product.Variant(v))
		}
		key := d.MainID()
		if key == "" {
			log.Printf("Skipping feed item %q: no barcode or product main id", item.Title)
			continue
		}
		jobs = append(jobs, submission.Job{Key: key, Descriptor: d})
	}
	return jobs, nil
}

// skipCompleted drops jobs whose product key already reached Succeeded in a
// previous run.
func skipCompleted(store *database.Store, jobs []submission.Job) []submission.Job {
	kept := jobs[:0]
	for _, job := range jobs {
		rec, err := store.RecordByKey(job.Key)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				log.Printf("Record lookup for %s failed: %v", job.Key, err)
			}
			kept = append(kept, job)
			continue
		}
		if rec.State == submission.StateSucceeded {
			log.Printf("Skipping %s: already submitted", job.Key)
			continue
		}
		kept = append(kept, job)
	}
	return kept
}
