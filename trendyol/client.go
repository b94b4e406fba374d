package trendyol

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"time"

	"trendsync/taxonomy"
)

// ErrTransport wraps a request that failed on every retry attempt. Callers
// treat it as a transient infrastructure failure, distinct from a remote
// validation rejection.
var ErrTransport = errors.New("trendyol: transport failure")

// StatusError is a non-retryable remote rejection (4xx).
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("trendyol: status %d: %s", e.Code, e.Body)
}

// RetryConfig controls transport-level retries for transient failures. This
// layer is independent of the attribute-driven resubmission loop above it.
type RetryConfig struct {
	MaxRetries        int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig retries transient failures a few times with capped
// exponential backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialDelay:      500 * time.Millisecond,
		MaxDelay:          10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Options configures a supplier API client.
type Options struct {
	BaseURL        string
	APIKey         string
	APISecret      string
	SellerID       string
	DefaultBrandID int
	Timeout        time.Duration
	Retry          RetryConfig
}

// Client talks to the marketplace supplier API. It implements
// taxonomy.Fetcher for the category tree and attribute schemas, and carries
// the submit/poll operations of the batch product endpoint.
type Client struct {
	opts       Options
	httpClient *http.Client
	authHeader string
	userAgent  string
}

// NewClient builds a client from options, filling defaults for anything
// unset.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.trendyol.com/sapigw"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retry.MaxRetries == 0 && opts.Retry.InitialDelay == 0 {
		opts.Retry = DefaultRetryConfig()
	}

	credentials := base64.StdEncoding.EncodeToString([]byte(opts.APIKey + ":" + opts.APISecret))
	return &Client{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		authHeader: "Basic " + credentials,
		// The supplier API requires this exact agent format.
		userAgent: fmt.Sprintf("%s - SelfIntegration", opts.SellerID),
	}
}

// do runs one request with transport-level retries. 5xx and network errors
// retry with capped exponential backoff, 429 retries too, any other 4xx
// returns a StatusError immediately.
func (c *Client) do(ctx context.Context, method, requestURL string, body []byte) ([]byte, error) {
	var lastErr error
	delay := c.opts.Retry.InitialDelay

	for attempt := 0; attempt <= c.opts.Retry.MaxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("Retry %d/%d for %s %s after %v", attempt, c.opts.Retry.MaxRetries, method, requestURL, delay)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.opts.Retry.BackoffMultiplier)
			if delay > c.opts.Retry.MaxDelay {
				delay = c.opts.Retry.MaxDelay
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", c.authHeader)
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			log.Printf("%s %s failed: %v", method, requestURL, lastErr)
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("failed to read response: %w", readErr)
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return respBody, nil
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("server error %d: %s", resp.StatusCode, truncate(respBody, 200))
			log.Printf("%s %s: %v, will retry", method, requestURL, lastErr)
			continue
		default:
			return nil, &StatusError{Code: resp.StatusCode, Body: string(respBody)}
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrTransport, lastErr)
}

// FetchCategoryTree downloads the full category tree.
func (c *Client) FetchCategoryTree(ctx context.Context) ([]*taxonomy.CategoryNode, error) {
	body, err := c.do(ctx, http.MethodGet, c.opts.BaseURL+"/product-categories", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch category tree: %w", err)
	}

	var parsed categoryTreeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode category tree: %w", err)
	}

	roots := make([]*taxonomy.CategoryNode, 0, len(parsed.Categories))
	for _, wc := range parsed.Categories {
		roots = append(roots, convertCategory(wc))
	}
	return roots, nil
}

func convertCategory(wc wireCategory) *taxonomy.CategoryNode {
	node := &taxonomy.CategoryNode{ID: wc.ID, Name: wc.Name, ParentID: wc.ParentID}
	for _, sub := range wc.SubCategories {
		node.Children = append(node.Children, convertCategory(sub))
	}
	return node
}

// FetchCategoryAttributes downloads the attribute schema of one category.
func (c *Client) FetchCategoryAttributes(ctx context.Context, categoryID int) ([]taxonomy.AttributeSchema, error) {
	requestURL := fmt.Sprintf("%s/product-categories/%d/attributes", c.opts.BaseURL, categoryID)
	body, err := c.do(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch attributes for category %d: %w", categoryID, err)
	}

	var parsed categoryAttributesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode attributes for category %d: %w", categoryID, err)
	}

	schemas := make([]taxonomy.AttributeSchema, 0, len(parsed.CategoryAttributes))
	for _, wa := range parsed.CategoryAttributes {
		schema := taxonomy.AttributeSchema{
			AttributeID:  wa.Attribute.ID,
			Name:         wa.Attribute.Name,
			Required:     wa.Required,
			AllowsCustom: wa.AllowCustom,
			Varianter:    wa.Varianter,
		}
		for _, v := range wa.AttributeValues {
			schema.Values = append(schema.Values, taxonomy.AttributeValue{ID: v.ID, Name: v.Name})
		}
		schemas = append(schemas, schema)
	}
	// Required attributes first; the assembler caps how many entries it
	// looks at, so order matters.
	sort.SliceStable(schemas, func(i, j int) bool {
		return schemas[i].Required && !schemas[j].Required
	})
	return schemas, nil
}

// BrandIDByName resolves a brand name to its marketplace id, falling back to
// the configured default brand when lookup fails or finds nothing.
func (c *Client) BrandIDByName(ctx context.Context, name string) int {
	if name == "" {
		return c.opts.DefaultBrandID
	}
	requestURL := c.opts.BaseURL + "/brands/by-name?name=" + url.QueryEscape(name)
	body, err := c.do(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		log.Printf("Brand lookup for %q failed, using default brand %d: %v", name, c.opts.DefaultBrandID, err)
		return c.opts.DefaultBrandID
	}

	var brands brandsResponse
	if err := json.Unmarshal(body, &brands); err != nil || len(brands) == 0 {
		log.Printf("No brand match for %q, using default brand %d", name, c.opts.DefaultBrandID)
		return c.opts.DefaultBrandID
	}
	return brands[0].ID
}

// SubmitProducts posts one batch of items and returns the batch id the
// remote assigned for asynchronous processing.
func (c *Client) SubmitProducts(ctx context.Context, items []Item) (string, error) {
	if len(items) == 0 {
		return "", errors.New("trendyol: empty item list")
	}
	payload, err := json.Marshal(submitRequest{Items: items})
	if err != nil {
		return "", fmt.Errorf("encode submit payload: %w", err)
	}

	requestURL := fmt.Sprintf("%s/suppliers/%s/v2/products", c.opts.BaseURL, c.opts.SellerID)
	body, err := c.do(ctx, http.MethodPost, requestURL, payload)
	if err != nil {
		return "", fmt.Errorf("submit products: %w", err)
	}

	var parsed submitResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	if parsed.BatchRequestID == "" {
		return "", fmt.Errorf("submit products: response carries no batch id: %s", truncate(body, 200))
	}
	log.Printf("Submitted %d item(s), batch %s", len(items), parsed.BatchRequestID)
	return parsed.BatchRequestID, nil
}

// GetBatchStatus fetches the raw processing status body of one batch. The
// poller normalizes the shape.
func (c *Client) GetBatchStatus(ctx context.Context, batchID string) ([]byte, error) {
	requestURL := fmt.Sprintf("%s/suppliers/%s/products/batch-requests/%s", c.opts.BaseURL, c.opts.SellerID, url.PathEscape(batchID))
	body, err := c.do(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("batch status %s: %w", batchID, err)
	}
	return body, nil
}

func truncate(body []byte, limit int) string {
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
