// Package client implements the FHIR writer (C6 in spec.md §4.5): it
// submits projected Observation resources to the external FHIR store
// over HTTP, with retry and circuit-breaking. Handing exhausted writes to
// the dead-letter queue is left to the caller (ingest.Supervisor).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/codeninja55/vitalgate/fhir/r5/resources"
	"github.com/sony/gobreaker"
)

// Config holds the FHIR HTTP client's connection settings.
type Config struct {
	BaseURL           string
	BearerToken       string
	SingleCallTimeout time.Duration // default 10s
	BatchTimeout      time.Duration // default 30s
	MaxAttempts       int           // default 6

	// AssumeStoreDedup resolves spec.md §9 Q1: when true, the client
	// trusts the store to dedupe on Idempotency-Key and skips the
	// pre-search. When false, WriteObservation runs a GET by
	// identifier first and treats a hit as already-written.
	AssumeStoreDedup bool
}

func (c *Config) setDefaults() {
	if c.SingleCallTimeout == 0 {
		c.SingleCallTimeout = 10 * time.Second
	}
	if c.BatchTimeout == 0 {
		c.BatchTimeout = 30 * time.Second
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 6
	}
}

// BatchResult mirrors the external FHIR store's POST /Observation/batch
// response shape (spec.md §6.3).
type BatchResult struct {
	Successful int          `json:"successful"`
	Failed     int          `json:"failed"`
	Results    []BatchEntry `json:"results"`
}

// BatchEntry is one per-item outcome in a BatchResult.
type BatchEntry struct {
	Index   int    `json:"index"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Client is the C6 FHIR writer. It is safe for concurrent use; the
// underlying *http.Client keeps a shared, per-host connection pool
// (spec.md §5 "FHIR HTTP client: shared, per-host connection pool").
type Client struct {
	cfg  Config
	http *http.Client
	cb   *gobreaker.CircuitBreaker
}

// New builds a Client. httpClient may be nil, in which case a client
// with the configured timeouts is constructed.
func New(cfg Config, httpClient *http.Client) *Client {
	cfg.setDefaults()
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "fhir.writer",
		MaxRequests: 4,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
	return &Client{cfg: cfg, http: httpClient, cb: cb}
}

// backoffPolicy builds the exponential backoff described in spec.md §4.5:
// base 500ms, factor 2, cap 30s, 6 attempts.
func (c *Client) backoffPolicy(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.Multiplier = 2
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.cfg.MaxAttempts-1)), ctx)
}

// WriteObservation POSTs a single Observation, retrying transport
// failures per the configured backoff policy. idempotencyKey is
// {ingest_id}:{kind}:{index-in-batch} per spec.md §4.5.
func (c *Client) WriteObservation(ctx context.Context, obs resources.Observation, idempotencyKey string) error {
	if !c.cfg.AssumeStoreDedup {
		exists, err := c.existsByIdentifier(ctx, idempotencyKey)
		if err != nil {
			return fmt.Errorf("fhir client: pre-search %s: %w", idempotencyKey, err)
		}
		if exists {
			return nil
		}
	}

	body, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("fhir client: marshal observation: %w", err)
	}

	op := func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.SingleCallTimeout)
		defer cancel()
		_, err := c.cb.Execute(func() (any, error) {
			return nil, c.post(callCtx, "/Observation", body, idempotencyKey)
		})
		return err
	}

	if err := backoff.Retry(op, c.backoffPolicy(ctx)); err != nil {
		return fmt.Errorf("fhir client: write observation %s: %w", idempotencyKey, err)
	}
	return nil
}

// WriteBatch POSTs a slice of Observations in one call and returns the
// per-item result so the caller can see which indices the store reports
// as failed. A partial failure is retried as a whole batch within the
// backoff budget; if the budget runs out, the last attempt's per-item
// result is returned together with the error (empty when that attempt
// got no decodable response).
func (c *Client) WriteBatch(ctx context.Context, obs []resources.Observation, ingestID string) (BatchResult, error) {
	body, err := json.Marshal(obs)
	if err != nil {
		return BatchResult{}, fmt.Errorf("fhir client: marshal batch: %w", err)
	}

	var result BatchResult
	op := func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.BatchTimeout)
		defer cancel()
		result = BatchResult{}
		res, err := c.cb.Execute(func() (any, error) {
			return c.postBatch(callCtx, body, ingestID)
		})
		if br, ok := res.(BatchResult); ok {
			result = br
		}
		return err
	}

	if err := backoff.Retry(op, c.backoffPolicy(ctx)); err != nil {
		return result, fmt.Errorf("fhir client: write batch %s: %w", ingestID, err)
	}
	return result, nil
}

// existsByIdentifier implements the pre-search fallback for stores that
// do not dedupe on Idempotency-Key themselves (spec.md §9 Q1): a GET
// filtered by the same key we would otherwise rely on the store to
// deduplicate.
func (c *Client) existsByIdentifier(ctx context.Context, idempotencyKey string) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.SingleCallTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/Observation?identifier=%s", c.cfg.BaseURL, idempotencyKey)
	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	if c.cfg.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}
	var bundle struct {
		Total int `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		return false, nil
	}
	return bundle.Total > 0, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte, idempotencyKey string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/fhir+json")
	req.Header.Set("Idempotency-Key", idempotencyKey)
	if c.cfg.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) postBatch(ctx context.Context, body []byte, ingestID string) (BatchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/Observation/batch", bytes.NewReader(body))
	if err != nil {
		return BatchResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/fhir+json")
	req.Header.Set("Idempotency-Key", ingestID)
	if c.cfg.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return BatchResult{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return BatchResult{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var result BatchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return BatchResult{}, fmt.Errorf("decode batch response: %w", err)
	}
	if result.Failed > 0 {
		return result, fmt.Errorf("batch partial failure: %d of %d failed", result.Failed, result.Successful+result.Failed)
	}
	return result, nil
}
