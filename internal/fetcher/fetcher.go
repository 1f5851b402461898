// Package fetcher performs the single HTTP GET behind every crawl.
//
// A Fetcher is shared by all concurrent crawls of a run. It holds no mutable
// state besides the slot semaphore and the optional per-host rate limiter, so
// it needs no additional locking.
package fetcher

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/seaung/urlfinder/internal/model"
)

// DefaultMaxBodySize is used when no body size option is given.
const DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

// Fetcher performs bounded-concurrency GET requests.
//
// Design decision: The slot gate is a weighted semaphore rather than a
// fixed worker pool. Callers spawn one task per URL and the semaphore caps
// how many of them are inside a network call at once, so a slow host only
// holds one slot and never blocks the scheduling of unrelated URLs.
type Fetcher struct {
	client      *http.Client
	slots       *semaphore.Weighted
	limiter     *HostLimiter
	maxBodySize int64
	logger      *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithMaxBodySize sets the maximum decoded body size. Longer bodies are truncated.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithHostLimiter enables per-host rate limiting.
func WithHostLimiter(l *HostLimiter) Option {
	return func(f *Fetcher) {
		f.limiter = l
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher with threads concurrent slots.
// The client carries the route, timeout and default headers; see the
// transport package.
func New(client *http.Client, threads int, opts ...Option) *Fetcher {
	if threads < 1 {
		threads = 1
	}
	f := &Fetcher{
		client:      client,
		slots:       semaphore.NewWeighted(int64(threads)),
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch issues one GET for rawURL and returns the decoded response.
//
// A slot is acquired before the network call and released on every exit
// path. Any failure, including a timeout or a cancelled ctx, is returned as
// a *FetchError. Non-2xx statuses are not errors.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*model.FetchResult, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	if err := f.limiter.Wait(ctx, u.Hostname()); err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	if err := f.slots.Acquire(ctx, 1); err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer f.slots.Release(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	body, err := decodeBody(resp.Body, resp.Header.Get("Content-Encoding"), contentType, f.maxBodySize)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	result := &model.FetchResult{
		URL:         rawURL,
		Status:      uint16(resp.StatusCode), //nolint:gosec // HTTP status codes fit in uint16
		ContentType: contentType,
		Body:        string(body),
		Fingerprint: fingerprint(body),
		FetchedAt:   time.Now(),
		Elapsed:     time.Since(start),
	}
	if isHTML(contentType) {
		result.Title = extractTitle(body)
	}

	f.logger.Debug("fetched",
		"url", rawURL,
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", result.Elapsed)

	return result, nil
}
