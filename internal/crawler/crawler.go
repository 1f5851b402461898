package crawler

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/seaung/urlfinder/internal/model"
	"github.com/seaung/urlfinder/internal/rules"
	"github.com/seaung/urlfinder/internal/urlutil"
)

// Fetcher performs a single GET. *fetcher.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*model.FetchResult, error)
}

// Crawler turns one URL into one CrawlResult.
//
// It applies the run gates (domain filter, max count), fetches the URL,
// extracts discoveries according to the mode, filters them and resolves them
// to absolute URLs. It does not decide novelty; that belongs to the
// pipeline, which owns the run's dedup state.
//
// A Crawler is safe for concurrent use. Its only mutable state is the
// admitted fetch counter.
type Crawler struct {
	// fetcher performs the network call.
	fetcher Fetcher

	// rules is the compiled, read-only ruleset.
	rules *rules.Ruleset

	// mode selects which pattern groups are applied.
	mode model.Mode

	// domain restricts fetches to matching hosts. nil admits every host.
	domain *urlutil.DomainMatcher

	// statusFilter lists the statuses whose bodies are extracted.
	// Empty means every status.
	statusFilter []uint16

	// baseURL, when set, replaces the fetched URL as the resolution base
	// for every extracted item.
	baseURL string

	// maxCount caps the number of admitted fetches. 0 means unlimited.
	maxCount int64

	// admitted counts fetches that passed the gates.
	admitted atomic.Int64

	logger *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithMode sets the extraction mode. The default is model.ModeNormal.
func WithMode(mode model.Mode) Option {
	return func(c *Crawler) {
		if mode.Valid() {
			c.mode = mode
		}
	}
}

// WithDomainMatcher restricts fetches to hosts matching m.
func WithDomainMatcher(m *urlutil.DomainMatcher) Option {
	return func(c *Crawler) {
		c.domain = m
	}
}

// WithStatusFilter restricts extraction to responses whose status is in codes.
func WithStatusFilter(codes []uint16) Option {
	return func(c *Crawler) {
		c.statusFilter = codes
	}
}

// WithBaseURL sets the override resolution base.
func WithBaseURL(base string) Option {
	return func(c *Crawler) {
		c.baseURL = base
	}
}

// WithMaxCount caps the number of fetches the crawler admits.
func WithMaxCount(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.maxCount = int64(n)
		}
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// New creates a Crawler.
//
// Design decision: The fetcher and ruleset are required arguments while
// everything else is an option. They are the only collaborators without a
// sensible zero value, and tests substitute the fetcher to avoid the network.
func New(f Fetcher, rs *rules.Ruleset, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher: f,
		rules:   rs,
		mode:    model.ModeNormal,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Crawl fetches rawURL and returns its classified discoveries.
//
// A gate rejection is not an error: Crawl returns a result with Status 0 and
// a SkipReason. A failed fetch is returned as the fetcher's error and the
// result is nil. A response whose status does not pass the status filter is
// returned with empty discovery lists.
func (c *Crawler) Crawl(ctx context.Context, rawURL string) (*model.CrawlResult, error) {
	if !c.domain.Match(rawURL) {
		c.logger.Debug("skipped", "url", rawURL, "reason", model.SkipDomainMismatch)
		return model.NewSkippedResult(rawURL, model.SkipDomainMismatch), nil
	}
	if n := c.admitted.Add(1); c.maxCount > 0 && n > c.maxCount {
		// Rejections are not counted, so Admitted never exceeds maxCount.
		c.admitted.Add(-1)
		c.logger.Debug("skipped", "url", rawURL, "reason", model.SkipMaxCount)
		return model.NewSkippedResult(rawURL, model.SkipMaxCount), nil
	}

	fr, err := c.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	// The lists are never nil so reports show [] rather than null.
	result := &model.CrawlResult{
		FetchResult:   *fr,
		URLs:          []string{},
		JSURLs:        []string{},
		SensitiveInfo: []string{},
	}
	if !c.MatchesStatus(fr.Status) {
		return result, nil
	}

	ex := c.rules.Extract(fr.Body, c.mode)
	result.URLs = c.resolve(ex.URLs, fr.URL, c.rules.FilterURL)
	result.JSURLs = c.resolve(ex.JSURLs, fr.URL, c.rules.FilterJS)
	result.SensitiveInfo = append(result.SensitiveInfo, ex.SensitiveInfo...)

	return result, nil
}

// MatchesStatus reports whether status passes the status filter.
func (c *Crawler) MatchesStatus(status uint16) bool {
	return urlutil.IsStatusMatch(status, c.statusFilter)
}

// Admitted returns the number of fetches admitted so far.
func (c *Crawler) Admitted() int64 {
	return c.admitted.Load()
}

// resolve drops filtered items and normalizes the rest against base.
// Items that cannot be resolved are dropped without failing the crawl.
func (c *Crawler) resolve(raw []string, base string, filtered func(string) bool) []string {
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if filtered(item) {
			continue
		}
		abs, err := urlutil.NormalizeWithOverride(item, base, c.baseURL)
		if err != nil {
			c.logger.Debug("dropped unresolvable item", "item", item, "error", err)
			continue
		}
		out = append(out, abs)
	}
	return out
}
