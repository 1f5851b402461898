package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seaung/urlfinder/internal/model"
)

// Crawler turns a seed URL into a CrawlResult. *crawler.Crawler satisfies it.
type Crawler interface {
	Crawl(ctx context.Context, rawURL string) (*model.CrawlResult, error)
	MatchesStatus(status uint16) bool
}

// admissionCounter is implemented by crawlers that count the fetches they
// let past their gates. The count is copied into the report.
type admissionCounter interface {
	Admitted() int64
}

// ResultFunc is called once per completed seed with the result and the new
// discoveries the Processor returned for it. It is called from the seed's
// goroutine and must be safe for concurrent use.
type ResultFunc func(result *model.CrawlResult, discovered []string)

// Runner crawls every seed of a run concurrently and aggregates the results
// into a RunReport.
//
// Design decision: We use a separate Runner rather than putting the seed loop
// into the Processor. The Processor stays a pure classification step over one
// result, while the Runner owns scheduling, error isolation and aggregation.
type Runner struct {
	crawler   Crawler
	processor *Processor

	// mode and fuzzMode are the validated run parameters.
	mode     model.Mode
	fuzzMode model.FuzzMode

	// concurrency is the maximum number of seed tasks in flight.
	concurrency int

	// onResult streams per-seed progress to the console.
	onResult ResultFunc

	logger *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets a custom logger for the runner.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent seed tasks.
// Default is 50 if not specified.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithModes sets the extraction and fuzz modes for the run.
func WithModes(mode model.Mode, fuzzMode model.FuzzMode) RunnerOption {
	return func(r *Runner) {
		r.mode = mode
		r.fuzzMode = fuzzMode
	}
}

// WithResultFunc registers a per-seed callback.
func WithResultFunc(fn ResultFunc) RunnerOption {
	return func(r *Runner) {
		r.onResult = fn
	}
}

// NewRunner creates a Runner.
func NewRunner(c Crawler, p *Processor, opts ...RunnerOption) *Runner {
	r := &Runner{
		crawler:     c,
		processor:   p,
		mode:        model.ModeNormal,
		concurrency: 50,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// Run crawls all seeds and returns the aggregated report.
//
// Per seed, in order: crawl, classify through the Processor, record. A fetch
// failure is recorded in the report and the run continues. Seeds rejected by
// a gate are counted but not classified. Responses that do not pass the
// status filter are classified (so fuzzing still sees them) but left out of
// the report's results.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each seed gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// The report is returned even when ctx is cancelled; it then holds whatever
// completed before cancellation and the error is ctx.Err().
func (r *Runner) Run(ctx context.Context, seeds []string) (*model.RunReport, error) {
	report := model.NewRunReport(r.mode, r.fuzzMode, seeds)

	r.logger.Info("starting run",
		"seeds", len(seeds),
		"concurrency", r.concurrency,
		"mode", r.mode,
		"fuzz", r.fuzzMode,
	)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, seed := range seeds {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			result, err := r.crawler.Crawl(gctx, seed)
			if err != nil {
				r.logger.Warn("fetch failed", "url", seed, "error", err)
				mu.Lock()
				report.Errors = append(report.Errors, model.SeedError{URL: seed, Message: err.Error()})
				mu.Unlock()
				// Don't return error to errgroup - we want to continue other seeds
				return nil
			}
			result.Seed = seed

			if result.Skipped() {
				r.logger.Debug("seed skipped", "url", seed, "reason", result.SkipReason)
				mu.Lock()
				report.Skipped++
				mu.Unlock()
				return nil
			}

			discovered := r.processor.Process(result, r.mode, r.fuzzMode)

			mu.Lock()
			if r.crawler.MatchesStatus(result.Status) {
				report.Results = append(report.Results, *result)
			}
			report.Candidates = append(report.Candidates, discovered...)
			mu.Unlock()

			if r.onResult != nil {
				r.onResult(result, discovered)
			}

			r.logger.Debug("seed completed",
				"url", seed,
				"status", result.Status,
				"new", len(discovered),
			)
			return nil
		})
	}

	err := g.Wait()
	report.FinishedAt = time.Now()
	report.Unique = r.processor.Counts()
	if a, ok := r.crawler.(admissionCounter); ok {
		report.Fetches = a.Admitted()
	}
	report.SortResults()

	r.logger.Info("run complete",
		"seeds", len(seeds),
		"fetches", report.Fetches,
		"results", len(report.Results),
		"candidates", len(report.Candidates),
		"elapsed", report.Duration(),
	)

	if err != nil {
		return report, err
	}
	return report, ctx.Err()
}
