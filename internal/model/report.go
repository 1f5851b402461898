package model

import (
	"slices"
	"time"
)

// RunReport is the aggregated result of one run over all seeds.
// It is what report writers render and what the history store persists.
//
// Design decision: We use a single struct rather than streaming results
// straight to writers because several formats (HTML, XLSX, Markdown) need
// the whole result set to lay out tables and summaries.
type RunReport struct {
	// ID is the history row ID. Zero until the report is saved.
	ID int64 `json:"id,omitempty"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the last seed completed.
	FinishedAt time.Time `json:"finished_at"`

	// Mode is the extraction mode used for the run.
	Mode Mode `json:"mode"`

	// FuzzMode is the fuzz mode used for the run.
	FuzzMode FuzzMode `json:"fuzz_mode"`

	// Seeds are the input URLs in the order they were given.
	Seeds []string `json:"seeds"`

	// Results holds one entry per fetched seed that passed the status filter.
	Results []CrawlResult `json:"results"`

	// Candidates are URLs first discovered in this run: new page URLs,
	// new JavaScript URLs and new fuzz candidates, in discovery order.
	Candidates []string `json:"candidates"`

	// Errors records seeds whose fetch failed.
	Errors []SeedError `json:"errors,omitempty"`

	// Skipped counts seeds that were skipped by the domain or max count gate.
	Skipped int `json:"skipped"`

	// Fetches counts requests admitted past the domain and max count gates.
	Fetches int64 `json:"fetches"`

	// Unique holds the size of each dedup set when the run finished.
	// Entries preloaded from a previous run are included.
	Unique UniqueCounts `json:"unique"`
}

// UniqueCounts are the sizes of the run's dedup sets.
type UniqueCounts struct {
	URLs           int `json:"urls"`
	JSURLs         int `json:"js_urls"`
	FuzzCandidates int `json:"fuzz_candidates"`
}

// SeedError records a failed fetch. The run continues past it.
type SeedError struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

// NewRunReport creates an empty report for the given parameters.
func NewRunReport(mode Mode, fuzzMode FuzzMode, seeds []string) *RunReport {
	return &RunReport{
		StartedAt:  time.Now(),
		Mode:       mode,
		FuzzMode:   fuzzMode,
		Seeds:      slices.Clone(seeds),
		Results:    make([]CrawlResult, 0, len(seeds)),
		Candidates: make([]string, 0),
	}
}

// Duration returns how long the run took.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Stats summarizes a report for console output and history listings.
type Stats struct {
	Seeds         int
	Fetched       int
	Failed        int
	Skipped       int
	URLs          int
	JSURLs        int
	SensitiveInfo int
	Candidates    int
	Fetches       int64
	Unique        UniqueCounts
}

// Stats computes summary counts over the report.
func (r *RunReport) Stats() Stats {
	s := Stats{
		Seeds:      len(r.Seeds),
		Fetched:    len(r.Results),
		Failed:     len(r.Errors),
		Skipped:    r.Skipped,
		Candidates: len(r.Candidates),
		Fetches:    r.Fetches,
		Unique:     r.Unique,
	}
	for i := range r.Results {
		s.URLs += len(r.Results[i].URLs)
		s.JSURLs += len(r.Results[i].JSURLs)
		s.SensitiveInfo += len(r.Results[i].SensitiveInfo)
	}
	return s
}

// SortResults orders results by URL so reports are stable regardless of
// the order in which concurrent fetches completed.
func (r *RunReport) SortResults() {
	slices.SortStableFunc(r.Results, func(a, b CrawlResult) int {
		switch {
		case a.URL < b.URL:
			return -1
		case a.URL > b.URL:
			return 1
		default:
			return 0
		}
	})
}
