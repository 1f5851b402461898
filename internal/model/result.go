package model

import "time"

// SkipReason explains why a crawl produced no fetch.
type SkipReason string

const (
	// SkipNone means the URL was fetched.
	SkipNone SkipReason = ""

	// SkipDomainMismatch means the URL host did not match the domain filter.
	SkipDomainMismatch SkipReason = "domain_mismatch"

	// SkipMaxCount means the run had already admitted its maximum number of fetches.
	SkipMaxCount SkipReason = "max_count"
)

// FetchResult is the raw outcome of one HTTP GET.
//
// A Status of 0 is never a real HTTP status. It marks a fetch that was
// skipped by a gate (domain filter or max count) before any network call.
type FetchResult struct {
	// URL is the URL that was requested.
	URL string `json:"url"`

	// Status is the HTTP response status code, or 0 when the fetch was skipped.
	Status uint16 `json:"status"`

	// ContentType is the Content-Type response header, or empty.
	ContentType string `json:"content_type"`

	// Body is the decoded response body. It is not serialized.
	Body string `json:"-"`

	// Title is the HTML <title> of the page, when the body is HTML.
	Title string `json:"title,omitempty"`

	// Fingerprint is a hex SHA3-256 digest of the body.
	// It allows the history store to notice content changes between runs.
	Fingerprint string `json:"fingerprint,omitempty"`

	// FetchedAt is when the response was received.
	FetchedAt time.Time `json:"fetched_at"`

	// Elapsed is the round trip time of the request.
	Elapsed time.Duration `json:"elapsed_ns,omitempty"`
}

// Skipped reports whether the fetch was skipped by a gate.
func (f *FetchResult) Skipped() bool {
	return f.Status == 0
}

// CrawlResult is a FetchResult plus everything extracted from its body.
//
// URLs, JSURLs and SensitiveInfo are in extraction order and may contain
// duplicates. De-duplication across the run happens later, in the pipeline.
type CrawlResult struct {
	FetchResult

	// URLs are the normalized page URLs found in the body.
	URLs []string `json:"urls"`

	// JSURLs are the normalized JavaScript asset URLs found in the body.
	// Empty unless the mode is ModeDeep or higher.
	JSURLs []string `json:"js_urls"`

	// SensitiveInfo are raw sensitive-looking strings found in the body.
	// Empty unless the mode is ModeDeepSafe.
	SensitiveInfo []string `json:"sensitive_info"`

	// SkipReason is set when Status is 0.
	SkipReason SkipReason `json:"skip_reason,omitempty"`

	// Seed is the seed URL this result was crawled for.
	Seed string `json:"seed,omitempty"`
}

// NewSkippedResult returns the GateSkip result for url.
func NewSkippedResult(url string, reason SkipReason) *CrawlResult {
	return &CrawlResult{
		FetchResult: FetchResult{URL: url},
		SkipReason:  reason,
	}
}

// HasFindings reports whether any sensitive strings were extracted.
func (c *CrawlResult) HasFindings() bool {
	return len(c.SensitiveInfo) > 0
}
