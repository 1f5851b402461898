// Package crawler turns a single URL into a classified CrawlResult.
//
// # Architecture
//
// The Crawler type sits between the fetcher and the pipeline:
//
//	URL -> gates -> Fetcher -> Ruleset.Extract -> filter -> normalize -> CrawlResult
//
// The gates run first and never touch the network:
//   - Domain gate: the URL host must match the --domain regex
//   - Max gate: at most --max fetches are admitted per run
//
// A rejected URL yields a result with Status 0 and a SkipReason instead of an
// error, so callers treat it as "nothing to classify".
//
// Design decision: The Crawler does not recurse into discovered URLs and does
// not consult the dedup state. Novelty is decided by the pipeline, which sees
// every result of the run. Keeping the Crawler stateless (apart from the
// admitted counter) lets one instance serve all concurrent seed tasks.
//
// # Usage
//
//	c := crawler.New(f, ruleset, crawler.WithMode(model.ModeDeep))
//	result, err := c.Crawl(ctx, "https://example.com/")
package crawler
