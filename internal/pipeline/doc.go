// Package pipeline drives a run from seed URLs to finished reports.
//
// A run has two halves. The Runner crawls every seed concurrently and feeds
// each CrawlResult through the Processor, which keeps only the discoveries
// that are new to the run and adds fuzz candidates. The finished RunReport
// then goes through a Pipeline of post-run Steps: saving history, writing
// report files and printing the console summary.
//
// Design decision: We use a pipeline pattern for the post-run half instead
// of direct function calls because:
// 1. Optional outputs (history, file formats) are added or left out by the CLI
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context between steps
//
// Concurrency control for the crawl half uses errgroup.
package pipeline
