// Package model defines the core data structures used throughout URLFinder.
//
// This package contains the following main types:
//   - Mode / FuzzMode: closed enums selecting extraction depth and fuzz variants
//   - FetchResult: The raw outcome of one HTTP GET
//   - CrawlResult: A FetchResult plus everything extracted from its body
//   - RunReport: The aggregated result of one run over all seeds
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The crawler, pipeline, report and database packages all need
// these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
