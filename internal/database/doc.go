// Package database provides SQLite-based storage for run history.
//
// This package implements the CrawlDB, which stores:
//   - One row per run with the full serialized report
//   - Fetch metadata (status, title, fingerprint) of every reported page
//   - The flattened discoveries of each run, for diffing runs
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Set difference between runs is a single EXCEPT query
package database
