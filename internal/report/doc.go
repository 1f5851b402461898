// Package report provides report generation and output functionality.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - CSVWriter: One row per result, lists joined with ", "
//   - HTMLWriter: A self-contained HTML table
//   - MarkdownWriter: Markdown with tables, alerts and a mermaid chart
//   - XLSXWriter: An Excel workbook with one row per discovery
//
// Design decision: We separate report writing from report data structures
// (which are in the model package) to follow the single responsibility
// principle. This allows adding new output formats without modifying
// the core data structures.
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output. WriteFiles writes
// a set of formats into an output directory as result.<ext>.
package report
