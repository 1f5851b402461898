package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/seaung/urlfinder/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	// version is shown in the footer.
	version string
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, version string) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		version:    version,
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)
	stats := report.Stats()

	w.writeHeader(md, report)
	w.writeSummary(md, stats)
	w.writeResults(md, report)
	w.writeCandidates(md, report)
	w.writeErrors(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1("URLFinder Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().String()},
			{"Mode", label(report.Mode.String())},
			{"Fuzz", label(report.FuzzMode.String())},
			{"Seeds", strconv.Itoa(len(report.Seeds))},
		},
	})
	md.PlainText("")
}

// writeSummary writes the discovery counts, a chart and an alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, stats model.Stats) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Item", "Count"},
		Rows: [][]string{
			{"Reported", strconv.Itoa(stats.Fetched)},
			{"Failed", strconv.Itoa(stats.Failed)},
			{"Skipped", strconv.Itoa(stats.Skipped)},
			{"URLs", strconv.Itoa(stats.URLs)},
			{"JS URLs", strconv.Itoa(stats.JSURLs)},
			{"Sensitive", strconv.Itoa(stats.SensitiveInfo)},
			{"**New candidates**", "**" + strconv.Itoa(stats.Candidates) + "**"},
		},
	})
	md.PlainText("")

	if stats.URLs+stats.JSURLs+stats.SensitiveInfo > 0 {
		w.writePieChart(md, stats)
	}

	switch {
	case stats.SensitiveInfo > 0:
		md.Warningf("%d sensitive string(s) found. Review the Sensitive column before sharing this report.",
			stats.SensitiveInfo)
	case stats.Failed > 0:
		md.Importantf("%d seed(s) could not be fetched.", stats.Failed)
	case stats.Fetched == 0:
		md.Note("No results matched the filters.")
	default:
		md.Tip("Run completed without errors.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the discovery categories.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, stats model.Stats) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Discoveries"),
		piechart.WithShowData(true),
	)

	if stats.URLs > 0 {
		chart.LabelAndIntValue("URLs", uint64(stats.URLs))
	}
	if stats.JSURLs > 0 {
		chart.LabelAndIntValue("JS URLs", uint64(stats.JSURLs))
	}
	if stats.SensitiveInfo > 0 {
		chart.LabelAndIntValue("Sensitive", uint64(stats.SensitiveInfo))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeResults writes one table row per result, followed by the full lists
// in collapsible sections.
func (w *MarkdownWriter) writeResults(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Results")
	md.PlainText("")

	if len(report.Results) == 0 {
		md.PlainText("No results.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Results))
	for i := range report.Results {
		r := &report.Results[i]
		title := r.Title
		if title == "" {
			title = "-"
		}
		rows[i] = []string{
			"`" + r.URL + "`",
			strconv.Itoa(int(r.Status)),
			truncateString(title, 40),
			strconv.Itoa(len(r.URLs)),
			strconv.Itoa(len(r.JSURLs)),
			strconv.Itoa(len(r.SensitiveInfo)),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Title", "URLs", "JS URLs", "Sensitive"},
		Rows:   rows,
	})
	md.PlainText("")

	for i := range report.Results {
		r := &report.Results[i]
		if len(r.URLs)+len(r.JSURLs)+len(r.SensitiveInfo) == 0 {
			continue
		}
		md.H3(r.URL)
		md.PlainText("")
		if len(r.URLs) > 0 {
			md.Details("URLs", joinLines(r.URLs))
		}
		if len(r.JSURLs) > 0 {
			md.Details("JS URLs", joinLines(r.JSURLs))
		}
		if len(r.SensitiveInfo) > 0 {
			md.Details("Sensitive", joinLines(r.SensitiveInfo))
		}
		md.PlainText("")
	}
}

// writeCandidates writes the URLs first discovered in this run.
func (w *MarkdownWriter) writeCandidates(md *markdown.Markdown, report *model.RunReport) {
	if len(report.Candidates) == 0 {
		return
	}
	md.H2("New Candidates")
	md.PlainText("")
	md.BulletList(report.Candidates...)
	md.PlainText("")
}

// writeErrors writes the seeds that could not be fetched.
func (w *MarkdownWriter) writeErrors(md *markdown.Markdown, report *model.RunReport) {
	if len(report.Errors) == 0 {
		return
	}
	md.H2("Errors")
	md.PlainText("")

	rows := make([][]string, len(report.Errors))
	for i, e := range report.Errors {
		rows[i] = []string{"`" + e.URL + "`", truncateString(e.Message, 80)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by urlfinder %s*", w.version)
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func joinLines(items []string) string {
	return strings.Join(items, "\n")
}
