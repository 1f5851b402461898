package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/seaung/urlfinder/internal/model"
)

// defaultCandidateLimit is how many new candidates the console summary lists
// before eliding the rest. The file reports always contain all of them.
const defaultCandidateLimit = 20

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section formatting.
//
// Design decision: Color is opt-in through WithColor. Plain text works in all
// terminals and is easier to pipe to files or other tools, while the CLI
// enables color for interactive sessions.
type SimpleWriter struct {
	baseWriter

	// color enables ANSI highlighting of statuses and findings.
	color bool

	// verbose lists every candidate and every finding value.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithColor enables colored output.
func WithColor(enabled bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.color = enabled
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeResults(&sb, report)
	w.writeCandidates(&sb, report)
	w.writeErrors(&sb, report)
	w.writeFooter(&sb, report)

	return io.WriteString(w.output, sb.String())
}

// paint applies attrs to s when color is enabled.
func (w *SimpleWriter) paint(s string, attrs ...color.Attribute) string {
	if !w.color {
		return s
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(s)
}

// statusColor picks a color by status class.
func statusColor(status uint16) color.Attribute {
	switch {
	case status >= 500:
		return color.FgMagenta
	case status >= 400:
		return color.FgRed
	case status >= 300:
		return color.FgYellow
	default:
		return color.FgGreen
	}
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         URLFINDER REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	stats := report.Stats()
	fmt.Fprintf(sb, "Started:    %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:   %s\n", report.Duration())
	fmt.Fprintf(sb, "Mode:       %s\n", label(report.Mode.String()))
	fmt.Fprintf(sb, "Fuzz:       %s\n", label(report.FuzzMode.String()))
	fmt.Fprintf(sb, "Seeds:      %d (%d reported, %d failed, %d skipped)\n",
		stats.Seeds, stats.Fetched, stats.Failed, stats.Skipped)
	fmt.Fprintf(sb, "Found:      %d URLs, %d JS URLs, %s\n",
		stats.URLs, stats.JSURLs, w.sensitiveCount(stats.SensitiveInfo))
	fmt.Fprintf(sb, "Candidates: %d new\n", stats.Candidates)
	fmt.Fprintf(sb, "Unique:     %d URLs, %d JS URLs, %d fuzz candidates (%d fetches)\n",
		stats.Unique.URLs, stats.Unique.JSURLs, stats.Unique.FuzzCandidates, stats.Fetches)
	sb.WriteString("\n")
}

func (w *SimpleWriter) sensitiveCount(n int) string {
	s := fmt.Sprintf("%d sensitive", n)
	if n > 0 {
		return w.paint(s, color.FgRed, color.Bold)
	}
	return s
}

// writeResults writes one line per result and, for findings, the values.
func (w *SimpleWriter) writeResults(sb *strings.Builder, report *model.RunReport) {
	if len(report.Results) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RESULTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for i := range report.Results {
		r := &report.Results[i]
		status := w.paint(fmt.Sprintf("[%d]", r.Status), statusColor(r.Status))
		fmt.Fprintf(sb, "  %s %s", status, r.URL)
		if r.Title != "" {
			fmt.Fprintf(sb, " (%s)", truncateString(r.Title, 40))
		}
		fmt.Fprintf(sb, "\n      urls=%d js=%d sensitive=%d\n", len(r.URLs), len(r.JSURLs), len(r.SensitiveInfo))

		if w.verbose {
			for _, s := range r.SensitiveInfo {
				fmt.Fprintf(sb, "      %s %s\n", w.paint("!", color.FgRed, color.Bold), s)
			}
		}
	}
	sb.WriteString("\n")
}

// writeCandidates lists new candidates, eliding long lists unless verbose.
func (w *SimpleWriter) writeCandidates(sb *strings.Builder, report *model.RunReport) {
	if len(report.Candidates) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("NEW CANDIDATES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	shown := report.Candidates
	if !w.verbose && len(shown) > defaultCandidateLimit {
		shown = shown[:defaultCandidateLimit]
	}
	for _, c := range shown {
		fmt.Fprintf(sb, "  [+] %s\n", c)
	}
	if rest := len(report.Candidates) - len(shown); rest > 0 {
		fmt.Fprintf(sb, "  ... and %d more (see report files)\n", rest)
	}
	sb.WriteString("\n")
}

// writeErrors lists seeds that could not be fetched.
func (w *SimpleWriter) writeErrors(sb *strings.Builder, report *model.RunReport) {
	if len(report.Errors) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ERRORS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, e := range report.Errors {
		fmt.Fprintf(sb, "  [%s] %s\n    %s\n", w.paint("x", color.FgRed), e.URL, e.Message)
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder, _ *model.RunReport) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
