package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/seaung/urlfinder/internal/model"
)

// ErrUnknownFormat is returned by NewWriter for unsupported format names.
var ErrUnknownFormat = errors.New("unknown report format")

// BaseName is the file name, without extension, of every report file.
const BaseName = "result"

// Writer defines the interface for report output.
// Implementations write run results in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.RunReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.RunReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// NewWriter returns the file writer for format ("json", "csv", "html",
// "md" or "xlsx").
func NewWriter(format string, output io.Writer, version string) (Writer, error) {
	switch format {
	case "json":
		return NewJSONWriter(output, WithPrettyPrint(), WithVersion(version)), nil
	case "csv":
		return NewCSVWriter(output), nil
	case "html":
		return NewHTMLWriter(output, version), nil
	case "md":
		return NewMarkdownWriter(output, version), nil
	case "xlsx":
		return NewXLSXWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// IsSupported reports whether NewWriter accepts format.
func IsSupported(format string) bool {
	switch format {
	case "json", "csv", "html", "md", "xlsx":
		return true
	default:
		return false
	}
}

// WriteFiles writes report into dir as result.<format> for each format and
// returns the paths written. dir is created if needed.
//
// Design decision: A failure in one format does not stop the others. The
// report data is already in memory; losing the HTML because the XLSX failed
// would throw away a completed run. All errors are joined and returned.
func WriteFiles(dir string, formats []string, report *model.RunReport, version string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var (
		paths []string
		errs  []error
	)
	for _, format := range formats {
		path := filepath.Join(dir, BaseName+"."+format)
		if err := writeFile(path, format, report, version); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", format, err))
			continue
		}
		paths = append(paths, path)
	}
	return paths, errors.Join(errs...)
}

func writeFile(path, format string, report *model.RunReport, version string) (err error) {
	if !IsSupported(format) {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w, err := NewWriter(format, f, version)
	if err != nil {
		return err
	}
	_, err = w.Write(report)
	return err
}

// label returns the display form of an identifier, e.g. "deep-safe"
// becomes "Deep Safe". A Caser is stateful, so one is created per call.
func label(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "-", " "))
}

// joinList joins discoveries the way the CSV and HTML reports display them.
func joinList(items []string) string {
	return strings.Join(items, ", ")
}
