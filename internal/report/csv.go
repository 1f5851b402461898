package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/seaung/urlfinder/internal/model"
)

// csvHeader is the first row of every CSV report.
var csvHeader = []string{"url", "status", "content_type", "title", "urls", "js_urls", "sensitive_info"}

// CSVWriter outputs one row per result. List columns are joined with ", ".
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the results of report as CSV.
func (w *CSVWriter) Write(report *model.RunReport) (int, error) {
	cw := &countingWriter{w: w.output}
	out := csv.NewWriter(cw)

	if err := out.Write(csvHeader); err != nil {
		return cw.n, err
	}
	for i := range report.Results {
		r := &report.Results[i]
		record := []string{
			r.URL,
			strconv.Itoa(int(r.Status)),
			r.ContentType,
			r.Title,
			joinList(r.URLs),
			joinList(r.JSURLs),
			joinList(r.SensitiveInfo),
		}
		if err := out.Write(record); err != nil {
			return cw.n, err
		}
	}

	out.Flush()
	return cw.n, out.Error()
}

// countingWriter counts bytes written through it.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
