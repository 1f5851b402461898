package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/seaung/urlfinder/internal/model"
)

// Sheet names of the XLSX report.
const (
	SheetSummary    = "Summary"
	SheetResults    = "Results"
	SheetCandidates = "Candidates"
	SheetErrors     = "Errors"
)

// XLSXWriter outputs reports as an Excel workbook.
// Each discovery list gets its own row per item so the sheet can be
// filtered and sorted, unlike the joined cells of the CSV report.
type XLSXWriter struct {
	baseWriter
}

// NewXLSXWriter creates an XLSXWriter that outputs to the given writer.
func NewXLSXWriter(output io.Writer) *XLSXWriter {
	return &XLSXWriter{baseWriter: newBaseWriter(output)}
}

// Write builds the workbook and writes it to the output.
func (w *XLSXWriter) Write(report *model.RunReport) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0, err
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return 0, err
	}
	if err := w.writeSummary(f, report, header); err != nil {
		return 0, err
	}
	if err := w.writeResults(f, report, header); err != nil {
		return 0, err
	}
	if err := w.writeList(f, SheetCandidates, []string{"URL"}, header, len(report.Candidates), func(i int) []any {
		return []any{report.Candidates[i]}
	}); err != nil {
		return 0, err
	}
	if len(report.Errors) > 0 {
		if err := w.writeList(f, SheetErrors, []string{"URL", "Error"}, header, len(report.Errors), func(i int) []any {
			return []any{report.Errors[i].URL, report.Errors[i].Message}
		}); err != nil {
			return 0, err
		}
	}

	cw := &countingWriter{w: w.output}
	if err := f.Write(cw); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

func (w *XLSXWriter) writeSummary(f *excelize.File, report *model.RunReport, header int) error {
	stats := report.Stats()
	rows := [][]any{
		{"Property", "Value"},
		{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Duration", report.Duration().String()},
		{"Mode", label(report.Mode.String())},
		{"Fuzz", label(report.FuzzMode.String())},
		{"Seeds", stats.Seeds},
		{"Reported", stats.Fetched},
		{"Failed", stats.Failed},
		{"Skipped", stats.Skipped},
		{"URLs", stats.URLs},
		{"JS URLs", stats.JSURLs},
		{"Sensitive", stats.SensitiveInfo},
		{"New candidates", stats.Candidates},
	}
	if err := setRows(f, SheetSummary, rows); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetSummary, "A", "B", 24); err != nil {
		return err
	}
	return f.SetRowStyle(SheetSummary, 1, 1, header)
}

// writeResults writes one row per discovery: the page columns repeat and
// the Kind column says which list the value came from. Results without
// discoveries still get one row.
func (w *XLSXWriter) writeResults(f *excelize.File, report *model.RunReport, header int) error {
	if _, err := f.NewSheet(SheetResults); err != nil {
		return err
	}

	rows := [][]any{{"URL", "Status", "Content Type", "Title", "Kind", "Value"}}
	for i := range report.Results {
		r := &report.Results[i]
		page := []any{r.URL, int(r.Status), r.ContentType, r.Title}
		before := len(rows)
		for _, group := range []struct {
			kind  string
			items []string
		}{
			{"url", r.URLs},
			{"js", r.JSURLs},
			{"sensitive", r.SensitiveInfo},
		} {
			for _, item := range group.items {
				rows = append(rows, append(append([]any{}, page...), group.kind, item))
			}
		}
		if len(rows) == before {
			rows = append(rows, append(append([]any{}, page...), "", ""))
		}
	}

	if err := setRows(f, SheetResults, rows); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetResults, "A", "A", 50); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetResults, "F", "F", 60); err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetResults, 1, 1, header); err != nil {
		return err
	}
	return f.AutoFilter(SheetResults, fmt.Sprintf("A1:F%d", len(rows)), nil)
}

func (w *XLSXWriter) writeList(f *excelize.File, sheet string, columns []string, header, n int, row func(int) []any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	head := make([]any, len(columns))
	for i, c := range columns {
		head[i] = c
	}
	rows := make([][]any, 0, n+1)
	rows = append(rows, head)
	for i := range n {
		rows = append(rows, row(i))
	}

	if err := setRows(f, sheet, rows); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", 60); err != nil {
		return err
	}
	return f.SetRowStyle(sheet, 1, 1, header)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
