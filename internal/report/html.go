package report

import (
	"html/template"
	"io"
	"time"

	"github.com/seaung/urlfinder/internal/model"
)

// htmlTemplate renders the run as a single self-contained page.
// html/template escapes every value, so discovered strings cannot inject
// markup into the report.
var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"join":  joinList,
	"label": label,
	"date": func(t time.Time) string {
		return t.Format("2006-01-02 15:04:05 MST")
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>URLFinder Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        table { border-collapse: collapse; width: 100%; margin-bottom: 24px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; vertical-align: top; }
        th { background-color: #f2f2f2; }
        tr:nth-child(even) { background-color: #f9f9f9; }
        .sensitive { color: #b00020; }
        footer { color: #777; font-size: small; }
    </style>
</head>
<body>
    <h1>URLFinder Scan Results</h1>
    <table>
        <tr><th>Started</th><td>{{date .Report.StartedAt}}</td></tr>
        <tr><th>Duration</th><td>{{.Report.Duration}}</td></tr>
        <tr><th>Mode</th><td>{{label .Report.Mode.String}}</td></tr>
        <tr><th>Fuzz</th><td>{{label .Report.FuzzMode.String}}</td></tr>
        <tr><th>Seeds</th><td>{{.Stats.Seeds}} ({{.Stats.Fetched}} reported, {{.Stats.Failed}} failed, {{.Stats.Skipped}} skipped)</td></tr>
        <tr><th>New candidates</th><td>{{.Stats.Candidates}}</td></tr>
    </table>
    <h2>Results</h2>
    <table>
        <tr>
            <th>URL</th>
            <th>Status</th>
            <th>Content Type</th>
            <th>Title</th>
            <th>Found URLs</th>
            <th>JS URLs</th>
            <th>Sensitive Info</th>
        </tr>
        {{- range .Report.Results}}
        <tr>
            <td>{{.URL}}</td>
            <td>{{.Status}}</td>
            <td>{{.ContentType}}</td>
            <td>{{.Title}}</td>
            <td>{{join .URLs}}</td>
            <td>{{join .JSURLs}}</td>
            <td class="sensitive">{{join .SensitiveInfo}}</td>
        </tr>
        {{- end}}
    </table>
    {{- if .Report.Candidates}}
    <h2>New Candidates</h2>
    <ul>
        {{- range .Report.Candidates}}
        <li>{{.}}</li>
        {{- end}}
    </ul>
    {{- end}}
    {{- if .Report.Errors}}
    <h2>Errors</h2>
    <table>
        <tr><th>URL</th><th>Error</th></tr>
        {{- range .Report.Errors}}
        <tr><td>{{.URL}}</td><td>{{.Message}}</td></tr>
        {{- end}}
    </table>
    {{- end}}
    <footer>Report generated by urlfinder {{.Version}}</footer>
</body>
</html>
`))

// HTMLWriter outputs reports as an HTML page.
type HTMLWriter struct {
	baseWriter

	// version is shown in the page footer.
	version string
}

// NewHTMLWriter creates an HTMLWriter that outputs to the given writer.
func NewHTMLWriter(output io.Writer, version string) *HTMLWriter {
	return &HTMLWriter{
		baseWriter: newBaseWriter(output),
		version:    version,
	}
}

// htmlData is the template input.
type htmlData struct {
	Version string
	Stats   model.Stats
	Report  *model.RunReport
}

// Write renders report as HTML.
func (w *HTMLWriter) Write(report *model.RunReport) (int, error) {
	cw := &countingWriter{w: w.output}
	err := htmlTemplate.Execute(cw, htmlData{
		Version: w.version,
		Stats:   report.Stats(),
		Report:  report,
	})
	return cw.n, err
}
