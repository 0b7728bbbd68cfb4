package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"
)

// HTMLConfig contains configuration for HTML report generation.
type HTMLConfig struct {
	OutputPath string // default: <dir>/report.html
	Title      string // default: "Book store QA"
}

// HTMLData contains all data needed for the HTML template.
type HTMLData struct {
	Title         string
	GeneratedAt   string
	Summary       *Summary
	Rows          []ScenarioRow
	TotalDuration string
	PassRate      float64
}

// ScenarioRow is one table row.
type ScenarioRow struct {
	ScenarioEntry
	DurationStr string
	DurationPct float64
}

// GenerateHTML renders an overview page for s.
func GenerateHTML(dir string, s *Summary, cfg HTMLConfig) error {
	if cfg.Title == "" {
		cfg.Title = "Book store QA"
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = filepath.Join(dir, "report.html")
	}

	html, err := renderHTML(buildHTMLData(s, cfg))
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	if err := os.WriteFile(cfg.OutputPath, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write html: %w", err)
	}
	return nil
}

func buildHTMLData(s *Summary, cfg HTMLConfig) HTMLData {
	var maxDuration int64
	for _, e := range s.Scenarios {
		if e.Duration > maxDuration {
			maxDuration = e.Duration
		}
	}

	rows := make([]ScenarioRow, len(s.Scenarios))
	for i, e := range s.Scenarios {
		row := ScenarioRow{ScenarioEntry: e, DurationStr: formatDuration(e.Duration)}
		if maxDuration > 0 {
			row.DurationPct = float64(e.Duration) / float64(maxDuration) * 100
		}
		rows[i] = row
	}

	return HTMLData{
		Title:         cfg.Title,
		GeneratedAt:   time.Now().Format("2006-01-02 15:04:05"),
		Summary:       s,
		Rows:          rows,
		TotalDuration: formatDuration(s.Duration),
		PassRate:      s.PassRate(),
	}
}

func formatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if d < time.Second {
		return fmt.Sprintf("%dms", ms)
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}

func renderHTML(data HTMLData) (string, error) {
	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="ru">
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; margin: 24px; color: #111; }
        .totals span { margin-right: 16px; font-weight: 600; }
        .passed { color: #16a34a; } .failed { color: #dc2626; }
        .broken { color: #ea580c; } .skipped { color: #ca8a04; }
        table { border-collapse: collapse; width: 100%; margin-top: 16px; }
        th, td { text-align: left; padding: 6px 10px; border-bottom: 1px solid #e5e7eb; vertical-align: top; }
        .bar { background: #06b6d4; height: 6px; }
        .error { font-family: monospace; white-space: pre-wrap; color: #6b7280; }
    </style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>Generated {{.GeneratedAt}} · {{.TotalDuration}}{{with .Summary.Driver}} · driver {{.}}{{end}}{{with .Summary.BaseURL}} · {{.}}{{end}}</p>
<div class="totals">
    <span>Total {{.Summary.Total}}</span>
    <span class="passed">Passed {{.Summary.Passed}}</span>
    <span class="failed">Failed {{.Summary.Failed}}</span>
    <span class="broken">Broken {{.Summary.Broken}}</span>
    <span class="skipped">Skipped {{.Summary.Skipped}}</span>
    <span>Pass rate {{printf "%.1f" .PassRate}}%</span>
</div>
<table>
    <tr><th>Scenario</th><th>Kind</th><th>Status</th><th>Duration</th></tr>
    {{range .Rows}}
    <tr>
        <td>{{.Name}}{{if .Error}}<div class="error">{{.Error}}</div>{{end}}</td>
        <td>{{.Kind}}</td>
        <td class="{{.Status}}">{{.Status}}</td>
        <td>{{.DurationStr}}<div class="bar" style="width: {{printf "%.0f" .DurationPct}}%"></div></td>
    </tr>
    {{end}}
</table>
</body>
</html>
`
