package report

import (
	"bytes"
	"html/template"

	"DrawdownSentinel/internal/model"
)

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Symbol}} drawdown</title>
<style>
body { font-family: sans-serif; margin: 2em; color: #222; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 4px 10px; text-align: right; }
th { background: #f4f4f4; }
.neg { color: #c0392b; }
</style>
</head>
<body>
<h1>{{.Symbol}} ({{.Interval}})</h1>
<p>Last updated: {{.LastUpdated}}</p>
<table>
<tr><th>Current price</th><td>{{.CurrentPrice}}</td></tr>
{{if .ATH}}<tr><th>ATH (data range)</th><td>{{.ATH}}</td></tr>{{end}}
{{if .ATHDate}}<tr><th>ATH date</th><td>{{.ATHDate}}</td></tr>{{end}}
{{if .ATL}}<tr><th>ATL (data range)</th><td>{{.ATL}}</td></tr>{{end}}
{{if .ATLDate}}<tr><th>ATL date</th><td>{{.ATLDate}}</td></tr>{{end}}
{{if .DrawdownFromATH}}<tr><th>Drawdown from ATH</th><td class="neg">{{.DrawdownFromATH}}%</td></tr>{{end}}
{{if .DaysSinceATH}}<tr><th>Days since ATH</th><td>{{.DaysSinceATH}}</td></tr>{{end}}
</table>
<h2>Drawdown ({{.PeriodDescription}})</h2>
<table>
<tr><th>Date</th><th>Drawdown %</th></tr>
{{range .DrawdownData}}<tr><td>{{.Date}}</td><td class="neg">{{.DrawdownPercent}}</td></tr>
{{end}}</table>
</body>
</html>
`))

// RenderHTML renders the document as a standalone HTML page.
func RenderHTML(r *model.DrawdownReport) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
