package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"DrawdownSentinel/internal/model"
)

// Build assembles the published document for one symbol from an analysis
// result. sum may be nil (empty series); the nullable fields then marshal
// as JSON null. chart is the point sequence backing the drawdown chart,
// already in ascending order; window > 0 keeps only the most recent
// window points.
func Build(symbol, interval string, sum *model.SeriesSummary, chart []model.DrawdownPoint, window int, now time.Time) *model.DrawdownReport {
	r := &model.DrawdownReport{
		Symbol:      symbol,
		Interval:    interval,
		LastUpdated: now.UTC().Format(time.RFC3339),
	}

	if window > 0 && len(chart) > window {
		chart = chart[len(chart)-window:]
	}
	r.DrawdownData = make([]model.ChartPoint, len(chart))
	for i, p := range chart {
		r.DrawdownData[i] = model.ChartPoint{
			Date:            formatDate(p.Time, interval),
			DrawdownPercent: p.DrawdownPercent,
		}
	}
	r.PeriodDescription = fmt.Sprintf("%d %s points + real-time", len(r.DrawdownData), interval)

	if sum != nil {
		r.CurrentPrice = sum.LastClose
		r.ATH = ptr(sum.ATH)
		r.ATHDate = ptr(sum.ATHTime.UTC().Format(time.RFC3339))
		r.ATL = ptr(sum.ATL)
		r.ATLDate = ptr(sum.ATLTime.UTC().Format(time.RFC3339))
		r.DrawdownFromATH = ptr(sum.DrawdownPercent)
		days := int(now.UTC().Sub(sum.ATHTime).Hours()/24 + 0.5)
		r.DaysSinceATH = ptr(days)
	}
	return r
}

// RenderJSON marshals the document with 2-space indentation.
func RenderJSON(r *model.DrawdownReport) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// JSONKey returns the bucket key for a coin's JSON artifact,
// e.g. "data/bitcoin_drawdown_data.json".
func JSONKey(coin string) string {
	return "data/" + slug(coin) + "_drawdown_data.json"
}

// HTMLKey returns the bucket key for a coin's HTML artifact.
func HTMLKey(coin string) string {
	return "data/" + slug(coin) + "_drawdown.html"
}

func slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

func formatDate(t time.Time, interval string) string {
	if interval == "1day" {
		return t.UTC().Format("2006-01-02")
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func ptr[T any](v T) *T { return &v }
