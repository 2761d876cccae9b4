package model

import "time"

// DrawdownPoint is the per-bar output of the drawdown scan.
// DrawdownPercent is negative-signed: 0 exactly at a new high, below zero
// otherwise.
type DrawdownPoint struct {
	Time            time.Time
	TrailingATH     float64
	DrawdownPercent float64
}

// SeriesSummary holds the extremes observed over a full series.
// ATHTime/ATLTime carry the first bar at which the extreme was reached.
type SeriesSummary struct {
	ATH             float64
	ATHTime         time.Time
	ATL             float64
	ATLTime         time.Time
	LastClose       float64
	DrawdownPercent float64
}
