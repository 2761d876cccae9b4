package model

import "time"

// Bar represents a single candlestick bar.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series holds raw price data fetched for one symbol.
type Series struct {
	Symbol       string
	DailyBars    []Bar
	ChartBars    []Bar
	CurrentPrice float64
	FetchedAt    time.Time
}
