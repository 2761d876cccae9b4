package collector

import "DrawdownSentinel/internal/model"

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchDailyBars(symbol string, days int) ([]model.Bar, error)
	FetchHourlyBars(symbol string, days int) ([]model.Bar, error)
	FetchCurrentPrice(symbol string) (float64, error)
	Name() string
}
