package collector

import (
	"fmt"
	"time"

	"DrawdownSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price     float64
	DailyData []model.Bar
	ChartData []model.Bar
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ string, days int) ([]model.Bar, error) {
	if m.DailyData != nil {
		return m.DailyData, nil
	}
	return generateMockBars(m.Price, days, 24*time.Hour), nil
}

func (m *MockFetcher) FetchHourlyBars(_ string, days int) ([]model.Bar, error) {
	if m.ChartData != nil {
		return m.ChartData, nil
	}
	return generateMockBars(m.Price, days*24, time.Hour), nil
}

func (m *MockFetcher) FetchCurrentPrice(_ string) (float64, error) {
	return m.Price, nil
}

func generateMockBars(basePrice float64, count int, step time.Duration) []model.Bar {
	bars := make([]model.Bar, count)
	start := time.Now().UTC().Add(-time.Duration(count) * step)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Bar{
			Time:   start.Add(time.Duration(i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector assembles the per-symbol price series the analyzer consumes.
type Collector struct {
	Fetcher       Fetcher
	LookbackDays  int
	ChartDays     int
	ChartInterval string // "1day" or "1hour"
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, lookbackDays, chartDays int, chartInterval string) *Collector {
	return &Collector{
		Fetcher:       fetcher,
		LookbackDays:  lookbackDays,
		ChartDays:     chartDays,
		ChartInterval: chartInterval,
	}
}

// Collect fetches the long daily history, the recent chart window, and
// the live ticker price for one symbol. The ticker price is appended to
// both series as a synthetic bar so the newest point reflects the live
// market rather than the last closed candle.
func (c *Collector) Collect(symbol string) (*model.Series, error) {
	daily, err := c.Fetcher.FetchDailyBars(symbol, c.LookbackDays)
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars: %w", err)
	}
	if len(daily) == 0 {
		return nil, fmt.Errorf("no daily bars returned for %s", symbol)
	}

	var chart []model.Bar
	if c.ChartInterval == "1hour" {
		chart, err = c.Fetcher.FetchHourlyBars(symbol, c.ChartDays)
		if err != nil {
			return nil, fmt.Errorf("fetch hourly bars: %w", err)
		}
	} else {
		chart = daily
		if len(chart) > c.ChartDays {
			chart = chart[len(chart)-c.ChartDays:]
		}
	}

	price, err := c.Fetcher.FetchCurrentPrice(symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch current price: %w", err)
	}

	now := time.Now().UTC()
	return &model.Series{
		Symbol:       symbol,
		DailyBars:    appendLive(daily, price, now),
		ChartBars:    appendLive(chart, price, now),
		CurrentPrice: price,
		FetchedAt:    now,
	}, nil
}

// appendLive adds a synthetic flat bar at the ticker price. Skipped when
// the series already has a bar at or past now, to keep timestamps
// strictly increasing.
func appendLive(bars []model.Bar, price float64, now time.Time) []model.Bar {
	if len(bars) > 0 && !bars[len(bars)-1].Time.Before(now) {
		return bars
	}
	out := make([]model.Bar, len(bars), len(bars)+1)
	copy(out, bars)
	return append(out, model.Bar{
		Time:  now,
		Open:  price,
		High:  price,
		Low:   price,
		Close: price,
	})
}
