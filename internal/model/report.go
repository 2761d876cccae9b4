package model

// ChartPoint is one entry of the published drawdown chart.
type ChartPoint struct {
	Date            string  `json:"date"`
	DrawdownPercent float64 `json:"drawdown_percent"`
}

// DrawdownReport is the JSON document published to the bucket, one per
// symbol. Nullable fields are pointers so an empty series marshals as null
// rather than zero.
type DrawdownReport struct {
	Symbol            string       `json:"symbol"`
	Interval          string       `json:"interval"`
	LastUpdated       string       `json:"last_updated"`
	CurrentPrice      float64      `json:"current_price"`
	ATH               *float64     `json:"all_time_high_in_data_range"`
	ATHDate           *string      `json:"ath_date_in_data_range"`
	ATL               *float64     `json:"all_time_low_in_data_range"`
	ATLDate           *string      `json:"atl_date_in_data_range"`
	DrawdownFromATH   *float64     `json:"drawdown_from_ath_in_data_range_percent"`
	DaysSinceATH      *int         `json:"days_since_ath"`
	PeriodDescription string       `json:"data_period_description"`
	DrawdownData      []ChartPoint `json:"drawdown_data"`
}
