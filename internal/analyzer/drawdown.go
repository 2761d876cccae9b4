package analyzer

import (
	"fmt"
	"math"

	"DrawdownSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// ValidationError reports a malformed input series. Index is the position
// of the offending bar.
type ValidationError struct {
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid series: bar %d: %s", e.Index, e.Reason)
}

// Result is the full output of a drawdown analysis. Summary is nil when
// the input series was empty.
type Result struct {
	Summary *model.SeriesSummary
	Points  []model.DrawdownPoint
}

// RoundPercent rounds a percentage to 2 decimal places,
// half away from zero.
func RoundPercent(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// RoundPrice rounds a price to 8 decimal places, half away from zero.
func RoundPrice(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(8).Float64()
	return f
}

// Analyze runs a single forward pass over an ascending bar series and
// produces one DrawdownPoint per bar plus the overall extremes.
//
// The trailing all-time high is the running maximum of High; a bar moves
// it only when strictly greater, so equal highs keep the earlier
// timestamp. Per-point drawdown compares Close against the trailing high
// and is therefore ≤ 0, exactly 0 whenever the close sits on a fresh
// high. The summary extremes use High for the ATH and Low for the ATL,
// again first occurrence.
//
// An empty series yields a Result with nil Summary and no points.
// Non-finite prices, opens or closes outside the bar's low/high range,
// and non-increasing timestamps yield a *ValidationError.
func Analyze(bars []model.Bar) (*Result, error) {
	if len(bars) == 0 {
		return &Result{}, nil
	}
	if err := validate(bars); err != nil {
		return nil, err
	}

	trailing := math.Inf(-1)
	points := make([]model.DrawdownPoint, 0, len(bars))

	var athIdx, atlIdx int
	for i, b := range bars {
		if b.High > trailing {
			trailing = b.High
		}
		dd := 0.0
		if trailing > 0 {
			dd = (b.Close - trailing) / trailing * 100
		}
		points = append(points, model.DrawdownPoint{
			Time:            b.Time,
			TrailingATH:     RoundPrice(trailing),
			DrawdownPercent: RoundPercent(dd),
		})

		if b.High > bars[athIdx].High {
			athIdx = i
		}
		if b.Low < bars[atlIdx].Low {
			atlIdx = i
		}
	}

	last := bars[len(bars)-1]
	current := 0.0
	if trailing > 0 {
		current = (last.Close - trailing) / trailing * 100
	}

	return &Result{
		Summary: &model.SeriesSummary{
			ATH:             RoundPrice(bars[athIdx].High),
			ATHTime:         bars[athIdx].Time,
			ATL:             RoundPrice(bars[atlIdx].Low),
			ATLTime:         bars[atlIdx].Time,
			LastClose:       RoundPrice(last.Close),
			DrawdownPercent: RoundPercent(current),
		},
		Points: points,
	}, nil
}

// DrawdownAgainst computes the drawdown of a price relative to a fixed
// reference high, rounded like per-point drawdowns. Used when the ATH
// comes from the persisted registry rather than the fetched window.
func DrawdownAgainst(price, ath float64) float64 {
	if ath <= 0 {
		return 0
	}
	return RoundPercent((price - ath) / ath * 100)
}

func validate(bars []model.Bar) error {
	for i, b := range bars {
		for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &ValidationError{Index: i, Reason: "non-finite price"}
			}
		}
		// A close above the trailing high would turn the drawdown positive,
		// so inconsistent OHLC bars are rejected rather than propagated.
		if b.Low > b.High {
			return &ValidationError{Index: i, Reason: "low above high"}
		}
		if b.Open < b.Low || b.Open > b.High {
			return &ValidationError{Index: i, Reason: "open outside low/high range"}
		}
		if b.Close < b.Low || b.Close > b.High {
			return &ValidationError{Index: i, Reason: "close outside low/high range"}
		}
		if b.Time.IsZero() {
			return &ValidationError{Index: i, Reason: "zero timestamp"}
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return &ValidationError{Index: i, Reason: "timestamp not strictly increasing"}
		}
	}
	return nil
}
