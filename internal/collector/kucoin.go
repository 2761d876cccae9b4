package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"DrawdownSentinel/internal/model"
)

// DefaultKuCoinBaseURL is the public KuCoin REST endpoint.
const DefaultKuCoinBaseURL = "https://api.kucoin.com"

// KuCoinFetcher implements Fetcher using KuCoin's public market-data API.
type KuCoinFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewKuCoinFetcher creates a new fetcher with optional proxy support.
func NewKuCoinFetcher(baseURL, proxyURL string) *KuCoinFetcher {
	if baseURL == "" {
		baseURL = DefaultKuCoinBaseURL
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &KuCoinFetcher{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *KuCoinFetcher) Name() string { return "kucoin" }

// kuCoinEnvelope is the common KuCoin response wrapper. Code "200000"
// means success; candle rows come as arrays of decimal strings.
type kuCoinEnvelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (f *KuCoinFetcher) FetchDailyBars(symbol string, days int) ([]model.Bar, error) {
	startAt := time.Now().UTC().AddDate(0, 0, -days).Unix()
	return f.fetchCandles(symbol, "1day", startAt)
}

func (f *KuCoinFetcher) FetchHourlyBars(symbol string, days int) ([]model.Bar, error) {
	startAt := time.Now().UTC().AddDate(0, 0, -days).Unix()
	return f.fetchCandles(symbol, "1hour", startAt)
}

func (f *KuCoinFetcher) FetchCurrentPrice(symbol string) (float64, error) {
	endpoint := fmt.Sprintf("%s/api/v1/market/orderbook/level1?symbol=%s",
		f.BaseURL, url.QueryEscape(symbol))
	env, err := f.get(endpoint)
	if err != nil {
		return 0, fmt.Errorf("fetch ticker: %w", err)
	}
	var ticker struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(env.Data, &ticker); err != nil {
		return 0, fmt.Errorf("decode ticker: %w", err)
	}
	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse ticker price %q: %w", ticker.Price, err)
	}
	return price, nil
}

// fetchCandles retrieves klines of the given type since startAt.
// KuCoin rows are [time, open, close, high, low, volume, turnover] as
// strings, newest first; bars are returned in ascending order.
func (f *KuCoinFetcher) fetchCandles(symbol, candleType string, startAt int64) ([]model.Bar, error) {
	endpoint := fmt.Sprintf("%s/api/v1/market/candles?symbol=%s&type=%s&startAt=%d",
		f.BaseURL, url.QueryEscape(symbol), candleType, startAt)
	env, err := f.get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch candles: %w", err)
	}

	var rows [][]string
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		return nil, fmt.Errorf("decode candles: %w", err)
	}

	bars := make([]model.Bar, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("candle row has %d fields, want at least 6", len(row))
		}
		ts, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse candle timestamp %q: %w", row[0], err)
		}
		vals := make([]float64, 5)
		for i := 1; i <= 5; i++ {
			v, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				return nil, fmt.Errorf("parse candle field %q: %w", row[i], err)
			}
			vals[i-1] = v
		}
		bars = append(bars, model.Bar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   vals[0],
			Close:  vals[1],
			High:   vals[2],
			Low:    vals[3],
			Volume: vals[4],
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (f *KuCoinFetcher) get(endpoint string) (*kuCoinEnvelope, error) {
	resp, err := f.Client.Get(endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	var env kuCoinEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if env.Code != "200000" {
		return nil, fmt.Errorf("kucoin api error %s: %s", env.Code, env.Msg)
	}
	return &env, nil
}
