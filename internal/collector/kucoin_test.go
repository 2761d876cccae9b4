package collector

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newKuCoinTestServer(t *testing.T, candlesBody, tickerBody string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/market/candles":
			if r.URL.Query().Get("symbol") == "" {
				t.Error("candles request missing symbol")
			}
			fmt.Fprint(w, candlesBody)
		case "/api/v1/market/orderbook/level1":
			fmt.Fprint(w, tickerBody)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestKuCoinFetcher_FetchDailyBars(t *testing.T) {
	// KuCoin returns rows newest first, values as strings.
	candles := `{"code":"200000","data":[
		["1700179200","2.0","2.1","2.2","1.9","1000","2100"],
		["1700092800","1.9","2.0","2.05","1.85","900","1800"]
	]}`
	srv := newKuCoinTestServer(t, candles, "")
	defer srv.Close()

	f := NewKuCoinFetcher(srv.URL, "")
	bars, err := f.FetchDailyBars("BTC-USDT", 30)
	if err != nil {
		t.Fatalf("FetchDailyBars: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[0].Time.Unix() != 1700092800 {
		t.Errorf("expected ascending order, first bar at %d", bars[0].Time.Unix())
	}
	b := bars[0]
	if b.Open != 1.9 || b.Close != 2.0 || b.High != 2.05 || b.Low != 1.85 || b.Volume != 900 {
		t.Errorf("unexpected bar values: %+v", b)
	}
}

func TestKuCoinFetcher_FetchCurrentPrice(t *testing.T) {
	ticker := `{"code":"200000","data":{"sequence":"1","price":"43211.5","size":"0.1"}}`
	srv := newKuCoinTestServer(t, "", ticker)
	defer srv.Close()

	f := NewKuCoinFetcher(srv.URL, "")
	price, err := f.FetchCurrentPrice("BTC-USDT")
	if err != nil {
		t.Fatalf("FetchCurrentPrice: %v", err)
	}
	if price != 43211.5 {
		t.Errorf("expected 43211.5, got %v", price)
	}
}

func TestKuCoinFetcher_APIError(t *testing.T) {
	body := `{"code":"400100","msg":"symbol not exists","data":null}`
	srv := newKuCoinTestServer(t, body, body)
	defer srv.Close()

	f := NewKuCoinFetcher(srv.URL, "")
	if _, err := f.FetchDailyBars("NOPE-USDT", 30); err == nil {
		t.Error("expected error for api error code")
	}
	if _, err := f.FetchCurrentPrice("NOPE-USDT"); err == nil {
		t.Error("expected error for api error code")
	}
}

func TestKuCoinFetcher_MalformedRow(t *testing.T) {
	candles := `{"code":"200000","data":[["1700179200","not-a-number","2.1","2.2","1.9","1000","2100"]]}`
	srv := newKuCoinTestServer(t, candles, "")
	defer srv.Close()

	f := NewKuCoinFetcher(srv.URL, "")
	if _, err := f.FetchDailyBars("BTC-USDT", 30); err == nil {
		t.Error("expected error for malformed candle row")
	}
}

func TestKuCoinFetcher_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewKuCoinFetcher(srv.URL, "")
	if _, err := f.FetchHourlyBars("BTC-USDT", 7); err == nil {
		t.Error("expected error for HTTP 429")
	}
}
