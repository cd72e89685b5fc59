package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"StockScope/internal/model"
)

// Three trading days; the middle bar is null and a duplicate of the last bar trails the payload.
const dailyChart = `{"chart":{"result":[{
  "meta":{"exchangeTimezoneName":"America/New_York","gmtoffset":-14400},
  "timestamp":[1717507800,1717594200,1717680600,1717767000,1717767000],
  "events":{"dividends":{"1717594200":{"amount":0.25,"date":1717594200}},
            "splits":{"1717767000":{"date":1717767000,"numerator":4,"denominator":1}}},
  "indicators":{"quote":[{
    "open":  [10,11,null,12,12.5],
    "high":  [11,12,null,13,13.5],
    "low":   [9,10,null,11,11.5],
    "close": [10.5,11.5,null,12.5,13],
    "volume":[100,200,null,300,350]
  }]}
}],"error":null}}`

func newYahooTestServer(t *testing.T, body string, status int, hits *int32) *YahooFetcher {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if !strings.HasPrefix(r.URL.Path, "/v8/finance/chart/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	f := NewYahooFetcher("", 5*time.Second, 0, nil)
	f.BaseURL = srv.URL
	return f
}

func TestYahooFetchBars_Daily(t *testing.T) {
	var hits int32
	f := newYahooTestServer(t, dailyChart, http.StatusOK, &hits)

	bars, err := f.FetchBars(context.Background(), "AAPL", model.Period1Mo, model.Interval1d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars after dropping null and duplicate, got %d", len(bars))
	}
	for i, b := range bars {
		if b.Date.IsZero() || !b.Datetime.IsZero() {
			t.Errorf("bar %d: daily bars must carry Date only, got %+v", i, b)
		}
		if b.Date.Hour() != 0 || b.Date.Location().String() != "America/New_York" {
			t.Errorf("bar %d: expected exchange-local midnight, got %v", i, b.Date)
		}
		if i > 0 && !bars[i-1].Date.Before(b.Date) {
			t.Errorf("bar %d: not strictly increasing", i)
		}
	}
	if bars[1].Dividends != 0.25 {
		t.Errorf("expected dividend on second bar, got %v", bars[1].Dividends)
	}
	if bars[2].StockSplits != 4 {
		t.Errorf("expected 4:1 split on last bar, got %v", bars[2].StockSplits)
	}
	if bars[2].Close != 13 || bars[2].Volume != 350 {
		t.Errorf("duplicate stamp should keep the last occurrence, got %+v", bars[2])
	}
}

func TestYahooFetchBars_Intraday(t *testing.T) {
	var hits int32
	f := newYahooTestServer(t, dailyChart, http.StatusOK, &hits)

	bars, err := f.FetchBars(context.Background(), "AAPL", model.Period5D, model.Interval1h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, b := range bars {
		if b.Datetime.IsZero() || !b.Date.IsZero() {
			t.Errorf("bar %d: intraday bars must carry Datetime only, got %+v", i, b)
		}
	}
}

func TestYahooFetchBars_IncompatibleRangeNeverFetches(t *testing.T) {
	var hits int32
	f := newYahooTestServer(t, dailyChart, http.StatusOK, &hits)

	_, err := f.FetchBars(context.Background(), "AAPL", model.Period1Y, model.Interval1m)
	if !errors.Is(err, model.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Errorf("expected no upstream request, got %d", hits)
	}
}

func TestYahooFetchBars_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"api error", `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`, http.StatusNotFound},
		{"empty result", `{"chart":{"result":[],"error":null}}`, http.StatusOK},
		{"bad status", `oops`, http.StatusInternalServerError},
		{"garbage", `not json`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			f := newYahooTestServer(t, tt.body, tt.status, &hits)
			_, err := f.FetchBars(context.Background(), "NOPE", model.Period1Y, model.Interval1d)
			if !errors.Is(err, model.ErrDataUnavailable) {
				t.Errorf("expected ErrDataUnavailable, got %v", err)
			}
		})
	}
}

func TestYahooFetchDaily(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(dailyChart))
	}))
	defer srv.Close()
	f := NewYahooFetcher("", 5*time.Second, 100, nil)
	f.BaseURL = srv.URL

	now := time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC)
	bars, err := FetchLongHistory(context.Background(), f, "SPX", 5, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 3 {
		t.Errorf("expected 3 bars, got %d", len(bars))
	}
	for _, want := range []string{"period1=", "period2=1717804800", "interval=1d"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
	if _, err := FetchLongHistory(context.Background(), f, "SPX", 0, now); !errors.Is(err, model.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable for zero years, got %v", err)
	}
}

func TestYahooSymbolMap(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(dailyChart))
	}))
	defer srv.Close()
	f := NewYahooFetcher("", 5*time.Second, 0, nil)
	f.BaseURL = srv.URL
	if _, err := f.FetchBars(context.Background(), "SPX500", model.Period1Y, model.Interval1d); err != nil {
		t.Fatal(err)
	}
	if path != "/v8/finance/chart/^GSPC" {
		t.Errorf("expected mapped symbol in path, got %s", path)
	}
}
