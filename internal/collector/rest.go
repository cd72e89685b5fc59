package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"StockScope/internal/model"

	"go.uber.org/zap"
)

// RESTFetcher implements Fetcher against a generic JSON bar endpoint.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Logger  *zap.Logger
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration, logger *zap.Logger) *RESTFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		Logger: logger,
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bar endpoint.
type restBar struct {
	Timestamp   int64   `json:"timestamp"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	Volume      int64   `json:"volume"`
	Dividends   float64 `json:"dividends"`
	StockSplits float64 `json:"stock_splits"`
}

func (f *RESTFetcher) FetchBars(ctx context.Context, symbol string, period model.Period, interval model.Interval) ([]model.RawBar, error) {
	if err := model.CheckRange(period, interval); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", string(interval))
	q.Set("range", string(period))
	bars, err := f.fetchBars(ctx, q, interval)
	if err != nil && interval == model.Interval1wk {
		// Fallback: fetch daily bars for the same range and aggregate to weekly
		f.Logger.Warn("weekly bars unavailable, aggregating daily", zap.String("symbol", symbol), zap.Error(err))
		q.Set("interval", string(model.Interval1d))
		daily, dailyErr := f.fetchBars(ctx, q, model.Interval1d)
		if dailyErr != nil {
			return nil, fmt.Errorf("weekly fetch failed: %w; daily fallback also failed: %w", err, dailyErr)
		}
		return aggregateDailyToWeekly(daily), nil
	}
	return bars, err
}

func (f *RESTFetcher) FetchDaily(ctx context.Context, symbol string, from, to time.Time) ([]model.RawBar, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", string(model.Interval1d))
	q.Set("start", strconv.FormatInt(from.Unix(), 10))
	q.Set("end", strconv.FormatInt(to.Unix(), 10))
	return f.fetchBars(ctx, q, model.Interval1d)
}

func (f *RESTFetcher) fetchBars(ctx context.Context, q url.Values, interval model.Interval) ([]model.RawBar, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars?%s", f.BaseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch bars: %v", model.ErrDataUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: fetch bars: status %d, body: %s", model.ErrDataUnavailable, resp.StatusCode, string(body))
	}
	var rb []restBar
	if err := json.NewDecoder(resp.Body).Decode(&rb); err != nil {
		return nil, fmt.Errorf("%w: decode bars: %v", model.ErrDataUnavailable, err)
	}
	if len(rb) == 0 {
		return nil, fmt.Errorf("%w: no bars for %s", model.ErrDataUnavailable, q.Get("symbol"))
	}
	bars := make([]model.RawBar, len(rb))
	for i, b := range rb {
		bars[i] = model.RawBar{
			Open:        b.Open,
			High:        b.High,
			Low:         b.Low,
			Close:       b.Close,
			Volume:      b.Volume,
			Dividends:   b.Dividends,
			StockSplits: b.StockSplits,
		}
		stampBar(&bars[i], time.Unix(b.Timestamp, 0), time.UTC, interval)
	}
	return orderBars(bars), nil
}

// aggregateDailyToWeekly converts daily bars into weekly bars keyed by ISO week.
func aggregateDailyToWeekly(daily []model.RawBar) []model.RawBar {
	if len(daily) == 0 {
		return nil
	}
	var weekly []model.RawBar
	week := daily[0]
	for _, d := range daily[1:] {
		dy, dw := d.Date.ISOWeek()
		cy, cw := week.Date.ISOWeek()
		if dy != cy || dw != cw {
			weekly = append(weekly, week)
			week = d
			continue
		}
		if d.High > week.High {
			week.High = d.High
		}
		if d.Low < week.Low {
			week.Low = d.Low
		}
		week.Close = d.Close
		week.Volume += d.Volume
		week.Dividends += d.Dividends
		if d.StockSplits != 0 {
			week.StockSplits = d.StockSplits
		}
	}
	return append(weekly, week)
}
