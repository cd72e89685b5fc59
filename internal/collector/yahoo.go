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
	"golang.org/x/time/rate"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	Limiter   *rate.Limiter
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	Logger    *zap.Logger
}

// NewYahooFetcher creates a new Yahoo Finance fetcher. requestsPerSecond <= 0 disables pacing.
func NewYahooFetcher(proxyURL string, timeout time.Duration, requestsPerSecond float64, logger *zap.Logger) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		Limiter: limiter,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
		Logger: logger,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
				Gmtoffset            int    `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp []int64 `json:"timestamp"`
			Events    struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
				Splits map[string]struct {
					Date        int64   `json:"date"`
					Numerator   float64 `json:"numerator"`
					Denominator float64 `json:"denominator"`
				} `json:"splits"`
			} `json:"events"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol string, interval model.Interval, params url.Values) ([]model.RawBar, error) {
	params.Set("interval", string(interval))
	params.Set("events", "div,splits")
	params.Set("includePrePost", "false")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), params.Encode())

	if err := f.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("yahoo rate limit: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	start := time.Now()
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: yahoo fetch: %v", model.ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: yahoo read body: %v", model.ErrDataUnavailable, err)
	}
	f.Logger.Debug("yahoo chart fetched",
		zap.String("symbol", symbol),
		zap.String("interval", string(interval)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	var chart yahooChart
	if jsonErr := json.Unmarshal(body, &chart); jsonErr == nil && chart.Chart.Error != nil {
		return nil, fmt.Errorf("%w: yahoo api error: %s", model.ErrDataUnavailable, chart.Chart.Error.Description)
	} else if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: yahoo: status %d, body: %s", model.ErrDataUnavailable, resp.StatusCode, string(body))
	} else if jsonErr != nil {
		return nil, fmt.Errorf("%w: yahoo decode: %v", model.ErrDataUnavailable, jsonErr)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: yahoo: no data returned for %s", model.ErrDataUnavailable, symbol)
	}

	result := chart.Chart.Result[0]
	loc := time.UTC
	if result.Meta.ExchangeTimezoneName != "" {
		if l, err := time.LoadLocation(result.Meta.ExchangeTimezoneName); err == nil {
			loc = l
		} else {
			loc = time.FixedZone(result.Meta.ExchangeTimezoneName, result.Meta.Gmtoffset)
		}
	}

	// Corporate actions are keyed by the calendar day they apply to.
	dayKey := func(ts int64) string { return time.Unix(ts, 0).In(loc).Format("2006-01-02") }
	dividends := make(map[string]float64)
	for _, d := range result.Events.Dividends {
		dividends[dayKey(d.Date)] += d.Amount
	}
	splits := make(map[string]float64)
	for _, s := range result.Events.Splits {
		if s.Denominator != 0 {
			splits[dayKey(s.Date)] = s.Numerator / s.Denominator
		}
	}

	quote := result.Indicators.Quote[0]
	bars := make([]model.RawBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue // skip null bars (holidays etc.)
		}
		bar := model.RawBar{
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  *quote.Close[i],
			Volume: int64(at(quote.Volume, i)),
		}
		stampBar(&bar, time.Unix(ts, 0), loc, interval)
		key := dayKey(ts)
		bar.Dividends = dividends[key]
		bar.StockSplits = splits[key]
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: yahoo: only null bars returned for %s", model.ErrDataUnavailable, symbol)
	}
	return orderBars(bars), nil
}

func (f *YahooFetcher) FetchBars(ctx context.Context, symbol string, period model.Period, interval model.Interval) ([]model.RawBar, error) {
	if err := model.CheckRange(period, interval); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("range", string(period))
	return f.fetchChart(ctx, symbol, interval, params)
}

func (f *YahooFetcher) FetchDaily(ctx context.Context, symbol string, from, to time.Time) ([]model.RawBar, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: empty date range %s..%s", model.ErrDataUnavailable, from.Format(time.DateOnly), to.Format(time.DateOnly))
	}
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(from.Unix(), 10))
	params.Set("period2", strconv.FormatInt(to.Unix(), 10))
	return f.fetchChart(ctx, symbol, model.Interval1d, params)
}
