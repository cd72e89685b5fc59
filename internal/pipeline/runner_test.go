package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockScope/internal/collector"
	"StockScope/internal/forecast"
	"StockScope/internal/model"

	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)

func dailyBars(n int, price float64) []model.RawBar {
	bars := make([]model.RawBar, n)
	start := fixedNow.AddDate(0, 0, -n)
	for i := range bars {
		p := price + float64(i%7)
		bars[i] = model.RawBar{Date: start.AddDate(0, 0, i), Open: p, High: p + 1, Low: p - 1, Close: p, Volume: 10}
	}
	return bars
}

type stageRecorder struct {
	stages []string
	failed map[string]error
	runs   int
}

func (s *stageRecorder) ObserveStage(stage string, _ time.Duration, err error) {
	s.stages = append(s.stages, stage)
	if err != nil {
		if s.failed == nil {
			s.failed = map[string]error{}
		}
		s.failed[stage] = err
	}
}

func (s *stageRecorder) ObserveRun(string, float64, error) { s.runs++ }

func newTestRunner(f collector.Fetcher) (*Runner, *stageRecorder) {
	r := NewRunner(f, forecast.NewAdapter(forecast.NewAdditiveModel(), nil), zap.NewNop())
	r.Now = func() time.Time { return fixedNow }
	rec := &stageRecorder{}
	r.Observer = rec
	return r, rec
}

func TestRunCompletes(t *testing.T) {
	f := &collector.MockFetcher{Price: 100, Now: fixedNow}
	r, rec := newTestRunner(f)
	req := NewRequest("AAPL")
	req.Indicators = append(req.Indicators, model.MACD(12, 26, 9), model.Bollinger(20))

	res, err := r.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.OK() {
		t.Fatalf("failure: %v", res.Failure)
	}
	for _, name := range []string{"SMA_30", "RSI_30", "MACD_12_26_9", "BBU_20"} {
		if _, ok := res.Table.Column(name); !ok {
			t.Errorf("missing column %s", name)
		}
	}
	if got, want := len(res.Forecast.Rows), res.History.Len()+forecast.DefaultHorizon; got != want {
		t.Fatalf("forecast rows = %d, want %d", got, want)
	}
	if len(rec.stages) != 5 || rec.runs != 1 {
		t.Fatalf("stages = %v, runs = %d", rec.stages, rec.runs)
	}
	if res.Summary.Rows != res.Table.Len() {
		t.Errorf("summary rows = %d", res.Summary.Rows)
	}
}

func TestRunRejectsIncompatibleRangeBeforeFetch(t *testing.T) {
	f := &collector.MockFetcher{Price: 100, Now: fixedNow}
	r, _ := newTestRunner(f)
	req := NewRequest("AAPL")
	req.Interval = model.Interval1m

	res, err := r.Run(context.Background(), req)
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageFetch {
		t.Fatalf("err = %v, want fetch stage error", err)
	}
	if !errors.Is(err, model.ErrDataUnavailable) {
		t.Fatalf("err = %v, want ErrDataUnavailable", err)
	}
	if f.Calls() != 0 {
		t.Fatalf("fetcher called %d times", f.Calls())
	}
	if res.Table != nil {
		t.Fatal("table should be empty after a fetch failure")
	}
}

func TestRunKeepsTableWhenIndicatorsFail(t *testing.T) {
	f := &collector.MockFetcher{Bars: dailyBars(5, 50), Now: fixedNow}
	r, rec := newTestRunner(f)

	res, err := r.Run(context.Background(), NewRequest("AAPL"))
	if !errors.Is(err, model.ErrInsufficientHistory) {
		t.Fatalf("err = %v, want ErrInsufficientHistory", err)
	}
	if res.Failure.Stage != StageIndicators {
		t.Fatalf("stage = %s", res.Failure.Stage)
	}
	if res.Table == nil || res.Table.Len() != 5 || len(res.Table.Columns()) != 0 {
		t.Fatal("normalized table without indicators should be kept")
	}
	if f.Calls() != 1 {
		t.Fatalf("later stages ran: %d fetches", f.Calls())
	}
	if _, ok := rec.failed["indicators"]; !ok {
		t.Fatal("observer missed the failure")
	}
}

func TestRunForecastNeedsHistory(t *testing.T) {
	f := &collector.MockFetcher{Price: 100, Daily: dailyBars(10, 80), Now: fixedNow}
	r, _ := newTestRunner(f)

	res, err := r.Run(context.Background(), NewRequest("MSFT"))
	if !errors.Is(err, model.ErrInsufficientHistory) {
		t.Fatalf("err = %v, want ErrInsufficientHistory", err)
	}
	if res.Failure.Stage != StageForecast {
		t.Fatalf("stage = %s", res.Failure.Stage)
	}
	if _, ok := res.Table.Column("SMA_30"); !ok {
		t.Fatal("annotated table should survive a forecast failure")
	}
	if res.Forecast != nil {
		t.Fatal("forecast should be empty")
	}
}

func TestRunSkipForecastAndHorizon(t *testing.T) {
	f := &collector.MockFetcher{Price: 100, Now: fixedNow}
	r, _ := newTestRunner(f)

	req := NewRequest("AAPL")
	req.SkipForecast = true
	res, err := r.Run(context.Background(), req)
	if err != nil || res.Forecast != nil || f.Calls() != 1 {
		t.Fatalf("skip forecast: err=%v forecast=%v calls=%d", err, res.Forecast, f.Calls())
	}

	req = NewRequest("AAPL")
	req.Horizon = 10
	req.HistoryYears = 1
	res, err = r.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Forecast.Future()) != 10 {
		t.Fatalf("future rows = %d", len(res.Forecast.Future()))
	}
	if r.Adapter.Horizon != forecast.DefaultHorizon {
		t.Fatal("request horizon leaked into the shared adapter")
	}
}

func TestRequestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Request)
	}{
		{"empty symbol", func(r *Request) { r.Symbol = " " }},
		{"bad period", func(r *Request) { r.Period = "2d" }},
		{"bad interval", func(r *Request) { r.Interval = "3m" }},
		{"zero window", func(r *Request) { r.Indicators = []model.IndicatorSpec{model.SMA(0)} }},
		{"no history", func(r *Request) { r.HistoryYears = 0 }},
		{"negative horizon", func(r *Request) { r.Horizon = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := NewRequest("AAPL")
			tc.mutate(&req)
			if err := req.Validate(); !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("err = %v, want ErrInvalidRequest", err)
			}
		})
	}
	if err := NewRequest("AAPL").Validate(); err != nil {
		t.Fatalf("default request: %v", err)
	}
}

func TestRunForecastOnly(t *testing.T) {
	f := &collector.MockFetcher{Price: 100, Now: fixedNow}
	r, rec := newTestRunner(f)
	req := Request{Symbol: "AAPL", HistoryYears: 1, Horizon: 30}

	res, err := r.RunForecast(context.Background(), req)
	if err != nil {
		t.Fatalf("RunForecast: %v", err)
	}
	if res.Table != nil || f.Calls() != 1 {
		t.Fatalf("short-window stages ran: table=%v calls=%d", res.Table, f.Calls())
	}
	if len(res.Forecast.Future()) != 30 {
		t.Fatalf("future rows = %d", len(res.Forecast.Future()))
	}
	if len(rec.stages) != 2 || rec.stages[0] != "history" {
		t.Fatalf("stages = %v", rec.stages)
	}

	if _, err := r.RunForecast(context.Background(), Request{Symbol: "AAPL"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("zero history years err = %v", err)
	}
}
