package collector

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"StockScope/internal/model"
)

// MockFetcher returns controllable synthetic data for development and testing.
type MockFetcher struct {
	Price float64
	// Bars overrides FetchBars output when set.
	Bars []model.RawBar
	// Daily overrides FetchDaily output when set.
	Daily []model.RawBar
	// Now anchors generated timestamps; zero means time.Now.
	Now time.Time
	Err error

	mu    sync.Mutex
	calls int
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls reports how many fetches reached the mock.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockFetcher) count() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

func (m *MockFetcher) now() time.Time {
	if m.Now.IsZero() {
		return time.Now().UTC()
	}
	return m.Now
}

func (m *MockFetcher) FetchBars(_ context.Context, _ string, period model.Period, interval model.Interval) ([]model.RawBar, error) {
	if err := model.CheckRange(period, interval); err != nil {
		return nil, err
	}
	m.count()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	return generateMockBars(m.Price, periodRows(period, interval), interval, m.now()), nil
}

func (m *MockFetcher) FetchDaily(_ context.Context, _ string, from, to time.Time) ([]model.RawBar, error) {
	m.count()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Daily != nil {
		return m.Daily, nil
	}
	days := int(to.Sub(from).Hours() / 24)
	if days <= 0 {
		return nil, fmt.Errorf("%w: empty date range", model.ErrDataUnavailable)
	}
	return generateMockBars(m.Price, days, model.Interval1d, to), nil
}

var periodSpan = map[model.Period]time.Duration{
	model.Period1D:  24 * time.Hour,
	model.Period5D:  5 * 24 * time.Hour,
	model.Period1Mo: 30 * 24 * time.Hour,
	model.Period3Mo: 91 * 24 * time.Hour,
	model.Period6Mo: 182 * 24 * time.Hour,
	model.Period1Y:  365 * 24 * time.Hour,
	model.PeriodYTD: 180 * 24 * time.Hour,
	model.Period2Y:  2 * 365 * 24 * time.Hour,
	model.Period5Y:  5 * 365 * 24 * time.Hour,
	model.Period10Y: 10 * 365 * 24 * time.Hour,
	model.PeriodMax: 20 * 365 * 24 * time.Hour,
}

func periodRows(period model.Period, interval model.Interval) int {
	n := int(periodSpan[period] / interval.Duration())
	if n < 1 {
		n = 1
	}
	return n
}

// generateMockBars produces a gently trending, oscillating series ending at end.
func generateMockBars(basePrice float64, count int, interval model.Interval, end time.Time) []model.RawBar {
	step := interval.Duration()
	start := end.Add(-time.Duration(count) * step)
	bars := make([]model.RawBar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001 + 0.01*math.Sin(float64(i)/5))
		bars[i] = model.RawBar{
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
		stampBar(&bars[i], start.Add(time.Duration(i+1)*step), time.UTC, interval)
	}
	return bars
}
