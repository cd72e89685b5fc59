package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"StockScope/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchBars returns bars covering period at the given interval. The
	// period/interval pair is checked before anything is requested.
	FetchBars(ctx context.Context, symbol string, period model.Period, interval model.Interval) ([]model.RawBar, error)
	// FetchDaily returns daily bars between from and to.
	FetchDaily(ctx context.Context, symbol string, from, to time.Time) ([]model.RawBar, error)
	Name() string
}

// FetchLongHistory returns daily bars covering [now - years, now].
func FetchLongHistory(ctx context.Context, f Fetcher, symbol string, years int, now time.Time) ([]model.RawBar, error) {
	if years < 1 {
		return nil, fmt.Errorf("%w: history years must be >= 1, got %d", model.ErrDataUnavailable, years)
	}
	return f.FetchDaily(ctx, symbol, now.AddDate(-years, 0, 0), now)
}

// orderBars sorts bars chronologically and drops duplicate stamps, keeping the last occurrence.
func orderBars(bars []model.RawBar) []model.RawBar {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Stamp().Before(bars[j].Stamp()) })
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Stamp().Equal(b.Stamp()) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

// stampBar places the timestamp in the field matching the interval's granularity class.
func stampBar(b *model.RawBar, ts time.Time, loc *time.Location, interval model.Interval) {
	local := ts.In(loc)
	if interval.Intraday() {
		b.Datetime = local
		return
	}
	y, m, d := local.Date()
	b.Date = time.Date(y, m, d, 0, 0, 0, 0, loc)
}
