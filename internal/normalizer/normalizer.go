package normalizer

import (
	"fmt"
	"time"

	"StockScope/internal/model"
)

// Normalize turns fetched rows into a table keyed by a single canonical time.
// Intraday intervals key on Datetime, coarser ones on Date. Corporate-action
// fields are dropped and prices are copied untouched. The row count and order
// are preserved; a key that is missing or not strictly increasing is rejected
// rather than repaired.
func Normalize(symbol string, interval model.Interval, raw []model.RawBar) (*model.Table, error) {
	if !interval.Valid() {
		return nil, fmt.Errorf("%w: unknown interval %q", model.ErrDataUnavailable, interval)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no rows for %s", model.ErrDataUnavailable, symbol)
	}

	field := "Date"
	if interval.Intraday() {
		field = "Datetime"
	}

	bars := make([]model.OHLCV, len(raw))
	var prev time.Time
	for i, r := range raw {
		ts := r.Date
		if interval.Intraday() {
			ts = r.Datetime
		}
		if ts.IsZero() {
			return nil, fmt.Errorf("%w: row %d has no %s", model.ErrDataUnavailable, i, field)
		}
		if i > 0 && !ts.After(prev) {
			return nil, fmt.Errorf("%w: row %d %s %s does not follow %s",
				model.ErrDataUnavailable, i, field, ts.Format(time.RFC3339), prev.Format(time.RFC3339))
		}
		prev = ts
		bars[i] = model.OHLCV{
			Time:   ts,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		}
	}
	return model.NewTable(symbol, interval, bars), nil
}

// Denormalize rebuilds the raw view of a table, placing each stamp in the
// field its interval selects. Corporate actions come back as zero.
func Denormalize(t *model.Table) []model.RawBar {
	raw := make([]model.RawBar, len(t.Bars))
	for i, b := range t.Bars {
		raw[i] = model.RawBar{Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
		if t.Interval.Intraday() {
			raw[i].Datetime = b.Time
		} else {
			raw[i].Date = b.Time
		}
	}
	return raw
}
