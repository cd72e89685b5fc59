package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// RawBar is a bar as delivered by a fetcher, before normalization.
// Intraday rows carry Datetime, daily-or-coarser rows carry Date.
type RawBar struct {
	Datetime    time.Time
	Date        time.Time
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      int64
	Dividends   float64
	StockSplits float64
}

// Stamp returns whichever native time field is set, preferring Datetime.
func (b RawBar) Stamp() time.Time {
	if !b.Datetime.IsZero() {
		return b.Datetime
	}
	return b.Date
}

// ForecastRow is one point of a forecast curve.
type ForecastRow struct {
	Time  time.Time
	Point float64
	Lower float64
	Upper float64
}

// Forecast holds the fitted history plus the future extension.
type Forecast struct {
	Symbol      string
	Rows        []ForecastRow
	HistoryRows int
	Horizon     int
}

// Future returns the trailing horizon rows.
func (f *Forecast) Future() []ForecastRow {
	if f == nil || f.Horizon <= 0 || len(f.Rows) < f.Horizon {
		return nil
	}
	return f.Rows[len(f.Rows)-f.Horizon:]
}

// Summary describes the shape of a table at a glance.
type Summary struct {
	LastClose float64
	Change    float64 // fractional change since the first close
	High      float64
	Low       float64
	Position  float64 // 0.0 ~ 1.0
	Rows      int
}
