// Package report shapes pipeline results for JSON consumers and terminals.
package report

import (
	"math"
	"time"

	"StockScope/internal/model"
	"StockScope/internal/pipeline"

	"github.com/guregu/null/v6"
)

// Float maps undefined (NaN or infinite) values to JSON null.
func Float(v float64) null.Float {
	return null.NewFloat(v, !math.IsNaN(v) && !math.IsInf(v, 0))
}

type Row struct {
	Time   time.Time    `json:"time"`
	Open   float64      `json:"open"`
	High   float64      `json:"high"`
	Low    float64      `json:"low"`
	Close  float64      `json:"close"`
	Volume int64        `json:"volume"`
	Values []null.Float `json:"values"`
}

// Table lists rows with indicator values in the order of Columns.
type Table struct {
	Symbol   string   `json:"symbol"`
	Interval string   `json:"interval"`
	Columns  []string `json:"columns"`
	Rows     []Row    `json:"rows"`
}

type ForecastRow struct {
	Time  time.Time  `json:"ds"`
	Point null.Float `json:"yhat"`
	Lower null.Float `json:"yhat_lower"`
	Upper null.Float `json:"yhat_upper"`
}

type Forecast struct {
	Symbol      string        `json:"symbol"`
	HistoryRows int           `json:"history_rows"`
	Horizon     int           `json:"horizon"`
	Rows        []ForecastRow `json:"rows"`
}

type Summary struct {
	LastClose float64 `json:"last_close"`
	Change    float64 `json:"change"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Position  float64 `json:"position"`
	Rows      int     `json:"rows"`
}

// Run is the outbound view of one pipeline run.
type Run struct {
	Symbol      string             `json:"symbol"`
	Period      string             `json:"period"`
	Interval    string             `json:"interval"`
	Indicators  []string           `json:"indicators"`
	OK          bool               `json:"ok"`
	FailedStage null.String        `json:"failed_stage"`
	Error       null.String        `json:"error"`
	Summary     *Summary           `json:"summary,omitempty"`
	Table       *Table             `json:"table,omitempty"`
	Forecast    *Forecast          `json:"forecast,omitempty"`
	TimingsMS   map[string]float64 `json:"timings_ms"`
}

// Options trims what FromResult includes.
type Options struct {
	Tail       int  // last N table rows; 0 keeps all
	FutureOnly bool // forecast rows beyond the history only
}

// FromTable converts a table, keeping the last tail rows when tail > 0.
func FromTable(t *model.Table, tail int) *Table {
	if t == nil {
		return nil
	}
	cols := t.Columns()
	out := &Table{Symbol: t.Symbol, Interval: string(t.Interval), Columns: make([]string, len(cols))}
	for i, c := range cols {
		out.Columns[i] = c.Name
	}
	start := 0
	if tail > 0 && tail < t.Len() {
		start = t.Len() - tail
	}
	out.Rows = make([]Row, 0, t.Len()-start)
	for i := start; i < t.Len(); i++ {
		b := t.Bars[i]
		row := Row{Time: b.Time, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume,
			Values: make([]null.Float, len(cols))}
		for j, c := range cols {
			row.Values[j] = Float(c.Values[i])
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// FromForecast converts a forecast, optionally keeping only the future rows.
func FromForecast(f *model.Forecast, futureOnly bool) *Forecast {
	if f == nil {
		return nil
	}
	rows := f.Rows
	if futureOnly {
		rows = f.Future()
	}
	out := &Forecast{Symbol: f.Symbol, HistoryRows: f.HistoryRows, Horizon: f.Horizon, Rows: make([]ForecastRow, len(rows))}
	for i, r := range rows {
		out.Rows[i] = ForecastRow{Time: r.Time, Point: Float(r.Point), Lower: Float(r.Lower), Upper: Float(r.Upper)}
	}
	return out
}

// FromResult converts a (possibly failed) run.
func FromResult(res *pipeline.Result, opts Options) Run {
	req := res.Request
	run := Run{
		Symbol:     req.Symbol,
		Period:     string(req.Period),
		Interval:   string(req.Interval),
		Indicators: make([]string, len(req.Indicators)),
		OK:         res.OK(),
		Table:      FromTable(res.Table, opts.Tail),
		Forecast:   FromForecast(res.Forecast, opts.FutureOnly),
		TimingsMS:  make(map[string]float64, len(res.Timings)),
	}
	for i, spec := range req.Indicators {
		run.Indicators[i] = spec.String()
	}
	if res.Failure != nil {
		run.FailedStage = null.StringFrom(string(res.Failure.Stage))
		run.Error = null.StringFrom(res.Failure.Err.Error())
	}
	if res.Table != nil {
		s := res.Summary
		run.Summary = &Summary{LastClose: s.LastClose, Change: s.Change, High: s.High, Low: s.Low, Position: s.Position, Rows: s.Rows}
	}
	for _, st := range res.Timings {
		run.TimingsMS[string(st.Stage)] = float64(st.Took.Microseconds()) / 1000
	}
	return run
}
