package forecast

import (
	"context"
	"fmt"
	"time"

	"StockScope/internal/model"

	"go.uber.org/zap"
)

const (
	// DefaultHorizon is the number of future periods requested.
	DefaultHorizon = 90
	// DefaultMinRows is the least history accepted for a fit.
	DefaultMinRows = 30
	// DefaultIntervalWidth is the coverage of the uncertainty band.
	DefaultIntervalWidth = 0.8
)

// Adapter reshapes a daily table into a (time, close) series and runs a Forecaster over it.
type Adapter struct {
	Forecaster    Forecaster
	Horizon       int
	MinRows       int
	IntervalWidth float64
	Logger        *zap.Logger
}

// NewAdapter creates an adapter with the default horizon and history requirements.
func NewAdapter(f Forecaster, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		Forecaster:    f,
		Horizon:       DefaultHorizon,
		MinRows:       DefaultMinRows,
		IntervalWidth: DefaultIntervalWidth,
		Logger:        logger,
	}
}

// Naive drops the timezone of t, keeping its wall clock.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Series projects a table onto naive (time, close) points in chronological order.
func Series(t *model.Table) []Point {
	pts := make([]Point, len(t.Bars))
	for i, b := range t.Bars {
		pts[i] = Point{T: Naive(b.Time), Y: b.Close}
	}
	return pts
}

// Forecast fits the closing prices of t with daily seasonality disabled and
// returns the fitted history plus Horizon future rows.
func (a *Adapter) Forecast(ctx context.Context, t *model.Table) (*model.Forecast, error) {
	minRows := max(a.MinRows, 2)
	if t == nil || t.Len() < minRows {
		n := 0
		if t != nil {
			n = t.Len()
		}
		return nil, fmt.Errorf("%w: forecast needs %d rows, have %d", model.ErrInsufficientHistory, minRows, n)
	}
	if a.Horizon < 1 {
		return nil, fmt.Errorf("%w: forecast horizon must be >= 1", model.ErrComputation)
	}

	series := Series(t)
	start := time.Now()
	rows, err := a.Forecaster.Fit(ctx, series, Options{
		Horizon:          a.Horizon,
		IntervalWidth:    a.IntervalWidth,
		DailySeasonality: false,
	})
	if err != nil {
		return nil, fmt.Errorf("%s forecast: %w", a.Forecaster.Name(), err)
	}
	if want := len(series) + a.Horizon; len(rows) != want {
		return nil, fmt.Errorf("%w: %s returned %d rows, want %d", model.ErrComputation, a.Forecaster.Name(), len(rows), want)
	}
	a.Logger.Info("forecast fitted",
		zap.String("symbol", t.Symbol),
		zap.String("forecaster", a.Forecaster.Name()),
		zap.Int("history", len(series)),
		zap.Int("horizon", a.Horizon),
		zap.Duration("took", time.Since(start)))

	return &model.Forecast{
		Symbol:      t.Symbol,
		Rows:        rows,
		HistoryRows: len(series),
		Horizon:     a.Horizon,
	}, nil
}
