package forecast

import (
	"context"
	"time"

	"StockScope/internal/model"
)

// Point is one observation handed to a forecaster. T carries no timezone.
type Point struct {
	T time.Time
	Y float64
}

// Options control a single fit.
type Options struct {
	Horizon           int     // future periods beyond the last observation
	IntervalWidth     float64 // coverage of the lower/upper band, e.g. 0.8
	DailySeasonality  bool
	WeeklySeasonality *bool // nil selects automatically from the data span
	YearlySeasonality *bool // nil selects automatically from the data span
}

// Forecaster fits a series and returns one row per observation followed by
// Horizon future rows, each with Lower <= Point <= Upper.
type Forecaster interface {
	Fit(ctx context.Context, series []Point, opts Options) ([]model.ForecastRow, error)
	Name() string
}
