package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"StockScope/internal/model"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const day = 24 * time.Hour

// AdditiveModel fits y(t) = trend(t) + seasonality(t) + noise, with a linear
// trend and Fourier-series seasonal terms, by penalized least squares on
// scaled time and values. Bands come from the residual spread and widen with
// the distance past the last observation.
type AdditiveModel struct {
	WeeklyOrder int
	YearlyOrder int
	DailyOrder  int
	// Penalty is the ridge weight applied to seasonal coefficients only.
	Penalty float64
}

// NewAdditiveModel returns a model with the customary Fourier orders.
func NewAdditiveModel() *AdditiveModel {
	return &AdditiveModel{WeeklyOrder: 3, YearlyOrder: 10, DailyOrder: 4, Penalty: 0.01}
}

func (m *AdditiveModel) Name() string { return "additive" }

type seasonality struct {
	period float64 // days
	order  int
}

type design struct {
	t0      time.Time
	span    float64 // days
	seasons []seasonality
}

func (d design) width() int {
	w := 2
	for _, s := range d.seasons {
		w += 2 * s.order
	}
	return w
}

func (d design) row(t time.Time) []float64 {
	out := make([]float64, 0, d.width())
	out = append(out, 1, t.Sub(d.t0).Hours()/24/d.span)
	epochDays := float64(t.Unix()) / 86400
	for _, s := range d.seasons {
		for k := 1; k <= s.order; k++ {
			x := 2 * math.Pi * float64(k) * epochDays / s.period
			out = append(out, math.Sin(x), math.Cos(x))
		}
	}
	return out
}

func enabled(flag *bool, auto bool) bool {
	if flag != nil {
		return *flag
	}
	return auto
}

func (m *AdditiveModel) Fit(ctx context.Context, series []Point, opts Options) ([]model.ForecastRow, error) {
	n := len(series)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 observations, have %d", model.ErrInsufficientHistory, n)
	}
	if opts.Horizon < 0 {
		return nil, fmt.Errorf("%w: negative horizon", model.ErrComputation)
	}
	scale := 0.0
	for i, p := range series {
		if math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			return nil, fmt.Errorf("%w: observation %d is not a number", model.ErrComputation, i)
		}
		if i > 0 && !p.T.After(series[i-1].T) {
			return nil, fmt.Errorf("%w: observation %d is not after its predecessor", model.ErrComputation, i)
		}
		scale = math.Max(scale, math.Abs(p.Y))
	}
	if scale == 0 {
		scale = 1
	}

	d := design{t0: series[0].T, span: series[n-1].T.Sub(series[0].T).Hours() / 24}
	if enabled(opts.YearlySeasonality, d.span >= 730) && m.YearlyOrder > 0 {
		d.seasons = append(d.seasons, seasonality{period: 365.25, order: m.YearlyOrder})
	}
	if enabled(opts.WeeklySeasonality, d.span >= 14) && m.WeeklyOrder > 0 {
		d.seasons = append(d.seasons, seasonality{period: 7, order: m.WeeklyOrder})
	}
	if opts.DailySeasonality && m.DailyOrder > 0 {
		d.seasons = append(d.seasons, seasonality{period: 1, order: m.DailyOrder})
	}

	p := d.width()
	x := mat.NewDense(n, p, nil)
	y := mat.NewVecDense(n, nil)
	for i, pt := range series {
		x.SetRow(i, d.row(pt.T))
		y.SetVec(i, pt.Y/scale)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for j := 2; j < p; j++ {
		xtx.Set(j, j, xtx.At(j, j)+m.Penalty)
	}
	var xty, beta mat.VecDense
	xty.MulVec(x.T(), y)
	if err := beta.SolveVec(&xtx, &xty); err != nil {
		return nil, fmt.Errorf("%w: solve: %v", model.ErrComputation, err)
	}

	predict := func(t time.Time) float64 {
		r := d.row(t)
		v := 0.0
		for j, c := range r {
			v += c * beta.AtVec(j)
		}
		return v * scale
	}

	rows := make([]model.ForecastRow, 0, n+opts.Horizon)
	resid := make([]float64, n)
	for i, pt := range series {
		yhat := predict(pt.T)
		resid[i] = pt.Y - yhat
		rows = append(rows, model.ForecastRow{Time: pt.T, Point: yhat})
	}
	sigma := stat.StdDev(resid, nil)
	if math.IsNaN(sigma) {
		sigma = 0
	}

	width := opts.IntervalWidth
	if width <= 0 || width >= 1 {
		width = DefaultIntervalWidth
	}
	z := distuv.UnitNormal.Quantile(0.5 + width/2)

	for i := range rows {
		band := z * sigma
		rows[i].Lower = rows[i].Point - band
		rows[i].Upper = rows[i].Point + band
	}
	last := series[n-1].T
	for h := 1; h <= opts.Horizon; h++ {
		t := last.Add(time.Duration(h) * day)
		yhat := predict(t)
		band := z * sigma * math.Sqrt(1+float64(h)/float64(n))
		rows = append(rows, model.ForecastRow{Time: t, Point: yhat, Lower: yhat - band, Upper: yhat + band})
	}
	return rows, nil
}
