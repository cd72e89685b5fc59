package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"StockScope/internal/model"

	"go.uber.org/zap"
)

func dailyTable(n int, loc *time.Location, f func(i int) float64) *model.Table {
	bars := make([]model.OHLCV, n)
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, loc)
	for i := range bars {
		c := f(i)
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 100}
	}
	return model.NewTable("TEST", model.Interval1d, bars)
}

func noisy(i int) float64 {
	x := float64(i)
	return 100 + 0.1*x + 3*math.Sin(2*math.Pi*x/7) + 0.8*math.Sin(1.7*x)
}

type recordingForecaster struct {
	series []Point
	opts   Options
	rows   int // rows returned beyond the series; -1 means series+horizon
}

func (r *recordingForecaster) Name() string { return "recording" }

func (r *recordingForecaster) Fit(_ context.Context, series []Point, opts Options) ([]model.ForecastRow, error) {
	r.series = series
	r.opts = opts
	extra := opts.Horizon
	if r.rows >= 0 {
		extra = r.rows
	}
	out := make([]model.ForecastRow, 0, len(series)+extra)
	for _, p := range series {
		out = append(out, model.ForecastRow{Time: p.T, Point: p.Y, Lower: p.Y, Upper: p.Y})
	}
	for i := 1; i <= extra; i++ {
		out = append(out, model.ForecastRow{Time: series[len(series)-1].T.AddDate(0, 0, i)})
	}
	return out, nil
}

func TestAdapterRowCountAndFuture(t *testing.T) {
	a := NewAdapter(NewAdditiveModel(), zap.NewNop())
	tbl := dailyTable(250, time.UTC, noisy)

	fc, err := a.Forecast(context.Background(), tbl)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(fc.Rows) != 250+DefaultHorizon {
		t.Fatalf("rows = %d, want %d", len(fc.Rows), 250+DefaultHorizon)
	}
	future := fc.Future()
	if len(future) != DefaultHorizon {
		t.Fatalf("future rows = %d", len(future))
	}
	last := tbl.Bars[len(tbl.Bars)-1].Time
	for i, r := range future {
		if want := last.AddDate(0, 0, i+1); !r.Time.Equal(want) {
			t.Fatalf("future[%d] = %v, want %v", i, r.Time, want)
		}
	}
	for i, r := range fc.Rows {
		if !(r.Lower <= r.Point && r.Point <= r.Upper) {
			t.Fatalf("row %d: bounds out of order: %v <= %v <= %v", i, r.Lower, r.Point, r.Upper)
		}
	}
}

func TestAdapterStripsTimezone(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	rec := &recordingForecaster{rows: -1}
	a := NewAdapter(rec, nil)
	tbl := dailyTable(40, ist, noisy)

	if _, err := a.Forecast(context.Background(), tbl); err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(rec.series) != 40 {
		t.Fatalf("series length = %d", len(rec.series))
	}
	for i, p := range rec.series {
		src := tbl.Bars[i].Time
		if p.T.Location() != time.UTC {
			t.Fatalf("point %d still carries location %v", i, p.T.Location())
		}
		if p.T.Year() != src.Year() || p.T.YearDay() != src.YearDay() || p.T.Hour() != src.Hour() {
			t.Fatalf("point %d wall clock changed: %v vs %v", i, p.T, src)
		}
		if p.Y != tbl.Bars[i].Close {
			t.Fatalf("point %d value = %v", i, p.Y)
		}
	}
	if rec.opts.DailySeasonality {
		t.Error("daily seasonality should be disabled")
	}
	if rec.opts.Horizon != DefaultHorizon {
		t.Errorf("horizon = %d", rec.opts.Horizon)
	}
}

func TestAdapterInsufficientHistory(t *testing.T) {
	a := NewAdapter(NewAdditiveModel(), nil)
	_, err := a.Forecast(context.Background(), dailyTable(29, time.UTC, noisy))
	if !errors.Is(err, model.ErrInsufficientHistory) {
		t.Fatalf("err = %v, want ErrInsufficientHistory", err)
	}
	_, err = a.Forecast(context.Background(), nil)
	if !errors.Is(err, model.ErrInsufficientHistory) {
		t.Fatalf("nil table err = %v", err)
	}
}

func TestAdapterRejectsShortOutput(t *testing.T) {
	a := NewAdapter(&recordingForecaster{rows: 10}, nil)
	_, err := a.Forecast(context.Background(), dailyTable(40, time.UTC, noisy))
	if !errors.Is(err, model.ErrComputation) {
		t.Fatalf("err = %v, want ErrComputation", err)
	}
}

func TestAdditiveRecoversLinearTrend(t *testing.T) {
	series := Series(dailyTable(200, time.UTC, func(i int) float64 { return 10 + 0.5*float64(i) }))
	rows, err := NewAdditiveModel().Fit(context.Background(), series, Options{Horizon: 5})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	for h := 1; h <= 5; h++ {
		got := rows[200+h-1].Point
		want := 10 + 0.5*float64(199+h)
		if math.Abs(got-want) > 1e-4 {
			t.Errorf("h=%d: point = %v, want %v", h, got, want)
		}
	}
}

func TestAdditiveBandsWidenWithHorizon(t *testing.T) {
	series := Series(dailyTable(120, time.UTC, noisy))
	rows, err := NewAdditiveModel().Fit(context.Background(), series, Options{Horizon: 30, IntervalWidth: 0.8})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	future := rows[120:]
	first := future[0].Upper - future[0].Lower
	last := future[len(future)-1].Upper - future[len(future)-1].Lower
	if !(first > 0 && last > first) {
		t.Fatalf("band widths: first %v, last %v", first, last)
	}
}

func TestAdditiveLongSpanWithGaps(t *testing.T) {
	// Business days over three years enables yearly and weekly terms.
	var series []Point
	d := time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)
	for i := 0; len(series) < 780; i++ {
		day := d.AddDate(0, 0, i)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		series = append(series, Point{T: day, Y: noisy(i)})
	}
	rows, err := NewAdditiveModel().Fit(context.Background(), series, Options{Horizon: DefaultHorizon})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if len(rows) != len(series)+DefaultHorizon {
		t.Fatalf("rows = %d", len(rows))
	}
	for i, r := range rows {
		if math.IsNaN(r.Point) || r.Lower > r.Point || r.Point > r.Upper {
			t.Fatalf("row %d invalid: %+v", i, r)
		}
	}
}

func TestAdditiveRejectsBadInput(t *testing.T) {
	m := NewAdditiveModel()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name   string
		series []Point
		want   error
	}{
		{"single", []Point{{T: now, Y: 1}}, model.ErrInsufficientHistory},
		{"duplicate time", []Point{{T: now, Y: 1}, {T: now, Y: 2}}, model.ErrComputation},
		{"nan", []Point{{T: now, Y: 1}, {T: now.Add(day), Y: math.NaN()}}, model.ErrComputation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Fit(context.Background(), tc.series, Options{Horizon: 1})
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRemoteForecaster(t *testing.T) {
	var got fitRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forecast" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var resp fitResponse
		last, _ := time.Parse(dsLayout, got.DS[len(got.DS)-1])
		for i, ds := range got.DS {
			resp.DS = append(resp.DS, ds)
			resp.YHat = append(resp.YHat, got.Y[i])
			resp.YHatLower = append(resp.YHatLower, got.Y[i]-1)
			resp.YHatUpper = append(resp.YHatUpper, got.Y[i]+1)
		}
		for h := 1; h <= got.Periods; h++ {
			resp.DS = append(resp.DS, last.AddDate(0, 0, h).Format(time.DateOnly))
			resp.YHat = append(resp.YHat, 1)
			resp.YHatLower = append(resp.YHatLower, 0)
			resp.YHatUpper = append(resp.YHatUpper, 2)
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	a := NewAdapter(NewRemoteForecaster(srv.URL, 5*time.Second), nil)
	a.Horizon = 10
	fc, err := a.Forecast(context.Background(), dailyTable(35, time.UTC, noisy))
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(fc.Rows) != 45 {
		t.Fatalf("rows = %d", len(fc.Rows))
	}
	if got.Periods != 10 || got.DailySeasonality || len(got.Y) != 35 {
		t.Fatalf("unexpected request: periods=%d daily=%v n=%d", got.Periods, got.DailySeasonality, len(got.Y))
	}
	if want := time.Date(2023, 2, 6, 0, 0, 0, 0, time.UTC); !fc.Future()[0].Time.Equal(want) {
		t.Fatalf("first future = %v, want %v", fc.Future()[0].Time, want)
	}
}

func TestRemoteForecasterErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	series := Series(dailyTable(5, time.UTC, noisy))
	_, err := NewRemoteForecaster(srv.URL, time.Second).Fit(context.Background(), series, Options{Horizon: 1})
	if !errors.Is(err, model.ErrDataUnavailable) {
		t.Fatalf("status error = %v", err)
	}

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ds":["2024-01-01"],"yhat":[1,2],"yhat_lower":[0],"yhat_upper":[2]}`))
	}))
	defer bad.Close()
	_, err = NewRemoteForecaster(bad.URL, time.Second).Fit(context.Background(), series, Options{Horizon: 1})
	if !errors.Is(err, model.ErrComputation) {
		t.Fatalf("mismatch error = %v", err)
	}
}
