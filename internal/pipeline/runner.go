package pipeline

import (
	"context"
	"fmt"
	"time"

	"StockScope/internal/calculator"
	"StockScope/internal/collector"
	"StockScope/internal/forecast"
	"StockScope/internal/model"
	"StockScope/internal/normalizer"

	"go.uber.org/zap"
)

// Stage names one step of a run.
type Stage string

const (
	StageFetch      Stage = "fetch"
	StageNormalize  Stage = "normalize"
	StageIndicators Stage = "indicators"
	StageHistory    Stage = "history"
	StageForecast   Stage = "forecast"
)

// StageError is the single failure of a run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Observer receives stage and run outcomes.
type Observer interface {
	ObserveStage(stage string, took time.Duration, err error)
	ObserveRun(symbol string, lastClose float64, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveStage(string, time.Duration, error) {}
func (nopObserver) ObserveRun(string, float64, error)         {}

// StageTiming records how long a stage took.
type StageTiming struct {
	Stage Stage
	Took  time.Duration
}

// Result carries whatever the run produced before it finished or failed.
type Result struct {
	Request  Request
	Table    *model.Table // annotated; plain normalized table when indicators fail
	Summary  model.Summary
	History  *model.Table
	Forecast *model.Forecast
	Failure  *StageError
	Timings  []StageTiming
	Started  time.Time
	Finished time.Time
}

// OK reports whether every stage completed.
func (r *Result) OK() bool { return r.Failure == nil }

// Runner executes fetch, normalize, indicators, long history and forecast in order.
type Runner struct {
	Fetcher  collector.Fetcher
	Adapter  *forecast.Adapter
	Observer Observer
	Logger   *zap.Logger
	Now      func() time.Time
}

// NewRunner wires a runner; adapter may be nil when forecasts are never requested.
func NewRunner(f collector.Fetcher, adapter *forecast.Adapter, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		Fetcher:  f,
		Adapter:  adapter,
		Observer: nopObserver{},
		Logger:   logger,
		Now:      time.Now,
	}
}

// run tracks one pass through the stages.
type run struct {
	obs Observer
	log *zap.Logger
	res *Result
}

func (r *Runner) begin(req Request) *run {
	obs := r.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	return &run{
		obs: obs,
		log: r.Logger.With(zap.String("symbol", req.Symbol),
			zap.String("period", string(req.Period)), zap.String("interval", string(req.Interval))),
		res: &Result{Request: req, Started: r.Now()},
	}
}

// step runs one stage and reports whether the run may continue.
func (p *run) step(stage Stage, fn func() error) bool {
	start := time.Now()
	err := fn()
	took := time.Since(start)
	p.obs.ObserveStage(string(stage), took, err)
	p.res.Timings = append(p.res.Timings, StageTiming{Stage: stage, Took: took})
	if err != nil {
		p.res.Failure = &StageError{Stage: stage, Err: err}
		p.log.Warn("stage failed", zap.String("stage", string(stage)), zap.Error(err))
		return false
	}
	p.log.Debug("stage done", zap.String("stage", string(stage)), zap.Duration("took", took))
	return true
}

func (r *Runner) finish(p *run) (*Result, error) {
	res := p.res
	res.Finished = r.Now()
	var err error
	if res.Failure != nil {
		err = res.Failure
	}
	p.obs.ObserveRun(res.Request.Symbol, res.Summary.LastClose, err)
	p.log.Info("run finished", zap.Bool("ok", err == nil), zap.Duration("took", res.Finished.Sub(res.Started)))
	return res, err
}

// Run performs one complete, stateless pass. The first failing stage stops
// the run; the returned error is that stage's *StageError and the Result
// keeps what earlier stages produced.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p := r.begin(req)
	res := p.res

	var raw []model.RawBar
	ok := p.step(StageFetch, func() (err error) {
		raw, err = r.Fetcher.FetchBars(ctx, req.Symbol, req.Period, req.Interval)
		return err
	}) && p.step(StageNormalize, func() (err error) {
		res.Table, err = normalizer.Normalize(req.Symbol, req.Interval, raw)
		if err != nil {
			return err
		}
		res.Summary, err = calculator.Summarize(res.Table)
		return err
	}) && p.step(StageIndicators, func() error {
		annotated, err := calculator.Apply(res.Table, req.Indicators)
		if err != nil {
			return err
		}
		res.Table = annotated
		return nil
	})

	if ok && !req.SkipForecast {
		r.forecastStages(ctx, p)
	}
	return r.finish(p)
}

// RunForecast performs only the long-history fetch and the forecast.
// Period, Interval and Indicators of the request are ignored.
func (r *Runner) RunForecast(ctx context.Context, req Request) (*Result, error) {
	req.Indicators, req.SkipForecast = nil, false
	if err := req.validateForecast(); err != nil {
		return nil, err
	}
	p := r.begin(req)
	r.forecastStages(ctx, p)
	return r.finish(p)
}

func (r *Runner) forecastStages(ctx context.Context, p *run) bool {
	req, res := p.res.Request, p.res
	return p.step(StageHistory, func() error {
		daily, err := collector.FetchLongHistory(ctx, r.Fetcher, req.Symbol, req.HistoryYears, r.Now())
		if err != nil {
			return err
		}
		res.History, err = normalizer.Normalize(req.Symbol, model.Interval1d, daily)
		return err
	}) && p.step(StageForecast, func() error {
		if r.Adapter == nil {
			return fmt.Errorf("%w: no forecaster configured", model.ErrComputation)
		}
		a := *r.Adapter
		if req.Horizon > 0 {
			a.Horizon = req.Horizon
		}
		fc, err := a.Forecast(ctx, res.History)
		res.Forecast = fc
		return err
	})
}
