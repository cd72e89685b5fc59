package main

import (
	"fmt"

	"StockScope/internal/collector"
	"StockScope/internal/config"
	"StockScope/internal/forecast"
	"StockScope/internal/metrics"
	"StockScope/internal/pipeline"
	"StockScope/internal/recorder"

	"go.uber.org/zap"
)

func newFetcher(cfg *config.Config, log *zap.Logger) (collector.Fetcher, error) {
	ds := cfg.DataSource
	switch ds.Provider {
	case "yahoo":
		f := collector.NewYahooFetcher(cfg.Proxy, ds.Timeout, ds.RequestsPerSecond, log)
		for k, v := range ds.SymbolMap {
			f.SymbolMap[k] = v
		}
		return f, nil
	case "rest":
		return collector.NewRESTFetcher(ds.BaseURL, ds.APIKey, cfg.Proxy, ds.Timeout, log), nil
	case "mock":
		return &collector.MockFetcher{Price: ds.MockPrice}, nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", ds.Provider)
	}
}

func newAdapter(cfg *config.Config, log *zap.Logger) *forecast.Adapter {
	fc := cfg.Forecast
	var f forecast.Forecaster = forecast.NewAdditiveModel()
	if fc.Provider == "remote" {
		f = forecast.NewRemoteForecaster(fc.RemoteURL, fc.Timeout)
	}
	a := forecast.NewAdapter(f, log)
	a.Horizon = fc.Horizon
	a.MinRows = fc.MinRows
	a.IntervalWidth = fc.IntervalWidth
	return a
}

// newRunner wires fetcher, forecaster and, when m is non-nil, metrics.
func newRunner(cfg *config.Config, log *zap.Logger, m *metrics.Metrics) (*pipeline.Runner, error) {
	f, err := newFetcher(cfg, log)
	if err != nil {
		return nil, err
	}
	log.Info("data source", zap.String("provider", f.Name()))
	r := pipeline.NewRunner(f, newAdapter(cfg, log), log)
	if m != nil {
		r.Observer = m
	}
	return r, nil
}

func newRecorder(cfg *config.Config, log *zap.Logger) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
	if err != nil {
		log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		return recorder.NewNoopRecorder()
	}
	return sr
}
