package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"StockScope/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataSource.Provider != "yahoo" || cfg.DataSource.Timeout != 15*time.Second {
		t.Errorf("data source defaults = %+v", cfg.DataSource)
	}
	if cfg.Forecast.Horizon != 90 || cfg.Forecast.HistoryYears != 5 || cfg.Forecast.MinRows != 30 {
		t.Errorf("forecast defaults = %+v", cfg.Forecast)
	}
	if len(cfg.Analysis.Indicators) != 2 || cfg.Analysis.Indicators[0] != "sma:30" {
		t.Errorf("indicators = %v", cfg.Analysis.Indicators)
	}
	if len(cfg.Watch.Symbols) != 1 || cfg.Watch.Symbols[0] != "AAPL" {
		t.Errorf("watch symbols = %v", cfg.Watch.Symbols)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
data_source:
  provider: mock
analysis:
  symbol: MSFT
  period: 6mo
  indicators: ["macd:12,26,9", "bbands:20"]
forecast:
  enabled: false
watch:
  symbols: [MSFT, GOOG]
`)
	t.Setenv("INTERVAL", "1wk")
	t.Setenv("HISTORY_YEARS", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	req, err := cfg.Request("MSFT")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if req.Period != model.Period6Mo || req.Interval != model.Interval1wk {
		t.Errorf("range = %s/%s", req.Period, req.Interval)
	}
	if len(req.Indicators) != 2 || req.Indicators[0].Kind != model.KindMACD {
		t.Errorf("indicators = %v", req.Indicators)
	}
	if !req.SkipForecast || req.HistoryYears != 3 {
		t.Errorf("forecast settings: skip=%v years=%d", req.SkipForecast, req.HistoryYears)
	}
	if len(cfg.Watch.Symbols) != 2 {
		t.Errorf("watch symbols = %v", cfg.Watch.Symbols)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"rest without url":   "data_source:\n  provider: rest\n",
		"unknown provider":   "data_source:\n  provider: bloomberg\n",
		"remote without url": "forecast:\n  provider: remote\n",
		"bad width":          "forecast:\n  interval_width: 1.5\n",
		"bad indicator":      "analysis:\n  indicators: [\"sma\"]\n",
		"bad period":         "analysis:\n  period: 2w\n",
		"chat id missing":    "telegram:\n  bot_token: abc\n",
		"bad log level":      "log:\n  level: loud\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, body))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadBadYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "data_source: [")); err == nil {
		t.Fatal("expected parse error")
	}
}
