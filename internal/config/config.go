package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"StockScope/internal/logger"
	"StockScope/internal/model"
	"StockScope/internal/pipeline"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	DataSource DataSource    `yaml:"data_source"`
	Analysis   Analysis      `yaml:"analysis"`
	Forecast   Forecast      `yaml:"forecast"`
	Server     Server        `yaml:"server"`
	Watch      Watch         `yaml:"watch"`
	Telegram   Telegram      `yaml:"telegram"`
	Database   Database      `yaml:"database"`
	Log        logger.Config `yaml:"log"`
	Proxy      string        `yaml:"proxy"`
}

type DataSource struct {
	Provider          string            `yaml:"provider" default:"yahoo" validate:"oneof=yahoo rest mock"`
	BaseURL           string            `yaml:"base_url" validate:"required_if=Provider rest"`
	APIKey            string            `yaml:"api_key"`
	RequestsPerSecond float64           `yaml:"requests_per_second" default:"2" validate:"gt=0"`
	Timeout           time.Duration     `yaml:"timeout" default:"15s" validate:"gt=0"`
	SymbolMap         map[string]string `yaml:"symbol_map"`
	MockPrice         float64           `yaml:"mock_price" default:"100"`
}

// Analysis is the default request used by the CLI and the watch mode.
type Analysis struct {
	Symbol     string   `yaml:"symbol" default:"AAPL" validate:"required"`
	Period     string   `yaml:"period" default:"1y" validate:"required"`
	Interval   string   `yaml:"interval" default:"1d" validate:"required"`
	Indicators []string `yaml:"indicators" default:"[\"sma:30\",\"rsi:30\"]"`
	Tail       int      `yaml:"tail" default:"10" validate:"gte=0"`
}

type Forecast struct {
	Enabled       bool          `yaml:"enabled" default:"true"`
	Provider      string        `yaml:"provider" default:"builtin" validate:"oneof=builtin remote"`
	RemoteURL     string        `yaml:"remote_url" validate:"required_if=Provider remote"`
	Timeout       time.Duration `yaml:"timeout" default:"60s" validate:"gt=0"`
	HistoryYears  int           `yaml:"history_years" default:"5" validate:"gte=1"`
	Horizon       int           `yaml:"horizon" default:"90" validate:"gte=1"`
	MinRows       int           `yaml:"min_rows" default:"30" validate:"gte=2"`
	IntervalWidth float64       `yaml:"interval_width" default:"0.8" validate:"gt=0,lt=1"`
}

type Server struct {
	Addr            string        `yaml:"addr" default:":8080" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
}

type Watch struct {
	Cron    string   `yaml:"cron" default:"0 0 22 * * 1-5" validate:"required"`
	Symbols []string `yaml:"symbols"`
	// RunOnStart triggers one pass immediately.
	RunOnStart bool `yaml:"run_on_start"`
}

type Telegram struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id" validate:"required_with=BotToken"`
}

// Enabled reports whether reports should be pushed to Telegram.
func (t Telegram) Enabled() bool { return t.BotToken != "" && t.ChatID != "" }

type Database struct {
	SQLitePath string `yaml:"sqlite_path" default:"data/stockscope.db"`
}

var validate = validator.New()

// Load reads config from a YAML file, then applies environment variable
// overrides. A missing file is not an error. Variables from a .env file in
// the working directory are loaded first without overriding the process
// environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if len(cfg.Watch.Symbols) == 0 {
		cfg.Watch.Symbols = []string{cfg.Analysis.Symbol}
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"DATA_PROVIDER":      &c.DataSource.Provider,
		"DATA_BASE_URL":      &c.DataSource.BaseURL,
		"DATA_API_KEY":       &c.DataSource.APIKey,
		"SYMBOL":             &c.Analysis.Symbol,
		"PERIOD":             &c.Analysis.Period,
		"INTERVAL":           &c.Analysis.Interval,
		"FORECAST_PROVIDER":  &c.Forecast.Provider,
		"FORECAST_URL":       &c.Forecast.RemoteURL,
		"HTTP_ADDR":          &c.Server.Addr,
		"WATCH_CRON":         &c.Watch.Cron,
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"LOG_LEVEL":          &c.Log.Level,
		"LOG_FORMAT":         &c.Log.Format,
		"HTTPS_PROXY":        &c.Proxy,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("INDICATORS"); v != "" {
		c.Analysis.Indicators = splitList(v)
	}
	if v := os.Getenv("WATCH_SYMBOLS"); v != "" {
		c.Watch.Symbols = splitList(v)
	}
	if v := os.Getenv("HISTORY_YEARS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HISTORY_YEARS: %w", err)
		}
		c.Forecast.HistoryYears = n
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		c.Watch.RunOnStart = v == "true" || v == "1"
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks field constraints and that the analysis section parses
// into a valid request.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			fe := ve[0]
			return fmt.Errorf("%s: failed %q validation", strings.ToLower(fe.Namespace()), fe.Tag())
		}
		return err
	}
	if _, err := c.Request(c.Analysis.Symbol); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	return nil
}

// Indicators parses the configured indicator list.
func (c *Config) Indicators() ([]model.IndicatorSpec, error) {
	specs := make([]model.IndicatorSpec, 0, len(c.Analysis.Indicators))
	for _, s := range c.Analysis.Indicators {
		spec, err := model.ParseIndicator(s)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// Request builds the configured analysis request for symbol.
func (c *Config) Request(symbol string) (pipeline.Request, error) {
	specs, err := c.Indicators()
	if err != nil {
		return pipeline.Request{}, err
	}
	req := pipeline.Request{
		Symbol:       symbol,
		Period:       model.Period(c.Analysis.Period),
		Interval:     model.Interval(c.Analysis.Interval),
		Indicators:   specs,
		HistoryYears: c.Forecast.HistoryYears,
		Horizon:      c.Forecast.Horizon,
		SkipForecast: !c.Forecast.Enabled,
	}
	return req, req.Validate()
}
