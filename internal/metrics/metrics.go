package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"StockScope/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records pipeline and HTTP activity on its own registry.
type Metrics struct {
	Registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
	runsTotal     *prometheus.CounterVec
	lastClose     *prometheus.GaugeVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		stageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockscope_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage", "outcome"},
		),
		stageFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockscope_stage_failures_total",
				Help: "Pipeline stage failures by error kind",
			},
			[]string{"stage", "kind"},
		),
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockscope_runs_total",
				Help: "Completed pipeline runs",
			},
			[]string{"outcome"},
		),
		lastClose: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockscope_last_close",
				Help: "Last observed close per symbol",
			},
			[]string{"symbol"},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method", "class"},
		),
	}
}

// Kind classifies an error into a low-cardinality label.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, model.ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(err, model.ErrInsufficientHistory):
		return "insufficient_history"
	case errors.Is(err, model.ErrComputation):
		return "computation"
	default:
		return "other"
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveStage records one pipeline stage.
func (m *Metrics) ObserveStage(stage string, took time.Duration, err error) {
	m.stageDuration.WithLabelValues(stage, outcome(err)).Observe(took.Seconds())
	if err != nil {
		m.stageFailures.WithLabelValues(stage, Kind(err)).Inc()
	}
}

// ObserveRun records a finished run; lastClose is ignored for failed runs.
func (m *Metrics) ObserveRun(symbol string, lastClose float64, err error) {
	m.runsTotal.WithLabelValues(outcome(err)).Inc()
	if err == nil && lastClose > 0 {
		m.lastClose.WithLabelValues(symbol).Set(lastClose)
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency, labelled by route template.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			status := c.Response().Status
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
			m.httpDuration.WithLabelValues(route, method, statusClass(status)).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

func statusClass(code int) string {
	switch {
	case code >= 100 && code < 200:
		return "1xx"
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
