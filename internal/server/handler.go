package server

import (
	"net/http"

	"StockScope/internal/model"
	"StockScope/internal/pipeline"
	"StockScope/internal/report"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AnalysisRequest is the query of GET /api/v1/analysis.
type AnalysisRequest struct {
	Symbol       string   `query:"symbol" validate:"required,max=32"`
	Period       string   `query:"period" default:"1y" validate:"oneof=1d 5d 1mo 3mo 6mo 1y 2y 5y 10y ytd max"`
	Interval     string   `query:"interval" default:"1d" validate:"oneof=1m 2m 5m 15m 30m 1h 1d 1wk 1mo"`
	Indicators   []string `query:"indicator" validate:"max=16"`
	Tail         int      `query:"tail" validate:"gte=0"`
	SkipForecast bool     `query:"skip_forecast"`
	HistoryYears int      `query:"history_years" validate:"omitempty,gte=1,lte=30"`
	Horizon      int      `query:"horizon" validate:"omitempty,gte=1,lte=365"`
}

// ForecastRequest is the query of GET /api/v1/forecast.
type ForecastRequest struct {
	Symbol       string `query:"symbol" validate:"required,max=32"`
	HistoryYears int    `query:"history_years" validate:"omitempty,gte=1,lte=30"`
	Horizon      int    `query:"horizon" validate:"omitempty,gte=1,lte=365"`
	Full         bool   `query:"full"`
}

// Handler serves the analysis API on top of a pipeline runner.
type Handler struct {
	Runner            *pipeline.Runner
	DefaultIndicators []model.IndicatorSpec
	// HistoryYears and Horizon fill in queries that leave them out.
	// A zero Horizon defers to the runner's forecast adapter.
	HistoryYears int
	Horizon      int
	Logger       *zap.Logger
}

func NewHandler(runner *pipeline.Runner, indicators []model.IndicatorSpec, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Runner:            runner,
		DefaultIndicators: indicators,
		HistoryYears:      pipeline.DefaultHistoryYears,
		Logger:            logger,
	}
}

func (h *Handler) forecastDefaults(years, horizon int) (int, int) {
	if years == 0 {
		years = h.HistoryYears
	}
	if horizon == 0 {
		horizon = h.Horizon
	}
	return years, horizon
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/analysis", h.Analysis)
	g.GET("/forecast", h.Forecast)
	g.GET("/ranges", h.Ranges)
}

func (h *Handler) Analysis(c echo.Context) error {
	q := &AnalysisRequest{}
	if verr := bindRequest(c, q); verr != nil {
		return dataResponse(c, http.StatusBadRequest, verr)
	}
	specs := h.DefaultIndicators
	if len(q.Indicators) > 0 {
		specs = make([]model.IndicatorSpec, 0, len(q.Indicators))
		for _, s := range q.Indicators {
			spec, err := model.ParseIndicator(s)
			if err != nil {
				return dataResponse(c, http.StatusBadRequest, []ValidationError{{Code: "ERR_INDICATOR", Field: "indicator", Message: err.Error()}})
			}
			specs = append(specs, spec)
		}
	}
	years, horizon := h.forecastDefaults(q.HistoryYears, q.Horizon)
	req := pipeline.Request{
		Symbol:       q.Symbol,
		Period:       model.Period(q.Period),
		Interval:     model.Interval(q.Interval),
		Indicators:   specs,
		HistoryYears: years,
		Horizon:      horizon,
		SkipForecast: q.SkipForecast,
	}
	res, err := h.Runner.Run(c.Request().Context(), req)
	if res == nil {
		return dataResponse(c, StatusOf(err), []ValidationError{{Code: "ERR_REQUEST", Message: err.Error()}})
	}
	if err != nil {
		h.Logger.Warn("analysis failed", zap.String("symbol", q.Symbol), zap.Error(err))
	}
	return dataResponse(c, StatusOf(err), report.FromResult(res, report.Options{Tail: q.Tail, FutureOnly: true}))
}

func (h *Handler) Forecast(c echo.Context) error {
	q := &ForecastRequest{}
	if verr := bindRequest(c, q); verr != nil {
		return dataResponse(c, http.StatusBadRequest, verr)
	}
	years, horizon := h.forecastDefaults(q.HistoryYears, q.Horizon)
	res, err := h.Runner.RunForecast(c.Request().Context(), pipeline.Request{
		Symbol:       q.Symbol,
		HistoryYears: years,
		Horizon:      horizon,
	})
	if res == nil {
		return dataResponse(c, StatusOf(err), []ValidationError{{Code: "ERR_REQUEST", Message: err.Error()}})
	}
	if err != nil {
		h.Logger.Warn("forecast failed", zap.String("symbol", q.Symbol), zap.Error(err))
	}
	return dataResponse(c, StatusOf(err), report.FromResult(res, report.Options{FutureOnly: !q.Full}))
}

// Ranges lists the interval choices for each period.
func (h *Handler) Ranges(c echo.Context) error {
	out := make(map[string][]model.Interval, len(model.Periods))
	for _, p := range model.Periods {
		out[string(p)] = model.AllowedIntervals(p)
	}
	return dataResponse(c, http.StatusOK, out)
}
