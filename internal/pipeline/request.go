package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"StockScope/internal/model"
)

// ErrInvalidRequest marks requests rejected before any stage runs.
var ErrInvalidRequest = errors.New("invalid request")

const (
	DefaultWindow       = 30
	DefaultHistoryYears = 5
)

// Request is the full, immutable input of one run.
type Request struct {
	Symbol       string
	Period       model.Period
	Interval     model.Interval
	Indicators   []model.IndicatorSpec
	HistoryYears int
	// Horizon overrides the forecaster's default when positive.
	Horizon      int
	SkipForecast bool
}

// NewRequest returns a one-year daily request with a 30-period SMA and RSI.
func NewRequest(symbol string) Request {
	return Request{
		Symbol:       symbol,
		Period:       model.Period1Y,
		Interval:     model.Interval1d,
		Indicators:   []model.IndicatorSpec{model.SMA(DefaultWindow), model.RSI(DefaultWindow)},
		HistoryYears: DefaultHistoryYears,
	}
}

// Validate checks the request fields. The period/interval pair itself is
// checked by the fetch stage.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidRequest)
	}
	if !r.Period.Valid() {
		return fmt.Errorf("%w: unknown period %q", ErrInvalidRequest, r.Period)
	}
	if !r.Interval.Valid() {
		return fmt.Errorf("%w: unknown interval %q", ErrInvalidRequest, r.Interval)
	}
	for _, spec := range r.Indicators {
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}
	if r.SkipForecast {
		return nil
	}
	return r.validateForecast()
}

func (r Request) validateForecast() error {
	if strings.TrimSpace(r.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidRequest)
	}
	if r.HistoryYears < 1 {
		return fmt.Errorf("%w: history years must be >= 1", ErrInvalidRequest)
	}
	if r.Horizon < 0 {
		return fmt.Errorf("%w: horizon must not be negative", ErrInvalidRequest)
	}
	return nil
}

// String identifies the request in logs and reports.
func (r Request) String() string {
	return fmt.Sprintf("%s %s/%s", r.Symbol, r.Period, r.Interval)
}
