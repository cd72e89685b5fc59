package calculator

import (
	"fmt"
	"math"

	"StockScope/internal/model"

	"github.com/markcheno/go-talib"
)

// SMA computes the simple moving average series. The first period-1 entries are NaN.
func SMA(closes []float64, period int) ([]float64, error) {
	if err := checkWindow(closes, period, period, "sma"); err != nil {
		return nil, err
	}
	return mask(talib.Sma(closes, period), period-1), nil
}

// EMA computes the exponential moving average seeded with the SMA of the first period values.
func EMA(closes []float64, period int) ([]float64, error) {
	if err := checkWindow(closes, period, period, "ema"); err != nil {
		return nil, err
	}
	return mask(talib.Ema(closes, period), period-1), nil
}

func checkWindow(closes []float64, period, need int, name string) error {
	if period <= 0 {
		return fmt.Errorf("%w: %s period must be positive", model.ErrComputation, name)
	}
	if len(closes) < need {
		return fmt.Errorf("%w: %s(%d) needs %d rows, have %d", model.ErrInsufficientHistory, name, period, need, len(closes))
	}
	return nil
}

// mask overwrites the lookback prefix, which talib leaves zero-filled, with NaN.
func mask(values []float64, lookback int) []float64 {
	for i := 0; i < lookback && i < len(values); i++ {
		values[i] = math.NaN()
	}
	return values
}

func nanSeries(n int) []float64 {
	return mask(make([]float64, n), n)
}
