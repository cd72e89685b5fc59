package calculator

import (
	"fmt"

	"StockScope/internal/model"
)

// MACDResult holds the three aligned MACD series.
type MACDResult struct {
	MACD   []float64
	Signal []float64
	Hist   []float64
}

// MACD computes EMA(fast) - EMA(slow), its EMA(signal) and their difference.
// The windows are used as given; fast >= slow is allowed. The MACD line is
// NaN for the first max(fast,slow)-1 rows, signal and histogram for a further
// signal-1 rows.
func MACD(closes []float64, fast, slow, signal int) (*MACDResult, error) {
	if fast < 1 || slow < 1 || signal < 1 {
		return nil, fmt.Errorf("%w: macd windows must be positive", model.ErrComputation)
	}
	lead := max(fast, slow) - 1
	if len(closes) < lead+signal {
		return nil, fmt.Errorf("%w: macd(%d,%d,%d) needs %d rows, have %d",
			model.ErrInsufficientHistory, fast, slow, signal, lead+signal, len(closes))
	}

	fastEMA, err := EMA(closes, fast)
	if err != nil {
		return nil, err
	}
	slowEMA, err := EMA(closes, slow)
	if err != nil {
		return nil, err
	}

	line := nanSeries(len(closes))
	for i := lead; i < len(closes); i++ {
		line[i] = fastEMA[i] - slowEMA[i]
	}

	// The signal EMA runs over the defined part of the line only.
	sig, err := EMA(line[lead:], signal)
	if err != nil {
		return nil, err
	}
	res := &MACDResult{MACD: line, Signal: nanSeries(len(closes)), Hist: nanSeries(len(closes))}
	for i, v := range sig {
		if !model.Defined(v) {
			continue
		}
		res.Signal[lead+i] = v
		res.Hist[lead+i] = line[lead+i] - v
	}
	return res, nil
}
