package calculator

import "github.com/markcheno/go-talib"

// FlatRSI is reported while prices have not moved at all, when both average
// gain and average loss are zero.
const FlatRSI = 50.0

// RSI computes the Wilder-smoothed relative strength index series.
// Requires at least period+1 closes; the first period entries are NaN.
func RSI(closes []float64, period int) ([]float64, error) {
	if err := checkWindow(closes, period, period+1, "rsi"); err != nil {
		return nil, err
	}
	if period == 1 {
		return rsiOne(closes), nil
	}

	out := mask(talib.Rsi(closes, period), period)

	// talib reports 0 once gain+loss falls below its epsilon. A flat bar only
	// scales both Wilder averages by (period-1)/period, so the value carries over.
	if flat(closes[:period+1]) {
		out[period] = FlatRSI
	}
	for i := period + 1; i < len(closes); i++ {
		if closes[i] == closes[i-1] {
			out[i] = out[i-1]
		}
	}
	return out, nil
}

// rsiOne handles a one-period window, where the averages are just the last change.
func rsiOne(closes []float64) []float64 {
	out := nanSeries(len(closes))
	for i := 1; i < len(closes); i++ {
		switch change := closes[i] - closes[i-1]; {
		case change > 0:
			out[i] = 100
		case change < 0:
			out[i] = 0
		default:
			out[i] = FlatRSI
		}
	}
	return out
}

func flat(closes []float64) bool {
	for i := 1; i < len(closes); i++ {
		if closes[i] != closes[i-1] {
			return false
		}
	}
	return true
}
