package calculator

import "github.com/markcheno/go-talib"

// BandDeviations is the standard-deviation multiple used for band offsets.
const BandDeviations = 2.0

// Bands is a central line with an upper and lower offset series.
type Bands struct {
	Lower  []float64
	Middle []float64
	Upper  []float64
}

// Bollinger computes SMA(period) ± 2 population standard deviations over the same window.
func Bollinger(closes []float64, period int) (*Bands, error) {
	if err := checkWindow(closes, period, period, "bbands"); err != nil {
		return nil, err
	}
	if period == 1 {
		// A single-value window has zero deviation.
		return &Bands{Lower: copyOf(closes), Middle: copyOf(closes), Upper: copyOf(closes)}, nil
	}
	upper, middle, lower := talib.BBands(closes, period, BandDeviations, BandDeviations, talib.SMA)
	return &Bands{
		Lower:  mask(lower, period-1),
		Middle: mask(middle, period-1),
		Upper:  mask(upper, period-1),
	}, nil
}

// Envelope computes moving-average envelopes. With percent > 0 the bands sit
// at SMA·(1 ± percent/100); otherwise they use the deviation formula of Bollinger.
func Envelope(closes []float64, period int, percent float64) (*Bands, error) {
	if percent <= 0 {
		return Bollinger(closes, period)
	}
	mid, err := SMA(closes, period)
	if err != nil {
		return nil, err
	}
	b := &Bands{Lower: make([]float64, len(mid)), Middle: mid, Upper: make([]float64, len(mid))}
	f := percent / 100
	for i, m := range mid {
		b.Lower[i] = m * (1 - f)
		b.Upper[i] = m * (1 + f)
	}
	return b, nil
}

func copyOf(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
