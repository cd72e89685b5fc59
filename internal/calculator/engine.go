package calculator

import (
	"fmt"
	"math"

	"StockScope/internal/model"
)

// ColumnNames returns the columns a spec appends, in order.
func ColumnNames(spec model.IndicatorSpec) []string {
	w := spec.Window
	switch spec.Kind {
	case model.KindSMA:
		return []string{fmt.Sprintf("SMA_%d", w)}
	case model.KindRSI:
		return []string{fmt.Sprintf("RSI_%d", w)}
	case model.KindBollinger:
		return []string{fmt.Sprintf("BBL_%d", w), fmt.Sprintf("BBM_%d", w), fmt.Sprintf("BBU_%d", w)}
	case model.KindEnvelope:
		if spec.Percent > 0 {
			return []string{fmt.Sprintf("ENVL_%d_%g", w, spec.Percent), fmt.Sprintf("ENVU_%d_%g", w, spec.Percent)}
		}
		return []string{fmt.Sprintf("ENVL_%d", w), fmt.Sprintf("ENVU_%d", w)}
	case model.KindMACD:
		suffix := fmt.Sprintf("%d_%d_%d", spec.Fast, spec.Slow, spec.Signal)
		return []string{"MACD_" + suffix, "MACDs_" + suffix, "MACDh_" + suffix}
	}
	return nil
}

// Apply computes every requested indicator over the closing prices and
// returns a copy of t with the columns appended. t itself is left untouched.
// Each indicator works on its own copy of the closes, so specs cannot affect
// one another.
func Apply(t *model.Table, specs []model.IndicatorSpec) (*model.Table, error) {
	out := t.Clone()
	if len(specs) == 0 {
		return out, nil
	}
	closes := t.Closes()
	for i, c := range closes {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("%w: close at row %d is not a number", model.ErrComputation, i)
		}
	}

	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		series, err := compute(copyOf(closes), spec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", spec, err)
		}
		for j, name := range ColumnNames(spec) {
			if err := out.SetColumn(name, series[j]); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func compute(closes []float64, spec model.IndicatorSpec) ([][]float64, error) {
	switch spec.Kind {
	case model.KindSMA:
		s, err := SMA(closes, spec.Window)
		return [][]float64{s}, err
	case model.KindRSI:
		s, err := RSI(closes, spec.Window)
		return [][]float64{s}, err
	case model.KindBollinger:
		b, err := Bollinger(closes, spec.Window)
		if err != nil {
			return nil, err
		}
		return [][]float64{b.Lower, b.Middle, b.Upper}, nil
	case model.KindEnvelope:
		b, err := Envelope(closes, spec.Window, spec.Percent)
		if err != nil {
			return nil, err
		}
		return [][]float64{b.Lower, b.Upper}, nil
	case model.KindMACD:
		m, err := MACD(closes, spec.Fast, spec.Slow, spec.Signal)
		if err != nil {
			return nil, err
		}
		return [][]float64{m.MACD, m.Signal, m.Hist}, nil
	}
	return nil, fmt.Errorf("%w: unknown indicator %q", model.ErrComputation, spec.Kind)
}
