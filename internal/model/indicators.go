package model

import (
	"fmt"
	"strconv"
	"strings"
)

// IndicatorKind names a supported technical indicator.
type IndicatorKind string

const (
	KindSMA       IndicatorKind = "sma"
	KindRSI       IndicatorKind = "rsi"
	KindBollinger IndicatorKind = "bbands"
	KindEnvelope  IndicatorKind = "envelope"
	KindMACD      IndicatorKind = "macd"
)

// IndicatorSpec requests one indicator. Window applies to every kind except
// MACD, which uses Fast/Slow/Signal. Percent only affects envelopes.
type IndicatorSpec struct {
	Kind    IndicatorKind `yaml:"kind" json:"kind"`
	Window  int           `yaml:"window" json:"window,omitempty"`
	Fast    int           `yaml:"fast" json:"fast,omitempty"`
	Slow    int           `yaml:"slow" json:"slow,omitempty"`
	Signal  int           `yaml:"signal" json:"signal,omitempty"`
	Percent float64       `yaml:"percent" json:"percent,omitempty"`
}

// SMA, RSI, Bollinger, Envelope and MACD build specs.
func SMA(window int) IndicatorSpec       { return IndicatorSpec{Kind: KindSMA, Window: window} }
func RSI(window int) IndicatorSpec       { return IndicatorSpec{Kind: KindRSI, Window: window} }
func Bollinger(window int) IndicatorSpec { return IndicatorSpec{Kind: KindBollinger, Window: window} }
func Envelope(window int, percent float64) IndicatorSpec {
	return IndicatorSpec{Kind: KindEnvelope, Window: window, Percent: percent}
}
func MACD(fast, slow, signal int) IndicatorSpec {
	return IndicatorSpec{Kind: KindMACD, Fast: fast, Slow: slow, Signal: signal}
}

// Validate checks window lengths. Fast < Slow is conventional for MACD but not required.
func (s IndicatorSpec) Validate() error {
	switch s.Kind {
	case KindSMA, KindRSI, KindBollinger, KindEnvelope:
		if s.Window < 1 {
			return fmt.Errorf("%w: %s window must be >= 1, got %d", ErrComputation, s.Kind, s.Window)
		}
		if s.Kind == KindEnvelope && s.Percent < 0 {
			return fmt.Errorf("%w: envelope percent must not be negative", ErrComputation)
		}
	case KindMACD:
		if s.Fast < 1 || s.Slow < 1 || s.Signal < 1 {
			return fmt.Errorf("%w: macd windows must be >= 1, got %d/%d/%d", ErrComputation, s.Fast, s.Slow, s.Signal)
		}
	default:
		return fmt.Errorf("%w: unknown indicator %q", ErrComputation, s.Kind)
	}
	return nil
}

// String renders s in the same form ParseIndicator accepts.
func (s IndicatorSpec) String() string {
	switch s.Kind {
	case KindMACD:
		return fmt.Sprintf("macd:%d,%d,%d", s.Fast, s.Slow, s.Signal)
	case KindEnvelope:
		if s.Percent > 0 {
			return fmt.Sprintf("envelope:%d,%s", s.Window, strconv.FormatFloat(s.Percent, 'f', -1, 64))
		}
	}
	return fmt.Sprintf("%s:%d", s.Kind, s.Window)
}

// ParseIndicator parses "sma:30", "envelope:20,2.5" or "macd:12,26,9".
func ParseIndicator(s string) (IndicatorSpec, error) {
	kind, args, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return IndicatorSpec{}, fmt.Errorf("indicator %q: expected kind:window", s)
	}
	parts := strings.Split(args, ",")
	ints := func(n int) ([]int, error) {
		if len(parts) != n {
			return nil, fmt.Errorf("indicator %q: expected %d values", s, n)
		}
		out := make([]int, n)
		for i, p := range parts {
			v, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return nil, fmt.Errorf("indicator %q: %w", s, err)
			}
			out[i] = v
		}
		return out, nil
	}

	spec := IndicatorSpec{Kind: IndicatorKind(strings.ToLower(kind))}
	switch spec.Kind {
	case KindMACD:
		v, err := ints(3)
		if err != nil {
			return spec, err
		}
		spec.Fast, spec.Slow, spec.Signal = v[0], v[1], v[2]
	case KindEnvelope:
		if len(parts) == 2 {
			pct, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			if err != nil {
				return spec, fmt.Errorf("indicator %q: %w", s, err)
			}
			spec.Percent = pct
			parts = parts[:1]
		}
		v, err := ints(1)
		if err != nil {
			return spec, err
		}
		spec.Window = v[0]
	default:
		v, err := ints(1)
		if err != nil {
			return spec, err
		}
		spec.Window = v[0]
	}
	return spec, spec.Validate()
}
