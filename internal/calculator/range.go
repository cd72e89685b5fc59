package calculator

import (
	"errors"
	"math"

	"StockScope/internal/model"
)

// Summarize scans the whole table and reports the last close, the change since
// the first close, the period high/low and where the last close sits in that range.
func Summarize(t *model.Table) (model.Summary, error) {
	if t == nil || t.Len() == 0 {
		return model.Summary{}, errors.New("no bars provided")
	}
	high := math.Inf(-1)
	low := math.Inf(1)
	for _, b := range t.Bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	first := t.Bars[0].Close
	last := t.Bars[t.Len()-1].Close
	s := model.Summary{
		LastClose: last,
		High:      high,
		Low:       low,
		Position:  position(last, high, low),
		Rows:      t.Len(),
	}
	if first != 0 {
		s.Change = (last - first) / first
	}
	return s, nil
}

// position returns where current sits within [low, high] (0.0~1.0).
func position(current, high, low float64) float64 {
	if high <= low {
		return 0.5
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos
}
