package model

import (
	"fmt"
	"time"
)

// Period is how far back a fetch reaches.
type Period string

const (
	Period1D  Period = "1d"
	Period5D  Period = "5d"
	Period1Mo Period = "1mo"
	Period3Mo Period = "3mo"
	Period6Mo Period = "6mo"
	Period1Y  Period = "1y"
	Period2Y  Period = "2y"
	Period5Y  Period = "5y"
	Period10Y Period = "10y"
	PeriodYTD Period = "ytd"
	PeriodMax Period = "max"
)

// Periods lists every supported period in display order.
var Periods = []Period{
	Period1D, Period5D, Period1Mo, Period3Mo, Period6Mo,
	Period1Y, Period2Y, Period5Y, Period10Y, PeriodYTD, PeriodMax,
}

// Interval is the time resolution of a single row.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval2m  Interval = "2m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval1d  Interval = "1d"
	Interval1wk Interval = "1wk"
	Interval1mo Interval = "1mo"
)

// Intervals lists every supported interval from finest to coarsest.
var Intervals = []Interval{
	Interval1m, Interval2m, Interval5m, Interval15m, Interval30m,
	Interval1h, Interval1d, Interval1wk, Interval1mo,
}

var intervalDurations = map[Interval]time.Duration{
	Interval1m:  time.Minute,
	Interval2m:  2 * time.Minute,
	Interval5m:  5 * time.Minute,
	Interval15m: 15 * time.Minute,
	Interval30m: 30 * time.Minute,
	Interval1h:  time.Hour,
	Interval1d:  24 * time.Hour,
	Interval1wk: 7 * 24 * time.Hour,
	Interval1mo: 30 * 24 * time.Hour,
}

// Valid reports whether p is a known period.
func (p Period) Valid() bool {
	_, ok := compatibility[p]
	return ok
}

// Valid reports whether i is a known interval.
func (i Interval) Valid() bool {
	_, ok := intervalDurations[i]
	return ok
}

// Intraday reports whether rows at this interval are timestamped with a time of day.
func (i Interval) Intraday() bool {
	d, ok := intervalDurations[i]
	return ok && d < 24*time.Hour
}

// Duration is the nominal length of one row. Months count as 30 days.
func (i Interval) Duration() time.Duration {
	return intervalDurations[i]
}

var (
	intradayOnly = []Interval{Interval1m, Interval2m, Interval5m, Interval15m, Interval30m, Interval1h}
	hourlyUp     = []Interval{Interval1h, Interval1d, Interval1wk, Interval1mo}
	dailyUp      = []Interval{Interval1d, Interval1wk, Interval1mo}
)

// compatibility maps each period to the intervals the upstream serves for it.
// Finer granularities are only kept for short look-backs.
var compatibility = map[Period][]Interval{
	Period1D:  intradayOnly,
	Period5D:  {Interval1m, Interval2m, Interval5m, Interval15m, Interval30m, Interval1h, Interval1d},
	Period1Mo: {Interval2m, Interval5m, Interval15m, Interval30m, Interval1h, Interval1d, Interval1wk},
	Period3Mo: hourlyUp,
	Period6Mo: hourlyUp,
	Period1Y:  hourlyUp,
	PeriodYTD: hourlyUp,
	Period2Y:  dailyUp,
	Period5Y:  dailyUp,
	Period10Y: dailyUp,
	PeriodMax: dailyUp,
}

// AllowedIntervals returns the intervals permitted for a period, or nil for an unknown period.
func AllowedIntervals(p Period) []Interval {
	allowed := compatibility[p]
	out := make([]Interval, len(allowed))
	copy(out, allowed)
	return out
}

// CheckRange rejects unknown values and period/interval pairs outside the compatibility table.
func CheckRange(p Period, i Interval) error {
	allowed, ok := compatibility[p]
	if !ok {
		return fmt.Errorf("%w: unknown period %q", ErrDataUnavailable, p)
	}
	if !i.Valid() {
		return fmt.Errorf("%w: unknown interval %q", ErrDataUnavailable, i)
	}
	for _, a := range allowed {
		if a == i {
			return nil
		}
	}
	return fmt.Errorf("%w: interval %s is not available for period %s", ErrDataUnavailable, i, p)
}
