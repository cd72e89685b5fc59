package model

import (
	"fmt"
	"math"
)

// Column is a named series aligned 1:1 with the bars of a Table.
// Undefined entries are NaN.
type Column struct {
	Name   string
	Values []float64
}

// Table is the normalized OHLCV sequence plus any indicator columns.
type Table struct {
	Symbol   string
	Interval Interval
	Bars     []OHLCV

	columns []Column
	index   map[string]int
}

// NewTable creates a table over bars without indicator columns.
func NewTable(symbol string, interval Interval, bars []OHLCV) *Table {
	return &Table{Symbol: symbol, Interval: interval, Bars: bars}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Bars) }

// Closes extracts the closing-price series.
func (t *Table) Closes() []float64 {
	closes := make([]float64, len(t.Bars))
	for i, b := range t.Bars {
		closes[i] = b.Close
	}
	return closes
}

// SetColumn appends a column, or replaces an existing one of the same name in place.
func (t *Table) SetColumn(name string, values []float64) error {
	if len(values) != len(t.Bars) {
		return fmt.Errorf("%w: column %s has %d values for %d rows", ErrComputation, name, len(values), len(t.Bars))
	}
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if i, ok := t.index[name]; ok {
		t.columns[i].Values = values
		return nil
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, Column{Name: name, Values: values})
	return nil
}

// Column looks up an indicator column by name.
func (t *Table) Column(name string) ([]float64, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i].Values, true
}

// Columns returns the indicator columns in insertion order.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	c := &Table{Symbol: t.Symbol, Interval: t.Interval}
	c.Bars = make([]OHLCV, len(t.Bars))
	copy(c.Bars, t.Bars)
	for _, col := range t.columns {
		vals := make([]float64, len(col.Values))
		copy(vals, col.Values)
		_ = c.SetColumn(col.Name, vals)
	}
	return c
}

// Defined reports whether an indicator value is present.
func Defined(v float64) bool {
	return !math.IsNaN(v)
}
