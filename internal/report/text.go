package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"StockScope/internal/model"
	"StockScope/internal/pipeline"
)

func cell(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

func stamp(t *model.Table, i int) string {
	if t.Interval.Intraday() {
		return t.Bars[i].Time.Format("2006-01-02 15:04")
	}
	return t.Bars[i].Time.Format("2006-01-02")
}

// WriteText prints the summary, the last tail table rows and the forecast-only rows.
func WriteText(w io.Writer, res *pipeline.Result, tail int) error {
	req := res.Request
	fmt.Fprintf(w, "%s  period=%s interval=%s\n", req.Symbol, req.Period, req.Interval)
	if res.Table != nil {
		s := res.Summary
		fmt.Fprintf(w, "last %.2f  change %+.2f%%  range %.2f ~ %.2f  position %.0f%%  rows %d\n",
			s.LastClose, s.Change*100, s.Low, s.High, s.Position*100, s.Rows)
	}
	if res.Failure != nil {
		fmt.Fprintf(w, "FAILED: %v\n", res.Failure)
	}

	if t := res.Table; t != nil && t.Len() > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		cols := t.Columns()
		head := []string{"time", "open", "high", "low", "close", "volume"}
		for _, c := range cols {
			head = append(head, c.Name)
		}
		fmt.Fprintln(tw, strings.Join(head, "\t")+"\t")
		start := 0
		if tail > 0 && tail < t.Len() {
			start = t.Len() - tail
		}
		for i := start; i < t.Len(); i++ {
			b := t.Bars[i]
			line := []string{stamp(t, i), cell(b.Open), cell(b.High), cell(b.Low), cell(b.Close), fmt.Sprint(b.Volume)}
			for _, c := range cols {
				line = append(line, cell(c.Values[i]))
			}
			fmt.Fprintln(tw, strings.Join(line, "\t")+"\t")
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if future := res.Forecast.Future(); len(future) > 0 {
		fmt.Fprintf(w, "\nforecast (%d days)\n", len(future))
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "date\tyhat\tyhat_lower\tyhat_upper\t")
		for _, r := range future {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", r.Time.Format("2006-01-02"), cell(r.Point), cell(r.Lower), cell(r.Upper))
		}
		return tw.Flush()
	}
	return nil
}
