package notifier

import (
	"fmt"
	"html"
	"strings"

	"StockScope/internal/model"
	"StockScope/internal/pipeline"
)

// latest returns the last defined value of a column.
func latest(values []float64) (float64, bool) {
	for i := len(values) - 1; i >= 0; i-- {
		if model.Defined(values[i]) {
			return values[i], true
		}
	}
	return 0, false
}

// FormatRunReport formats one pipeline run into a Telegram message.
func FormatRunReport(res *pipeline.Result) string {
	var b strings.Builder
	req := res.Request

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> %s/%s | %s\n\n", html.EscapeString(req.Symbol), req.Period, req.Interval,
		res.Started.Format("2006-01-02 15:04")))

	if t := res.Table; t != nil && t.Len() > 0 {
		s := res.Summary
		b.WriteString(fmt.Sprintf("收盘价: %.2f (%+.1f%%)\n", s.LastClose, s.Change*100))
		b.WriteString(fmt.Sprintf("区间: %.2f ~ %.2f (位置 %.0f%%)\n", s.Low, s.High, s.Position*100))

		cols := t.Columns()
		if len(cols) > 0 {
			b.WriteString("\n📈 <b>指标:</b>\n")
			for _, c := range cols {
				if v, ok := latest(c.Values); ok {
					b.WriteString(fmt.Sprintf("  %s: %.2f\n", c.Name, v))
				} else {
					b.WriteString(fmt.Sprintf("  %s: -\n", c.Name))
				}
			}
		}
	}

	if future := res.Forecast.Future(); len(future) > 0 {
		last := future[len(future)-1]
		b.WriteString(fmt.Sprintf("\n🔮 <b>预测 +%d天</b> (%s)\n", len(future), last.Time.Format("2006-01-02")))
		b.WriteString(fmt.Sprintf("  %.2f [%.2f, %.2f]\n", last.Point, last.Lower, last.Upper))
	}

	if res.Failure != nil {
		b.WriteString(fmt.Sprintf("\n❌ <b>%s</b> 阶段失败: %s\n", res.Failure.Stage, html.EscapeString(res.Failure.Err.Error())))
	}
	return b.String()
}

// FormatRanges lists the allowed intervals per period.
func FormatRanges() string {
	var b strings.Builder
	b.WriteString("🗓 <b>周期/粒度组合</b>\n\n")
	for _, p := range model.Periods {
		allowed := model.AllowedIntervals(p)
		names := make([]string, len(allowed))
		for i, iv := range allowed {
			names[i] = string(iv)
		}
		b.WriteString(fmt.Sprintf("%s: %s\n", p, strings.Join(names, " ")))
	}
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "可用命令:\n" +
		"• /analyze SYMBOL [PERIOD] [INTERVAL]\n" +
		"• /watchlist\n" +
		"• /ranges"
}
