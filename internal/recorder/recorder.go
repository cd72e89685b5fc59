package recorder

import (
	"strings"
	"time"

	"StockScope/internal/model"
	"StockScope/internal/pipeline"

	"github.com/guregu/null/v6"
)

// RunSnapshot holds everything stored for one pipeline run.
type RunSnapshot struct {
	At          time.Time
	Symbol      string
	Period      string
	Interval    string
	Indicators  string
	OK          bool
	FailedStage null.String
	Error       null.String
	Rows        int
	LastClose   null.Float
	Change      null.Float
	High        null.Float
	Low         null.Float
	Position    null.Float
	Duration    time.Duration
	Future      []model.ForecastRow
}

// Snapshot flattens a pipeline result. Summary fields stay null when no table was produced.
func Snapshot(res *pipeline.Result) *RunSnapshot {
	req := res.Request
	specs := make([]string, len(req.Indicators))
	for i, s := range req.Indicators {
		specs[i] = s.String()
	}
	snap := &RunSnapshot{
		At:         res.Started,
		Symbol:     req.Symbol,
		Period:     string(req.Period),
		Interval:   string(req.Interval),
		Indicators: strings.Join(specs, " "),
		OK:         res.OK(),
		Duration:   res.Finished.Sub(res.Started),
		Future:     res.Forecast.Future(),
	}
	if res.Failure != nil {
		snap.FailedStage = null.StringFrom(string(res.Failure.Stage))
		snap.Error = null.StringFrom(res.Failure.Err.Error())
	}
	if res.Table != nil {
		s := res.Summary
		snap.Rows = s.Rows
		snap.LastClose = null.FloatFrom(s.LastClose)
		snap.Change = null.FloatFrom(s.Change)
		snap.High = null.FloatFrom(s.High)
		snap.Low = null.FloatFrom(s.Low)
		snap.Position = null.FloatFrom(s.Position)
	}
	return snap
}

// Recorder persists an audit trail of runs. Nothing in the pipeline reads it back.
type Recorder interface {
	RecordRun(snap *RunSnapshot) (int64, error)
	Close() error
}
