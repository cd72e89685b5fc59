package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"StockScope/internal/model"
)

const dsLayout = "2006-01-02T15:04:05"

// RemoteForecaster delegates fitting to an external forecasting service.
type RemoteForecaster struct {
	BaseURL string
	Client  *http.Client
}

// NewRemoteForecaster builds a client with timeout and base URL.
func NewRemoteForecaster(baseURL string, timeout time.Duration) *RemoteForecaster {
	return &RemoteForecaster{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (r *RemoteForecaster) Name() string { return "remote" }

type fitRequest struct {
	DS                []string  `json:"ds"`
	Y                 []float64 `json:"y"`
	Periods           int       `json:"periods"`
	Freq              string    `json:"freq"`
	IntervalWidth     float64   `json:"interval_width"`
	DailySeasonality  bool      `json:"daily_seasonality"`
	WeeklySeasonality *bool     `json:"weekly_seasonality"`
	YearlySeasonality *bool     `json:"yearly_seasonality"`
}

type fitResponse struct {
	DS        []string  `json:"ds"`
	YHat      []float64 `json:"yhat"`
	YHatLower []float64 `json:"yhat_lower"`
	YHatUpper []float64 `json:"yhat_upper"`
}

func (r *RemoteForecaster) Fit(ctx context.Context, series []Point, opts Options) ([]model.ForecastRow, error) {
	if r.BaseURL == "" {
		return nil, fmt.Errorf("remote forecaster: base url not configured")
	}
	req := fitRequest{
		DS:                make([]string, len(series)),
		Y:                 make([]float64, len(series)),
		Periods:           opts.Horizon,
		Freq:              "D",
		IntervalWidth:     opts.IntervalWidth,
		DailySeasonality:  opts.DailySeasonality,
		WeeklySeasonality: opts.WeeklySeasonality,
		YearlySeasonality: opts.YearlySeasonality,
	}
	for i, p := range series {
		req.DS[i] = p.T.Format(dsLayout)
		req.Y[i] = p.Y
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/forecast", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := r.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: post forecast: %v", model.ErrDataUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: forecast service: status %d, body: %s", model.ErrDataUnavailable, resp.StatusCode, string(b))
	}

	var fr fitResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return nil, fmt.Errorf("%w: decode forecast: %v", model.ErrComputation, err)
	}
	n := len(fr.DS)
	if len(fr.YHat) != n || len(fr.YHatLower) != n || len(fr.YHatUpper) != n {
		return nil, fmt.Errorf("%w: forecast columns have mismatched lengths", model.ErrComputation)
	}
	rows := make([]model.ForecastRow, n)
	for i, ds := range fr.DS {
		t, err := parseDS(ds)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", model.ErrComputation, i, err)
		}
		rows[i] = model.ForecastRow{Time: t, Point: fr.YHat[i], Lower: fr.YHatLower[i], Upper: fr.YHatUpper[i]}
	}
	return rows, nil
}

func parseDS(s string) (time.Time, error) {
	for _, layout := range []string{dsLayout, time.DateOnly, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
