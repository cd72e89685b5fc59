package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"StockScope/internal/model"
	"StockScope/internal/notifier"
	"StockScope/internal/pipeline"
	"StockScope/internal/recorder"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Notifier delivers formatted run reports.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// RequestBuilder turns a symbol into a full request from configuration.
type RequestBuilder func(symbol string) (pipeline.Request, error)

// Scheduler re-runs the pipeline for a watchlist on a cron spec and serves chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   *pipeline.Runner
	Build    RequestBuilder
	Symbols  []string
	Recorder recorder.Recorder
	Notifier Notifier
	Logger   *zap.Logger
	Ctx      context.Context

	// runs are serial: one pipeline pass at a time across cron and commands.
	mu sync.Mutex
	// passes started by Trigger; Stop waits for them.
	passes sync.WaitGroup
}

// NewScheduler creates a new Scheduler. notifier may be nil.
func NewScheduler(ctx context.Context, runner *pipeline.Runner, build RequestBuilder, symbols []string,
	rec recorder.Recorder, n Notifier, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Runner:   runner,
		Build:    build,
		Symbols:  symbols,
		Recorder: rec,
		Notifier: n,
		Logger:   logger,
		Ctx:      ctx,
	}
}

// Register schedules a pass over the watchlist.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, func() { s.RunAll() }); err != nil {
		return fmt.Errorf("register watch task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started", zap.Strings("symbols", s.Symbols))
}

// Trigger starts one watch pass in the background.
func (s *Scheduler) Trigger() {
	s.passes.Add(1)
	go func() {
		defer s.passes.Done()
		s.RunAll()
	}()
}

// Stop stops the cron scheduler and waits for running passes to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.passes.Wait()
	s.Logger.Info("scheduler stopped")
}

// RunAll analyzes every watched symbol in order and pushes a report for each.
func (s *Scheduler) RunAll() []*pipeline.Result {
	s.Logger.Info("running watch pass", zap.Int("symbols", len(s.Symbols)))
	var results []*pipeline.Result
	for _, sym := range s.Symbols {
		if s.Ctx.Err() != nil {
			break
		}
		req, err := s.Build(sym)
		if err != nil {
			s.Logger.Error("build request", zap.String("symbol", sym), zap.Error(err))
			continue
		}
		res, err := s.Run(s.Ctx, req)
		if err != nil && res == nil {
			s.Logger.Error("run rejected", zap.String("symbol", sym), zap.Error(err))
			continue
		}
		results = append(results, res)
		s.trySend(notifier.FormatRunReport(res))
	}
	return results
}

// Run executes one request and records it. A nil result means the request was rejected.
func (s *Scheduler) Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.Runner.Run(ctx, req)
	if res == nil {
		return nil, err
	}
	if _, recErr := s.Recorder.RecordRun(recorder.Snapshot(res)); recErr != nil {
		s.Logger.Error("record run", zap.String("symbol", req.Symbol), zap.Error(recErr))
	}
	return res, err
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	switch strings.ToLower(fields[0]) {
	case "/analyze":
		if len(fields) < 2 {
			return "用法: /analyze SYMBOL [PERIOD] [INTERVAL]"
		}
		req, err := s.Build(strings.ToUpper(fields[1]))
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		if len(fields) > 2 {
			req.Period = model.Period(strings.ToLower(fields[2]))
		}
		if len(fields) > 3 {
			req.Interval = model.Interval(strings.ToLower(fields[3]))
		}
		res, err := s.Run(ctx, req)
		if res == nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatRunReport(res)
	case "/watchlist":
		return "👀 " + strings.Join(s.Symbols, ", ")
	case "/ranges":
		return notifier.FormatRanges()
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.Logger.Error("send notification", zap.Error(err))
	}
}
