package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"StockScope/internal/config"
	"StockScope/internal/logger"
	"StockScope/internal/metrics"
	"StockScope/internal/model"
	"StockScope/internal/notifier"
	"StockScope/internal/report"
	"StockScope/internal/scheduler"
	"StockScope/internal/server"

	"go.uber.org/zap"
)

const usage = `usage: stockscope <command> [flags]

commands:
  run     analyze one symbol and print the result
  serve   start the HTTP API
  watch   re-run the analysis for a watchlist on a cron schedule
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "run":
		err = runCmd(args)
	case "serve":
		err = serveCmd(args)
	case "watch":
		err = watchCmd(args)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "stockscope: %v\n", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

// setup loads and validates the config and builds the logger.
func setup(path string, override func(*config.Config)) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation: %w", err)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runCmd(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath(), "config file")
	symbol := fs.String("symbol", "", "ticker symbol (default from config)")
	period := fs.String("period", "", "period: "+joinPeriods())
	interval := fs.String("interval", "", "interval, e.g. 1d or 1h")
	indicators := fs.String("indicators", "", "indicator specs separated by ';', e.g. 'sma:30;rsi:14;macd:12,26,9'")
	noForecast := fs.Bool("no-forecast", false, "skip the long-history forecast")
	asJSON := fs.Bool("json", false, "print JSON instead of text")
	tail := fs.Int("tail", -1, "table rows to print (default from config, 0 = all)")
	fs.Parse(args)

	cfg, log, err := setup(*cfgPath, func(c *config.Config) {
		if *symbol != "" {
			c.Analysis.Symbol = strings.ToUpper(*symbol)
		}
		if *period != "" {
			c.Analysis.Period = *period
		}
		if *interval != "" {
			c.Analysis.Interval = *interval
		}
		if *indicators != "" {
			c.Analysis.Indicators = strings.Split(*indicators, ";")
		}
		if *noForecast {
			c.Forecast.Enabled = false
		}
		if *tail >= 0 {
			c.Analysis.Tail = *tail
		}
	})
	if err != nil {
		return err
	}
	defer log.Sync()

	runner, err := newRunner(cfg, log, nil)
	if err != nil {
		return err
	}
	req, err := cfg.Request(cfg.Analysis.Symbol)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	res, runErr := runner.Run(ctx, req)
	if res == nil {
		return runErr
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report.FromResult(res, report.Options{Tail: cfg.Analysis.Tail, FutureOnly: true})); err != nil {
			return err
		}
	} else if err := report.WriteText(os.Stdout, res, cfg.Analysis.Tail); err != nil {
		return err
	}
	return runErr
}

func joinPeriods() string {
	names := make([]string, len(model.Periods))
	for i, p := range model.Periods {
		names[i] = string(p)
	}
	return strings.Join(names, " ")
}

func serveCmd(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath(), "config file")
	addr := fs.String("addr", "", "listen address (default from config)")
	fs.Parse(args)

	cfg, log, err := setup(*cfgPath, func(c *config.Config) {
		if *addr != "" {
			c.Server.Addr = *addr
		}
	})
	if err != nil {
		return err
	}
	defer log.Sync()

	m := metrics.New()
	runner, err := newRunner(cfg, log, m)
	if err != nil {
		return err
	}
	specs, err := cfg.Indicators()
	if err != nil {
		return err
	}
	h := server.NewHandler(runner, specs, log)
	h.HistoryYears = cfg.Forecast.HistoryYears
	h.Horizon = cfg.Forecast.Horizon
	srv := server.New(h, m, cfg.Server, log)

	ctx, cancel := signalContext()
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutdown signal received, stopping...")
	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	return srv.Shutdown(shutdownCtx)
}

func watchCmd(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath(), "config file")
	runNow := fs.Bool("now", false, "run one pass immediately")
	fs.Parse(args)

	cfg, log, err := setup(*cfgPath, nil)
	if err != nil {
		return err
	}
	defer log.Sync()

	m := metrics.New()
	runner, err := newRunner(cfg, log, m)
	if err != nil {
		return err
	}
	rec := newRecorder(cfg, log)
	defer rec.Close()

	ctx, cancel := signalContext()
	defer cancel()

	var tn *notifier.TelegramNotifier
	var n scheduler.Notifier
	if cfg.Telegram.Enabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		n = tn
	} else {
		log.Info("telegram not configured, reports are logged only")
	}

	sched := scheduler.NewScheduler(ctx, runner, cfg.Request, cfg.Watch.Symbols, rec, n, log)
	if err := sched.Register(cfg.Watch.Cron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}
	if *runNow || cfg.Watch.RunOnStart {
		sched.Trigger()
	}

	log.Info("stockscope is watching. Press Ctrl+C to stop.", zap.String("cron", cfg.Watch.Cron))
	<-ctx.Done()
	log.Info("shutdown signal received, stopping...")
	return nil
}
