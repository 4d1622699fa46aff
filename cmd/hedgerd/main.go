package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/welann/optionhedge/config"
	"github.com/welann/optionhedge/internal/adapters/lighter"
	"github.com/welann/optionhedge/internal/adapters/notify"
	"github.com/welann/optionhedge/internal/adapters/paradex"
	"github.com/welann/optionhedge/internal/adapters/storage"
	"github.com/welann/optionhedge/internal/cli"
	"github.com/welann/optionhedge/internal/hedger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one hedge cycle and exit")
	execute := flag.Bool("execute", false, "submit orders in -once mode (default: analyze only)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("hedgerd starting",
		"config", *configPath,
		"interval", cfg.HedgeInterval(),
		"threshold_pct", cfg.Hedge.ThresholdPct,
		"underlyings", cfg.Hedge.Underlyings,
		"once", *once,
	)

	greeks := paradex.NewClient(cfg.Paradex.BaseURL)
	venue := lighter.NewClient(lighter.Config{
		BaseURL:          cfg.Lighter.BaseURL,
		AccountIndex:     cfg.Lighter.AccountIndex,
		APIKeyIndex:      cfg.Lighter.APIKeyIndex,
		APIKeyPrivateKey: cfg.Lighter.APIKeyPrivateKey,
		Markets:          cfg.Lighter.Markets,
	})

	store, err := storage.New(cfg.Storage.DSN, greeks)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	console := notify.NewConsole()
	settings := hedger.NewSettings(cfg.Hedge.ThresholdPct, cfg.HedgeInterval())
	aggregator := hedger.NewAggregator(store, cfg.Hedge.Underlyings)
	policy := hedger.NewPolicy(venue, venue)
	executor := hedger.NewExecutor(venue, venue, store, "lighter", cfg.Hedge.PriceTolerancePct)
	scheduler := hedger.NewScheduler(store, aggregator, policy, executor, console, settings)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *once {
		summary, err := scheduler.RunOnce(ctx, *execute)
		if err != nil {
			slog.Error("hedge cycle failed", "err", err)
			os.Exit(1)
		}
		slog.Info("hedge cycle complete",
			"underlyings", summary.Underlyings,
			"needing_hedge", summary.NeedingHedge,
			"submitted", summary.Submitted,
			"succeeded", summary.Succeeded,
		)
		return
	}

	repl := cli.NewREPL(os.Stdin, os.Stdout, console, store, scheduler, slog.Default())
	if err := repl.Run(ctx); err != nil {
		slog.Error("console exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("hedgerd stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
