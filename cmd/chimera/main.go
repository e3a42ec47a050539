package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/chimera/config"
	"github.com/alejandrodnm/chimera/internal/adapters/feed"
	"github.com/alejandrodnm/chimera/internal/adapters/ndax"
	"github.com/alejandrodnm/chimera/internal/adapters/notify"
	"github.com/alejandrodnm/chimera/internal/adapters/storage"
	"github.com/alejandrodnm/chimera/internal/engine"
	"github.com/alejandrodnm/chimera/internal/executor"
	"github.com/alejandrodnm/chimera/internal/governor"
	"github.com/alejandrodnm/chimera/internal/modectl"
	"github.com/alejandrodnm/chimera/internal/ports"
	"github.com/alejandrodnm/chimera/internal/tracker"
)

const defaultStartPrice = 50000

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
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

	slog.Info("chimera starting",
		"config", *configPath,
		"symbol", cfg.Trading.Symbol,
		"interval", cfg.CycleInterval(),
		"allow_live", cfg.Trading.AllowLive,
		"kill_switch", cfg.Risk.KillSwitch,
	)

	paper := ndax.NewPaper(cfg.Trading.InitialBalance)

	var live ports.Platform
	if cfg.Trading.AllowLive {
		l, err := ndax.NewLive(cfg.Platform)
		if err != nil {
			slog.Error("failed to build live platform adapter", "err", err)
			os.Exit(1)
		}
		live = l
		slog.Info("live platform adapter ready",
			"base_url", cfg.Platform.BaseURL,
			"safety_lock", cfg.Platform.SafetyLocked(),
			"orders_per_minute", cfg.Platform.OrdersPerMinute,
		)
	}

	var journal ports.Journal
	if cfg.Storage.DSN != "" {
		j, err := storage.NewSQLiteJournal(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open execution journal", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer j.Close()
		journal = j
	}

	tr := tracker.New()
	ctrl := modectl.New(cfg.Promotion, cfg.Demotion, cfg.Risk.HardStopLoss, cfg.Trading.AllowLive, tr)
	if cfg.Risk.KillSwitch {
		ctrl.EnableKillSwitch()
	}
	ex := executor.New(paper, live, cfg.Trading.AllowLive, journal)
	gov := governor.New(cfg.Risk)
	src := feed.NewRandomWalk(cfg.Trading.Symbol, defaultStartPrice, time.Now().UnixNano())
	reporter := notify.NewConsole()

	eng := engine.New(cfg, src, gov, ex, ctrl, tr, reporter)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Risk.KillSwitch {
		go watchKillSwitch(ctx, ctrl)
	}

	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("engine exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("chimera stopped cleanly")
}

// watchKillSwitch gives the operator a runtime halt/resume lever:
// SIGUSR1 halts all trading, SIGUSR2 resumes in paper mode.
func watchKillSwitch(ctx context.Context, ctrl *modectl.Controller) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-ch:
			switch sig {
			case syscall.SIGUSR1:
				ctrl.Halt("operator kill switch (SIGUSR1)")
			case syscall.SIGUSR2:
				ctrl.Resume()
			}
		}
	}
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
