package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/users"
	"fintrack/internal/worker"
)

const (
	idleLedgerTTL   = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	consume := flag.Bool("consume", false, "log budget alerts from the queue instead of checking budgets")
	once := flag.Bool("once", false, "run a single check and exit")
	flag.Parse()

	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := cli.SetupLogger(cfg.LogLevel, log.ComponentWorker, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.Info("Starting budget-watch", log.FieldOperation, log.OpStartup, log.FieldBackend, cfg.DataBackend)

	if !cfg.AlertsEnabled() {
		logger.Error("AMQP_URL is required for budget-watch")
		os.Exit(1)
	}

	res, err := backend.NewFactory(logger).Create(context.Background(), cfg, true, false)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}
	if res.Publisher == nil {
		res.Cleanup()
		logger.Error("AMQP broker unreachable")
		os.Exit(1)
	}

	registry := ledger.NewRegistry(res.Store, cfg.LedgerCacheSize, idleLedgerTTL, ledger.Options{Logger: logger})
	cacheManager := cache.NewManager(logger.Logger)
	cacheManager.Register(registry)
	cacheManager.StartCleanup(time.Minute)

	sched := cron.New()
	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func() {
		<-sched.Stop().Done()
		cacheManager.Stop()
		if err := res.Cleanup(); err != nil {
			logger.Error("Cleanup failed", log.FieldError, err)
		}
	})
	ctx = log.NewContext(ctx, logger)

	if *consume {
		client, ok := res.Publisher.(*amqp.Client)
		if !ok {
			logger.Error("Consuming requires an AMQP client")
			os.Exit(1)
		}
		err := client.ConsumeBudgetAlerts(ctx, func(msg *amqp.BudgetAlertMessage) error {
			logger.Warn("Budget exceeded",
				log.FieldAccountID, msg.AccountID,
				log.FieldAccountName, msg.AccountName,
				"kind", msg.Kind,
				log.FieldCategory, msg.Category,
				log.FieldLimit, msg.Limit,
				log.FieldSpent, msg.Spent)
			return nil
		})
		if err != nil && ctx.Err() == nil {
			logger.Error("Consumer stopped", log.FieldError, err)
		}
		cli.WaitForShutdown(ctx, done)
		return
	}

	directory := users.NewDirectory(res.Store, users.WithLogger(logger))
	watcher := worker.NewBudgetWatcher(directory, registry, res.Publisher, 4, logger)

	run := func() {
		if n, err := watcher.CheckAll(ctx); err != nil {
			logger.Error("Budget check failed", log.FieldOperation, log.OpCheck, log.FieldError, err)
		} else {
			logger.Info("Budget check finished", log.FieldOperation, log.OpCheck, "alerts", n)
		}
	}

	logger.Info("Running initial budget check")
	run()
	if *once {
		cacheManager.Stop()
		if err := res.Cleanup(); err != nil {
			logger.Error("Cleanup failed", log.FieldError, err)
		}
		return
	}

	if _, err := sched.AddFunc(cfg.BudgetCheckSchedule, run); err != nil {
		logger.Error("Invalid budget check schedule", "schedule", cfg.BudgetCheckSchedule, log.FieldError, err)
		os.Exit(1)
	}
	sched.Start()
	logger.Info("Budget checks scheduled", "schedule", cfg.BudgetCheckSchedule)

	cli.WaitForShutdown(ctx, done)
}
