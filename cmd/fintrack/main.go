// Command fintrack manages personal finance accounts from the shell.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
	"fintrack/internal/users"
)

const usage = `usage: fintrack <command> [flags]

commands:
  register                      create a user
  account create|list           manage accounts
  tx add|edit|delete|list       manage transactions
  budget set|clear|monthly      manage budgets
  deposit                       add money to an account
  report                        print the financial report
  project                       project savings over the coming months
  insights                      show spending shares and recommendations
  export                        write an account to Google Sheets

Credentials come from -user/-password or FINTRACK_USER/FINTRACK_PASSWORD.
`

// app is everything a command needs.
type app struct {
	svc       *services.LedgerService
	directory *users.Directory
	exporter  sheets.LedgerExporter
	out       io.Writer
	getenv    func(string) string
}

func main() {
	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// Logs go to stderr so that command output stays clean.
	logger, err := cli.SetupLogger(cfg.LogLevel, log.ComponentCLI, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := runMain(cfg, logger, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runMain(cfg *config.Config, logger *log.Logger, args []string) error {
	ctx := log.NewContext(context.Background(), logger)
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	withExport := len(args) > 0 && args[0] == "export"
	res, err := backend.NewFactory(logger).Create(ctx, cfg, true, withExport)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Cleanup failed", log.FieldError, err)
		}
	}()

	registry := ledger.NewRegistry(res.Store, cfg.LedgerCacheSize, 0, ledger.Options{Logger: logger})
	directory := users.NewDirectory(res.Store, users.WithLogger(logger))
	a := &app{
		svc:       services.NewLedgerService(registry, directory, res.Publisher, logger),
		directory: directory,
		exporter:  res.Exporter,
		out:       os.Stdout,
		getenv:    os.Getenv,
	}
	return a.run(ctx, args)
}
