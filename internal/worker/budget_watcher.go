// Package worker holds background jobs run by cmd/budget-watch.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/users"
)

// BudgetWatcher periodically reports every account that is over a budget.
type BudgetWatcher struct {
	directory   *users.Directory
	registry    *ledger.Registry
	publisher   services.AlertPublisher
	concurrency int
	logger      *log.Logger
}

func NewBudgetWatcher(directory *users.Directory, registry *ledger.Registry, publisher services.AlertPublisher, concurrency int, logger *log.Logger) *BudgetWatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &BudgetWatcher{
		directory:   directory,
		registry:    registry,
		publisher:   publisher,
		concurrency: concurrency,
		logger:      logger.WithComponent(log.ComponentWorker),
	}
}

// CheckAll publishes one alert per exceeded budget across all accounts and
// returns how many were published. Publish failures are logged and skipped;
// loading failures abort the run.
func (w *BudgetWatcher) CheckAll(ctx context.Context) (int, error) {
	start := time.Now()
	all, err := w.directory.Users(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	var published atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, u := range all {
		ids, err := w.directory.Accounts(gctx, u.ID)
		if err != nil {
			g.Go(func() error { return err })
			break
		}
		for _, id := range ids {
			g.Go(func() error {
				n, err := w.checkAccount(gctx, id)
				published.Add(int64(n))
				return err
			})
		}
	}
	if err := g.Wait(); err != nil {
		return int(published.Load()), err
	}

	w.logger.InfoContext(ctx, "Budget check complete",
		log.FieldOperation, log.OpCheck,
		"users", len(all),
		"alerts", published.Load(),
		"duration", time.Since(start))
	return int(published.Load()), nil
}

func (w *BudgetWatcher) checkAccount(ctx context.Context, accountID string) (int, error) {
	n := 0
	err := w.registry.With(ctx, accountID, func(l *ledger.Ledger) error {
		for _, msg := range services.Crossings(l, ledger.BudgetStatus{}, l.Status()) {
			if err := w.publisher.PublishBudgetAlert(ctx, msg); err != nil {
				w.logger.ErrorContext(ctx, "Failed to publish budget alert",
					log.FieldAccountID, accountID, log.FieldError, err)
				continue
			}
			n++
		}
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("check account %s: %w", accountID, err)
	}
	return n, nil
}
