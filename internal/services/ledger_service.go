// Package services ties users, ledgers and alert publishing together.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/users"
)

var _ report.View = (*ledger.Ledger)(nil)

// ErrForbidden is returned when the session user does not own the account.
var ErrForbidden = errors.New("account does not belong to user")

// Session identifies who is acting and on which account.
type Session struct {
	User      users.User
	AccountID string
}

// AlertPublisher is satisfied by *amqp.Client.
type AlertPublisher interface {
	PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error
}

// AccountSummary is one line of an account listing.
type AccountSummary struct {
	Account       core.Account
	MonthSpending decimal.Decimal
	Status        ledger.BudgetStatus
}

// LedgerService orchestrates ledger operations on behalf of a user and
// publishes budget alerts when a mutation crosses a limit.
type LedgerService struct {
	registry  *ledger.Registry
	directory *users.Directory
	publisher AlertPublisher
	logger    *log.Logger
}

// NewLedgerService accepts a nil publisher, in which case alerts are skipped.
func NewLedgerService(registry *ledger.Registry, directory *users.Directory, publisher AlertPublisher, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &LedgerService{
		registry:  registry,
		directory: directory,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentService),
	}
}

// CreateAccount opens a new account owned by user.
func (s *LedgerService) CreateAccount(ctx context.Context, user users.User, name string, initialBalance, monthlyBudget decimal.Decimal) (core.Account, error) {
	l, err := s.registry.Create(ctx, ledger.NewAccount{
		Name:          name,
		Balance:       initialBalance,
		MonthlyBudget: monthlyBudget,
	})
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	if err := s.directory.AddAccount(ctx, user.ID, l.ID()); err != nil {
		return core.Account{}, fmt.Errorf("assign account: %w", err)
	}
	return l.Account(), nil
}

// ListAccounts loads every account of user concurrently, in ownership order.
func (s *LedgerService) ListAccounts(ctx context.Context, user users.User) ([]AccountSummary, error) {
	ids, err := s.directory.Accounts(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	out := make([]AccountSummary, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, id := range ids {
		g.Go(func() error {
			return s.registry.With(gctx, id, func(l *ledger.Ledger) error {
				out[i] = AccountSummary{
					Account:       l.Account(),
					MonthSpending: l.TotalMonthlySpending(),
					Status:        l.Status(),
				}
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}

// Do runs fn against the session's ledger after checking ownership.
func (s *LedgerService) Do(ctx context.Context, sess Session, fn func(*ledger.Ledger) error) error {
	ok, err := s.directory.Owns(ctx, sess.User.ID, sess.AccountID)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.WarnContext(ctx, "Rejected access to foreign account",
			log.FieldUserID, sess.User.ID, log.FieldAccountID, sess.AccountID)
		return ErrForbidden
	}
	return s.registry.With(ctx, sess.AccountID, fn)
}

func (s *LedgerService) RecordTransaction(ctx context.Context, sess Session, date time.Time, amount decimal.Decimal, c core.Category, description string) (core.Transaction, error) {
	var tx core.Transaction
	err := s.mutate(ctx, sess, func(l *ledger.Ledger) (err error) {
		tx, err = l.RecordTransactionAt(ctx, date, amount, c, description)
		return err
	})
	return tx, err
}

// EditTransaction returns the replacement transaction.
func (s *LedgerService) EditTransaction(ctx context.Context, sess Session, id string, amount decimal.Decimal, c core.Category, description string) (core.Transaction, error) {
	var tx core.Transaction
	err := s.mutate(ctx, sess, func(l *ledger.Ledger) (err error) {
		tx, err = l.EditTransaction(ctx, id, amount, c, description)
		return err
	})
	return tx, err
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, sess Session, id string) error {
	return s.mutate(ctx, sess, func(l *ledger.Ledger) error {
		return l.DeleteTransaction(ctx, id)
	})
}

// Deposit credits the account and returns the resulting balance.
func (s *LedgerService) Deposit(ctx context.Context, sess Session, amount decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.Do(ctx, sess, func(l *ledger.Ledger) error {
		if err := l.Deposit(ctx, amount); err != nil {
			return err
		}
		balance = l.Balance()
		return nil
	})
	if err != nil {
		return decimal.Decimal{}, err
	}
	return balance, nil
}

// SetCategoryBudget can push current spending over the new limit, so it
// alerts like a spend does.
func (s *LedgerService) SetCategoryBudget(ctx context.Context, sess Session, c core.Category, limit decimal.Decimal) error {
	return s.mutate(ctx, sess, func(l *ledger.Ledger) error {
		return l.SetCategoryBudget(ctx, c, limit)
	})
}

// DeleteCategoryBudget removes the limit for c. Clearing a missing limit is
// not an error.
func (s *LedgerService) DeleteCategoryBudget(ctx context.Context, sess Session, c core.Category) error {
	return s.Do(ctx, sess, func(l *ledger.Ledger) error {
		return l.DeleteCategoryBudget(ctx, c)
	})
}

func (s *LedgerService) SetMonthlyBudget(ctx context.Context, sess Session, amount decimal.Decimal) error {
	return s.mutate(ctx, sess, func(l *ledger.Ledger) error {
		return l.SetMonthlyBudget(ctx, amount)
	})
}

// mutate applies fn and publishes an alert for every budget that went
// from within limit to over limit.
func (s *LedgerService) mutate(ctx context.Context, sess Session, fn func(*ledger.Ledger) error) error {
	return s.Do(ctx, sess, func(l *ledger.Ledger) error {
		before := l.Status()
		if err := fn(l); err != nil {
			return err
		}
		s.publishCrossings(ctx, l, before, l.Status())
		return nil
	})
}

func (s *LedgerService) publishCrossings(ctx context.Context, l *ledger.Ledger, before, after ledger.BudgetStatus) {
	if s.publisher == nil {
		return
	}
	for _, msg := range Crossings(l, before, after) {
		if err := s.publisher.PublishBudgetAlert(ctx, msg); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish budget alert",
				log.NewFields().
					WithOperation(log.OpAlert).
					WithAccount(msg.AccountID).
					WithError(err).
					ToSlice()...)
		}
	}
}

// Crossings builds an alert for each budget over in after but not in before.
// A zero before status yields an alert for every exceeded budget.
func Crossings(l *ledger.Ledger, before, after ledger.BudgetStatus) []*amqp.BudgetAlertMessage {
	acc := l.Account()
	var month map[core.Category]decimal.Decimal
	var msgs []*amqp.BudgetAlertMessage
	for _, c := range core.Categories() {
		if !after.OverCategories[c] || before.OverCategories[c] {
			continue
		}
		if month == nil {
			month = l.MonthlyCategorySpending()
		}
		limit, _ := l.CategoryBudget(c)
		msgs = append(msgs, amqp.NewCategoryAlert(acc.ID, acc.Name, c.String(), limit, month[c]))
	}
	if after.OverMonthly && !before.OverMonthly {
		msgs = append(msgs, amqp.NewMonthlyAlert(acc.ID, acc.Name, acc.MonthlyBudget, l.TotalMonthlySpending()))
	}
	return msgs
}
