// Package ledger implements the per-account aggregate: transactions, category
// budgets and a running balance kept consistent with its persisted records.
//
// Every mutation is write-through. The transaction or budget file is rewritten
// first, then the account record carrying the balance; in-memory state only
// changes once both writes succeeded.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// Options carries the collaborators of a Ledger. Zero values select the
// system clock, a ULID source and the default logger.
type Options struct {
	Clock  Clock
	IDs    IDSource
	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = SystemClock{}
	}
	if o.IDs == nil {
		o.IDs = NewULIDSource(o.Clock)
	}
	if o.Logger == nil {
		o.Logger = log.FromContext(context.Background())
	}
	o.Logger = o.Logger.WithComponent(log.ComponentLedger)
	return o
}

// NewAccount describes an account to create.
type NewAccount struct {
	ID            string // generated when empty
	Name          string
	Balance       decimal.Decimal
	MonthlyBudget decimal.Decimal
}

type Ledger struct {
	mu      sync.Mutex
	id      string
	store   storage.Store
	account accountStore
	txs     *TransactionStore
	budgets *BudgetTable
	clock   Clock
	ids     IDSource
	logger  *log.Logger

	state state
}

type state struct {
	account      core.Account
	transactions []core.Transaction
	limits       []core.BudgetLimit
}

type part uint8

const (
	partTransactions part = 1 << iota
	partBudgets
)

func newLedger(store storage.Store, accountID string, opts Options) *Ledger {
	opts = opts.withDefaults()
	return &Ledger{
		id:      accountID,
		store:   store,
		account: accountStore{store: store, path: storage.Layout{}.AccountFile(accountID)},
		txs:     NewTransactionStore(store, accountID),
		budgets: NewBudgetTable(store, accountID),
		clock:   opts.Clock,
		ids:     opts.IDs,
		logger:  opts.Logger.With(log.FieldAccountID, accountID),
	}
}

// Create sets up the record files of a new account and returns its ledger.
func Create(ctx context.Context, store storage.Store, na NewAccount, opts Options) (*Ledger, error) {
	if na.ID == "" {
		na.ID = NewAccountID()
	}
	if strings.ContainsAny(na.ID, "/\\,\n") {
		return nil, fmt.Errorf("invalid account id %q", na.ID)
	}
	l := newLedger(store, na.ID, opts)

	acc := core.Account{
		ID:            na.ID,
		Name:          strings.TrimSpace(na.Name),
		Balance:       na.Balance,
		MonthlyBudget: na.MonthlyBudget,
		Timestamps:    core.NewTimestamps(l.clock.Now()),
	}
	if err := acc.Validate(); err != nil {
		return nil, err
	}

	switch _, err := l.account.load(ctx); {
	case err == nil:
		return nil, fmt.Errorf("account %s already exists", na.ID)
	case !errors.Is(err, core.ErrNotFound):
		return nil, err
	}
	if err := store.EnsureDirectory(ctx, storage.Layout{}.AccountDir(na.ID)); err != nil {
		return nil, fmt.Errorf("%w: create account directory: %w", core.ErrIO, err)
	}
	if err := l.txs.SaveAll(ctx, nil); err != nil {
		return nil, err
	}
	if err := l.budgets.SaveAll(ctx, nil); err != nil {
		return nil, err
	}
	if err := l.account.save(ctx, acc); err != nil {
		return nil, err
	}
	l.state = state{account: acc}

	l.logger.Info("Account created",
		log.FieldAccountName, acc.Name,
		log.FieldBalance, acc.Balance.String())
	return l, nil
}

// Open loads an existing account. An unknown id yields core.ErrNotFound.
func Open(ctx context.Context, store storage.Store, accountID string, opts Options) (*Ledger, error) {
	l := newLedger(store, accountID, opts)
	if err := l.Reload(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload discards in-memory state and re-reads all three record files.
func (l *Ledger) Reload(ctx context.Context) error {
	acc, err := l.account.load(ctx)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("account %s: %w", l.id, core.ErrNotFound)
		}
		return err
	}
	txs, err := l.txs.LoadAll(ctx)
	if err != nil {
		return err
	}
	limits, err := l.budgets.LoadAll(ctx)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.state = state{account: acc, transactions: txs, limits: limits}
	l.mu.Unlock()
	return nil
}

// RecordTransaction stores a spend dated now and deducts it from the balance.
func (l *Ledger) RecordTransaction(ctx context.Context, amount decimal.Decimal, c core.Category, description string) (core.Transaction, error) {
	return l.RecordTransactionAt(ctx, time.Time{}, amount, c, description)
}

// RecordTransactionAt is RecordTransaction with an explicit spend date; a
// zero date means now.
func (l *Ledger) RecordTransactionAt(ctx context.Context, date time.Time, amount decimal.Decimal, c core.Category, description string) (core.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if date.IsZero() {
		date = now
	}
	t := core.Transaction{
		ID:          l.ids.NewID(),
		Amount:      amount,
		Category:    c,
		Description: description,
		Date:        date.Truncate(time.Second),
		Timestamps:  core.NewTimestamps(now),
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	next := l.state.clone()
	next.transactions = append(next.transactions, t)
	next.account.Balance = next.account.Balance.Sub(amount)
	next.account.Touch(now)

	if err := l.commit(ctx, next, partTransactions); err != nil {
		return core.Transaction{}, err
	}
	l.logger.InfoContext(ctx, "Transaction recorded",
		log.NewFields().WithOperation(log.OpRecord).
			WithTransaction(t.ID, t.Category.String(), t.Amount).
			WithBalance(next.account.Balance).ToSlice()...)
	return t, nil
}

// EditTransaction replaces the transaction id with a new version carrying a
// fresh id, dated and timestamped now. The balance moves by old amount minus
// new amount.
func (l *Ledger) EditTransaction(ctx context.Context, id string, amount decimal.Decimal, c core.Category, description string) (core.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.state.indexOf(id)
	if idx < 0 {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	old := l.state.transactions[idx]
	now := l.clock.Now()

	repl := core.Transaction{
		ID:          l.ids.NewID(),
		Amount:      amount,
		Category:    c,
		Description: description,
		Date:        now.Truncate(time.Second),
		Timestamps:  core.NewTimestamps(now),
	}
	if err := repl.Validate(); err != nil {
		return core.Transaction{}, err
	}

	next := l.state.clone()
	next.transactions = append(next.transactions[:idx:idx], next.transactions[idx+1:]...)
	next.transactions = append(next.transactions, repl)
	next.account.Balance = next.account.Balance.Add(old.Amount).Sub(amount)
	next.account.Touch(now)

	if err := l.commit(ctx, next, partTransactions); err != nil {
		return core.Transaction{}, err
	}
	l.logger.InfoContext(ctx, "Transaction edited",
		append(log.NewFields().WithOperation(log.OpEdit).
			WithTransaction(repl.ID, repl.Category.String(), repl.Amount).
			WithBalance(next.account.Balance).ToSlice(),
			log.FieldReplacedID, old.ID)...)
	return repl, nil
}

// DeleteTransaction removes a transaction and refunds its amount.
func (l *Ledger) DeleteTransaction(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.state.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	old := l.state.transactions[idx]

	next := l.state.clone()
	next.transactions = append(next.transactions[:idx:idx], next.transactions[idx+1:]...)
	next.account.Balance = next.account.Balance.Add(old.Amount)
	next.account.Touch(l.clock.Now())

	if err := l.commit(ctx, next, partTransactions); err != nil {
		return err
	}
	l.logger.InfoContext(ctx, "Transaction deleted",
		log.NewFields().WithOperation(log.OpDelete).
			WithTransaction(old.ID, old.Category.String(), old.Amount).
			WithBalance(next.account.Balance).ToSlice()...)
	return nil
}

// SetCategoryBudget inserts or replaces the limit for c.
func (l *Ledger) SetCategoryBudget(ctx context.Context, c core.Category, limit decimal.Decimal) error {
	b := core.BudgetLimit{Category: c, Limit: limit}
	if err := b.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.state.clone()
	next.limits = upsertLimit(next.limits, b)
	next.account.Touch(l.clock.Now())

	if err := l.commit(ctx, next, partBudgets); err != nil {
		return err
	}
	l.logger.InfoContext(ctx, "Category budget set",
		log.FieldOperation, log.OpBudget,
		log.FieldCategory, c.String(),
		log.FieldLimit, limit.String())
	return nil
}

// DeleteCategoryBudget removes the limit for c. Removing a missing limit is
// a no-op and writes nothing.
func (l *Ledger) DeleteCategoryBudget(ctx context.Context, c core.Category) error {
	if !c.Valid() {
		return core.ErrInvalidCategory
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.state.clone()
	var found bool
	next.limits, found = removeLimit(next.limits, c)
	if !found {
		return nil
	}
	next.account.Touch(l.clock.Now())

	if err := l.commit(ctx, next, partBudgets); err != nil {
		return err
	}
	l.logger.InfoContext(ctx, "Category budget cleared",
		log.FieldOperation, log.OpBudget,
		log.FieldCategory, c.String())
	return nil
}

// SetMonthlyBudget changes the overall monthly spending ceiling.
func (l *Ledger) SetMonthlyBudget(ctx context.Context, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return core.ErrNegativeLimit
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.state.clone()
	next.account.MonthlyBudget = amount
	next.account.Touch(l.clock.Now())

	if err := l.commit(ctx, next, 0); err != nil {
		return err
	}
	l.logger.InfoContext(ctx, "Monthly budget set",
		log.FieldOperation, log.OpBudget,
		log.FieldLimit, amount.String())
	return nil
}

// Deposit adds a positive amount to the balance. Zero and negative amounts
// are ignored.
func (l *Ledger) Deposit(ctx context.Context, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.state.clone()
	next.account.Balance = next.account.Balance.Add(amount)
	next.account.Touch(l.clock.Now())

	if err := l.commit(ctx, next, 0); err != nil {
		return err
	}
	l.logger.InfoContext(ctx, "Deposit recorded",
		log.FieldOperation, log.OpDeposit,
		log.FieldAmount, amount.String(),
		log.FieldBalance, next.account.Balance.String())
	return nil
}

// commit persists the changed collections and the account record, then swaps
// in next. When the account write fails, already rewritten collection files
// are restored from the current (still unchanged) state.
func (l *Ledger) commit(ctx context.Context, next state, changed part) error {
	if changed&partTransactions != 0 {
		if err := l.txs.SaveAll(ctx, next.transactions); err != nil {
			l.logger.ErrorContext(ctx, "Failed to persist transactions", log.FieldError, err)
			return err
		}
	}
	if changed&partBudgets != 0 {
		if err := l.budgets.SaveAll(ctx, next.limits); err != nil {
			l.logger.ErrorContext(ctx, "Failed to persist budgets", log.FieldError, err)
			return err
		}
	}
	if err := l.account.save(ctx, next.account); err != nil {
		l.logger.ErrorContext(ctx, "Failed to persist account", log.FieldError, err)
		l.restore(ctx, changed)
		return err
	}
	l.state = next
	return nil
}

func (l *Ledger) restore(ctx context.Context, changed part) {
	ctx = context.WithoutCancel(ctx)
	if changed&partTransactions != 0 {
		if err := l.txs.SaveAll(ctx, l.state.transactions); err != nil {
			l.logger.ErrorContext(ctx, "Failed to restore transactions", log.FieldError, err)
		}
	}
	if changed&partBudgets != 0 {
		if err := l.budgets.SaveAll(ctx, l.state.limits); err != nil {
			l.logger.ErrorContext(ctx, "Failed to restore budgets", log.FieldError, err)
		}
	}
}

func (s state) clone() state {
	return state{
		account:      s.account,
		transactions: append([]core.Transaction(nil), s.transactions...),
		limits:       append([]core.BudgetLimit(nil), s.limits...),
	}
}

func (s state) indexOf(id string) int {
	for i, t := range s.transactions {
		if t.ID == id {
			return i
		}
	}
	return -1
}
