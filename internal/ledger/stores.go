package ledger

import (
	"context"
	"fmt"

	"fintrack/internal/codec"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// TransactionStore persists the full transaction set of one account. Every
// save rewrites the whole file, so a mutation costs O(n) in the number of
// stored transactions.
type TransactionStore struct {
	store storage.Store
	path  string
}

func NewTransactionStore(store storage.Store, accountID string) *TransactionStore {
	return &TransactionStore{store: store, path: storage.Layout{}.TransactionsFile(accountID)}
}

// LoadAll re-reads every transaction from the store.
func (s *TransactionStore) LoadAll(ctx context.Context) ([]core.Transaction, error) {
	content, err := s.store.Read(ctx, s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: load transactions: %w", core.ErrIO, err)
	}
	ts, err := codec.DecodeTransactions(content)
	if err != nil {
		return nil, fmt.Errorf("load transactions from %s: %w", s.path, err)
	}
	return ts, nil
}

func (s *TransactionStore) SaveAll(ctx context.Context, ts []core.Transaction) error {
	if err := s.store.Write(ctx, s.path, codec.EncodeTransactions(ts)); err != nil {
		return fmt.Errorf("%w: save transactions: %w", core.ErrIO, err)
	}
	return nil
}

// BudgetTable persists the per-category limits of one account.
type BudgetTable struct {
	store storage.Store
	path  string
}

func NewBudgetTable(store storage.Store, accountID string) *BudgetTable {
	return &BudgetTable{store: store, path: storage.Layout{}.BudgetsFile(accountID)}
}

// LoadAll re-reads the limits. When a legacy file repeats a category the
// last line wins.
func (b *BudgetTable) LoadAll(ctx context.Context) ([]core.BudgetLimit, error) {
	content, err := b.store.Read(ctx, b.path)
	if err != nil {
		return nil, fmt.Errorf("%w: load budgets: %w", core.ErrIO, err)
	}
	limits, err := codec.DecodeBudgetLimits(content)
	if err != nil {
		return nil, fmt.Errorf("load budgets from %s: %w", b.path, err)
	}
	var out []core.BudgetLimit
	for _, l := range limits {
		out = upsertLimit(out, l)
	}
	return out, nil
}

func (b *BudgetTable) SaveAll(ctx context.Context, limits []core.BudgetLimit) error {
	if err := b.store.Write(ctx, b.path, codec.EncodeBudgetLimits(limits)); err != nil {
		return fmt.Errorf("%w: save budgets: %w", core.ErrIO, err)
	}
	return nil
}

type accountStore struct {
	store storage.Store
	path  string
}

func (a accountStore) load(ctx context.Context) (core.Account, error) {
	content, err := a.store.Read(ctx, a.path)
	if err != nil {
		return core.Account{}, fmt.Errorf("%w: load account: %w", core.ErrIO, err)
	}
	if content == "" {
		return core.Account{}, core.ErrNotFound
	}
	acc, err := codec.DecodeAccount(trimNewline(content))
	if err != nil {
		return core.Account{}, fmt.Errorf("load account from %s: %w", a.path, err)
	}
	return acc, nil
}

func (a accountStore) save(ctx context.Context, acc core.Account) error {
	if err := a.store.Write(ctx, a.path, codec.EncodeAccount(acc)+"\n"); err != nil {
		return fmt.Errorf("%w: save account: %w", core.ErrIO, err)
	}
	return nil
}

// upsertLimit replaces the limit for l.Category or appends it.
func upsertLimit(limits []core.BudgetLimit, l core.BudgetLimit) []core.BudgetLimit {
	out := make([]core.BudgetLimit, 0, len(limits)+1)
	replaced := false
	for _, cur := range limits {
		if cur.Category == l.Category {
			out = append(out, l)
			replaced = true
			continue
		}
		out = append(out, cur)
	}
	if !replaced {
		out = append(out, l)
	}
	return out
}

func removeLimit(limits []core.BudgetLimit, c core.Category) ([]core.BudgetLimit, bool) {
	out := make([]core.BudgetLimit, 0, len(limits))
	found := false
	for _, cur := range limits {
		if cur.Category == c {
			found = true
			continue
		}
		out = append(out, cur)
	}
	return out, found
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
