package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func (l *Ledger) ID() string { return l.id }

// Account returns the account record: name, balance and monthly budget.
func (l *Ledger) Account() core.Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.account
}

func (l *Ledger) Balance() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.account.Balance
}

func (l *Ledger) MonthlyBudget() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.account.MonthlyBudget
}

// Transaction looks up a transaction by id.
func (l *Ledger) Transaction(id string) (core.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.state.indexOf(id); i >= 0 {
		return l.state.transactions[i], nil
	}
	return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
}

// Transactions returns a copy of the transactions in insertion order.
func (l *Ledger) Transactions() []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Transaction(nil), l.state.transactions...)
}

func (l *Ledger) CategoryBudget(c core.Category) (decimal.Decimal, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.limit(c)
}

func (l *Ledger) CategoryBudgets() []core.BudgetLimit {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.BudgetLimit(nil), l.state.limits...)
}

// CategorySpending sums every transaction ever recorded, by category.
// Categories without transactions are absent from the result.
func (l *Ledger) CategorySpending() map[core.Category]decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[core.Category]decimal.Decimal)
	for _, t := range l.state.transactions {
		out[t.Category] = out[t.Category].Add(t.Amount)
	}
	return out
}

// MonthlyCategorySpending is CategorySpending restricted to the current
// calendar month.
func (l *Ledger) MonthlyCategorySpending() map[core.Category]decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now()
	out := make(map[core.Category]decimal.Decimal)
	for _, t := range l.state.transactions {
		if core.SameMonth(t.Date, now) {
			out[t.Category] = out[t.Category].Add(t.Amount)
		}
	}
	return out
}

// TotalMonthlySpending sums transactions dated in the current calendar month.
func (l *Ledger) TotalMonthlySpending() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.monthlySpending(l.clock.Now(), nil)
}

// IsCategoryOverBudget reports whether this month's spending in c exceeds
// its limit. Without a limit it is false.
func (l *Ledger) IsCategoryOverBudget(c core.Category) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.categoryOver(c, l.clock.Now())
}

func (l *Ledger) IsOverBudget() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.monthlySpending(l.clock.Now(), nil).GreaterThan(l.state.account.MonthlyBudget)
}

// BudgetStatus captures which budgets are exceeded at one instant.
type BudgetStatus struct {
	OverCategories map[core.Category]bool
	OverMonthly    bool
}

// Status evaluates every budget under a single lock.
func (l *Ledger) Status() BudgetStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now()
	st := BudgetStatus{OverCategories: make(map[core.Category]bool)}
	for _, b := range l.state.limits {
		if l.state.categoryOver(b.Category, now) {
			st.OverCategories[b.Category] = true
		}
	}
	st.OverMonthly = l.state.monthlySpending(now, nil).GreaterThan(l.state.account.MonthlyBudget)
	return st
}

// Snapshot returns a consistent copy of the whole ledger.
func (l *Ledger) Snapshot() core.AccountSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return core.AccountSnapshot{
		Account:      l.state.account,
		Transactions: append([]core.Transaction(nil), l.state.transactions...),
		Budgets:      append([]core.BudgetLimit(nil), l.state.limits...),
	}
}

func (s state) limit(c core.Category) (decimal.Decimal, bool) {
	for _, b := range s.limits {
		if b.Category == c {
			return b.Limit, true
		}
	}
	return decimal.Zero, false
}

func (s state) categoryOver(c core.Category, now time.Time) bool {
	limit, ok := s.limit(c)
	if !ok {
		return false
	}
	return s.monthlySpending(now, &c).GreaterThan(limit)
}

// monthlySpending sums this month's transactions, optionally for one category.
func (s state) monthlySpending(now time.Time, only *core.Category) decimal.Decimal {
	total := decimal.Zero
	for _, t := range s.transactions {
		if only != nil && t.Category != *only {
			continue
		}
		if core.SameMonth(t.Date, now) {
			total = total.Add(t.Amount)
		}
	}
	return total
}
