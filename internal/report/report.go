// Package report derives read-only views from a ledger: the financial report,
// a linear savings projection and spending insights.
package report

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// InsightThreshold is the share of total spending, in percent, above which a
// category gets a reduction recommendation.
var InsightThreshold = decimal.NewFromInt(30)

// View is the part of a ledger the reports read.
type View interface {
	Account() core.Account
	CategorySpending() map[core.Category]decimal.Decimal
	MonthlyCategorySpending() map[core.Category]decimal.Decimal
	TotalMonthlySpending() decimal.Decimal
	CategoryBudgets() []core.BudgetLimit
	IsCategoryOverBudget(core.Category) bool
	IsOverBudget() bool
}

type CategoryLine struct {
	Category   core.Category
	Spent      decimal.Decimal // all time
	MonthSpent decimal.Decimal
	Budget     decimal.Decimal
	HasBudget  bool
	Over       bool // this month's spending exceeds Budget
}

type FinancialReport struct {
	AccountName          string
	Balance              decimal.Decimal
	MonthlyBudget        decimal.Decimal
	Categories           []CategoryLine
	TotalMonthlySpending decimal.Decimal
	OverBudget           bool
}

// BuildFinancialReport lists every category that has spending or a budget,
// in category order.
func BuildFinancialReport(v View) FinancialReport {
	acc := v.Account()
	spent := v.CategorySpending()
	month := v.MonthlyCategorySpending()
	budgets := make(map[core.Category]decimal.Decimal)
	for _, b := range v.CategoryBudgets() {
		budgets[b.Category] = b.Limit
	}

	r := FinancialReport{
		AccountName:          acc.Name,
		Balance:              acc.Balance,
		MonthlyBudget:        acc.MonthlyBudget,
		TotalMonthlySpending: v.TotalMonthlySpending(),
		OverBudget:           v.IsOverBudget(),
	}
	for _, c := range core.Categories() {
		s, hasSpend := spent[c]
		b, hasBudget := budgets[c]
		if !hasSpend && !hasBudget {
			continue
		}
		r.Categories = append(r.Categories, CategoryLine{
			Category:   c,
			Spent:      s,
			MonthSpent: month[c],
			Budget:     b,
			HasBudget:  hasBudget,
			Over:       hasBudget && v.IsCategoryOverBudget(c),
		})
	}
	return r
}

type ProjectionRow struct {
	Month            int
	ProjectedBalance decimal.Decimal
	NetSavings       decimal.Decimal // cumulative change from the starting balance
}

type Projection struct {
	StartingBalance decimal.Decimal
	Contribution    decimal.Decimal
	MonthlySpending decimal.Decimal
	Rows            []ProjectionRow
}

// ProjectSavings extends the balance linearly: each month adds contribution
// and subtracts this month's total spending. Zero months yields no rows.
func ProjectSavings(v View, contribution decimal.Decimal, months int) (Projection, error) {
	if months < 0 {
		return Projection{}, core.ErrInvalidMonths
	}
	start := v.Account().Balance
	spending := v.TotalMonthlySpending()
	p := Projection{
		StartingBalance: start,
		Contribution:    contribution,
		MonthlySpending: spending,
		Rows:            make([]ProjectionRow, 0, months),
	}
	step := contribution.Sub(spending)
	balance := start
	for m := 1; m <= months; m++ {
		balance = balance.Add(step)
		p.Rows = append(p.Rows, ProjectionRow{
			Month:            m,
			ProjectedBalance: balance,
			NetSavings:       balance.Sub(start),
		})
	}
	return p, nil
}

type CategoryShare struct {
	Category core.Category
	Amount   decimal.Decimal
	Percent  decimal.Decimal
}

type Insights struct {
	TotalSpending decimal.Decimal
	Shares        []CategoryShare
	// Recommend lists categories whose share exceeds InsightThreshold.
	Recommend []core.Category
}

// SpendingInsights computes each category's share of all-time spending.
// When the total is not positive every share is zero and nothing is
// recommended.
func SpendingInsights(v View) Insights {
	amounts := core.SortedAmounts(v.CategorySpending())
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a.Amount)
	}

	in := Insights{TotalSpending: total}
	hundred := decimal.NewFromInt(100)
	for _, a := range amounts {
		pct := decimal.Zero
		if total.IsPositive() {
			pct = a.Amount.Mul(hundred).Div(total)
		}
		in.Shares = append(in.Shares, CategoryShare{Category: a.Category, Amount: a.Amount, Percent: pct})
		if pct.GreaterThan(InsightThreshold) {
			in.Recommend = append(in.Recommend, a.Category)
		}
	}
	return in
}
