package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Money formats an amount with two decimals and thousands separators.
func Money(d decimal.Decimal) string {
	return "$" + humanize.FormatFloat("#,###.##", d.Round(2).InexactFloat64())
}

func percent(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

func RenderFinancialReport(w io.Writer, r FinancialReport) error {
	ew := &errWriter{w: w}
	ew.printf("Financial Report for %s\n", r.AccountName)
	ew.printf("Current Balance: %s\n", Money(r.Balance))
	ew.printf("Monthly Budget: %s\n", Money(r.MonthlyBudget))
	ew.printf("\nCategory Spending and Budgets:\n")
	if len(r.Categories) == 0 {
		ew.printf("(no spending recorded)\n")
	}
	for _, c := range r.Categories {
		ew.printf("%s: %s", c.Category, Money(c.Spent))
		if c.HasBudget {
			ew.printf(" (this month %s of %s", Money(c.MonthSpent), Money(c.Budget))
			if c.Over {
				ew.printf(" - OVER BUDGET!")
			}
			ew.printf(")")
		}
		ew.printf("\n")
	}
	ew.printf("\nTotal Monthly Spending: %s\n", Money(r.TotalMonthlySpending))
	if r.OverBudget {
		ew.printf("WARNING: Over Monthly Budget!\n")
	}
	return ew.err
}

func RenderProjection(w io.Writer, p Projection) error {
	ew := &errWriter{w: w}
	ew.printf("=== Savings Projection ===\n")
	ew.printf("Starting Balance: %s\n", Money(p.StartingBalance))
	ew.printf("Monthly Contribution: %s\n", Money(p.Contribution))
	ew.printf("Projected Monthly Spending: %s\n", Money(p.MonthlySpending))
	ew.printf("\nMonth\tProjected Balance\tNet Savings\n")
	for _, row := range p.Rows {
		ew.printf("%d\t%s\t\t%s\n", row.Month, Money(row.ProjectedBalance), Money(row.NetSavings))
	}
	return ew.err
}

func RenderInsights(w io.Writer, in Insights) error {
	ew := &errWriter{w: w}
	ew.printf("=== Spending Insights ===\n")
	ew.printf("Total Spending: %s\n", Money(in.TotalSpending))
	for _, s := range in.Shares {
		ew.printf("%s: %s (%s)\n", s.Category, Money(s.Amount), percent(s.Percent))
	}
	ew.printf("\nRecommendations:\n")
	if len(in.Recommend) == 0 {
		ew.printf("- None, spending is well balanced.\n")
	}
	for _, c := range in.Recommend {
		ew.printf("- High spending in %s. Consider reducing expenses.\n", c)
	}
	return ew.err
}

// errWriter keeps the first write error and skips later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
