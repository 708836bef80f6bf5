package sheets

import (
	"time"

	"fintrack/internal/core"
)

const dateLayout = "2006-01-02 15:04"

// BuildRows lays out a snapshot as a header block, the budget table and the
// transaction list, separated by blank rows. Cells are plain strings.
func BuildRows(snap core.AccountSnapshot) [][]string {
	acc := snap.Account
	rows := [][]string{
		{"Account", acc.Name},
		{"Account ID", acc.ID},
		{"Balance", acc.Balance.StringFixed(2)},
		{"Monthly Budget", acc.MonthlyBudget.StringFixed(2)},
		{},
		{"Category", "Limit"},
	}
	for _, b := range snap.Budgets {
		rows = append(rows, []string{b.Category.String(), b.Limit.StringFixed(2)})
	}
	rows = append(rows, []string{}, []string{"ID", "Date", "Category", "Amount", "Description"})
	for _, tx := range snap.Transactions {
		rows = append(rows, []string{
			tx.ID,
			tx.Date.In(time.Local).Format(dateLayout),
			tx.Category.String(),
			tx.Amount.StringFixed(2),
			tx.Description,
		})
	}
	return rows
}
