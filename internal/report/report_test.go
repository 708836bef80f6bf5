package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

type stubView struct {
	account  core.Account
	allTime  map[core.Category]decimal.Decimal
	month    map[core.Category]decimal.Decimal
	budgets  []core.BudgetLimit
	overCats map[core.Category]bool
}

func (s stubView) Account() core.Account { return s.account }
func (s stubView) CategorySpending() map[core.Category]decimal.Decimal {
	return s.allTime
}
func (s stubView) MonthlyCategorySpending() map[core.Category]decimal.Decimal {
	return s.month
}
func (s stubView) TotalMonthlySpending() decimal.Decimal {
	total := decimal.Zero
	for _, v := range s.month {
		total = total.Add(v)
	}
	return total
}
func (s stubView) CategoryBudgets() []core.BudgetLimit { return s.budgets }
func (s stubView) IsCategoryOverBudget(c core.Category) bool {
	return s.overCats[c]
}
func (s stubView) IsOverBudget() bool {
	return s.TotalMonthlySpending().GreaterThan(s.account.MonthlyBudget)
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleView() stubView {
	return stubView{
		account: core.Account{Name: "Main", Balance: d("1234.5"), MonthlyBudget: d("100")},
		allTime: map[core.Category]decimal.Decimal{
			core.Transport: d("20"),
			core.Food:      d("1060"),
		},
		month: map[core.Category]decimal.Decimal{
			core.Food:      d("60"),
			core.Transport: d("20"),
		},
		budgets: []core.BudgetLimit{
			{Category: core.Food, Limit: d("50")},
			{Category: core.Utilities, Limit: d("30")},
		},
		overCats: map[core.Category]bool{core.Food: true},
	}
}

func TestBuildFinancialReport(t *testing.T) {
	r := BuildFinancialReport(sampleView())

	if r.AccountName != "Main" || !r.Balance.Equal(d("1234.5")) {
		t.Fatalf("header wrong: %+v", r)
	}
	wantOrder := []core.Category{core.Food, core.Transport, core.Utilities}
	if len(r.Categories) != len(wantOrder) {
		t.Fatalf("got %d rows, want %d", len(r.Categories), len(wantOrder))
	}
	for i, c := range wantOrder {
		if r.Categories[i].Category != c {
			t.Errorf("row %d = %v, want %v", i, r.Categories[i].Category, c)
		}
	}

	food := r.Categories[0]
	if !food.Spent.Equal(d("1060")) || !food.MonthSpent.Equal(d("60")) || !food.HasBudget || !food.Over {
		t.Errorf("food row wrong: %+v", food)
	}
	if r.Categories[1].HasBudget || r.Categories[1].Over {
		t.Errorf("transport has no budget: %+v", r.Categories[1])
	}
	if util := r.Categories[2]; !util.Spent.IsZero() || util.Over {
		t.Errorf("utilities row wrong: %+v", util)
	}
	if !r.TotalMonthlySpending.Equal(d("80")) || r.OverBudget {
		t.Errorf("monthly totals wrong: %s over=%v", r.TotalMonthlySpending, r.OverBudget)
	}
}

func TestProjectSavings(t *testing.T) {
	v := sampleView() // balance 1234.5, monthly spending 80

	p, err := ProjectSavings(v, d("100"), 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []struct{ bal, net string }{
		{"1254.5", "20"},
		{"1274.5", "40"},
		{"1294.5", "60"},
	}
	if len(p.Rows) != len(want) {
		t.Fatalf("got %d rows", len(p.Rows))
	}
	for i, w := range want {
		row := p.Rows[i]
		if row.Month != i+1 || !row.ProjectedBalance.Equal(d(w.bal)) || !row.NetSavings.Equal(d(w.net)) {
			t.Errorf("row %d = %+v, want balance %s net %s", i, row, w.bal, w.net)
		}
	}

	if p, err := ProjectSavings(v, d("100"), 0); err != nil || len(p.Rows) != 0 {
		t.Fatalf("zero months: rows=%d err=%v", len(p.Rows), err)
	}
	if _, err := ProjectSavings(v, d("100"), -1); !errors.Is(err, core.ErrInvalidMonths) {
		t.Fatalf("expected ErrInvalidMonths, got %v", err)
	}
}

func TestSpendingInsights(t *testing.T) {
	tests := []struct {
		name      string
		spending  map[core.Category]decimal.Decimal
		wantRecs  []core.Category
		wantShare map[core.Category]string
	}{
		{
			name:     "no spending",
			spending: map[core.Category]decimal.Decimal{},
		},
		{
			name:      "refunds cancel out",
			spending:  map[core.Category]decimal.Decimal{core.Food: d("10"), core.Housing: d("-10")},
			wantShare: map[core.Category]string{core.Food: "0", core.Housing: "0"},
		},
		{
			name: "one dominant category",
			spending: map[core.Category]decimal.Decimal{
				core.Housing:       d("70"),
				core.Food:          d("20"),
				core.Miscellaneous: d("10"),
			},
			wantRecs:  []core.Category{core.Housing},
			wantShare: map[core.Category]string{core.Housing: "70", core.Food: "20"},
		},
		{
			name:      "exactly thirty percent is not flagged",
			spending:  map[core.Category]decimal.Decimal{core.Food: d("30"), core.Transport: d("35"), core.Education: d("35")},
			wantRecs:  []core.Category{core.Transport, core.Education},
			wantShare: map[core.Category]string{core.Food: "30"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := SpendingInsights(stubView{allTime: tt.spending})
			if len(in.Recommend) != len(tt.wantRecs) {
				t.Fatalf("recommendations = %v, want %v", in.Recommend, tt.wantRecs)
			}
			for i, c := range tt.wantRecs {
				if in.Recommend[i] != c {
					t.Errorf("recommendation %d = %v, want %v", i, in.Recommend[i], c)
				}
			}
			for _, s := range in.Shares {
				if want, ok := tt.wantShare[s.Category]; ok && !s.Percent.Equal(d(want)) {
					t.Errorf("%v share = %s, want %s", s.Category, s.Percent, want)
				}
			}
		})
	}
}

func TestRenderers(t *testing.T) {
	v := sampleView()

	var buf bytes.Buffer
	if err := RenderFinancialReport(&buf, BuildFinancialReport(v)); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Financial Report for Main", "$1,234.50", "Food: $1,060.00", "OVER BUDGET!"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("report missing %q:\n%s", want, buf.String())
		}
	}

	buf.Reset()
	p, _ := ProjectSavings(v, d("100"), 2)
	if err := RenderProjection(&buf, p); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "2\t$1,274.50\t\t$40.00") {
		t.Errorf("projection output unexpected:\n%s", buf.String())
	}

	buf.Reset()
	if err := RenderInsights(&buf, SpendingInsights(stubView{})); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "None") {
		t.Errorf("empty insights should say there is nothing to recommend:\n%s", buf.String())
	}
}

func TestMoney(t *testing.T) {
	cases := map[string]string{
		"0":         "$0.00",
		"12.345":    "$12.35",
		"1234567.1": "$1,234,567.10",
	}
	for in, want := range cases {
		if got := Money(d(in)); got != want {
			t.Errorf("Money(%s) = %q, want %q", in, got, want)
		}
	}
}
