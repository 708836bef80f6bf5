package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/report"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
	"fintrack/internal/users"
)

var errUsage = errors.New("usage")

const dateLayout = "2006-01-02"

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "register":
		return a.register(ctx, rest)
	case "account":
		return a.sub(ctx, rest, map[string]func(context.Context, []string) error{
			"create": a.accountCreate,
			"list":   a.accountList,
		})
	case "tx":
		return a.sub(ctx, rest, map[string]func(context.Context, []string) error{
			"add":    a.txAdd,
			"edit":   a.txEdit,
			"delete": a.txDelete,
			"list":   a.txList,
		})
	case "budget":
		return a.sub(ctx, rest, map[string]func(context.Context, []string) error{
			"set":     a.budgetSet,
			"clear":   a.budgetClear,
			"monthly": a.budgetMonthly,
		})
	case "deposit":
		return a.deposit(ctx, rest)
	case "report":
		return a.report(ctx, rest)
	case "project":
		return a.project(ctx, rest)
	case "insights":
		return a.insights(ctx, rest)
	case "export":
		return a.export(ctx, rest)
	default:
		return errUsage
	}
}

func (a *app) sub(ctx context.Context, args []string, cmds map[string]func(context.Context, []string) error) error {
	if len(args) == 0 {
		return errUsage
	}
	fn, ok := cmds[args[0]]
	if !ok {
		return errUsage
	}
	return fn(ctx, args[1:])
}

// command is a flag set with the shared credential and account flags.
type command struct {
	fs       *flag.FlagSet
	user     *string
	password *string
	account  *string
}

func (a *app) newCommand(name string, withAccount bool) *command {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	c := &command{
		fs:       fs,
		user:     fs.String("user", a.getenv("FINTRACK_USER"), "username"),
		password: fs.String("password", a.getenv("FINTRACK_PASSWORD"), "password"),
	}
	if withAccount {
		c.account = fs.String("account", a.getenv("FINTRACK_ACCOUNT"), "account id")
	}
	return c
}

func (c *command) parse(args []string) error {
	if err := c.fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %w", c.fs.Name(), err)
	}
	return nil
}

func (a *app) login(ctx context.Context, c *command) (users.User, error) {
	if *c.user == "" || *c.password == "" {
		return users.User{}, errors.New("missing credentials: use -user and -password")
	}
	return a.directory.Authenticate(ctx, *c.user, *c.password)
}

func (a *app) session(ctx context.Context, c *command) (services.Session, error) {
	u, err := a.login(ctx, c)
	if err != nil {
		return services.Session{}, err
	}
	if *c.account == "" {
		return services.Session{}, errors.New("missing -account")
	}
	return services.Session{User: u, AccountID: *c.account}, nil
}

func (a *app) register(ctx context.Context, args []string) error {
	c := a.newCommand("register", false)
	if err := c.parse(args); err != nil {
		return err
	}
	u, err := a.directory.Register(ctx, *c.user, *c.password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s (%s)\n", u.Username, u.ID)
	return nil
}

func (a *app) accountCreate(ctx context.Context, args []string) error {
	c := a.newCommand("account create", false)
	name := c.fs.String("name", "", "account name")
	balance := c.fs.String("balance", "0", "initial balance")
	budget := c.fs.String("budget", "0", "monthly budget")
	if err := c.parse(args); err != nil {
		return err
	}
	bal, err := core.ParseAmount(*balance)
	if err != nil {
		return fmt.Errorf("balance: %w", err)
	}
	monthly, err := core.ParseLimit(*budget)
	if err != nil {
		return fmt.Errorf("budget: %w", err)
	}
	u, err := a.login(ctx, c)
	if err != nil {
		return err
	}
	acc, err := a.svc.CreateAccount(ctx, u, *name, bal, monthly)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created account %s (%s)\n", acc.Name, acc.ID)
	return nil
}

func (a *app) accountList(ctx context.Context, args []string) error {
	c := a.newCommand("account list", false)
	if err := c.parse(args); err != nil {
		return err
	}
	u, err := a.login(ctx, c)
	if err != nil {
		return err
	}
	list, err := a.svc.ListAccounts(ctx, u)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tBALANCE\tTHIS MONTH\tBUDGET\tSTATUS")
	for _, s := range list {
		status := "ok"
		if s.Status.OverMonthly || len(s.Status.OverCategories) > 0 {
			status = "over budget"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", s.Account.ID, s.Account.Name,
			report.Money(s.Account.Balance), report.Money(s.MonthSpending), report.Money(s.Account.MonthlyBudget), status)
	}
	return tw.Flush()
}

type txFlags struct {
	amount      *string
	category    *string
	description *string
}

func addTxFlags(c *command) txFlags {
	return txFlags{
		amount:      c.fs.String("amount", "", "amount spent (negative for a refund)"),
		category:    c.fs.String("category", "", "category name or number"),
		description: c.fs.String("desc", "", "description"),
	}
}

func (f txFlags) values() (decimal.Decimal, core.Category, error) {
	amount, err := core.ParseAmount(*f.amount)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("amount: %w", err)
	}
	cat, err := core.ParseCategory(*f.category)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("category %q: %w", *f.category, err)
	}
	return amount, cat, nil
}

func (a *app) txAdd(ctx context.Context, args []string) error {
	c := a.newCommand("tx add", true)
	f := addTxFlags(c)
	date := c.fs.String("date", "", "spend date (YYYY-MM-DD), default now")
	if err := c.parse(args); err != nil {
		return err
	}
	amount, cat, err := f.values()
	if err != nil {
		return err
	}
	var when time.Time
	if *date != "" {
		if when, err = time.ParseInLocation(dateLayout, *date, time.Local); err != nil {
			return fmt.Errorf("date: %w", err)
		}
	}
	sess, err := a.session(ctx, c)
	if err != nil {
		return err
	}
	tx, err := a.svc.RecordTransaction(ctx, sess, when, amount, cat, *f.description)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Recorded %s\n", tx.ID)
	return nil
}

func (a *app) txEdit(ctx context.Context, args []string) error {
	c := a.newCommand("tx edit", true)
	id := c.fs.String("id", "", "transaction id")
	f := addTxFlags(c)
	if err := c.parse(args); err != nil {
		return err
	}
	amount, cat, err := f.values()
	if err != nil {
		return err
	}
	sess, err := a.session(ctx, c)
	if err != nil {
		return err
	}
	tx, err := a.svc.EditTransaction(ctx, sess, *id, amount, cat, *f.description)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Replaced %s with %s\n", *id, tx.ID)
	return nil
}

func (a *app) txDelete(ctx context.Context, args []string) error {
	c := a.newCommand("tx delete", true)
	id := c.fs.String("id", "", "transaction id")
	if err := c.parse(args); err != nil {
		return err
	}
	sess, err := a.session(ctx, c)
	if err != nil {
		return err
	}
	if err := a.svc.DeleteTransaction(ctx, sess, *id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s\n", *id)
	return nil
}

func (a *app) txList(ctx context.Context, args []string) error {
	c := a.newCommand("tx list", true)
	if err := c.parse(args); err != nil {
		return err
	}
	sess, err := a.session(ctx, c)
	if err != nil {
		return err
	}
	return a.svc.Do(ctx, sess, func(l *ledger.Ledger) error {
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tAMOUNT\tDESCRIPTION")
		for _, tx := range l.Transactions() {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", tx.ID, tx.Date.Format(dateLayout), tx.Category, report.Money(tx.Amount), tx.Description)
		}
		return tw.Flush()
	})
}

func (a *app) budgetSet(ctx context.Context, args []string) error {
	c := a.newCommand("budget set", true)
	category := c.fs.String("category", "", "category name or number")
	limit := c.fs.String("limit", "", "monthly limit")
	if err := c.parse(args); err != nil {
		return err
	}
	cat, err := core.ParseCategory(*category)
	if err != nil {
		return fmt.Errorf("category %q: %w", *category, err)
	}
	lim, err := core.ParseLimit(*limit)
	if err != nil {
		return fmt.Errorf("limit: %w", err)
	}
	sess, err := a.session(ctx, c)
	if err != nil {
		return err
	}
	if err := a.svc.SetCategoryBudget(ctx, sess, cat, lim); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Budget for %s set to %s\n", cat, report.Money(lim))
	return nil
}

func (a *app) budgetClear(ctx context.Context, args []string) error {
	c := a.newCommand("budget clear", true)
	category := c.fs.String("category", "", "category name or number")
	if err := c.parse(args); err != nil {
		return err
	}
	cat, err := core.ParseCategory(*category)
	if err != nil {
		return fmt.Errorf("category %q: %w", *category, err)
	}
	sess, err := a.session(ctx, c)
	if err != nil {
		return err
	}
	if err := a.svc.DeleteCategoryBudget(ctx, sess, cat); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Budget for %s cleared\n", cat)
	return nil
}

func (a *app) budgetMonthly(ctx context.Context, args []string) error {
	c := a.newCommand("budget monthly", true)
	amount := c.fs.String("amount", "", "overall monthly budget")
	if err := c.parse(args); err != nil {
		return err
	}
	lim, err := core.ParseLimit(*amount)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	sess, err := a.session(ctx, c)
	if err != nil {
		return err
	}
	if err := a.svc.SetMonthlyBudget(ctx, sess, lim); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Monthly budget set to %s\n", report.Money(lim))
	return nil
}

func (a *app) deposit(ctx context.Context, args []string) error {
	c := a.newCommand("deposit", true)
	amount := c.fs.String("amount", "", "amount to deposit")
	if err := c.parse(args); err != nil {
		return err
	}
	d, err := core.ParseAmount(*amount)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	sess, err := a.session(ctx, c)
	if err != nil {
		return err
	}
	balance, err := a.svc.Deposit(ctx, sess, d)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Balance: %s\n", report.Money(balance))
	return nil
}

func (a *app) report(ctx context.Context, args []string) error {
	c := a.newCommand("report", true)
	if err := c.parse(args); err != nil {
		return err
	}
	sess, err := a.session(ctx, c)
	if err != nil {
		return err
	}
	return a.svc.Do(ctx, sess, func(l *ledger.Ledger) error {
		return report.RenderFinancialReport(a.out, report.BuildFinancialReport(l))
	})
}

func (a *app) project(ctx context.Context, args []string) error {
	c := a.newCommand("project", true)
	contribution := c.fs.String("contribution", "0", "monthly contribution")
	months := c.fs.String("months", "12", "number of months")
	if err := c.parse(args); err != nil {
		return err
	}
	contrib, err := core.ParseAmount(*contribution)
	if err != nil {
		return fmt.Errorf("contribution: %w", err)
	}
	n, err := strconv.Atoi(*months)
	if err != nil {
		return fmt.Errorf("months: %w", core.ErrInvalidMonths)
	}
	sess, err := a.session(ctx, c)
	if err != nil {
		return err
	}
	return a.svc.Do(ctx, sess, func(l *ledger.Ledger) error {
		p, err := report.ProjectSavings(l, contrib, n)
		if err != nil {
			return err
		}
		return report.RenderProjection(a.out, p)
	})
}

func (a *app) insights(ctx context.Context, args []string) error {
	c := a.newCommand("insights", true)
	if err := c.parse(args); err != nil {
		return err
	}
	sess, err := a.session(ctx, c)
	if err != nil {
		return err
	}
	return a.svc.Do(ctx, sess, func(l *ledger.Ledger) error {
		return report.RenderInsights(a.out, report.SpendingInsights(l))
	})
}

func (a *app) export(ctx context.Context, args []string) error {
	c := a.newCommand("export", true)
	dryRun := c.fs.Bool("dry-run", false, "print the rows instead of uploading")
	if err := c.parse(args); err != nil {
		return err
	}
	if !*dryRun && a.exporter == nil {
		return errors.New("export is not configured: set GOOGLE_SPREADSHEET_ID")
	}
	sess, err := a.session(ctx, c)
	if err != nil {
		return err
	}
	var snap core.AccountSnapshot
	if err := a.svc.Do(ctx, sess, func(l *ledger.Ledger) error {
		snap = l.Snapshot()
		return nil
	}); err != nil {
		return err
	}

	if *dryRun {
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		for _, row := range sheets.BuildRows(snap) {
			for i, cell := range row {
				if i > 0 {
					fmt.Fprint(tw, "\t")
				}
				fmt.Fprint(tw, cell)
			}
			fmt.Fprintln(tw)
		}
		return tw.Flush()
	}
	if err := a.exporter.Export(ctx, snap); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Exported %d transactions\n", len(snap.Transactions))
	return nil
}
