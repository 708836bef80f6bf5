package main

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
	"fintrack/internal/users"
)

func newTestApp(env map[string]string) (*app, *bytes.Buffer) {
	store := storage.NewMemoryStore()
	logger := log.Discard()
	dir := users.NewDirectory(store, users.WithCost(bcrypt.MinCost), users.WithLogger(logger))
	reg := ledger.NewRegistry(store, 8, 0, ledger.Options{Logger: logger})
	var out bytes.Buffer
	return &app{
		svc:       services.NewLedgerService(reg, dir, nil, logger),
		directory: dir,
		out:       &out,
		getenv:    func(k string) string { return env[k] },
	}, &out
}

var (
	accountIDRe = regexp.MustCompile(`Created account Main \(([^)]+)\)`)
	txIDRe      = regexp.MustCompile(`Recorded (\S+)`)
)

func TestCommandFlow(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(map[string]string{"FINTRACK_USER": "alice", "FINTRACK_PASSWORD": "pw"})

	run := func(args ...string) string {
		t.Helper()
		out.Reset()
		if err := a.run(ctx, args); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		return out.String()
	}

	run("register")
	m := accountIDRe.FindStringSubmatch(run("account", "create", "-name", "Main", "-balance", "1000", "-budget", "300"))
	if m == nil {
		t.Fatal("account id not printed")
	}
	acc := m[1]

	run("budget", "set", "-account", acc, "-category", "food", "-limit", "50")
	m = txIDRe.FindStringSubmatch(run("tx", "add", "-account", acc, "-amount", "60", "-category", "Food", "-desc", "groceries, weekly"))
	if m == nil {
		t.Fatal("transaction id not printed")
	}
	txID := m[1]
	run("tx", "add", "-account", acc, "-amount", "20", "-category", "1", "-desc", "bus")

	if got := run("tx", "list", "-account", acc); !strings.Contains(got, "groceries, weekly") || !strings.Contains(got, "Transport") {
		t.Errorf("tx list output:\n%s", got)
	}
	if got := run("report", "-account", acc); !strings.Contains(got, "$920.00") || !strings.Contains(got, "OVER BUDGET!") {
		t.Errorf("report output:\n%s", got)
	}
	if got := run("insights", "-account", acc); !strings.Contains(got, "High spending in Food") {
		t.Errorf("insights output:\n%s", got)
	}
	if got := run("project", "-account", acc, "-contribution", "100", "-months", "2"); !strings.Contains(got, "$940.00") {
		t.Errorf("projection output:\n%s", got)
	}

	run("tx", "edit", "-account", acc, "-id", txID, "-amount", "40", "-category", "food", "-desc", "groceries")
	if got := run("budget", "clear", "-account", acc, "-category", "food"); !strings.Contains(got, "Budget for Food cleared") {
		t.Errorf("budget clear output:\n%s", got)
	}
	run("budget", "monthly", "-account", acc, "-amount", "500")
	if got := run("deposit", "-account", acc, "-amount", "40"); !strings.Contains(got, "$980.00") {
		t.Errorf("deposit output:\n%s", got)
	}
	if got := run("account", "list"); !strings.Contains(got, "Main") || !strings.Contains(got, "ok") {
		t.Errorf("account list output:\n%s", got)
	}
	if got := run("export", "-account", acc, "-dry-run"); !strings.Contains(got, "Monthly Budget") {
		t.Errorf("export dry run output:\n%s", got)
	}
}

func TestCommandErrors(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(nil)
	if err := a.run(ctx, []string{"register", "-user", "bob", "-password", "pw"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"wrong password", []string{"account", "list", "-user", "bob", "-password", "nope"}, users.ErrInvalidCredentials},
		{"foreign account", []string{"report", "-user", "bob", "-password", "pw", "-account", "someone-else"}, services.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := a.run(ctx, tt.args); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if err := a.run(ctx, []string{"export", "-user", "bob", "-password", "pw", "-account", "x"}); err == nil {
		t.Error("export without a configured exporter should fail")
	}
	if err := a.run(ctx, []string{"account", "list"}); err == nil {
		t.Error("missing credentials should fail")
	}
}

func TestUsage(t *testing.T) {
	a, _ := newTestApp(nil)
	for _, args := range [][]string{nil, {"bogus"}, {"tx"}, {"tx", "nope"}} {
		if err := a.run(context.Background(), args); !errors.Is(err, errUsage) {
			t.Errorf("%v: expected usage error, got %v", args, err)
		}
	}
}
