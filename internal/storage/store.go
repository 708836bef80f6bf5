// Package storage holds the durable text stores the ledger writes through to.
package storage

import (
	"context"
	"path"
	"strings"
)

// Store persists whole text files addressed by slash separated paths.
// Reading a path that was never written returns "" and no error.
type Store interface {
	Read(ctx context.Context, path string) (string, error)
	Write(ctx context.Context, path, content string) error
	EnsureDirectory(ctx context.Context, path string) error
}

// Layout maps accounts and users to record paths.
type Layout struct{}

func (Layout) AccountDir(accountID string) string {
	return path.Join("accounts", accountID)
}

func (l Layout) AccountFile(accountID string) string {
	return path.Join(l.AccountDir(accountID), "account_"+accountID+".txt")
}

func (l Layout) TransactionsFile(accountID string) string {
	return path.Join(l.AccountDir(accountID), "transactions_"+accountID+".txt")
}

func (l Layout) BudgetsFile(accountID string) string {
	return path.Join(l.AccountDir(accountID), "budgets_"+accountID+".txt")
}

func (Layout) UsersDir() string { return "users" }

func (l Layout) UsersFile() string { return path.Join(l.UsersDir(), "users.txt") }

// UserAccountsFile lists the account ids owned by a user.
func (l Layout) UserAccountsFile(userID string) string {
	return path.Join(l.UsersDir(), "accounts_"+userID+".txt")
}

// cleanPath normalizes a record path and rejects anything escaping the root.
func cleanPath(p string) (string, bool) {
	c := path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	c = strings.TrimPrefix(c, "/")
	if c == "" || c == "." {
		return "", false
	}
	return c, true
}
