// Package codec converts ledger entities to and from flat text records.
//
// Records are comma separated lines. Fields are quoted CSV style only when
// they contain a comma, quote or line break, so plain records keep the
// historical format byte for byte while free text round-trips losslessly.
package codec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	transactionFields = 7
	budgetFields      = 2
	accountFields     = 6
	userFields        = 5
)

// User is the persisted form of a registered user.
type User struct {
	Username     string
	PasswordHash string
	ID           string
	core.Timestamps
}

var errFieldCount = errors.New("wrong field count")

// EncodeTransaction renders id, amount, category ordinal, description,
// transaction date, createdAt and updatedAt (unix seconds).
func EncodeTransaction(t core.Transaction) string {
	return encodeRecord([]string{
		t.ID,
		t.Amount.String(),
		strconv.Itoa(int(t.Category)),
		t.Description,
		formatUnix(t.Date),
		formatUnix(t.CreatedAt),
		formatUnix(t.UpdatedAt),
	})
}

// DecodeTransaction parses a single transaction line.
func DecodeTransaction(line string) (core.Transaction, error) {
	fields, err := splitRecord("transaction", line)
	if err != nil {
		return core.Transaction{}, err
	}
	return transactionFromFields(fields)
}

func transactionFromFields(fields []string) (core.Transaction, error) {
	const kind = "transaction"
	n := len(fields)
	if n < transactionFields {
		return core.Transaction{}, &core.FormatError{Kind: kind, Err: fmt.Errorf("%w: got %d, want %d", errFieldCount, n, transactionFields)}
	}
	// Lines written before descriptions were quoted split a description
	// containing commas over several fields; the timestamps are always last.
	desc := fields[3]
	if n > transactionFields {
		desc = strings.Join(fields[3:n-3], ",")
	}
	tail := fields[n-3:]

	amount, err := parseDecimal(kind, "amount", fields[1])
	if err != nil {
		return core.Transaction{}, err
	}
	cat, err := parseCategory(kind, fields[2])
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := parseUnix(kind, "transactionDate", tail[0])
	if err != nil {
		return core.Transaction{}, err
	}
	created, err := parseUnix(kind, "createdAt", tail[1])
	if err != nil {
		return core.Transaction{}, err
	}
	updated, err := parseUnix(kind, "updatedAt", tail[2])
	if err != nil {
		return core.Transaction{}, err
	}

	return core.Transaction{
		ID:          fields[0],
		Amount:      amount,
		Category:    cat,
		Description: desc,
		Date:        date,
		Timestamps:  core.Timestamps{CreatedAt: created, UpdatedAt: updated},
	}, nil
}

// EncodeBudgetLimit renders category ordinal and limit.
func EncodeBudgetLimit(b core.BudgetLimit) string {
	return encodeRecord([]string{strconv.Itoa(int(b.Category)), b.Limit.String()})
}

// DecodeBudgetLimit parses a single budget line.
func DecodeBudgetLimit(line string) (core.BudgetLimit, error) {
	fields, err := splitRecord("budget", line)
	if err != nil {
		return core.BudgetLimit{}, err
	}
	return budgetFromFields(fields)
}

func budgetFromFields(fields []string) (core.BudgetLimit, error) {
	const kind = "budget"
	if len(fields) != budgetFields {
		return core.BudgetLimit{}, &core.FormatError{Kind: kind, Err: fmt.Errorf("%w: got %d, want %d", errFieldCount, len(fields), budgetFields)}
	}
	cat, err := parseCategory(kind, fields[0])
	if err != nil {
		return core.BudgetLimit{}, err
	}
	limit, err := parseDecimal(kind, "limit", fields[1])
	if err != nil {
		return core.BudgetLimit{}, err
	}
	return core.BudgetLimit{Category: cat, Limit: limit}, nil
}

// EncodeAccount renders id, name, balance, monthly budget, createdAt, updatedAt.
func EncodeAccount(a core.Account) string {
	return encodeRecord([]string{
		a.ID,
		a.Name,
		a.Balance.String(),
		a.MonthlyBudget.String(),
		formatUnix(a.CreatedAt),
		formatUnix(a.UpdatedAt),
	})
}

func DecodeAccount(line string) (core.Account, error) {
	const kind = "account"
	fields, err := splitRecord(kind, line)
	if err != nil {
		return core.Account{}, err
	}
	if len(fields) != accountFields {
		return core.Account{}, &core.FormatError{Kind: kind, Err: fmt.Errorf("%w: got %d, want %d", errFieldCount, len(fields), accountFields)}
	}
	balance, err := parseDecimal(kind, "balance", fields[2])
	if err != nil {
		return core.Account{}, err
	}
	budget, err := parseDecimal(kind, "monthlyBudget", fields[3])
	if err != nil {
		return core.Account{}, err
	}
	created, err := parseUnix(kind, "createdAt", fields[4])
	if err != nil {
		return core.Account{}, err
	}
	updated, err := parseUnix(kind, "updatedAt", fields[5])
	if err != nil {
		return core.Account{}, err
	}
	return core.Account{
		ID:            fields[0],
		Name:          fields[1],
		Balance:       balance,
		MonthlyBudget: budget,
		Timestamps:    core.Timestamps{CreatedAt: created, UpdatedAt: updated},
	}, nil
}

// EncodeUser renders username, password hash, id, createdAt, updatedAt.
func EncodeUser(u User) string {
	return encodeRecord([]string{u.Username, u.PasswordHash, u.ID, formatUnix(u.CreatedAt), formatUnix(u.UpdatedAt)})
}

func DecodeUser(line string) (User, error) {
	fields, err := splitRecord("user", line)
	if err != nil {
		return User{}, err
	}
	return userFromFields(fields)
}

func userFromFields(fields []string) (User, error) {
	const kind = "user"
	if len(fields) < userFields {
		return User{}, &core.FormatError{Kind: kind, Err: fmt.Errorf("%w: got %d, want %d", errFieldCount, len(fields), userFields)}
	}
	created, err := parseUnix(kind, "createdAt", fields[3])
	if err != nil {
		return User{}, err
	}
	updated, err := parseUnix(kind, "updatedAt", fields[4])
	if err != nil {
		return User{}, err
	}
	return User{
		Username:     fields[0],
		PasswordHash: fields[1],
		ID:           fields[2],
		Timestamps:   core.Timestamps{CreatedAt: created, UpdatedAt: updated},
	}, nil
}

func encodeRecord(fields []string) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	// Writing to a bytes.Buffer cannot fail.
	_ = w.Write(fields)
	w.Flush()
	return strings.TrimSuffix(buf.String(), "\n")
}

func splitRecord(kind, line string) ([]string, error) {
	records, err := readRecords(kind, line)
	if err != nil {
		return nil, err
	}
	if len(records) != 1 {
		return nil, &core.FormatError{Kind: kind, Err: fmt.Errorf("expected one record, got %d", len(records))}
	}
	return records[0], nil
}

// readRecords splits file content into records, skipping blank lines.
func readRecords(kind, content string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(content))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	var out [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, &core.FormatError{Kind: kind, Err: err}
		}
		out = append(out, rec)
	}
}

func parseDecimal(kind, field, s string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(s)
	if err != nil {
		return decimal.Zero, &core.FormatError{Kind: kind, Field: field, Value: s, Err: err}
	}
	return d, nil
}

func parseCategory(kind, s string) (core.Category, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &core.FormatError{Kind: kind, Field: "category", Value: s, Err: err}
	}
	c := core.Category(n)
	if !c.Valid() {
		return 0, &core.FormatError{Kind: kind, Field: "category", Value: s, Err: core.ErrInvalidCategory}
	}
	return c, nil
}

func formatUnix(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

func parseUnix(kind, field, s string) (time.Time, error) {
	sec, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return time.Time{}, &core.FormatError{Kind: kind, Field: field, Value: s, Err: err}
	}
	return time.Unix(sec, 0), nil
}
