package codec

import (
	"strings"

	"fintrack/internal/core"
)

// EncodeTransactions renders a whole transaction file, one record per line.
func EncodeTransactions(ts []core.Transaction) string {
	var sb strings.Builder
	for _, t := range ts {
		sb.WriteString(EncodeTransaction(t))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// DecodeTransactions parses a whole transaction file. Blank lines are skipped.
func DecodeTransactions(content string) ([]core.Transaction, error) {
	records, err := readRecords("transaction", content)
	if err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(records))
	for _, rec := range records {
		t, err := transactionFromFields(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func EncodeBudgetLimits(bs []core.BudgetLimit) string {
	var sb strings.Builder
	for _, b := range bs {
		sb.WriteString(EncodeBudgetLimit(b))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func DecodeBudgetLimits(content string) ([]core.BudgetLimit, error) {
	records, err := readRecords("budget", content)
	if err != nil {
		return nil, err
	}
	out := make([]core.BudgetLimit, 0, len(records))
	for _, rec := range records {
		b, err := budgetFromFields(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func EncodeUsers(us []User) string {
	var sb strings.Builder
	for _, u := range us {
		sb.WriteString(EncodeUser(u))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func DecodeUsers(content string) ([]User, error) {
	records, err := readRecords("user", content)
	if err != nil {
		return nil, err
	}
	out := make([]User, 0, len(records))
	for _, rec := range records {
		u, err := userFromFields(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

// EncodeIDs renders a list of identifiers, one per line.
func EncodeIDs(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return strings.Join(ids, "\n") + "\n"
}

func DecodeIDs(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
