package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// AlertKind says which budget was exceeded.
type AlertKind string

const (
	AlertCategory AlertKind = "category"
	AlertMonthly  AlertKind = "monthly"
)

// BudgetAlertMessage is published when an account goes over a category limit
// or over its monthly budget. Category is empty for monthly alerts.
type BudgetAlertMessage struct {
	AccountID   string          `json:"account_id"`
	AccountName string          `json:"account_name"`
	Kind        AlertKind       `json:"kind"`
	Category    string          `json:"category,omitempty"`
	Limit       decimal.Decimal `json:"limit"`
	Spent       decimal.Decimal `json:"spent"`
	Timestamp   time.Time       `json:"timestamp"`
}

func NewCategoryAlert(accountID, accountName, category string, limit, spent decimal.Decimal) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		AccountID:   accountID,
		AccountName: accountName,
		Kind:        AlertCategory,
		Category:    category,
		Limit:       limit,
		Spent:       spent,
		Timestamp:   time.Now(),
	}
}

func NewMonthlyAlert(accountID, accountName string, budget, spent decimal.Decimal) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		AccountID:   accountID,
		AccountName: accountName,
		Kind:        AlertMonthly,
		Limit:       budget,
		Spent:       spent,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetAlertMessageFromJSON decodes a message produced by ToJSON.
func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
