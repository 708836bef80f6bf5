package log

import "github.com/shopspring/decimal"

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldAccountID     = "account_id"
	FieldAccountName   = "account_name"
	FieldUserID        = "user_id"
	FieldUsername      = "username"
	FieldTransactionID = "transaction_id"
	FieldReplacedID    = "replaced_id"
	FieldCategory      = "category"
	FieldAmount        = "amount"
	FieldLimit         = "limit"
	FieldSpent         = "spent"
	FieldBalance       = "balance"
	FieldCount         = "count"
	FieldPath          = "path"
	FieldBackend       = "backend"
)

const (
	ComponentApp     = "app"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentUsers   = "users"
	ComponentService = "service"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentCache   = "cache"
	ComponentBackend = "backend"
	ComponentCLI     = "cli"
)

const (
	OpCreate   = "create"
	OpOpen     = "open"
	OpRecord   = "record"
	OpEdit     = "edit"
	OpDelete   = "delete"
	OpDeposit  = "deposit"
	OpBudget   = "budget"
	OpRegister = "register"
	OpLogin    = "login"
	OpAlert    = "alert"
	OpExport   = "export"
	OpCheck    = "check"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields collects attributes for a single log call.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithAccount(id string) LogFields {
	f[FieldAccountID] = id
	return f
}

// WithTransaction adds id, category and amount of a ledger entry.
func (f LogFields) WithTransaction(id, category string, amount decimal.Decimal) LogFields {
	f[FieldTransactionID] = id
	f[FieldCategory] = category
	f[FieldAmount] = amount.String()
	return f
}

func (f LogFields) WithBalance(balance decimal.Decimal) LogFields {
	f[FieldBalance] = balance.String()
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
