// Package sheets defines the spreadsheet export port and the row layout
// shared by its adapters.
package sheets

import (
	"context"

	"fintrack/internal/core"
)

// LedgerExporter replaces a spreadsheet tab with the contents of one account.
type LedgerExporter interface {
	Export(ctx context.Context, snap core.AccountSnapshot) error
}
