// Package export defines the outbound ledger port: every stored receipt can
// be mirrored as one row in an external spreadsheet.
package export

import (
	"context"

	"github.com/OgnevOA/spendy-pants/internal/core"
)

// ReceiptAppender appends one receipt to the ledger and returns a reference
// to the written row. Export is best effort; callers log failures and move on.
type ReceiptAppender interface {
	Append(ctx context.Context, r core.Receipt, scopeLabel string) (rowRef string, err error)
}
