package backup

import (
	"context"

	"finanze/internal/core"
)

// Mirror receives full-ledger snapshots for external backup. Implementations
// replace their previous copy wholesale; the ledger is small enough that
// incremental diffs are not worth the bookkeeping.
type Mirror interface {
	Replace(ctx context.Context, txs []core.Transaction) error
}
