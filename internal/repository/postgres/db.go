package postgres

import (
	"context"
	"database/sql"
	"time"
)

// Querier abstracts the statement executor so every repository can run
// against the pooled *sql.DB or inside a *sql.Tx. Strike issuance and
// suspension rederivation build their repositories over a transaction via the
// NewXxxRepositoryWithTx constructors.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// rowScanner lets the scan helpers work over both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// nullTime maps the ledger's zero-value timestamps to SQL NULL. Lifecycle
// stamps (captured_at, released_at, refunded_at) stay NULL until the hold
// actually reaches that state.
func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
