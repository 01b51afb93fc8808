package postgres

import (
	"context"
	"database/sql"

	"tripguard/internal/repository"
)

// TxRunner is the PostgreSQL implementation of repository.TxRunner. Each run
// opens one transaction and hands the caller repositories bound to it.
type TxRunner struct {
	db *sql.DB
}

// NewTxRunner creates a TxRunner over the pooled connection.
func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{db: db}
}

// RunInTx runs fn inside a transaction, committing on nil and rolling back on
// any error.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(repos repository.TxRepos) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	repos := repository.TxRepos{
		Strikes:     NewStrikeRepositoryWithTx(tx),
		Suspensions: NewSuspensionRepositoryWithTx(tx),
		Drivers:     NewDriverRepositoryWithTx(tx),
	}

	if err := fn(repos); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
