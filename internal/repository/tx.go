package repository

import "context"

// TxRepos bundles the repositories bound to a single transaction. Escalation
// needs the strike count, the suspension write and the eligibility revocation
// to observe one consistent snapshot; handing callers pre-bound repositories
// keeps them from accidentally mixing pooled and transactional statements.
type TxRepos struct {
	Strikes     StrikeRepository
	Suspensions SuspensionRepository
	Drivers     DriverRepository
}

// TxRunner executes a unit of work inside one database transaction. The
// function's writes commit together or not at all; any returned error rolls
// everything back.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(repos TxRepos) error) error
}
