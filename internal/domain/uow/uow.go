package uow

import (
	"context"

	"p2p-lending/internal/domain/approval"
	"p2p-lending/internal/domain/ledger"
	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/wallet"
)

// Repos are bound to one transaction; everything written through them commits
// or rolls back together.
type Repos struct {
	Loans     loan.Repository
	Approvals approval.Repository
	Wallets   wallet.Repository
	Ledger    ledger.Repository
}

type UnitOfWork interface {
	// plain tx: commit when fn returns nil, roll back otherwise
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock loan first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
