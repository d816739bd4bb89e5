package ledgermock

import (
	"context"

	domain "p2p-lending/internal/domain/ledger"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	AppendFn              func(ctx context.Context, e *domain.Entry) error
	GetByIdempotencyKeyFn func(ctx context.Context, key string) (*domain.Entry, error)
	ListByWalletFn        func(ctx context.Context, walletID string) ([]domain.Entry, error)
	ListByLoanFn          func(ctx context.Context, loanID string) ([]domain.Entry, error)
}

func (m *Repo) Append(ctx context.Context, e *domain.Entry) error {
	if m.AppendFn != nil {
		return m.AppendFn(ctx, e)
	}
	return nil
}

// GetByIdempotencyKey defaults to not found, the common case for fresh keys.
func (m *Repo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Entry, error) {
	if m.GetByIdempotencyKeyFn != nil {
		return m.GetByIdempotencyKeyFn(ctx, key)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) ListByWallet(ctx context.Context, walletID string) ([]domain.Entry, error) {
	if m.ListByWalletFn != nil {
		return m.ListByWalletFn(ctx, walletID)
	}
	return nil, nil
}

func (m *Repo) ListByLoan(ctx context.Context, loanID string) ([]domain.Entry, error) {
	if m.ListByLoanFn != nil {
		return m.ListByLoanFn(ctx, loanID)
	}
	return nil, nil
}
