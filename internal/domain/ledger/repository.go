package ledger

import "context"

// Repository is append-only: there is no update or delete.
type Repository interface {
	// Append fails with ErrDuplicateOperation if the idempotency key exists.
	Append(ctx context.Context, e *Entry) error
	GetByIdempotencyKey(ctx context.Context, key string) (*Entry, error)
	ListByWallet(ctx context.Context, walletID string) ([]Entry, error)
	ListByLoan(ctx context.Context, loanID string) ([]Entry, error)
}
