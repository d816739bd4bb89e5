package gormdb

import (
	"context"

	ledgerDomain "p2p-lending/internal/domain/ledger"

	"gorm.io/gorm"
)

// LedgerRepository only ever inserts and reads.
type LedgerRepository struct{ db *gorm.DB }

func NewLedgerRepository(db *gorm.DB) *LedgerRepository { return &LedgerRepository{db: db} }

func (r *LedgerRepository) Append(ctx context.Context, e *ledgerDomain.Entry) error {
	err := r.db.WithContext(ctx).Create(e).Error
	return translate(err, nil, ledgerDomain.ErrDuplicateOperation)
}

func (r *LedgerRepository) GetByIdempotencyKey(ctx context.Context, key string) (*ledgerDomain.Entry, error) {
	var out ledgerDomain.Entry
	if err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&out).Error; err != nil {
		return nil, translate(err, ledgerDomain.ErrNotFound, nil)
	}
	return &out, nil
}

func (r *LedgerRepository) ListByWallet(ctx context.Context, walletID string) ([]ledgerDomain.Entry, error) {
	return r.list(ctx, "wallet_id = ?", walletID)
}

func (r *LedgerRepository) ListByLoan(ctx context.Context, loanID string) ([]ledgerDomain.Entry, error) {
	return r.list(ctx, "loan_id = ?", loanID)
}

func (r *LedgerRepository) list(ctx context.Context, where string, arg any) ([]ledgerDomain.Entry, error) {
	var out []ledgerDomain.Entry
	if err := r.db.WithContext(ctx).Where(where, arg).Order("id").Find(&out).Error; err != nil {
		return nil, translate(err, nil, nil)
	}
	return out, nil
}
