package gormdb

import (
	"context"
	"time"

	"p2p-lending/internal/domain/apperr"
	walletDomain "p2p-lending/internal/domain/wallet"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WalletRepository struct{ db *gorm.DB }

func NewWalletRepository(db *gorm.DB) *WalletRepository { return &WalletRepository{db: db} }

// Create loses to a concurrent open of the same owner with a version conflict,
// which callers retry by reading the winner's row.
func (r *WalletRepository) Create(ctx context.Context, w *walletDomain.Wallet) error {
	err := r.db.WithContext(ctx).Create(w).Error
	return translate(err, nil, apperr.ErrVersionConflict)
}

func (r *WalletRepository) GetByOwnerID(ctx context.Context, ownerID string) (*walletDomain.Wallet, error) {
	var out walletDomain.Wallet
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&out).Error; err != nil {
		return nil, translate(err, walletDomain.ErrNotFound, nil)
	}
	return &out, nil
}

func (r *WalletRepository) GetByOwnerIDForUpdate(ctx context.Context, ownerID string) (*walletDomain.Wallet, error) {
	db := r.db.WithContext(ctx)
	q := db.Where("owner_id = ?", ownerID)
	if db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out walletDomain.Wallet
	if err := q.First(&out).Error; err != nil {
		return nil, translate(err, walletDomain.ErrNotFound, nil)
	}
	return &out, nil
}

func (r *WalletRepository) Save(ctx context.Context, w *walletDomain.Wallet) error {
	res := r.db.WithContext(ctx).
		Model(&walletDomain.Wallet{}).
		Where("id = ? AND version = ?", w.ID, w.Version).
		Updates(map[string]any{
			"balance":    w.Balance,
			"version":    w.Version + 1,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return translate(res.Error, nil, nil)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrVersionConflict
	}
	w.Version++
	return nil
}

func (r *WalletRepository) ListOwnerIDs(ctx context.Context) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).Model(&walletDomain.Wallet{}).Order("id").Pluck("owner_id", &out).Error
	if err != nil {
		return nil, translate(err, nil, nil)
	}
	return out, nil
}
