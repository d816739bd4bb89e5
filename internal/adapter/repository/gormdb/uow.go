package gormdb

import (
	"context"
	"fmt"

	"p2p-lending/internal/domain/apperr"
	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func bind(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Loans:     &LoanRepository{db: tx},
		Approvals: &ApprovalRepository{db: tx},
		Wallets:   &WalletRepository{db: tx},
		Ledger:    &LedgerRepository{db: tx},
	}
}

// Repos returns repositories bound to the plain connection, for reads and
// single-statement writes outside a transaction.
func (u *GormUoW) Repos() uow.Repos { return bind(u.db) }

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.run(ctx, func(tx *gorm.DB) error { return fn(bind(tx)) })
}

func (u *GormUoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	return u.run(ctx, func(tx *gorm.DB) error {
		r := bind(tx)
		// lock the loan row up-front to prevent races
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
}

// run is gorm's Transaction with one difference: a failed COMMIT is reported as
// a storage failure, since the outcome of the write is then unknown.
func (u *GormUoW) run(ctx context.Context, fn func(tx *gorm.DB) error) (err error) {
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return translate(tx.Error, nil, nil)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()
	if err = fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err = tx.Commit().Error; err != nil {
		return fmt.Errorf("%w: commit: %v", apperr.ErrStorageFailure, err)
	}
	return nil
}
