package gormdb

import (
	"context"
	"time"

	"p2p-lending/internal/domain/apperr"
	"p2p-lending/internal/domain/ledger"
	loanDomain "p2p-lending/internal/domain/loan"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(l).Error
	return translate(err, nil, apperr.ErrVersionConflict)
}

// Save is a compare-and-swap on version. Associations are written through
// AddInvestment / AddInstallments, never here.
func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	res := r.db.WithContext(ctx).
		Model(&loanDomain.Loan{}).
		Where("id = ? AND version = ?", l.ID, l.Version).
		Updates(map[string]any{
			"funding_target":    l.FundingTarget,
			"funded_amount":     l.FundedAmount,
			"status":            l.Status,
			"status_reason":     l.StatusReason,
			"status_updated_at": l.StatusUpdatedAt,
			"version":           l.Version + 1,
			"updated_at":        time.Now().UTC(),
		})
	if res.Error != nil {
		return translate(res.Error, nil, nil)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrVersionConflict
	}
	l.Version++
	return nil
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Preload("Investments", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Installments", func(db *gorm.DB) *gorm.DB { return db.Order("seq") }).
		Where("loan_id = ?", loanID).
		First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, loanDomain.ErrNotFound, nil)
	}
	return &out, nil
}

// GetByLoanIDForUpdate takes the row lock first and loads investments after,
// so the preload queries never carry the locking clause. sqlite ignores it.
func (r *LoanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	db := r.db.WithContext(ctx)
	var out loanDomain.Loan
	q := db.Where("loan_id = ?", loanID)
	if db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&out).Error; err != nil {
		return nil, translate(err, loanDomain.ErrNotFound, nil)
	}
	if err := db.Where("loan_id = ?", out.ID).Order("id").Find(&out.Investments).Error; err != nil {
		return nil, translate(err, nil, nil)
	}
	return &out, nil
}

func (r *LoanRepository) GetPendingLoanByBorrowerID(ctx context.Context, borrowerID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Where("borrower_id = ? AND status = ?", borrowerID, loanDomain.StatusPending).
		Order("status_updated_at DESC, id DESC").
		First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, loanDomain.ErrNotFound, nil)
	}
	return &out, nil
}

// AddInvestment inserts one contribution. Its idempotency key is unique, so a
// replayed funding that slipped past the ledger check still cannot double-insert.
func (r *LoanRepository) AddInvestment(ctx context.Context, inv *loanDomain.Investment) error {
	err := r.db.WithContext(ctx).Create(inv).Error
	return translate(err, nil, ledger.ErrDuplicateOperation)
}

func (r *LoanRepository) AddInstallments(ctx context.Context, rows []loanDomain.Installment) error {
	if len(rows) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Create(&rows).Error
	return translate(err, nil, apperr.ErrVersionConflict)
}

// List pages by internal id for batch jobs such as reconciliation.
func (r *LoanRepository) List(ctx context.Context, afterID uint64, limit int) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	err := r.db.WithContext(ctx).
		Preload("Investments", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("id > ?", afterID).
		Order("id").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, translate(err, nil, nil)
	}
	return out, nil
}
