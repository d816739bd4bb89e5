package gormdb

import (
	"context"

	"p2p-lending/internal/domain/apperr"
	approvalDomain "p2p-lending/internal/domain/approval"

	"gorm.io/gorm"
)

type ApprovalRepository struct{ db *gorm.DB }

func NewApprovalRepository(db *gorm.DB) *ApprovalRepository { return &ApprovalRepository{db: db} }

// Create relies on ux_approvals_loan: a second decision for a loan is a conflict.
func (r *ApprovalRepository) Create(ctx context.Context, a *approvalDomain.Approval) error {
	err := r.db.WithContext(ctx).Create(a).Error
	return translate(err, nil, apperr.ErrVersionConflict)
}

func (r *ApprovalRepository) GetByLoanID(ctx context.Context, loanNumericID uint64) (*approvalDomain.Approval, error) {
	var out approvalDomain.Approval
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanNumericID).First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, approvalDomain.ErrNotFound, nil)
	}
	return &out, nil
}

func (r *ApprovalRepository) GetByApprovalID(ctx context.Context, approvalID string) (*approvalDomain.Approval, error) {
	var out approvalDomain.Approval
	res := r.db.WithContext(ctx).Where("approval_id = ?", approvalID).First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, approvalDomain.ErrNotFound, nil)
	}
	return &out, nil
}
