package loanmock

import (
	"context"

	domain "p2p-lending/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset write funcs succeed; unset read funcs return context.Canceled.
type Repo struct {
	CreateFn                     func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn                func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByLoanIDForUpdateFn       func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetPendingLoanByBorrowerIDFn func(ctx context.Context, borrowerID string) (*domain.Loan, error)
	SaveFn                       func(ctx context.Context, l *domain.Loan) error
	AddInvestmentFn              func(ctx context.Context, inv *domain.Investment) error
	AddInstallmentsFn            func(ctx context.Context, rows []domain.Installment) error
	ListFn                       func(ctx context.Context, afterID uint64, limit int) ([]domain.Loan, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDForUpdateFn != nil {
		return m.GetByLoanIDForUpdateFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetPendingLoanByBorrowerID(ctx context.Context, borrowerID string) (*domain.Loan, error) {
	if m.GetPendingLoanByBorrowerIDFn != nil {
		return m.GetPendingLoanByBorrowerIDFn(ctx, borrowerID)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) AddInvestment(ctx context.Context, inv *domain.Investment) error {
	if m.AddInvestmentFn != nil {
		return m.AddInvestmentFn(ctx, inv)
	}
	return nil
}

func (m *Repo) AddInstallments(ctx context.Context, rows []domain.Installment) error {
	if m.AddInstallmentsFn != nil {
		return m.AddInstallmentsFn(ctx, rows)
	}
	return nil
}

func (m *Repo) List(ctx context.Context, afterID uint64, limit int) ([]domain.Loan, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, afterID, limit)
	}
	return nil, context.Canceled
}
