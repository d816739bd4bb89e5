package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	// Lock the loan row for the rest of the transaction.
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	GetPendingLoanByBorrowerID(ctx context.Context, borrowerID string) (*Loan, error)
	// Save persists scalar fields only if the stored version still equals
	// l.Version, then bumps l.Version. A stale version yields apperr.ErrVersionConflict.
	Save(ctx context.Context, l *Loan) error
	AddInvestment(ctx context.Context, inv *Investment) error
	AddInstallments(ctx context.Context, rows []Installment) error
	List(ctx context.Context, afterID uint64, limit int) ([]Loan, error)
}
