package approval

import "context"

type Repository interface {
	// Create a new decision (DB uniqueness ensures at most one per loan)
	Create(ctx context.Context, a *Approval) error

	// Get decision by numeric loan ID
	GetByLoanID(ctx context.Context, loanID uint64) (*Approval, error)

	// Get by public approval_id
	GetByApprovalID(ctx context.Context, approvalID string) (*Approval, error)
}
