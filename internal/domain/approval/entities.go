package approval

import (
	"time"

	"p2p-lending/internal/domain/apperr"
)

var ErrNotFound = apperr.New(apperr.CodeNotFound, "approval not found")

type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// Approval is the admin decision taken on a pending loan; at most one per loan.
type Approval struct {
	// Internal numeric PK
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Public identifier (32-char lowercase hex)
	ApprovalID string `gorm:"column:approval_id;type:char(32);not null;uniqueIndex:ux_approvals_approval_id"`
	// FK to loans.id (numeric)
	LoanID    uint64    `gorm:"column:loan_id;not null;uniqueIndex:ux_approvals_loan"`
	AdminID   string    `gorm:"column:admin_id;size:64;not null"`
	Decision  Decision  `gorm:"column:decision;size:16;not null"`
	Reason    string    `gorm:"column:reason;type:text"`
	DecidedAt time.Time `gorm:"column:decided_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Approval) TableName() string { return "approvals" }
