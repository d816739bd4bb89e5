package approval

import (
	"time"

	loanuc "p2p-lending/internal/usecase/loan"
)

type ApproveInput struct {
	LoanID  string
	AdminID string
}

type RejectInput struct {
	LoanID  string
	AdminID string
	Reason  string `json:"reason"`
}

type ApprovalDTO struct {
	ApprovalID   string                  `json:"approval_id"`
	LoanID       string                  `json:"loan_id"`
	Decision     string                  `json:"decision"`
	AdminID      string                  `json:"admin_id"`
	Reason       string                  `json:"reason,omitempty"`
	DecidedAt    time.Time               `json:"decided_at"`
	Installments []loanuc.InstallmentDTO `json:"installments,omitempty"`
}
