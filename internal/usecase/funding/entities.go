package funding

import (
	"time"

	"p2p-lending/internal/domain/apperr"
	"p2p-lending/internal/domain/loan"
)

type FundInput struct {
	LoanID         string `json:"-"`
	LenderID       string `json:"-"`
	Amount         int64  `json:"amount"`
	IdempotencyKey string `json:"-"`
}

func (in FundInput) validate() error {
	switch {
	case in.LoanID == "":
		return apperr.Validation("loan id is required")
	case in.LenderID == "":
		return apperr.Validation("lender id is required")
	case in.Amount <= 0:
		return apperr.Validation("amount must be positive")
	case in.IdempotencyKey == "":
		return apperr.Validation("idempotency key is required")
	}
	return nil
}

// Result is the committed state right after a contribution. Replays of the
// same key return the values recorded by the original commit.
type Result struct {
	LoanID          string      `json:"loan_id"`
	LoanStatus      loan.Status `json:"loan_status"`
	FundedAmount    int64       `json:"funded_amount"`
	FundingTarget   int64       `json:"funding_target"`
	Remaining       int64       `json:"remaining"`
	FullyFunded     bool        `json:"fully_funded"`
	LenderID        string      `json:"lender_id"`
	LenderBalance   int64       `json:"lender_balance"`
	BorrowerID      string      `json:"borrower_id"`
	BorrowerBalance int64       `json:"borrower_balance"`
	Amount          int64       `json:"amount"`
	IdempotencyKey  string      `json:"idempotency_key"`
	CommittedAt     time.Time   `json:"committed_at"`
}
