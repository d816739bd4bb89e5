package loan

import (
	"time"

	domain "p2p-lending/internal/domain/loan"

	"github.com/shopspring/decimal"
)

type SubmitInput struct {
	BorrowerID string          `json:"-"`
	Amount     int64           `json:"amount"`
	Rate       decimal.Decimal `json:"rate"`
	TermMonths int             `json:"term_months"`
}

type InvestmentDTO struct {
	LenderID    string    `json:"lender_id"`
	Amount      int64     `json:"amount"`
	CommittedAt time.Time `json:"committed_at"`
}

type InstallmentDTO struct {
	Seq       int    `json:"seq"`
	DueDate   string `json:"due_date"`
	Principal int64  `json:"principal"`
	Interest  int64  `json:"interest"`
	Amount    int64  `json:"amount"`
}

type LoanDTO struct {
	LoanID          string           `json:"loan_id"`
	BorrowerID      string           `json:"borrower_id"`
	RequestedAmount int64            `json:"requested_amount"`
	FundingTarget   int64            `json:"funding_target"`
	FundedAmount    int64            `json:"funded_amount"`
	Remaining       int64            `json:"remaining"`
	Rate            decimal.Decimal  `json:"rate"`
	TermMonths      int              `json:"term_months"`
	Status          string           `json:"status"`
	StatusReason    string           `json:"status_reason,omitempty"`
	StatusUpdatedAt time.Time        `json:"status_updated_at"`
	CreatedAt       time.Time        `json:"created_at"`
	Investments     []InvestmentDTO  `json:"investments"`
	Installments    []InstallmentDTO `json:"installments,omitempty"`
}

func ToDTO(l *domain.Loan) *LoanDTO {
	out := &LoanDTO{
		LoanID:          l.LoanID,
		BorrowerID:      l.BorrowerID,
		RequestedAmount: l.RequestedAmount,
		FundingTarget:   l.FundingTarget,
		FundedAmount:    l.FundedAmount,
		Remaining:       l.Remaining(),
		Rate:            l.Rate,
		TermMonths:      l.TermMonths,
		Status:          string(l.Status),
		StatusReason:    l.StatusReason,
		StatusUpdatedAt: l.StatusUpdatedAt,
		CreatedAt:       l.CreatedAt,
		Investments:     make([]InvestmentDTO, 0, len(l.Investments)),
	}
	for _, inv := range l.Investments {
		out.Investments = append(out.Investments, InvestmentDTO{LenderID: inv.LenderID, Amount: inv.Amount, CommittedAt: inv.CommittedAt})
	}
	for _, in := range l.Installments {
		out.Installments = append(out.Installments, InstallmentDTO{
			Seq:       in.Seq,
			DueDate:   in.DueDate.Format(time.DateOnly),
			Principal: in.Principal,
			Interest:  in.Interest,
			Amount:    in.Amount,
		})
	}
	return out
}
