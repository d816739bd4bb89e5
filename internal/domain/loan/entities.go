package loan

import (
	"time"

	"p2p-lending/internal/domain/apperr"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusFunded    Status = "funded"
	StatusCompleted Status = "completed"
	StatusDefaulted Status = "defaulted"
)

var (
	ErrNotFound                 = apperr.New(apperr.CodeNotFound, "loan not found")
	ErrInvalidTransition        = apperr.New(apperr.CodeInvalidTransition, "loan not in a state that allows this transition")
	ErrAlreadyApproved          = apperr.New(apperr.CodeInvalidTransition, "loan already approved")
	ErrFullyFunded              = apperr.New(apperr.CodeFullyFunded, "loan fully funded")
	ErrExceedsRemainingCapacity = apperr.New(apperr.CodeExceedsCapacity, "amount exceeds remaining funding capacity")
	ErrPendingExists            = apperr.New(apperr.CodePendingExists, "borrower already has a pending loan")
	ErrKYCNotVerified           = apperr.New(apperr.CodeKYCNotVerified, "borrower kyc not verified")
)

// Loan is the funding record of a borrower's request. FundedAmount and
// Investments are only written by the funding coordinator.
type Loan struct {
	ID              uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID          string          `gorm:"size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	BorrowerID      string          `gorm:"size:64;index:idx_loans_borrower_status" json:"borrower_id"`
	RequestedAmount int64           `gorm:"not null" json:"requested_amount"`
	FundingTarget   int64           `gorm:"not null" json:"funding_target"`
	FundedAmount    int64           `gorm:"not null;default:0" json:"funded_amount"`
	Rate            decimal.Decimal `gorm:"type:decimal(9,6)" json:"rate"`
	TermMonths      int             `gorm:"not null" json:"term_months"`
	Status          Status          `gorm:"size:16;index:idx_loans_borrower_status;default:'pending'" json:"status"`
	StatusReason    string          `gorm:"type:text" json:"status_reason,omitempty"`
	StatusUpdatedAt time.Time       `json:"status_updated_at"`
	Version         uint64          `gorm:"not null;default:0" json:"version"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Investments  []Investment  `gorm:"foreignKey:LoanID;references:ID" json:"investments"`
	Installments []Installment `gorm:"foreignKey:LoanID;references:ID" json:"installments,omitempty"`
}

func (Loan) TableName() string { return "loans" }

// Investment is a single lender contribution, committed together with the
// paired wallet movements.
type Investment struct {
	ID             uint64    `gorm:"primaryKey;column:id" json:"-"`
	LoanID         uint64    `gorm:"not null;index" json:"-"`
	LenderID       string    `gorm:"size:64;not null;index" json:"lender_id"`
	Amount         int64     `gorm:"not null" json:"amount"`
	IdempotencyKey string    `gorm:"size:128;not null;uniqueIndex:ux_investments_key" json:"idempotency_key"`
	CommittedAt    time.Time `gorm:"not null" json:"committed_at"`
}

func (Investment) TableName() string { return "loan_investments" }

// Installment is one row of the fixed repayment schedule recorded at approval.
type Installment struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"-"`
	LoanID    uint64    `gorm:"not null;uniqueIndex:ux_installments_loan_seq" json:"-"`
	Seq       int       `gorm:"not null;uniqueIndex:ux_installments_loan_seq" json:"seq"`
	DueDate   time.Time `gorm:"type:date;not null" json:"due_date"`
	Principal int64     `gorm:"not null" json:"principal"`
	Interest  int64     `gorm:"not null" json:"interest"`
	Amount    int64     `gorm:"not null" json:"amount"`
}

func (Installment) TableName() string { return "loan_installments" }

// Remaining is the capacity still open for funding.
func (l *Loan) Remaining() int64 { return l.FundingTarget - l.FundedAmount }

// InvestedTotal sums the recorded contributions.
func (l *Loan) InvestedTotal() int64 {
	var sum int64
	for _, inv := range l.Investments {
		sum += inv.Amount
	}
	return sum
}

// Clone returns a deep copy so callers never share slices with a store.
func (l *Loan) Clone() *Loan {
	if l == nil {
		return nil
	}
	out := *l
	out.Investments = append([]Investment(nil), l.Investments...)
	out.Installments = append([]Installment(nil), l.Installments...)
	return &out
}
