package event

import (
	"context"
	"time"
)

type Type string

const (
	TypeLoanApproved    Type = "LoanApproved"
	TypeLoanRejected    Type = "LoanRejected"
	TypeLoanFunded      Type = "LoanFunded"
	TypeLoanFullyFunded Type = "LoanFullyFunded"
	TypeFundingRejected Type = "FundingRejected"
)

// Event is the payload handed to the notification and chat subsystems.
type Event struct {
	ID            string    `json:"id"`
	Type          Type      `json:"type"`
	LoanID        string    `json:"loan_id"`
	BorrowerID    string    `json:"borrower_id,omitempty"`
	LenderID      string    `json:"lender_id,omitempty"`
	ActorID       string    `json:"actor_id,omitempty"`
	Amount        int64     `json:"amount,omitempty"`
	FundedAmount  int64     `json:"funded_amount,omitempty"`
	FundingTarget int64     `json:"funding_target,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher delivers events. Implementations may block; callers that must not
// wait go through an asynchronous dispatcher.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Emitter is the fire-and-forget side used by usecases.
type Emitter interface {
	Emit(e Event)
}

// Nop discards events.
type Nop struct{}

func (Nop) Emit(Event) {}
